package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/jonathan/profile-wizard/internal/persistence"
	"github.com/jonathan/profile-wizard/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func useFileSnapshots(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("PROFILE_WIZARD_SNAPSHOT_BACKEND", "file")
	t.Setenv("PROFILE_WIZARD_SNAPSHOT_DIR", dir)
	return dir
}

func TestDemo_ThenInspect(t *testing.T) {
	useFileSnapshots(t)
	userID := uuid.NewString()

	out, err := execute(t, "demo", "--user", userID, "--seed", "7")
	require.NoError(t, err)

	assert.Contains(t, out, "Session for user "+userID)
	assert.Contains(t, out, "Merged 1 entries from the server")
	assert.Contains(t, out, "React 18 added")
	assert.Contains(t, out, "already exists")
	assert.Contains(t, out, "Finish the current step first")
	assert.Contains(t, out, "Software Engineer @ Acme added")
	assert.Contains(t, out, "Skills (2):")
	assert.Contains(t, out, "4. [x] Review (current)")
	assert.Contains(t, out, "Step 4/4")

	out, err = execute(t, "inspect", "--user", userID)
	require.NoError(t, err)
	assert.Contains(t, out, "SNAPSHOT")
	assert.Contains(t, out, "profile-wizard:"+userID)
	assert.Contains(t, out, "Step:   3")
	assert.Contains(t, out, "React 18")

	out, err = execute(t, "inspect", "--user", userID, "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"current_step": 3`)

	// A second run recovers the draft instead of starting over.
	out, err = execute(t, "demo", "--user", userID)
	require.NoError(t, err)
	assert.Contains(t, out, "Recovered previous draft")
}

func TestDemo_FailedExperienceRollsBack(t *testing.T) {
	useFileSnapshots(t)

	out, err := execute(t, "demo", "--fail-experience", "--user", uuid.NewString())
	require.NoError(t, err)

	assert.Contains(t, out, "Could not create Software Engineer @ Acme")
	assert.NotContains(t, out, "Software Engineer @ Acme added")
	assert.NotContains(t, out, "Experience (")
	assert.Contains(t, out, "Step 2/4")
}

func TestInspect_NoDraft(t *testing.T) {
	useFileSnapshots(t)
	userID := uuid.NewString()

	out, err := execute(t, "inspect", "--user", userID)
	require.NoError(t, err)
	assert.Contains(t, out, "No draft saved for user "+userID)
}

func TestInspect_File(t *testing.T) {
	dir := useFileSnapshots(t)
	userID := uuid.MustParse("3f0c2a8e-5d1b-4e6f-9a7c-2b8d4e6f0a1c")

	_, err := execute(t, "demo", "--user", userID.String())
	require.NoError(t, err)

	store, err := persistence.NewFileStore(dir)
	require.NoError(t, err)
	path := store.Path(types.SnapshotKey(types.Identity{UserID: userID}))

	out, err := execute(t, "inspect", "--file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "SNAPSHOT")
	assert.Contains(t, out, "React 18")

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"key":"k"}`), 0o600))
	_, err = execute(t, "inspect", "--file", bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to inspect")
}

func TestInspect_RequiresUser(t *testing.T) {
	useFileSnapshots(t)

	_, err := execute(t, "inspect")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--user is required")

	_, err = execute(t, "inspect", "--user", "not-a-uuid")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid user ID")
}

func TestServe_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("PROFILE_WIZARD_DATABASE_URL", "")

	_, err := execute(t, "serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database URL is required")
}

func TestInvalidConfigRejected(t *testing.T) {
	t.Setenv("PROFILE_WIZARD_SNAPSHOT_BACKEND", "s3")

	_, err := execute(t, "inspect", "--user", uuid.NewString())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown snapshot backend")
}
