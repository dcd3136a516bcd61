package schemas

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSnapshotFile_Valid(t *testing.T) {
	err := ValidateSnapshotFile(filepath.Join("testdata", "valid_snapshot.json"))
	assert.NoError(t, err)
}

func TestValidateSnapshotFile_Invalid(t *testing.T) {
	err := ValidateSnapshotFile(filepath.Join("testdata", "invalid_snapshot.json"))
	require.Error(t, err)

	validationErr, ok := err.(*ValidationError)
	require.True(t, ok, "error should be ValidationError type")

	fields := make([]string, 0, len(validationErr.Errors))
	for _, fe := range validationErr.Errors {
		fields = append(fields, fe.Field)
	}
	assert.Contains(t, fields, "payload.progress.score")
	assert.Contains(t, fields, "payload.current_step")
}

func TestValidateSnapshotFile_NotFound(t *testing.T) {
	err := ValidateSnapshotFile(filepath.Join("testdata", "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestValidateSnapshot_Malformed(t *testing.T) {
	err := ValidateSnapshot([]byte("{ invalid json }"))
	require.Error(t, err)
	_, ok := err.(*ValidationError)
	assert.True(t, ok)
}

func TestValidateSnapshot_MissingPayload(t *testing.T) {
	err := ValidateSnapshot([]byte(`{"key":"k","timestamp":"2026-03-01T10:00:00Z"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "payload")
}

func TestValidateSnapshot_EmbeddedSchemaCompiles(t *testing.T) {
	_, err := snapshotSchemaCompiled()
	require.NoError(t, err)
}

func TestValidateSnapshotFile_ReadsFromTempDir(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "valid_snapshot.json"))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "draft.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	assert.NoError(t, ValidateSnapshotFile(path))
}
