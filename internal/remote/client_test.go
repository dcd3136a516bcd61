package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/jonathan/profile-wizard/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResource_CRUD(t *testing.T) {
	userID := uuid.New()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /users/{id}/skills", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, userID.String(), r.PathValue("id"))
		var in types.SkillEntry
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		in.RemoteID = "srv-1"
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(in)
	})
	mux.HandleFunc("PUT /skills/{id}", func(w http.ResponseWriter, r *http.Request) {
		var in types.SkillEntry
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		in.RemoteID = r.PathValue("id")
		_ = json.NewEncoder(w).Encode(in)
	})
	mux.HandleFunc("DELETE /skills/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /users/{id}/skills", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []types.SkillEntry{{RemoteID: "srv-1", Name: "Go"}},
			"count": 1,
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	res := NewResource[types.SkillEntry](NewClient(srv.URL, userID), "skills")
	ctx := context.Background()

	created, err := res.Create(ctx, types.SkillEntry{Name: "Go"})
	require.NoError(t, err)
	assert.Equal(t, "srv-1", created.RemoteID)

	updated, err := res.Update(ctx, "srv-1", types.SkillEntry{Name: "Go", Level: "expert"})
	require.NoError(t, err)
	assert.Equal(t, "expert", updated.Level)

	require.NoError(t, res.Delete(ctx, "srv-1"))

	items, err := res.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Go", items[0].Name)
}

func TestResource_ServerRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "duplicate skill"})
	}))
	defer srv.Close()

	res := NewResource[types.SkillEntry](NewClient(srv.URL, uuid.New()), "skills")
	_, err := res.Create(context.Background(), types.SkillEntry{Name: "Go"})

	var me *MutationError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, OpCreate, me.Op)
	assert.Equal(t, http.StatusConflict, me.StatusCode)
	assert.Contains(t, me.Error(), "duplicate skill")
}

func TestResource_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	res := NewResource[types.ExperienceEntry](NewClient(url, uuid.New()), "experiences")
	err := res.Delete(context.Background(), "x")

	var me *MutationError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, OpDelete, me.Op)
	assert.Zero(t, me.StatusCode)
}

func TestMemory_CreateIdempotentByNaturalKey(t *testing.T) {
	m := NewMemory[types.SkillEntry]("skills")
	ctx := context.Background()

	a, err := m.Create(ctx, types.SkillEntry{Name: "React", Version: "18"})
	require.NoError(t, err)
	b, err := m.Create(ctx, types.SkillEntry{Name: "react", Version: "18"})
	require.NoError(t, err)

	assert.Equal(t, a.RemoteID, b.RemoteID)
	assert.Len(t, m.Items(), 1)
	assert.Equal(t, 2, m.Calls(OpCreate))
}

func TestMemory_FailNext(t *testing.T) {
	m := NewMemory[types.SkillEntry]("skills")
	boom := errors.New("boom")
	m.FailNext(OpCreate, boom)

	_, err := m.Create(context.Background(), types.SkillEntry{Name: "Go"})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, m.Items())

	_, err = m.Create(context.Background(), types.SkillEntry{Name: "Go"})
	assert.NoError(t, err)
}
