package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valentinmtg/video-portfolio-backend/auth"
	"github.com/valentinmtg/video-portfolio-backend/database"
	"github.com/valentinmtg/video-portfolio-backend/models"
	"github.com/valentinmtg/video-portfolio-backend/realtime"
	"github.com/valentinmtg/video-portfolio-backend/store"
)

type testEnv struct {
	router http.Handler
	gate   *auth.Gate
	repo   *database.ProjectRepo
}

func setupAPI(t *testing.T) *testEnv {
	t.Helper()

	kv := store.NewMemoryKV()
	bus := realtime.NewBroadcaster()
	syncService := realtime.NewSyncService(kv, bus, realtime.DefaultPollInterval)

	db := database.New(kv, syncService, bus)
	require.NoError(t, db.Load(context.Background()))

	cfg := map[string]string{
		"ADMIN_USERNAME":   "valentin",
		"ADMIN_PASSWORD":   "sup3r-secret",
		"ACCEPTED_ORIGINS": "*",
	}
	gate := auth.NewGate(cfg, kv, bus)

	return &testEnv{
		router: newRouter(db, gate, bus, withConfig(cfg)),
		gate:   gate,
		repo:   db.ProjectRepo(),
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	e.router.ServeHTTP(recorder, req)
	return recorder
}

func (e *testEnv) loginAsAdmin(t *testing.T) {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/auth/login", map[string]string{
		"username": "valentin",
		"password": "sup3r-secret",
	})
	require.Equal(t, http.StatusOK, resp.Code)
}

func TestGetAllProjects(t *testing.T) {
	env := setupAPI(t)

	resp := env.do(t, http.MethodGet, "/projects", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var collection ProjectCollection
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &collection))
	assert.Equal(t, len(models.DefaultProjects()), collection.Total)
	assert.Len(t, collection.Projects, collection.Total)
}

func TestGetProject(t *testing.T) {
	env := setupAPI(t)

	t.Run("known id", func(t *testing.T) {
		existing := env.repo.FindAll()[0]

		resp := env.do(t, http.MethodGet, "/project/"+existing.ID, nil)
		require.Equal(t, http.StatusOK, resp.Code)

		var got models.Project
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
		assert.Equal(t, existing.ID, got.ID)
	})

	t.Run("unknown id", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/project/does-not-exist", nil)
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})
}

func TestCreateProject(t *testing.T) {
	t.Run("requires a session", func(t *testing.T) {
		env := setupAPI(t)

		resp := env.do(t, http.MethodPost, "/project", map[string]string{
			"title":      "clip",
			"youtubeUrl": "https://youtu.be/ABC123xyz_",
		})
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("creates with derived video fields", func(t *testing.T) {
		env := setupAPI(t)
		env.loginAsAdmin(t)

		resp := env.do(t, http.MethodPost, "/project", map[string]string{
			"title":      "montage dynamique",
			"duration":   "4:20",
			"views":      "12k vues",
			"youtubeUrl": "https://youtu.be/ABC123xyz_",
		})
		require.Equal(t, http.StatusCreated, resp.Code)

		var created models.Project
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
		assert.Equal(t, "ABC123xyz_", created.VideoID)
		assert.Equal(t, models.ThumbnailURL("ABC123xyz_"), created.Thumbnail)
		assert.NotEmpty(t, created.ID)

		assert.NotNil(t, env.repo.FindByID(created.ID))
	})

	t.Run("rejects an invalid YouTube URL", func(t *testing.T) {
		env := setupAPI(t)
		env.loginAsAdmin(t)

		resp := env.do(t, http.MethodPost, "/project", map[string]string{
			"title":      "clip",
			"youtubeUrl": "https://vimeo.com/123",
		})
		require.Equal(t, http.StatusBadRequest, resp.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
		assert.Equal(t, "youtubeUrl", body["field"])
	})

	t.Run("rejects a missing title", func(t *testing.T) {
		env := setupAPI(t)
		env.loginAsAdmin(t)

		resp := env.do(t, http.MethodPost, "/project", map[string]string{
			"youtubeUrl": "https://youtu.be/ABC123xyz_",
		})
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})
}

func TestUpdateProject(t *testing.T) {
	env := setupAPI(t)
	env.loginAsAdmin(t)

	existing := env.repo.FindAll()[0]

	t.Run("merges provided fields", func(t *testing.T) {
		resp := env.do(t, http.MethodPut, "/project/"+existing.ID, map[string]string{
			"title": "nouveau titre",
		})
		require.Equal(t, http.StatusOK, resp.Code)

		var updated models.Project
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &updated))
		assert.Equal(t, "nouveau titre", updated.Title)
		assert.Equal(t, existing.YoutubeURL, updated.YoutubeURL)
	})

	t.Run("re-derives video fields on URL change", func(t *testing.T) {
		resp := env.do(t, http.MethodPut, "/project/"+existing.ID, map[string]string{
			"youtubeUrl": "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		})
		require.Equal(t, http.StatusOK, resp.Code)

		var updated models.Project
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &updated))
		assert.Equal(t, "dQw4w9WgXcQ", updated.VideoID)
		assert.Equal(t, models.ThumbnailURL("dQw4w9WgXcQ"), updated.Thumbnail)
	})

	t.Run("invalid URL is rejected before persisting", func(t *testing.T) {
		resp := env.do(t, http.MethodPut, "/project/"+existing.ID, map[string]string{
			"youtubeUrl": "not a video",
		})
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("unknown id is 404", func(t *testing.T) {
		resp := env.do(t, http.MethodPut, "/project/does-not-exist", map[string]string{
			"title": "ghost",
		})
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})
}

func TestDeleteProject(t *testing.T) {
	env := setupAPI(t)
	env.loginAsAdmin(t)

	existing := env.repo.FindAll()[0]
	before := len(env.repo.FindAll())

	resp := env.do(t, http.MethodDelete, "/project/"+existing.ID, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	assert.Nil(t, env.repo.FindByID(existing.ID))
	assert.Len(t, env.repo.FindAll(), before-1)

	t.Run("unknown id is 404", func(t *testing.T) {
		resp := env.do(t, http.MethodDelete, "/project/"+existing.ID, nil)
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})
}
