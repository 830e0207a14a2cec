package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	t.Run("correct credentials", func(t *testing.T) {
		env := setupAPI(t)

		resp := env.do(t, http.MethodPost, "/auth/login", map[string]string{
			"username": "valentin",
			"password": "sup3r-secret",
		})
		require.Equal(t, http.StatusOK, resp.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
		assert.Equal(t, "valentin", body["username"])
		assert.Equal(t, true, body["isAuthenticated"])
	})

	t.Run("wrong credentials get a generic message", func(t *testing.T) {
		env := setupAPI(t)

		resp := env.do(t, http.MethodPost, "/auth/login", map[string]string{
			"username": "valentin",
			"password": "guess",
		})
		require.Equal(t, http.StatusUnauthorized, resp.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
		assert.Equal(t, "invalid credentials", body["error"])
	})

	t.Run("malformed body", func(t *testing.T) {
		env := setupAPI(t)

		resp := env.do(t, http.MethodPost, "/auth/login", "not an object")
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})
}

func TestSession(t *testing.T) {
	env := setupAPI(t)

	t.Run("logged out", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/auth/session", nil)
		require.Equal(t, http.StatusOK, resp.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
		assert.Equal(t, false, body["authenticated"])
	})

	t.Run("logged in", func(t *testing.T) {
		env.loginAsAdmin(t)

		resp := env.do(t, http.MethodGet, "/auth/session", nil)
		require.Equal(t, http.StatusOK, resp.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
		assert.Equal(t, true, body["authenticated"])
	})
}

func TestLogout(t *testing.T) {
	env := setupAPI(t)
	env.loginAsAdmin(t)

	resp := env.do(t, http.MethodPost, "/auth/logout", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	// The session gate closes immediately.
	created := env.do(t, http.MethodPost, "/project", map[string]string{
		"title":      "after logout",
		"youtubeUrl": "https://youtu.be/ABC123xyz_",
	})
	assert.Equal(t, http.StatusUnauthorized, created.Code)
}
