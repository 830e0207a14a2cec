package api

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/valentinmtg/video-portfolio-backend/auth"
	"github.com/valentinmtg/video-portfolio-backend/errs"
)

type authHandler struct {
	responder Responder
	logger    zerolog.Logger
	gate      *auth.Gate
}

func newAuthHandler(gate *auth.Gate) authHandler {
	logger := log.With().Str("handlerName", "authHandler").Logger()

	return authHandler{
		responder: NewResponder(logger),
		logger:    logger,
		gate:      gate,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// login checks the submitted credentials against the configured admin pair.
// The failure message stays generic on purpose.
func (h authHandler) login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.responder.WriteError(w, errs.NewBadRequestError("malformed request body"))
			return
		}

		user, ok := h.gate.Login(r.Context(), req.Username, req.Password)
		if !ok {
			h.responder.WriteError(w, errs.NewUnauthorizedError("invalid credentials"))
			return
		}

		h.responder.WriteJSON(w, user)
	}
}

// logout clears the session record
func (h authHandler) logout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.gate.Logout(r.Context())

		h.responder.WriteJSON(w, map[string]string{"status": "success"})
	}
}

// session reports the current session state so the admin panel can restore a
// login across page loads.
func (h authHandler) session() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := h.gate.CurrentUser(r.Context())
		if user == nil {
			h.responder.WriteJSON(w, map[string]any{"authenticated": false})
			return
		}

		h.responder.WriteJSON(w, map[string]any{
			"authenticated": true,
			"user":          user,
		})
	}
}
