package auth

import (
	"context"
	"crypto/subtle"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/valentinmtg/video-portfolio-backend/config"
	"github.com/valentinmtg/video-portfolio-backend/models"
	"github.com/valentinmtg/video-portfolio-backend/realtime"
	"github.com/valentinmtg/video-portfolio-backend/store"
)

const (
	fallbackUsername = "admin"
	fallbackPassword = "admin123"
)

// Gate compares submitted credentials against the configured admin pair and
// keeps the session record in the shared store. There is no expiry, lockout
// or rate limiting: the session persists until explicit logout or a corrupted
// stored value.
type Gate struct {
	kv       store.KV
	bus      *realtime.Broadcaster
	username string
	password string
	logger   zerolog.Logger
}

func NewGate(cfg map[string]string, kv store.KV, bus *realtime.Broadcaster) *Gate {
	logger := log.With().Str("component", "authGate").Logger()

	password := config.GetString(cfg, "ADMIN_PASSWORD", fallbackPassword)
	if password == fallbackPassword {
		logger.Warn().Msg("ADMIN_PASSWORD not configured, running on the built-in fallback")
	}

	return &Gate{
		kv:       kv,
		bus:      bus,
		username: config.GetString(cfg, "ADMIN_USERNAME", fallbackUsername),
		password: password,
		logger:   logger,
	}
}

// Login returns the authenticated user on a credential match, writing the
// session record and broadcasting adminLogin. A mismatch returns (nil, false)
// with no side effects.
func (g *Gate) Login(ctx context.Context, username, password string) (*models.User, bool) {
	usernameOK := subtle.ConstantTimeCompare([]byte(username), []byte(g.username)) == 1
	passwordOK := subtle.ConstantTimeCompare([]byte(password), []byte(g.password)) == 1
	if !usernameOK || !passwordOK {
		return nil, false
	}

	user := models.User{Username: username, IsAuthenticated: true}
	if err := store.SetJSON(ctx, g.kv, store.KeyUser, user); err != nil {
		g.logger.Error().Err(err).Msg("failed to persist session record")
		return nil, false
	}

	g.bus.Publish(realtime.Event{Type: realtime.EventAdminLogin, Username: username})
	return &user, true
}

// Logout clears the session record and broadcasts adminLogout. Safe to call
// when no session exists.
func (g *Gate) Logout(ctx context.Context) {
	if err := g.kv.Delete(ctx, store.KeyUser); err != nil {
		g.logger.Error().Err(err).Msg("failed to clear session record")
	}
	g.bus.Publish(realtime.Event{Type: realtime.EventAdminLogout})
}

// CurrentUser returns the stored session, or nil when logged out. A session
// record that fails to parse is destroyed and reported as logged out.
func (g *Gate) CurrentUser(ctx context.Context) *models.User {
	var user models.User
	err := store.GetJSON(ctx, g.kv, store.KeyUser, &user)
	if err == store.ErrKeyNotFound {
		return nil
	}
	if err != nil {
		g.logger.Warn().Err(err).Msg("stored session unreadable, clearing it")
		if delErr := g.kv.Delete(ctx, store.KeyUser); delErr != nil {
			g.logger.Error().Err(delErr).Msg("failed to clear corrupt session record")
		}
		return nil
	}
	return &user
}
