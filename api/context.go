package api

import (
	"context"
)

type keyType string

const usernameKey keyType = "username"

// ctxWithUsername adds the session username to the context
func ctxWithUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, usernameKey, username)
}

// ctxUsername retrieves the session username, empty when unauthenticated
func ctxUsername(ctx context.Context) string {
	if value, ok := ctx.Value(usernameKey).(string); ok {
		return value
	}
	return ""
}
