// Package auth provides authentication context helpers.
//
// This package is designed to be imported by middleware, handler, and API
// client packages without causing import cycles.
package auth

import (
	"context"
	"net/http"

	"github.com/bunnyburrow/boardweb/internal/domain"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// userContextKey stores the authenticated user in context.
	userContextKey contextKey = "user"

	// tokenContextKey stores the upstream API session token in context.
	// The API client forwards it as the upstream session cookie.
	tokenContextKey contextKey = "session_token"
)

// GetUser retrieves the authenticated user from the context.
// Returns nil if no user is authenticated.
func GetUser(ctx context.Context) *domain.User {
	user, ok := ctx.Value(userContextKey).(*domain.User)
	if !ok {
		return nil
	}
	return user
}

// GetUserFromRequest retrieves the authenticated user from the request context.
func GetUserFromRequest(r *http.Request) *domain.User {
	return GetUser(r.Context())
}

// SetUser stores a user in the context. Called by the auth middleware after
// the current-user probe succeeds.
func SetUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// SetToken stores the upstream session token in the context.
func SetToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenContextKey, token)
}

// Token retrieves the upstream session token from the context.
// Returns the empty string for anonymous requests.
func Token(ctx context.Context) string {
	token, ok := ctx.Value(tokenContextKey).(string)
	if !ok {
		return ""
	}
	return token
}
