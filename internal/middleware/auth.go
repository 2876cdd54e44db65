// Package middleware contains HTTP middleware for the boardweb application.
//
// Middleware functions follow the standard Go pattern of wrapping
// http.Handler and are composed with the Stack helper.
package middleware

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/bunnyburrow/boardweb/internal/api"
	"github.com/bunnyburrow/boardweb/internal/auth"
	"github.com/bunnyburrow/boardweb/internal/session"
)

// AuthMiddleware resolves the viewer for each request.
//
// This frontend holds no account state of its own. The session cookie stores
// the upstream API session token; WithUser forwards it to the upstream
// current-user endpoint and puts the result (token and, when authenticated,
// user) into the request context.
type AuthMiddleware struct {
	users    api.UserService
	logger   *slog.Logger
	isSecure bool // Whether to set Secure flag on cookies (true in production)
}

// NewAuthMiddleware creates a new AuthMiddleware instance.
func NewAuthMiddleware(users api.UserService, logger *slog.Logger, isSecure bool) *AuthMiddleware {
	return &AuthMiddleware{
		users:    users,
		logger:   logger,
		isSecure: isSecure,
	}
}

// WithUser is middleware that attempts to load the viewer from the session
// cookie.
//
// The current-user probe is best-effort: a missing cookie, an expired
// upstream session, or an unreachable API all leave the request anonymous
// and continue to the next handler. An upstream rejection additionally
// clears the stale cookie.
func (m *AuthMiddleware) WithUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(session.CookieName)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		// The token goes into context regardless of the probe outcome so
		// downstream API calls carry it; the upstream API is the authority
		// on whether it is still valid.
		ctx := auth.SetToken(r.Context(), cookie.Value)

		user, err := m.users.CurrentUser(ctx)
		if err != nil {
			// Transport failure. Keep the cookie; the session may still be
			// valid once the API is reachable again.
			m.logger.Warn("current-user probe failed", "error", err)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}
		if user == nil {
			// Upstream rejected the session. Clear the stale cookie.
			ClearSessionCookie(w, m.isSecure)
			next.ServeHTTP(w, r)
			return
		}

		ctx = auth.SetUser(ctx, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireUser is middleware that requires an authenticated viewer.
//
// Unauthenticated HTML requests are redirected to /login with a return_to
// parameter that round-trips back to the original URL after login. JSON
// requests get a 401. Must run after WithUser.
func (m *AuthMiddleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := auth.GetUser(r.Context())
		if user == nil {
			if isAPIRequest(r) {
				unauthorizedJSON(w)
				return
			}

			returnTo := r.URL.Path
			if r.URL.RawQuery != "" {
				returnTo += "?" + r.URL.RawQuery
			}
			http.Redirect(w, r, "/login?return_to="+url.QueryEscape(returnTo), http.StatusSeeOther)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireAdmin is middleware that requires the viewer to carry the admin
// role. This gates the user-management pages; the upstream API enforces the
// same check on every admin call. Must run after RequireUser.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := auth.GetUser(r.Context())
		if user == nil {
			m.logger.Error("RequireAdmin called without user in context")
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		if !user.IsAdmin() {
			http.Error(w, "You don't have permission to access this page.", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// SetSessionCookie stores the upstream session token in this application's
// session cookie.
//
// Cookie settings:
// - HttpOnly: true - Prevents JavaScript access (XSS protection)
// - Secure: configurable - true in production (HTTPS only)
// - SameSite: Lax - Prevents CSRF while allowing normal navigation
func SetSessionCookie(w http.ResponseWriter, token string, isSecure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    token,
		Path:     session.CookiePath,
		MaxAge:   session.CookieMaxAge,
		HttpOnly: true,
		Secure:   isSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie removes the session cookie from the client.
func ClearSessionCookie(w http.ResponseWriter, isSecure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     session.CookiePath,
		MaxAge:   -1, // Delete immediately
		HttpOnly: true,
		Secure:   isSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// isAPIRequest determines if the request expects a JSON response.
func isAPIRequest(r *http.Request) bool {
	// htmx requests want HTML fragments
	if r.Header.Get("HX-Request") == "true" {
		return false
	}

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}

	return false
}

// unauthorizedJSON writes a minimal 401 JSON body.
func unauthorizedJSON(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":{"code":"unauthorized","message":"Authentication required"}}`))
}

// Stack composes multiple middleware functions into a single middleware.
//
// Middleware is applied in the order provided: the first middleware in the
// slice is the outermost (runs first on request, last on response).
func Stack(middlewares ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}
