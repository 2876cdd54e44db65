package middleware

import (
	"log/slog"
	"net/http"

	"github.com/bunnyburrow/boardweb/internal/csrf"
)

// CSRFMiddleware validates CSRF tokens on mutating requests.
type CSRFMiddleware struct {
	logger *slog.Logger
}

// NewCSRFMiddleware creates a new CSRF middleware.
func NewCSRFMiddleware(logger *slog.Logger) *CSRFMiddleware {
	return &CSRFMiddleware{logger: logger}
}

// Protect returns middleware that rejects POST/PUT/DELETE requests whose
// form token does not match the csrf_token cookie. Safe methods pass
// through untouched.
func (m *CSRFMiddleware) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}

		if !csrf.ValidateRequest(r) {
			m.logger.Warn("CSRF validation failed",
				"path", r.URL.Path,
				"method", r.Method,
				"ip", getClientIP(r),
			)
			http.Error(w, "Invalid security token. Please reload the page and try again.", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}
