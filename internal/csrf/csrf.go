// Package csrf provides CSRF protection using the double-submit cookie
// pattern: a random token lives in a cookie and is echoed back in a hidden
// form field, and the two must match on every mutating request. A
// cross-origin attacker can make the browser send the cookie but cannot read
// it, so it cannot forge the matching form field.
package csrf

import (
	"crypto/subtle"
	"encoding/base64"
	"net/http"

	"github.com/google/uuid"
)

const (
	// CookieName is the name of the CSRF token cookie.
	CookieName = "csrf_token"

	// FormFieldName is the name of the CSRF token form field.
	FormFieldName = "csrf_token"

	// CookieMaxAge is the lifetime of the CSRF cookie (1 hour). Shorter
	// than the session cookie so tokens rotate regularly.
	CookieMaxAge = 3600
)

// GenerateToken generates a random token: two UUIDv4s worth of entropy,
// base64 URL-encoded.
func GenerateToken() string {
	a := uuid.New()
	b := uuid.New()
	raw := append(a[:], b[:]...)
	return base64.URLEncoding.EncodeToString(raw)
}

// ValidateToken compares the cookie token with the form token in constant
// time. Returns true only when both are present and equal.
func ValidateToken(cookieToken, formToken string) bool {
	if cookieToken == "" || formToken == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(cookieToken), []byte(formToken)) == 1
}

// ValidateRequest validates the CSRF token of a request by comparing the
// csrf_token cookie with the csrf_token form field.
func ValidateRequest(r *http.Request) bool {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return false
	}
	return ValidateToken(cookie.Value, r.FormValue(FormFieldName))
}

// SetCookie sets the CSRF token cookie on the response. The cookie is not
// HttpOnly because form rendering reads it back via EnsureToken.
func SetCookie(w http.ResponseWriter, token string, isSecure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   CookieMaxAge,
		HttpOnly: false,
		Secure:   isSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

// GetTokenFromRequest retrieves the CSRF token from the request cookie.
// Returns empty string if the cookie doesn't exist.
func GetTokenFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// EnsureToken returns the request's existing CSRF token, or generates a new
// one and sets its cookie. Handlers call this on every GET that renders a
// form.
func EnsureToken(w http.ResponseWriter, r *http.Request, isSecure bool) string {
	if existing := GetTokenFromRequest(r); existing != "" {
		return existing
	}

	token := GenerateToken()
	SetCookie(w, token, isSecure)
	return token
}
