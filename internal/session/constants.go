// Package session provides shared session constants used by both
// the handler and middleware packages.
package session

const (
	// CookieName is the name of the cookie that stores the upstream API
	// session token.
	CookieName = "boardweb_session"

	// CookiePath ensures the cookie is sent with all requests.
	CookiePath = "/"

	// CookieMaxAge sets the cookie expiration (7 days = 604800 seconds).
	// The upstream session may expire sooner; the auth middleware treats
	// a rejected token as anonymous and clears the cookie.
	CookieMaxAge = 7 * 24 * 60 * 60
)
