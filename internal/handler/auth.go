// Package handler contains HTTP handlers for the boardweb application.
//
// This file implements the login, logout and signup flows. Authentication
// itself lives in the upstream API; these handlers exchange credentials for
// an upstream session token and store it in this application's session
// cookie.
package handler

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/bunnyburrow/boardweb/internal/api"
	"github.com/bunnyburrow/boardweb/internal/auth"
	"github.com/bunnyburrow/boardweb/internal/csrf"
	"github.com/bunnyburrow/boardweb/internal/domain"
	"github.com/bunnyburrow/boardweb/internal/middleware"
)

// TemplateRenderer is the rendering surface handlers depend on.
type TemplateRenderer interface {
	RenderHTTP(w http.ResponseWriter, name string, data interface{})
	RenderPartial(w http.ResponseWriter, name string, data interface{})
}

// Flash represents a flash message to display to the user.
//
// The Type field determines styling in templates:
// - "success" -> green background
// - "error"   -> red background
// - "info"    -> blue background
type Flash struct {
	Type    string // "success", "error", or "info"
	Message string
}

// AuthPageData contains common data for authentication pages.
// This struct is passed to login.html and signup.html templates.
type AuthPageData struct {
	CurrentPath string            // Current URL path for navigation highlighting
	CSRFToken   string            // CSRF token for form protection
	Form        map[string]string // Form field values for re-populating on error
	Errors      map[string]string // Field-level validation errors
	Flash       *Flash            // Flash message to display
	ReturnTo    string            // URL to redirect to after successful login
}

// AuthHandler handles authentication-related HTTP requests.
//
// Routes handled:
// - GET  /login  -> ShowLogin
// - POST /login  -> Login
// - POST /logout -> Logout
// - GET  /signup -> ShowSignup
// - POST /signup -> Signup
type AuthHandler struct {
	authn    api.AuthService
	limiter  *middleware.AuthRateLimiter
	renderer TemplateRenderer
	logger   *slog.Logger
	isSecure bool
}

// NewAuthHandler creates a new AuthHandler with the required dependencies.
func NewAuthHandler(
	authn api.AuthService,
	limiter *middleware.AuthRateLimiter,
	renderer TemplateRenderer,
	logger *slog.Logger,
	isSecure bool,
) *AuthHandler {
	return &AuthHandler{
		authn:    authn,
		limiter:  limiter,
		renderer: renderer,
		logger:   logger,
		isSecure: isSecure,
	}
}

// RegisterRoutes registers all auth routes on the provided ServeMux.
// The login and signup POST routes run behind the auth rate limiter.
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("GET /login", http.HandlerFunc(h.ShowLogin))
	mux.Handle("POST /login", h.limiter.LimitLogin(http.HandlerFunc(h.Login)))
	mux.Handle("POST /logout", http.HandlerFunc(h.Logout))
	mux.Handle("GET /signup", http.HandlerFunc(h.ShowSignup))
	mux.Handle("POST /signup", h.limiter.LimitSignup(http.HandlerFunc(h.Signup)))
}

// =============================================================================
// GET /login - Show Login Form
// =============================================================================

// ShowLogin renders the login form.
//
// Query Parameters:
// - return_to (optional): URL to redirect to after successful login
// - registered (optional): If "1", show success message for new signup
// - logout (optional): If "1", show signed-out message
func (h *AuthHandler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	// Already signed in: nothing to do here
	if user := auth.GetUserFromRequest(r); user != nil {
		http.Redirect(w, r, "/boards", http.StatusSeeOther)
		return
	}

	var flash *Flash
	if r.URL.Query().Get("registered") == "1" {
		flash = &Flash{
			Type:    "success",
			Message: "Account created successfully! Please sign in.",
		}
	} else if r.URL.Query().Get("logout") == "1" {
		flash = &Flash{
			Type:    "success",
			Message: "You have been signed out.",
		}
	}

	data := AuthPageData{
		CurrentPath: r.URL.Path,
		CSRFToken:   csrf.EnsureToken(w, r, h.isSecure),
		Form:        make(map[string]string),
		Errors:      make(map[string]string),
		Flash:       flash,
		ReturnTo:    r.URL.Query().Get("return_to"),
	}

	h.renderer.RenderHTTP(w, "auth/login", data)
}

// =============================================================================
// POST /login - Process Login
// =============================================================================

// Login processes the login form submission.
//
// Invalid credentials always produce the same generic message; whether the
// username exists is not revealed. Failed attempts count against the login
// rate limit.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.logger.Error("failed to parse form", "error", err)
		h.renderLoginError(w, r, nil, nil, &Flash{
			Type:    "error",
			Message: "Invalid form submission. Please try again.",
		})
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	returnTo := r.FormValue("return_to")

	// Store form values for re-rendering (except password)
	formValues := map[string]string{
		"Username": username,
	}

	errors := make(map[string]string)

	if username == "" {
		errors["username"] = "Username is required"
	}

	if password == "" {
		errors["password"] = "Password is required"
	}

	if len(errors) > 0 {
		h.renderLoginError(w, r, formValues, errors, nil)
		return
	}

	token, err := h.authn.Login(r.Context(), domain.Credentials{
		Username: username,
		Password: password,
	})
	if err != nil {
		code := domain.ErrorCode(err)
		switch code {
		case domain.EUNAUTHORIZED:
			// Invalid credentials - use generic message
			h.limiter.RecordFailedLogin(middleware.ClientIP(r))
			h.renderLoginError(w, r, formValues, nil, &Flash{
				Type:    "error",
				Message: "Invalid username or password",
			})
		default:
			h.logger.Error("login failed", "error", err, "username", username)
			h.renderLoginError(w, r, formValues, nil, &Flash{
				Type:    "error",
				Message: "Login failed. Please try again later.",
			})
		}
		return
	}

	h.limiter.ResetLogin(middleware.ClientIP(r))

	// Store the upstream session token in our own cookie
	middleware.SetSessionCookie(w, token, h.isSecure)

	h.logger.Info("user logged in", "username", username)

	redirectURL := "/boards"
	if returnTo != "" && isSafeRedirectURL(returnTo) {
		redirectURL = returnTo
	}
	http.Redirect(w, r, redirectURL, http.StatusSeeOther)
}

// renderLoginError re-renders the login form with errors.
func (h *AuthHandler) renderLoginError(
	w http.ResponseWriter,
	r *http.Request,
	formValues map[string]string,
	errors map[string]string,
	flash *Flash,
) {
	if formValues == nil {
		formValues = make(map[string]string)
	}
	if errors == nil {
		errors = make(map[string]string)
	}

	data := AuthPageData{
		CurrentPath: "/login",
		CSRFToken:   csrf.EnsureToken(w, r, h.isSecure),
		Form:        formValues,
		Errors:      errors,
		Flash:       flash,
		ReturnTo:    r.FormValue("return_to"),
	}

	h.renderer.RenderHTTP(w, "auth/login", data)
}

// =============================================================================
// POST /logout - Process Logout
// =============================================================================

// Logout ends the upstream session and clears the session cookie.
//
// Idempotent: calling without a session is fine, and the cookie is cleared
// even when the upstream call fails.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.authn.Logout(r.Context()); err != nil {
		h.logger.Warn("failed to end upstream session", "error", err)
	}

	middleware.ClearSessionCookie(w, h.isSecure)

	h.logger.Debug("user logged out")

	http.Redirect(w, r, "/login?logout=1", http.StatusSeeOther)
}

// =============================================================================
// GET /signup - Show Signup Form
// =============================================================================

// ShowSignup renders the account registration form.
func (h *AuthHandler) ShowSignup(w http.ResponseWriter, r *http.Request) {
	if user := auth.GetUserFromRequest(r); user != nil {
		http.Redirect(w, r, "/boards", http.StatusSeeOther)
		return
	}

	data := AuthPageData{
		CurrentPath: r.URL.Path,
		CSRFToken:   csrf.EnsureToken(w, r, h.isSecure),
		Form:        make(map[string]string),
		Errors:      make(map[string]string),
		Flash:       nil,
		ReturnTo:    r.URL.Query().Get("return_to"),
	}

	h.renderer.RenderHTTP(w, "auth/signup", data)
}

// =============================================================================
// POST /signup - Process Signup
// =============================================================================

// Signup processes the registration form submission.
//
// The upstream API performs the authoritative validation (username format,
// password policy, uniqueness); the checks here exist to give immediate
// feedback without a round trip.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.logger.Error("failed to parse form", "error", err)
		h.renderSignupError(w, r, nil, nil, &Flash{
			Type:    "error",
			Message: "Invalid form submission. Please try again.",
		})
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	name := strings.TrimSpace(r.FormValue("name"))
	email := strings.ToLower(strings.TrimSpace(r.FormValue("email")))
	password := r.FormValue("password")
	passwordConfirmation := r.FormValue("password_confirmation")

	// Store form values for re-rendering (except passwords)
	formValues := map[string]string{
		"Username": username,
		"Name":     name,
		"Email":    email,
	}

	errors := make(map[string]string)

	if username == "" {
		errors["username"] = "Username is required"
	}

	if name == "" {
		errors["name"] = "Name is required"
	}

	if email == "" {
		errors["email"] = "Email is required"
	} else if !isValidEmail(email) {
		errors["email"] = "Please enter a valid email address"
	}

	if password == "" {
		errors["password"] = "Password is required"
	} else if len(password) < 8 {
		errors["password"] = "Password must be at least 8 characters"
	}

	if passwordConfirmation == "" {
		errors["password_confirmation"] = "Please confirm your password"
	} else if password != passwordConfirmation {
		errors["password_confirmation"] = "Passwords do not match"
	}

	if len(errors) > 0 {
		h.renderSignupError(w, r, formValues, errors, nil)
		return
	}

	err := h.authn.Signup(r.Context(), domain.SignupParams{
		Username: username,
		Password: password,
		Name:     name,
		Email:    email,
	})
	if err != nil {
		code := domain.ErrorCode(err)
		switch code {
		case domain.ECONFLICT:
			h.renderSignupError(w, r, formValues, nil, &Flash{
				Type:    "error",
				Message: domain.ErrorMessage(err),
			})
		case domain.EINVALID:
			h.renderSignupError(w, r, formValues, nil, &Flash{
				Type:    "error",
				Message: domain.ErrorMessage(err),
			})
		default:
			h.logger.Error("signup failed", "error", err, "username", username)
			h.renderSignupError(w, r, formValues, nil, &Flash{
				Type:    "error",
				Message: "Signup failed. Please try again later.",
			})
		}
		return
	}

	h.logger.Info("user signed up", "username", username)

	// The upstream signup endpoint does not open a session; send the new
	// account to the login form.
	http.Redirect(w, r, "/login?registered=1", http.StatusSeeOther)
}

// renderSignupError re-renders the signup form with errors.
func (h *AuthHandler) renderSignupError(
	w http.ResponseWriter,
	r *http.Request,
	formValues map[string]string,
	errors map[string]string,
	flash *Flash,
) {
	if formValues == nil {
		formValues = make(map[string]string)
	}
	if errors == nil {
		errors = make(map[string]string)
	}

	data := AuthPageData{
		CurrentPath: "/signup",
		CSRFToken:   csrf.EnsureToken(w, r, h.isSecure),
		Form:        formValues,
		Errors:      errors,
		Flash:       flash,
		ReturnTo:    r.FormValue("return_to"),
	}

	h.renderer.RenderHTTP(w, "auth/signup", data)
}

// =============================================================================
// Helper Functions
// =============================================================================

// isValidEmail performs basic email format validation.
//
// This is a simple check - the upstream API performs the authoritative
// validation. We do this to provide immediate feedback to users.
func isValidEmail(email string) bool {
	atIndex := strings.Index(email, "@")
	if atIndex < 1 {
		return false
	}
	if atIndex >= len(email)-1 {
		return false
	}

	// Check for a dot in the domain part
	domainPart := email[atIndex+1:]
	if !strings.Contains(domainPart, ".") {
		return false
	}

	return true
}

// isSafeRedirectURL checks if a URL is safe to redirect to.
//
// This prevents open redirect vulnerabilities by ensuring:
// - URL is relative (starts with /)
// - URL is not a protocol-relative URL (not //)
// - URL does not redirect to an external domain
func isSafeRedirectURL(rawURL string) bool {
	if !strings.HasPrefix(rawURL, "/") {
		return false
	}

	if strings.HasPrefix(rawURL, "//") {
		return false
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	if parsed.Scheme != "" {
		return false
	}

	if parsed.Host != "" {
		return false
	}

	return true
}
