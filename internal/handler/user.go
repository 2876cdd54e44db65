// This file implements the profile page and the admin user list.
package handler

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/bunnyburrow/boardweb/internal/api"
	"github.com/bunnyburrow/boardweb/internal/auth"
	"github.com/bunnyburrow/boardweb/internal/csrf"
	"github.com/bunnyburrow/boardweb/internal/domain"
	"github.com/bunnyburrow/boardweb/internal/middleware"
	"github.com/bunnyburrow/boardweb/internal/pagination"
)

// =============================================================================
// Template Data Types
// =============================================================================

// ProfilePageData contains data for the profile page.
type ProfilePageData struct {
	CurrentPath string
	User        *domain.User
	Form        map[string]string
	Errors      map[string]string
	Flash       *Flash
	CSRFToken   string
}

// UserListPageData contains data for the admin user list page and its htmx
// partial.
type UserListPageData struct {
	CurrentPath string
	User        *domain.User // Viewer (always an admin here)
	Users       []domain.User
	Window      pagination.Window
	Search      string
	Flash       *Flash
	CSRFToken   string
}

// =============================================================================
// Handler Configuration
// =============================================================================

// UserHandler handles profile and user-administration HTTP requests.
type UserHandler struct {
	users    api.UserService
	renderer TemplateRenderer
	logger   *slog.Logger

	pager    pagination.Config // Windowing policy for the admin list
	pageSize int

	isSecure bool
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(
	users api.UserService,
	renderer TemplateRenderer,
	logger *slog.Logger,
	pager pagination.Config,
	pageSize int,
	isSecure bool,
) *UserHandler {
	return &UserHandler{
		users:    users,
		renderer: renderer,
		logger:   logger,
		pager:    pager,
		pageSize: pageSize,
		isSecure: isSecure,
	}
}

// RegisterRoutes registers profile and admin routes with the provided mux.
//
// Routes:
// - GET  /profile            -> Profile (requires user)
// - POST /profile            -> UpdateProfile (requires user)
// - GET  /users              -> Index (requires admin)
// - POST /users/{id}/delete  -> Delete (requires admin)
func (h *UserHandler) RegisterRoutes(mux *http.ServeMux, requireUser, requireAdmin func(http.Handler) http.Handler) {
	mux.Handle("GET /profile", requireUser(http.HandlerFunc(h.Profile)))
	mux.Handle("POST /profile", requireUser(http.HandlerFunc(h.UpdateProfile)))
	mux.Handle("GET /users", requireAdmin(http.HandlerFunc(h.Index)))
	mux.Handle("POST /users/{id}/delete", requireAdmin(http.HandlerFunc(h.Delete)))
}

// =============================================================================
// GET /profile - Profile Page
// =============================================================================

// Profile displays the viewer's account details.
//
// The context user from the session probe carries a reduced shape, so the
// full record is fetched here for the email and created-at fields.
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	viewer := auth.GetUserFromRequest(r)
	if viewer == nil {
		h.logger.Error("profile handler called without authenticated user")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	user, err := h.users.GetUser(r.Context(), viewer.ID)
	if err != nil {
		h.logger.Warn("failed to load full profile, using session shape", "error", err, "user_id", viewer.ID)
		user = viewer
	}

	var flash *Flash
	if r.URL.Query().Get("updated") == "1" {
		flash = &Flash{Type: "success", Message: "Profile updated."}
	}

	data := ProfilePageData{
		CurrentPath: r.URL.Path,
		User:        user,
		Form: map[string]string{
			"name":  user.Name,
			"email": user.Email,
		},
		Errors:    make(map[string]string),
		Flash:     flash,
		CSRFToken: csrf.EnsureToken(w, r, h.isSecure),
	}

	h.renderer.RenderHTTP(w, "profile", data)
}

// =============================================================================
// POST /profile - Update Profile
// =============================================================================

// UpdateProfile processes the profile edit form.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	viewer := auth.GetUserFromRequest(r)
	if viewer == nil {
		h.logger.Error("update-profile handler called without authenticated user")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	if err := r.ParseForm(); err != nil {
		h.logger.Error("failed to parse form", "error", err)
		h.renderProfileError(w, r, viewer, nil, nil, &Flash{
			Type:    "error",
			Message: "Invalid form submission. Please try again.",
		})
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	email := strings.ToLower(strings.TrimSpace(r.FormValue("email")))

	formValues := map[string]string{
		"name":  name,
		"email": email,
	}

	errors := make(map[string]string)
	if name == "" {
		errors["name"] = "Name is required"
	}
	if email == "" {
		errors["email"] = "Email is required"
	} else if !isValidEmail(email) {
		errors["email"] = "Please enter a valid email address"
	}

	if len(errors) > 0 {
		h.renderProfileError(w, r, viewer, formValues, errors, nil)
		return
	}

	_, err := h.users.UpdateUser(r.Context(), viewer.ID, name, email)
	if err != nil {
		code := domain.ErrorCode(err)
		switch code {
		case domain.ECONFLICT, domain.EINVALID:
			h.renderProfileError(w, r, viewer, formValues, nil, &Flash{
				Type:    "error",
				Message: domain.ErrorMessage(err),
			})
		default:
			h.logger.Error("failed to update profile", "error", err, "user_id", viewer.ID)
			h.renderProfileError(w, r, viewer, formValues, nil, &Flash{
				Type:    "error",
				Message: "Failed to update profile. Please try again.",
			})
		}
		return
	}

	h.logger.Info("profile updated", "user_id", viewer.ID)

	http.Redirect(w, r, "/profile?updated=1", http.StatusSeeOther)
}

// renderProfileError re-renders the profile form with errors.
func (h *UserHandler) renderProfileError(
	w http.ResponseWriter,
	r *http.Request,
	user *domain.User,
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

	data := ProfilePageData{
		CurrentPath: "/profile",
		User:        user,
		Form:        formValues,
		Errors:      errors,
		Flash:       flash,
		CSRFToken:   csrf.EnsureToken(w, r, h.isSecure),
	}

	h.renderer.RenderHTTP(w, "profile", data)
}

// =============================================================================
// GET /users - Admin User List
// =============================================================================

// Index displays one page of accounts for administrators.
//
// Query Parameters:
// - page (optional): 1-based page number, defaults to 1
// - q (optional): search term matched against username, name and email
//
// htmx requests get the user-list partial for in-place page changes.
func (h *UserHandler) Index(w http.ResponseWriter, r *http.Request) {
	viewer := auth.GetUserFromRequest(r)
	page := parsePage(r.URL.Query().Get("page"))
	search := strings.TrimSpace(r.URL.Query().Get("q"))

	result, err := h.users.ListUsers(r.Context(), page, h.pageSize, search)
	if err != nil {
		h.logger.Error("failed to list users", "error", err, "page", page)
		if r.Header.Get("HX-Request") == "true" {
			http.Error(w, "Failed to load users. Please try again.", ErrorCodeToHTTPStatus(domain.ErrorCode(err)))
			return
		}
		h.renderUserListError(w, r, viewer, "Failed to load users. Please try again.")
		return
	}

	var flash *Flash
	if r.URL.Query().Get("deleted") == "1" {
		flash = &Flash{Type: "success", Message: "Account deleted."}
	}

	data := UserListPageData{
		CurrentPath: r.URL.Path,
		User:        viewer,
		Users:       result.Content,
		Window:      h.pager.Compute(result.CurrentPage(), result.TotalPages),
		Search:      search,
		Flash:       flash,
		CSRFToken:   csrf.EnsureToken(w, r, h.isSecure),
	}

	if r.Header.Get("HX-Request") == "true" {
		h.renderer.RenderPartial(w, "user-list", data)
		return
	}

	h.renderer.RenderHTTP(w, "users/index", data)
}

// =============================================================================
// POST /users/{id}/delete - Delete Account
// =============================================================================

// Delete removes an account. Admins cannot delete themselves; the upstream
// API enforces the same rule.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	viewer := auth.GetUserFromRequest(r)
	if viewer == nil {
		h.logger.Error("delete handler called without authenticated user")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		NotFoundResponse(w, r, h.logger)
		return
	}

	if id == viewer.ID {
		http.Error(w, "You cannot delete your own account.", http.StatusBadRequest)
		return
	}

	if err := h.users.DeleteUser(r.Context(), id); err != nil {
		code := domain.ErrorCode(err)
		switch code {
		case domain.ENOTFOUND:
			// Already gone
			http.Redirect(w, r, "/users", http.StatusSeeOther)
		case domain.EUNAUTHORIZED:
			// Upstream session expired mid-flow
			middleware.ClearSessionCookie(w, h.isSecure)
			http.Redirect(w, r, "/login?return_to="+url.QueryEscape("/users"), http.StatusSeeOther)
		default:
			h.logger.Error("failed to delete account", "error", err, "target_id", id)
			ErrorResponse(w, r, h.logger, err)
		}
		return
	}

	h.logger.Info("account deleted", "target_id", id, "admin_id", viewer.ID)

	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/users?deleted=1")
		w.WriteHeader(http.StatusOK)
		return
	}

	http.Redirect(w, r, "/users?deleted=1", http.StatusSeeOther)
}

// renderUserListError renders the user list page with an error flash.
func (h *UserHandler) renderUserListError(w http.ResponseWriter, r *http.Request, viewer *domain.User, message string) {
	data := UserListPageData{
		CurrentPath: r.URL.Path,
		User:        viewer,
		Users:       nil,
		Flash: &Flash{
			Type:    "error",
			Message: message,
		},
		CSRFToken: csrf.EnsureToken(w, r, h.isSecure),
	}
	h.renderer.RenderHTTP(w, "users/index", data)
}
