// This file implements the board handlers: the paginated list page, the
// single form endpoint whose mode (view, create, edit) is resolved from the
// query string, and the mutating endpoints behind it.
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/bunnyburrow/boardweb/internal/api"
	"github.com/bunnyburrow/boardweb/internal/auth"
	"github.com/bunnyburrow/boardweb/internal/csrf"
	"github.com/bunnyburrow/boardweb/internal/domain"
	"github.com/bunnyburrow/boardweb/internal/metrics"
	"github.com/bunnyburrow/boardweb/internal/middleware"
	"github.com/bunnyburrow/boardweb/internal/pagemode"
	"github.com/bunnyburrow/boardweb/internal/pagination"
	"github.com/bunnyburrow/boardweb/internal/session"
)

// =============================================================================
// Template Data Types
// =============================================================================

// BoardListPageData contains data for the board list page and its htmx
// partial.
type BoardListPageData struct {
	CurrentPath string
	User        *domain.User      // Viewer (nil when anonymous)
	Boards      []domain.Board    // One page of posts
	Window      pagination.Window // Page-number controls
	Search      string            // Active search term
	Flash       *Flash
	CSRFToken   string
}

// BoardFormPageData contains data for the board form page. The resolved mode
// decides which controls the template shows; the Form/Errors maps carry
// submitted values back on validation failure.
type BoardFormPageData struct {
	CurrentPath string
	User        *domain.User // Viewer (nil when anonymous)
	Resolution  *pagemode.Resolution
	Form        map[string]string
	Errors      map[string]string
	Flash       *Flash
	CSRFToken   string
}

// =============================================================================
// Handler Configuration
// =============================================================================

// BoardHandler handles board-related HTTP requests.
type BoardHandler struct {
	boards   api.BoardService
	resolver *pagemode.Resolver
	renderer TemplateRenderer
	logger   *slog.Logger

	pager    pagination.Config // Windowing policy for the list page
	pageSize int               // Posts per page

	// refreshes serializes htmx list refreshes per session so a slow
	// response for an old page cannot overwrite a newer one.
	refreshes *pagemode.SequencerGroup

	isSecure bool
}

// NewBoardHandler creates a new BoardHandler.
func NewBoardHandler(
	boards api.BoardService,
	resolver *pagemode.Resolver,
	renderer TemplateRenderer,
	logger *slog.Logger,
	pager pagination.Config,
	pageSize int,
	isSecure bool,
) *BoardHandler {
	return &BoardHandler{
		boards:    boards,
		resolver:  resolver,
		renderer:  renderer,
		logger:    logger,
		pager:     pager,
		pageSize:  pageSize,
		refreshes: pagemode.NewSequencerGroup(),
		isSecure:  isSecure,
	}
}

// RegisterRoutes registers all board routes with the provided mux.
//
// The list and form pages are public; the resolver redirects to login when a
// mode requires a session. Mutations require authentication.
//
// Routes:
// - GET  /boards              -> Index (list, htmx partial when HX-Request)
// - GET  /boards/form         -> Form (mode resolved from query params)
// - GET  /boards/{id}         -> Show (permalink, redirects to the form)
// - POST /boards              -> Create
// - POST /boards/{id}         -> Update
// - POST /boards/{id}/delete  -> Delete
func (h *BoardHandler) RegisterRoutes(mux *http.ServeMux, requireUser func(http.Handler) http.Handler) {
	mux.Handle("GET /boards", http.HandlerFunc(h.Index))
	mux.Handle("GET /boards/form", http.HandlerFunc(h.Form))
	mux.Handle("GET /boards/{id}", http.HandlerFunc(h.Show))
	mux.Handle("POST /boards", requireUser(http.HandlerFunc(h.Create)))
	mux.Handle("POST /boards/{id}", requireUser(http.HandlerFunc(h.Update)))
	mux.Handle("POST /boards/{id}/delete", requireUser(http.HandlerFunc(h.Delete)))
}

// =============================================================================
// GET /boards - List Boards
// =============================================================================

// Index displays one page of board posts.
//
// Query Parameters:
// - page (optional): 1-based page number, defaults to 1
// - q (optional): search term matched against title and content upstream
// - deleted (optional): if "1", show a deletion success message
//
// htmx requests get the board-list partial instead of the full page. Each
// partial refresh takes a sequence token per session; if a newer refresh
// completed while this one was in flight, the stale response is dropped with
// a 204 so it never replaces fresher content.
func (h *BoardHandler) Index(w http.ResponseWriter, r *http.Request) {
	page := parsePage(r.URL.Query().Get("page"))
	search := strings.TrimSpace(r.URL.Query().Get("q"))

	if r.Header.Get("HX-Request") == "true" {
		h.refreshList(w, r, page, search)
		return
	}

	result, err := h.boards.ListBoards(r.Context(), page, h.pageSize, search)
	if err != nil {
		h.logger.Error("failed to list boards", "error", err, "page", page)
		h.renderListError(w, r, "Failed to load posts. Please try again.")
		return
	}

	var flash *Flash
	if r.URL.Query().Get("deleted") == "1" {
		flash = &Flash{Type: "success", Message: "Post deleted."}
	}

	data := BoardListPageData{
		CurrentPath: r.URL.Path,
		User:        auth.GetUserFromRequest(r),
		Boards:      result.Content,
		Window:      h.pager.Compute(result.CurrentPage(), result.TotalPages),
		Search:      search,
		Flash:       flash,
		CSRFToken:   csrf.EnsureToken(w, r, h.isSecure),
	}

	h.renderer.RenderHTTP(w, "boards/index", data)
}

// refreshList serves an htmx refresh of the board list.
func (h *BoardHandler) refreshList(w http.ResponseWriter, r *http.Request, page int, search string) {
	key := refreshKey(r)
	token := h.refreshes.Next(key)

	result, err := h.boards.ListBoards(r.Context(), page, h.pageSize, search)
	if err != nil {
		h.logger.Error("failed to refresh board list", "error", err, "page", page)
		http.Error(w, "Failed to load posts. Please try again.", ErrorCodeToHTTPStatus(domain.ErrorCode(err)))
		return
	}

	if !h.refreshes.Latest(key, token) {
		// A newer refresh for this session finished first; dropping this
		// response keeps the fresher content on screen.
		h.logger.Debug("dropped stale list refresh", "page", page)
		w.WriteHeader(http.StatusNoContent)
		return
	}

	data := BoardListPageData{
		CurrentPath: r.URL.Path,
		User:        auth.GetUserFromRequest(r),
		Boards:      result.Content,
		Window:      h.pager.Compute(result.CurrentPage(), result.TotalPages),
		Search:      search,
	}

	h.renderer.RenderPartial(w, "board-list", data)
}

// =============================================================================
// GET /boards/form - Board Form (view / create / edit)
// =============================================================================

// Form renders the board form in the mode resolved from the query string.
//
// Query Parameters:
// - mode (optional): "view", "create", or "edit"
// - id (optional): post id; required for view and edit
// - created/updated (optional): if "1", show the matching success message
//
// With neither mode nor id the resolver redirects to the list page; edit
// without a session redirects to login with a return target back here.
func (h *BoardHandler) Form(w http.ResponseWriter, r *http.Request) {
	params := pagemode.Params{
		Mode: r.URL.Query().Get("mode"),
		ID:   r.URL.Query().Get("id"),
	}

	res, err := h.resolver.Resolve(r.Context(), params)
	if err != nil {
		var redirect *pagemode.RedirectError
		if errors.As(err, &redirect) {
			http.Redirect(w, r, redirect.Location, http.StatusSeeOther)
			return
		}
		if domain.ErrorCode(err) == domain.ENOTFOUND {
			NotFoundResponse(w, r, h.logger)
			return
		}
		h.logger.Error("failed to resolve form mode", "error", err, "mode", params.Mode, "id", params.ID)
		ErrorResponse(w, r, h.logger, err)
		return
	}

	// Populate form values for edit mode so the fields come pre-filled
	formValues := make(map[string]string)
	if res.Mode == pagemode.ModeEdit && res.Board != nil {
		formValues["title"] = res.Board.Title
		formValues["content"] = res.Board.Content
	}

	var flash *Flash
	if r.URL.Query().Get("created") == "1" {
		flash = &Flash{Type: "success", Message: "Post created."}
	} else if r.URL.Query().Get("updated") == "1" {
		flash = &Flash{Type: "success", Message: "Post updated."}
	}
	if res.Notice != "" {
		flash = &Flash{Type: "info", Message: res.Notice}
	}

	data := BoardFormPageData{
		CurrentPath: r.URL.Path,
		User:        res.Viewer,
		Resolution:  res,
		Form:        formValues,
		Errors:      make(map[string]string),
		Flash:       flash,
		CSRFToken:   csrf.EnsureToken(w, r, h.isSecure),
	}

	h.renderer.RenderHTTP(w, "boards/form", data)
}

// =============================================================================
// GET /boards/{id} - Permalink
// =============================================================================

// Show redirects the short permalink to the form in view mode.
func (h *BoardHandler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := parseBoardID(r)
	if err != nil {
		NotFoundResponse(w, r, h.logger)
		return
	}
	http.Redirect(w, r, "/boards/form?id="+strconv.FormatInt(id, 10), http.StatusSeeOther)
}

// =============================================================================
// POST /boards - Create Board
// =============================================================================

// Create processes the post creation form.
func (h *BoardHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromRequest(r)
	if user == nil {
		h.logger.Error("create handler called without authenticated user")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	if err := r.ParseForm(); err != nil {
		h.logger.Error("failed to parse form", "error", err)
		h.renderCreateForm(w, r, user, nil, nil, &Flash{
			Type:    "error",
			Message: "Invalid form submission. Please try again.",
		})
		return
	}

	params := domain.BoardParams{
		Title:   strings.TrimSpace(r.FormValue("title")),
		Content: strings.TrimSpace(r.FormValue("content")),
	}
	formValues := map[string]string{
		"title":   params.Title,
		"content": params.Content,
	}

	// Validate locally before spending an upstream round trip
	if err := params.Validate(); err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			h.renderCreateForm(w, r, user, formValues, ve.Fields, nil)
			return
		}
		h.renderCreateForm(w, r, user, formValues, nil, &Flash{
			Type:    "error",
			Message: domain.ErrorMessage(err),
		})
		return
	}

	board, err := h.boards.CreateBoard(r.Context(), params)
	if err != nil {
		code := domain.ErrorCode(err)
		switch code {
		case domain.EUNAUTHORIZED:
			// Upstream session expired mid-form
			middleware.ClearSessionCookie(w, h.isSecure)
			http.Redirect(w, r, "/login?return_to="+url.QueryEscape("/boards/form?mode=create"), http.StatusSeeOther)
		case domain.EINVALID:
			h.renderCreateForm(w, r, user, formValues, nil, &Flash{
				Type:    "error",
				Message: domain.ErrorMessage(err),
			})
		default:
			h.logger.Error("failed to create post", "error", err, "user_id", user.ID)
			h.renderCreateForm(w, r, user, formValues, nil, &Flash{
				Type:    "error",
				Message: "Failed to create post. Please try again.",
			})
		}
		return
	}

	metrics.BoardsCreated.Inc()
	h.logger.Info("post created", "board_id", board.ID, "user_id", user.ID)

	http.Redirect(w, r, "/boards/form?id="+strconv.FormatInt(board.ID, 10)+"&created=1", http.StatusSeeOther)
}

// =============================================================================
// POST /boards/{id} - Update Board
// =============================================================================

// Update processes the post edit form.
func (h *BoardHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromRequest(r)
	if user == nil {
		h.logger.Error("update handler called without authenticated user")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	id, err := parseBoardID(r)
	if err != nil {
		NotFoundResponse(w, r, h.logger)
		return
	}

	if err := r.ParseForm(); err != nil {
		h.logger.Error("failed to parse form", "error", err)
		h.renderEditForm(w, r, user, id, nil, nil, &Flash{
			Type:    "error",
			Message: "Invalid form submission. Please try again.",
		})
		return
	}

	params := domain.BoardParams{
		Title:   strings.TrimSpace(r.FormValue("title")),
		Content: strings.TrimSpace(r.FormValue("content")),
	}
	formValues := map[string]string{
		"title":   params.Title,
		"content": params.Content,
	}

	if err := params.Validate(); err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			h.renderEditForm(w, r, user, id, formValues, ve.Fields, nil)
			return
		}
		h.renderEditForm(w, r, user, id, formValues, nil, &Flash{
			Type:    "error",
			Message: domain.ErrorMessage(err),
		})
		return
	}

	board, err := h.boards.UpdateBoard(r.Context(), id, params)
	if err != nil {
		code := domain.ErrorCode(err)
		switch code {
		case domain.ENOTFOUND:
			NotFoundResponse(w, r, h.logger)
		case domain.EUNAUTHORIZED:
			middleware.ClearSessionCookie(w, h.isSecure)
			http.Redirect(w, r, "/login?return_to="+url.QueryEscape("/boards/form?mode=edit&id="+strconv.FormatInt(id, 10)), http.StatusSeeOther)
		case domain.EFORBIDDEN:
			// Ownership changed out from under the form, or the form was
			// forged; send the viewer back to read-only mode.
			http.Redirect(w, r, "/boards/form?id="+strconv.FormatInt(id, 10), http.StatusSeeOther)
		case domain.EINVALID:
			h.renderEditForm(w, r, user, id, formValues, nil, &Flash{
				Type:    "error",
				Message: domain.ErrorMessage(err),
			})
		default:
			h.logger.Error("failed to update post", "error", err, "board_id", id)
			h.renderEditForm(w, r, user, id, formValues, nil, &Flash{
				Type:    "error",
				Message: "Failed to update post. Please try again.",
			})
		}
		return
	}

	metrics.BoardsUpdated.Inc()
	h.logger.Info("post updated", "board_id", board.ID, "user_id", user.ID)

	http.Redirect(w, r, "/boards/form?id="+strconv.FormatInt(board.ID, 10)+"&updated=1", http.StatusSeeOther)
}

// =============================================================================
// POST /boards/{id}/delete - Delete Board
// =============================================================================

// Delete removes a post. The upstream API enforces that only the author or
// an admin may delete.
func (h *BoardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromRequest(r)
	if user == nil {
		h.logger.Error("delete handler called without authenticated user")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	id, err := parseBoardID(r)
	if err != nil {
		NotFoundResponse(w, r, h.logger)
		return
	}

	if err := h.boards.DeleteBoard(r.Context(), id); err != nil {
		code := domain.ErrorCode(err)
		switch code {
		case domain.ENOTFOUND:
			// Already gone; the list is where the viewer wanted to end up
			http.Redirect(w, r, "/boards", http.StatusSeeOther)
		case domain.EUNAUTHORIZED:
			middleware.ClearSessionCookie(w, h.isSecure)
			http.Redirect(w, r, "/login?return_to="+url.QueryEscape("/boards/form?id="+strconv.FormatInt(id, 10)), http.StatusSeeOther)
		case domain.EFORBIDDEN:
			http.Redirect(w, r, "/boards/form?id="+strconv.FormatInt(id, 10), http.StatusSeeOther)
		default:
			h.logger.Error("failed to delete post", "error", err, "board_id", id)
			ErrorResponse(w, r, h.logger, err)
		}
		return
	}

	metrics.BoardsDeleted.Inc()
	h.logger.Info("post deleted", "board_id", id, "user_id", user.ID)

	// For htmx requests, trigger a client-side redirect
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/boards?deleted=1")
		w.WriteHeader(http.StatusOK)
		return
	}

	http.Redirect(w, r, "/boards?deleted=1", http.StatusSeeOther)
}

// =============================================================================
// Helper Methods
// =============================================================================

// renderListError renders the list page with an error flash and no posts.
func (h *BoardHandler) renderListError(w http.ResponseWriter, r *http.Request, message string) {
	data := BoardListPageData{
		CurrentPath: r.URL.Path,
		User:        auth.GetUserFromRequest(r),
		Boards:      nil,
		Flash: &Flash{
			Type:    "error",
			Message: message,
		},
		CSRFToken: csrf.EnsureToken(w, r, h.isSecure),
	}
	h.renderer.RenderHTTP(w, "boards/index", data)
}

// renderCreateForm re-renders the create form with submitted values and
// errors, without another resolver round trip.
func (h *BoardHandler) renderCreateForm(
	w http.ResponseWriter,
	r *http.Request,
	user *domain.User,
	formValues map[string]string,
	fieldErrors map[string]string,
	flash *Flash,
) {
	if formValues == nil {
		formValues = make(map[string]string)
	}
	if fieldErrors == nil {
		fieldErrors = make(map[string]string)
	}

	data := BoardFormPageData{
		CurrentPath: r.URL.Path,
		User:        user,
		Resolution: &pagemode.Resolution{
			Mode:     pagemode.ModeCreate,
			Viewer:   user,
			Title:    "New Post",
			Editable: true,
		},
		Form:      formValues,
		Errors:    fieldErrors,
		Flash:     flash,
		CSRFToken: csrf.EnsureToken(w, r, h.isSecure),
	}

	h.renderer.RenderHTTP(w, "boards/form", data)
}

// renderEditForm re-renders the edit form with submitted values and errors.
// The board carries only what the form template reads back.
func (h *BoardHandler) renderEditForm(
	w http.ResponseWriter,
	r *http.Request,
	user *domain.User,
	id int64,
	formValues map[string]string,
	fieldErrors map[string]string,
	flash *Flash,
) {
	if formValues == nil {
		formValues = make(map[string]string)
	}
	if fieldErrors == nil {
		fieldErrors = make(map[string]string)
	}

	data := BoardFormPageData{
		CurrentPath: r.URL.Path,
		User:        user,
		Resolution: &pagemode.Resolution{
			Mode:     pagemode.ModeEdit,
			Board:    &domain.Board{ID: id, Title: formValues["title"], Content: formValues["content"]},
			Viewer:   user,
			Title:    "Edit Post",
			Editable: true,
		},
		Form:      formValues,
		Errors:    fieldErrors,
		Flash:     flash,
		CSRFToken: csrf.EnsureToken(w, r, h.isSecure),
	}

	h.renderer.RenderHTTP(w, "boards/form", data)
}

// parseBoardID parses the {id} path segment.
func parseBoardID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, domain.Errorf(domain.ENOTFOUND, "handler.parseBoardID", "post not found")
	}
	return id, nil
}

// parsePage parses a 1-based page query parameter, defaulting to 1.
func parsePage(raw string) int {
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// refreshKey identifies the browser session for refresh sequencing: the
// session cookie when present, the client IP otherwise.
func refreshKey(r *http.Request) string {
	if cookie, err := r.Cookie(session.CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return middleware.ClientIP(r)
}
