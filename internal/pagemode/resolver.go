// Package pagemode resolves which of the three board-form modes a page load
// lands in: view, create, or edit.
//
// The resolver is a small state machine evaluated once per page load. It
// performs the minimum number of upstream fetches for the requested mode and
// returns an explicit Resolution value; rendering is a pure projection of
// that value. Redirect exits (to the list page, or to login with a return
// target) are expressed as typed errors rather than side effects, so the
// resolver stays testable without an HTTP stack.
//
// Ownership checks here are display advisories only. The upstream API
// re-checks authorization on every mutating call.
package pagemode

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/bunnyburrow/boardweb/internal/domain"
)

// Mode identifies the resolved page mode.
type Mode int

const (
	// ModeResolving is the zero value; no Resolution ever carries it.
	ModeResolving Mode = iota
	ModeView
	ModeCreate
	ModeEdit
)

func (m Mode) String() string {
	switch m {
	case ModeView:
		return "view"
	case ModeCreate:
		return "create"
	case ModeEdit:
		return "edit"
	default:
		return "resolving"
	}
}

// Params are the raw query parameters that drive resolution.
type Params struct {
	Mode string // "", "view", "create", or "edit"
	ID   string // entity id; empty when absent
}

// FormPath returns the canonical form URL for these parameters, used as the
// return target when an edit attempt needs a login first.
func (p Params) FormPath() string {
	q := url.Values{}
	if p.Mode != "" {
		q.Set("mode", p.Mode)
	}
	if p.ID != "" {
		q.Set("id", p.ID)
	}
	if len(q) == 0 {
		return "/boards/form"
	}
	return "/boards/form?" + q.Encode()
}

// Resolution is the fully resolved page state. Everything the template needs
// to decide field editability, button visibility, and the page title lives
// here; handlers never consult ambient state.
type Resolution struct {
	Mode   Mode
	Board  *domain.Board // nil in create mode
	Viewer *domain.User  // nil when unauthenticated

	Title     string
	Editable  bool   // form fields accept input (create/edit)
	CanEdit   bool   // view mode: show the edit button
	CanDelete bool   // view mode: show the delete button
	Notice    string // one-time notice, e.g. the non-owner edit downgrade
}

// RedirectError is a resolver exit that sends the browser elsewhere instead
// of rendering the form: to the list page when no parameters are present, or
// to login (with a return target) when edit mode lacks a session.
type RedirectError struct {
	Location string
}

func (e *RedirectError) Error() string {
	return fmt.Sprintf("redirect to %s", e.Location)
}

// BoardGetter fetches a single board.
type BoardGetter interface {
	GetBoard(ctx context.Context, id int64) (*domain.Board, error)
}

// ViewerGetter probes the current authenticated user. A nil user with a nil
// error means "anonymous".
type ViewerGetter interface {
	CurrentUser(ctx context.Context) (*domain.User, error)
}

// Resolver resolves page modes against the upstream API.
type Resolver struct {
	boards BoardGetter
	users  ViewerGetter
	logger *slog.Logger
}

// NewResolver creates a Resolver.
func NewResolver(boards BoardGetter, users ViewerGetter, logger *slog.Logger) *Resolver {
	return &Resolver{
		boards: boards,
		users:  users,
		logger: logger,
	}
}

// Resolve evaluates the mode state machine for one page load.
//
// Precedence:
//  1. mode=create          -> Create, no fetches (the API gates the submit)
//  2. mode=edit with id    -> requires a session and ownership; a non-owner
//     is downgraded to View with a notice rather than rejected
//  3. id present           -> View, with a best-effort viewer probe deciding
//     owner-only controls
//  4. neither mode nor id  -> redirect to the list page
func (r *Resolver) Resolve(ctx context.Context, p Params) (*Resolution, error) {
	switch {
	case p.Mode == "create":
		return &Resolution{
			Mode:     ModeCreate,
			Title:    "New Post",
			Editable: true,
		}, nil

	case p.Mode == "edit" && p.ID != "":
		return r.resolveEdit(ctx, p)

	case p.ID != "":
		return r.resolveView(ctx, p)

	default:
		return nil, &RedirectError{Location: "/boards"}
	}
}

func (r *Resolver) resolveEdit(ctx context.Context, p Params) (*Resolution, error) {
	id, err := parseID(p.ID)
	if err != nil {
		return nil, err
	}

	viewer, err := r.users.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if viewer == nil {
		return nil, &RedirectError{
			Location: "/login?return_to=" + url.QueryEscape(p.FormPath()),
		}
	}

	board, err := r.boards.GetBoard(ctx, id)
	if err != nil {
		return nil, err
	}

	if !board.OwnedBy(viewer) {
		// Graceful downgrade: the post exists and is viewable, the viewer
		// just cannot edit it.
		r.logger.Info("edit downgraded to view",
			"board_id", board.ID,
			"viewer_id", viewer.ID,
			"owner_id", board.AuthorID,
		)
		return &Resolution{
			Mode:      ModeView,
			Board:     board,
			Viewer:    viewer,
			Title:     board.Title,
			CanDelete: viewer.IsAdmin(),
			Notice:    "You don't have permission to edit this post.",
		}, nil
	}

	return &Resolution{
		Mode:     ModeEdit,
		Board:    board,
		Viewer:   viewer,
		Title:    "Edit Post",
		Editable: true,
	}, nil
}

func (r *Resolver) resolveView(ctx context.Context, p Params) (*Resolution, error) {
	id, err := parseID(p.ID)
	if err != nil {
		return nil, err
	}

	// The board fetch and the viewer probe are independent, so they run
	// concurrently. The viewer probe is best-effort: a failure renders the
	// page anonymously instead of failing it.
	var (
		board  *domain.Board
		viewer *domain.User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := r.boards.GetBoard(gctx, id)
		if err != nil {
			return err
		}
		board = b
		return nil
	})
	g.Go(func() error {
		u, err := r.users.CurrentUser(gctx)
		if err != nil {
			r.logger.Debug("viewer probe failed", "error", err)
			return nil
		}
		viewer = u
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	owned := board.OwnedBy(viewer)
	return &Resolution{
		Mode:      ModeView,
		Board:     board,
		Viewer:    viewer,
		Title:     board.Title,
		CanEdit:   owned,
		CanDelete: owned || viewer.IsAdmin(),
	}, nil
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, domain.NotFound("pagemode.resolve", "board", raw)
	}
	return id, nil
}
