package pagemode

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bunnyburrow/boardweb/internal/domain"
)

// =============================================================================
// Fakes
// =============================================================================

type fakeBoards struct {
	board *domain.Board
	err   error
	calls int
}

func (f *fakeBoards) GetBoard(ctx context.Context, id int64) (*domain.Board, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.board, nil
}

type fakeUsers struct {
	user  *domain.User
	err   error
	calls int
}

func (f *fakeUsers) CurrentUser(ctx context.Context) (*domain.User, error) {
	f.calls++
	return f.user, f.err
}

func newResolver(boards *fakeBoards, users *fakeUsers) *Resolver {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewResolver(boards, users, logger)
}

// =============================================================================
// Tests
// =============================================================================

func TestResolve_CreateMode(t *testing.T) {
	boards := &fakeBoards{}
	users := &fakeUsers{}
	r := newResolver(boards, users)

	res, err := r.Resolve(context.Background(), Params{Mode: "create"})
	require.NoError(t, err)

	assert.Equal(t, ModeCreate, res.Mode)
	assert.True(t, res.Editable)
	assert.Nil(t, res.Board)
	// Create never carries an entity and issues no fetches.
	assert.Zero(t, boards.calls)
	assert.Zero(t, users.calls)
}

func TestResolve_EditMode_Owner(t *testing.T) {
	boards := &fakeBoards{board: &domain.Board{ID: 5, Title: "hello", AuthorID: 42}}
	users := &fakeUsers{user: &domain.User{ID: 42}}
	r := newResolver(boards, users)

	res, err := r.Resolve(context.Background(), Params{Mode: "edit", ID: "5"})
	require.NoError(t, err)

	assert.Equal(t, ModeEdit, res.Mode)
	assert.True(t, res.Editable)
	assert.Equal(t, int64(5), res.Board.ID)
	assert.Empty(t, res.Notice)
}

func TestResolve_EditMode_NonOwnerDowngradesToView(t *testing.T) {
	boards := &fakeBoards{board: &domain.Board{ID: 5, Title: "hello", AuthorID: 42}}
	users := &fakeUsers{user: &domain.User{ID: 7}}
	r := newResolver(boards, users)

	res, err := r.Resolve(context.Background(), Params{Mode: "edit", ID: "5"})
	require.NoError(t, err)

	assert.Equal(t, ModeView, res.Mode)
	assert.False(t, res.Editable)
	assert.False(t, res.CanEdit)
	assert.NotEmpty(t, res.Notice)
}

func TestResolve_EditMode_AdminNonOwnerKeepsDelete(t *testing.T) {
	boards := &fakeBoards{board: &domain.Board{ID: 5, AuthorID: 42}}
	users := &fakeUsers{user: &domain.User{ID: 7, Roles: []string{domain.RoleAdmin}}}
	r := newResolver(boards, users)

	res, err := r.Resolve(context.Background(), Params{Mode: "edit", ID: "5"})
	require.NoError(t, err)

	assert.Equal(t, ModeView, res.Mode)
	assert.True(t, res.CanDelete)
}

func TestResolve_EditMode_UnauthenticatedRedirectsToLogin(t *testing.T) {
	boards := &fakeBoards{board: &domain.Board{ID: 5}}
	users := &fakeUsers{user: nil}
	r := newResolver(boards, users)

	_, err := r.Resolve(context.Background(), Params{Mode: "edit", ID: "5"})

	var redirect *RedirectError
	require.True(t, errors.As(err, &redirect))
	assert.Equal(t, "/login?return_to=%2Fboards%2Fform%3Fid%3D5%26mode%3Dedit", redirect.Location)
	// The board fetch never happens without a session.
	assert.Zero(t, boards.calls)
}

func TestResolve_EditMode_BoardNotFound(t *testing.T) {
	boards := &fakeBoards{err: domain.NotFound("api.boards.get", "board", "5")}
	users := &fakeUsers{user: &domain.User{ID: 42}}
	r := newResolver(boards, users)

	_, err := r.Resolve(context.Background(), Params{Mode: "edit", ID: "5"})
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}

func TestResolve_ViewMode(t *testing.T) {
	tests := []struct {
		name          string
		viewer        *domain.User
		wantCanEdit   bool
		wantCanDelete bool
	}{
		{"anonymous", nil, false, false},
		{"non-owner", &domain.User{ID: 7}, false, false},
		{"owner", &domain.User{ID: 42}, true, true},
		{"admin non-owner", &domain.User{ID: 7, Roles: []string{domain.RoleAdmin}}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			boards := &fakeBoards{board: &domain.Board{ID: 5, Title: "hello", AuthorID: 42}}
			users := &fakeUsers{user: tt.viewer}
			r := newResolver(boards, users)

			res, err := r.Resolve(context.Background(), Params{ID: "5"})
			require.NoError(t, err)

			assert.Equal(t, ModeView, res.Mode)
			assert.False(t, res.Editable)
			assert.Equal(t, tt.wantCanEdit, res.CanEdit)
			assert.Equal(t, tt.wantCanDelete, res.CanDelete)
			assert.Equal(t, "hello", res.Title)
		})
	}
}

func TestResolve_ViewMode_ViewerProbeFailureIsNotFatal(t *testing.T) {
	boards := &fakeBoards{board: &domain.Board{ID: 5, AuthorID: 42}}
	users := &fakeUsers{err: domain.Unavailable(errors.New("connection refused"), "api.users.me")}
	r := newResolver(boards, users)

	res, err := r.Resolve(context.Background(), Params{ID: "5"})
	require.NoError(t, err)
	assert.Nil(t, res.Viewer)
	assert.False(t, res.CanEdit)
}

func TestResolve_ViewMode_NotFound(t *testing.T) {
	boards := &fakeBoards{err: domain.NotFound("api.boards.get", "board", "99")}
	users := &fakeUsers{}
	r := newResolver(boards, users)

	_, err := r.Resolve(context.Background(), Params{ID: "99"})
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}

func TestResolve_NoParamsRedirectsToList(t *testing.T) {
	boards := &fakeBoards{}
	users := &fakeUsers{}
	r := newResolver(boards, users)

	_, err := r.Resolve(context.Background(), Params{})

	var redirect *RedirectError
	require.True(t, errors.As(err, &redirect))
	assert.Equal(t, "/boards", redirect.Location)
	// No fetch is issued on the redirect exit.
	assert.Zero(t, boards.calls)
	assert.Zero(t, users.calls)
}

func TestResolve_MalformedID(t *testing.T) {
	r := newResolver(&fakeBoards{}, &fakeUsers{user: &domain.User{ID: 1}})

	for _, raw := range []string{"abc", "-1", "0", "1e9"} {
		_, err := r.Resolve(context.Background(), Params{ID: raw})
		assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err), "id %q", raw)
	}
}
