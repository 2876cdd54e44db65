package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bunnyburrow/boardweb/internal/auth"
	"github.com/bunnyburrow/boardweb/internal/domain"
	"github.com/bunnyburrow/boardweb/internal/session"
)

type fakeUsers struct {
	currentFn func(ctx context.Context) (*domain.User, error)
}

func (f *fakeUsers) CurrentUser(ctx context.Context) (*domain.User, error) {
	if f.currentFn == nil {
		return nil, nil
	}
	return f.currentFn(ctx)
}

func (f *fakeUsers) ListUsers(ctx context.Context, page, size int, search string) (domain.Page[domain.User], error) {
	return domain.Page[domain.User]{}, nil
}

func (f *fakeUsers) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return nil, domain.NotFound("test", "user", "?")
}

func (f *fakeUsers) UpdateUser(ctx context.Context, id int64, name, email string) (*domain.User, error) {
	return nil, domain.Internal(nil, "test", "not configured")
}

func (f *fakeUsers) DeleteUser(ctx context.Context, id int64) error {
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sessionCookie(value string) *http.Cookie {
	return &http.Cookie{Name: session.CookieName, Value: value}
}

// =============================================================================
// WithUser
// =============================================================================

func TestWithUserNoCookieStaysAnonymous(t *testing.T) {
	probed := false
	users := &fakeUsers{
		currentFn: func(ctx context.Context) (*domain.User, error) {
			probed = true
			return nil, nil
		},
	}
	mw := NewAuthMiddleware(users, testLogger(), false)

	var gotUser *domain.User
	handler := mw.WithUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = auth.GetUser(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/boards", nil))

	assert.False(t, probed)
	assert.Nil(t, gotUser)
}

func TestWithUserLoadsViewerFromCookie(t *testing.T) {
	users := &fakeUsers{
		currentFn: func(ctx context.Context) (*domain.User, error) {
			assert.Equal(t, "tok-1", auth.Token(ctx))
			return &domain.User{ID: 1, Username: "alice"}, nil
		},
	}
	mw := NewAuthMiddleware(users, testLogger(), false)

	var gotUser *domain.User
	var gotToken string
	handler := mw.WithUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = auth.GetUser(r.Context())
		gotToken = auth.Token(r.Context())
	}))

	req := httptest.NewRequest("GET", "/boards", nil)
	req.AddCookie(sessionCookie("tok-1"))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, gotUser)
	assert.Equal(t, "alice", gotUser.Username)
	assert.Equal(t, "tok-1", gotToken)
}

func TestWithUserRejectedSessionClearsCookie(t *testing.T) {
	users := &fakeUsers{
		currentFn: func(ctx context.Context) (*domain.User, error) {
			return nil, nil // upstream treats the token as invalid
		},
	}
	mw := NewAuthMiddleware(users, testLogger(), false)

	handler := mw.WithUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Nil(t, auth.GetUser(r.Context()))
	}))

	req := httptest.NewRequest("GET", "/boards", nil)
	req.AddCookie(sessionCookie("expired"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, session.CookieName, cookies[0].Name)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestWithUserTransportFailureKeepsCookie(t *testing.T) {
	users := &fakeUsers{
		currentFn: func(ctx context.Context) (*domain.User, error) {
			return nil, domain.Unavailable(assert.AnError, "test")
		},
	}
	mw := NewAuthMiddleware(users, testLogger(), false)

	var gotToken string
	handler := mw.WithUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = auth.Token(r.Context())
	}))

	req := httptest.NewRequest("GET", "/boards", nil)
	req.AddCookie(sessionCookie("maybe-valid"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	// Anonymous for this request, but the cookie survives for the next one
	assert.Empty(t, rec.Result().Cookies())
	assert.Equal(t, "maybe-valid", gotToken)
}

// =============================================================================
// RequireUser / RequireAdmin
// =============================================================================

func TestRequireUserRedirectsWithReturnTarget(t *testing.T) {
	mw := NewAuthMiddleware(&fakeUsers{}, testLogger(), false)
	handler := mw.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest("GET", "/boards/form?id=5&mode=edit", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?return_to=%2Fboards%2Fform%3Fid%3D5%26mode%3Dedit", rec.Header().Get("Location"))
}

func TestRequireUserJSONGets401(t *testing.T) {
	mw := NewAuthMiddleware(&fakeUsers{}, testLogger(), false)
	handler := mw.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest("GET", "/boards/form", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "unauthorized")
}

func TestRequireUserPassesAuthenticatedRequest(t *testing.T) {
	mw := NewAuthMiddleware(&fakeUsers{}, testLogger(), false)
	called := false
	handler := mw.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest("GET", "/boards/form", nil)
	req = req.WithContext(auth.SetUser(req.Context(), &domain.User{ID: 1}))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.True(t, called)
}

func TestRequireAdminForbidsRegularUser(t *testing.T) {
	mw := NewAuthMiddleware(&fakeUsers{}, testLogger(), false)
	handler := mw.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest("GET", "/users", nil)
	req = req.WithContext(auth.SetUser(req.Context(), &domain.User{ID: 1, Roles: []string{domain.RoleUser}}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireAdminPassesAdmin(t *testing.T) {
	mw := NewAuthMiddleware(&fakeUsers{}, testLogger(), false)
	called := false
	handler := mw.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest("GET", "/users", nil)
	req = req.WithContext(auth.SetUser(req.Context(), &domain.User{ID: 1, Roles: []string{domain.RoleAdmin}}))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.True(t, called)
}

// =============================================================================
// Stack
// =============================================================================

func TestStackAppliesMiddlewareInOrder(t *testing.T) {
	var order []string
	tag := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	handler := Stack(tag("outer"), tag("inner"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}
