package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bunnyburrow/boardweb/internal/auth"
	"github.com/bunnyburrow/boardweb/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL, Logger: testLogger()})
}

func TestListBoardsConvertsPageNumbering(t *testing.T) {
	var gotQuery map[string]string

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"page":   r.URL.Query().Get("page"),
			"size":   r.URL.Query().Get("size"),
			"search": r.URL.Query().Get("search"),
		}
		json.NewEncoder(w).Encode(domain.Page[domain.Board]{
			Content:    []domain.Board{{ID: 1, Title: "hello"}},
			TotalPages: 3,
			Number:     0,
		})
	})

	result, err := client.ListBoards(context.Background(), 1, 10, "hello")
	require.NoError(t, err)

	// 1-based page 1 becomes upstream page 0
	assert.Equal(t, "0", gotQuery["page"])
	assert.Equal(t, "10", gotQuery["size"])
	assert.Equal(t, "hello", gotQuery["search"])
	assert.Equal(t, 1, result.CurrentPage())
	assert.Len(t, result.Content, 1)
}

func TestListBoardsOmitsEmptySearch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.False(t, r.URL.Query().Has("search"))
		json.NewEncoder(w).Encode(domain.Page[domain.Board]{})
	})

	_, err := client.ListBoards(context.Background(), 1, 10, "")
	require.NoError(t, err)
}

func TestDoForwardsSessionCookie(t *testing.T) {
	var gotCookie string

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie(sessionCookieName); err == nil {
			gotCookie = c.Value
		}
		json.NewEncoder(w).Encode(domain.Board{ID: 7})
	})

	ctx := auth.SetToken(context.Background(), "tok-123")
	_, err := client.GetBoard(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "tok-123", gotCookie)
}

func TestErrorFromResponseStatusMapping(t *testing.T) {
	tests := []struct {
		status   int
		wantCode string
	}{
		{http.StatusUnauthorized, domain.EUNAUTHORIZED},
		{http.StatusForbidden, domain.EFORBIDDEN},
		{http.StatusNotFound, domain.ENOTFOUND},
		{http.StatusConflict, domain.ECONFLICT},
		{http.StatusBadRequest, domain.EINVALID},
		{http.StatusUnprocessableEntity, domain.EINVALID},
		{http.StatusTooManyRequests, domain.ERATELIMIT},
		{http.StatusInternalServerError, domain.EINTERNAL},
	}

	for _, tt := range tests {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			json.NewEncoder(w).Encode(map[string]string{"message": "nope"})
		})

		_, err := client.GetBoard(context.Background(), 1)
		require.Error(t, err, "status %d", tt.status)
		assert.Equal(t, tt.wantCode, domain.ErrorCode(err), "status %d", tt.status)
	}
}

func TestErrorFromResponseCarriesUpstreamMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"message": "username already taken"})
	})

	err := client.Signup(context.Background(), domain.SignupParams{Username: "dupe"})
	require.Error(t, err)
	assert.Equal(t, domain.ECONFLICT, domain.ErrorCode(err))
	assert.Equal(t, "username already taken", domain.ErrorMessage(err))
}

func TestLoginCapturesSessionCookie(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var creds domain.Credentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		assert.Equal(t, "alice", creds.Username)

		http.SetCookie(w, &http.Cookie{Name: sessionCookieName, Value: "fresh-token"})
		w.WriteHeader(http.StatusOK)
	})

	token, err := client.Login(context.Background(), domain.Credentials{Username: "alice", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", token)
}

func TestLoginWithoutSessionCookieFails(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	_, err := client.Login(context.Background(), domain.Credentials{Username: "alice", Password: "pw"})
	require.Error(t, err)
	assert.Equal(t, domain.EINTERNAL, domain.ErrorCode(err))
}

func TestLoginRejectedMapsToUnauthorized(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.Login(context.Background(), domain.Credentials{Username: "alice", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, domain.EUNAUTHORIZED, domain.ErrorCode(err))
}

func TestCurrentUserWithoutTokenSkipsRequest(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	user, err := client.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Nil(t, user)
	assert.False(t, called)
}

func TestCurrentUserTreatsRejectionAsAnonymous(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	ctx := auth.SetToken(context.Background(), "expired")
	user, err := client.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestCurrentUserDecodesAccount(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(domain.User{ID: 42, Username: "alice", Name: "Alice"})
	})

	ctx := auth.SetToken(context.Background(), "tok")
	user, err := client.CurrentUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, int64(42), user.ID)
	assert.Equal(t, "alice", user.Username)
}

func TestLogoutWithoutTokenIsNoop(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	require.NoError(t, client.Logout(context.Background()))
	assert.False(t, called)
}
