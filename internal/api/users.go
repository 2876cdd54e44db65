package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/bunnyburrow/boardweb/internal/auth"
	"github.com/bunnyburrow/boardweb/internal/domain"
	"github.com/bunnyburrow/boardweb/internal/metrics"
)

// UserService is the account-facing surface of the upstream API.
type UserService interface {
	CurrentUser(ctx context.Context) (*domain.User, error)
	ListUsers(ctx context.Context, page, size int, search string) (domain.Page[domain.User], error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	UpdateUser(ctx context.Context, id int64, name, email string) (*domain.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

var _ UserService = (*Client)(nil)

// CurrentUser probes the authenticated account for the session in ctx.
//
// Any non-2xx status is treated as "no user", never as a hard error: the
// probe is best-effort by design, and an expired session simply renders the
// page anonymously. Only transport failures surface as errors.
func (c *Client) CurrentUser(ctx context.Context) (*domain.User, error) {
	const op = "api.users.me"

	if auth.Token(ctx) == "" {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/api/users/me", nil)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to build request")
	}
	req.Header.Set("Accept", "application/json")
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: auth.Token(ctx)})

	res, err := c.http.Do(req)
	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues(op, "error").Inc()
		return nil, domain.Unavailable(err, op)
	}
	defer res.Body.Close()
	metrics.APIRequestsTotal.WithLabelValues(op, fmt.Sprintf("%d", res.StatusCode)).Inc()

	if res.StatusCode != http.StatusOK {
		return nil, nil
	}

	var user domain.User
	if err := decodeJSON(res, &user); err != nil {
		return nil, domain.Internal(err, op, "failed to decode response")
	}
	return &user, nil
}

// ListUsers fetches one page of accounts (admin only upstream). page is
// 1-based, converted to the API's 0-based numbering here.
func (c *Client) ListUsers(ctx context.Context, page, size int, search string) (domain.Page[domain.User], error) {
	if page < 1 {
		page = 1
	}

	q := url.Values{}
	q.Set("page", fmt.Sprintf("%d", page-1))
	q.Set("size", fmt.Sprintf("%d", size))
	if search != "" {
		q.Set("search", search)
	}

	var result domain.Page[domain.User]
	if err := c.do(ctx, "api.users.list", "GET", "/api/users?"+q.Encode(), nil, &result); err != nil {
		return domain.Page[domain.User]{}, err
	}
	return result, nil
}

// GetUser fetches a single account by id.
func (c *Client) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	var user domain.User
	if err := c.do(ctx, "api.users.get", "GET", fmt.Sprintf("/api/users/%d", id), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser updates the profile fields of an account.
func (c *Client) UpdateUser(ctx context.Context, id int64, name, email string) (*domain.User, error) {
	body := map[string]string{"name": name, "email": email}
	var user domain.User
	if err := c.do(ctx, "api.users.update", "PUT", fmt.Sprintf("/api/users/%d", id), body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser removes an account (admin only upstream).
func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	return c.do(ctx, "api.users.delete", "DELETE", fmt.Sprintf("/api/users/%d", id), nil, nil)
}
