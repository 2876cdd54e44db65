// Package api implements the HTTP client for the upstream Board Hole REST
// API. All business logic (authentication, authorization, persistence,
// pagination) lives behind that API; this client only moves JSON and maps
// upstream statuses onto the domain error taxonomy.
//
// Requests carry the caller's upstream session token, taken from the request
// context (see the auth package), as the upstream session cookie. The client
// itself holds no per-user state and is safe for concurrent use.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bunnyburrow/boardweb/internal/auth"
	"github.com/bunnyburrow/boardweb/internal/domain"
	"github.com/bunnyburrow/boardweb/internal/metrics"
)

// sessionCookieName is the upstream session cookie. The Board Hole API uses
// container-managed sessions.
const sessionCookieName = "JSESSIONID"

// Client talks to the upstream Board Hole API.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// Config holds client construction parameters.
type Config struct {
	BaseURL string        // e.g. "http://localhost:8081"
	Timeout time.Duration // Per-request timeout; zero means 10s
	Logger  *slog.Logger
}

// New creates a new upstream API client.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  cfg.Logger,
	}
}

// errorBody is the shape of upstream error responses. The API emits RFC 7807
// problem details; older endpoints return a bare message field.
type errorBody struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
	Title   string `json:"title"`
}

// userMessage returns the most specific human-readable text in the body.
func (b errorBody) userMessage() string {
	switch {
	case b.Detail != "":
		return b.Detail
	case b.Message != "":
		return b.Message
	default:
		return b.Title
	}
}

// do issues a request against the upstream API and decodes a 2xx JSON
// response into out (skipped when out is nil). Non-2xx responses are mapped
// onto domain errors; the upstream message text is surfaced verbatim where
// the spec allows it.
func (c *Client) do(ctx context.Context, op, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return domain.Internal(err, op, "failed to encode request")
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return domain.Internal(err, op, "failed to build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := auth.Token(ctx); token != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: token})
	}

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues(op, "error").Inc()
		return domain.Unavailable(err, op)
	}
	defer res.Body.Close()

	metrics.APIRequestsTotal.WithLabelValues(op, fmt.Sprintf("%d", res.StatusCode)).Inc()
	metrics.APIRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	if res.StatusCode >= 200 && res.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			return domain.Internal(err, op, "failed to decode response")
		}
		return nil
	}

	return c.errorFromResponse(op, res)
}

// errorFromResponse maps a non-2xx upstream response to a domain error.
func (c *Client) errorFromResponse(op string, res *http.Response) error {
	var body errorBody
	// Best effort; an unparseable body just falls back to generic text.
	raw, _ := io.ReadAll(io.LimitReader(res.Body, 16<<10))
	_ = json.Unmarshal(raw, &body)
	message := body.userMessage()

	switch res.StatusCode {
	case http.StatusUnauthorized:
		if message == "" {
			message = "Authentication required"
		}
		return domain.Unauthorized(op, message)
	case http.StatusForbidden:
		if message == "" {
			message = "You don't have permission to do that"
		}
		return domain.Forbidden(op, message)
	case http.StatusNotFound:
		if message == "" {
			message = "The requested resource was not found"
		}
		return domain.Errorf(domain.ENOTFOUND, op, "%s", message)
	case http.StatusConflict:
		if message == "" {
			message = "The request conflicts with an existing resource"
		}
		return domain.Conflict(op, message)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		if message == "" {
			message = "The request was invalid"
		}
		return domain.Invalid(op, message)
	case http.StatusTooManyRequests:
		return domain.Errorf(domain.ERATELIMIT, op, "Too many requests. Please try again later.")
	default:
		err := domain.Internal(fmt.Errorf("upstream status %d", res.StatusCode), op, "upstream request failed")
		if c.logger != nil {
			c.logger.Error("upstream API error", "op", op, "status", res.StatusCode, "body", truncate(string(raw), 256))
		}
		return err
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// decodeJSON decodes a response body into out.
func decodeJSON(res *http.Response, out interface{}) error {
	return json.NewDecoder(res.Body).Decode(out)
}

// newJSONRequest builds a request with a JSON-encoded body and the standard
// headers, without attaching a session cookie. Used by the login flow, which
// runs before any session exists.
func newJSONRequest(ctx context.Context, method, url string, body interface{}) (*http.Request, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}
