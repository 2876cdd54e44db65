package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/bunnyburrow/boardweb/internal/domain"
)

// BoardService is the board-facing surface of the upstream API. Handlers and
// the page-mode resolver depend on this interface, never on Client directly,
// so tests can substitute lightweight fakes.
type BoardService interface {
	ListBoards(ctx context.Context, page, size int, search string) (domain.Page[domain.Board], error)
	GetBoard(ctx context.Context, id int64) (*domain.Board, error)
	CreateBoard(ctx context.Context, params domain.BoardParams) (*domain.Board, error)
	UpdateBoard(ctx context.Context, id int64, params domain.BoardParams) (*domain.Board, error)
	DeleteBoard(ctx context.Context, id int64) error
}

var _ BoardService = (*Client)(nil)

// ListBoards fetches one page of boards. page is 1-based; the upstream API
// pages from 0, so the conversion happens here and nowhere else.
func (c *Client) ListBoards(ctx context.Context, page, size int, search string) (domain.Page[domain.Board], error) {
	if page < 1 {
		page = 1
	}

	q := url.Values{}
	q.Set("page", fmt.Sprintf("%d", page-1))
	q.Set("size", fmt.Sprintf("%d", size))
	if search != "" {
		q.Set("search", search)
	}

	var result domain.Page[domain.Board]
	if err := c.do(ctx, "api.boards.list", "GET", "/api/boards?"+q.Encode(), nil, &result); err != nil {
		return domain.Page[domain.Board]{}, err
	}
	return result, nil
}

// GetBoard fetches a single board by id.
func (c *Client) GetBoard(ctx context.Context, id int64) (*domain.Board, error) {
	var board domain.Board
	if err := c.do(ctx, "api.boards.get", "GET", fmt.Sprintf("/api/boards/%d", id), nil, &board); err != nil {
		return nil, err
	}
	return &board, nil
}

// CreateBoard creates a new board post.
func (c *Client) CreateBoard(ctx context.Context, params domain.BoardParams) (*domain.Board, error) {
	var board domain.Board
	if err := c.do(ctx, "api.boards.create", "POST", "/api/boards", params, &board); err != nil {
		return nil, err
	}
	return &board, nil
}

// UpdateBoard replaces the title and content of an existing board.
func (c *Client) UpdateBoard(ctx context.Context, id int64, params domain.BoardParams) (*domain.Board, error) {
	var board domain.Board
	if err := c.do(ctx, "api.boards.update", "PUT", fmt.Sprintf("/api/boards/%d", id), params, &board); err != nil {
		return nil, err
	}
	return &board, nil
}

// DeleteBoard deletes a board. The upstream API enforces ownership.
func (c *Client) DeleteBoard(ctx context.Context, id int64) error {
	return c.do(ctx, "api.boards.delete", "DELETE", fmt.Sprintf("/api/boards/%d", id), nil, nil)
}
