// Package domain contains the core types shared across the application:
// boards, users, page envelopes, and the structured error types.
//
// These mirror the records served by the upstream Board Hole API. They carry
// no behavior beyond display helpers and client-side validation advisories;
// the API remains the source of truth for every constraint.
package domain

import (
	"strings"
	"time"
)

// Board is a single bulletin-board post as served by the upstream API.
type Board struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	AuthorID   int64     `json:"authorId"`
	AuthorName string    `json:"authorName"`
	ViewCount  int       `json:"viewCount"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// BoardParams holds the writable fields for create and update submissions.
type BoardParams struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Validate performs the client-side checks that gate a network call:
// non-empty title and content. The server enforces everything else.
func (p BoardParams) Validate() error {
	var err *ValidationError

	if strings.TrimSpace(p.Title) == "" {
		err = AddFieldError(err, "title", "Title is required")
	}
	if strings.TrimSpace(p.Content) == "" {
		err = AddFieldError(err, "content", "Content is required")
	}

	if err != nil {
		err.Op = "board.validate"
		return err
	}
	return nil
}

// OwnedBy reports whether the board was authored by the given user.
// This is a display affordance only; authorization is re-checked upstream.
func (b *Board) OwnedBy(u *User) bool {
	return u != nil && b.AuthorID == u.ID
}
