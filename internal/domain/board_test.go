package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoardParams_Validate(t *testing.T) {
	tests := []struct {
		name       string
		params     BoardParams
		wantFields []string
	}{
		{"valid", BoardParams{Title: "hello", Content: "world"}, nil},
		{"empty title", BoardParams{Title: "", Content: "world"}, []string{"title"}},
		{"whitespace title", BoardParams{Title: "   ", Content: "world"}, []string{"title"}},
		{"empty content", BoardParams{Title: "hello", Content: ""}, []string{"content"}},
		{"both empty", BoardParams{}, []string{"title", "content"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()

			if len(tt.wantFields) == 0 {
				assert.NoError(t, err)
				return
			}

			var ve *ValidationError
			assert.True(t, errors.As(err, &ve))
			assert.Len(t, ve.Fields, len(tt.wantFields))
			for _, field := range tt.wantFields {
				assert.Contains(t, ve.Fields, field)
			}
		})
	}
}

func TestBoard_OwnedBy(t *testing.T) {
	board := &Board{ID: 1, AuthorID: 42}

	assert.False(t, board.OwnedBy(nil))
	assert.False(t, board.OwnedBy(&User{ID: 7}))
	assert.True(t, board.OwnedBy(&User{ID: 42}))
}

func TestUser_IsAdmin(t *testing.T) {
	var nilUser *User
	assert.False(t, nilUser.IsAdmin())
	assert.False(t, (&User{Roles: []string{RoleUser}}).IsAdmin())
	assert.True(t, (&User{Roles: []string{RoleUser, RoleAdmin}}).IsAdmin())
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "", ErrorCode(nil))
	assert.Equal(t, ENOTFOUND, ErrorCode(NotFound("op", "board", "5")))
	assert.Equal(t, EINTERNAL, ErrorCode(errors.New("plain")))
}

func TestErrorMessage_HidesInternalDetail(t *testing.T) {
	err := Internal(errors.New("pq: connection refused"), "api.boards.list", "upstream exploded")
	msg := ErrorMessage(err)
	assert.NotContains(t, msg, "exploded")
	assert.NotContains(t, msg, "connection refused")

	visible := Invalid("board.validate", "Title is required")
	assert.Equal(t, "Title is required", ErrorMessage(visible))
}
