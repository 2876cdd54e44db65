package handler

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bunnyburrow/boardweb/internal/domain"
	"github.com/bunnyburrow/boardweb/internal/pagemode"
)

func newTemplateRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer(RendererConfig{
		TemplatesDir: filepath.Join("..", "..", "web", "templates"),
		Logger:       discardLogger(),
		IsDev:        false,
	})
	require.NoError(t, err)
	return r
}

func renderToString(t *testing.T, r *Renderer, name string, data interface{}) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, name, data))
	return buf.String()
}

func TestRendererLoadsAllPages(t *testing.T) {
	r := newTemplateRenderer(t)

	for _, name := range []string{
		"boards/index", "boards/form", "users/index", "profile",
		"auth/login", "auth/signup",
		"partial/board-list", "partial/user-list",
	} {
		assert.Contains(t, r.ListTemplates(), name)
	}
}

func TestFormTemplateEditModeShowsSaveCancelDelete(t *testing.T) {
	r := newTemplateRenderer(t)

	data := BoardFormPageData{
		CurrentPath: "/boards/form",
		User:        alice,
		Resolution: &pagemode.Resolution{
			Mode:     pagemode.ModeEdit,
			Board:    &domain.Board{ID: 5, Title: "hello", Content: "body", AuthorID: alice.ID},
			Viewer:   alice,
			Title:    "Edit Post",
			Editable: true,
		},
		Form:      map[string]string{"title": "hello", "content": "body"},
		Errors:    map[string]string{},
		CSRFToken: "tok",
	}

	body := renderToString(t, r, "boards/form", data)
	assert.Contains(t, body, "Save changes")
	assert.Contains(t, body, `href="/boards/form?id=5"`) // cancel
	assert.Contains(t, body, "/boards/5/delete")
}

func TestFormTemplateCreateModeHidesDelete(t *testing.T) {
	r := newTemplateRenderer(t)

	data := BoardFormPageData{
		CurrentPath: "/boards/form",
		User:        alice,
		Resolution: &pagemode.Resolution{
			Mode:     pagemode.ModeCreate,
			Viewer:   alice,
			Title:    "New Post",
			Editable: true,
		},
		Form:      map[string]string{},
		Errors:    map[string]string{},
		CSRFToken: "tok",
	}

	body := renderToString(t, r, "boards/form", data)
	assert.Contains(t, body, "Publish")
	assert.NotContains(t, body, "/delete")
}

func TestFormTemplateViewModeShowsOwnerControls(t *testing.T) {
	r := newTemplateRenderer(t)

	data := BoardFormPageData{
		CurrentPath: "/boards/form",
		User:        alice,
		Resolution: &pagemode.Resolution{
			Mode:      pagemode.ModeView,
			Board:     &domain.Board{ID: 5, Title: "hello", Content: "body", AuthorID: alice.ID},
			Viewer:    alice,
			Title:     "hello",
			CanEdit:   true,
			CanDelete: true,
		},
		Form:      map[string]string{},
		Errors:    map[string]string{},
		CSRFToken: "tok",
	}

	body := renderToString(t, r, "boards/form", data)
	assert.Contains(t, body, "mode=edit")
	assert.Contains(t, body, "/boards/5/delete")
	assert.NotContains(t, body, "<textarea")
}
