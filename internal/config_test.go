package internal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://localhost:9090")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "http://localhost:9090", cfg.APIBaseURL)
	assert.Equal(t, 10*time.Second, cfg.APITimeout)
	assert.Equal(t, 10, cfg.PageSize)
	assert.Equal(t, 10, cfg.PageWindow)
	assert.Equal(t, "sliding", cfg.UserPaging)
}

func TestNewConfigRequiresAPIBaseURL(t *testing.T) {
	t.Setenv("API_BASE_URL", "")

	_, err := NewConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API_BASE_URL")
}

func TestNewConfigReadsOverrides(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://api.internal:8080")
	t.Setenv("ENV", "production")
	t.Setenv("PORT", "3000")
	t.Setenv("API_TIMEOUT", "5s")
	t.Setenv("PAGE_SIZE", "20")
	t.Setenv("PAGE_WINDOW", "5")
	t.Setenv("USER_PAGING", "fixed")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.APITimeout)
	assert.Equal(t, 20, cfg.PageSize)
	assert.Equal(t, 5, cfg.PageWindow)
	assert.Equal(t, "fixed", cfg.UserPaging)
}

func TestNewConfigRejectsInvalidPagination(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"zero page size", "PAGE_SIZE", "0"},
		{"negative page window", "PAGE_WINDOW", "-1"},
		{"unknown user paging policy", "USER_PAGING", "wandering"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("API_BASE_URL", "http://localhost:9090")
			t.Setenv(tt.key, tt.value)

			_, err := NewConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}
