package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("POSTS_PER_PAGE", "")
	t.Setenv("INDEX_CACHE_TTL", "")
	t.Setenv("PORT", "")

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 10, cfg.PostsPerPage)
	assert.Equal(t, 20*time.Second, cfg.IndexCacheTTL)
	assert.Equal(t, int64(5<<20), cfg.MaxImageBytes)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("POSTS_PER_PAGE", "25")
	t.Setenv("INDEX_CACHE_TTL", "1m")
	t.Setenv("PORT", "9000")

	cfg := Load()
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 25, cfg.PostsPerPage)
	assert.Equal(t, time.Minute, cfg.IndexCacheTTL)
}

func TestLoadIgnoresInvalidNumbers(t *testing.T) {
	t.Setenv("POSTS_PER_PAGE", "zero")
	t.Setenv("INDEX_CACHE_TTL", "soon")

	cfg := Load()
	assert.Equal(t, 10, cfg.PostsPerPage)
	assert.Equal(t, 20*time.Second, cfg.IndexCacheTTL)
}

func TestSiteURLTrimsSlash(t *testing.T) {
	t.Setenv("SITE_URL", "https://yatube.example/")

	cfg := Load()
	assert.Equal(t, "https://yatube.example", cfg.SiteURL)
}
