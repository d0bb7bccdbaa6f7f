package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderMarkdownSanitizes(t *testing.T) {
	out := string(RenderMarkdown("**жирный** <script>alert(1)</script>"))
	assert.Contains(t, out, "<strong>жирный</strong>")
	assert.NotContains(t, out, "<script>")
}

func TestRenderMarkdownEnhancesImages(t *testing.T) {
	out := string(RenderMarkdown("![cat](https://example.com/cat.png)"))
	assert.Contains(t, out, `loading="lazy"`)
	assert.Contains(t, out, `referrerpolicy="no-referrer"`)
	assert.False(t, strings.Contains(out, "<body>"))
}

func TestRenderMarkdownEmpty(t *testing.T) {
	assert.Equal(t, "", string(RenderMarkdown("")))
}

func TestParseID(t *testing.T) {
	id, ok := ParseID("42")
	assert.True(t, ok)
	assert.Equal(t, uint(42), id)

	for _, bad := range []string{"", "0", "-1", "abc"} {
		_, ok := ParseID(bad)
		assert.False(t, ok, bad)
	}
	assert.Equal(t, 0, StringToInt("x"))
	assert.Equal(t, 3, StringToInt("3"))
}

func TestFirstBlocks(t *testing.T) {
	out := FirstBlocks("<p>один</p><p>два</p><p>три</p>", 2)
	assert.Contains(t, out, "<p>один</p>")
	assert.Contains(t, out, "<p>два</p>")
	assert.NotContains(t, out, "три")
}
