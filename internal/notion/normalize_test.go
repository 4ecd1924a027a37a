package notion

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateExcerptShortContent(t *testing.T) {
	assert.Equal(t, "a short post", generateExcerpt("a short post"))
}

func TestGenerateExcerptStripsMarkup(t *testing.T) {
	got := generateExcerpt("# Heading with *emphasis* and `code` and [a link](x)")
	assert.NotContains(t, got, "#")
	assert.NotContains(t, got, "*")
	assert.NotContains(t, got, "`")
	assert.NotContains(t, got, "[")
	assert.NotContains(t, got, "]")
}

func TestGenerateExcerptTruncatesAt160(t *testing.T) {
	content := strings.Repeat("a", 300)
	got := generateExcerpt(content)

	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, 160, len([]rune(strings.TrimSuffix(got, "..."))))
}

func TestCalculateReadingTime(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
	}{
		{"empty content", "", 1},
		{"one word", "hello", 1},
		{"exactly 200 words", strings.Repeat("word ", 200), 1},
		{"201 words", strings.Repeat("word ", 201), 2},
		{"exactly 400 words", strings.Repeat("word ", 400), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, calculateReadingTime(tt.content))
		})
	}
}

func TestCoverImageURL(t *testing.T) {
	assert.Equal(t, "", coverImageURL(nil))
	assert.Equal(t, "https://img.example/a.png", coverImageURL(&cover{
		Type:     "external",
		External: &fileRef{URL: "https://img.example/a.png"},
	}))
	assert.Equal(t, "https://files.example/b.png", coverImageURL(&cover{
		Type: "file",
		File: &fileRef{URL: "https://files.example/b.png"},
	}))
	assert.Equal(t, "", coverImageURL(&cover{Type: "unknown"}))
}
