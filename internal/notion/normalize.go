package notion

import (
	"strings"
)

const (
	excerptMaxChars = 160
	wordsPerMinute  = 200
)

// generateExcerpt derives an excerpt from rendered content by stripping
// markdown markup characters and truncating to 160 characters with a
// trailing ellipsis when truncated.
func generateExcerpt(content string) string {
	plain := strings.TrimSpace(stripMarkup(content))
	runes := []rune(plain)
	if len(runes) <= excerptMaxChars {
		return plain
	}
	return strings.TrimSpace(string(runes[:excerptMaxChars])) + "..."
}

// stripMarkup removes the markdown markup characters #, *, backtick and
// brackets.
func stripMarkup(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '#', '*', '`', '[', ']':
			return -1
		}
		return r
	}, s)
}

// calculateReadingTime estimates reading time in minutes from the
// whitespace-delimited word count, at 200 words per minute, minimum 1.
func calculateReadingTime(content string) int {
	words := len(strings.Fields(content))
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}

// coverImageURL extracts the cover URL from an external or uploaded-file
// cover reference. Returns "" when the page has no usable cover.
func coverImageURL(c *cover) string {
	if c == nil {
		return ""
	}
	switch c.Type {
	case "external":
		if c.External != nil {
			return c.External.URL
		}
	case "file":
		if c.File != nil {
			return c.File.URL
		}
	}
	return ""
}
