// Package models defines the data types shared across the blog cache service.
package models

// BlogPost is the canonical unit of published content, normalized from a
// Notion page. Timestamps are ISO 8601 strings as reported by the source;
// they are treated as opaque modification markers, never parsed for
// ordering.
type BlogPost struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Slug        string   `json:"slug"`
	Content     string   `json:"content"`
	Excerpt     string   `json:"excerpt"`
	CoverImage  string   `json:"coverImage,omitempty"`
	Tags        []string `json:"tags"`
	PublishedAt string   `json:"publishedAt"`
	UpdatedAt   string   `json:"updatedAt"`
	Published   bool     `json:"published"`
	Author      string   `json:"author,omitempty"`
	Category    string   `json:"category,omitempty"`
	Featured    bool     `json:"featured"`
	ReadingTime int      `json:"readingTime"`
}
