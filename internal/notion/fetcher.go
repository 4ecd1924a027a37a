package notion

import (
	"context"
	"fmt"

	"github.com/jonesrussell/notion-cache/internal/logger"
	"github.com/jonesrussell/notion-cache/internal/models"
)

// Fetcher translates cache misses and refresh decisions into Notion API
// calls and normalizes raw pages into blog posts. It never writes to the
// cache; that is the reconciliation service's job.
type Fetcher struct {
	client     *Client
	databaseID string
	logger     logger.Logger
}

// NewFetcher creates a content fetcher over the given database.
func NewFetcher(client *Client, databaseID string, log logger.Logger) *Fetcher {
	return &Fetcher{
		client:     client,
		databaseID: databaseID,
		logger:     log,
	}
}

// FetchAll queries all published posts, newest first when the database
// has a Created property, and returns them with the collection-level
// modification marker. The whole fetch fails with a configuration error
// when the mandatory Published checkbox is absent from the schema.
func (f *Fetcher) FetchAll(ctx context.Context) ([]models.BlogPost, string, error) {
	if f.databaseID == "" {
		return nil, "", models.ErrNotConfigured
	}

	db, err := f.client.retrieveDatabase(ctx, f.databaseID)
	if err != nil {
		return nil, "", fmt.Errorf("fetch collection: %w", err)
	}
	if _, ok := db.Properties["Published"]; !ok {
		return nil, "", fmt.Errorf("%w: Published", models.ErrSchemaMissingProperty)
	}

	req := queryRequest{Filter: publishedFilter()}
	if _, ok := db.Properties["Created"]; ok {
		req.Sorts = []sortSpec{{Property: "Created", Direction: "descending"}}
	}

	pages, err := f.client.queryDatabase(ctx, f.databaseID, req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch collection: %w", err)
	}

	posts := make([]models.BlogPost, 0, len(pages))
	for i := range pages {
		post, ok := f.pageToPost(ctx, &pages[i])
		if !ok {
			continue
		}
		posts = append(posts, post)
	}

	return posts, db.LastEditedTime, nil
}

// FetchBySlug queries for the single published post with the given slug.
// Returns models.ErrNotFound when no published post matches.
func (f *Fetcher) FetchBySlug(ctx context.Context, slug string) (models.BlogPost, error) {
	if f.databaseID == "" {
		return models.BlogPost{}, models.ErrNotConfigured
	}

	db, err := f.client.retrieveDatabase(ctx, f.databaseID)
	if err != nil {
		return models.BlogPost{}, fmt.Errorf("fetch post %q: %w", slug, err)
	}
	if _, ok := db.Properties["Published"]; !ok {
		return models.BlogPost{}, fmt.Errorf("%w: Published", models.ErrSchemaMissingProperty)
	}
	if _, ok := db.Properties["Slug"]; !ok {
		return models.BlogPost{}, fmt.Errorf("%w: Slug", models.ErrSchemaMissingProperty)
	}

	pages, err := f.client.queryDatabase(ctx, f.databaseID, queryRequest{
		Filter: slugAndPublishedFilter(slug),
	})
	if err != nil {
		return models.BlogPost{}, fmt.Errorf("fetch post %q: %w", slug, err)
	}
	if len(pages) == 0 {
		return models.BlogPost{}, models.ErrNotFound
	}

	post, ok := f.pageToPost(ctx, &pages[0])
	if !ok {
		return models.BlogPost{}, models.ErrNotFound
	}
	return post, nil
}

// FetchCollectionModifiedAt probes the database-level modification marker
// without fetching any content.
func (f *Fetcher) FetchCollectionModifiedAt(ctx context.Context) (string, error) {
	if f.databaseID == "" {
		return "", models.ErrNotConfigured
	}
	db, err := f.client.retrieveDatabase(ctx, f.databaseID)
	if err != nil {
		return "", fmt.Errorf("fetch collection marker: %w", err)
	}
	return db.LastEditedTime, nil
}

// FetchPageModifiedAt probes a single page's modification marker without
// fetching its content.
func (f *Fetcher) FetchPageModifiedAt(ctx context.Context, pageID string) (string, error) {
	p, err := f.client.retrievePage(ctx, pageID)
	if err != nil {
		return "", fmt.Errorf("fetch page marker: %w", err)
	}
	return p.LastEditedTime, nil
}

// pageToPost normalizes a raw page into a blog post. Pages missing any of
// the required properties, or not published, are dropped with a log
// entry rather than an error. Normalization is deterministic: the same
// raw page always yields the same post.
func (f *Fetcher) pageToPost(ctx context.Context, p *page) (models.BlogPost, bool) {
	titleProp, hasTitle := p.Properties["Title"]
	slugProp, hasSlug := p.Properties["Slug"]
	publishedProp, hasPublished := p.Properties["Published"]
	if !hasTitle || !hasSlug || !hasPublished {
		f.logger.Warn("page missing required properties, dropping",
			logger.String("page_id", p.ID),
		)
		return models.BlogPost{}, false
	}

	// The query already filters on Published; re-assert here so an
	// unpublished page can never leak through normalization.
	published, ok := publishedProp.checkbox()
	if !ok || !published {
		f.logger.Warn("page is not published, dropping",
			logger.String("page_id", p.ID),
		)
		return models.BlogPost{}, false
	}

	title, ok := titleProp.text()
	if !ok {
		return models.BlogPost{}, false
	}
	slug, ok := slugProp.text()
	if !ok {
		return models.BlogPost{}, false
	}

	content := f.fetchContent(ctx, p.ID)

	post := models.BlogPost{
		ID:          p.ID,
		Title:       title,
		Slug:        slug,
		Content:     content,
		CoverImage:  coverImageURL(p.Cover),
		Tags:        []string{},
		PublishedAt: p.CreatedTime,
		UpdatedAt:   p.LastEditedTime,
		Published:   true,
		ReadingTime: calculateReadingTime(content),
	}

	if excerpt, ok := p.Properties["Excerpt"].text(); ok {
		post.Excerpt = excerpt
	} else {
		post.Excerpt = generateExcerpt(content)
	}
	if tags, ok := p.Properties["Tags"].multiSelect(); ok {
		post.Tags = tags
	}
	if created, ok := p.Properties["Created"].date(); ok {
		post.PublishedAt = created
	}
	if updated, ok := p.Properties["Updated"].date(); ok {
		post.UpdatedAt = updated
	}
	if author, ok := p.Properties["Author"].people(); ok {
		post.Author = author
	}
	if category, ok := p.Properties["Category"].selectValue(); ok {
		post.Category = category
	}
	if featured, ok := p.Properties["Featured"].checkbox(); ok {
		post.Featured = featured
	}

	return post, true
}

// fetchContent renders a page's blocks as markdown. A retrieval failure
// yields empty content rather than dropping the post.
func (f *Fetcher) fetchContent(ctx context.Context, pageID string) string {
	blocks, err := f.client.retrieveBlockChildren(ctx, pageID)
	if err != nil {
		f.logger.Warn("failed to fetch page content",
			logger.String("page_id", pageID),
			logger.Error(err),
		)
		return ""
	}
	return blocksToMarkdown(blocks)
}
