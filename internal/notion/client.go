package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultBaseURL = "https://api.notion.com/v1"
	notionVersion  = "2022-06-28"
	defaultTimeout = 30 * time.Second

	queryPageSize = 100

	maxErrorBodyBytes = 512
)

// ClientConfig configures the Notion API client.
type ClientConfig struct {
	Token string

	// BaseURL overrides the API endpoint. Used by tests.
	BaseURL string

	Timeout time.Duration
}

// Client is a minimal Notion REST API client covering database queries,
// page metadata, and block content retrieval.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a new Notion API client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    baseURL,
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// do performs an authenticated API request and decodes the response into
// result.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var reqBody io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", notionVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return fmt.Errorf("notion api returned status %d: %s", resp.StatusCode, snippet)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// retrieveDatabase fetches the database schema and collection-level
// last-edited marker.
func (c *Client) retrieveDatabase(ctx context.Context, databaseID string) (*database, error) {
	var db database
	if err := c.do(ctx, http.MethodGet, "/databases/"+databaseID, nil, &db); err != nil {
		return nil, fmt.Errorf("retrieve database: %w", err)
	}
	return &db, nil
}

// queryDatabase runs a filtered, optionally sorted query, following
// pagination until the source reports no more results.
func (c *Client) queryDatabase(ctx context.Context, databaseID string, req queryRequest) ([]page, error) {
	req.PageSize = queryPageSize

	var pages []page
	for {
		var resp queryResponse
		if err := c.do(ctx, http.MethodPost, "/databases/"+databaseID+"/query", req, &resp); err != nil {
			return nil, fmt.Errorf("query database: %w", err)
		}
		pages = append(pages, resp.Results...)
		if !resp.HasMore || resp.NextCursor == "" {
			break
		}
		req.StartCursor = resp.NextCursor
	}
	return pages, nil
}

// retrievePage fetches a single page's metadata, including its
// last-edited marker. It does not fetch content.
func (c *Client) retrievePage(ctx context.Context, pageID string) (*page, error) {
	var p page
	if err := c.do(ctx, http.MethodGet, "/pages/"+pageID, nil, &p); err != nil {
		return nil, fmt.Errorf("retrieve page: %w", err)
	}
	return &p, nil
}

// retrieveBlockChildren fetches a page's content blocks, following
// pagination.
func (c *Client) retrieveBlockChildren(ctx context.Context, pageID string) ([]block, error) {
	var blocks []block
	cursor := ""
	for {
		path := "/blocks/" + pageID + "/children?page_size=" + fmt.Sprint(queryPageSize)
		if cursor != "" {
			path += "&start_cursor=" + url.QueryEscape(cursor)
		}
		var resp blockChildrenResponse
		if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
			return nil, fmt.Errorf("retrieve block children: %w", err)
		}
		blocks = append(blocks, resp.Results...)
		if !resp.HasMore || resp.NextCursor == "" {
			break
		}
		cursor = resp.NextCursor
	}
	return blocks, nil
}

// publishedFilter selects only pages whose Published checkbox is set.
func publishedFilter() map[string]any {
	return map[string]any{
		"property": "Published",
		"checkbox": map[string]any{"equals": true},
	}
}

// slugAndPublishedFilter selects the published page with the given slug.
func slugAndPublishedFilter(slug string) map[string]any {
	return map[string]any{
		"and": []map[string]any{
			{
				"property":  "Slug",
				"rich_text": map[string]any{"equals": slug},
			},
			publishedFilter(),
		},
	}
}
