package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/notion-cache/internal/cache"
	"github.com/jonesrussell/notion-cache/internal/logger"
	"github.com/jonesrussell/notion-cache/internal/metrics"
	"github.com/jonesrussell/notion-cache/internal/models"
	"github.com/jonesrussell/notion-cache/internal/service"
)

type fakeFetcher struct {
	mu     sync.Mutex
	posts  []models.BlogPost
	marker string
	err    error
}

func (f *fakeFetcher) FetchAll(_ context.Context) ([]models.BlogPost, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, "", f.err
	}
	posts := make([]models.BlogPost, len(f.posts))
	copy(posts, f.posts)
	return posts, f.marker, nil
}

func (f *fakeFetcher) FetchBySlug(_ context.Context, slug string) (models.BlogPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return models.BlogPost{}, f.err
	}
	for _, p := range f.posts {
		if p.Slug == slug {
			return p, nil
		}
	}
	return models.BlogPost{}, models.ErrNotFound
}

func (f *fakeFetcher) FetchCollectionModifiedAt(_ context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return f.marker, nil
}

func (f *fakeFetcher) FetchPageModifiedAt(_ context.Context, pageID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	for _, p := range f.posts {
		if p.ID == pageID {
			return p.UpdatedAt, nil
		}
	}
	return "", models.ErrNotFound
}

func (f *fakeFetcher) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func testPosts() []models.BlogPost {
	return []models.BlogPost{
		{
			ID:          "p1",
			Title:       "Hello World",
			Slug:        "hello-world",
			Content:     "# Hello\n\nBody text.",
			Excerpt:     "Hello Body text.",
			Tags:        []string{"go"},
			PublishedAt: "2025-01-01T00:00:00.000Z",
			UpdatedAt:   "2025-01-05T00:00:00.000Z",
			Published:   true,
			ReadingTime: 1,
		},
		{
			ID:          "p2",
			Title:       "Second Post",
			Slug:        "second-post",
			Content:     "More body text.",
			Excerpt:     "More body text.",
			Tags:        []string{},
			PublishedAt: "2025-01-02T00:00:00.000Z",
			UpdatedAt:   "2025-01-06T00:00:00.000Z",
			Published:   true,
			ReadingTime: 1,
		},
	}
}

type testServer struct {
	engine *gin.Engine
	svc    *service.Service
}

func newTestServer(t *testing.T, fetcher service.ContentFetcher, serverless bool) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.NewNopLogger()
	m := metrics.New()
	svc := service.New(
		cache.NewMemoryStore(),
		cache.NewEntryCache(time.Hour),
		fetcher,
		m,
		log,
		service.Config{Serverless: serverless},
	)
	router := NewRouter(svc, m, log, Config{
		Version:     "test",
		Debug:       true,
		CORSOrigins: []string{"http://localhost:3000"},
		EnvStatus: EnvStatus{
			HasNotionToken:    true,
			HasNotionDatabase: true,
			Serverless:        serverless,
			CacheMode:         cache.ModeMemory,
		},
	})
	return &testServer{engine: router.Engine(), svc: svc}
}

func (ts *testServer) do(t *testing.T, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	ts.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestGetPostsColdCache(t *testing.T) {
	fetcher := &fakeFetcher{posts: testPosts(), marker: "m1"}
	ts := newTestServer(t, fetcher, false)

	w := ts.do(t, http.MethodGet, "/api/posts")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, false, body["cached"])
	assert.EqualValues(t, 2, body["total"])
	posts, ok := body["posts"].([]any)
	require.True(t, ok)
	assert.Len(t, posts, 2)
	ts.svc.Drain()
}

func TestGetPostsWarmCache(t *testing.T) {
	fetcher := &fakeFetcher{posts: testPosts(), marker: "m1"}
	ts := newTestServer(t, fetcher, false)

	ts.do(t, http.MethodGet, "/api/posts")
	w := ts.do(t, http.MethodGet, "/api/posts")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, true, body["cached"])
	info, ok := body["cacheInfo"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 2, info["postsCount"])
	ts.svc.Drain()
}

func TestGetPostsSourceDownEmptyCache(t *testing.T) {
	fetcher := &fakeFetcher{}
	fetcher.fail(errors.New("notion is down"))
	ts := newTestServer(t, fetcher, false)

	w := ts.do(t, http.MethodGet, "/api/posts")
	require.Equal(t, http.StatusInternalServerError, w.Code)

	body := decode(t, w)
	assert.EqualValues(t, 0, body["total"])
	assert.Equal(t, false, body["cached"])
	posts, ok := body["posts"].([]any)
	require.True(t, ok)
	assert.Empty(t, posts)
	assert.NotEmpty(t, body["error"])
}

func TestGetPostsStaleFallbackOnSourceFailure(t *testing.T) {
	fetcher := &fakeFetcher{posts: testPosts(), marker: "m1"}
	ts := newTestServer(t, fetcher, true)

	// First invocation writes through the process-local cache.
	w := ts.do(t, http.MethodGet, "/api/posts")
	require.Equal(t, http.StatusOK, w.Code)

	fetcher.fail(errors.New("notion is down"))

	w = ts.do(t, http.MethodGet, "/api/posts")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, true, body["cached"])
	assert.EqualValues(t, 2, body["total"])
	assert.NotEmpty(t, body["error"])
}

func TestGetPostBySlug(t *testing.T) {
	fetcher := &fakeFetcher{posts: testPosts(), marker: "m1"}
	ts := newTestServer(t, fetcher, false)

	w := ts.do(t, http.MethodGet, "/api/posts/hello-world")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "Hello World", body["title"])
	assert.Equal(t, "hello-world", body["slug"])
	assert.Equal(t, false, body["cached"])
	_, hasErr := body["error"]
	assert.False(t, hasErr)
	ts.svc.Drain()
}

func TestGetPostBySlugNotFound(t *testing.T) {
	fetcher := &fakeFetcher{marker: "m1"}
	ts := newTestServer(t, fetcher, false)

	w := ts.do(t, http.MethodGet, "/api/posts/missing")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Post not found", decode(t, w)["error"])
}

func TestGetPostStaleFallbackOnSourceFailure(t *testing.T) {
	fetcher := &fakeFetcher{posts: testPosts(), marker: "m1"}
	ts := newTestServer(t, fetcher, true)

	w := ts.do(t, http.MethodGet, "/api/posts/hello-world")
	require.Equal(t, http.StatusOK, w.Code)

	fetcher.fail(errors.New("notion is down"))

	w = ts.do(t, http.MethodGet, "/api/posts/hello-world")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "hello-world", body["slug"])
	assert.Equal(t, true, body["cached"])
	assert.NotEmpty(t, body["error"])
}

func TestCacheStatusEndpoint(t *testing.T) {
	fetcher := &fakeFetcher{posts: testPosts(), marker: "m1"}
	ts := newTestServer(t, fetcher, false)

	ts.do(t, http.MethodGet, "/api/posts")

	w := ts.do(t, http.MethodGet, "/api/cache")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "success", body["status"])
	info, ok := body["cache"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, info["hasData"])
	assert.EqualValues(t, 2, info["postCount"])
	assert.Equal(t, cache.ModeMemory, info["backingMode"])

	meta, ok := info["metadata"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "m1", meta["databaseLastModified"])
	ts.svc.Drain()
}

func TestRefreshCacheEndpoint(t *testing.T) {
	fetcher := &fakeFetcher{posts: testPosts(), marker: "m1"}
	ts := newTestServer(t, fetcher, false)

	w := ts.do(t, http.MethodPost, "/api/cache")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "success", body["status"])
	assert.EqualValues(t, 2, body["postsCount"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestRefreshCacheEndpointSourceDown(t *testing.T) {
	fetcher := &fakeFetcher{}
	fetcher.fail(errors.New("notion is down"))
	ts := newTestServer(t, fetcher, false)

	w := ts.do(t, http.MethodPost, "/api/cache")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "error", decode(t, w)["status"])
}

func TestClearCacheEndpoint(t *testing.T) {
	fetcher := &fakeFetcher{posts: testPosts(), marker: "m1"}
	ts := newTestServer(t, fetcher, false)

	ts.do(t, http.MethodGet, "/api/posts")

	w := ts.do(t, http.MethodDelete, "/api/cache")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "success", decode(t, w)["status"])

	w = ts.do(t, http.MethodGet, "/api/cache")
	info, ok := decode(t, w)["cache"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, info["hasData"])
	ts.svc.Drain()
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t, &fakeFetcher{}, false)

	w := ts.do(t, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, serviceName, body["service"])
}

func TestEnvStatusEndpoint(t *testing.T) {
	ts := newTestServer(t, &fakeFetcher{}, false)

	w := ts.do(t, http.MethodGet, "/api/env-status")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, true, body["hasNotionToken"])
	assert.Equal(t, true, body["hasNotionDatabaseId"])
	assert.Equal(t, cache.ModeMemory, body["cacheMode"])
}

func TestEdgeCacheHeaderOnlyInServerlessMode(t *testing.T) {
	fetcher := &fakeFetcher{posts: testPosts(), marker: "m1"}

	serverless := newTestServer(t, fetcher, true)
	w := serverless.do(t, http.MethodGet, "/api/posts")
	assert.Equal(t, edgeCacheControl, w.Header().Get("Cache-Control"))

	longRunning := newTestServer(t, fetcher, false)
	w = longRunning.do(t, http.MethodGet, "/api/posts")
	assert.Empty(t, w.Header().Get("Cache-Control"))
	longRunning.svc.Drain()
}

func TestRequestIDHeader(t *testing.T) {
	ts := newTestServer(t, &fakeFetcher{}, false)

	w := ts.do(t, http.MethodGet, "/health")
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "req-123")
	w = httptest.NewRecorder()
	ts.engine.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get(requestIDHeader))
}
