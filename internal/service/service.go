// Package service implements the reconciliation engine: for every read it
// decides between serving fresh cache, serving stale cache while
// refreshing in the background, and fetching synchronously from the
// source. It is the only component that writes to the cache store.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonesrussell/notion-cache/internal/cache"
	"github.com/jonesrussell/notion-cache/internal/ledger"
	"github.com/jonesrussell/notion-cache/internal/logger"
	"github.com/jonesrussell/notion-cache/internal/metrics"
	"github.com/jonesrussell/notion-cache/internal/models"
)

const defaultBackgroundTimeout = 30 * time.Second

// Metric path labels.
const (
	pathCollection = "posts"
	pathSingle     = "post"
)

// ContentFetcher is the engine's view of the content source.
type ContentFetcher interface {
	// FetchAll returns all published posts and the collection-level
	// modification marker.
	FetchAll(ctx context.Context) ([]models.BlogPost, string, error)

	// FetchBySlug returns the published post with the given slug, or
	// models.ErrNotFound.
	FetchBySlug(ctx context.Context, slug string) (models.BlogPost, error)

	// FetchCollectionModifiedAt probes the collection marker cheaply.
	FetchCollectionModifiedAt(ctx context.Context) (string, error)

	// FetchPageModifiedAt probes a single item's marker cheaply.
	FetchPageModifiedAt(ctx context.Context, pageID string) (string, error)
}

// Config holds engine construction options. The deployment-mode signal is
// read once here and never re-evaluated.
type Config struct {
	// Serverless marks an ephemeral deployment where process state does
	// not survive between requests: every read fetches synchronously and
	// the cache is only a within-invocation convenience.
	Serverless bool

	// BackgroundTimeout bounds each background staleness check.
	BackgroundTimeout time.Duration
}

// Service is the reconciliation engine.
type Service struct {
	store   cache.Store
	entries *cache.EntryCache
	fetcher ContentFetcher
	metrics *metrics.Metrics
	logger  logger.Logger

	serverless bool
	bgTimeout  time.Duration

	// bg tracks in-flight background refreshes so shutdown and tests
	// can drain them. The foreground path never waits on it.
	bg sync.WaitGroup
}

// New constructs the engine.
func New(store cache.Store, entries *cache.EntryCache, fetcher ContentFetcher, m *metrics.Metrics, log logger.Logger, cfg Config) *Service {
	bgTimeout := cfg.BackgroundTimeout
	if bgTimeout <= 0 {
		bgTimeout = defaultBackgroundTimeout
	}
	return &Service{
		store:      store,
		entries:    entries,
		fetcher:    fetcher,
		metrics:    m,
		logger:     log,
		serverless: cfg.Serverless,
		bgTimeout:  bgTimeout,
	}
}

// Serverless reports the deployment mode the engine was constructed with.
func (s *Service) Serverless() bool {
	return s.serverless
}

// GetAllPosts returns the published collection. The boolean reports
// whether the result came from cache. A non-nil error alongside a
// non-empty result marks a degraded (stale fallback) response.
func (s *Service) GetAllPosts(ctx context.Context) ([]models.BlogPost, bool, error) {
	if s.serverless {
		return s.fetchAllSync(ctx, metrics.TriggerCold)
	}

	if cached, ok := s.store.GetAll(); ok && len(cached) > 0 {
		s.metrics.CacheHit(pathCollection)
		s.spawn(func(bgCtx context.Context) {
			s.checkCollectionFreshness(bgCtx)
		})
		return cached, true, nil
	}

	return s.fetchAllSync(ctx, metrics.TriggerCold)
}

// fetchAllSync fetches the collection from the source and writes it
// through the store. On failure it falls back to the last cached
// snapshot, if any, annotated with the error.
func (s *Service) fetchAllSync(ctx context.Context, trigger string) ([]models.BlogPost, bool, error) {
	s.metrics.CacheMiss(pathCollection)

	posts, marker, err := s.fetcher.FetchAll(ctx)
	if err != nil {
		s.metrics.FetchFailure()
		s.logger.Error("collection fetch failed", logger.Error(err))
		if cached, ok := s.store.GetAll(); ok && len(cached) > 0 {
			return cached, true, err
		}
		return nil, false, err
	}

	s.store.PutAll(posts, marker)
	s.metrics.Refresh(trigger)
	s.logger.Info("collection fetched from source",
		logger.Int("post_count", len(posts)),
	)
	return posts, false, nil
}

// GetPostBySlug returns one published post by slug. The boolean reports
// whether the result came from cache; a non-nil error alongside a valid
// post marks a degraded response.
func (s *Service) GetPostBySlug(ctx context.Context, slug string) (models.BlogPost, bool, error) {
	if s.serverless {
		return s.fetchBySlugSync(ctx, slug)
	}

	if post, ok := s.entries.Get(slug); ok {
		s.metrics.CacheHit(pathSingle)
		s.spawnPostCheck(post.ID, slug)
		return post, true, nil
	}

	if post, ok := s.store.GetBySlug(slug); ok {
		s.metrics.CacheHit(pathSingle)
		s.entries.Set(slug, post)
		s.spawnPostCheck(post.ID, slug)
		return post, true, nil
	}

	return s.fetchBySlugSync(ctx, slug)
}

// fetchBySlugSync fetches one post from the source and writes it through
// the store and entry cache. Not-found passes through untouched; other
// failures fall back to any cached copy, annotated with the error.
func (s *Service) fetchBySlugSync(ctx context.Context, slug string) (models.BlogPost, bool, error) {
	s.metrics.CacheMiss(pathSingle)

	post, err := s.fetcher.FetchBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.BlogPost{}, false, models.ErrNotFound
		}
		s.metrics.FetchFailure()
		s.logger.Error("post fetch failed",
			logger.String("slug", slug),
			logger.Error(err),
		)
		if cached, ok := s.store.GetBySlug(slug); ok {
			return cached, true, err
		}
		return models.BlogPost{}, false, err
	}

	s.store.Upsert(post)
	s.entries.Set(slug, post)
	return post, false, nil
}

// RefreshCache invalidates everything and refetches the full collection
// synchronously. Returns the fetched post count.
func (s *Service) RefreshCache(ctx context.Context) (int, error) {
	s.store.InvalidateAll()
	s.entries.Clear()

	posts, marker, err := s.fetcher.FetchAll(ctx)
	if err != nil {
		s.metrics.FetchFailure()
		return 0, err
	}

	s.store.PutAll(posts, marker)
	s.metrics.Refresh(metrics.TriggerForced)
	s.logger.Info("cache force-refreshed", logger.Int("post_count", len(posts)))
	return len(posts), nil
}

// InvalidateCache clears the store, ledger, and entry cache.
func (s *Service) InvalidateCache() {
	s.store.InvalidateAll()
	s.entries.Clear()
	s.logger.Info("cache invalidated")
}

// CacheStatus reports store state plus a ledger snapshot.
func (s *Service) CacheStatus() (cache.Status, ledger.Snapshot) {
	return s.store.Status(), s.store.LedgerSnapshot()
}

// checkCollectionFreshness compares the source's collection marker
// against the ledger and refetches on mismatch. Collection reads trust
// the collection-level marker.
func (s *Service) checkCollectionFreshness(ctx context.Context) {
	marker, err := s.fetcher.FetchCollectionModifiedAt(ctx)
	if err != nil {
		s.logger.Warn("background collection check failed", logger.Error(err))
		return
	}
	if !s.store.IsCollectionStale(marker) {
		s.logger.Debug("collection unchanged, keeping cache")
		return
	}

	posts, collectionMarker, err := s.fetcher.FetchAll(ctx)
	if err != nil {
		s.metrics.FetchFailure()
		s.logger.Warn("background collection refresh failed", logger.Error(err))
		return
	}

	s.store.PutAll(posts, collectionMarker)
	s.metrics.Refresh(metrics.TriggerBackground)
	s.logger.Info("collection change detected, cache refreshed",
		logger.Int("post_count", len(posts)),
	)
}

// checkPostFreshness probes one item's marker and refetches just that
// item on mismatch. Single-item reads trust the per-item marker, the
// most granular one available.
func (s *Service) checkPostFreshness(ctx context.Context, postID, slug string) {
	marker, err := s.fetcher.FetchPageModifiedAt(ctx, postID)
	if err != nil {
		s.logger.Warn("background post check failed",
			logger.String("slug", slug),
			logger.Error(err),
		)
		return
	}
	if !s.store.IsItemStale(postID, marker) {
		s.logger.Debug("post unchanged, keeping cache", logger.String("slug", slug))
		return
	}

	post, err := s.fetcher.FetchBySlug(ctx, slug)
	if err != nil {
		s.metrics.FetchFailure()
		s.logger.Warn("background post refresh failed",
			logger.String("slug", slug),
			logger.Error(err),
		)
		return
	}

	s.store.Upsert(post)
	s.entries.Set(slug, post)
	s.metrics.Refresh(metrics.TriggerBackground)
	s.logger.Info("post change detected, cache updated", logger.String("slug", slug))
}

func (s *Service) spawnPostCheck(postID, slug string) {
	s.spawn(func(ctx context.Context) {
		s.checkPostFreshness(ctx, postID, slug)
	})
}

// spawn dispatches a fire-and-forget background task with its own
// timeout and error boundary. The foreground read has already returned
// (or is about to); nothing awaits the task's completion.
func (s *Service) spawn(task func(ctx context.Context)) {
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("background refresh panicked", logger.Any("panic", r))
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), s.bgTimeout)
		defer cancel()
		task(ctx)
	}()
}

// Drain waits for in-flight background refreshes. Called on shutdown.
func (s *Service) Drain() {
	s.bg.Wait()
}
