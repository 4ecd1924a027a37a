package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jonesrussell/notion-cache/internal/ledger"
	"github.com/jonesrussell/notion-cache/internal/logger"
	"github.com/jonesrussell/notion-cache/internal/models"
)

const persistTimeout = 10 * time.Second

// DurableStore is the durable backing mode: an in-memory store whose full
// snapshot is written through a SnapshotPersister after every mutation.
//
// The in-memory state is authoritative. Persistence runs on its own
// goroutine and its outcome is only logged; a storage failure degrades
// the store to ephemeral behavior for that operation, never blocking or
// failing the read path.
type DurableStore struct {
	mem       *MemoryStore
	persister SnapshotPersister
	logger    logger.Logger

	// inFlight tracks dispatched persist goroutines so tests and
	// shutdown can drain them.
	inFlight sync.WaitGroup
}

// NewDurableStore constructs the store and warms it from any previously
// persisted snapshot. A load failure leaves the store empty and is logged.
func NewDurableStore(persister SnapshotPersister, log logger.Logger) *DurableStore {
	s := &DurableStore{
		mem:       NewMemoryStore(),
		persister: persister,
		logger:    log,
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	snap, err := persister.Load(ctx)
	switch {
	case err != nil:
		log.Warn("failed to load cache snapshot, starting cold",
			logger.String("mode", persister.Mode()),
			logger.Error(err),
		)
	case snap != nil:
		s.mem.restore(snap)
		log.Info("cache warmed from snapshot",
			logger.String("mode", persister.Mode()),
			logger.Int("post_count", len(snap.Posts)),
		)
	}

	return s
}

func (s *DurableStore) GetAll() ([]models.BlogPost, bool) {
	return s.mem.GetAll()
}

func (s *DurableStore) GetBySlug(slug string) (models.BlogPost, bool) {
	return s.mem.GetBySlug(slug)
}

func (s *DurableStore) PutAll(posts []models.BlogPost, collectionModifiedAt string) {
	s.mem.PutAll(posts, collectionModifiedAt)
	s.persistAsync()
}

func (s *DurableStore) Upsert(post models.BlogPost) {
	s.mem.Upsert(post)
	s.persistAsync()
}

func (s *DurableStore) InvalidateAll() {
	s.mem.InvalidateAll()

	s.inFlight.Add(1)
	go func() {
		defer s.inFlight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := s.persister.Clear(ctx); err != nil {
			s.logger.Warn("failed to clear cache snapshot",
				logger.String("mode", s.persister.Mode()),
				logger.Error(err),
			)
		}
	}()
}

func (s *DurableStore) IsCollectionStale(currentModifiedAt string) bool {
	return s.mem.IsCollectionStale(currentModifiedAt)
}

func (s *DurableStore) IsItemStale(itemID, currentModifiedAt string) bool {
	return s.mem.IsItemStale(itemID, currentModifiedAt)
}

func (s *DurableStore) LedgerSnapshot() ledger.Snapshot {
	return s.mem.LedgerSnapshot()
}

func (s *DurableStore) Status() Status {
	status := s.mem.Status()
	status.BackingMode = s.persister.Mode()
	return status
}

// persistAsync dispatches a snapshot write without awaiting it.
func (s *DurableStore) persistAsync() {
	snap := s.mem.snapshot()

	s.inFlight.Add(1)
	go func() {
		defer s.inFlight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := s.persister.Save(ctx, snap); err != nil {
			s.logger.Warn("failed to persist cache snapshot",
				logger.String("mode", s.persister.Mode()),
				logger.Int("post_count", len(snap.Posts)),
				logger.Error(err),
			)
		}
	}()
}

// drain waits for dispatched persistence work to finish. Called on
// shutdown so the last snapshot reaches storage.
func (s *DurableStore) drain() {
	s.inFlight.Wait()
}

// Close drains outstanding persistence work.
func (s *DurableStore) Close() {
	s.drain()
}
