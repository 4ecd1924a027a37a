package cache

import (
	"sync"

	"github.com/jonesrussell/notion-cache/internal/ledger"
	"github.com/jonesrussell/notion-cache/internal/models"
)

// MemoryStore is the ephemeral backing mode: state lives only for the
// lifetime of the current process. Selected when the deployment cannot
// guarantee process continuity between requests.
type MemoryStore struct {
	mu      sync.RWMutex
	posts   []models.BlogPost
	hasData bool
	ledger  *ledger.Ledger
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{ledger: ledger.New()}
}

// GetAll returns a copy of the cached collection, if one exists.
func (s *MemoryStore) GetAll() ([]models.BlogPost, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.hasData {
		return nil, false
	}
	posts := make([]models.BlogPost, len(s.posts))
	copy(posts, s.posts)
	return posts, true
}

// GetBySlug looks a post up by slug within the cached collection.
func (s *MemoryStore) GetBySlug(slug string) (models.BlogPost, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.hasData {
		return models.BlogPost{}, false
	}
	for i := range s.posts {
		if s.posts[i].Slug == slug {
			return s.posts[i], true
		}
	}
	return models.BlogPost{}, false
}

// PutAll replaces the cached collection and records the collection fetch.
func (s *MemoryStore) PutAll(posts []models.BlogPost, collectionModifiedAt string) {
	s.mu.Lock()
	s.posts = make([]models.BlogPost, len(posts))
	copy(s.posts, posts)
	s.hasData = true
	s.mu.Unlock()

	s.ledger.RecordCollectionFetch(collectionModifiedAt)
	for i := range posts {
		s.ledger.RecordItemFetch(posts[i].ID, posts[i].UpdatedAt)
	}
}

// Upsert replaces the post with the same ID or appends a new one, and
// records the item fetch in the ledger.
func (s *MemoryStore) Upsert(post models.BlogPost) {
	s.mu.Lock()
	replaced := false
	for i := range s.posts {
		if s.posts[i].ID == post.ID {
			s.posts[i] = post
			replaced = true
			break
		}
	}
	if !replaced {
		s.posts = append(s.posts, post)
	}
	s.hasData = true
	s.mu.Unlock()

	s.ledger.RecordItemFetch(post.ID, post.UpdatedAt)
}

// InvalidateAll clears the collection and the ledger.
func (s *MemoryStore) InvalidateAll() {
	s.mu.Lock()
	s.posts = nil
	s.hasData = false
	s.mu.Unlock()

	s.ledger.Reset()
}

// IsCollectionStale consults the ledger for the collection marker.
func (s *MemoryStore) IsCollectionStale(currentModifiedAt string) bool {
	return s.ledger.IsCollectionStale(currentModifiedAt)
}

// IsItemStale consults the ledger for a single item's marker.
func (s *MemoryStore) IsItemStale(itemID, currentModifiedAt string) bool {
	return s.ledger.IsItemStale(itemID, currentModifiedAt)
}

// LedgerSnapshot returns a copy of the ledger state.
func (s *MemoryStore) LedgerSnapshot() ledger.Snapshot {
	return s.ledger.Snapshot()
}

// Status reports cache state for introspection.
func (s *MemoryStore) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{
		HasData:     s.hasData,
		LastUpdated: s.ledger.LastUpdated(),
		PostCount:   len(s.posts),
		BackingMode: ModeMemory,
	}
}

// snapshot captures the full store state for persistence.
func (s *MemoryStore) snapshot() *Snapshot {
	s.mu.RLock()
	posts := make([]models.BlogPost, len(s.posts))
	copy(posts, s.posts)
	s.mu.RUnlock()

	return &Snapshot{Posts: posts, Metadata: s.ledger.Snapshot()}
}

// restore replaces the store state from a persisted snapshot.
func (s *MemoryStore) restore(snap *Snapshot) {
	s.mu.Lock()
	s.posts = make([]models.BlogPost, len(snap.Posts))
	copy(s.posts, snap.Posts)
	s.hasData = len(snap.Posts) > 0
	s.mu.Unlock()

	s.ledger.Restore(snap.Metadata)
}
