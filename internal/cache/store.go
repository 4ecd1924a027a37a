// Package cache implements the post cache: a key-value store of
// materialized posts plus the freshness ledger, with two backing modes.
//
// The ephemeral store lives only for the current process; the durable
// store additionally snapshots its state through a SnapshotPersister.
// The mode is chosen once at construction and never re-evaluated.
package cache

import (
	"context"
	"time"

	"github.com/jonesrussell/notion-cache/internal/ledger"
	"github.com/jonesrussell/notion-cache/internal/models"
)

// Backing mode names reported by Status.
const (
	ModeMemory = "memory"
	ModeFile   = "file"
	ModeRedis  = "redis"
)

// Status describes the cache state for introspection. No side effects.
type Status struct {
	HasData     bool      `json:"hasData"`
	LastUpdated time.Time `json:"lastUpdated"`
	PostCount   int       `json:"postCount"`
	BackingMode string    `json:"backingMode"`
}

// Store is the cache of published posts plus the freshness ledger.
// The store exclusively owns both; only the reconciliation service may
// call the mutating methods.
type Store interface {
	// GetAll returns the full cached collection, or ok=false when no
	// collection has been cached. Never partially populated.
	GetAll() ([]models.BlogPost, bool)

	// GetBySlug looks a post up by slug within the cached collection.
	GetBySlug(slug string) (models.BlogPost, bool)

	// PutAll atomically replaces the cached collection and records the
	// collection fetch in the ledger.
	PutAll(posts []models.BlogPost, collectionModifiedAt string)

	// Upsert replaces the post sharing the given post's ID, or appends
	// it, and records the item fetch in the ledger using the post's own
	// UpdatedAt as the modification marker.
	Upsert(post models.BlogPost)

	// InvalidateAll clears the collection and the ledger.
	InvalidateAll()

	// IsCollectionStale consults the ledger for the collection marker.
	IsCollectionStale(currentModifiedAt string) bool

	// IsItemStale consults the ledger for a single item's marker.
	IsItemStale(itemID, currentModifiedAt string) bool

	// LedgerSnapshot returns a copy of the ledger state.
	LedgerSnapshot() ledger.Snapshot

	// Status reports cache state for the inspection endpoint.
	Status() Status
}

// Snapshot is the persisted form of the cache: the full collection plus
// the ledger. Both artifacts are written as human-readable JSON so an
// operator can delete them externally to force a cold cache.
type Snapshot struct {
	Posts    []models.BlogPost `json:"posts"`
	Metadata ledger.Snapshot   `json:"metadata"`
}

// SnapshotPersister loads and saves cache snapshots for the durable
// backing mode. Implementations must tolerate absent state on Load.
type SnapshotPersister interface {
	// Load returns the previously persisted snapshot, or nil when none
	// exists.
	Load(ctx context.Context) (*Snapshot, error)

	// Save persists the full snapshot, replacing any previous one.
	Save(ctx context.Context, snap *Snapshot) error

	// Clear removes any persisted snapshot.
	Clear(ctx context.Context) error

	// Mode names the backing mode for Status reporting.
	Mode() string
}
