// Package ledger tracks last-known external modification timestamps for
// the cached collection and for individual posts. The ledger is the basis
// for staleness decisions: a cached value is stale when the source's
// current marker differs from the recorded one.
//
// Staleness is triggered by inequality, not ordering. Any externally
// reported change, including a marker that moves backwards, counts as
// "changed". Markers are opaque strings and are never parsed.
package ledger

import (
	"sync"
	"time"
)

// Snapshot is a point-in-time copy of the ledger state, safe to serialize
// or hand to callers.
type Snapshot struct {
	LastUpdated        time.Time         `json:"lastUpdated"`
	CollectionModified string            `json:"databaseLastModified"`
	PerItemModified    map[string]string `json:"postsLastModified"`
}

// Ledger records modification markers observed during fetches. It performs
// no I/O; persistence is the cache store's concern.
type Ledger struct {
	mu            sync.RWMutex
	lastUpdated   time.Time
	collection    string
	hasCollection bool
	perItem       map[string]string
}

// New returns an empty ledger. An empty ledger reports everything stale.
func New() *Ledger {
	return &Ledger{perItem: make(map[string]string)}
}

// RecordCollectionFetch records the collection-level modification marker
// observed during a full fetch.
func (l *Ledger) RecordCollectionFetch(collectionModifiedAt string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.collection = collectionModifiedAt
	l.hasCollection = true
	l.lastUpdated = time.Now()
}

// RecordItemFetch upserts the modification marker for a single item.
// Only called when the item was actually (re)fetched from the source.
func (l *Ledger) RecordItemFetch(itemID, modifiedAt string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.perItem[itemID] = modifiedAt
	l.lastUpdated = time.Now()
}

// IsCollectionStale reports whether the cached collection is stale given
// the source's current collection marker. True when no collection fetch
// has been recorded, or when the markers differ.
func (l *Ledger) IsCollectionStale(currentModifiedAt string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return !l.hasCollection || l.collection != currentModifiedAt
}

// IsItemStale reports whether a cached item is stale given the source's
// current marker for it. True when the item is unknown to the ledger, or
// when the markers differ.
func (l *Ledger) IsItemStale(itemID, currentModifiedAt string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	recorded, ok := l.perItem[itemID]
	return !ok || recorded != currentModifiedAt
}

// Reset clears all recorded markers.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.collection = ""
	l.hasCollection = false
	l.perItem = make(map[string]string)
	l.lastUpdated = time.Time{}
}

// Snapshot returns a copy of the current ledger state.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	perItem := make(map[string]string, len(l.perItem))
	for id, marker := range l.perItem {
		perItem[id] = marker
	}
	return Snapshot{
		LastUpdated:        l.lastUpdated,
		CollectionModified: l.collection,
		PerItemModified:    perItem,
	}
}

// Restore replaces the ledger state from a previously persisted snapshot.
// Used by the durable cache store when warming from disk.
func (l *Ledger) Restore(snap Snapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastUpdated = snap.LastUpdated
	l.collection = snap.CollectionModified
	l.hasCollection = snap.CollectionModified != ""
	l.perItem = make(map[string]string, len(snap.PerItemModified))
	for id, marker := range snap.PerItemModified {
		l.perItem[id] = marker
	}
}

// LastUpdated returns when the ledger itself last changed.
func (l *Ledger) LastUpdated() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lastUpdated
}
