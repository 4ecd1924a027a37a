package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyLedgerReportsStale(t *testing.T) {
	l := New()

	assert.True(t, l.IsCollectionStale("2025-01-01T00:00:00.000Z"))
	assert.True(t, l.IsItemStale("page-1", "2025-01-01T00:00:00.000Z"))
}

func TestCollectionEqualityTrigger(t *testing.T) {
	l := New()
	l.RecordCollectionFetch("2025-01-01T00:00:00.000Z")

	assert.False(t, l.IsCollectionStale("2025-01-01T00:00:00.000Z"))

	// Any differing marker is stale, including one that moves backwards.
	assert.True(t, l.IsCollectionStale("2025-02-01T00:00:00.000Z"))
	assert.True(t, l.IsCollectionStale("2024-12-01T00:00:00.000Z"))

	// A previously seen value still counts as changed once superseded.
	l.RecordCollectionFetch("2025-02-01T00:00:00.000Z")
	assert.True(t, l.IsCollectionStale("2025-01-01T00:00:00.000Z"))
}

func TestItemStaleness(t *testing.T) {
	l := New()
	l.RecordItemFetch("page-1", "2025-01-01T00:00:00.000Z")

	assert.False(t, l.IsItemStale("page-1", "2025-01-01T00:00:00.000Z"))
	assert.True(t, l.IsItemStale("page-1", "2025-01-02T00:00:00.000Z"))
	assert.True(t, l.IsItemStale("page-2", "2025-01-01T00:00:00.000Z"))
}

func TestRecordUpdatesLastUpdated(t *testing.T) {
	l := New()
	require.True(t, l.LastUpdated().IsZero())

	l.RecordCollectionFetch("2025-01-01T00:00:00.000Z")
	first := l.LastUpdated()
	assert.False(t, first.IsZero())

	l.RecordItemFetch("page-1", "2025-01-01T00:00:00.000Z")
	assert.False(t, l.LastUpdated().Before(first))
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	l := New()
	l.RecordCollectionFetch("2025-01-01T00:00:00.000Z")
	l.RecordItemFetch("page-1", "2025-01-02T00:00:00.000Z")

	snap := l.Snapshot()

	restored := New()
	restored.Restore(snap)

	assert.False(t, restored.IsCollectionStale("2025-01-01T00:00:00.000Z"))
	assert.False(t, restored.IsItemStale("page-1", "2025-01-02T00:00:00.000Z"))
	assert.True(t, restored.IsItemStale("page-2", "anything"))
}

func TestSnapshotIsACopy(t *testing.T) {
	l := New()
	l.RecordItemFetch("page-1", "a")

	snap := l.Snapshot()
	snap.PerItemModified["page-1"] = "mutated"

	assert.False(t, l.IsItemStale("page-1", "a"))
}

func TestReset(t *testing.T) {
	l := New()
	l.RecordCollectionFetch("2025-01-01T00:00:00.000Z")
	l.RecordItemFetch("page-1", "2025-01-01T00:00:00.000Z")

	l.Reset()

	assert.True(t, l.IsCollectionStale("2025-01-01T00:00:00.000Z"))
	assert.True(t, l.IsItemStale("page-1", "2025-01-01T00:00:00.000Z"))
	assert.True(t, l.LastUpdated().IsZero())
}
