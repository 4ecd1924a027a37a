package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/notion-cache/internal/logger"
	"github.com/jonesrussell/notion-cache/internal/models"
)

func TestDurableStorePersistsAndReloads(t *testing.T) {
	dir := t.TempDir()
	persister, err := NewFilePersister(dir)
	require.NoError(t, err)

	s := NewDurableStore(persister, logger.NewNopLogger())
	s.PutAll([]models.BlogPost{testPost("p1", "hello-world", "t1")}, "m1")
	s.drain()

	// Both artifacts exist and are readable JSON.
	for _, name := range []string{"posts.json", "metadata.json"} {
		data, readErr := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, readErr)
		assert.True(t, len(data) > 2)
	}

	// A fresh store constructed over the same directory warms from disk.
	reloaded := NewDurableStore(persister, logger.NewNopLogger())
	posts, ok := reloaded.GetAll()
	require.True(t, ok)
	require.Len(t, posts, 1)
	assert.Equal(t, "hello-world", posts[0].Slug)
	assert.False(t, reloaded.IsCollectionStale("m1"))
	assert.False(t, reloaded.IsItemStale("p1", "t1"))
	assert.Equal(t, ModeFile, reloaded.Status().BackingMode)
}

func TestDurableStoreInvalidateClearsDisk(t *testing.T) {
	dir := t.TempDir()
	persister, err := NewFilePersister(dir)
	require.NoError(t, err)

	s := NewDurableStore(persister, logger.NewNopLogger())
	s.PutAll([]models.BlogPost{testPost("p1", "a", "t1")}, "m1")
	s.drain()

	s.InvalidateAll()
	s.drain()

	_, statErr := os.Stat(filepath.Join(dir, "posts.json"))
	assert.True(t, errors.Is(statErr, os.ErrNotExist))

	reloaded := NewDurableStore(persister, logger.NewNopLogger())
	_, ok := reloaded.GetAll()
	assert.False(t, ok)
}

func TestDurableStoreStartsColdOnCorruptSnapshot(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "posts.json"), []byte("{not json"), 0o644))

	persister, err := NewFilePersister(dir)
	require.NoError(t, err)

	s := NewDurableStore(persister, logger.NewNopLogger())
	_, ok := s.GetAll()
	assert.False(t, ok)
}

// failingPersister always errors; the store must remain authoritative.
type failingPersister struct{}

func (failingPersister) Load(context.Context) (*Snapshot, error)  { return nil, errors.New("boom") }
func (failingPersister) Save(context.Context, *Snapshot) error    { return errors.New("boom") }
func (failingPersister) Clear(context.Context) error              { return errors.New("boom") }
func (failingPersister) Mode() string                             { return "failing" }

func TestDurableStoreSwallowsPersistenceErrors(t *testing.T) {
	s := NewDurableStore(failingPersister{}, logger.NewNopLogger())

	s.PutAll([]models.BlogPost{testPost("p1", "hello-world", "t1")}, "m1")
	s.drain()

	// In-memory state stays correct despite every write failing.
	post, ok := s.GetBySlug("hello-world")
	require.True(t, ok)
	assert.Equal(t, "p1", post.ID)

	s.InvalidateAll()
	s.drain()
	_, ok = s.GetAll()
	assert.False(t, ok)
}
