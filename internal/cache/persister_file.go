package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jonesrussell/notion-cache/internal/ledger"
	"github.com/jonesrussell/notion-cache/internal/models"
)

const (
	postsFileName    = "posts.json"
	metadataFileName = "metadata.json"

	cacheDirPerm  = 0o755
	cacheFilePerm = 0o644
)

// postsFile is the on-disk layout of the posts artifact. The ledger is
// embedded alongside the posts and also written separately so either
// artifact can be inspected (or deleted) on its own.
type postsFile struct {
	Posts    []models.BlogPost `json:"posts"`
	Metadata ledger.Snapshot   `json:"metadata"`
}

// FilePersister stores cache snapshots as two indented JSON files in a
// local directory: posts.json and metadata.json. Deleting the directory
// forces a cold cache.
type FilePersister struct {
	dir string
}

// NewFilePersister creates the cache directory if needed.
func NewFilePersister(dir string) (*FilePersister, error) {
	if err := os.MkdirAll(dir, cacheDirPerm); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &FilePersister{dir: dir}, nil
}

// Mode names the backing mode.
func (p *FilePersister) Mode() string { return ModeFile }

// Load reads the persisted snapshot. Returns nil when no snapshot exists.
func (p *FilePersister) Load(_ context.Context) (*Snapshot, error) {
	data, err := os.ReadFile(filepath.Join(p.dir, postsFileName))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read posts file: %w", err)
	}

	var file postsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse posts file: %w", err)
	}

	return &Snapshot{Posts: file.Posts, Metadata: file.Metadata}, nil
}

// Save writes both artifacts, replacing any previous snapshot. Writes go
// through a temp file and rename so a crash cannot leave a torn file.
func (p *FilePersister) Save(_ context.Context, snap *Snapshot) error {
	postsData, err := json.MarshalIndent(postsFile{Posts: snap.Posts, Metadata: snap.Metadata}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal posts: %w", err)
	}
	metaData, err := json.MarshalIndent(snap.Metadata, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	if err := p.writeFile(postsFileName, postsData); err != nil {
		return err
	}
	return p.writeFile(metadataFileName, metaData)
}

// Clear removes both artifacts. Missing files are not an error.
func (p *FilePersister) Clear(_ context.Context) error {
	for _, name := range []string{postsFileName, metadataFileName} {
		if err := os.Remove(filepath.Join(p.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", name, err)
		}
	}
	return nil
}

func (p *FilePersister) writeFile(name string, data []byte) error {
	path := filepath.Join(p.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, cacheFilePerm); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}
