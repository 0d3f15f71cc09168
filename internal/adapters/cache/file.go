// Package cache keeps the CLI's local copy of the quote collection.
package cache

import (
	"context"

	"github.com/jsamuelsen/classquotes/internal/adapters/storage/jsonfile"
	"github.com/jsamuelsen/classquotes/internal/domain"
)

// FileCache stores the last known quote snapshot in a JSON document using
// the same layout as the file storage backend.
type FileCache struct {
	path string
}

// NewFileCache returns a cache at path. Nothing is touched until Save.
func NewFileCache(path string) *FileCache {
	return &FileCache{path: path}
}

// Path returns the snapshot location.
func (c *FileCache) Path() string {
	return c.path
}

// Load returns the cached snapshot; a missing file is an empty snapshot.
func (c *FileCache) Load(ctx context.Context) ([]domain.Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	quotes, _, err := jsonfile.ReadSnapshot(c.path)
	if err != nil {
		return nil, domain.NewStorageError("load cache", err)
	}

	if quotes == nil {
		quotes = []domain.Quote{}
	}

	return quotes, nil
}

// Save atomically replaces the snapshot.
func (c *FileCache) Save(ctx context.Context, quotes []domain.Quote) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := jsonfile.WriteSnapshot(c.path, quotes); err != nil {
		return domain.NewStorageError("save cache", err)
	}

	return nil
}
