package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/Moseh-25-sudo/alx-files-manager/pkg/filesmanager"
)

type blob struct {
	data      []byte
	updatedAt time.Time
}

// Backend is an in-memory implementation of the filesmanager.ContentStore interface
type Backend struct {
	mu    sync.RWMutex
	blobs map[string]blob
}

// New creates a new in-memory storage backend
func New() *Backend {
	return &Backend{
		blobs: make(map[string]blob),
	}
}

// GetBlobMeta retrieves metadata for a blob in memory
func (b *Backend) GetBlobMeta(ctx context.Context, key string) (*filesmanager.BlobMeta, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	stored, exists := b.blobs[key]
	if !exists {
		return nil, fmt.Errorf("%w: %s", filesmanager.ErrBlobNotFound, key)
	}

	return &filesmanager.BlobMeta{
		Key:       key,
		Size:      int64(len(stored.data)),
		UpdatedAt: stored.updatedAt,
	}, nil
}

// Upload stores a copy of the reader's bytes
func (b *Backend) Upload(ctx context.Context, key string, reader io.Reader) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.blobs[key] = blob{data: data, updatedAt: time.Now().UTC()}
	return nil
}

// Download returns a reader over a snapshot of the blob
func (b *Backend) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	stored, exists := b.blobs[key]
	if !exists {
		return nil, fmt.Errorf("%w: %s", filesmanager.ErrBlobNotFound, key)
	}

	return io.NopCloser(bytes.NewReader(stored.data)), nil
}

// Delete deletes content
func (b *Backend) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.blobs[key]; !exists {
		return fmt.Errorf("%w: %s", filesmanager.ErrBlobNotFound, key)
	}

	delete(b.blobs, key)
	return nil
}

// Len returns the number of stored blobs
func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.blobs)
}

var _ filesmanager.ContentStore = (*Backend)(nil)
