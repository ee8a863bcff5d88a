// Package storage defines the blob store capability the integrity service
// reads provenance documents from, plus a filesystem implementation used by
// the CLI and in development.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Store is the blob storage collaborator. Keys are slash-separated paths
// relative to the store root.
type Store interface {
	// Get returns the raw bytes stored at key.
	Get(ctx context.Context, key string) ([]byte, error)

	// Store copies the local file at localPath to key and returns the
	// stored blob's URL.
	Store(ctx context.Context, key, localPath string) (string, error)
}

// NotFoundError is returned when a key does not exist in the store.
type NotFoundError struct {
	Key string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("blob not found: %s", e.Key)
}

// FSStore is a Store backed by a directory tree.
type FSStore struct {
	dir string
}

// NewFSStore creates a filesystem store rooted at dir.
func NewFSStore(dir string) *FSStore {
	return &FSStore{dir: dir}
}

// Get reads the blob at key.
func (s *FSStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(s.dir, filepath.FromSlash(key)))
	if os.IsNotExist(err) {
		return nil, &NotFoundError{Key: key}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s: %w", key, err)
	}
	return data, nil
}

// Store copies localPath into the store at key.
func (s *FSStore) Store(ctx context.Context, key, localPath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	src, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer src.Close()

	dstPath := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create blob directory: %w", err)
	}

	dst, err := os.Create(dstPath)
	if err != nil {
		return "", fmt.Errorf("failed to create blob %s: %w", key, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to write blob %s: %w", key, err)
	}

	return "file://" + dstPath, nil
}
