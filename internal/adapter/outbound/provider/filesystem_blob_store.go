// Package provider holds the black-box pipeline providers: blob storage,
// parsing, chunking and embedding. The built-in implementations are local
// and deterministic; hosted providers plug in behind the same ports.
package provider

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"docingest/internal/port/outbound"
)

var _ outbound.BlobStore = (*FilesystemBlobStore)(nil)

// ErrBlobNotFound indicates the storage path resolves to no stored blob.
var ErrBlobNotFound = errors.New("blob not found")

// FilesystemBlobStore serves raw document bytes from a directory tree.
// Storage paths are relative to the root; the store refuses paths that
// escape it.
type FilesystemBlobStore struct {
	root string
}

// NewFilesystemBlobStore creates a blob store rooted at dir.
func NewFilesystemBlobStore(dir string) (*FilesystemBlobStore, error) {
	if dir == "" {
		return nil, errors.New("blob store root cannot be empty")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve blob store root: %w", err)
	}
	return &FilesystemBlobStore{root: abs}, nil
}

// Fetch reads the blob at storagePath.
func (s *FilesystemBlobStore) Fetch(ctx context.Context, storagePath string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resolved, err := s.resolve(storagePath)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrBlobNotFound, storagePath)
		}
		return nil, fmt.Errorf("failed to read blob %s: %w", storagePath, err)
	}
	return data, nil
}

func (s *FilesystemBlobStore) resolve(storagePath string) (string, error) {
	if storagePath == "" {
		return "", errors.New("storage path cannot be empty")
	}
	cleaned := filepath.Clean(storagePath)
	if filepath.IsAbs(cleaned) || strings.HasPrefix(cleaned, "..") {
		return "", fmt.Errorf("storage path escapes blob root: %s", storagePath)
	}
	return filepath.Join(s.root, cleaned), nil
}
