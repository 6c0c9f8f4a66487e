package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FileSystemService keeps objects as files below root. Keys map to relative
// paths; URL joins them onto baseURL.
type FileSystemService struct {
	root    string
	baseURL string
}

func NewFileSystemService(root, baseURL string) (*FileSystemService, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &FileSystemService{root: root, baseURL: baseURL}, nil
}

// Root is the directory served under the base URL.
func (s *FileSystemService) Root() string {
	return s.root
}

func (s *FileSystemService) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	dest, err := s.path(key)
	if err != nil {
		return err
	}
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	written, err := io.Copy(tmp, body)
	if err != nil {
		tmp.Close()
		return fmt.Errorf("write data: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if size >= 0 && written != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, written)
	}
	// link fails on an existing dest, unlike rename
	if err := os.Link(tmpPath, dest); err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("%s: %w", key, ErrKeyExists)
		}
		return fmt.Errorf("link temp file: %w", err)
	}
	return nil
}

// Delete is a no-op for missing files.
func (s *FileSystemService) Delete(ctx context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

func (s *FileSystemService) URL(ctx context.Context, key string) (string, error) {
	if _, err := s.path(key); err != nil {
		return "", err
	}
	return s.baseURL + key, nil
}

func (s *FileSystemService) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(s.root, clean), nil
}

var _ Service = (*FileSystemService)(nil)
