package storage

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrUnsupportedType is returned for uploads that do not sniff as an image.
	ErrUnsupportedType = errors.New("upload a valid image")
	// ErrTooLarge is returned for uploads above the configured size limit.
	ErrTooLarge = errors.New("image is too large")
	// ErrKeyExists is returned by Put when the key already holds an object.
	ErrKeyExists = errors.New("storage key already exists")
)

// Service stores opaque objects by key.
type Service interface {
	// Put never overwrites: a taken key fails with ErrKeyExists.
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	// URL resolves a key into something a browser can load.
	URL(ctx context.Context, key string) (string, error)
}
