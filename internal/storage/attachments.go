package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// KeyPrefix is the namespace every post image lives under.
const KeyPrefix = "posts/"

const (
	sniffLen          = 512
	maxSuffixAttempts = 3
)

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

var imageExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

// Attachments validates uploaded images and writes them to a Service.
type Attachments struct {
	store    Service
	maxBytes int64
}

func NewAttachments(store Service, maxBytes int64) *Attachments {
	return &Attachments{store: store, maxBytes: maxBytes}
}

// Save stores body under posts/ and returns the key. A taken name gets a
// random suffix; the store decides atomically whether a key is free.
func (a *Attachments) Save(ctx context.Context, filename string, body io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(body, a.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > a.maxBytes {
		return "", fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, a.maxBytes)
	}

	head := data
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	contentType := http.DetectContentType(head)
	if !strings.HasPrefix(contentType, "image/") {
		return "", ErrUnsupportedType
	}

	name := cleanName(filename, contentType)
	key := KeyPrefix + name
	for attempt := 0; ; attempt++ {
		err := a.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType)
		if err == nil {
			return key, nil
		}
		if !errors.Is(err, ErrKeyExists) || attempt == maxSuffixAttempts {
			return "", fmt.Errorf("store %s: %w", key, err)
		}
		ext := path.Ext(name)
		key = KeyPrefix + strings.TrimSuffix(name, ext) + "_" + uuid.NewString()[:8] + ext
	}
}

func (a *Attachments) Delete(ctx context.Context, key string) error {
	if !strings.HasPrefix(key, KeyPrefix) {
		return fmt.Errorf("refusing to delete %q outside %s", key, KeyPrefix)
	}
	return a.store.Delete(ctx, key)
}

// URL returns "" for an empty key.
func (a *Attachments) URL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}
	return a.store.URL(ctx, key)
}

func cleanName(filename, contentType string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	base = strings.Trim(unsafeName.ReplaceAllString(base, "_"), "._")
	if base == "" {
		base = uuid.NewString()
	}
	if path.Ext(base) == "" {
		base += imageExtensions[contentType]
	}
	return base
}
