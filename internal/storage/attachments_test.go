package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var smallGIF = []byte("GIF89a\x01\x00\x01\x00\x80\x00\x00\x00\x00\x00\xff\xff\xff!\xf9\x04\x00\x00\x00\x00\x00,\x00\x00\x00\x00\x01\x00\x01\x00\x00\x02\x02L\x01\x00;")

type mockService struct {
	mock.Mock
}

func (m *mockService) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	data, _ := io.ReadAll(body)
	args := m.Called(ctx, key, data, size, contentType)
	return args.Error(0)
}

func (m *mockService) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *mockService) URL(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func TestAttachmentsSave(t *testing.T) {
	ctx := context.Background()

	t.Run("stores image under posts prefix", func(t *testing.T) {
		store := &mockService{}
		store.On("Put", ctx, "posts/small.gif", smallGIF, int64(len(smallGIF)), "image/gif").Return(nil)

		key, err := NewAttachments(store, 1024).Save(ctx, "small.gif", bytes.NewReader(smallGIF))
		require.NoError(t, err)
		assert.Equal(t, "posts/small.gif", key)
		store.AssertExpectations(t)
	})

	t.Run("taken name gets a suffix", func(t *testing.T) {
		store := &mockService{}
		store.On("Put", ctx, "posts/small.gif", smallGIF, int64(len(smallGIF)), "image/gif").Return(ErrKeyExists).Once()
		store.On("Put", ctx, mock.MatchedBy(func(k string) bool {
			return strings.HasPrefix(k, "posts/small_") && strings.HasSuffix(k, ".gif")
		}), smallGIF, int64(len(smallGIF)), "image/gif").Return(nil)

		key, err := NewAttachments(store, 1024).Save(ctx, "small.gif", bytes.NewReader(smallGIF))
		require.NoError(t, err)
		assert.NotEqual(t, "posts/small.gif", key)
		store.AssertExpectations(t)
	})

	t.Run("gives up after repeated collisions", func(t *testing.T) {
		store := &mockService{}
		store.On("Put", ctx, mock.Anything, smallGIF, int64(len(smallGIF)), "image/gif").Return(ErrKeyExists)

		_, err := NewAttachments(store, 1024).Save(ctx, "small.gif", bytes.NewReader(smallGIF))
		assert.ErrorIs(t, err, ErrKeyExists)
		store.AssertNumberOfCalls(t, "Put", maxSuffixAttempts+1)
	})

	t.Run("store failure is returned", func(t *testing.T) {
		store := &mockService{}
		store.On("Put", ctx, "posts/small.gif", smallGIF, int64(len(smallGIF)), "image/gif").Return(errors.New("disk full"))

		_, err := NewAttachments(store, 1024).Save(ctx, "small.gif", bytes.NewReader(smallGIF))
		assert.ErrorContains(t, err, "disk full")
		store.AssertNumberOfCalls(t, "Put", 1)
	})

	t.Run("rejects non image", func(t *testing.T) {
		store := &mockService{}
		_, err := NewAttachments(store, 1024).Save(ctx, "notes.txt", strings.NewReader("plain text"))
		assert.ErrorIs(t, err, ErrUnsupportedType)
		store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects oversize", func(t *testing.T) {
		store := &mockService{}
		_, err := NewAttachments(store, 10).Save(ctx, "small.gif", bytes.NewReader(smallGIF))
		assert.ErrorIs(t, err, ErrTooLarge)
		store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestCleanName(t *testing.T) {
	assert.Equal(t, "cat.gif", cleanName("../../etc/cat.gif", "image/gif"))
	assert.Equal(t, "my_cat.png", cleanName(`C:\photos\my cat.png`, "image/png"))
	assert.Equal(t, "photo.jpg", cleanName("photo", "image/jpeg"))
	assert.NotEmpty(t, cleanName("", "image/png"))
}

func TestAttachmentsDeleteStaysInPrefix(t *testing.T) {
	store := &mockService{}
	store.On("Delete", mock.Anything, "posts/a.gif").Return(nil)

	a := NewAttachments(store, 1024)
	require.NoError(t, a.Delete(context.Background(), "posts/a.gif"))
	assert.Error(t, a.Delete(context.Background(), "other/a.gif"))
	store.AssertExpectations(t)
}

func TestAttachmentsURLEmptyKey(t *testing.T) {
	store := &mockService{}
	url, err := NewAttachments(store, 1024).URL(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, url)
	store.AssertNotCalled(t, "URL", mock.Anything, mock.Anything)
}
