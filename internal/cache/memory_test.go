package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryExpires(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(8, 50*time.Millisecond)

	require.NoError(t, m.Set(ctx, "page:anonymous:/", []byte("<html>")))
	v, ok, err := m.Get(ctx, "page:anonymous:/")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("<html>"), v)

	require.Eventually(t, func() bool {
		_, ok, _ := m.Get(ctx, "page:anonymous:/")
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestMemoryClear(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(8, time.Minute)

	require.NoError(t, m.Set(ctx, "a", []byte("1")))
	require.NoError(t, m.Set(ctx, "b", []byte("2")))
	_, ok, err := m.Get(ctx, "b")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, m.Clear(ctx))
	for _, key := range []string{"a", "b"} {
		_, ok, err := m.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, ok, key)
	}
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	s, err := New(ctx, Options{Driver: "memory", TTL: time.Second})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	_, err = New(ctx, Options{Driver: "memcached", TTL: time.Second})
	assert.Error(t, err)

	_, err = New(ctx, Options{Driver: "memory"})
	assert.Error(t, err)
}

func TestPageKey(t *testing.T) {
	assert.Equal(t, "page:anonymous:/?page=2", PageKey("", "/?page=2"))
	assert.Equal(t, "page:7:/", PageKey("7", "/"))
}
