package offline

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleAcquire(t *testing.T) {
	t.Run("memoized open returns the same store", func(t *testing.T) {
		h := NewHandle(filepath.Join(t.TempDir(), "cache.db"), testLogger(t))
		t.Cleanup(h.Close)

		first, ok := h.Acquire()
		require.True(t, ok)

		second, ok := h.Acquire()
		require.True(t, ok)
		assert.Same(t, first, second)
	})

	t.Run("concurrent callers share one open", func(t *testing.T) {
		h := NewHandle(filepath.Join(t.TempDir(), "cache.db"), testLogger(t))
		t.Cleanup(h.Close)

		const callers = 8

		stores := make([]*Store, callers)

		var wg sync.WaitGroup

		for i := 0; i < callers; i++ {
			i := i

			wg.Add(1)

			go func() {
				defer wg.Done()

				store, ok := h.Acquire()
				assert.True(t, ok)
				stores[i] = store
			}()
		}

		wg.Wait()

		for i := 1; i < callers; i++ {
			assert.Same(t, stores[0], stores[i])
		}
	})

	t.Run("unwritable path degrades to unsupported", func(t *testing.T) {
		h := NewHandle("/proc/nonexistent/cache.db", testLogger(t))
		t.Cleanup(h.Close)

		store, ok := h.Acquire()
		assert.False(t, ok)
		assert.Nil(t, store)
		assert.False(t, h.Supported())

		// Unsupported is sticky.
		_, ok = h.Acquire()
		assert.False(t, ok)
	})
}

func TestHandleInvalidate(t *testing.T) {
	dir := t.TempDir()
	h := NewHandle(filepath.Join(dir, "cache.db"), testLogger(t))
	t.Cleanup(h.Close)
	ctx := context.Background()

	first, ok := h.Acquire()
	require.True(t, ok)

	require.NoError(t, first.CacheUsers(ctx, []CachedUser{
		{ID: "u1", Name: "Alice", Email: "alice@example.com"},
	}))

	h.Invalidate()

	// Next acquire reopens transparently against the same file.
	second, ok := h.Acquire()
	require.True(t, ok)
	assert.NotSame(t, first, second)

	users, err := second.CachedUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "u1", users[0].ID)
}

func TestHandleWatchesExternalChanges(t *testing.T) {
	ctx := context.Background()

	t.Run("removed database file triggers reopen", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "cache.db")
		h := NewHandle(path, testLogger(t))
		t.Cleanup(h.Close)

		first, ok := h.Acquire()
		require.True(t, ok)

		require.NoError(t, os.Remove(path))

		// The watcher invalidates asynchronously; poll until Acquire hands
		// out a fresh store.
		require.Eventually(t, func() bool {
			store, ok := h.Acquire()
			return ok && store != first
		}, 5*time.Second, 20*time.Millisecond)

		store, ok := h.Acquire()
		require.True(t, ok)

		users, err := store.CachedUsers(ctx)
		require.NoError(t, err)
		assert.Empty(t, users)
	})

	t.Run("atomic replace triggers reopen against the new file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "cache.db")
		h := NewHandle(path, testLogger(t))
		t.Cleanup(h.Close)

		first, ok := h.Acquire()
		require.True(t, ok)

		require.NoError(t, first.CacheUsers(ctx, []CachedUser{
			{ID: "old", Name: "Old", Email: "old@example.com"},
		}))

		// Build a replacement database off to the side, then rename it over
		// the live path the way another process would swap in a fresh copy.
		replacementPath := filepath.Join(dir, "replacement.db")
		replacement, err := NewStore(replacementPath, testLogger(t))
		require.NoError(t, err)
		require.NoError(t, replacement.CacheUsers(ctx, []CachedUser{
			{ID: "new", Name: "New", Email: "new@example.com"},
		}))
		require.NoError(t, replacement.Close())

		require.NoError(t, os.Rename(replacementPath, path))

		require.Eventually(t, func() bool {
			store, ok := h.Acquire()
			if !ok || store == first {
				return false
			}

			users, err := store.CachedUsers(ctx)

			return err == nil && len(users) == 1 && users[0].ID == "new"
		}, 5*time.Second, 20*time.Millisecond)
	})
}
