package offline

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestService returns a service over a fresh temp-dir database.
func newTestService(t *testing.T) *Service {
	t.Helper()

	svc := NewService(filepath.Join(t.TempDir(), "cache.db"), testLogger(t))
	t.Cleanup(svc.Close)

	return svc
}

// newUnsupportedService returns a service whose store can never open.
func newUnsupportedService(t *testing.T) *Service {
	t.Helper()

	svc := NewService("/proc/nonexistent/cache.db", testLogger(t))
	t.Cleanup(svc.Close)

	return svc
}

func TestServiceSupported(t *testing.T) {
	t.Run("supported environment", func(t *testing.T) {
		assert.True(t, newTestService(t).Supported())
	})

	t.Run("unsupported environment", func(t *testing.T) {
		assert.False(t, newUnsupportedService(t).Supported())
	})
}

// Every operation must resolve without error when storage is unavailable:
// writes silently dropped, reads empty, counts zero.
func TestServiceUnsupportedSafety(t *testing.T) {
	svc := newUnsupportedService(t)
	ctx := context.Background()

	require.NoError(t, svc.CacheUsers(ctx, []CachedUser{{ID: "u1", Name: "Alice"}}))
	require.NoError(t, svc.CacheShiftsForUser(ctx, "u1", []ShiftEvent{
		makeTestShift(1, "u1", "2026-03-01", ShiftWork),
	}))
	require.NoError(t, svc.AddPendingRequest(ctx, makePendingCreate("p1", "u1", -1, 1000)))
	require.NoError(t, svc.RemovePendingRequest(ctx, "p1"))
	require.NoError(t, svc.ClearPendingRequests(ctx, "u1"))

	users, err := svc.CachedUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)

	shifts, err := svc.CachedShiftsForUser(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, shifts)

	entries, err := svc.ListPendingRequests(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, entries)

	count, err := svc.CountPendingRequests(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, count)

	owners, err := svc.ListPendingUserIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, owners)

	rewritten, err := svc.ResolveOptimisticID(ctx, "u1", -1, 42)
	require.NoError(t, err)
	assert.Empty(t, rewritten)
}

// The full offline flow through the public facade: cache, enqueue, resolve,
// retire.
func TestServiceOfflineFlow(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.CacheUsers(ctx, []CachedUser{
		{ID: "u1", Name: "Alice", Email: "alice@example.com"},
	}))

	require.NoError(t, svc.AddPendingRequest(ctx, makePendingCreate("p1", "u1", -1, 1000)))

	patch := PendingShiftRequest{
		ID:           "p2",
		UserID:       "u1",
		Method:       MethodPatch,
		URL:          "/api/shifts/-1",
		Body:         &ShiftPayload{UserID: "u1", Date: "2026-03-01", Type: ShiftRest},
		OptimisticID: Int64Ptr(-1),
		CreatedAt:    2000,
	}
	require.NoError(t, svc.AddPendingRequest(ctx, patch))

	rewritten, err := svc.ResolveOptimisticID(ctx, "u1", -1, 42)
	require.NoError(t, err)
	require.Len(t, rewritten, 1)
	assert.Equal(t, "/api/shifts/42", rewritten[0].URL)

	require.NoError(t, svc.RemovePendingRequest(ctx, "p1"))

	count, err := svc.CountPendingRequests(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
