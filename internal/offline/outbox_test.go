package offline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makePendingCreate builds a POST entry for an optimistically created shift.
func makePendingCreate(id, userID string, optimisticID, createdAt int64) PendingShiftRequest {
	return PendingShiftRequest{
		ID:     id,
		UserID: userID,
		Method: MethodPost,
		URL:    "/api/shifts",
		Body: &ShiftPayload{
			UserID: userID,
			Date:   "2026-03-01",
			Type:   ShiftWork,
			Start:  "08:00",
			End:    "16:00",
		},
		OptimisticID: Int64Ptr(optimisticID),
		CreatedAt:    createdAt,
	}
}

func TestAddPendingRequest(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("insert and read back", func(t *testing.T) {
		req := makePendingCreate("p1", "u1", -1, 1000)
		require.NoError(t, store.AddPendingRequest(ctx, req))

		got, err := store.ListPendingRequests(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, req, got[0])
	})

	t.Run("replaces by id", func(t *testing.T) {
		req := makePendingCreate("p1", "u1", -1, 1000)
		req.URL = "/api/v2/shifts"
		require.NoError(t, store.AddPendingRequest(ctx, req))

		got, err := store.ListPendingRequests(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "/api/v2/shifts", got[0].URL)
	})

	t.Run("delete entry has no body", func(t *testing.T) {
		req := PendingShiftRequest{
			ID:        "p2",
			UserID:    "u1",
			Method:    MethodDelete,
			URL:       "/api/shifts/42",
			ShiftID:   Int64Ptr(42),
			CreatedAt: 2000,
		}
		require.NoError(t, store.AddPendingRequest(ctx, req))

		got, err := store.ListPendingRequests(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Nil(t, got[1].Body)
		assert.Equal(t, Int64Ptr(42), got[1].ShiftID)
	})
}

func TestListPendingRequestsOrdering(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Insert out of creation order; listing must sort by created_at.
	require.NoError(t, store.AddPendingRequest(ctx, makePendingCreate("p3", "u1", -3, 3000)))
	require.NoError(t, store.AddPendingRequest(ctx, makePendingCreate("p1", "u1", -1, 1000)))
	require.NoError(t, store.AddPendingRequest(ctx, makePendingCreate("p2", "u1", -2, 2000)))

	got, err := store.ListPendingRequests(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"p1", "p2", "p3"}, []string{got[0].ID, got[1].ID, got[2].ID})
}

func TestRemovePendingRequest(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddPendingRequest(ctx, makePendingCreate("p1", "u1", -1, 1000)))

	t.Run("removes entry", func(t *testing.T) {
		require.NoError(t, store.RemovePendingRequest(ctx, "p1"))

		count, err := store.CountPendingRequests(ctx, "u1")
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("second removal is a no-op", func(t *testing.T) {
		require.NoError(t, store.RemovePendingRequest(ctx, "p1"))
	})
}

func TestCountPendingRequests(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddPendingRequest(ctx, makePendingCreate("p1", "u1", -1, 1000)))
	require.NoError(t, store.AddPendingRequest(ctx, makePendingCreate("p2", "u1", -2, 2000)))
	require.NoError(t, store.AddPendingRequest(ctx, makePendingCreate("p3", "u2", -1, 1500)))

	count, err := store.CountPendingRequests(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = store.CountPendingRequests(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestClearPendingRequests(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddPendingRequest(ctx, makePendingCreate("p1", "u1", -1, 1000)))
	require.NoError(t, store.AddPendingRequest(ctx, makePendingCreate("p2", "u2", -1, 2000)))

	require.NoError(t, store.ClearPendingRequests(ctx, "u1"))

	count, err := store.CountPendingRequests(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, count)

	// Other users' queues are untouched.
	count, err = store.CountPendingRequests(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestListPendingUserIDs(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("empty queue", func(t *testing.T) {
		ids, err := store.ListPendingUserIDs(ctx)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("distinct owners", func(t *testing.T) {
		require.NoError(t, store.AddPendingRequest(ctx, makePendingCreate("p1", "u1", -1, 1000)))
		require.NoError(t, store.AddPendingRequest(ctx, makePendingCreate("p2", "u1", -2, 2000)))
		require.NoError(t, store.AddPendingRequest(ctx, makePendingCreate("p3", "u2", -1, 3000)))

		ids, err := store.ListPendingUserIDs(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"u1", "u2"}, ids)
	})
}
