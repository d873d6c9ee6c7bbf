package offline

import (
	"context"
	"log/slog"
)

// Service is the public face of the offline layer, consumed by the sync
// engine and the UI data hooks. It wraps a Handle and degrades every
// operation to a safe no-op when durable storage is unsupported: writes are
// silently dropped, reads return empty collections, counts return zero.
// Transaction failures on a working store still propagate to the caller,
// which treats them as "cache unchanged" and owns any retry policy.
type Service struct {
	handle *Handle
	logger *slog.Logger
}

// NewService returns a service over the database at dbPath. The database is
// opened lazily on first use.
func NewService(dbPath string, logger *slog.Logger) *Service {
	return &Service{
		handle: NewHandle(dbPath, logger),
		logger: logger,
	}
}

// Supported reports whether offline storage is available in this environment.
func (s *Service) Supported() bool {
	return s.handle.Supported()
}

// Close releases the underlying store.
func (s *Service) Close() {
	s.handle.Close()
}

// CacheUsers replaces the cached users collection. No-op when unsupported.
func (s *Service) CacheUsers(ctx context.Context, users []CachedUser) error {
	store, ok := s.handle.Acquire()
	if !ok {
		return nil
	}

	return store.CacheUsers(ctx, users)
}

// CachedUsers returns the cached users collection. Empty when unsupported.
func (s *Service) CachedUsers(ctx context.Context) ([]CachedUser, error) {
	store, ok := s.handle.Acquire()
	if !ok {
		return nil, nil
	}

	return store.CachedUsers(ctx)
}

// CacheShiftsForUser atomically replaces the cached shifts owned by userID.
// No-op when unsupported.
func (s *Service) CacheShiftsForUser(ctx context.Context, userID string, shifts []ShiftEvent) error {
	store, ok := s.handle.Acquire()
	if !ok {
		return nil
	}

	return store.CacheShiftsForUser(ctx, userID, shifts)
}

// CachedShiftsForUser returns the cached shifts owned by userID. Empty when
// unsupported.
func (s *Service) CachedShiftsForUser(ctx context.Context, userID string) ([]ShiftEvent, error) {
	store, ok := s.handle.Acquire()
	if !ok {
		return nil, nil
	}

	return store.CachedShiftsForUser(ctx, userID)
}

// AddPendingRequest durably enqueues a write request. No-op when unsupported.
func (s *Service) AddPendingRequest(ctx context.Context, req PendingShiftRequest) error {
	store, ok := s.handle.Acquire()
	if !ok {
		return nil
	}

	return store.AddPendingRequest(ctx, req)
}

// RemovePendingRequest deletes a queue entry after server confirmation.
func (s *Service) RemovePendingRequest(ctx context.Context, id string) error {
	store, ok := s.handle.Acquire()
	if !ok {
		return nil
	}

	return store.RemovePendingRequest(ctx, id)
}

// ListPendingRequests returns a user's queue in replay order. Empty when
// unsupported.
func (s *Service) ListPendingRequests(ctx context.Context, userID string) ([]PendingShiftRequest, error) {
	store, ok := s.handle.Acquire()
	if !ok {
		return nil, nil
	}

	return store.ListPendingRequests(ctx, userID)
}

// CountPendingRequests returns a user's queue length. Zero when unsupported.
func (s *Service) CountPendingRequests(ctx context.Context, userID string) (int, error) {
	store, ok := s.handle.Acquire()
	if !ok {
		return 0, nil
	}

	return store.CountPendingRequests(ctx, userID)
}

// ClearPendingRequests drops a user's queue. No-op when unsupported.
func (s *Service) ClearPendingRequests(ctx context.Context, userID string) error {
	store, ok := s.handle.Acquire()
	if !ok {
		return nil
	}

	return store.ClearPendingRequests(ctx, userID)
}

// ListPendingUserIDs returns the distinct owners of queued entries. Empty
// when unsupported.
func (s *Service) ListPendingUserIDs(ctx context.Context) ([]string, error) {
	store, ok := s.handle.Acquire()
	if !ok {
		return nil, nil
	}

	return store.ListPendingUserIDs(ctx)
}

// ResolveOptimisticID rewrites queued requests that referenced an optimistic
// shift id once the server assigns the real one. Empty result when
// unsupported.
func (s *Service) ResolveOptimisticID(
	ctx context.Context, userID string, optimisticID, shiftID int64,
) ([]PendingShiftRequest, error) {
	store, ok := s.handle.Acquire()
	if !ok {
		return nil, nil
	}

	return store.ResolveOptimisticID(ctx, userID, optimisticID, shiftID)
}
