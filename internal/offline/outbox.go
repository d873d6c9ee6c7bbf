package offline

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// Outbox lifecycle:
//
//	AddPendingRequest → (ResolveOptimisticID)* → RemovePendingRequest
//
// AddPendingRequest durably records a write before or in lieu of sending it
// over the network. The replay loop lists entries in created_at order, sends
// each, resolves optimistic ids after a confirmed create, and removes entries
// on confirmation. Storage never reorders entries; created_at is the
// authoritative replay signal, not call order.

// AddPendingRequest inserts or replaces a queue entry by its id.
func (s *Store) AddPendingRequest(ctx context.Context, req PendingShiftRequest) error {
	s.logger.Debug("adding pending request",
		"id", req.ID, "user_id", req.UserID, "method", req.Method)

	var body sql.NullString

	if req.Body != nil {
		b, err := encodePayload(req.Body)
		if err != nil {
			return fmt.Errorf("offline: encoding body for request %s: %w", req.ID, err)
		}

		body = sql.NullString{String: b, Valid: true}
	}

	_, err := s.pendingStmts.upsert.ExecContext(ctx,
		req.ID, req.UserID, string(req.Method), req.URL, body,
		req.ShiftID, req.OptimisticID, req.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("offline: adding pending request %s: %w", req.ID, err)
	}

	return nil
}

// RemovePendingRequest deletes a queue entry by id after server confirmation.
// Removing an id that no longer exists is a no-op.
func (s *Store) RemovePendingRequest(ctx context.Context, id string) error {
	s.logger.Debug("removing pending request", "id", id)

	_, err := s.pendingStmts.remove.ExecContext(ctx, id)
	if err != nil {
		return fmt.Errorf("offline: removing pending request %s: %w", id, err)
	}

	return nil
}

// ListPendingRequests returns all queue entries for a user sorted ascending by
// created_at. Callers must replay in this order so an update is never sent
// before the create it depends on.
func (s *Store) ListPendingRequests(ctx context.Context, userID string) ([]PendingShiftRequest, error) {
	s.logger.Debug("listing pending requests", "user_id", userID)

	rows, err := s.pendingStmts.listByUser.QueryContext(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("offline: listing pending requests for %s: %w", userID, err)
	}
	defer rows.Close()

	return scanPendingRows(rows)
}

// CountPendingRequests returns the number of queued entries for a user,
// computed via the by-user index without materializing the entries.
func (s *Store) CountPendingRequests(ctx context.Context, userID string) (int, error) {
	s.logger.Debug("counting pending requests", "user_id", userID)

	var count int

	err := s.pendingStmts.countByUser.QueryRowContext(ctx, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("offline: counting pending requests for %s: %w", userID, err)
	}

	return count, nil
}

// ClearPendingRequests deletes every queued entry for a user. Used on logout
// or a forced resync.
func (s *Store) ClearPendingRequests(ctx context.Context, userID string) error {
	s.logger.Info("clearing pending requests", "user_id", userID)

	_, err := s.pendingStmts.clearByUser.ExecContext(ctx, userID)
	if err != nil {
		return fmt.Errorf("offline: clearing pending requests for %s: %w", userID, err)
	}

	return nil
}

// ListPendingUserIDs returns the distinct owners of queued entries. The
// replayer drains each owner's queue independently.
func (s *Store) ListPendingUserIDs(ctx context.Context) ([]string, error) {
	s.logger.Debug("listing pending user ids")

	rows, err := s.pendingStmts.listUserIDs.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("offline: listing pending user ids: %w", err)
	}
	defer rows.Close()

	var ids []string

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("offline: scanning pending user id: %w", err)
		}

		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("offline: iterating pending user ids: %w", err)
	}

	return ids, nil
}

// encodePayload serializes a shift payload for the body column.
func encodePayload(p *ShiftPayload) (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}

	return string(b), nil
}

// scanPendingRows iterates over sql.Rows and collects PendingShiftRequests.
func scanPendingRows(rows *sql.Rows) ([]PendingShiftRequest, error) {
	var result []PendingShiftRequest

	for rows.Next() {
		r, scanErr := scanPendingRow(rows)
		if scanErr != nil {
			return nil, scanErr
		}

		result = append(result, *r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("offline: iterating pending request rows: %w", err)
	}

	return result, nil
}

// scanPendingRow scans a single pending_requests row, decoding the JSON body.
func scanPendingRow(rows *sql.Rows) (*PendingShiftRequest, error) {
	var (
		r            PendingShiftRequest
		method       string
		body         sql.NullString
		shiftID      sql.NullInt64
		optimisticID sql.NullInt64
	)

	err := rows.Scan(
		&r.ID, &r.UserID, &method, &r.URL, &body,
		&shiftID, &optimisticID, &r.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("offline: scanning pending request row: %w", err)
	}

	r.Method = Method(method)

	if body.Valid && body.String != "" {
		payload := &ShiftPayload{}
		if jsonErr := json.Unmarshal([]byte(body.String), payload); jsonErr != nil {
			return nil, fmt.Errorf("offline: parsing body for request %s: %w", r.ID, jsonErr)
		}

		r.Body = payload
	}

	if shiftID.Valid {
		r.ShiftID = Int64Ptr(shiftID.Int64)
	}

	if optimisticID.Valid {
		r.OptimisticID = Int64Ptr(optimisticID.Int64)
	}

	return &r, nil
}
