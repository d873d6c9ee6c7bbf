package offline

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// ResolveOptimisticID rewrites every queued PATCH/DELETE that still references
// the given optimistic id so it targets the server-assigned shiftID: shift_id
// is set, the URL path is rewritten to address the new id, and the optimistic
// id is cleared. The scan and the rewrites share one transaction, so an entry
// removed by a concurrent caller is never rewritten and an entry enqueued
// after the snapshot is left for the next resolve. The POST entry for the
// optimistic id is the create that just resolved; it is skipped and the
// caller removes it separately via RemovePendingRequest.
//
// Returns the rewritten entries so the caller can fire the now-resolvable
// network calls immediately. No dependents is a no-op returning an empty
// slice, not an error.
func (s *Store) ResolveOptimisticID(
	ctx context.Context, userID string, optimisticID, shiftID int64,
) ([]PendingShiftRequest, error) {
	s.logger.Debug("resolving optimistic id",
		"user_id", userID, "optimistic_id", optimisticID, "shift_id", shiftID)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("offline: begin reconcile tx: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.StmtContext(ctx, s.pendingStmts.listByUser).QueryContext(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("offline: listing pending requests for %s: %w", userID, err)
	}

	entries, err := scanPendingRows(rows)

	// The sole connection belongs to the transaction; drain the cursor
	// before issuing writes on it.
	if closeErr := rows.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("offline: closing pending request rows: %w", closeErr)
	}

	if err != nil {
		return nil, err
	}

	var dependents []PendingShiftRequest

	for i := range entries {
		e := &entries[i]

		if e.OptimisticID == nil || *e.OptimisticID != optimisticID {
			continue
		}

		// The POST is the create itself; nothing to rewrite.
		if e.Method == MethodPost {
			continue
		}

		dependents = append(dependents, *e)
	}

	if len(dependents) == 0 {
		return []PendingShiftRequest{}, nil
	}

	rewrite := tx.StmtContext(ctx, s.pendingStmts.resolve)

	for i := range dependents {
		e := &dependents[i]

		e.ShiftID = Int64Ptr(shiftID)
		e.OptimisticID = nil
		e.URL = rewriteRequestURL(e.URL, shiftID)

		_, execErr := rewrite.ExecContext(ctx, *e.ShiftID, e.URL, e.ID)
		if execErr != nil {
			return nil, fmt.Errorf("offline: rewriting pending request %s: %w", e.ID, execErr)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("offline: commit reconcile: %w", err)
	}

	s.logger.Info("resolved optimistic id",
		"user_id", userID, "optimistic_id", optimisticID,
		"shift_id", shiftID, "rewritten", len(dependents))

	return dependents, nil
}

// rewriteRequestURL replaces the final path segment (the optimistic id) with
// the server-assigned shift id, preserving a trailing slash and any query
// string.
func rewriteRequestURL(url string, shiftID int64) string {
	path, query, hasQuery := strings.Cut(url, "?")

	trailing := strings.HasSuffix(path, "/") && len(path) > 1
	if trailing {
		path = path[:len(path)-1]
	}

	idx := strings.LastIndexByte(path, '/')
	if idx < 0 {
		return url
	}

	rewritten := path[:idx+1] + strconv.FormatInt(shiftID, 10)

	if trailing {
		rewritten += "/"
	}

	if hasQuery {
		rewritten += "?" + query
	}

	return rewritten
}
