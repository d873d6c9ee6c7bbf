package offline

import (
	"context"
	"database/sql"
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// CacheUsers replaces the entire users collection with the given set in one
// transaction (clear-then-insert). After it returns, a read sees exactly the
// given set; no stale entries survive. On transaction failure the cache is
// unchanged. User names are NFC-normalized so equal names from different
// sources compare equal.
func (s *Store) CacheUsers(ctx context.Context, users []CachedUser) error {
	s.logger.Debug("caching users", "count", len(users))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("offline: begin cache users tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.StmtContext(ctx, s.userStmts.clear).ExecContext(ctx); err != nil {
		return fmt.Errorf("offline: clearing users: %w", err)
	}

	insert := tx.StmtContext(ctx, s.userStmts.insert)

	for i := range users {
		u := &users[i]

		_, execErr := insert.ExecContext(ctx,
			u.ID, norm.NFC.String(u.Name), u.Email, u.CalendarID)
		if execErr != nil {
			return fmt.Errorf("offline: inserting user %s: %w", u.ID, execErr)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("offline: commit cache users: %w", err)
	}

	return nil
}

// CachedUsers returns the full users collection in unspecified order.
func (s *Store) CachedUsers(ctx context.Context) ([]CachedUser, error) {
	s.logger.Debug("reading cached users")

	rows, err := s.userStmts.list.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("offline: listing users: %w", err)
	}
	defer rows.Close()

	var users []CachedUser

	for rows.Next() {
		var (
			u          CachedUser
			calendarID sql.NullInt64
		)

		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &calendarID); err != nil {
			return nil, fmt.Errorf("offline: scanning user row: %w", err)
		}

		if calendarID.Valid {
			u.CalendarID = Int64Ptr(calendarID.Int64)
		}

		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("offline: iterating user rows: %w", err)
	}

	return users, nil
}

// CacheShiftsForUser deletes all cached shifts owned by userID and inserts the
// given set, in a single transaction. Other users' entries are untouched, and
// a concurrent reader never observes a half-replaced state for this user.
func (s *Store) CacheShiftsForUser(ctx context.Context, userID string, shifts []ShiftEvent) error {
	s.logger.Debug("caching shifts", "user_id", userID, "count", len(shifts))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("offline: begin cache shifts tx: %w", err)
	}
	defer tx.Rollback()

	clearStmt := tx.StmtContext(ctx, s.shiftStmts.clearForUser)
	if _, err := clearStmt.ExecContext(ctx, userID); err != nil {
		return fmt.Errorf("offline: clearing shifts for %s: %w", userID, err)
	}

	insert := tx.StmtContext(ctx, s.shiftStmts.insert)

	for i := range shifts {
		ev := &shifts[i]

		_, execErr := insert.ExecContext(ctx,
			ev.ID, userID, ev.Date, string(ev.Type), ev.Start, ev.End,
			ev.Note, ev.Label, ev.Color,
			ev.Pluses.Night, ev.Pluses.Holiday, ev.Pluses.Availability, ev.Pluses.Other,
		)
		if execErr != nil {
			return fmt.Errorf("offline: inserting shift %d for %s: %w", ev.ID, userID, execErr)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("offline: commit cache shifts for %s: %w", userID, err)
	}

	return nil
}

// CachedShiftsForUser returns all cached shifts owned by userID via the
// by-user index.
func (s *Store) CachedShiftsForUser(ctx context.Context, userID string) ([]ShiftEvent, error) {
	s.logger.Debug("reading cached shifts", "user_id", userID)

	rows, err := s.shiftStmts.listByUser.QueryContext(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("offline: listing shifts for %s: %w", userID, err)
	}
	defer rows.Close()

	var shifts []ShiftEvent

	for rows.Next() {
		ev, scanErr := scanShiftRow(rows)
		if scanErr != nil {
			return nil, scanErr
		}

		shifts = append(shifts, *ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("offline: iterating shift rows: %w", err)
	}

	return shifts, nil
}

// scanShiftRow scans a single shifts row into a ShiftEvent.
func scanShiftRow(rows *sql.Rows) (*ShiftEvent, error) {
	var (
		ev        ShiftEvent
		shiftType string
		note      sql.NullString
		label     sql.NullString
		color     sql.NullString
	)

	err := rows.Scan(
		&ev.ID, &ev.UserID, &ev.Date, &shiftType, &ev.Start, &ev.End,
		&note, &label, &color,
		&ev.Pluses.Night, &ev.Pluses.Holiday, &ev.Pluses.Availability, &ev.Pluses.Other,
	)
	if err != nil {
		return nil, fmt.Errorf("offline: scanning shift row: %w", err)
	}

	ev.Type = ShiftType(shiftType)

	if note.Valid {
		ev.Note = StringPtr(note.String)
	}

	if label.Valid {
		ev.Label = StringPtr(label.String)
	}

	if color.Valid {
		ev.Color = StringPtr(color.String)
	}

	return &ev, nil
}
