package offline

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	_ "modernc.org/sqlite" // Pure Go SQLite driver, registers as "sqlite".
)

// walJournalSizeLimit caps the WAL file at 64 MiB.
const walJournalSizeLimit = 67108864

// busyTimeoutMillis is how long a connection waits on a locked database
// before failing. Another process sharing the file interleaves at transaction
// granularity; coordination beyond that is the caller's problem.
const busyTimeoutMillis = 5000

// Store persists the record caches and the pending mutation queue in an
// embedded SQLite database with WAL mode. It is the sole owner of the
// underlying connection; all higher-level components go through it.
type Store struct {
	db     *sql.DB
	logger *slog.Logger

	// Prepared statements for repeated queries, grouped by collection.
	userStmts    userStatements
	shiftStmts   shiftStatements
	pendingStmts pendingStatements
}

type userStatements struct {
	insert, list, clear *sql.Stmt
}

type shiftStatements struct {
	insert, listByUser, clearForUser *sql.Stmt
}

type pendingStatements struct {
	upsert, remove, resolve, listByUser, countByUser, clearByUser, listUserIDs *sql.Stmt
}

// NewStore opens the database at dbPath, applies migrations, and prepares all
// repeated statements. Use ":memory:" for tests. The returned store uses a
// single write connection (sole-writer pattern), WAL journaling, and full
// synchronous mode for crash-safe durability.
func NewStore(dbPath string, logger *slog.Logger) (*Store, error) {
	logger.Info("opening offline cache database", "path", dbPath)

	// DSN parameters ensure pragmas apply to every connection from the pool.
	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(FULL)"+
			"&_pragma=foreign_keys(ON)&_pragma=busy_timeout(%d)"+
			"&_pragma=journal_size_limit(%d)",
		dbPath, busyTimeoutMillis, walJournalSizeLimit,
	)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("offline: opening database %s: %w", dbPath, err)
	}

	// Sole-writer pattern: only one connection writes at a time.
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	if err := runMigrations(ctx, db, logger); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{db: db, logger: logger}

	if err := s.prepareAllStatements(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("offline: preparing statements: %w", err)
	}

	logger.Info("offline cache database ready", "path", dbPath)

	return s, nil
}

// --- SQL query constants ---

// User cache queries.
const (
	sqlInsertUser = `INSERT INTO users (id, name, email, calendar_id)
		VALUES (?, ?, ?, ?)`

	sqlListUsers = `SELECT id, name, email, calendar_id FROM users`

	sqlClearUsers = `DELETE FROM users`
)

// Shift cache queries.
const (
	sqlShiftColumns = `id, user_id, date, shift_type, start_time, end_time,
		note, label, color, plus_night, plus_holiday, plus_availability, plus_other`

	sqlInsertShift = `INSERT INTO shifts (` + sqlShiftColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	sqlListShiftsByUser = `SELECT ` + sqlShiftColumns +
		` FROM shifts WHERE user_id = ?`

	sqlClearShiftsForUser = `DELETE FROM shifts WHERE user_id = ?`
)

// Pending request queries.
const (
	sqlPendingColumns = `id, user_id, method, url, body, shift_id, optimistic_id, created_at`

	sqlUpsertPending = `INSERT INTO pending_requests (` + sqlPendingColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id       = excluded.user_id,
			method        = excluded.method,
			url           = excluded.url,
			body          = excluded.body,
			shift_id      = excluded.shift_id,
			optimistic_id = excluded.optimistic_id,
			created_at    = excluded.created_at`

	sqlRemovePending = `DELETE FROM pending_requests WHERE id = ?`

	// Rewrites an entry in place after its optimistic id resolves. An UPDATE
	// rather than an upsert: a concurrently removed entry must stay removed.
	sqlResolvePending = `UPDATE pending_requests
		SET shift_id = ?, url = ?, optimistic_id = NULL
		WHERE id = ?`

	// Ties on created_at replay in insertion order via the id tiebreak.
	sqlListPendingByUser = `SELECT ` + sqlPendingColumns +
		` FROM pending_requests WHERE user_id = ?
		ORDER BY created_at ASC, id ASC`

	sqlCountPendingByUser = `SELECT COUNT(*) FROM pending_requests WHERE user_id = ?`

	sqlClearPendingByUser = `DELETE FROM pending_requests WHERE user_id = ?`

	sqlListPendingUserIDs = `SELECT DISTINCT user_id FROM pending_requests`
)

// stmtDef maps a SQL string to the prepared statement pointer it should populate.
type stmtDef struct {
	dest **sql.Stmt
	sql  string
	name string
}

// prepareAll prepares a batch of statements, returning on first error.
func prepareAll(ctx context.Context, db *sql.DB, defs []stmtDef) error {
	for i := range defs {
		stmt, err := db.PrepareContext(ctx, defs[i].sql)
		if err != nil {
			return fmt.Errorf("prepare %s: %w", defs[i].name, err)
		}

		*defs[i].dest = stmt
	}

	return nil
}

// prepareAllStatements creates all prepared statements grouped by collection.
func (s *Store) prepareAllStatements(ctx context.Context) error {
	if err := prepareAll(ctx, s.db, []stmtDef{
		{&s.userStmts.insert, sqlInsertUser, "insertUser"},
		{&s.userStmts.list, sqlListUsers, "listUsers"},
		{&s.userStmts.clear, sqlClearUsers, "clearUsers"},
	}); err != nil {
		return err
	}

	if err := prepareAll(ctx, s.db, []stmtDef{
		{&s.shiftStmts.insert, sqlInsertShift, "insertShift"},
		{&s.shiftStmts.listByUser, sqlListShiftsByUser, "listShiftsByUser"},
		{&s.shiftStmts.clearForUser, sqlClearShiftsForUser, "clearShiftsForUser"},
	}); err != nil {
		return err
	}

	return prepareAll(ctx, s.db, []stmtDef{
		{&s.pendingStmts.upsert, sqlUpsertPending, "upsertPending"},
		{&s.pendingStmts.remove, sqlRemovePending, "removePending"},
		{&s.pendingStmts.resolve, sqlResolvePending, "resolvePending"},
		{&s.pendingStmts.listByUser, sqlListPendingByUser, "listPendingByUser"},
		{&s.pendingStmts.countByUser, sqlCountPendingByUser, "countPendingByUser"},
		{&s.pendingStmts.clearByUser, sqlClearPendingByUser, "clearPendingByUser"},
		{&s.pendingStmts.listUserIDs, sqlListPendingUserIDs, "listPendingUserIDs"},
	})
}

// Close closes all prepared statements and the database connection.
func (s *Store) Close() error {
	s.logger.Info("closing offline cache database")

	if err := s.closeStatements(); err != nil {
		s.logger.Error("error closing statements", "error", err)
	}

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("offline: closing database: %w", err)
	}

	return nil
}

// closeStatements closes all prepared statements, collecting errors.
func (s *Store) closeStatements() error {
	stmts := []*sql.Stmt{
		s.userStmts.insert, s.userStmts.list, s.userStmts.clear,
		s.shiftStmts.insert, s.shiftStmts.listByUser, s.shiftStmts.clearForUser,
		s.pendingStmts.upsert, s.pendingStmts.remove, s.pendingStmts.resolve,
		s.pendingStmts.listByUser, s.pendingStmts.countByUser,
		s.pendingStmts.clearByUser, s.pendingStmts.listUserIDs,
	}

	var errs []string

	for _, stmt := range stmts {
		if stmt != nil {
			if err := stmt.Close(); err != nil {
				errs = append(errs, err.Error())
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close statements: %s", strings.Join(errs, "; "))
	}

	return nil
}
