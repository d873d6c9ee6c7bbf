// Package offline implements the durable on-device cache and mutation outbox
// for the shift scheduler. It persists user and shift records in an embedded
// SQLite database, keeps an ordered log of not-yet-confirmed write requests,
// and rewrites queued requests once an optimistically created shift receives
// its server-assigned identifier.
package offline

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

// ShiftType classifies a shift event as stored in the shifts.shift_type column.
type ShiftType string

// Shift types recognized by the scheduler.
const (
	ShiftWork     ShiftType = "work"
	ShiftRest     ShiftType = "rest"
	ShiftNight    ShiftType = "night"
	ShiftVacation ShiftType = "vacation"
	ShiftCustom   ShiftType = "custom"
)

// PlusCounters holds the supplemental hour counters attached to a shift.
type PlusCounters struct {
	Night        int64 `json:"night"`
	Holiday      int64 `json:"holiday"`
	Availability int64 `json:"availability"`
	Other        int64 `json:"other"`
}

// CachedUser is a locally cached scheduler user. The collection is replaced
// wholesale on each refresh from the server; there is no partial merge.
type CachedUser struct {
	ID         string
	Name       string
	Email      string
	CalendarID *int64 // nullable: users without a linked calendar
}

// ShiftEvent is a locally cached shift. All rows for a given UserID are
// replaced together in one transaction, never partially.
type ShiftEvent struct {
	ID     int64
	UserID string
	Date   string // ISO date, e.g. "2026-03-14"
	Type   ShiftType
	Start  string // "HH:MM"
	End    string // "HH:MM"
	Note   *string
	Label  *string
	Color  *string
	Pluses PlusCounters
}

// ShiftPayload is the wire body for a shift create or update request. It is a
// pure value type with no identity of its own; the outbox stores it as JSON
// and the sender transmits it verbatim.
type ShiftPayload struct {
	UserID string       `json:"userId"`
	Date   string       `json:"date"`
	Type   ShiftType    `json:"type"`
	Start  string       `json:"start"`
	End    string       `json:"end"`
	Note   *string      `json:"note,omitempty"`
	Label  *string      `json:"label,omitempty"`
	Color  *string      `json:"color,omitempty"`
	Pluses PlusCounters `json:"pluses"`
}

// Method is the HTTP method of a queued request.
type Method string

// Queued request methods. POST creates a not-yet-existing server record and
// must not carry a shift id; PATCH and DELETE target an existing record, or an
// optimistic one awaiting reconciliation.
const (
	MethodPost   Method = http.MethodPost
	MethodPatch  Method = http.MethodPatch
	MethodDelete Method = http.MethodDelete
)

// PendingShiftRequest is one entry in the outbox: a write against the remote
// API that has not been confirmed yet. Entries are created when a mutation
// happens offline (or while the replay loop is busy), mutated in place only by
// reconciliation, and removed once the server confirms the call.
type PendingShiftRequest struct {
	ID     string // local queue key
	UserID string
	Method Method
	URL    string
	Body   *ShiftPayload // nil for DELETE

	// ShiftID is the server id the request targets. Nil for POST, and for
	// PATCH/DELETE against an optimistic record until reconciled.
	ShiftID *int64

	// OptimisticID is the client-chosen placeholder id of a not-yet-confirmed
	// shift. Cleared by reconciliation; its absence means the entry targets a
	// real server id.
	OptimisticID *int64

	CreatedAt int64 // Unix nanoseconds; authoritative replay order
}

// Reconciled reports whether this entry targets a confirmed server record.
// POST entries are never reconciled in place; they are removed after the
// create is confirmed.
func (r *PendingShiftRequest) Reconciled() bool {
	return r.Method != MethodPost && r.OptimisticID == nil && r.ShiftID != nil
}

// NewRequestID returns a fresh local queue key for a pending request.
func NewRequestID() string {
	return uuid.NewString()
}

// NowNano returns the current time as Unix nanoseconds, the timestamp unit
// used throughout the store.
func NowNano() int64 {
	return time.Now().UnixNano()
}

// Int64Ptr returns a pointer to v. Convenience for optional columns.
func Int64Ptr(v int64) *int64 {
	return &v
}

// StringPtr returns a pointer to s. Convenience for optional columns.
func StringPtr(s string) *string {
	return &s
}
