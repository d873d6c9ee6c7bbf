package offline

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// replayParallelism bounds how many users' queues drain at once. Ordering is
// only required within one user's queue; independent users may proceed in
// parallel.
const replayParallelism = 4

// SendResult carries the server's response to a replayed request. ShiftID is
// the permanent identifier assigned by the server; it is meaningful only for
// POST requests.
type SendResult struct {
	ShiftID int64
}

// Sender transmits a queued request to the remote API. The offline layer
// passes Method, URL, and Body verbatim; retry and backoff policy live behind
// this interface, not in the replayer.
type Sender interface {
	Send(ctx context.Context, req PendingShiftRequest) (SendResult, error)
}

// Replayer drains the outbox in creation order through a Sender. After a
// confirmed create it resolves the optimistic id, rewriting dependent entries
// before they are sent.
type Replayer struct {
	svc    *Service
	sender Sender
	logger *slog.Logger
}

// NewReplayer returns a replayer over the given service and sender.
func NewReplayer(svc *Service, sender Sender, logger *slog.Logger) *Replayer {
	return &Replayer{svc: svc, sender: sender, logger: logger}
}

// Drain replays every user's queue. Users drain independently and in
// parallel; within one user, entries replay strictly in created_at order and
// the first failure stops that user's drain. The first error encountered is
// returned after all users finish or fail.
func (r *Replayer) Drain(ctx context.Context) error {
	userIDs, err := r.svc.ListPendingUserIDs(ctx)
	if err != nil {
		return err
	}

	// No shared cancellation: one user's failure must not abort another
	// user's drain.
	var g errgroup.Group
	g.SetLimit(replayParallelism)

	for _, userID := range userIDs {
		userID := userID

		g.Go(func() error {
			return r.drainUser(ctx, userID)
		})
	}

	return g.Wait()
}

// drainUser replays one user's queue in order. The queue is re-read after
// every entry: reconciliation rewrites dependents in place, so a listing
// taken before a create resolved would replay stale URLs.
func (r *Replayer) drainUser(ctx context.Context, userID string) error {
	for {
		entries, err := r.svc.ListPendingRequests(ctx, userID)
		if err != nil {
			return err
		}

		if len(entries) == 0 {
			return nil
		}

		r.logger.Debug("draining pending requests",
			"user_id", userID, "remaining", len(entries))

		if err := r.replayOne(ctx, &entries[0]); err != nil {
			return err
		}
	}
}

// replayOne sends a single entry, reconciles after a confirmed create, and
// retires the entry. Reconciliation runs before removal so a crash between
// the two leaves dependents rewritten and only the confirmed create queued;
// replaying it again is the server's idempotency problem, losing the rewrite
// would be ours.
func (r *Replayer) replayOne(ctx context.Context, entry *PendingShiftRequest) error {
	result, err := r.sender.Send(ctx, *entry)
	if err != nil {
		return fmt.Errorf("offline: sending request %s: %w", entry.ID, err)
	}

	if entry.Method == MethodPost && entry.OptimisticID != nil {
		_, resolveErr := r.svc.ResolveOptimisticID(
			ctx, entry.UserID, *entry.OptimisticID, result.ShiftID)
		if resolveErr != nil {
			return resolveErr
		}
	}

	return r.svc.RemovePendingRequest(ctx, entry.ID)
}
