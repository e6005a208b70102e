// Package reliability maintains each worker's trust score as an append-only
// ledger of events with a clamped projection, and owns the freeze state a
// no-show triggers.
package reliability

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/minhvh/vieclam/internal/fault"
	"github.com/minhvh/vieclam/internal/models"
	"github.com/minhvh/vieclam/internal/policy"
	"github.com/minhvh/vieclam/pkg/repository"
)

type Ledger struct {
	workers repository.WorkerRepo
	events  repository.ReliabilityRepo
	pol     *policy.Policy
	logger  *slog.Logger
}

func NewLedger(workers repository.WorkerRepo, events repository.ReliabilityRepo, pol *policy.Policy, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{workers: workers, events: events, pol: pol, logger: logger}
}

// Apply appends an event for the given reason and returns the resulting
// clamped score. A no_show additionally freezes the account for the policy's
// freeze duration; delta, projection and freeze commit atomically.
func (l *Ledger) Apply(ctx context.Context, workerID int64, reason string, now time.Time) (int, error) {
	delta, ok := l.pol.Delta(reason)
	if !ok {
		return 0, fault.Newf(fault.CodeValidation, "unknown reliability reason %q", reason)
	}

	var freezeUntil *time.Time
	if reason == policy.ReasonNoShow {
		t := now.Add(l.pol.FreezeDuration())
		freezeUntil = &t
	}

	score, err := l.events.AppendEvent(ctx, workerID, delta, reason, freezeUntil, now)
	if err != nil {
		return 0, err
	}

	l.logger.Info("reliability event",
		slog.Int64("worker_id", workerID),
		slog.String("reason", reason),
		slog.Int("delta", delta),
		slog.Int("resulting_score", score),
	)
	return score, nil
}

// Score returns the current projected score for a worker.
func (l *Ledger) Score(ctx context.Context, workerID int64) (int, error) {
	w, err := l.workers.GetWorkerByID(ctx, workerID)
	if err != nil {
		return 0, err
	}
	if w == nil {
		return 0, fault.New(fault.CodeNotFound, "worker not found")
	}
	return w.ReliabilityScore, nil
}

// History returns the worker's full event ledger, oldest first.
func (l *Ledger) History(ctx context.Context, workerID int64) ([]models.ReliabilityEvent, error) {
	return l.events.ListEvents(ctx, workerID)
}

// IsFrozen reports whether the worker is frozen as of now.
func (l *Ledger) IsFrozen(ctx context.Context, workerID int64, now time.Time) (bool, error) {
	w, err := l.workers.GetWorkerByID(ctx, workerID)
	if err != nil {
		return false, err
	}
	if w == nil {
		return false, fault.New(fault.CodeNotFound, "worker not found")
	}
	return Frozen(w, now), nil
}

// Frozen is the computed freeze predicate. The raw flag alone is never
// trusted: a freeze soft-expires once now reaches frozen_until, even if no
// write has cleared the flag yet.
func Frozen(w *models.WorkerProfile, now time.Time) bool {
	return w.IsAccountFrozen && w.FrozenUntil != nil && now.Before(*w.FrozenUntil)
}

// ClassifyLateness maps a check-in time to its scoring reason relative to
// shift start. Minutes late is the floor of the difference, so d=15m59s is
// still inside the grace window and d=16m is the first penalized minute.
func (l *Ledger) ClassifyLateness(shiftStart, checkinAt time.Time) string {
	m := int(math.Floor(checkinAt.Sub(shiftStart).Minutes()))
	switch {
	case m <= l.pol.GraceMinutes:
		return policy.ReasonOnTimeCheckin
	case m <= l.pol.SevereMinutes:
		return policy.ReasonLateCheckin
	default:
		return policy.ReasonLateCheckinSevere
	}
}
