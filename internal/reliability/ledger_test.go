package reliability_test

import (
	"context"
	"testing"
	"time"

	"github.com/minhvh/vieclam/internal/fault"
	"github.com/minhvh/vieclam/internal/models"
	"github.com/minhvh/vieclam/internal/policy"
	"github.com/minhvh/vieclam/internal/reliability"
	"github.com/minhvh/vieclam/pkg/repository/mock"
)

func newLedger(t *testing.T) (*reliability.Ledger, *mock.Store) {
	t.Helper()
	pol, err := policy.Default()
	if err != nil {
		t.Fatalf("policy.Default: %v", err)
	}
	store := mock.NewStore()
	return reliability.NewLedger(store, store, pol, nil), store
}

func seedWorker(t *testing.T, store *mock.Store, score int) int64 {
	t.Helper()
	id, err := store.CreateWorker(context.Background(), &models.WorkerProfile{
		Name:             "Linh",
		Email:            "linh@example.com",
		ReliabilityScore: score,
	})
	if err != nil {
		t.Fatalf("CreateWorker: %v", err)
	}
	return id
}

func TestApplyDeltas(t *testing.T) {
	tests := []struct {
		name      string
		start     int
		reason    string
		wantScore int
	}{
		{"on time adds one", 80, policy.ReasonOnTimeCheckin, 81},
		{"late subtracts one", 80, policy.ReasonLateCheckin, 79},
		{"severe late subtracts two", 80, policy.ReasonLateCheckinSevere, 78},
		{"completion adds one", 80, policy.ReasonJobCompleted, 81},
		{"no show subtracts twenty", 80, policy.ReasonNoShow, 60},
		{"clamped at one hundred", 100, policy.ReasonOnTimeCheckin, 100},
		{"clamped at zero", 15, policy.ReasonNoShow, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger, store := newLedger(t)
			id := seedWorker(t, store, tt.start)

			got, err := ledger.Apply(context.Background(), id, tt.reason, time.Now().UTC())
			if err != nil {
				t.Fatalf("Apply: %v", err)
			}
			if got != tt.wantScore {
				t.Errorf("resulting score = %d, want %d", got, tt.wantScore)
			}
		})
	}
}

func TestApplyUnknownReason(t *testing.T) {
	ledger, store := newLedger(t)
	id := seedWorker(t, store, 50)

	_, err := ledger.Apply(context.Background(), id, "made_up_reason", time.Now().UTC())
	if !fault.Is(err, fault.CodeValidation) {
		t.Fatalf("expected validation outcome, got %v", err)
	}
}

func TestEventRecordsRawDeltaAndClampedResult(t *testing.T) {
	ledger, store := newLedger(t)
	id := seedWorker(t, store, 15)

	if _, err := ledger.Apply(context.Background(), id, policy.ReasonNoShow, time.Now().UTC()); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	events, err := ledger.History(context.Background(), id)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	// the raw delta is stored even though the clamp truncated the effect
	if events[0].ScoreChange != -20 {
		t.Errorf("score_change = %d, want -20", events[0].ScoreChange)
	}
	if events[0].ResultingScore != 0 {
		t.Errorf("resulting_score = %d, want 0", events[0].ResultingScore)
	}
}

func TestProjectionMatchesEventHistory(t *testing.T) {
	ledger, store := newLedger(t)
	id := seedWorker(t, store, 95)
	ctx := context.Background()
	now := time.Now().UTC()

	reasons := []string{
		policy.ReasonOnTimeCheckin,
		policy.ReasonJobCompleted,
		policy.ReasonOnTimeCheckin, // clamped at 100 here
		policy.ReasonNoShow,
		policy.ReasonLateCheckin,
	}
	for _, reason := range reasons {
		if _, err := ledger.Apply(ctx, id, reason, now); err != nil {
			t.Fatalf("Apply(%s): %v", reason, err)
		}
	}

	events, err := ledger.History(ctx, id)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	score, err := ledger.Score(ctx, id)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	last := events[len(events)-1]
	if score != last.ResultingScore {
		t.Errorf("projected score %d does not match last event snapshot %d", score, last.ResultingScore)
	}
	if score < 0 || score > 100 {
		t.Errorf("score %d outside [0,100]", score)
	}
}

func TestNoShowFreezeBoundary(t *testing.T) {
	ledger, store := newLedger(t)
	id := seedWorker(t, store, 80)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if _, err := ledger.Apply(ctx, id, policy.ReasonNoShow, now); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	frozenUntil := now.Add(7 * 24 * time.Hour)

	frozen, err := ledger.IsFrozen(ctx, id, frozenUntil.Add(-time.Second))
	if err != nil {
		t.Fatalf("IsFrozen: %v", err)
	}
	if !frozen {
		t.Errorf("worker should be frozen one second before frozen_until")
	}

	frozen, err = ledger.IsFrozen(ctx, id, frozenUntil.Add(time.Second))
	if err != nil {
		t.Fatalf("IsFrozen: %v", err)
	}
	if frozen {
		t.Errorf("worker should be unfrozen one second after frozen_until")
	}
}

func TestFrozenPredicateIgnoresStaleFlag(t *testing.T) {
	past := time.Now().UTC().Add(-time.Hour)
	w := &models.WorkerProfile{IsAccountFrozen: true, FrozenUntil: &past}
	if reliability.Frozen(w, time.Now().UTC()) {
		t.Errorf("expired freeze must read as unfrozen even while the flag is still set")
	}
}

func TestClassifyLateness(t *testing.T) {
	ledger, _ := newLedger(t)
	shiftStart := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		offset time.Duration
		want   string
	}{
		{"thirty minutes early", -30 * time.Minute, policy.ReasonOnTimeCheckin},
		{"exactly on time", 0, policy.ReasonOnTimeCheckin},
		{"fifteen minutes late is grace", 15 * time.Minute, policy.ReasonOnTimeCheckin},
		{"just inside grace", 15*time.Minute + 59*time.Second, policy.ReasonOnTimeCheckin},
		{"sixteen minutes late", 16 * time.Minute, policy.ReasonLateCheckin},
		{"thirty minutes late", 30 * time.Minute, policy.ReasonLateCheckin},
		{"thirty one minutes late", 31 * time.Minute, policy.ReasonLateCheckinSevere},
		{"two hours late", 2 * time.Hour, policy.ReasonLateCheckinSevere},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ledger.ClassifyLateness(shiftStart, shiftStart.Add(tt.offset))
			if got != tt.want {
				t.Errorf("ClassifyLateness(%v) = %s, want %s", tt.offset, got, tt.want)
			}
		})
	}
}
