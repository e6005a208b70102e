package reminder_test

import (
	"context"
	"testing"
	"time"

	"github.com/minhvh/vieclam/db"
	internaldb "github.com/minhvh/vieclam/internal/db"
	"github.com/minhvh/vieclam/internal/jobs"
	"github.com/minhvh/vieclam/internal/models"
	"github.com/minhvh/vieclam/internal/reminder"
	"github.com/minhvh/vieclam/pkg/repository/mock"
)

func shift(status models.ApplicationStatus, startsIn time.Duration, notified24h, notified1h bool, base time.Time) models.UpcomingShift {
	return models.UpcomingShift{
		Application: models.JobApplication{
			ID:          1,
			Status:      status,
			Notified24h: notified24h,
			Notified1h:  notified1h,
		},
		JobTitle:   "Evening shift",
		ShiftStart: base.Add(startsIn),
	}
}

func TestNeeding24h(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		in   models.UpcomingShift
		want bool
	}{
		{"inside window", shift(models.ApplicationApproved, 20*time.Hour, false, false, now), true},
		{"working status counts", shift(models.ApplicationWorking, 20*time.Hour, false, false, now), true},
		{"exactly 24h out", shift(models.ApplicationApproved, 24*time.Hour, false, false, now), true},
		{"beyond 24h", shift(models.ApplicationApproved, 25*time.Hour, false, false, now), false},
		{"already started", shift(models.ApplicationApproved, -time.Minute, false, false, now), false},
		{"already notified", shift(models.ApplicationApproved, 20*time.Hour, true, false, now), false},
		{"pending excluded", shift(models.ApplicationPending, 20*time.Hour, false, false, now), false},
		{"cancelled excluded", shift(models.ApplicationCancelled, 20*time.Hour, false, false, now), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := reminder.Needing24h(now, []models.UpcomingShift{tt.in})
			if (len(got) == 1) != tt.want {
				t.Errorf("selected = %v, want %v", len(got) == 1, tt.want)
			}
		})
	}
}

func TestNeeding1h(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		in   models.UpcomingShift
		want bool
	}{
		{"inside window", shift(models.ApplicationApproved, 30*time.Minute, false, false, now), true},
		{"24h marker irrelevant", shift(models.ApplicationApproved, 30*time.Minute, true, false, now), true},
		{"beyond 1h", shift(models.ApplicationApproved, 90*time.Minute, false, false, now), false},
		{"already notified", shift(models.ApplicationApproved, 30*time.Minute, false, true, now), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := reminder.Needing1h(now, []models.UpcomingShift{tt.in})
			if (len(got) == 1) != tt.want {
				t.Errorf("selected = %v, want %v", len(got) == 1, tt.want)
			}
		})
	}
}

// newQueue gives a worker-pool backed by an in-memory database so dispatch
// tests exercise the real enqueue path.
func newQueue(t *testing.T) *jobs.WorkerPool {
	t.Helper()
	ctx := context.Background()
	d, err := internaldb.New(ctx, "file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	if err := internaldb.Migrate(ctx, d, db.Migrations); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return jobs.NewWorkerPool(jobs.NewRepository(d), nil, nil, 0)
}

func TestDispatcherRunOnce(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	store := mock.NewStore()
	jobID, err := store.CreateJob(ctx, &models.Job{
		OwnerID:    1,
		Title:      "Dinner service",
		ShiftStart: now.Add(20 * time.Hour),
		ShiftEnd:   now.Add(26 * time.Hour),
		MaxWorkers: 1,
		Status:     models.JobFilled,
	})
	if err != nil {
		t.Fatal(err)
	}
	appID, err := store.CreateApplication(ctx, &models.JobApplication{
		JobID:    jobID,
		WorkerID: 7,
		Status:   models.ApplicationApproved,
	})
	if err != nil {
		t.Fatal(err)
	}

	d := reminder.NewDispatcher(store, newQueue(t), time.Minute, nil)

	sent, err := d.RunOnce(ctx, now)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if sent != 1 {
		t.Fatalf("sent = %d, want one 24h notice", sent)
	}

	app, _ := store.GetApplicationByID(ctx, appID)
	if !app.Notified24h || app.Notified1h {
		t.Fatalf("markers after first scan: 24h=%v 1h=%v", app.Notified24h, app.Notified1h)
	}

	// second scan at the same instant is a no-op
	sent, err = d.RunOnce(ctx, now)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if sent != 0 {
		t.Fatalf("repeated scan sent %d notices, want 0", sent)
	}

	// the 1h notice goes out independently once the shift is close enough
	sent, err = d.RunOnce(ctx, now.Add(19*time.Hour+30*time.Minute))
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if sent != 1 {
		t.Fatalf("sent = %d, want one 1h notice", sent)
	}
	app, _ = store.GetApplicationByID(ctx, appID)
	if !app.Notified1h {
		t.Fatal("1h marker not set")
	}
}
