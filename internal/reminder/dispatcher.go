package reminder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/minhvh/vieclam/internal/jobs"
	"github.com/minhvh/vieclam/pkg/repository"
)

// JobTypeShiftReminder is the background job type the dispatcher enqueues;
// the worker pool's handler performs the actual delivery.
const JobTypeShiftReminder = "notify.shift_reminder"

// ReminderPayload is the job payload for one notice.
type ReminderPayload struct {
	ApplicationID int64  `json:"application_id"`
	WorkerID      int64  `json:"worker_id"`
	JobTitle      string `json:"job_title"`
	ShiftStart    int64  `json:"shift_start"`
	Threshold     string `json:"threshold"`
}

// Dispatcher periodically scans for shifts crossing a notice threshold and
// enqueues one notification job per crossing. The marker is flipped before
// the enqueue, so a notice is sent at most once per threshold even when scans
// overlap.
type Dispatcher struct {
	apps     repository.ApplicationRepo
	pool     *jobs.WorkerPool
	interval time.Duration
	logger   *slog.Logger
	stop     chan struct{}
	wg       sync.WaitGroup
}

func NewDispatcher(apps repository.ApplicationRepo, pool *jobs.WorkerPool, interval time.Duration, logger *slog.Logger) *Dispatcher {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{apps: apps, pool: pool, interval: interval, logger: logger, stop: make(chan struct{})}
}

// Start launches the scan loop.
func (d *Dispatcher) Start(ctx context.Context) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()
		for {
			select {
			case <-d.stop:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := d.RunOnce(ctx, time.Now().UTC()); err != nil {
					d.logger.Error("reminder scan", "err", err)
				}
			}
		}
	}()
}

// Stop signals the loop to exit and waits for it.
func (d *Dispatcher) Stop() {
	close(d.stop)
	d.wg.Wait()
}

// RunOnce performs one scan and returns how many notices were enqueued.
func (d *Dispatcher) RunOnce(ctx context.Context, now time.Time) (int, error) {
	shifts, err := d.apps.ListUpcomingShifts(ctx, now, now.Add(24*time.Hour))
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, s := range Needing24h(now, shifts) {
		if d.dispatch(ctx, s.Application.ID, ReminderPayload{
			ApplicationID: s.Application.ID,
			WorkerID:      s.Application.WorkerID,
			JobTitle:      s.JobTitle,
			ShiftStart:    s.ShiftStart.UnixMilli(),
			Threshold:     Threshold24h,
		}) {
			sent++
		}
	}
	for _, s := range Needing1h(now, shifts) {
		if d.dispatch(ctx, s.Application.ID, ReminderPayload{
			ApplicationID: s.Application.ID,
			WorkerID:      s.Application.WorkerID,
			JobTitle:      s.JobTitle,
			ShiftStart:    s.ShiftStart.UnixMilli(),
			Threshold:     Threshold1h,
		}) {
			sent++
		}
	}
	return sent, nil
}

func (d *Dispatcher) dispatch(ctx context.Context, applicationID int64, p ReminderPayload) bool {
	ok, err := d.apps.MarkNotified(ctx, applicationID, p.Threshold)
	if err != nil {
		d.logger.Error("mark notified", "application_id", applicationID, "threshold", p.Threshold, "err", err)
		return false
	}
	if !ok {
		// another scan already claimed this notice
		return false
	}
	if _, err := d.pool.Enqueue(ctx, JobTypeShiftReminder, p, 100, 3); err != nil {
		d.logger.Error("enqueue reminder", "application_id", applicationID, "threshold", p.Threshold, "err", err)
		return false
	}
	return true
}
