// Package checkin validates on-site scans: credential state, time window and
// geofence, then advances the application and feeds the reliability ledger.
package checkin

import (
	"context"
	"log/slog"
	"time"

	"github.com/minhvh/vieclam/internal/fault"
	"github.com/minhvh/vieclam/internal/geo"
	"github.com/minhvh/vieclam/internal/models"
	"github.com/minhvh/vieclam/internal/policy"
	"github.com/minhvh/vieclam/internal/reliability"
	"github.com/minhvh/vieclam/pkg/repository"
)

type Processor struct {
	apps    repository.ApplicationRepo
	jobs    repository.JobRepo
	records repository.CheckinRepo
	ledger  *reliability.Ledger
	radius  float64
	logger  *slog.Logger
}

func NewProcessor(
	apps repository.ApplicationRepo,
	jobs repository.JobRepo,
	records repository.CheckinRepo,
	ledger *reliability.Ledger,
	radiusMeters float64,
	logger *slog.Logger,
) *Processor {
	if radiusMeters <= 0 {
		radiusMeters = geo.DefaultRadiusMeters
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{apps: apps, jobs: jobs, records: records, ledger: ledger, radius: radiusMeters, logger: logger}
}

// CheckIn validates a scan of the credential at scannedAt and, when valid,
// records the check-in, moves the application to working and applies the
// lateness-classified reliability delta. Expired credentials and geofence
// misses fail with distinct codes so the worker sees the right message.
func (p *Processor) CheckIn(ctx context.Context, credential string, scannedAt geo.Point, now time.Time) (*models.CheckinRecord, error) {
	app, job, err := p.resolve(ctx, credential)
	if err != nil {
		return nil, err
	}

	if app.Status != models.ApplicationApproved {
		return nil, fault.Newf(fault.CodeCredentialUsed, "application is %s, check-in already consumed", app.Status)
	}
	if app.CheckinQRExpiresAt == nil || !now.Before(*app.CheckinQRExpiresAt) {
		return nil, fault.New(fault.CodeCredentialExpired, "check-in code has expired")
	}
	if err := p.geofence(scannedAt, job); err != nil {
		return nil, err
	}

	// the guarded status transition is the single-use gate: a replayed or
	// concurrent scan loses here and gets no reliability credit
	ok, err := p.apps.AdvanceStatus(ctx, app.ID, models.ApplicationApproved, models.ApplicationWorking)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fault.New(fault.CodeCredentialUsed, "check-in already recorded")
	}

	rec := &models.CheckinRecord{
		ApplicationID: app.ID,
		Type:          models.CheckinTypeIn,
		Time:          now,
		Lat:           scannedAt.Lat,
		Lng:           scannedAt.Lng,
	}
	id, err := p.records.CreateRecord(ctx, rec)
	if err != nil {
		return nil, err
	}
	rec.ID = id

	reason := p.ledger.ClassifyLateness(job.ShiftStart, now)
	if _, err := p.ledger.Apply(ctx, app.WorkerID, reason, now); err != nil {
		return nil, err
	}

	p.logger.Info("check-in",
		slog.Int64("application_id", app.ID),
		slog.Int64("worker_id", app.WorkerID),
		slog.String("lateness", reason),
	)
	return rec, nil
}

// CheckOut validates the closing scan: a prior check-in must exist and the
// geofence gate applies identically. Completion always grants the
// job_completed bonus, with no lateness penalty on the way out.
func (p *Processor) CheckOut(ctx context.Context, credential string, scannedAt geo.Point, now time.Time) (*models.CheckinRecord, error) {
	app, job, err := p.resolve(ctx, credential)
	if err != nil {
		return nil, err
	}

	prior, err := p.records.GetRecord(ctx, app.ID, models.CheckinTypeIn)
	if err != nil {
		return nil, err
	}
	if prior == nil {
		return nil, fault.New(fault.CodeNotCheckedIn, "no check-in recorded for this application")
	}
	if err := p.geofence(scannedAt, job); err != nil {
		return nil, err
	}

	ok, err := p.apps.AdvanceStatus(ctx, app.ID, models.ApplicationWorking, models.ApplicationCompleted)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fault.New(fault.CodeCredentialUsed, "check-out already recorded")
	}

	rec := &models.CheckinRecord{
		ApplicationID: app.ID,
		Type:          models.CheckinTypeOut,
		Time:          now,
		Lat:           scannedAt.Lat,
		Lng:           scannedAt.Lng,
	}
	id, err := p.records.CreateRecord(ctx, rec)
	if err != nil {
		return nil, err
	}
	rec.ID = id

	if _, err := p.ledger.Apply(ctx, app.WorkerID, policy.ReasonJobCompleted, now); err != nil {
		return nil, err
	}

	p.logger.Info("check-out",
		slog.Int64("application_id", app.ID),
		slog.Int64("worker_id", app.WorkerID),
	)
	return rec, nil
}

func (p *Processor) resolve(ctx context.Context, credential string) (*models.JobApplication, *models.Job, error) {
	if credential == "" {
		return nil, nil, fault.New(fault.CodeValidation, "credential is required")
	}
	app, err := p.apps.GetByCredential(ctx, credential)
	if err != nil {
		return nil, nil, err
	}
	if app == nil {
		return nil, nil, fault.New(fault.CodeNotFound, "unknown check-in code")
	}
	job, err := p.jobs.GetJobByID(ctx, app.JobID)
	if err != nil {
		return nil, nil, err
	}
	if job == nil {
		return nil, nil, fault.New(fault.CodeNotFound, "job not found")
	}
	return app, job, nil
}

func (p *Processor) geofence(scannedAt geo.Point, job *models.Job) error {
	site := geo.Point{Lat: job.SiteLat, Lng: job.SiteLng}
	if !geo.WithinRadius(scannedAt, site, p.radius) {
		return fault.Newf(fault.CodeOutsideGeofence, "scan is %.0fm from the work site (limit %.0fm)", geo.Distance(scannedAt, site), p.radius)
	}
	return nil
}
