// Package application orchestrates the apply/approve/reject/cancel lifecycle:
// it invokes the qualification evaluator, holds job capacity through atomic
// slot reservation, and mints check-in credentials on approval.
package application

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/minhvh/vieclam/internal/fault"
	"github.com/minhvh/vieclam/internal/models"
	"github.com/minhvh/vieclam/internal/policy"
	"github.com/minhvh/vieclam/internal/qualification"
	"github.com/minhvh/vieclam/internal/reliability"
	"github.com/minhvh/vieclam/pkg/repository"
)

type Controller struct {
	jobs    repository.JobRepo
	apps    repository.ApplicationRepo
	workers repository.WorkerRepo
	ledger  *reliability.Ledger
	eval    *qualification.Evaluator
	pol     *policy.Policy
	logger  *slog.Logger
}

func NewController(
	jobs repository.JobRepo,
	apps repository.ApplicationRepo,
	workers repository.WorkerRepo,
	ledger *reliability.Ledger,
	eval *qualification.Evaluator,
	pol *policy.Policy,
	logger *slog.Logger,
) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{jobs: jobs, apps: apps, workers: workers, ledger: ledger, eval: eval, pol: pol, logger: logger}
}

// Apply creates an application for worker on job. When the worker qualifies
// for instant book the application is approved immediately, a slot is
// reserved and a check-in credential is minted; otherwise it is queued
// pending owner review.
func (c *Controller) Apply(ctx context.Context, jobID, workerID int64, now time.Time) (*models.JobApplication, error) {
	job, err := c.jobs.GetJobByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, fault.New(fault.CodeNotFound, "job not found")
	}
	if job.Status != models.JobOpen {
		return nil, fault.New(fault.CodeJobNotOpen, "job is not accepting applications")
	}

	worker, err := c.workers.GetWorkerByID(ctx, workerID)
	if err != nil {
		return nil, err
	}
	if worker == nil {
		return nil, fault.New(fault.CodeNotFound, "worker not found")
	}

	if existing, err := c.apps.GetByJobAndWorker(ctx, jobID, workerID); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, fault.New(fault.CodeDuplicate, "already applied to this job")
	}

	completed, err := c.apps.CountCompletedByWorker(ctx, workerID)
	if err != nil {
		return nil, err
	}
	q := c.eval.Evaluate(worker, completed, job, now)

	app := &models.JobApplication{
		JobID:     jobID,
		WorkerID:  workerID,
		Status:    models.ApplicationPending,
		AppliedAt: now,
	}

	if q.InstantBook {
		reserved, nowFilled, err := c.jobs.ReserveSlot(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if !reserved {
			return nil, fault.New(fault.CodeJobFilled, "job has no remaining capacity")
		}

		code, expires := c.mintCredential(now)
		app.Status = models.ApplicationApproved
		app.IsInstantBook = true
		app.ApprovedAt = &now
		app.CheckinQRCode = code
		app.CheckinQRExpiresAt = &expires

		id, err := c.apps.CreateApplication(ctx, app)
		if err != nil {
			// the unique (job_id, worker_id) constraint caught a concurrent
			// apply; give the reserved slot back before reporting it
			if fault.Is(err, fault.CodeDuplicate) {
				if relErr := c.jobs.ReleaseSlot(ctx, jobID); relErr != nil {
					c.logger.Error("release slot after duplicate apply", "job_id", jobID, "err", relErr)
				}
			}
			return nil, err
		}
		app.ID = id

		c.logger.Info("instant book",
			slog.Int64("job_id", jobID),
			slog.Int64("worker_id", workerID),
			slog.Bool("job_filled", nowFilled),
		)
		return app, nil
	}

	id, err := c.apps.CreateApplication(ctx, app)
	if err != nil {
		return nil, err
	}
	app.ID = id
	return app, nil
}

// Approve is the owner-review path for a pending application. It performs
// the same slot reservation and credential minting as instant book.
func (c *Controller) Approve(ctx context.Context, applicationID, ownerID int64, now time.Time) (*models.JobApplication, error) {
	app, job, err := c.authorize(ctx, applicationID, ownerID)
	if err != nil {
		return nil, err
	}
	if app.Status != models.ApplicationPending {
		return nil, fault.Newf(fault.CodeValidation, "application is %s, not pending", app.Status)
	}

	reserved, _, err := c.jobs.ReserveSlot(ctx, job.ID)
	if err != nil {
		return nil, err
	}
	if !reserved {
		return nil, fault.New(fault.CodeJobFilled, "job has no remaining capacity")
	}

	code, expires := c.mintCredential(now)
	if err := c.apps.SetApproved(ctx, app.ID, now, code, expires); err != nil {
		return nil, err
	}

	app.Status = models.ApplicationApproved
	app.ApprovedAt = &now
	app.CheckinQRCode = code
	app.CheckinQRExpiresAt = &expires
	return app, nil
}

// Reject moves a pending application to the rejected terminal state.
func (c *Controller) Reject(ctx context.Context, applicationID, ownerID int64) error {
	app, _, err := c.authorize(ctx, applicationID, ownerID)
	if err != nil {
		return err
	}
	if app.Status != models.ApplicationPending {
		return fault.Newf(fault.CodeValidation, "application is %s, not pending", app.Status)
	}
	return c.apps.SetStatus(ctx, app.ID, models.ApplicationRejected)
}

// Cancel lets a worker withdraw a pre-check-in application. An approved
// application releases its held slot and credential.
func (c *Controller) Cancel(ctx context.Context, applicationID, workerID int64) error {
	app, err := c.apps.GetApplicationByID(ctx, applicationID)
	if err != nil {
		return err
	}
	if app == nil {
		return fault.New(fault.CodeNotFound, "application not found")
	}
	if app.WorkerID != workerID {
		return fault.New(fault.CodeNotAuthorized, "application belongs to another worker")
	}
	switch app.Status {
	case models.ApplicationPending:
	case models.ApplicationApproved:
		if err := c.jobs.ReleaseSlot(ctx, app.JobID); err != nil {
			return err
		}
		if err := c.apps.ClearCredential(ctx, app.ID); err != nil {
			return err
		}
	default:
		return fault.Newf(fault.CodeValidation, "cannot cancel a %s application", app.Status)
	}
	return c.apps.SetStatus(ctx, app.ID, models.ApplicationCancelled)
}

// MarkNoShow records that an approved or working application was abandoned.
// The reliability penalty and the account freeze run through the ledger.
func (c *Controller) MarkNoShow(ctx context.Context, applicationID, ownerID int64, now time.Time) error {
	app, _, err := c.authorize(ctx, applicationID, ownerID)
	if err != nil {
		return err
	}
	if app.Status != models.ApplicationApproved && app.Status != models.ApplicationWorking {
		return fault.Newf(fault.CodeValidation, "application is %s, not approved or working", app.Status)
	}

	if err := c.apps.SetStatus(ctx, app.ID, models.ApplicationNoShow); err != nil {
		return err
	}
	if err := c.apps.ClearCredential(ctx, app.ID); err != nil {
		return err
	}
	if _, err := c.ledger.Apply(ctx, app.WorkerID, policy.ReasonNoShow, now); err != nil {
		return err
	}
	return nil
}

// Candidate pairs an applicant with their advisory match score for owner-side
// ranking. The score sorts the list and nothing else.
type Candidate struct {
	Application models.JobApplication       `json:"application"`
	Worker      models.WorkerProfile        `json:"worker"`
	Result      qualification.Qualification `json:"qualification"`
}

// Candidates lists a job's applicants sorted by descending match score.
func (c *Controller) Candidates(ctx context.Context, jobID, ownerID int64, now time.Time) ([]Candidate, error) {
	job, err := c.jobs.GetJobByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, fault.New(fault.CodeNotFound, "job not found")
	}
	if job.OwnerID != ownerID {
		return nil, fault.New(fault.CodeNotAuthorized, "job belongs to another owner")
	}

	apps, err := c.apps.ListByJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	out := make([]Candidate, 0, len(apps))
	for _, app := range apps {
		w, err := c.workers.GetWorkerByID(ctx, app.WorkerID)
		if err != nil {
			return nil, err
		}
		if w == nil {
			continue
		}
		completed, err := c.apps.CountCompletedByWorker(ctx, w.ID)
		if err != nil {
			return nil, err
		}
		w.PasswordHash = ""
		out = append(out, Candidate{
			Application: app,
			Worker:      *w,
			Result:      c.eval.Evaluate(w, completed, job, now),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Result.Score > out[j].Result.Score })
	return out, nil
}

func (c *Controller) authorize(ctx context.Context, applicationID, ownerID int64) (*models.JobApplication, *models.Job, error) {
	app, err := c.apps.GetApplicationByID(ctx, applicationID)
	if err != nil {
		return nil, nil, err
	}
	if app == nil {
		return nil, nil, fault.New(fault.CodeNotFound, "application not found")
	}
	job, err := c.jobs.GetJobByID(ctx, app.JobID)
	if err != nil {
		return nil, nil, err
	}
	if job == nil {
		return nil, nil, fault.New(fault.CodeNotFound, "job not found")
	}
	if job.OwnerID != ownerID {
		return nil, nil, fault.New(fault.CodeNotAuthorized, "application belongs to another owner's job")
	}
	return app, job, nil
}

// mintCredential issues the opaque check-in bearer token. A v4 uuid gives
// 122 random bits; the value is stored server-side against the application
// and never parsed beyond the expiry comparison.
func (c *Controller) mintCredential(now time.Time) (string, time.Time) {
	return uuid.NewString(), now.Add(c.pol.CredentialTTL())
}
