package repository

import (
	"context"
	"time"

	"github.com/minhvh/vieclam/internal/models"
)

// Repository interfaces for domain entities. These are the public contracts
// consumers should depend on; concrete implementations live under internal/.

type WorkerRepo interface {
	CreateWorker(ctx context.Context, w *models.WorkerProfile) (int64, error)
	GetWorkerByID(ctx context.Context, id int64) (*models.WorkerProfile, error)
	GetWorkerByEmail(ctx context.Context, email string) (*models.WorkerProfile, error)
	UpsertLanguageSkill(ctx context.Context, s *models.LanguageSkill) (int64, error)
	ListLanguageSkills(ctx context.Context, workerID int64) ([]models.LanguageSkill, error)
	// ClearExpiredFreeze resets the freeze flag once frozen_until has passed.
	// Callers never rely on it for correctness; the frozen predicate is
	// always computed against frozen_until.
	ClearExpiredFreeze(ctx context.Context, workerID int64, now time.Time) error
}

type OwnerRepo interface {
	CreateOwner(ctx context.Context, o *models.Owner) (int64, error)
	GetOwnerByID(ctx context.Context, id int64) (*models.Owner, error)
	GetOwnerByEmail(ctx context.Context, email string) (*models.Owner, error)
}

type JobRepo interface {
	CreateJob(ctx context.Context, j *models.Job) (int64, error)
	GetJobByID(ctx context.Context, id int64) (*models.Job, error)
	ListOpenJobs(ctx context.Context, limit, offset int) ([]models.Job, error)
	// ReserveSlot atomically increments current_workers while the job is
	// open and capacity remains, marking the job filled when the increment
	// reaches max_workers. reserved is false when the job lost the race.
	ReserveSlot(ctx context.Context, jobID int64) (reserved, nowFilled bool, err error)
	// ReleaseSlot decrements current_workers and reopens a filled job.
	ReleaseSlot(ctx context.Context, jobID int64) error
	UpdateJobStatus(ctx context.Context, id int64, status models.JobStatus) error
}

type ApplicationRepo interface {
	// CreateApplication returns a fault.CodeDuplicate outcome when the
	// (job_id, worker_id) unique constraint rejects the insert.
	CreateApplication(ctx context.Context, a *models.JobApplication) (int64, error)
	GetApplicationByID(ctx context.Context, id int64) (*models.JobApplication, error)
	GetByJobAndWorker(ctx context.Context, jobID, workerID int64) (*models.JobApplication, error)
	GetByCredential(ctx context.Context, code string) (*models.JobApplication, error)
	ListByWorker(ctx context.Context, workerID int64) ([]models.JobApplication, error)
	ListByJob(ctx context.Context, jobID int64) ([]models.JobApplication, error)
	CountCompletedByWorker(ctx context.Context, workerID int64) (int, error)
	// SetApproved stamps approval and attaches a check-in credential.
	SetApproved(ctx context.Context, id int64, approvedAt time.Time, code string, expiresAt time.Time) error
	SetStatus(ctx context.Context, id int64, status models.ApplicationStatus) error
	ClearCredential(ctx context.Context, id int64) error
	// AdvanceStatus moves the row from one status to the next only if it is
	// still in `from`; ok is false when another scan won the race.
	AdvanceStatus(ctx context.Context, id int64, from, to models.ApplicationStatus) (ok bool, err error)
	// ListUpcomingShifts returns approved or working applications whose
	// shift starts in (now, until].
	ListUpcomingShifts(ctx context.Context, now, until time.Time) ([]models.UpcomingShift, error)
	// MarkNotified flips the given notice marker; ok is false when it was
	// already set (idempotent notices).
	MarkNotified(ctx context.Context, applicationID int64, threshold string) (ok bool, err error)
}

type ReliabilityRepo interface {
	// AppendEvent records the event, clamps the projected score to [0,100]
	// and, when freezeUntil is set, freezes the account, all in one
	// transaction. Returns the resulting clamped score.
	AppendEvent(ctx context.Context, workerID int64, change int, reason string, freezeUntil *time.Time, now time.Time) (int, error)
	ListEvents(ctx context.Context, workerID int64) ([]models.ReliabilityEvent, error)
}

type CheckinRepo interface {
	// CreateRecord returns a fault.CodeCredentialUsed outcome when a record
	// of the same type already exists for the application.
	CreateRecord(ctx context.Context, rec *models.CheckinRecord) (int64, error)
	GetRecord(ctx context.Context, applicationID int64, typ models.CheckinType) (*models.CheckinRecord, error)
}
