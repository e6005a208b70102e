// Package mock holds an in-memory implementation of the repository
// interfaces for unit tests. Semantics mirror the sqlite implementation,
// including the clamp, the conditional slot increment and the unique
// application constraint.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/minhvh/vieclam/internal/fault"
	"github.com/minhvh/vieclam/internal/models"
	"github.com/minhvh/vieclam/pkg/repository"
)

type Store struct {
	mu sync.Mutex

	workers      map[int64]*models.WorkerProfile
	owners       map[int64]*models.Owner
	jobs         map[int64]*models.Job
	applications map[int64]*models.JobApplication
	events       []models.ReliabilityEvent
	records      map[int64]map[models.CheckinType]*models.CheckinRecord

	nextID int64

	// FailWrites makes every mutating call return this error, for testing
	// infrastructure-failure propagation.
	FailWrites error
}

var _ repository.WorkerRepo = (*Store)(nil)
var _ repository.OwnerRepo = (*Store)(nil)
var _ repository.JobRepo = (*Store)(nil)
var _ repository.ApplicationRepo = (*Store)(nil)
var _ repository.ReliabilityRepo = (*Store)(nil)
var _ repository.CheckinRepo = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		workers:      make(map[int64]*models.WorkerProfile),
		owners:       make(map[int64]*models.Owner),
		jobs:         make(map[int64]*models.Job),
		applications: make(map[int64]*models.JobApplication),
		records:      make(map[int64]map[models.CheckinType]*models.CheckinRecord),
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// --- WorkerRepo

func (s *Store) CreateWorker(ctx context.Context, w *models.WorkerProfile) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites != nil {
		return 0, s.FailWrites
	}
	cp := *w
	cp.ID = s.id()
	s.workers[cp.ID] = &cp
	return cp.ID, nil
}

func (s *Store) GetWorkerByID(ctx context.Context, id int64) (*models.WorkerProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.workers[id]
	if !ok {
		return nil, nil
	}
	cp := *w
	cp.LanguageSkills = append([]models.LanguageSkill(nil), w.LanguageSkills...)
	return &cp, nil
}

func (s *Store) GetWorkerByEmail(ctx context.Context, email string) (*models.WorkerProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.workers {
		if w.Email == email {
			cp := *w
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *Store) UpsertLanguageSkill(ctx context.Context, skill *models.LanguageSkill) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites != nil {
		return 0, s.FailWrites
	}
	w, ok := s.workers[skill.WorkerID]
	if !ok {
		return 0, fault.New(fault.CodeNotFound, "worker not found")
	}
	for i, existing := range w.LanguageSkills {
		if existing.Language == skill.Language {
			skill.ID = existing.ID
			w.LanguageSkills[i] = *skill
			return skill.ID, nil
		}
	}
	skill.ID = s.id()
	w.LanguageSkills = append(w.LanguageSkills, *skill)
	return skill.ID, nil
}

func (s *Store) ListLanguageSkills(ctx context.Context, workerID int64) ([]models.LanguageSkill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.workers[workerID]
	if !ok {
		return nil, nil
	}
	return append([]models.LanguageSkill(nil), w.LanguageSkills...), nil
}

func (s *Store) ClearExpiredFreeze(ctx context.Context, workerID int64, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.workers[workerID]
	if !ok {
		return nil
	}
	if w.IsAccountFrozen && w.FrozenUntil != nil && !now.Before(*w.FrozenUntil) {
		w.IsAccountFrozen = false
		w.FrozenUntil = nil
	}
	return nil
}

// --- OwnerRepo

func (s *Store) CreateOwner(ctx context.Context, o *models.Owner) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites != nil {
		return 0, s.FailWrites
	}
	cp := *o
	cp.ID = s.id()
	s.owners[cp.ID] = &cp
	return cp.ID, nil
}

func (s *Store) GetOwnerByID(ctx context.Context, id int64) (*models.Owner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.owners[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (s *Store) GetOwnerByEmail(ctx context.Context, email string) (*models.Owner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.owners {
		if o.Email == email {
			cp := *o
			return &cp, nil
		}
	}
	return nil, nil
}

// --- JobRepo

func (s *Store) CreateJob(ctx context.Context, j *models.Job) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites != nil {
		return 0, s.FailWrites
	}
	cp := *j
	cp.ID = s.id()
	if cp.Status == "" {
		cp.Status = models.JobOpen
	}
	s.jobs[cp.ID] = &cp
	return cp.ID, nil
}

func (s *Store) GetJobByID(ctx context.Context, id int64) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, nil
	}
	cp := *j
	return &cp, nil
}

func (s *Store) ListOpenJobs(ctx context.Context, limit, offset int) ([]models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Job
	for _, j := range s.jobs {
		if j.Status == models.JobOpen {
			out = append(out, *j)
		}
	}
	return out, nil
}

func (s *Store) ReserveSlot(ctx context.Context, jobID int64) (bool, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites != nil {
		return false, false, s.FailWrites
	}
	j, ok := s.jobs[jobID]
	if !ok || j.Status != models.JobOpen || j.CurrentWorkers >= j.MaxWorkers {
		return false, false, nil
	}
	j.CurrentWorkers++
	if j.CurrentWorkers >= j.MaxWorkers {
		j.Status = models.JobFilled
		return true, true, nil
	}
	return true, false, nil
}

func (s *Store) ReleaseSlot(ctx context.Context, jobID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[jobID]
	if !ok || j.CurrentWorkers == 0 {
		return nil
	}
	j.CurrentWorkers--
	if j.Status == models.JobFilled {
		j.Status = models.JobOpen
	}
	return nil
}

func (s *Store) UpdateJobStatus(ctx context.Context, id int64, status models.JobStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j, ok := s.jobs[id]; ok {
		j.Status = status
	}
	return nil
}

// --- ApplicationRepo

func (s *Store) CreateApplication(ctx context.Context, a *models.JobApplication) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites != nil {
		return 0, s.FailWrites
	}
	for _, existing := range s.applications {
		if existing.JobID == a.JobID && existing.WorkerID == a.WorkerID {
			return 0, fault.New(fault.CodeDuplicate, "already applied to this job")
		}
	}
	cp := *a
	cp.ID = s.id()
	s.applications[cp.ID] = &cp
	return cp.ID, nil
}

func (s *Store) GetApplicationByID(ctx context.Context, id int64) (*models.JobApplication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.applications[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (s *Store) GetByJobAndWorker(ctx context.Context, jobID, workerID int64) (*models.JobApplication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.applications {
		if a.JobID == jobID && a.WorkerID == workerID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *Store) GetByCredential(ctx context.Context, code string) (*models.JobApplication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.applications {
		if a.CheckinQRCode == code && code != "" {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *Store) ListByWorker(ctx context.Context, workerID int64) ([]models.JobApplication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.JobApplication
	for _, a := range s.applications {
		if a.WorkerID == workerID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (s *Store) ListByJob(ctx context.Context, jobID int64) ([]models.JobApplication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.JobApplication
	for _, a := range s.applications {
		if a.JobID == jobID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (s *Store) CountCompletedByWorker(ctx context.Context, workerID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, a := range s.applications {
		if a.WorkerID == workerID && a.Status == models.ApplicationCompleted {
			n++
		}
	}
	return n, nil
}

func (s *Store) SetApproved(ctx context.Context, id int64, approvedAt time.Time, code string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites != nil {
		return s.FailWrites
	}
	a, ok := s.applications[id]
	if !ok {
		return fault.New(fault.CodeNotFound, "application not found")
	}
	a.Status = models.ApplicationApproved
	a.ApprovedAt = &approvedAt
	a.CheckinQRCode = code
	a.CheckinQRExpiresAt = &expiresAt
	return nil
}

func (s *Store) SetStatus(ctx context.Context, id int64, status models.ApplicationStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites != nil {
		return s.FailWrites
	}
	if a, ok := s.applications[id]; ok {
		a.Status = status
	}
	return nil
}

func (s *Store) ClearCredential(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.applications[id]; ok {
		a.CheckinQRCode = ""
		a.CheckinQRExpiresAt = nil
	}
	return nil
}

func (s *Store) AdvanceStatus(ctx context.Context, id int64, from, to models.ApplicationStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites != nil {
		return false, s.FailWrites
	}
	a, ok := s.applications[id]
	if !ok || a.Status != from {
		return false, nil
	}
	a.Status = to
	return true, nil
}

func (s *Store) ListUpcomingShifts(ctx context.Context, now, until time.Time) ([]models.UpcomingShift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.UpcomingShift
	for _, a := range s.applications {
		if a.Status != models.ApplicationApproved && a.Status != models.ApplicationWorking {
			continue
		}
		j, ok := s.jobs[a.JobID]
		if !ok {
			continue
		}
		if !j.ShiftStart.After(now) || j.ShiftStart.After(until) {
			continue
		}
		out = append(out, models.UpcomingShift{Application: *a, JobTitle: j.Title, ShiftStart: j.ShiftStart})
	}
	return out, nil
}

func (s *Store) MarkNotified(ctx context.Context, applicationID int64, threshold string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.applications[applicationID]
	if !ok {
		return false, nil
	}
	switch threshold {
	case "24h":
		if a.Notified24h {
			return false, nil
		}
		a.Notified24h = true
	case "1h":
		if a.Notified1h {
			return false, nil
		}
		a.Notified1h = true
	default:
		return false, fault.Newf(fault.CodeValidation, "unknown threshold %q", threshold)
	}
	return true, nil
}

// --- ReliabilityRepo

func (s *Store) AppendEvent(ctx context.Context, workerID int64, change int, reason string, freezeUntil *time.Time, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites != nil {
		return 0, s.FailWrites
	}
	w, ok := s.workers[workerID]
	if !ok {
		return 0, fault.New(fault.CodeNotFound, "worker not found")
	}

	score := w.ReliabilityScore + change
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	w.ReliabilityScore = score

	if freezeUntil != nil {
		w.IsAccountFrozen = true
		w.FrozenUntil = freezeUntil
	} else if w.IsAccountFrozen && w.FrozenUntil != nil && !now.Before(*w.FrozenUntil) {
		w.IsAccountFrozen = false
		w.FrozenUntil = nil
	}

	s.events = append(s.events, models.ReliabilityEvent{
		ID:             s.id(),
		WorkerID:       workerID,
		ScoreChange:    change,
		Reason:         reason,
		ResultingScore: score,
		Created:        now,
	})
	return score, nil
}

func (s *Store) ListEvents(ctx context.Context, workerID int64) ([]models.ReliabilityEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ReliabilityEvent
	for _, e := range s.events {
		if e.WorkerID == workerID {
			out = append(out, e)
		}
	}
	return out, nil
}

// --- CheckinRepo

func (s *Store) CreateRecord(ctx context.Context, rec *models.CheckinRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites != nil {
		return 0, s.FailWrites
	}
	byType, ok := s.records[rec.ApplicationID]
	if !ok {
		byType = make(map[models.CheckinType]*models.CheckinRecord)
		s.records[rec.ApplicationID] = byType
	}
	if _, exists := byType[rec.Type]; exists {
		return 0, fault.Newf(fault.CodeCredentialUsed, "%s already recorded", rec.Type)
	}
	cp := *rec
	cp.ID = s.id()
	byType[rec.Type] = &cp
	return cp.ID, nil
}

func (s *Store) GetRecord(ctx context.Context, applicationID int64, typ models.CheckinType) (*models.CheckinRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byType, ok := s.records[applicationID]
	if !ok {
		return nil, nil
	}
	rec, ok := byType[typ]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}
