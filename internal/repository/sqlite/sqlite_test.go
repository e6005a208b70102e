package sqlite_test

import (
	"context"
	"testing"
	"time"

	migrations "github.com/minhvh/vieclam/db"
	dbpkg "github.com/minhvh/vieclam/internal/db"
	"github.com/minhvh/vieclam/internal/fault"
	"github.com/minhvh/vieclam/internal/models"
	sqlite "github.com/minhvh/vieclam/internal/repository/sqlite"
)

func setupRepo(t *testing.T) *sqlite.SQLiteRepo {
	t.Helper()
	ctx := context.Background()
	d, err := dbpkg.New(ctx, "file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	if err := dbpkg.Migrate(ctx, d, migrations.Migrations); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return sqlite.New(d, nil)
}

func seedWorker(t *testing.T, repo *sqlite.SQLiteRepo, score int) int64 {
	t.Helper()
	id, err := repo.CreateWorker(context.Background(), &models.WorkerProfile{
		Name:             "Binh",
		Email:            "binh@example.com",
		PasswordHash:     "x",
		ReliabilityScore: score,
	})
	if err != nil {
		t.Fatalf("CreateWorker: %v", err)
	}
	return id
}

func seedJob(t *testing.T, repo *sqlite.SQLiteRepo, maxWorkers int) int64 {
	t.Helper()
	ctx := context.Background()
	ownerID, err := repo.CreateOwner(ctx, &models.Owner{Name: "Chi", Email: "chi@example.com", PasswordHash: "x"})
	if err != nil {
		t.Fatalf("CreateOwner: %v", err)
	}
	start := time.Now().UTC().Add(12 * time.Hour)
	jobID, err := repo.CreateJob(ctx, &models.Job{
		OwnerID:          ownerID,
		Title:            "Weekend prep",
		RequiredLanguage: models.LangJapanese,
		RequiredLevel:    "n4",
		ShiftStart:       start,
		ShiftEnd:         start.Add(5 * time.Hour),
		SiteLat:          10.7769,
		SiteLng:          106.7009,
		MaxWorkers:       maxWorkers,
		Status:           models.JobOpen,
	})
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	return jobID
}

func TestWorkerRoundTrip(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	id := seedWorker(t, repo, 100)

	got, err := repo.GetWorkerByID(ctx, id)
	if err != nil {
		t.Fatalf("GetWorkerByID: %v", err)
	}
	if got == nil || got.Email != "binh@example.com" || got.ReliabilityScore != 100 {
		t.Fatalf("got %+v", got)
	}

	if got, err := repo.GetWorkerByID(ctx, 9999); err != nil || got != nil {
		t.Fatalf("missing worker should be nil, nil; got %+v, %v", got, err)
	}

	skillID, err := repo.UpsertLanguageSkill(ctx, &models.LanguageSkill{
		WorkerID: id, Language: models.LangJapanese, Level: "n3", VerificationStatus: models.VerificationPending,
	})
	if err != nil {
		t.Fatalf("UpsertLanguageSkill: %v", err)
	}
	// upsert on the same language replaces, never duplicates
	if _, err := repo.UpsertLanguageSkill(ctx, &models.LanguageSkill{
		WorkerID: id, Language: models.LangJapanese, Level: "n2", VerificationStatus: models.VerificationVerified,
	}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	skills, err := repo.ListLanguageSkills(ctx, id)
	if err != nil {
		t.Fatalf("ListLanguageSkills: %v", err)
	}
	if len(skills) != 1 || skills[0].Level != "n2" || skills[0].VerificationStatus != models.VerificationVerified {
		t.Fatalf("skills = %+v (first id %d)", skills, skillID)
	}
}

func TestReserveSlotStopsAtCapacity(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	jobID := seedJob(t, repo, 2)

	reserved, filled, err := repo.ReserveSlot(ctx, jobID)
	if err != nil || !reserved || filled {
		t.Fatalf("first reserve: reserved=%v filled=%v err=%v", reserved, filled, err)
	}
	reserved, filled, err = repo.ReserveSlot(ctx, jobID)
	if err != nil || !reserved || !filled {
		t.Fatalf("second reserve should fill the job: reserved=%v filled=%v err=%v", reserved, filled, err)
	}
	reserved, _, err = repo.ReserveSlot(ctx, jobID)
	if err != nil {
		t.Fatalf("third reserve: %v", err)
	}
	if reserved {
		t.Fatal("reserve beyond capacity must fail")
	}

	job, err := repo.GetJobByID(ctx, jobID)
	if err != nil {
		t.Fatal(err)
	}
	if job.CurrentWorkers != 2 || job.Status != models.JobFilled {
		t.Fatalf("job after fills: workers=%d status=%s", job.CurrentWorkers, job.Status)
	}

	if err := repo.ReleaseSlot(ctx, jobID); err != nil {
		t.Fatalf("ReleaseSlot: %v", err)
	}
	job, _ = repo.GetJobByID(ctx, jobID)
	if job.CurrentWorkers != 1 || job.Status != models.JobOpen {
		t.Fatalf("job after release: workers=%d status=%s", job.CurrentWorkers, job.Status)
	}
}

func TestDuplicateApplicationFault(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	workerID := seedWorker(t, repo, 100)
	jobID := seedJob(t, repo, 1)

	app := &models.JobApplication{JobID: jobID, WorkerID: workerID, Status: models.ApplicationPending, AppliedAt: time.Now().UTC()}
	if _, err := repo.CreateApplication(ctx, app); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := repo.CreateApplication(ctx, app)
	if !fault.Is(err, fault.CodeDuplicate) {
		t.Fatalf("second create should hit the unique constraint, got %v", err)
	}
}

func TestAdvanceStatusIsGuarded(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	workerID := seedWorker(t, repo, 100)
	jobID := seedJob(t, repo, 1)

	id, err := repo.CreateApplication(ctx, &models.JobApplication{
		JobID: jobID, WorkerID: workerID, Status: models.ApplicationApproved, AppliedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatal(err)
	}

	ok, err := repo.AdvanceStatus(ctx, id, models.ApplicationApproved, models.ApplicationWorking)
	if err != nil || !ok {
		t.Fatalf("first advance: ok=%v err=%v", ok, err)
	}
	ok, err = repo.AdvanceStatus(ctx, id, models.ApplicationApproved, models.ApplicationWorking)
	if err != nil {
		t.Fatalf("second advance: %v", err)
	}
	if ok {
		t.Fatal("advance from a stale status must report false")
	}
}

func TestAppendEventClampsAndFreezes(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()
	workerID := seedWorker(t, repo, 99)

	// +2 against 99 clamps at 100
	resulting, err := repo.AppendEvent(ctx, workerID, 2, "on_time_checkin", nil, now)
	if err != nil {
		t.Fatalf("AppendEvent: %v", err)
	}
	if resulting != 100 {
		t.Fatalf("resulting = %d, want clamp at 100", resulting)
	}

	freeze := now.Add(7 * 24 * time.Hour)
	resulting, err = repo.AppendEvent(ctx, workerID, -20, "no_show", &freeze, now)
	if err != nil {
		t.Fatalf("AppendEvent no_show: %v", err)
	}
	if resulting != 80 {
		t.Fatalf("resulting = %d, want 80", resulting)
	}

	w, err := repo.GetWorkerByID(ctx, workerID)
	if err != nil {
		t.Fatal(err)
	}
	if !w.IsAccountFrozen || w.FrozenUntil == nil {
		t.Fatalf("no_show must persist the freeze, got %+v", w)
	}
	if got := w.FrozenUntil.Sub(now).Round(time.Second); got != 7*24*time.Hour {
		t.Errorf("frozen_until offset = %v", got)
	}

	events, err := repo.ListEvents(ctx, workerID)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events", len(events))
	}
	// oldest first
	if events[0].ScoreChange != 2 || events[0].ResultingScore != 100 {
		t.Errorf("clamped event must keep the raw delta, got %+v", events[0])
	}
	if events[1].Reason != "no_show" || events[1].ResultingScore != 80 {
		t.Errorf("latest event = %+v", events[1])
	}
}

func TestClearExpiredFreeze(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()
	workerID := seedWorker(t, repo, 50)

	past := now.Add(-time.Hour)
	if _, err := repo.AppendEvent(ctx, workerID, -20, "no_show", &past, now.Add(-8*24*time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := repo.ClearExpiredFreeze(ctx, workerID, now); err != nil {
		t.Fatalf("ClearExpiredFreeze: %v", err)
	}
	w, _ := repo.GetWorkerByID(ctx, workerID)
	if w.IsAccountFrozen {
		t.Fatal("lapsed freeze flag should be cleared")
	}
}

func TestCheckinRecordUniquePerDirection(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	workerID := seedWorker(t, repo, 100)
	jobID := seedJob(t, repo, 1)
	appID, err := repo.CreateApplication(ctx, &models.JobApplication{
		JobID: jobID, WorkerID: workerID, Status: models.ApplicationApproved, AppliedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatal(err)
	}

	rec := &models.CheckinRecord{ApplicationID: appID, Type: models.CheckinTypeIn, Time: time.Now().UTC(), Lat: 10.7769, Lng: 106.7009}
	if _, err := repo.CreateRecord(ctx, rec); err != nil {
		t.Fatalf("CreateRecord: %v", err)
	}
	if _, err := repo.CreateRecord(ctx, rec); !fault.Is(err, fault.CodeCredentialUsed) {
		t.Fatalf("second record in the same direction should fail, got %v", err)
	}

	got, err := repo.GetRecord(ctx, appID, models.CheckinTypeIn)
	if err != nil || got == nil {
		t.Fatalf("GetRecord: %+v, %v", got, err)
	}
	if missing, err := repo.GetRecord(ctx, appID, models.CheckinTypeOut); err != nil || missing != nil {
		t.Fatalf("missing record should be nil, nil; got %+v, %v", missing, err)
	}
}

func TestMarkNotifiedIdempotent(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	workerID := seedWorker(t, repo, 100)
	jobID := seedJob(t, repo, 1)
	appID, err := repo.CreateApplication(ctx, &models.JobApplication{
		JobID: jobID, WorkerID: workerID, Status: models.ApplicationApproved, AppliedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatal(err)
	}

	ok, err := repo.MarkNotified(ctx, appID, "24h")
	if err != nil || !ok {
		t.Fatalf("first mark: ok=%v err=%v", ok, err)
	}
	ok, err = repo.MarkNotified(ctx, appID, "24h")
	if err != nil {
		t.Fatalf("second mark: %v", err)
	}
	if ok {
		t.Fatal("second mark must be a no-op")
	}

	shifts, err := repo.ListUpcomingShifts(ctx, time.Now().UTC(), time.Now().UTC().Add(24*time.Hour))
	if err != nil {
		t.Fatalf("ListUpcomingShifts: %v", err)
	}
	if len(shifts) != 1 || !shifts[0].Application.Notified24h || shifts[0].Application.Notified1h {
		t.Fatalf("shifts = %+v", shifts)
	}
}

func TestGetByCredential(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	workerID := seedWorker(t, repo, 100)
	jobID := seedJob(t, repo, 1)
	now := time.Now().UTC()
	expires := now.Add(24 * time.Hour)

	appID, err := repo.CreateApplication(ctx, &models.JobApplication{
		JobID: jobID, WorkerID: workerID, Status: models.ApplicationApproved, AppliedAt: now,
		CheckinQRCode: "cred-1", CheckinQRExpiresAt: &expires,
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := repo.GetByCredential(ctx, "cred-1")
	if err != nil || got == nil || got.ID != appID {
		t.Fatalf("GetByCredential: %+v, %v", got, err)
	}
	if got.CheckinQRExpiresAt == nil {
		t.Fatal("expiry not hydrated")
	}

	if err := repo.ClearCredential(ctx, appID); err != nil {
		t.Fatalf("ClearCredential: %v", err)
	}
	if got, err := repo.GetByCredential(ctx, "cred-1"); err != nil || got != nil {
		t.Fatalf("cleared credential should resolve to nil, got %+v, %v", got, err)
	}
}
