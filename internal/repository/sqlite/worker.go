package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/minhvh/vieclam/internal/fault"
	"github.com/minhvh/vieclam/internal/models"
)

func (r *SQLiteRepo) CreateWorker(ctx context.Context, w *models.WorkerProfile) (int64, error) {
	if w == nil {
		return 0, fmt.Errorf("worker is nil")
	}
	res, err := r.conn.Exec(ctx,
		`INSERT INTO workers (name, email, password_hash, reliability_score, is_account_frozen, is_verified, created) VALUES (?, ?, ?, ?, 0, ?, ?)`,
		w.Name, w.Email, w.PasswordHash, w.ReliabilityScore, w.IsVerified, millis(time.Now()))
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fault.New(fault.CodeDuplicate, "email already registered")
		}
		return 0, fmt.Errorf("create worker: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepo) GetWorkerByID(ctx context.Context, id int64) (*models.WorkerProfile, error) {
	return r.getWorker(ctx, `SELECT id, name, email, password_hash, reliability_score, is_account_frozen, frozen_until, is_verified, created FROM workers WHERE id = ?`, id)
}

func (r *SQLiteRepo) GetWorkerByEmail(ctx context.Context, email string) (*models.WorkerProfile, error) {
	return r.getWorker(ctx, `SELECT id, name, email, password_hash, reliability_score, is_account_frozen, frozen_until, is_verified, created FROM workers WHERE email = ?`, email)
}

func (r *SQLiteRepo) getWorker(ctx context.Context, query string, arg any) (*models.WorkerProfile, error) {
	row := r.conn.QueryRow(ctx, query, arg)
	var (
		w           models.WorkerProfile
		frozen      int
		verified    int
		frozenUntil sql.NullInt64
		created     int64
	)
	if err := row.Scan(&w.ID, &w.Name, &w.Email, &w.PasswordHash, &w.ReliabilityScore, &frozen, &frozenUntil, &verified, &created); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get worker: %w", err)
	}
	w.IsAccountFrozen = frozen != 0
	w.IsVerified = verified != 0
	w.Created = fromMillis(created)
	if frozenUntil.Valid {
		t := fromMillis(frozenUntil.Int64)
		w.FrozenUntil = &t
	}

	skills, err := r.ListLanguageSkills(ctx, w.ID)
	if err != nil {
		return nil, err
	}
	w.LanguageSkills = skills

	return &w, nil
}

func (r *SQLiteRepo) UpsertLanguageSkill(ctx context.Context, s *models.LanguageSkill) (int64, error) {
	if s == nil {
		return 0, fmt.Errorf("skill is nil")
	}
	res, err := r.conn.Exec(ctx,
		`INSERT INTO language_skills (worker_id, language, level, verification_status) VALUES (?, ?, ?, ?)
		 ON CONFLICT(worker_id, language) DO UPDATE SET level=excluded.level, verification_status=excluded.verification_status`,
		s.WorkerID, s.Language, s.Level, s.VerificationStatus)
	if err != nil {
		return 0, fmt.Errorf("upsert language skill: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepo) ListLanguageSkills(ctx context.Context, workerID int64) ([]models.LanguageSkill, error) {
	rows, err := r.conn.QueryRows(ctx,
		`SELECT id, worker_id, language, level, verification_status FROM language_skills WHERE worker_id = ? ORDER BY language`, workerID)
	if err != nil {
		return nil, fmt.Errorf("list language skills: %w", err)
	}
	defer rows.Close()

	var out []models.LanguageSkill
	for rows.Next() {
		var s models.LanguageSkill
		if err := rows.Scan(&s.ID, &s.WorkerID, &s.Language, &s.Level, &s.VerificationStatus); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) ClearExpiredFreeze(ctx context.Context, workerID int64, now time.Time) error {
	_, err := r.conn.Exec(ctx,
		`UPDATE workers SET is_account_frozen = 0, frozen_until = NULL WHERE id = ? AND is_account_frozen = 1 AND frozen_until IS NOT NULL AND frozen_until <= ?`,
		workerID, millis(now))
	if err != nil {
		return fmt.Errorf("clear expired freeze: %w", err)
	}
	return nil
}
