package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/minhvh/vieclam/internal/models"
)

const jobColumns = `id, owner_id, title, required_language, required_language_level, min_reliability_score, shift_start, shift_end, site_lat, site_lng, max_workers, current_workers, status, created`

func (r *SQLiteRepo) CreateJob(ctx context.Context, j *models.Job) (int64, error) {
	if j == nil {
		return 0, fmt.Errorf("job is nil")
	}
	if j.Status == "" {
		j.Status = models.JobOpen
	}
	res, err := r.conn.Exec(ctx,
		`INSERT INTO jobs (owner_id, title, required_language, required_language_level, min_reliability_score, shift_start, shift_end, site_lat, site_lng, max_workers, current_workers, status, created)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		j.OwnerID, j.Title, j.RequiredLanguage, j.RequiredLevel, j.MinReliabilityScore,
		millis(j.ShiftStart), millis(j.ShiftEnd), j.SiteLat, j.SiteLng, j.MaxWorkers, j.Status, millis(time.Now()))
	if err != nil {
		return 0, fmt.Errorf("create job: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepo) GetJobByID(ctx context.Context, id int64) (*models.Job, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	j, err := scanJob(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	return j, nil
}

func (r *SQLiteRepo) ListOpenJobs(ctx context.Context, limit, offset int) ([]models.Job, error) {
	rows, err := r.conn.QueryRows(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE status = 'open' ORDER BY shift_start ASC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list open jobs: %w", err)
	}
	defer rows.Close()

	var out []models.Job
	for rows.Next() {
		j, err := scanJob(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *j)
	}
	return out, rows.Err()
}

// ReserveSlot is the conditional increment guarding against overcounting:
// the WHERE clause loses the race instead of the application code.
func (r *SQLiteRepo) ReserveSlot(ctx context.Context, jobID int64) (bool, bool, error) {
	res, err := r.conn.Exec(ctx,
		`UPDATE jobs SET current_workers = current_workers + 1,
		        status = CASE WHEN current_workers + 1 >= max_workers THEN 'filled' ELSE status END
		 WHERE id = ? AND status = 'open' AND current_workers < max_workers`, jobID)
	if err != nil {
		return false, false, fmt.Errorf("reserve slot: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, false, err
	}
	if n == 0 {
		return false, false, nil
	}

	var status string
	if err := r.conn.QueryRow(ctx, `SELECT status FROM jobs WHERE id = ?`, jobID).Scan(&status); err != nil {
		return true, false, fmt.Errorf("reserve slot status: %w", err)
	}
	return true, status == string(models.JobFilled), nil
}

func (r *SQLiteRepo) ReleaseSlot(ctx context.Context, jobID int64) error {
	_, err := r.conn.Exec(ctx,
		`UPDATE jobs SET current_workers = current_workers - 1,
		        status = CASE WHEN status = 'filled' THEN 'open' ELSE status END
		 WHERE id = ? AND current_workers > 0`, jobID)
	if err != nil {
		return fmt.Errorf("release slot: %w", err)
	}
	return nil
}

func (r *SQLiteRepo) UpdateJobStatus(ctx context.Context, id int64, status models.JobStatus) error {
	_, err := r.conn.Exec(ctx, `UPDATE jobs SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("update job status: %w", err)
	}
	return nil
}

func scanJob(scan func(...any) error) (*models.Job, error) {
	var (
		j                      models.Job
		shiftStart, shiftEnd   int64
		created                int64
	)
	if err := scan(&j.ID, &j.OwnerID, &j.Title, &j.RequiredLanguage, &j.RequiredLevel, &j.MinReliabilityScore,
		&shiftStart, &shiftEnd, &j.SiteLat, &j.SiteLng, &j.MaxWorkers, &j.CurrentWorkers, &j.Status, &created); err != nil {
		return nil, err
	}
	j.ShiftStart = fromMillis(shiftStart)
	j.ShiftEnd = fromMillis(shiftEnd)
	j.Created = fromMillis(created)
	return &j, nil
}
