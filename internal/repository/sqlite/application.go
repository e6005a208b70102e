package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/minhvh/vieclam/internal/fault"
	"github.com/minhvh/vieclam/internal/models"
)

const applicationColumns = `id, job_id, worker_id, status, is_instant_book, applied_at, approved_at, checkin_qr_code, checkin_qr_expires_at, notified_24h, notified_1h`

func (r *SQLiteRepo) CreateApplication(ctx context.Context, a *models.JobApplication) (int64, error) {
	if a == nil {
		return 0, fmt.Errorf("application is nil")
	}
	var approvedAt, code, expiresAt any
	if a.ApprovedAt != nil {
		approvedAt = millis(*a.ApprovedAt)
	}
	if a.CheckinQRCode != "" {
		code = a.CheckinQRCode
	}
	if a.CheckinQRExpiresAt != nil {
		expiresAt = millis(*a.CheckinQRExpiresAt)
	}
	res, err := r.conn.Exec(ctx,
		`INSERT INTO applications (job_id, worker_id, status, is_instant_book, applied_at, approved_at, checkin_qr_code, checkin_qr_expires_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.JobID, a.WorkerID, a.Status, a.IsInstantBook, millis(a.AppliedAt), approvedAt, code, expiresAt)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fault.New(fault.CodeDuplicate, "already applied to this job")
		}
		return 0, fmt.Errorf("create application: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepo) GetApplicationByID(ctx context.Context, id int64) (*models.JobApplication, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+applicationColumns+` FROM applications WHERE id = ?`, id)
	return scanApplication(row.Scan)
}

func (r *SQLiteRepo) GetByJobAndWorker(ctx context.Context, jobID, workerID int64) (*models.JobApplication, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+applicationColumns+` FROM applications WHERE job_id = ? AND worker_id = ?`, jobID, workerID)
	return scanApplication(row.Scan)
}

func (r *SQLiteRepo) GetByCredential(ctx context.Context, code string) (*models.JobApplication, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+applicationColumns+` FROM applications WHERE checkin_qr_code = ?`, code)
	return scanApplication(row.Scan)
}

func (r *SQLiteRepo) ListByWorker(ctx context.Context, workerID int64) ([]models.JobApplication, error) {
	rows, err := r.conn.QueryRows(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE worker_id = ? ORDER BY applied_at DESC`, workerID)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	var out []models.JobApplication
	for rows.Next() {
		a, err := scanApplication(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) ListByJob(ctx context.Context, jobID int64) ([]models.JobApplication, error) {
	rows, err := r.conn.QueryRows(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE job_id = ? ORDER BY applied_at ASC`, jobID)
	if err != nil {
		return nil, fmt.Errorf("list applications by job: %w", err)
	}
	defer rows.Close()

	var out []models.JobApplication
	for rows.Next() {
		a, err := scanApplication(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) CountCompletedByWorker(ctx context.Context, workerID int64) (int, error) {
	var n int
	row := r.conn.QueryRow(ctx, `SELECT COUNT(1) FROM applications WHERE worker_id = ? AND status = 'completed'`, workerID)
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count completed: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepo) SetApproved(ctx context.Context, id int64, approvedAt time.Time, code string, expiresAt time.Time) error {
	_, err := r.conn.Exec(ctx,
		`UPDATE applications SET status = 'approved', approved_at = ?, checkin_qr_code = ?, checkin_qr_expires_at = ? WHERE id = ?`,
		millis(approvedAt), code, millis(expiresAt), id)
	if err != nil {
		return fmt.Errorf("set approved: %w", err)
	}
	return nil
}

func (r *SQLiteRepo) SetStatus(ctx context.Context, id int64, status models.ApplicationStatus) error {
	_, err := r.conn.Exec(ctx, `UPDATE applications SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	return nil
}

func (r *SQLiteRepo) ClearCredential(ctx context.Context, id int64) error {
	_, err := r.conn.Exec(ctx, `UPDATE applications SET checkin_qr_code = NULL, checkin_qr_expires_at = NULL WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	return nil
}

func (r *SQLiteRepo) AdvanceStatus(ctx context.Context, id int64, from, to models.ApplicationStatus) (bool, error) {
	res, err := r.conn.Exec(ctx, `UPDATE applications SET status = ? WHERE id = ? AND status = ?`, to, id, from)
	if err != nil {
		return false, fmt.Errorf("advance status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *SQLiteRepo) ListUpcomingShifts(ctx context.Context, now, until time.Time) ([]models.UpcomingShift, error) {
	rows, err := r.conn.QueryRows(ctx,
		`SELECT a.id, a.job_id, a.worker_id, a.status, a.is_instant_book, a.applied_at, a.approved_at, a.checkin_qr_code, a.checkin_qr_expires_at, a.notified_24h, a.notified_1h, j.title, j.shift_start
		 FROM applications a JOIN jobs j ON j.id = a.job_id
		 WHERE a.status IN ('approved', 'working') AND j.shift_start > ? AND j.shift_start <= ?
		 ORDER BY j.shift_start ASC`,
		millis(now), millis(until))
	if err != nil {
		return nil, fmt.Errorf("list upcoming shifts: %w", err)
	}
	defer rows.Close()

	var out []models.UpcomingShift
	for rows.Next() {
		var (
			a          models.JobApplication
			appliedAt  int64
			approvedAt sql.NullInt64
			code       sql.NullString
			expiresAt  sql.NullInt64
			n24, n1    int
			title      string
			shiftStart int64
		)
		if err := rows.Scan(&a.ID, &a.JobID, &a.WorkerID, &a.Status, &a.IsInstantBook, &appliedAt, &approvedAt, &code, &expiresAt, &n24, &n1, &title, &shiftStart); err != nil {
			return nil, err
		}
		hydrateApplication(&a, appliedAt, approvedAt, code, expiresAt, n24, n1)
		out = append(out, models.UpcomingShift{
			Application: a,
			JobTitle:    title,
			ShiftStart:  fromMillis(shiftStart),
		})
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) MarkNotified(ctx context.Context, applicationID int64, threshold string) (bool, error) {
	var col string
	switch threshold {
	case "24h":
		col = "notified_24h"
	case "1h":
		col = "notified_1h"
	default:
		return false, fmt.Errorf("unknown notice threshold %q", threshold)
	}
	res, err := r.conn.Exec(ctx,
		`UPDATE applications SET `+col+` = 1 WHERE id = ? AND `+col+` = 0`, applicationID)
	if err != nil {
		return false, fmt.Errorf("mark notified: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func scanApplication(scan func(...any) error) (*models.JobApplication, error) {
	var (
		a          models.JobApplication
		appliedAt  int64
		approvedAt sql.NullInt64
		code       sql.NullString
		expiresAt  sql.NullInt64
		n24, n1    int
	)
	if err := scan(&a.ID, &a.JobID, &a.WorkerID, &a.Status, &a.IsInstantBook, &appliedAt, &approvedAt, &code, &expiresAt, &n24, &n1); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan application: %w", err)
	}
	hydrateApplication(&a, appliedAt, approvedAt, code, expiresAt, n24, n1)
	return &a, nil
}

func hydrateApplication(a *models.JobApplication, appliedAt int64, approvedAt sql.NullInt64, code sql.NullString, expiresAt sql.NullInt64, n24, n1 int) {
	a.AppliedAt = fromMillis(appliedAt)
	if approvedAt.Valid {
		t := fromMillis(approvedAt.Int64)
		a.ApprovedAt = &t
	}
	if code.Valid {
		a.CheckinQRCode = code.String
	}
	if expiresAt.Valid {
		t := fromMillis(expiresAt.Int64)
		a.CheckinQRExpiresAt = &t
	}
	a.Notified24h = n24 != 0
	a.Notified1h = n1 != 0
}
