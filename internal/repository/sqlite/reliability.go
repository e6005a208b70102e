package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/minhvh/vieclam/internal/models"
)

// AppendEvent records a reliability event and updates the worker's projected
// score in one transaction. The clamp runs inside the UPDATE so concurrent
// events serialize at the database instead of racing in the caller; the
// stored score_change keeps the raw delta even when the clamp truncated it.
func (r *SQLiteRepo) AppendEvent(ctx context.Context, workerID int64, change int, reason string, freezeUntil *time.Time, now time.Time) (int, error) {
	tx, err := r.conn.GetConn().BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin reliability tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if freezeUntil != nil {
		_, err = tx.ExecContext(ctx,
			`UPDATE workers SET reliability_score = MAX(0, MIN(100, reliability_score + ?)), is_account_frozen = 1, frozen_until = ? WHERE id = ?`,
			change, millis(*freezeUntil), workerID)
	} else {
		// a write is the moment a soft-expired freeze gets physically cleared
		_, err = tx.ExecContext(ctx,
			`UPDATE workers SET reliability_score = MAX(0, MIN(100, reliability_score + ?)),
			        is_account_frozen = CASE WHEN frozen_until IS NOT NULL AND frozen_until <= ? THEN 0 ELSE is_account_frozen END,
			        frozen_until = CASE WHEN frozen_until IS NOT NULL AND frozen_until <= ? THEN NULL ELSE frozen_until END
			 WHERE id = ?`,
			change, millis(now), millis(now), workerID)
	}
	if err != nil {
		return 0, fmt.Errorf("apply reliability delta: %w", err)
	}

	var resulting int
	if err := tx.QueryRowContext(ctx, `SELECT reliability_score FROM workers WHERE id = ?`, workerID).Scan(&resulting); err != nil {
		return 0, fmt.Errorf("read resulting score: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO reliability_events (worker_id, score_change, reason, resulting_score, created) VALUES (?, ?, ?, ?, ?)`,
		workerID, change, reason, resulting, millis(now)); err != nil {
		return 0, fmt.Errorf("insert reliability event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit reliability tx: %w", err)
	}
	return resulting, nil
}

func (r *SQLiteRepo) ListEvents(ctx context.Context, workerID int64) ([]models.ReliabilityEvent, error) {
	rows, err := r.conn.QueryRows(ctx,
		`SELECT id, worker_id, score_change, reason, resulting_score, created FROM reliability_events WHERE worker_id = ? ORDER BY id ASC`, workerID)
	if err != nil {
		return nil, fmt.Errorf("list reliability events: %w", err)
	}
	defer rows.Close()

	var out []models.ReliabilityEvent
	for rows.Next() {
		var (
			e       models.ReliabilityEvent
			created int64
		)
		if err := rows.Scan(&e.ID, &e.WorkerID, &e.ScoreChange, &e.Reason, &e.ResultingScore, &created); err != nil {
			return nil, err
		}
		e.Created = fromMillis(created)
		out = append(out, e)
	}
	return out, rows.Err()
}
