package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/minhvh/vieclam/internal/fault"
	"github.com/minhvh/vieclam/internal/models"
)

func (r *SQLiteRepo) CreateRecord(ctx context.Context, rec *models.CheckinRecord) (int64, error) {
	if rec == nil {
		return 0, fmt.Errorf("checkin record is nil")
	}
	res, err := r.conn.Exec(ctx,
		`INSERT INTO checkin_records (application_id, checkin_type, checkin_time, lat, lng) VALUES (?, ?, ?, ?, ?)`,
		rec.ApplicationID, rec.Type, millis(rec.Time), rec.Lat, rec.Lng)
	if err != nil {
		// the (application_id, checkin_type) unique index makes a replayed
		// scan fail here instead of double-crediting
		if isUniqueViolation(err) {
			return 0, fault.Newf(fault.CodeCredentialUsed, "%s already recorded", rec.Type)
		}
		return 0, fmt.Errorf("create checkin record: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepo) GetRecord(ctx context.Context, applicationID int64, typ models.CheckinType) (*models.CheckinRecord, error) {
	row := r.conn.QueryRow(ctx,
		`SELECT id, application_id, checkin_type, checkin_time, lat, lng FROM checkin_records WHERE application_id = ? AND checkin_type = ?`,
		applicationID, typ)
	var (
		rec models.CheckinRecord
		ts  int64
	)
	if err := row.Scan(&rec.ID, &rec.ApplicationID, &rec.Type, &ts, &rec.Lat, &rec.Lng); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get checkin record: %w", err)
	}
	rec.Time = fromMillis(ts)
	return &rec, nil
}
