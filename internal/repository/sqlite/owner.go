package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/minhvh/vieclam/internal/fault"
	"github.com/minhvh/vieclam/internal/models"
)

func (r *SQLiteRepo) CreateOwner(ctx context.Context, o *models.Owner) (int64, error) {
	if o == nil {
		return 0, fmt.Errorf("owner is nil")
	}
	res, err := r.conn.Exec(ctx,
		`INSERT INTO owners (name, email, password_hash, created) VALUES (?, ?, ?, ?)`,
		o.Name, o.Email, o.PasswordHash, millis(time.Now()))
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fault.New(fault.CodeDuplicate, "email already registered")
		}
		return 0, fmt.Errorf("create owner: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepo) GetOwnerByID(ctx context.Context, id int64) (*models.Owner, error) {
	return r.getOwner(ctx, `SELECT id, name, email, password_hash, created FROM owners WHERE id = ?`, id)
}

func (r *SQLiteRepo) GetOwnerByEmail(ctx context.Context, email string) (*models.Owner, error) {
	return r.getOwner(ctx, `SELECT id, name, email, password_hash, created FROM owners WHERE email = ?`, email)
}

func (r *SQLiteRepo) getOwner(ctx context.Context, query string, arg any) (*models.Owner, error) {
	row := r.conn.QueryRow(ctx, query, arg)
	var (
		o       models.Owner
		created int64
	)
	if err := row.Scan(&o.ID, &o.Name, &o.Email, &o.PasswordHash, &created); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get owner: %w", err)
	}
	o.Created = fromMillis(created)
	return &o, nil
}
