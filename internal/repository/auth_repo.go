package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pitwatch"
)

// ErrOperatorExists is returned by CreateOperator once an account exists.
var ErrOperatorExists = errors.New("an operator account already exists")

// OperatorSQLite keeps the single API operator account in the users table.
type OperatorSQLite struct {
	db *sql.DB
}

func NewOperatorSQLite(db *sql.DB) *OperatorSQLite {
	return &OperatorSQLite{db: db}
}

var _ Authorization = (*OperatorSQLite)(nil)

const (
	countOperatorsSQL = `SELECT COUNT(*) FROM users`
	insertOperatorSQL = `INSERT INTO users (username, password_hash) VALUES (?, ?)`
	selectOperatorSQL = `SELECT id, username, password_hash FROM users WHERE username = ?`
	touchOperatorSQL  = `UPDATE users SET last_login_at = ? WHERE id = ?`
)

// CreateOperator inserts the account if the table is still empty. The count
// and the insert share one transaction so two racing sign-ups cannot both win.
func (r *OperatorSQLite) CreateOperator(ctx context.Context, username, passwordHash string) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin create operator: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var n int
	if err := tx.QueryRowContext(ctx, countOperatorsSQL).Scan(&n); err != nil {
		return 0, fmt.Errorf("count operators: %w", err)
	}
	if n > 0 {
		return 0, ErrOperatorExists
	}
	res, err := tx.ExecContext(ctx, insertOperatorSQL, username, passwordHash)
	if err != nil {
		return 0, fmt.Errorf("insert operator %q: %w", username, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("operator id for %q: %w", username, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit operator %q: %w", username, err)
	}
	return int(id), nil
}

// GetByUsername returns (nil, nil) for an unknown username.
func (r *OperatorSQLite) GetByUsername(ctx context.Context, username string) (*pitwatch.User, error) {
	var u pitwatch.User
	err := r.db.QueryRowContext(ctx, selectOperatorSQL, username).Scan(&u.ID, &u.Username, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select operator %q: %w", username, err)
	}
	return &u, nil
}

// TouchLogin stamps the time of the last successful sign-in.
func (r *OperatorSQLite) TouchLogin(ctx context.Context, id int, at time.Time) error {
	if _, err := r.db.ExecContext(ctx, touchOperatorSQL, at.UTC().Format(time.RFC3339), id); err != nil {
		return fmt.Errorf("touch operator %d: %w", id, err)
	}
	return nil
}
