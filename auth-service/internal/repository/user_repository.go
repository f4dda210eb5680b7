package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/changzer/choppy/shared/exception"
	"github.com/changzer/choppy/shared/models"
)

// UserRepository reads the credential columns of users and records login
// outcomes. Profile writes belong to user-service.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const credentialColumns = `
	id, account, name, status, password, password_error_num,
	password_error_last_time, password_expire_time, last_login_time,
	created_at, updated_at`

func scanCredentials(row *sql.Row) (*models.User, error) {
	var (
		user                        models.User
		errorLast, expire, lastSeen sql.NullTime
	)
	err := row.Scan(
		&user.ID, &user.Account, &user.Name, &user.Status, &user.Password, &user.PasswordErrorNum,
		&errorLast, &expire, &lastSeen,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, exception.NotFound("user")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	user.PasswordErrorLastTime = nullTime(errorLast)
	user.PasswordExpireTime = nullTime(expire)
	user.LastLoginTime = nullTime(lastSeen)
	return &user, nil
}

func (r *UserRepository) GetByAccount(ctx context.Context, account string) (*models.User, error) {
	query := `SELECT ` + credentialColumns + ` FROM users WHERE account = $1 AND deleted_at IS NULL`
	return scanCredentials(r.db.QueryRowContext(ctx, query, account))
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + credentialColumns + ` FROM users WHERE id = $1 AND deleted_at IS NULL`
	return scanCredentials(r.db.QueryRowContext(ctx, query, id))
}

// RecordPasswordError bumps the wrong password counter and stamps when it
// happened.
func (r *UserRepository) RecordPasswordError(ctx context.Context, id int64, at time.Time) error {
	query := `
		UPDATE users
		SET password_error_num = password_error_num + 1, password_error_last_time = $2, updated_at = $2
		WHERE id = $1 AND deleted_at IS NULL
	`
	if _, err := r.db.ExecContext(ctx, query, id, at); err != nil {
		return fmt.Errorf("failed to record password error: %w", err)
	}
	return nil
}

// RecordLogin stamps a successful login and clears the error counter.
func (r *UserRepository) RecordLogin(ctx context.Context, id int64, at time.Time) error {
	query := `
		UPDATE users
		SET last_login_time = $2, password_error_num = 0, password_error_last_time = NULL
		WHERE id = $1 AND deleted_at IS NULL
	`
	if _, err := r.db.ExecContext(ctx, query, id, at); err != nil {
		return fmt.Errorf("failed to record login: %w", err)
	}
	return nil
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
