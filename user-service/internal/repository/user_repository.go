package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/changzer/choppy/shared/cqrs"
	"github.com/changzer/choppy/shared/database"
	"github.com/changzer/choppy/shared/exception"
	"github.com/changzer/choppy/shared/models"
	"github.com/lib/pq"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// UserWriteRepository handles all state-mutating operations for users.
// It operates exclusively against the PostgreSQL write store (source of truth).
type UserWriteRepository struct {
	db *sql.DB
}

func NewUserWriteRepository(db *sql.DB) *UserWriteRepository {
	return &UserWriteRepository{db: db}
}

func (r *UserWriteRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (account, name, org_id, station_id, email, mobile, sex, status,
			work_describe, password, password_error_num, password_expire_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		user.Account, user.Name, user.OrgID, user.StationID, user.Email, user.Mobile, user.Sex, user.Status,
		user.WorkDescribe, user.Password, user.PasswordErrorNum, user.PasswordExpireTime,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return exception.Conflict(fmt.Sprintf("account [%s] already exists", user.Account))
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID fetches the full write model (including the password hash) for internal operations.
func (r *UserWriteRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.id = $1 AND u.deleted_at IS NULL`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, exception.NotFound("user")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// Update applies the non-nil fields of cmd. passwordHash replaces the stored
// hash when set. The password expiry is always cleared.
func (r *UserWriteRepository) Update(ctx context.Context, cmd cqrs.UpdateUserCommand, passwordHash *string, at time.Time) error {
	query := `
		UPDATE users
		SET name = COALESCE($2, name),
			org_id = COALESCE($3, org_id),
			station_id = COALESCE($4, station_id),
			email = COALESCE($5, email),
			mobile = COALESCE($6, mobile),
			sex = COALESCE($7, sex),
			status = COALESCE($8, status),
			work_describe = COALESCE($9, work_describe),
			password = COALESCE($10, password),
			password_expire_time = NULL,
			updated_at = $11
		WHERE id = $1 AND deleted_at IS NULL
	`
	res, err := r.db.ExecContext(ctx, query,
		cmd.UserID, cmd.Name, cmd.OrgID, cmd.StationID, cmd.Email, cmd.Mobile, cmd.Sex, cmd.Status,
		cmd.WorkDescribe, passwordHash, at,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return requireRows(res, "user")
}

// Remove drops the role links of ids and soft-deletes the users in one
// transaction. It returns the number of users removed.
func (r *UserWriteRepository) Remove(ctx context.Context, ids []int64) (int64, error) {
	var removed int64
	err := database.WithTx(ctx, r.db, func(tx database.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id = ANY($1)`, pq.Array(ids)); err != nil {
			return fmt.Errorf("failed to delete user roles: %w", err)
		}
		res, err := tx.ExecContext(ctx,
			`UPDATE users SET deleted_at = NOW() WHERE id = ANY($1) AND deleted_at IS NULL`, pq.Array(ids))
		if err != nil {
			return fmt.Errorf("failed to delete users: %w", err)
		}
		removed, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check rows affected: %w", err)
		}
		return nil
	})
	return removed, err
}

// ResetPasswords stores passwordHash on every listed user and clears their
// error counters and expiry.
func (r *UserWriteRepository) ResetPasswords(ctx context.Context, ids []int64, passwordHash string) (int64, error) {
	query := `
		UPDATE users
		SET password = $2, password_error_num = 0, password_error_last_time = NULL,
			password_expire_time = NULL, updated_at = NOW()
		WHERE id = ANY($1) AND deleted_at IS NULL
	`
	res, err := r.db.ExecContext(ctx, query, pq.Array(ids), passwordHash)
	if err != nil {
		return 0, fmt.Errorf("failed to reset passwords: %w", err)
	}
	return res.RowsAffected()
}

func (r *UserWriteRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	query := `
		UPDATE users SET password = $2, password_expire_time = NULL, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	res, err := r.db.ExecContext(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return requireRows(res, "user")
}

func (r *UserWriteRepository) ResetPasswordErrorNum(ctx context.Context, id int64) (int64, error) {
	query := `
		UPDATE users SET password_error_num = 0, password_error_last_time = NULL
		WHERE id = $1 AND deleted_at IS NULL
	`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return 0, fmt.Errorf("failed to reset password error count: %w", err)
	}
	return res.RowsAffected()
}

func (r *UserWriteRepository) IncrPasswordErrorNum(ctx context.Context, id int64, at time.Time) error {
	query := `
		UPDATE users SET password_error_num = password_error_num + 1, password_error_last_time = $2
		WHERE id = $1 AND deleted_at IS NULL
	`
	res, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("failed to increment password error count: %w", err)
	}
	return requireRows(res, "user")
}

// UpdateLastLoginTime stamps the login time of account and returns the id of
// the user it belongs to.
func (r *UserWriteRepository) UpdateLastLoginTime(ctx context.Context, account string, at time.Time) (int64, error) {
	query := `UPDATE users SET last_login_time = $2 WHERE account = $1 AND deleted_at IS NULL RETURNING id`
	var id int64
	err := r.db.QueryRowContext(ctx, query, account, at).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, exception.NotFound("user")
	}
	if err != nil {
		return 0, fmt.Errorf("failed to update login time: %w", err)
	}
	return id, nil
}

func (r *UserWriteRepository) UpdateAvatar(ctx context.Context, id int64, key string) error {
	query := `UPDATE users SET avatar = $2, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, id, key)
	if err != nil {
		return fmt.Errorf("failed to update avatar: %w", err)
	}
	return requireRows(res, "user")
}

// ReplaceRoles makes roleIDs the complete role set of userID.
func (r *UserWriteRepository) ReplaceRoles(ctx context.Context, userID int64, roleIDs []int64) error {
	return database.WithTx(ctx, r.db, func(tx database.DBTX) error {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1 AND deleted_at IS NULL)`, userID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check user: %w", err)
		}
		if !exists {
			return exception.NotFound("user")
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("failed to clear user roles: %w", err)
		}
		if len(roleIDs) == 0 {
			return nil
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO user_roles (role_id, user_id) SELECT unnest($2::bigint[]), $1::bigint`,
			userID, pq.Array(roleIDs))
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation {
				return exception.NotFound("role")
			}
			return fmt.Errorf("failed to assign roles: %w", err)
		}
		return nil
	})
}

// DetachOrgs clears org and station of users in the removed orgs and returns
// the affected user ids.
func (r *UserWriteRepository) DetachOrgs(ctx context.Context, orgIDs []int64) ([]int64, error) {
	return r.detach(ctx,
		`UPDATE users SET org_id = NULL, station_id = NULL, updated_at = NOW()
		 WHERE org_id = ANY($1) AND deleted_at IS NULL RETURNING id`, orgIDs)
}

// DetachStations clears the station of users holding one of the removed
// stations and returns the affected user ids.
func (r *UserWriteRepository) DetachStations(ctx context.Context, stationIDs []int64) ([]int64, error) {
	return r.detach(ctx,
		`UPDATE users SET station_id = NULL, updated_at = NOW()
		 WHERE station_id = ANY($1) AND deleted_at IS NULL RETURNING id`, stationIDs)
}

func (r *UserWriteRepository) detach(ctx context.Context, query string, ids []int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to detach users: %w", err)
	}
	defer rows.Close()

	var userIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		userIDs = append(userIDs, id)
	}
	return userIDs, rows.Err()
}

func requireRows(res sql.Result, what string) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return exception.NotFound(what)
	}
	return nil
}
