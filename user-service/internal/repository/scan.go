package repository

import (
	"database/sql"
	"time"

	"github.com/changzer/choppy/shared/models"
)

const userColumns = `
	u.id, u.account, u.name, u.org_id, u.station_id, u.email, u.mobile, u.sex,
	u.status, u.avatar, u.work_describe, u.password, u.password_error_num,
	u.password_error_last_time, u.password_expire_time, u.last_login_time,
	u.created_at, u.updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		user                        models.User
		orgID, stationID            sql.NullInt64
		errorLast, expire, lastSeen sql.NullTime
	)
	if err := row.Scan(
		&user.ID, &user.Account, &user.Name, &orgID, &stationID, &user.Email, &user.Mobile, &user.Sex,
		&user.Status, &user.Avatar, &user.WorkDescribe, &user.Password, &user.PasswordErrorNum,
		&errorLast, &expire, &lastSeen,
		&user.CreatedAt, &user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	user.OrgID = nullInt64(orgID)
	user.StationID = nullInt64(stationID)
	user.PasswordErrorLastTime = nullTime(errorLast)
	user.PasswordExpireTime = nullTime(expire)
	user.LastLoginTime = nullTime(lastSeen)
	return &user, nil
}

func nullInt64(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func nullTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
