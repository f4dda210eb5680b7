package cqrs

import (
	"io"
	"time"
)

// ---------- User commands ----------

type SaveUserCommand struct {
	Account      string
	Name         string
	Password     string
	OrgID        *int64
	StationID    *int64
	Email        string
	Mobile       string
	Sex          string
	Status       *bool
	WorkDescribe string
}

// UpdateUserCommand changes only the non-nil fields.
type UpdateUserCommand struct {
	UserID       int64
	Name         *string
	Password     *string
	OrgID        *int64
	StationID    *int64
	Email        *string
	Mobile       *string
	Sex          *string
	Status       *bool
	WorkDescribe *string
}

type RemoveUsersCommand struct {
	UserIDs []int64
}

// ResetPasswordsCommand puts the default password back on every listed user.
type ResetPasswordsCommand struct {
	UserIDs []int64
}

type UpdatePasswordCommand struct {
	UserID          int64
	OldPassword     string
	Password        string
	ConfirmPassword string
}

type AssignRolesCommand struct {
	UserID  int64
	RoleIDs []int64
}

type UploadAvatarCommand struct {
	UserID      int64
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ---------- Org commands ----------

type CreateOrgCommand struct {
	Name         string
	Abbreviation string
	ParentID     int64
	SortValue    int
	Status       *bool
	Describe     string
}

type UpdateOrgCommand struct {
	OrgID        int64
	Name         *string
	Abbreviation *string
	ParentID     *int64
	SortValue    *int
	Status       *bool
	Describe     *string
}

type RemoveOrgsCommand struct {
	OrgIDs []int64
}

// ---------- Station commands ----------

type CreateStationCommand struct {
	Name     string
	OrgID    *int64
	Status   *bool
	Describe string
}

type UpdateStationCommand struct {
	StationID int64
	Name      *string
	OrgID     *int64
	Status    *bool
	Describe  *string
}

type RemoveStationsCommand struct {
	StationIDs []int64
}

// ---------- Auth commands ----------

type LoginCommand struct {
	Account  string
	Password string
	Now      time.Time
}

type RefreshTokenCommand struct {
	Token string
}
