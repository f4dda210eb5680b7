package cqrs

import (
	"time"

	"github.com/changzer/choppy/shared/models"
)

// ---------- User queries ----------

type GetUserQuery struct {
	UserID int64
}

type GetUserByAccountQuery struct {
	Account string
}

// UserPageQuery filters the user list. Account and Name match by substring.
type UserPageQuery struct {
	models.PageParams
	Account   string
	Name      string
	OrgID     *int64
	StationID *int64
	Status    *bool
	Sex       string
}

// FindUsersByRoleQuery lists the users holding a role, optionally matching
// keyword against account or name.
type FindUsersByRoleQuery struct {
	RoleID  int64
	Keyword string
}

// ---------- Org queries ----------

type GetOrgQuery struct {
	OrgID int64
}

type OrgPageQuery struct {
	models.PageParams
	Name     string
	ParentID *int64
	Status   *bool
}

// FindChildrenQuery returns the listed orgs together with all descendants.
type FindChildrenQuery struct {
	OrgIDs []int64
}

// ---------- Station queries ----------

type GetStationQuery struct {
	StationID int64
}

// StationPageQuery filters the station list. Name matches by substring.
type StationPageQuery struct {
	models.PageParams
	Name          string
	OrgID         *int64
	Status        *bool
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
