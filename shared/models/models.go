package models

import "time"

const (
	SexMale   = "M"
	SexFemale = "W"
	SexNone   = "N"
)

// User is the write model. Password holds the bcrypt hash.
type User struct {
	ID                    int64      `json:"id"`
	Account               string     `json:"account"`
	Name                  string     `json:"name"`
	OrgID                 *int64     `json:"orgId,omitempty"`
	StationID             *int64     `json:"stationId,omitempty"`
	Email                 string     `json:"email"`
	Mobile                string     `json:"mobile"`
	Sex                   string     `json:"sex"`
	Status                bool       `json:"status"`
	Avatar                string     `json:"avatar"`
	WorkDescribe          string     `json:"workDescribe"`
	Password              string     `json:"-"`
	PasswordErrorNum      int        `json:"passwordErrorNum"`
	PasswordErrorLastTime *time.Time `json:"passwordErrorLastTime,omitempty"`
	PasswordExpireTime    *time.Time `json:"passwordExpireTime,omitempty"`
	LastLoginTime         *time.Time `json:"lastLoginTime,omitempty"`
	CreatedAt             time.Time  `json:"createTime"`
	UpdatedAt             time.Time  `json:"updateTime"`
}

type Role struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Code     string `json:"code"`
	Describe string `json:"describe"`
	Status   bool   `json:"status"`
	Readonly bool   `json:"readonly"`
}

// UserRole links a user to a role.
type UserRole struct {
	ID     int64 `json:"id"`
	RoleID int64 `json:"roleId"`
	UserID int64 `json:"userId"`
}

// Org is a node of the organisation tree. TreePath lists the ancestor ids
// between commas, e.g. ",1,5," for a grandchild of org 1; roots have ",".
type Org struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Abbreviation string    `json:"abbreviation"`
	ParentID     int64     `json:"parentId"`
	TreePath     string    `json:"treePath"`
	SortValue    int       `json:"sortValue"`
	Status       bool      `json:"status"`
	Describe     string    `json:"describe"`
	CreatedAt    time.Time `json:"createTime"`
	UpdatedAt    time.Time `json:"updateTime"`
}

// Station is a post inside an org.
type Station struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	OrgID     *int64    `json:"orgId,omitempty"`
	Status    bool      `json:"status"`
	Describe  string    `json:"describe"`
	CreatedAt time.Time `json:"createTime"`
	UpdatedAt time.Time `json:"updateTime"`
}
