package models

import (
	"strconv"
	"strings"
	"time"
)

// UserView is the read projection of a user. It never exposes the password.
type UserView struct {
	ID               int64      `json:"id"`
	Account          string     `json:"account"`
	Name             string     `json:"name"`
	OrgID            *int64     `json:"orgId,omitempty"`
	StationID        *int64     `json:"stationId,omitempty"`
	Email            string     `json:"email"`
	Mobile           string     `json:"mobile"`
	Sex              string     `json:"sex"`
	Status           bool       `json:"status"`
	Avatar           string     `json:"avatar"`
	WorkDescribe     string     `json:"workDescribe"`
	PasswordErrorNum int        `json:"passwordErrorNum"`
	LastLoginTime    *time.Time `json:"lastLoginTime,omitempty"`
	CreatedAt        time.Time  `json:"createTime"`
	UpdatedAt        time.Time  `json:"updateTime"`
}

func (u *User) View() *UserView {
	return &UserView{
		ID:               u.ID,
		Account:          u.Account,
		Name:             u.Name,
		OrgID:            u.OrgID,
		StationID:        u.StationID,
		Email:            u.Email,
		Mobile:           u.Mobile,
		Sex:              u.Sex,
		Status:           u.Status,
		Avatar:           u.Avatar,
		WorkDescribe:     u.WorkDescribe,
		PasswordErrorNum: u.PasswordErrorNum,
		LastLoginTime:    u.LastLoginTime,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}

// OrgNode is an org with its children, used for tree responses.
type OrgNode struct {
	Org
	Children []*OrgNode `json:"children"`
}

// StationView carries the owning org's name from a join.
type StationView struct {
	Station
	OrgName string `json:"orgName"`
}

// ChildTreePath is the tree path of org's direct children.
func (o *Org) ChildTreePath() string {
	return o.TreePath + strconv.FormatInt(o.ID, 10) + ","
}

// AncestorIDs parses the tree path back into ids, root first.
func (o *Org) AncestorIDs() []int64 {
	var ids []int64
	for _, part := range strings.Split(strings.Trim(o.TreePath, ","), ",") {
		if id, err := strconv.ParseInt(part, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

// BuildOrgTree nests orgs under their parents. Orgs whose parent is not in
// the slice become roots. Input order is kept among siblings.
func BuildOrgTree(orgs []Org) []*OrgNode {
	nodes := make(map[int64]*OrgNode, len(orgs))
	for i := range orgs {
		nodes[orgs[i].ID] = &OrgNode{Org: orgs[i], Children: []*OrgNode{}}
	}
	roots := []*OrgNode{}
	for i := range orgs {
		node := nodes[orgs[i].ID]
		if parent, ok := nodes[orgs[i].ParentID]; ok && orgs[i].ParentID != orgs[i].ID {
			parent.Children = append(parent.Children, node)
			continue
		}
		roots = append(roots, node)
	}
	return roots
}
