package repository

import (
	"testing"

	"github.com/changzer/choppy/shared/cqrs"
	"github.com/stretchr/testify/assert"
)

func TestUserPageFilter(t *testing.T) {
	orgID := int64(3)
	status := true

	where, args := userPageFilter(cqrs.UserPageQuery{})
	assert.Equal(t, "u.deleted_at IS NULL", where)
	assert.Empty(t, args)

	where, args = userPageFilter(cqrs.UserPageQuery{Account: "adm", OrgID: &orgID, Status: &status, Sex: "W"})
	assert.Equal(t, "u.deleted_at IS NULL AND u.account ILIKE $1 AND u.org_id = $2 AND u.status = $3 AND u.sex = $4", where)
	assert.Equal(t, []any{"%adm%", int64(3), true, "W"}, args)
}
