package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageParamsNormalize(t *testing.T) {
	p := PageParams{}.Normalize()
	assert.Equal(t, int64(1), p.Current)
	assert.Equal(t, int64(DefaultPageSize), p.Size)
	assert.Equal(t, int64(0), p.Offset())

	p = PageParams{Current: 3, Size: 10000}.Normalize()
	assert.Equal(t, int64(MaxPageSize), p.Size)
	assert.Equal(t, int64(2*MaxPageSize), p.Offset())
}

func TestPageParamsHugeCurrent(t *testing.T) {
	p := PageParams{Current: 1 << 62, Size: MaxPageSize}.Normalize()
	assert.Equal(t, int64(MaxCurrent), p.Current)
	assert.Positive(t, p.Offset())
	assert.Equal(t, int64((MaxCurrent-1)*MaxPageSize), p.Offset())

	for _, size := range []int64{1, DefaultPageSize, MaxPageSize} {
		p := PageParams{Current: math.MaxInt64, Size: size}.Normalize()
		assert.GreaterOrEqual(t, p.Offset(), int64(0), "size=%d", size)
	}

	raw := PageParams{Current: 1 << 62, Size: MaxPageSize}
	assert.Equal(t, int64(math.MaxInt64), raw.Offset())
	assert.Equal(t, int64(0), PageParams{Current: 0, Size: 10}.Offset())
}

func TestNewPage(t *testing.T) {
	page := NewPage[int](PageParams{Current: 1, Size: 10}, 21, nil)
	assert.Equal(t, int64(3), page.Pages)
	assert.NotNil(t, page.Records)
}

func TestOrgTreePaths(t *testing.T) {
	org := Org{ID: 5, TreePath: ",1,"}
	assert.Equal(t, ",1,5,", org.ChildTreePath())
	assert.Equal(t, []int64{1}, org.AncestorIDs())

	root := Org{ID: 1, TreePath: ","}
	assert.Empty(t, root.AncestorIDs())
}

func TestBuildOrgTree(t *testing.T) {
	orgs := []Org{
		{ID: 1, Name: "HQ", ParentID: 0, TreePath: ","},
		{ID: 2, Name: "Sales", ParentID: 1, TreePath: ",1,"},
		{ID: 3, Name: "East", ParentID: 2, TreePath: ",1,2,"},
		{ID: 4, Name: "Ops", ParentID: 1, TreePath: ",1,"},
		{ID: 9, Name: "Orphan", ParentID: 42, TreePath: ",42,"},
	}
	roots := BuildOrgTree(orgs)
	require.Len(t, roots, 2)
	assert.Equal(t, "HQ", roots[0].Name)
	assert.Equal(t, "Orphan", roots[1].Name)
	require.Len(t, roots[0].Children, 2)
	assert.Equal(t, "Sales", roots[0].Children[0].Name)
	require.Len(t, roots[0].Children[0].Children, 1)
	assert.Equal(t, "East", roots[0].Children[0].Children[0].Name)
}

func TestUserViewHidesPassword(t *testing.T) {
	u := &User{ID: 1, Account: "admin", Password: "$2a$hash"}
	v := u.View()
	assert.Equal(t, "admin", v.Account)
}
