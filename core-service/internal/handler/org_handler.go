package handler

import (
	"context"
	"net/http"

	"github.com/changzer/choppy/shared/cqrs"
	"github.com/changzer/choppy/shared/middleware"
	"github.com/changzer/choppy/shared/models"
	"github.com/changzer/choppy/shared/result"
	"github.com/gin-gonic/gin"
)

// OrgCommander defines the write-side operations used by OrgHandler.
type OrgCommander interface {
	CreateOrg(context.Context, cqrs.CreateOrgCommand) (*models.Org, error)
	UpdateOrg(context.Context, cqrs.UpdateOrgCommand) (*models.Org, error)
	Remove(context.Context, cqrs.RemoveOrgsCommand) ([]int64, error)
}

// OrgQuerier defines the read-side operations used by OrgHandler.
type OrgQuerier interface {
	GetOrg(context.Context, cqrs.GetOrgQuery) (*models.Org, error)
	FindPage(context.Context, cqrs.OrgPageQuery) (*models.Page[models.Org], error)
	FindChildren(context.Context, cqrs.FindChildrenQuery) ([]models.Org, error)
	Tree(context.Context) ([]*models.OrgNode, error)
}

type OrgHandler struct {
	commands OrgCommander
	queries  OrgQuerier
}

type CreateOrgRequest struct {
	Name         string `json:"name" validate:"required,max=255"`
	Abbreviation string `json:"abbreviation" validate:"max=255"`
	ParentID     int64  `json:"parentId" validate:"gte=0"`
	SortValue    int    `json:"sortValue"`
	Status       *bool  `json:"status"`
	Describe     string `json:"describe" validate:"max=255"`
}

type UpdateOrgRequest struct {
	Name         *string `json:"name" validate:"omitempty,min=1,max=255"`
	Abbreviation *string `json:"abbreviation" validate:"omitempty,max=255"`
	ParentID     *int64  `json:"parentId" validate:"omitempty,gte=0"`
	SortValue    *int    `json:"sortValue"`
	Status       *bool   `json:"status"`
	Describe     *string `json:"describe" validate:"omitempty,max=255"`
}

type OrgPageRequest struct {
	models.PageParams
	Name     string `form:"name"`
	ParentID *int64 `form:"parentId"`
	Status   *bool  `form:"status"`
}

func NewOrgHandler(commands OrgCommander, queries OrgQuerier) *OrgHandler {
	return &OrgHandler{commands: commands, queries: queries}
}

func (h *OrgHandler) CreateOrg(c *gin.Context) {
	var req CreateOrgRequest
	if err := middleware.BindJSON(c, &req); err != nil {
		middleware.Fail(c, err)
		return
	}

	org, err := h.commands.CreateOrg(c.Request.Context(), cqrs.CreateOrgCommand{
		Name:         req.Name,
		Abbreviation: req.Abbreviation,
		ParentID:     req.ParentID,
		SortValue:    req.SortValue,
		Status:       req.Status,
		Describe:     req.Describe,
	})
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	result.Success(c, http.StatusCreated, org)
}

func (h *OrgHandler) FindPage(c *gin.Context) {
	var req OrgPageRequest
	if err := middleware.BindQuery(c, &req); err != nil {
		middleware.Fail(c, err)
		return
	}

	page, err := h.queries.FindPage(c.Request.Context(), cqrs.OrgPageQuery{
		PageParams: req.PageParams,
		Name:       req.Name,
		ParentID:   req.ParentID,
		Status:     req.Status,
	})
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	result.Success(c, http.StatusOK, page)
}

func (h *OrgHandler) Tree(c *gin.Context) {
	roots, err := h.queries.Tree(c.Request.Context())
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	result.Success(c, http.StatusOK, roots)
}

// FindChildren answers GET /v1/orgs/children?ids=1,2 with the listed orgs
// and everything below them.
func (h *OrgHandler) FindChildren(c *gin.Context) {
	ids, err := middleware.QueryInt64s(c, "ids")
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	orgs, err := h.queries.FindChildren(c.Request.Context(), cqrs.FindChildrenQuery{OrgIDs: ids})
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	result.Success(c, http.StatusOK, orgs)
}

func (h *OrgHandler) GetOrg(c *gin.Context) {
	id, err := middleware.PathInt64(c, "id")
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	org, err := h.queries.GetOrg(c.Request.Context(), cqrs.GetOrgQuery{OrgID: id})
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	result.Success(c, http.StatusOK, org)
}

func (h *OrgHandler) UpdateOrg(c *gin.Context) {
	id, err := middleware.PathInt64(c, "id")
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	var req UpdateOrgRequest
	if err := middleware.BindJSON(c, &req); err != nil {
		middleware.Fail(c, err)
		return
	}

	org, err := h.commands.UpdateOrg(c.Request.Context(), cqrs.UpdateOrgCommand{
		OrgID:        id,
		Name:         req.Name,
		Abbreviation: req.Abbreviation,
		ParentID:     req.ParentID,
		SortValue:    req.SortValue,
		Status:       req.Status,
		Describe:     req.Describe,
	})
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	result.Success(c, http.StatusOK, org)
}

// Remove deletes the listed orgs with their subtrees and answers with every
// removed id.
func (h *OrgHandler) Remove(c *gin.Context) {
	ids, err := middleware.QueryInt64s(c, "ids")
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	removed, err := h.commands.Remove(c.Request.Context(), cqrs.RemoveOrgsCommand{OrgIDs: ids})
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	result.Success(c, http.StatusOK, removed)
}
