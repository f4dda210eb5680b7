package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/changzer/choppy/shared/cqrs"
	"github.com/changzer/choppy/shared/middleware"
	"github.com/changzer/choppy/shared/models"
	"github.com/changzer/choppy/shared/result"
	"github.com/gin-gonic/gin"
)

type StationCommander interface {
	CreateStation(context.Context, cqrs.CreateStationCommand) (*models.StationView, error)
	UpdateStation(context.Context, cqrs.UpdateStationCommand) (*models.StationView, error)
	Remove(context.Context, cqrs.RemoveStationsCommand) ([]int64, error)
}

type StationQuerier interface {
	GetStation(context.Context, cqrs.GetStationQuery) (*models.StationView, error)
	FindStationPage(context.Context, cqrs.StationPageQuery) (*models.Page[models.StationView], error)
}

type StationHandler struct {
	commands StationCommander
	queries  StationQuerier
}

type CreateStationRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	OrgID    *int64 `json:"orgId" validate:"omitempty,gt=0"`
	Status   *bool  `json:"status"`
	Describe string `json:"describe" validate:"max=255"`
}

type UpdateStationRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=255"`
	OrgID    *int64  `json:"orgId" validate:"omitempty,gt=0"`
	Status   *bool   `json:"status"`
	Describe *string `json:"describe" validate:"omitempty,max=255"`
}

// StationPageRequest takes the created-between bounds as RFC 3339 times.
type StationPageRequest struct {
	models.PageParams
	Name          string     `form:"name"`
	OrgID         *int64     `form:"orgId"`
	Status        *bool      `form:"status"`
	CreatedAfter  *time.Time `form:"createdAfter"`
	CreatedBefore *time.Time `form:"createdBefore"`
}

func NewStationHandler(commands StationCommander, queries StationQuerier) *StationHandler {
	return &StationHandler{commands: commands, queries: queries}
}

func (h *StationHandler) CreateStation(c *gin.Context) {
	var req CreateStationRequest
	if err := middleware.BindJSON(c, &req); err != nil {
		middleware.Fail(c, err)
		return
	}

	view, err := h.commands.CreateStation(c.Request.Context(), cqrs.CreateStationCommand{
		Name:     req.Name,
		OrgID:    req.OrgID,
		Status:   req.Status,
		Describe: req.Describe,
	})
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	result.Success(c, http.StatusCreated, view)
}

func (h *StationHandler) FindStationPage(c *gin.Context) {
	var req StationPageRequest
	if err := middleware.BindQuery(c, &req); err != nil {
		middleware.Fail(c, err)
		return
	}

	page, err := h.queries.FindStationPage(c.Request.Context(), cqrs.StationPageQuery{
		PageParams:    req.PageParams,
		Name:          req.Name,
		OrgID:         req.OrgID,
		Status:        req.Status,
		CreatedAfter:  req.CreatedAfter,
		CreatedBefore: req.CreatedBefore,
	})
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	result.Success(c, http.StatusOK, page)
}

func (h *StationHandler) GetStation(c *gin.Context) {
	id, err := middleware.PathInt64(c, "id")
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	view, err := h.queries.GetStation(c.Request.Context(), cqrs.GetStationQuery{StationID: id})
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	result.Success(c, http.StatusOK, view)
}

func (h *StationHandler) UpdateStation(c *gin.Context) {
	id, err := middleware.PathInt64(c, "id")
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	var req UpdateStationRequest
	if err := middleware.BindJSON(c, &req); err != nil {
		middleware.Fail(c, err)
		return
	}

	view, err := h.commands.UpdateStation(c.Request.Context(), cqrs.UpdateStationCommand{
		StationID: id,
		Name:      req.Name,
		OrgID:     req.OrgID,
		Status:    req.Status,
		Describe:  req.Describe,
	})
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	result.Success(c, http.StatusOK, view)
}

func (h *StationHandler) Remove(c *gin.Context) {
	ids, err := middleware.QueryInt64s(c, "ids")
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	removed, err := h.commands.Remove(c.Request.Context(), cqrs.RemoveStationsCommand{StationIDs: ids})
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	result.Success(c, http.StatusOK, removed)
}
