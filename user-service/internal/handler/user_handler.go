package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/changzer/choppy/shared/cqrs"
	"github.com/changzer/choppy/shared/errcode"
	"github.com/changzer/choppy/shared/exception"
	"github.com/changzer/choppy/shared/middleware"
	"github.com/changzer/choppy/shared/models"
	"github.com/changzer/choppy/shared/result"
	"github.com/gin-gonic/gin"
)

const maxAvatarBytes = 5 << 20

// UserCommander defines the write-side operations used by UserHandler.
type UserCommander interface {
	SaveUser(context.Context, cqrs.SaveUserCommand) (*models.UserView, error)
	UpdateUser(context.Context, cqrs.UpdateUserCommand) (*models.UserView, error)
	Remove(context.Context, cqrs.RemoveUsersCommand) error
	Reset(context.Context, cqrs.ResetPasswordsCommand) error
	UpdatePassword(context.Context, cqrs.UpdatePasswordCommand) error
	ResetPassErrorNum(context.Context, int64) (int64, error)
	UpdatePasswordErrorNumByID(context.Context, int64) error
	UpdateLoginTime(context.Context, string) error
	AssignRoles(context.Context, cqrs.AssignRolesCommand) error
	UploadAvatar(context.Context, cqrs.UploadAvatarCommand) (*models.UserView, error)
}

// UserQuerier defines the read-side operations used by UserHandler.
type UserQuerier interface {
	GetUser(context.Context, cqrs.GetUserQuery) (*models.UserView, error)
	GetByAccount(context.Context, cqrs.GetUserByAccountQuery) (*models.UserView, error)
	FindPage(context.Context, cqrs.UserPageQuery) (*models.Page[models.UserView], error)
	FindUserByRoleID(context.Context, cqrs.FindUsersByRoleQuery) ([]models.UserView, error)
	ListRoles(context.Context) ([]models.Role, error)
	AvatarURL(context.Context, cqrs.GetUserQuery) (string, error)
}

// UserHandler routes requests to the command or query service as appropriate.
type UserHandler struct {
	commands UserCommander
	queries  UserQuerier
}

type SaveUserRequest struct {
	Account      string `json:"account" validate:"required,max=64"`
	Name         string `json:"name" validate:"required,max=64"`
	Password     string `json:"password" validate:"required,min=6,max=64"`
	OrgID        *int64 `json:"orgId" validate:"omitempty,gt=0"`
	StationID    *int64 `json:"stationId" validate:"omitempty,gt=0"`
	Email        string `json:"email" validate:"omitempty,email"`
	Mobile       string `json:"mobile" validate:"omitempty,max=32"`
	Sex          string `json:"sex" validate:"omitempty,oneof=M W N"`
	Status       *bool  `json:"status"`
	WorkDescribe string `json:"workDescribe" validate:"max=255"`
}

type UpdateUserRequest struct {
	Name         *string `json:"name" validate:"omitempty,min=1,max=64"`
	Password     *string `json:"password" validate:"omitempty,min=6,max=64"`
	OrgID        *int64  `json:"orgId" validate:"omitempty,gt=0"`
	StationID    *int64  `json:"stationId" validate:"omitempty,gt=0"`
	Email        *string `json:"email" validate:"omitempty,email"`
	Mobile       *string `json:"mobile" validate:"omitempty,max=32"`
	Sex          *string `json:"sex" validate:"omitempty,oneof=M W N"`
	Status       *bool   `json:"status"`
	WorkDescribe *string `json:"workDescribe" validate:"omitempty,max=255"`
}

type UserPageRequest struct {
	models.PageParams
	Account   string `form:"account"`
	Name      string `form:"name"`
	OrgID     *int64 `form:"orgId"`
	StationID *int64 `form:"stationId"`
	Status    *bool  `form:"status"`
	Sex       string `form:"sex" validate:"omitempty,oneof=M W N"`
}

type IDsRequest struct {
	IDs []int64 `json:"ids" validate:"required,min=1,dive,gt=0"`
}

type UpdatePasswordRequest struct {
	OldPassword     string `json:"oldPassword" validate:"required"`
	Password        string `json:"password" validate:"required,min=6,max=64"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

type AssignRolesRequest struct {
	RoleIDs []int64 `json:"roleIds" validate:"dive,gt=0"`
}

func NewUserHandler(commands UserCommander, queries UserQuerier) *UserHandler {
	return &UserHandler{commands: commands, queries: queries}
}

func (h *UserHandler) SaveUser(c *gin.Context) {
	var req SaveUserRequest
	if err := middleware.BindJSON(c, &req); err != nil {
		middleware.Fail(c, err)
		return
	}

	view, err := h.commands.SaveUser(c.Request.Context(), cqrs.SaveUserCommand{
		Account:      req.Account,
		Name:         req.Name,
		Password:     req.Password,
		OrgID:        req.OrgID,
		StationID:    req.StationID,
		Email:        req.Email,
		Mobile:       req.Mobile,
		Sex:          req.Sex,
		Status:       req.Status,
		WorkDescribe: req.WorkDescribe,
	})
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	result.Success(c, http.StatusCreated, view)
}

func (h *UserHandler) FindPage(c *gin.Context) {
	var req UserPageRequest
	if err := middleware.BindQuery(c, &req); err != nil {
		middleware.Fail(c, err)
		return
	}

	page, err := h.queries.FindPage(c.Request.Context(), cqrs.UserPageQuery{
		PageParams: req.PageParams,
		Account:    req.Account,
		Name:       req.Name,
		OrgID:      req.OrgID,
		StationID:  req.StationID,
		Status:     req.Status,
		Sex:        req.Sex,
	})
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	result.Success(c, http.StatusOK, page)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, err := middleware.PathInt64(c, "id")
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	view, err := h.queries.GetUser(c.Request.Context(), cqrs.GetUserQuery{UserID: id})
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	result.Success(c, http.StatusOK, view)
}

func (h *UserHandler) GetByAccount(c *gin.Context) {
	view, err := h.queries.GetByAccount(c.Request.Context(), cqrs.GetUserByAccountQuery{Account: c.Param("account")})
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	result.Success(c, http.StatusOK, view)
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, err := middleware.PathInt64(c, "id")
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	var req UpdateUserRequest
	if err := middleware.BindJSON(c, &req); err != nil {
		middleware.Fail(c, err)
		return
	}

	view, err := h.commands.UpdateUser(c.Request.Context(), cqrs.UpdateUserCommand{
		UserID:       id,
		Name:         req.Name,
		Password:     req.Password,
		OrgID:        req.OrgID,
		StationID:    req.StationID,
		Email:        req.Email,
		Mobile:       req.Mobile,
		Sex:          req.Sex,
		Status:       req.Status,
		WorkDescribe: req.WorkDescribe,
	})
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	result.Success(c, http.StatusOK, view)
}

func (h *UserHandler) Remove(c *gin.Context) {
	ids, err := middleware.QueryInt64s(c, "ids")
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	if err := h.commands.Remove(c.Request.Context(), cqrs.RemoveUsersCommand{UserIDs: ids}); err != nil {
		middleware.Fail(c, err)
		return
	}

	result.Success(c, http.StatusOK, true)
}

func (h *UserHandler) Reset(c *gin.Context) {
	var req IDsRequest
	if err := middleware.BindJSON(c, &req); err != nil {
		middleware.Fail(c, err)
		return
	}

	if err := h.commands.Reset(c.Request.Context(), cqrs.ResetPasswordsCommand{UserIDs: req.IDs}); err != nil {
		middleware.Fail(c, err)
		return
	}

	result.Success(c, http.StatusOK, true)
}

// UpdatePassword only lets users change their own password.
func (h *UserHandler) UpdatePassword(c *gin.Context) {
	id, err := middleware.PathInt64(c, "id")
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	if requestingID, _ := middleware.GetUserID(c); requestingID != id {
		middleware.Fail(c, exception.NewBiz(errcode.Forbidden, "you can only change your own password"))
		return
	}

	var req UpdatePasswordRequest
	if err := middleware.BindJSON(c, &req); err != nil {
		middleware.Fail(c, err)
		return
	}

	err = h.commands.UpdatePassword(c.Request.Context(), cqrs.UpdatePasswordCommand{
		UserID:          id,
		OldPassword:     req.OldPassword,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	result.Success(c, http.StatusOK, true)
}

func (h *UserHandler) ResetPassErrorNum(c *gin.Context) {
	id, err := middleware.PathInt64(c, "id")
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	rows, err := h.commands.ResetPassErrorNum(c.Request.Context(), id)
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	result.Success(c, http.StatusOK, rows)
}

func (h *UserHandler) IncrPasswordErrorNum(c *gin.Context) {
	id, err := middleware.PathInt64(c, "id")
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	if err := h.commands.UpdatePasswordErrorNumByID(c.Request.Context(), id); err != nil {
		middleware.Fail(c, err)
		return
	}

	result.Success(c, http.StatusOK, true)
}

func (h *UserHandler) UpdateLoginTime(c *gin.Context) {
	if err := h.commands.UpdateLoginTime(c.Request.Context(), c.Param("account")); err != nil {
		middleware.Fail(c, err)
		return
	}

	result.Success(c, http.StatusOK, true)
}

func (h *UserHandler) AssignRoles(c *gin.Context) {
	id, err := middleware.PathInt64(c, "id")
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	var req AssignRolesRequest
	if err := middleware.BindJSON(c, &req); err != nil {
		middleware.Fail(c, err)
		return
	}

	if err := h.commands.AssignRoles(c.Request.Context(), cqrs.AssignRolesCommand{UserID: id, RoleIDs: req.RoleIDs}); err != nil {
		middleware.Fail(c, err)
		return
	}

	result.Success(c, http.StatusOK, true)
}

// UploadAvatar accepts a multipart form with the image in the "file" part.
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	id, err := middleware.PathInt64(c, "id")
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxAvatarBytes)
	header, err := c.FormFile("file")
	if err != nil {
		middleware.Fail(c, formFileError(err))
		return
	}
	file, err := header.Open()
	if err != nil {
		middleware.Fail(c, &exception.MultipartError{Err: err})
		return
	}
	defer file.Close()

	view, err := h.commands.UploadAvatar(c.Request.Context(), cqrs.UploadAvatarCommand{
		UserID:      id,
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	result.Success(c, http.StatusOK, view)
}

func (h *UserHandler) AvatarURL(c *gin.Context) {
	id, err := middleware.PathInt64(c, "id")
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	url, err := h.queries.AvatarURL(c.Request.Context(), cqrs.GetUserQuery{UserID: id})
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	result.Success(c, http.StatusOK, gin.H{"url": url})
}

func (h *UserHandler) ListRoles(c *gin.Context) {
	roles, err := h.queries.ListRoles(c.Request.Context())
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	result.Success(c, http.StatusOK, roles)
}

func (h *UserHandler) FindUserByRoleID(c *gin.Context) {
	roleID, err := middleware.PathInt64(c, "roleId")
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	users, err := h.queries.FindUserByRoleID(c.Request.Context(), cqrs.FindUsersByRoleQuery{
		RoleID:  roleID,
		Keyword: c.Query("keyword"),
	})
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	result.Success(c, http.StatusOK, users)
}

func formFileError(err error) error {
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return &exception.MissingPartError{Name: "file"}
	case errors.Is(err, http.ErrNotMultipart):
		return err
	}
	return &exception.MultipartError{Err: err}
}
