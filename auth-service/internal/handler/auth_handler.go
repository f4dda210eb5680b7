package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/changzer/choppy/auth-service/internal/service"
	"github.com/changzer/choppy/shared/cqrs"
	"github.com/changzer/choppy/shared/middleware"
	"github.com/changzer/choppy/shared/result"
	"github.com/gin-gonic/gin"
)

// Authenticator defines the operations used by AuthHandler.
type Authenticator interface {
	Login(context.Context, cqrs.LoginCommand) (*service.Token, error)
	RefreshToken(context.Context, cqrs.RefreshTokenCommand) (*service.Token, error)
}

type AuthHandler struct {
	auth Authenticator
}

type LoginRequest struct {
	Account  string `json:"account" validate:"required,max=64"`
	Password string `json:"password" validate:"required"`
}

type RefreshTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

func NewAuthHandler(auth Authenticator) *AuthHandler {
	return &AuthHandler{auth: auth}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := middleware.BindJSON(c, &req); err != nil {
		middleware.Fail(c, err)
		return
	}

	token, err := h.auth.Login(c.Request.Context(), cqrs.LoginCommand{
		Account:  req.Account,
		Password: req.Password,
		Now:      time.Now(),
	})
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	result.Success(c, http.StatusOK, token)
}

func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := middleware.BindJSON(c, &req); err != nil {
		middleware.Fail(c, err)
		return
	}

	token, err := h.auth.RefreshToken(c.Request.Context(), cqrs.RefreshTokenCommand{
		Token: req.Token,
	})
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	result.Success(c, http.StatusOK, token)
}
