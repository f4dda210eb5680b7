package handler

import (
	"github.com/changzer/choppy/shared/middleware"
	"github.com/gin-gonic/gin"
)

// Register mounts the user and role routes on router. auth guards every
// route; tests pass a stub.
func Register(router gin.IRouter, h *UserHandler, auth gin.HandlerFunc) {
	users := router.Group("/v1/users", auth)
	{
		users.POST("", middleware.RequireJSON(), h.SaveUser)
		users.GET("", h.FindPage)
		users.DELETE("", h.Remove)
		users.POST("/reset", middleware.RequireJSON(), h.Reset)
		users.GET("/by-account/:account", h.GetByAccount)
		users.POST("/by-account/:account/login", h.UpdateLoginTime)
		users.GET("/:id", h.GetUser)
		users.PATCH("/:id", middleware.RequireJSON(), h.UpdateUser)
		users.PUT("/:id/password", middleware.RequireJSON(), h.UpdatePassword)
		users.POST("/:id/password-errors", h.IncrPasswordErrorNum)
		users.POST("/:id/password-errors/reset", h.ResetPassErrorNum)
		users.PUT("/:id/roles", middleware.RequireJSON(), h.AssignRoles)
		users.POST("/:id/avatar", h.UploadAvatar)
		users.GET("/:id/avatar", h.AvatarURL)
	}

	roles := router.Group("/v1/roles", auth)
	{
		roles.GET("", h.ListRoles)
		roles.GET("/:roleId/users", h.FindUserByRoleID)
	}
}
