package handler

import (
	"github.com/changzer/choppy/shared/middleware"
	"github.com/gin-gonic/gin"
)

// Register mounts the org and station routes on router behind auth.
func Register(router gin.IRouter, orgs *OrgHandler, stations *StationHandler, auth gin.HandlerFunc) {
	o := router.Group("/v1/orgs", auth)
	{
		o.POST("", middleware.RequireJSON(), orgs.CreateOrg)
		o.GET("", orgs.FindPage)
		o.DELETE("", orgs.Remove)
		o.GET("/tree", orgs.Tree)
		o.GET("/children", orgs.FindChildren)
		o.GET("/:id", orgs.GetOrg)
		o.PATCH("/:id", middleware.RequireJSON(), orgs.UpdateOrg)
	}

	s := router.Group("/v1/stations", auth)
	{
		s.POST("", middleware.RequireJSON(), stations.CreateStation)
		s.GET("", stations.FindStationPage)
		s.DELETE("", stations.Remove)
		s.GET("/:id", stations.GetStation)
		s.PATCH("/:id", middleware.RequireJSON(), stations.UpdateStation)
	}
}
