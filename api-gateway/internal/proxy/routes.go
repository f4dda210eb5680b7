package proxy

import (
	"time"

	"github.com/changzer/choppy/shared/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Upstreams are the base URLs of the backend services.
type Upstreams struct {
	Auth string
	User string
	Core string
}

// Register mounts CORS and the forwarding routes. Everything except
// /v1/auth requires a valid bearer token.
func Register(router *gin.Engine, up Upstreams, corsOrigins []string, f *Forwarder, auth gin.HandlerFunc) {
	router.Use(cors.New(corsConfig(corsOrigins)))

	mount(router.Group("/v1/auth"), f.To(up.Auth))

	protected := router.Group("/v1", auth)
	mount(protected.Group("/users"), f.To(up.User))
	mount(protected.Group("/roles"), f.To(up.User))
	mount(protected.Group("/orgs"), f.To(up.Core))
	mount(protected.Group("/stations"), f.To(up.Core))
}

func mount(g *gin.RouterGroup, h gin.HandlerFunc) {
	g.Any("", h)
	g.Any("/*path", h)
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cfg
}
