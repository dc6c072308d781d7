package v1

import (
	"github.com/gin-gonic/gin"

	"jan-server/services/upload-api/internal/interfaces/httpserver/handlers"
)

// Routes encapsulates versioned route registration.
type Routes struct {
	handlers *handlers.Provider
}

func NewRoutes(provider *handlers.Provider) *Routes {
	return &Routes{handlers: provider}
}

// Register attaches all v1 routes under /v1 prefix.
func (r *Routes) Register(router gin.IRouter) {
	group := router.Group("/v1")
	uploads := group.Group("/uploads")
	uploads.POST("/plan", r.handlers.Upload.Plan)
	uploads.POST("/complete", r.handlers.Upload.Complete)
	uploads.POST("/abort", r.handlers.Upload.Abort)
}
