package fleet

import (
	"dejair/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// Router handles fleet-related routes
type Router struct {
	controller *Controller
}

func NewRouter(controller *Controller) *Router {
	return &Router{
		controller: controller,
	}
}

// SetupRoutes registers the public fleet catalog and the admin-only
// management endpoints.
func (fleetRouter *Router) SetupRoutes(rg *gin.RouterGroup, jwtAuth gin.HandlerFunc) {
	helicopters := rg.Group("/helicopters")
	{
		helicopters.GET("", fleetRouter.controller.ListHelicopters)
		helicopters.GET("/:id", fleetRouter.controller.GetHelicopter)
	}

	adminHelicopters := rg.Group("/helicopters")
	adminHelicopters.Use(jwtAuth, middleware.RequireAdmin())
	{
		adminHelicopters.POST("", fleetRouter.controller.CreateHelicopter)
		adminHelicopters.PUT("/:id", fleetRouter.controller.UpdateHelicopter)
		adminHelicopters.DELETE("/:id", fleetRouter.controller.DeleteHelicopter)
	}
}
