package bookings

import (
	"dejair/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// Router handles booking-related routes
type Router struct {
	controller *Controller
}

func NewRouter(controller *Controller) *Router {
	return &Router{
		controller: controller,
	}
}

// SetupRoutes registers booking lifecycle, negotiation and admin triage routes
func (bookingRouter *Router) SetupRoutes(rg *gin.RouterGroup, jwtAuth gin.HandlerFunc) {
	bookings := rg.Group("/bookings")
	bookings.Use(jwtAuth)
	{
		bookings.POST("", bookingRouter.controller.CreateBooking)
		bookings.GET("", bookingRouter.controller.ListBookings)
		bookings.GET("/:id", bookingRouter.controller.GetBooking)
		bookings.GET("/:id/status", bookingRouter.controller.GetStatus)

		// Negotiation state machine
		bookings.POST("/:id/negotiate", bookingRouter.controller.RequestNegotiation)
		bookings.POST("/:id/counter", bookingRouter.controller.CounterOffer)
		bookings.POST("/:id/decision", middleware.RequireAdmin(), bookingRouter.controller.Decide)
		bookings.GET("/:id/negotiation-history", bookingRouter.controller.GetNegotiationHistory)
	}

	admin := rg.Group("/admin/bookings")
	admin.Use(jwtAuth, middleware.RequireAdmin())
	{
		admin.GET("/:kind", bookingRouter.controller.ListByKind)
	}
}
