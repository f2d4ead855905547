package payments

import (
	"dejair/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// Router handles payment-related routes
type Router struct {
	controller *Controller
}

func NewRouter(controller *Controller) *Router {
	return &Router{
		controller: controller,
	}
}

// SetupRoutes registers the payment flows: the blocking pay call, the
// decoupled initiate, the public gateway callback and the listings.
func (paymentRouter *Router) SetupRoutes(rg *gin.RouterGroup, jwtAuth gin.HandlerFunc) {
	bookingPayments := rg.Group("/bookings/:id")
	bookingPayments.Use(jwtAuth)
	{
		bookingPayments.POST("/pay", paymentRouter.controller.Pay)
		bookingPayments.POST("/pay/initiate", paymentRouter.controller.Initiate)
		bookingPayments.GET("/payments", paymentRouter.controller.ListForBooking)
	}

	// Daraja posts confirmations here; it cannot carry a bearer token.
	rg.POST("/payments/callback", paymentRouter.controller.Callback)

	confirm := rg.Group("/payments/confirm")
	confirm.Use(jwtAuth)
	{
		confirm.POST("/:checkoutRequestId", paymentRouter.controller.Confirm)
	}

	adminPayments := rg.Group("/payments")
	adminPayments.Use(jwtAuth, middleware.RequireAdmin())
	{
		adminPayments.GET("", paymentRouter.controller.ListAll)
	}
}
