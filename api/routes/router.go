// api/routes/router.go
package routes

import (
	"net/http"
	"time"

	"dejair/internal/auth"
	"dejair/internal/bookings"
	"dejair/internal/fleet"
	"dejair/internal/mpesa"
	"dejair/internal/notifications"
	"dejair/internal/payments"
	"dejair/internal/shared/config"
	"dejair/internal/shared/database"
	"dejair/internal/shared/middleware"
	"dejair/pkg/cache"

	"github.com/gin-gonic/gin"
)

// Router holds all route dependencies
type Router struct {
	config       *config.Config
	db           *database.DB
	cache        cache.Service
	producer     notifications.EventProducer
	fleetService fleet.Service

	// exposed for the notification consumer wiring in server/main.go
	BookingRepo bookings.Repository
	AuthRepo    auth.Repository
}

// NewRouter creates a new router instance
func NewRouter(cfg *config.Config, db *database.DB, producer notifications.EventProducer) *Router {
	return &Router{
		config:   cfg,
		db:       db,
		cache:    cache.NewService(db.GetRedisClient()),
		producer: producer,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	// Health check and basic info endpoints
	r.setupHealthRoutes(engine)

	// API routes; the auth middleware is built once from the injected config
	api := engine.Group(r.config.GetAPIBasePath())
	jwtAuth := middleware.JWTAuth(r.config)
	{
		r.setupAuthRoutes(api)
		r.setupFleetRoutes(api, jwtAuth)
		r.setupBookingAndPaymentRoutes(api, jwtAuth)
	}
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "dejair-backend",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "dejair-backend",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})
}

// setupAuthRoutes configures authentication routes
func (r *Router) setupAuthRoutes(rg *gin.RouterGroup) {
	authRepo := auth.NewRepository(r.db.GetPostgreSQL())
	authService := auth.NewService(authRepo, r.config)
	authController := auth.NewController(authService)
	authRouter := auth.NewRouter(authController)

	r.AuthRepo = authRepo
	authRouter.SetupRoutes(rg)
}

// setupFleetRoutes configures helicopter catalog routes
func (r *Router) setupFleetRoutes(rg *gin.RouterGroup, jwtAuth gin.HandlerFunc) {
	fleetRepo := fleet.NewRepository(r.db.GetPostgreSQL())
	fleetService := fleet.NewService(fleetRepo, r.cache)
	fleetController := fleet.NewController(fleetService)
	fleetRouter := fleet.NewRouter(fleetController)

	fleetRouter.SetupRoutes(rg, jwtAuth)

	// booking service validates against the same catalog
	r.fleetService = fleetService
}

// setupBookingAndPaymentRoutes wires the booking core: negotiation state
// machine, payment orchestrator and gateway client.
func (r *Router) setupBookingAndPaymentRoutes(rg *gin.RouterGroup, jwtAuth gin.HandlerFunc) {
	bookingRepo := bookings.NewRepository(r.db.GetPostgreSQL())
	bookingService := bookings.NewService(bookingRepo, r.fleetService, r.cache)

	paymentRepo := payments.NewRepository(r.db.GetPostgreSQL())
	gateway := mpesa.NewClient(r.config.Mpesa)
	paymentService := payments.NewService(paymentRepo, bookingRepo, gateway, r.cache, r.config.Mpesa)

	// cross-wiring: status snapshots need payments, both publish events
	bookingService.SetPaymentStatusReader(paymentService)
	if r.producer != nil {
		adapter := notifications.NewEventAdapter(r.producer)
		bookingService.SetEventPublisher(adapter)
		paymentService.SetEventPublisher(adapter)
	}

	bookingController := bookings.NewController(bookingService)
	bookingRouter := bookings.NewRouter(bookingController)
	bookingRouter.SetupRoutes(rg, jwtAuth)

	paymentController := payments.NewController(paymentService)
	paymentRouter := payments.NewRouter(paymentController)
	paymentRouter.SetupRoutes(rg, jwtAuth)

	r.BookingRepo = bookingRepo
}
