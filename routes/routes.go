package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"pg-backend/controllers"
	"pg-backend/metrics"
	"pg-backend/middleware"
)

// Deps is everything the router wires together.
type Deps struct {
	Log         *zap.Logger
	Rooms       *controllers.RoomController
	Guests      *controllers.GuestController
	Payments    *controllers.PaymentController
	Dashboard   *controllers.DashboardController
	Auth        *controllers.AuthController
	Sessions    middleware.Authenticator
	Metrics     *metrics.HTTPMetrics
	Gatherer    prometheus.Gatherer
	LoginLimit  *middleware.IPRateLimiter
	CORSOrigins []string
}

func corsConfig(raw []string) cors.Config {
	origins := make([]string, 0, len(raw))
	for _, o := range raw {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	allowCredentials := true
	for _, origin := range origins {
		if origin == "*" {
			allowCredentials = false
			break
		}
	}
	return cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
		AllowCredentials: allowCredentials,
		MaxAge:           12 * time.Hour,
	}
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(d.Log))
	if d.Metrics != nil {
		r.Use(middleware.Metrics(d.Metrics))
	}
	r.Use(cors.New(corsConfig(d.CORSOrigins)))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")

	var onLimited func()
	if d.Metrics != nil {
		onLimited = d.Metrics.RateLimited.Inc
	}
	api.POST("/auth/login", middleware.RateLimit(d.LoginLimit, onLimited), d.Auth.Login)

	private := api.Group("", middleware.RequireSession(d.Sessions))
	{
		auth := private.Group("/auth")
		{
			auth.POST("/logout", d.Auth.Logout)
			auth.GET("/me", d.Auth.Me)
		}

		rooms := private.Group("/rooms")
		{
			rooms.GET("", d.Rooms.ListRooms)
			// must be registered before /:number
			rooms.GET("/available", d.Rooms.ListAvailable)
			rooms.GET("/:number/occupants", d.Rooms.Occupants)
			rooms.POST("/:number/occupants", d.Rooms.Assign)
			rooms.DELETE("/:number/occupants/:guestId", d.Rooms.Unassign)
		}

		guests := private.Group("/guests")
		{
			guests.GET("", d.Guests.GetGuests)
			guests.POST("", d.Guests.CreateGuest)
			guests.GET("/:id", d.Guests.GetGuestByID)
			guests.PUT("/:id", d.Guests.UpdateGuest)
			guests.DELETE("/:id", d.Guests.DeleteGuest)

			guests.POST("/:id/payment", d.Payments.SetStatus)
			guests.GET("/:id/payment", d.Payments.GetStatus)
			guests.GET("/:id/payments", d.Payments.History)
			guests.POST("/:id/reminder", d.Payments.SendReminder)
		}

		payments := private.Group("/payments")
		{
			payments.GET("", d.Payments.MonthStatuses)
			payments.GET("/report", d.Payments.Report)
		}

		dashboard := private.Group("/dashboard")
		{
			dashboard.GET("/summary", d.Payments.Summary)
			dashboard.GET("/stats", d.Dashboard.Stats)
		}

		private.GET("/audit", d.Dashboard.Audit)
	}

	return r
}
