package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"carpool/internal/handler"
	"carpool/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	RequestHandler *handler.RequestHandler
	DriverHandler  *handler.DriverHandler
	UserHandler    *handler.UserHandler
	PaymentHandler *handler.PaymentHandler
	RedisClient    *redis.Client
	NewRelicApp    *newrelic.Application
	JWTSecret      []byte
	Log            logrus.FieldLogger
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}
	router.Use(middleware.RequestLogger(deps.Log))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	v1.Use(middleware.AuthMiddleware(deps.JWTSecret))
	v1.Use(middleware.IdempotencyMiddleware(deps.RedisClient, deps.Log))
	{
		v1.POST("/riders/register", deps.UserHandler.RegisterRider)
		v1.POST("/drivers/register", deps.UserHandler.RegisterDriver)

		// Rider routes.
		requests := v1.Group("/ride-requests")
		{
			requests.POST("/quote", deps.RequestHandler.Quote)
			requests.POST("", deps.RequestHandler.Submit)
			requests.GET("", deps.RequestHandler.ListMine)
			requests.POST("/:id/cancel", deps.RequestHandler.Cancel)
			requests.POST("/:id/pay", deps.PaymentHandler.Pay)
		}
		v1.GET("/payments", deps.PaymentHandler.History)

		// Driver routes.
		driver := v1.Group("/driver")
		{
			driver.GET("/groups", deps.DriverHandler.PendingGroups)
			driver.POST("/groups/accept", deps.DriverHandler.AcceptGroup)
			driver.POST("/requests/:id/accept", deps.DriverHandler.AcceptRequest)
			driver.GET("/rides", deps.DriverHandler.ActiveRides)
			driver.POST("/rides/:id/complete", deps.DriverHandler.CompleteRide)
			driver.GET("/earnings", deps.DriverHandler.Earnings)
		}
	}

	return router
}
