package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/meetlite/meetlite/pkg/database"
	"github.com/meetlite/meetlite/pkg/logger"
	"github.com/meetlite/meetlite/pkg/middleware"
	pkgredis "github.com/meetlite/meetlite/pkg/redis"
	"github.com/meetlite/meetlite/pkg/response"
)

// RouterConfig holds everything the router assembly needs.
type RouterConfig struct {
	Logger    *logger.Logger
	JWTSecret string
	RateLimit middleware.RateLimitConfig
	DB        *database.PostgresDB
	Redis     *pkgredis.Client
}

// NewRouter assembles the gin engine: recovery, request id, access log,
// health probes, public routes, and the authenticated API surface with a
// per-caller rate limit on the join endpoint.
func NewRouter(cfg *RouterConfig, authH *AuthHandler, eventH *EventHandler, rsvpH *RSVPHandler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(cfg.Logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, response.Success(gin.H{"status": "ok"}))
	})
	router.GET("/ready", func(c *gin.Context) {
		if cfg.DB != nil {
			if err := cfg.DB.HealthCheck(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable,
					response.Error(response.ErrCodeServiceUnavailable, "database unavailable"))
				return
			}
		}
		if cfg.Redis != nil {
			if err := cfg.Redis.Ping(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable,
					response.Error(response.ErrCodeServiceUnavailable, "redis unavailable"))
				return
			}
		}
		c.JSON(http.StatusOK, response.Success(gin.H{"status": "ready"}))
	})

	// Public surface
	router.POST("/auth/signup", authH.Signup)
	router.POST("/auth/login", authH.Login)
	router.GET("/events", eventH.List)
	router.GET("/events/:id", eventH.GetByID)

	// Authenticated surface
	auth := router.Group("/")
	auth.Use(middleware.JWTMiddleware(&middleware.JWTConfig{Secret: cfg.JWTSecret}))
	{
		auth.GET("/me", authH.Me)
		auth.GET("/me/events", eventH.ListMine)
		auth.GET("/me/rsvps", rsvpH.MyRSVPs)

		auth.POST("/events", eventH.Create)
		auth.PATCH("/events/:id", eventH.Update)
		auth.DELETE("/events/:id", eventH.Delete)

		auth.POST("/events/:id/rsvp", middleware.RateLimitByUser(cfg.RateLimit), rsvpH.Join)
		auth.DELETE("/events/:id/rsvp", rsvpH.Leave)
		auth.GET("/events/:id/rsvp", rsvpH.Status)
		auth.GET("/events/:id/attendees", rsvpH.Roster)
	}

	return router
}
