package main

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/PaulBabatuyi/semx/internal/clock"
	"github.com/PaulBabatuyi/semx/internal/middleware"
	"github.com/PaulBabatuyi/semx/internal/service"
)

// Server holds the services and shared state behind the HTTP routes.
type Server struct {
	svc     *service.Services
	hub     *ConnectionHub
	limiter *middleware.LimiterStore
	clock   clock.Clock
	logger  *slog.Logger
	origins []string
}

// newServer returns a ready-to-use Server wired with services, hub and limiter.
func newServer(svc *service.Services, hub *ConnectionHub, limiter *middleware.LimiterStore, clk clock.Clock, logger *slog.Logger, origins []string) *Server {
	return &Server{svc: svc, hub: hub, limiter: limiter, clock: clk, logger: logger, origins: origins}
}

func (s *Server) allowAllOrigins() bool {
	return len(s.origins) == 0 || slices.Contains(s.origins, "*")
}

// routes builds the gin engine: recovery, request logging, CORS, then the API.
func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		s.logger.Error("panic serving request", "path", c.Request.URL.Path, "panic", recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong!"})
	}))
	r.Use(requestLogger(s.logger))

	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if s.allowAllOrigins() {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = s.origins
		corsCfg.AllowCredentials = true
	}
	r.Use(cors.New(corsCfg))

	r.GET("/", s.index)
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Endpoint not found"})
	})

	api := r.Group("/api")
	api.GET("/health", s.health)

	limited := middleware.RateLimit(s.limiter)
	requireAuth := s.authGate(false)

	authGroup := api.Group("/auth")
	authGroup.POST("/register", limited, s.register)
	authGroup.POST("/login", limited, s.login)
	authGroup.GET("/me", requireAuth, s.me)

	api.GET("/listings", s.listListings)
	api.POST("/listings", requireAuth, s.createListing)
	api.GET("/listings/my", requireAuth, s.myListings)
	api.DELETE("/listings/:id", requireAuth, s.closeListing)

	api.POST("/deliveries", requireAuth, s.requestDelivery)
	api.GET("/deliveries", requireAuth, s.myDeliveries)
	api.POST("/deliveries/:id/claim", requireAuth, s.claimDelivery)

	chat := api.Group("/chat")
	chat.GET("/conversations", requireAuth, s.conversations)
	chat.POST("/conversations/start", requireAuth, s.startConversation)
	chat.GET("/messages/:deliveryId", requireAuth, s.messages)
	chat.POST("/send", requireAuth, s.sendMessage)
	// browsers cannot set headers on a websocket handshake
	chat.GET("/ws/:deliveryId", s.authGate(true), s.chatSocket)

	api.GET("/profile", requireAuth, s.profile)
	api.POST("/users/availability", requireAuth, s.setAvailability)

	return r
}

// requestLogger logs one line per request once it has been served.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}
		logger.Log(c.Request.Context(), level, "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}
