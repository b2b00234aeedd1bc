package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pollbox/internal/config"
	"pollbox/internal/handler"
	"pollbox/internal/middleware"
	"pollbox/internal/redis"
	"pollbox/internal/services"
	"pollbox/internal/transport/httpdto"
	"pollbox/pkg/database"
	"pollbox/pkg/logger"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     *config.Config
	logger     *logger.Logger
	db         *gorm.DB
}

var (
	ReleaseMode = "release"
	DebugMode   = "debug"
	TestMode    = "test"
)

type Handlers struct {
	Auth  *handler.AuthHandler
	Polls *handler.PollHandler
	Admin *handler.AdminHandler
	Live  *handler.LiveHandler
}

func New(cfg *config.Config, l *logger.Logger, db *gorm.DB) *Server {
	if cfg.AppMode == ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.AppMode == TestMode {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Server{
		httpServer: &http.Server{
			Addr:    fmt.Sprintf(":%s", cfg.AppPort),
			Handler: engine,
		},
		engine: engine,
		config: cfg,
		logger: l,
		db:     db,
	}
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) SetupRoutes(handlers *Handlers, authService *services.AuthService, limiter *redis.RateLimiter) {
	s.engine.Use(middleware.RequestIDMiddleware())
	s.engine.Use(middleware.CORSMiddleware())
	s.engine.Use(middleware.LoggingMiddleware(s.logger))
	s.engine.Use(middleware.ErrorHandler(s.logger))

	s.engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"message": "pong"}))
	})

	s.engine.GET("/health", func(c *gin.Context) {
		if err := database.HealthCheck(s.db); err != nil {
			c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse(err.Error(), "UNHEALTHY"))
			return
		}
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"status": "healthy"}))
	})

	authLimit := middleware.AuthRateLimitMiddleware(limiter)
	authRequired := middleware.AuthMiddleware(authService)
	adminOnly := middleware.AdminMiddleware(authService)

	auth := s.engine.Group("/v1/auth")
	{
		auth.POST("/register", authLimit, handlers.Auth.Register)
		auth.POST("/login", authLimit, handlers.Auth.Login)
		auth.POST("/refresh", handlers.Auth.Refresh)
		auth.POST("/logout", authRequired, handlers.Auth.Logout)
	}

	questions := s.engine.Group("/v1/questions", authRequired)
	{
		questions.GET("", handlers.Polls.List)
		questions.GET("/:id", handlers.Polls.Detail)
		questions.GET("/:id/results", handlers.Polls.Results)
		questions.GET("/:id/live", handlers.Live.Live)
		questions.POST("/:id/vote", handlers.Polls.Vote)
	}

	admin := s.engine.Group("/v1/admin", authRequired, adminOnly)
	{
		admin.POST("/questions", handlers.Admin.CreatePoll)
		admin.DELETE("/questions/:id", handlers.Admin.DeleteQuestion)
		admin.POST("/questions/:id/choices", handlers.Admin.AddChoice)
		admin.DELETE("/choices/:id", handlers.Admin.DeleteChoice)
	}
}

func (s *Server) Start() error {
	go func() {
		if s.logger != nil {
			s.logger.Infof("Starting the server on port %s...", s.config.AppPort)
		}
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if s.logger != nil {
				s.logger.Errorf("Error in starting the server: %s", err)
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	if s.logger != nil {
		s.logger.Infof("Server is running on :%s", s.config.AppPort)
	}

	<-quit

	if s.logger != nil {
		s.logger.Infof("Quitting signal received.. Shutting down after 5 seconds")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		if s.logger != nil {
			s.logger.Infof("Error in the graceful shutdown of the server: %s", err)
		}
		return err
	}

	if s.logger != nil {
		s.logger.Infof("Server stopped gracefully")
	}

	return nil
}
