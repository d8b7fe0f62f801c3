package server

import (
	"errors"
	"net/http"
	"time"

	ginhandler "user-browser-service/internal/adapter/gin/handler"
	"user-browser-service/internal/adapter/gin/middleware"
	ginrouter "user-browser-service/internal/adapter/gin/router"
	"user-browser-service/internal/config"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server struct holds all server dependencies
type Server struct {
	Config *config.Config
	Logger *zap.Logger
	HTTP   *http.Server
}

// New creates a new server instance
func New(cfg *config.Config, l *zap.Logger, handler *ginhandler.ViewHandler, rateLimiter *middleware.RateLimiter, env string) *Server {
	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := ginrouter.SetupRouter(handler, rateLimiter, cfg.Logger.ServiceName, l)

	return &Server{
		Config: cfg,
		Logger: l,
		HTTP: &http.Server{
			Addr:              httpAddress(cfg),
			Handler:           router,
			ReadHeaderTimeout: 2 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
	}
}

// Start serves HTTP until the server is shut down
func (s *Server) Start() error {
	s.Logger.Info("REST API running", zap.String("address", s.HTTP.Addr))

	if err := s.HTTP.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// httpAddress returns the HTTP server address
func httpAddress(cfg *config.Config) string {
	return ":" + cfg.App.HTTPPort
}
