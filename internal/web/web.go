// Package web is the thin HTTP surface over the alerting and actuation
// core. Handlers bind JSON, call the services and map the core's error
// kinds to status codes; authentication and schema validation live in an
// upstream gateway, not here.
package web

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"devicehub/internal/web/api"
)

// Server hosts the HTTP API.
type Server struct {
	router *gin.Engine
}

// NewServer assembles the router.
func NewServer(deps api.Dependencies, logger *zap.Logger) *Server {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	api.RegisterRuleRoutes(router, deps)
	api.RegisterAlertRoutes(router, deps)
	api.RegisterControlRoutes(router, deps)

	return &Server{router: router}
}

// Start serves until the listener fails.
func (s *Server) Start(addr string) error {
	return s.router.Run(addr)
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)))
	}
}
