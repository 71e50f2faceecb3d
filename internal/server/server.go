// Package server exposes the registry and the screening workflow over
// HTTP. Handlers translate between JSON payloads and the domain types;
// all policy lives in the services behind them.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/compliance/pep-registry/internal/config"
	"github.com/compliance/pep-registry/internal/pkg/logger"
	"github.com/compliance/pep-registry/internal/registry"
	"github.com/compliance/pep-registry/internal/screening"
)

// Server is the HTTP front of the registry.
type Server struct {
	echo     *echo.Echo
	cfg      *config.ServerConfig
	log      *logger.Logger
	screener *screening.Orchestrator
	registry *registry.Service
}

func New(cfg *config.ServerConfig, screener *screening.Orchestrator, reg *registry.Service, log *logger.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		log:      log.Named("http"),
		screener: screener,
		registry: reg,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.Secure())
	if len(cfg.AllowedOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: cfg.AllowedOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		}))
	}

	e.GET("/health", s.health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := e.Group("/v1")
	v1.POST("/screenings", s.runScreening)
	v1.POST("/sweep", s.runSweep)

	v1.POST("/peps", s.createRecord)
	v1.GET("/peps", s.listRecords)
	v1.GET("/peps/:id", s.getRecord)
	v1.PUT("/peps/:id", s.updateRecord)
	v1.DELETE("/peps/:id", s.deleteRecord)
	v1.POST("/peps/:id/review", s.markReviewed)
	v1.POST("/peps/:id/related", s.attachRelated)
	v1.GET("/peps/:id/related", s.listRelated)

	v1.POST("/positions", s.createPosition)
	v1.GET("/positions", s.listPositions)

	v1.POST("/candidates/discover", s.discoverCandidates)
	v1.POST("/candidates/promote", s.promoteCandidate)

	s.echo = e
	return s
}

// Start serves HTTP until Shutdown is called.
func (s *Server) Start() error {
	s.echo.Server.ReadTimeout = s.cfg.ReadTimeout
	s.echo.Server.WriteTimeout = s.cfg.WriteTimeout
	s.echo.Server.IdleTimeout = s.cfg.IdleTimeout

	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.log.Info("http server listening", logger.StringField("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
