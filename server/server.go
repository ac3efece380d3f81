// Package server assembles the HTTP surface: REST endpoints for the data
// path, the websocket subscriber hub, health and metrics.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/hrygo/chatrelay/internal/profile"
	"github.com/hrygo/chatrelay/relay/metrics"
	apiv1 "github.com/hrygo/chatrelay/server/router/api/v1"
	"github.com/hrygo/chatrelay/store"
)

type Server struct {
	Secret  string
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
	collector  *metrics.Collector
	apiV1      *apiv1.APIV1Service
}

func NewServer(ctx context.Context, profile *profile.Profile, store *store.Store) (*Server, error) {
	echoServer := echo.New()
	echoServer.Debug = profile.IsDev()
	echoServer.HideBanner = true
	echoServer.HidePort = true

	echoServer.Use(middleware.Recover())
	echoServer.Use(middleware.RateLimiter(
		middleware.NewRateLimiterMemoryStore(rate.Limit(30)),
	))

	collector := metrics.NewCollector(metrics.DefaultConfig())

	s := &Server{
		Profile:    profile,
		Store:      store,
		echoServer: echoServer,
		collector:  collector,
	}

	echoServer.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "Service ready.")
	})
	echoServer.GET("/metrics", echo.WrapHandler(collector.Handler()))

	s.apiV1 = apiv1.NewAPIV1Service(ctx, profile, store, collector)
	s.apiV1.RegisterRoutes(echoServer)

	return s, nil
}

func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	go func() {
		if err := s.echoServer.Start(address); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start echo server", "error", err)
		}
	}()
	return nil
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// Shutdown echo server.
	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}

	// Disconnect websocket subscribers before the store goes away.
	s.apiV1.Hub.Close()

	// Close database connection.
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close database", "error", err)
	}

	slog.Info("chatrelay stopped properly")
}
