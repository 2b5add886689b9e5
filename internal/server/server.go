// Package server exposes the recommendation service over REST and MCP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/bobmcallan/advisor/internal/app"
	"github.com/bobmcallan/advisor/internal/common"
)

// Server serves the REST API, /metrics and /mcp for one App.
type Server struct {
	app          *app.App
	http         *http.Server
	logger       *common.Logger
	metrics      *httpMetrics
	shutdownChan chan struct{}
}

// NewServer builds the routes and middleware stack. HTTP metrics are
// registered on the App's registry.
func NewServer(a *app.App) *Server {
	s := &Server{
		app:     a,
		logger:  a.Logger,
		metrics: newHTTPMetrics(a.Registry),
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.http = &http.Server{
		Addr:              net.JoinHostPort(a.Config.Server.Host, fmt.Sprint(a.Config.Server.Port)),
		Handler:           applyMiddleware(mux, s),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      a.Config.Clients.Gemini.GetTimeout() + 30*time.Second, // advice may wait on the LLM
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// SetShutdownChannel sets the channel signalled by POST /api/shutdown.
func (s *Server) SetShutdownChannel(ch chan struct{}) {
	s.shutdownChan = ch
}

// Handler returns the full middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.http.Addr
}

// Start listens on the configured address and blocks until the server stops.
// It returns nil after a graceful Shutdown.
func (s *Server) Start() error {
	l, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.http.Addr, err)
	}
	return s.Serve(l)
}

// Serve accepts connections on l until Shutdown.
func (s *Server) Serve(l net.Listener) error {
	s.logger.Info().
		Str("addr", l.Addr().String()).
		Bool("llm", s.app.Service.HasLLM()).
		Msg("Serving recommendations API")

	if err := s.http.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
