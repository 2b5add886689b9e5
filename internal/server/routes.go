package server

import (
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bobmcallan/advisor/internal/common"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/api/config", s.handleConfig)
	mux.HandleFunc("/api/shutdown", s.handleShutdown)
	mux.Handle("/metrics", promhttp.HandlerFor(s.app.Registry, promhttp.HandlerOpts{}))

	// Recommendations
	mux.HandleFunc("/api/clients", s.handleClients)
	mux.HandleFunc("/api/recommendations", s.handleRecommendations)
	mux.HandleFunc("/api/advice", s.handleAdvice)
	mux.HandleFunc("/api/sectors/normalize", s.handleNormalizeSector)

	// MCP over Streamable HTTP
	mux.Handle("/mcp", server.NewStreamableHTTPServer(s.app.MCPServer,
		server.WithStateLess(true),
	))
}

// handleShutdown handles POST /api/shutdown (dev mode only).
func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if s.app.Config.IsProduction() {
		WriteError(w, http.StatusForbidden, "Shutdown endpoint disabled in production")
		return
	}

	s.logger.Info().Msg("Shutdown requested via HTTP endpoint")

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Shutting down gracefully...\n"))

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	if s.shutdownChan != nil {
		go func() {
			time.Sleep(100 * time.Millisecond)
			s.shutdownChan <- struct{}{}
		}()
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, common.GetBuildInfo("advisor"))
}

// handleConfig reports the effective engine and data settings. Secrets are
// never included.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	cfg := s.app.Config

	renderer := "template"
	if s.app.Service.HasLLM() {
		renderer = "gemini (" + cfg.Clients.Gemini.Model + ")"
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"environment": cfg.Environment,
		"engine": map[string]interface{}{
			"freshness_policy":    cfg.Engine.FreshnessPolicy,
			"stale_after_minutes": cfg.Engine.StaleAfterMinutes,
			"max_items":           cfg.Engine.MaxItems,
			"thresholds":          cfg.Engine.Thresholds,
		},
		"data": map[string]interface{}{
			"portfolio_path":     cfg.Data.PortfolioPath,
			"market_path":        cfg.Data.MarketPath,
			"use_file_timestamp": cfg.Data.UseFileTimestamp,
		},
		"renderer": renderer,
		"uptime":   time.Since(s.app.StartupTime).Round(time.Second).String(),
	})
}
