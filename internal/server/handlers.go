package server

import (
	"net/http"
	"strings"

	"github.com/bobmcallan/advisor/internal/models"
)

// NormalizeSectorRequest is the body of POST /api/sectors/normalize.
type NormalizeSectorRequest struct {
	Label  string   `json:"label"`
	Labels []string `json:"labels,omitempty"`
}

// NormalizedSector pairs an input label with its bucket.
type NormalizedSector struct {
	Label  string `json:"label"`
	Sector string `json:"sector"`
}

// handleClients handles GET /api/clients.
func (s *Server) handleClients(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	ids, err := s.app.Service.Clients(r.Context())
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to list clients")
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"clients": ids,
		"count":   len(ids),
	})
}

// handleRecommendations handles POST /api/recommendations.
func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req models.RecommendRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	out, err := s.app.Service.Recommend(r.Context(), req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, out)
}

// handleAdvice handles POST /api/advice.
func (s *Server) handleAdvice(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req models.RecommendRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	adv, err := s.app.Service.Advise(r.Context(), req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, adv)
}

// handleNormalizeSector handles GET /api/sectors/normalize?label=... and
// POST /api/sectors/normalize with a single label or a batch.
func (s *Server) handleNormalizeSector(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodPost) {
		return
	}

	var req NormalizeSectorRequest
	if r.Method == http.MethodGet {
		req.Label = r.URL.Query().Get("label")
	} else if !DecodeJSON(w, r, &req) {
		return
	}

	if len(req.Labels) > 0 {
		out := make([]NormalizedSector, 0, len(req.Labels))
		for _, label := range req.Labels {
			out = append(out, NormalizedSector{Label: label, Sector: s.app.Service.NormalizeSector(label)})
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{"sectors": out})
		return
	}

	if strings.TrimSpace(req.Label) == "" {
		WriteErrorWithCode(w, http.StatusBadRequest, "label is required", CodeInvalidInput)
		return
	}
	WriteJSON(w, http.StatusOK, NormalizedSector{Label: req.Label, Sector: s.app.Service.NormalizeSector(req.Label)})
}
