package api

import (
	"net/http"

	"github.com/vytor/memocurve/internal/logger"
)

type probeResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// handleHealth is the liveness probe: the process is up.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, probeResponse{Status: "ok"})
}

// handleReady is the readiness probe: the card store answers a ping.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.DB != nil {
		if err := s.DB.Ping(r.Context()); err != nil {
			logger.FromContext(r.Context()).Warn("readiness check failed - database: %v", err)
			writeJSON(w, r, http.StatusServiceUnavailable, probeResponse{Status: "unavailable", Error: "database unavailable"})
			return
		}
	}
	writeJSON(w, r, http.StatusOK, probeResponse{Status: "ready"})
}
