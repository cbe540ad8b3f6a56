// Package api is the admin console backend: CRUD over fields and factor
// configurations plus a score preview endpoint, served over plain HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"credit-scoring-workers/internal/common/config"
	"credit-scoring-workers/internal/common/logger"
	"credit-scoring-workers/internal/store"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server carries the handler dependencies. Engines are assembled per request
// from the store's cached snapshot, so configuration edits take effect on the
// next preview without a restart.
type Server struct {
	store   *store.Store
	scoring config.ScoringConfig
	logger  logger.Logger
}

func NewServer(st *store.Store, scoring config.ScoringConfig, log logger.Logger) *Server {
	return &Server{
		store:   st,
		scoring: scoring,
		logger:  log.WithFields(map[string]interface{}{"component": "api"}),
	}
}

// Routes builds the request multiplexer.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/fields", s.handleListFields)
	mux.HandleFunc("POST /api/fields", s.handleCreateField)
	mux.HandleFunc("GET /api/fields/{id}", s.handleGetField)
	mux.HandleFunc("PUT /api/fields/{id}", s.handleUpdateField)
	mux.HandleFunc("DELETE /api/fields/{id}", s.handleDeleteField)

	mux.HandleFunc("GET /api/configs", s.handleListFactors)
	mux.HandleFunc("POST /api/configs", s.handleCreateFactor)
	mux.HandleFunc("GET /api/configs/{key}", s.handleGetFactor)
	mux.HandleFunc("PUT /api/configs/{key}", s.handleUpdateFactor)
	mux.HandleFunc("DELETE /api/configs/{key}", s.handleDeleteFactor)

	mux.HandleFunc("POST /api/score/preview", s.handleScorePreview)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("response encoding failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrFieldNotFound), errors.Is(err, store.ErrFactorNotFound):
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: "not_found"})
	case errors.Is(err, store.ErrFieldConflict):
		s.writeJSON(w, http.StatusConflict, errorResponse{Error: "conflict"})
	default:
		s.logger.Error("request failed", map[string]interface{}{
			"error": err.Error(),
		})
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal"})
	}
}

func (s *Server) writeBadRequest(w http.ResponseWriter, message string) {
	s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: message})
}
