// internal/api/factors.go
package api

import (
	"encoding/json"
	"net/http"

	"credit-scoring-workers/internal/scoring/factor"
)

func (s *Server) handleListFactors(w http.ResponseWriter, r *http.Request) {
	configs, err := s.store.LoadFactors(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if configs == nil {
		configs = []factor.Config{}
	}
	s.writeJSON(w, http.StatusOK, configs)
}

func (s *Server) handleGetFactor(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.store.GetFactor(r.Context(), r.PathValue("key"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleCreateFactor(w http.ResponseWriter, r *http.Request) {
	var cfg factor.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		s.writeBadRequest(w, "invalid factor configuration payload")
		return
	}
	if err := cfg.Validate(); err != nil {
		s.writeBadRequest(w, err.Error())
		return
	}

	if err := s.store.CreateFactor(r.Context(), cfg); err != nil {
		s.writeError(w, err)
		return
	}

	s.logger.Info("factor created", map[string]interface{}{"factor": cfg.Key})
	s.writeJSON(w, http.StatusCreated, cfg)
}

func (s *Server) handleUpdateFactor(w http.ResponseWriter, r *http.Request) {
	var cfg factor.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		s.writeBadRequest(w, "invalid factor configuration payload")
		return
	}
	cfg.Key = r.PathValue("key")
	if err := cfg.Validate(); err != nil {
		s.writeBadRequest(w, err.Error())
		return
	}

	if err := s.store.UpdateFactor(r.Context(), cfg); err != nil {
		s.writeError(w, err)
		return
	}

	s.logger.Info("factor updated", map[string]interface{}{"factor": cfg.Key})
	s.writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleDeleteFactor(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if err := s.store.DeleteFactor(r.Context(), key); err != nil {
		s.writeError(w, err)
		return
	}

	s.logger.Info("factor deleted", map[string]interface{}{"factor": key})
	w.WriteHeader(http.StatusNoContent)
}
