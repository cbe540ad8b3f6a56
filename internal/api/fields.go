// internal/api/fields.go
package api

import (
	"encoding/json"
	"net/http"

	"credit-scoring-workers/internal/scoring/field"
)

func (s *Server) handleListFields(w http.ResponseWriter, r *http.Request) {
	defs, err := s.store.LoadFields(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if defs == nil {
		defs = []field.Definition{}
	}
	s.writeJSON(w, http.StatusOK, defs)
}

func (s *Server) handleGetField(w http.ResponseWriter, r *http.Request) {
	def, err := s.store.GetField(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, def)
}

func (s *Server) handleCreateField(w http.ResponseWriter, r *http.Request) {
	var def field.Definition
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		s.writeBadRequest(w, "invalid field definition payload")
		return
	}

	existing, err := s.store.LoadFields(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := validateFieldChange(existing, def); err != nil {
		s.writeBadRequest(w, err.Error())
		return
	}

	if err := s.store.CreateField(r.Context(), def); err != nil {
		s.writeError(w, err)
		return
	}

	s.logger.Info("field created", map[string]interface{}{"field": def.ID})
	s.writeJSON(w, http.StatusCreated, def)
}

func (s *Server) handleUpdateField(w http.ResponseWriter, r *http.Request) {
	var def field.Definition
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		s.writeBadRequest(w, "invalid field definition payload")
		return
	}
	def.ID = r.PathValue("id")

	existing, err := s.store.LoadFields(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := validateFieldChange(existing, def); err != nil {
		s.writeBadRequest(w, err.Error())
		return
	}

	if err := s.store.UpdateField(r.Context(), def); err != nil {
		s.writeError(w, err)
		return
	}

	s.logger.Info("field updated", map[string]interface{}{"field": def.ID})
	s.writeJSON(w, http.StatusOK, def)
}

func (s *Server) handleDeleteField(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.DeleteField(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}

	s.logger.Info("field deleted", map[string]interface{}{"field": id})
	w.WriteHeader(http.StatusNoContent)
}

// validateFieldChange rebuilds the registry with the change applied, so a
// definition that would introduce a dependency cycle or an invalid shape is
// rejected before it is persisted. Duplicate IDs are left for the store to
// report as a conflict.
func validateFieldChange(existing []field.Definition, def field.Definition) error {
	next := make([]field.Definition, 0, len(existing)+1)
	for _, cur := range existing {
		if cur.ID == def.ID {
			continue
		}
		next = append(next, cur)
	}
	next = append(next, def)

	_, err := field.NewRegistryWith(next)
	return err
}
