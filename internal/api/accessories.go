package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-zigbee/internal/platform"
)

func (s *Server) handleListAccessories(w http.ResponseWriter, _ *http.Request) {
	accessories := s.platform.Accessories()
	writeJSON(w, http.StatusOK, map[string]any{"accessories": accessories, "count": len(accessories)})
}

func (s *Server) handleGetAccessory(w http.ResponseWriter, r *http.Request) {
	acc, ok := s.platform.Accessory(chi.URLParam(r, "ieeeAddr"))
	if !ok {
		writeNotFound(w, "accessory not found")
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

func (s *Server) handleIdentifyAccessory(w http.ResponseWriter, r *http.Request) {
	addr := chi.URLParam(r, "ieeeAddr")
	if err := s.platform.Identify(r.Context(), addr); err != nil {
		if errors.Is(err, platform.ErrNotAttached) {
			writeNotFound(w, "accessory not found")
			return
		}
		s.logger.Error("identify failed", "address", addr, "error", err)
		writeInternalError(w, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDiscover runs a discovery pass and returns its summary.
func (s *Server) handleDiscover(w http.ResponseWriter, r *http.Request) {
	result, err := s.platform.Discover(r.Context())
	if err != nil {
		s.logger.Error("discovery failed", "actor", subject(r), "error", err)
		writeInternalError(w, err.Error())
		return
	}
	s.logger.Info("discovery requested", "actor", subject(r), "attached", result.Attached)
	writeJSON(w, http.StatusOK, result)
}
