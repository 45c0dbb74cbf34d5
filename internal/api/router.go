package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-zigbee/internal/auth"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Route("/devices", func(r chi.Router) {
				r.With(s.require(auth.PermDeviceRead)).Get("/", s.handleListDevices)

				r.Route("/{ieeeAddr}", func(r chi.Router) {
					r.With(s.require(auth.PermDeviceRead)).Get("/", s.handleGetDevice)
					r.With(s.require(auth.PermDeviceCommission)).Delete("/", s.handleUnpairDevice)
					r.With(s.require(auth.PermDeviceOperate)).Post("/set", s.handleSetDeviceState)
					r.With(s.require(auth.PermDeviceRead)).Post("/get", s.handleGetDeviceState)
				})
			})

			r.Route("/accessories", func(r chi.Router) {
				r.With(s.require(auth.PermDeviceRead)).Get("/", s.handleListAccessories)
				r.With(s.require(auth.PermDeviceRead)).Get("/{ieeeAddr}", s.handleGetAccessory)
				r.With(s.require(auth.PermDeviceOperate)).Post("/{ieeeAddr}/identify", s.handleIdentifyAccessory)
			})

			r.With(s.require(auth.PermDeviceCommission)).Post("/discover", s.handleDiscover)
			r.With(s.require(auth.PermAuditRead)).Get("/audit", s.handleListAuditLogs)
			r.With(s.require(auth.PermDeviceRead)).Get(s.wsPath(), s.handleWebSocket)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"version":     s.version,
		"accessories": len(s.platform.Accessories()),
	})
}

// wsPath returns the configured WebSocket path under /api, default "/ws".
func (s *Server) wsPath() string {
	if s.wsCfg.Path == "" {
		return "/ws"
	}
	return s.wsCfg.Path
}
