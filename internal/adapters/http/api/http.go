// Package api serves the gateway handlers over net/http for the local stack.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/acolyte/internal/domain/types"
)

// Dependencies are the gateway handlers the server fronts.
type Dependencies interface {
	// SeedHandler answers /warriors.
	SeedHandler() ProxyHandler
	// RecordsHandler answers /records, /records/{id} and /fetchWarriors.
	RecordsHandler() ProxyHandler
}

// Server wires HTTP routes for the local gateway.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	seed          http.HandlerFunc
	records       http.HandlerFunc
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		seed:          Proxy(deps.SeedHandler(), "/warriors"),
		records:       Proxy(deps.RecordsHandler(), "/records"),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/warriors", MetricsMiddleware(s.seed, "warriors"))
	mux.HandleFunc("/records", MetricsMiddleware(s.records, "records"))
	mux.HandleFunc("/records/", MetricsMiddleware(s.records, "record"))
	mux.HandleFunc("/fetchWarriors", MetricsMiddleware(s.records, "fetchWarriors"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, types.ErrorBody{Code: code, Message: msg})
}
