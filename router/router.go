// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/danielhkuo/greenery-survey/cliparse"
	"github.com/danielhkuo/greenery-survey/handlers"
	"github.com/danielhkuo/greenery-survey/middleware"
	"github.com/danielhkuo/greenery-survey/pool"
)

// NewRouter wires every endpoint. resultsDB may be nil when responses go to
// a non-SQL store; GET /results is then not registered.
func NewRouter(cfg cliparse.Config, reg *handlers.Registry, manifest pool.Manifest, resultsDB *sql.DB) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	sessionHandler := handlers.NewSessionHandler(reg, cfg, manifest)
	configHandler := handlers.NewConfigHandler(cfg)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.HandleFunc("GET /config", middleware.WithLogging(configHandler.GetConfig))

	// Session lifecycle (participant)
	mux.HandleFunc("POST /sessions", middleware.WithLogging(sessionHandler.StartSession))
	mux.HandleFunc("GET /sessions/{id}", middleware.WithLogging(sessionHandler.GetSession))
	mux.HandleFunc("POST /sessions/{id}/units/{unit}/loaded", middleware.WithLogging(sessionHandler.ImageLoaded))
	mux.HandleFunc("POST /sessions/{id}/keys", middleware.WithLogging(sessionHandler.Key))
	mux.HandleFunc("POST /sessions/{id}/ratings", middleware.WithLogging(sessionHandler.Rate))
	mux.HandleFunc("POST /sessions/{id}/back", middleware.WithLogging(sessionHandler.Back))
	mux.HandleFunc("POST /sessions/{id}/forward", middleware.WithLogging(sessionHandler.Forward))
	mux.HandleFunc("POST /sessions/{id}/submit", middleware.WithLogging(sessionHandler.Submit))

	// Results (admin)
	if resultsDB != nil {
		resultsHandler := handlers.NewResultsHandler(resultsDB, cfg)
		mux.HandleFunc("GET /results", middleware.WithLogging(resultsHandler.GetResults))
	}

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("greenery-survey API v1"))
	})

	return mux
}
