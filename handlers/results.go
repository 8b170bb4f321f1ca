// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/greenery-survey/auth"
	"github.com/danielhkuo/greenery-survey/cliparse"
	"github.com/danielhkuo/greenery-survey/middleware"
	"github.com/danielhkuo/greenery-survey/models"
)

// AdminKeyHeader carries the admin key on results requests.
const AdminKeyHeader = "X-Admin-Key"

type ResultsHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewResultsHandler(db *sql.DB, cfg cliparse.Config) *ResultsHandler {
	return &ResultsHandler{db: db, cfg: cfg}
}

// GetResults handles GET /results
// Per-image rating summaries across all saved sessions (admin only)
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	if err := auth.ValidateAdminKey(r.Header.Get(AdminKeyHeader), h.cfg.AdminKey); err != nil {
		middleware.ErrorResponse(w, http.StatusForbidden, "Invalid admin key")
		return
	}

	sessions, err := countSessions(h.db)
	if err != nil {
		slog.Error("failed to count sessions", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	images, err := ComputeImageSummaries(h.db)
	if err != nil {
		slog.Error("failed to compute summaries", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ResultsResponse{
		Sessions: sessions,
		Images:   images,
	})
}
