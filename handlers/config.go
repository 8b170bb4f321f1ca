// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/danielhkuo/greenery-survey/cliparse"
	"github.com/danielhkuo/greenery-survey/middleware"
	"github.com/danielhkuo/greenery-survey/models"
	"github.com/danielhkuo/greenery-survey/survey"
)

type ConfigHandler struct {
	cfg cliparse.Config
}

func NewConfigHandler(cfg cliparse.Config) *ConfigHandler {
	return &ConfigHandler{cfg: cfg}
}

// GetConfig handles GET /config
// Everything the survey page needs to render the rating controls
func (h *ConfigHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	sc, err := h.cfg.SurveyConfig("")
	if err != nil {
		slog.Error("invalid survey configuration", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Invalid survey configuration")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ConfigResponse{
		FieldOrder:     sc.Order.Names(),
		LexiconVariant: string(sc.Lexicon),
		Scales:         sc.Lexicon.Scales(),
		TapToRate:      survey.TapToRate,
		MinDwellMs:     sc.MinDwell.Milliseconds(),
		ArmWindowMs:    sc.ArmWindow.Milliseconds(),
		MaxImages:      sc.Cap,
		RevisitPolicy:  string(sc.Revisit),
	})
}
