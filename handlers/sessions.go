// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/greenery-survey/auth"
	"github.com/danielhkuo/greenery-survey/cliparse"
	"github.com/danielhkuo/greenery-survey/middleware"
	"github.com/danielhkuo/greenery-survey/models"
	"github.com/danielhkuo/greenery-survey/pool"
	"github.com/danielhkuo/greenery-survey/survey"
)

// TokenHeader carries the session token on every session request.
const TokenHeader = "X-Session-Token"

type SessionHandler struct {
	reg      *Registry
	cfg      cliparse.Config
	manifest pool.Manifest

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewSessionHandler(reg *Registry, cfg cliparse.Config, manifest pool.Manifest) *SessionHandler {
	return &SessionHandler{
		reg:      reg,
		cfg:      cfg,
		manifest: manifest,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (h *SessionHandler) newPool() *pool.Queue {
	h.mu.Lock()
	defer h.mu.Unlock()
	return pool.ForSession(h.manifest, h.cfg.Shuffle, h.rnd)
}

// StartSession handles POST /sessions
func (h *SessionHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req models.StartSessionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	sc, err := h.cfg.SurveyConfig(req.RatingOrder)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	q := h.newPool()
	if q.Remaining() == 0 {
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "No images available")
		return
	}

	sessionID := uuid.NewString()
	meta := models.SessionMetadata{
		UserAgent: r.UserAgent(),
		IPHash:    auth.HashIP(middleware.GetClientIP(r), h.cfg.IPSalt),
	}

	if _, err := h.reg.Start(sessionID, sc, q, meta); err != nil {
		slog.Error("failed to start session", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to start session")
		return
	}

	state, err := h.state(sessionID)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to start session")
		return
	}

	slog.Info("session created", "session_id", sessionID, "order", sc.Order.Code(), "images", q.Remaining()+1)

	middleware.JSONResponse(w, http.StatusCreated, models.StartSessionResponse{
		Token: auth.GenerateSessionToken(sessionID, h.cfg.SessionSalt),
		State: state,
	})
}

// GetSession handles GET /sessions/{id}
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.session(w, r); !ok {
		return
	}

	state, err := h.state(r.PathValue("id"))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusNotFound, "Session not found")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, state)
}

// ImageLoaded handles POST /sessions/{id}/units/{unit}/loaded
func (h *SessionHandler) ImageLoaded(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req models.ImageLoadedRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	// MarkLoaded swaps out-of-window client times for server time
	var at time.Time
	if req.LoadedAt != nil {
		at = *req.LoadedAt
	}

	if err := s.MarkLoaded(r.PathValue("unit"), at); err != nil {
		if errors.Is(err, survey.ErrUnknownUnit) {
			middleware.ErrorResponse(w, http.StatusNotFound, "Unit not found")
			return
		}
		slog.Error("failed to mark image loaded", "session_id", s.ID(), "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to record load")
		return
	}

	h.respond(w, s.ID(), true)
}

// Key handles POST /sessions/{id}/keys
func (h *SessionHandler) Key(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req models.KeyRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	// Unrecognized or out-of-range keys are not errors, just not applied
	h.respond(w, s.ID(), s.Key(req.Key))
}

// Rate handles POST /sessions/{id}/ratings
func (h *SessionHandler) Rate(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req models.RateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Value == nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "value is required")
		return
	}

	h.respond(w, s.ID(), s.Select(survey.Field(req.Field), *req.Value))
}

// Back handles POST /sessions/{id}/back
func (h *SessionHandler) Back(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.respond(w, s.ID(), s.Back())
}

// Forward handles POST /sessions/{id}/forward
func (h *SessionHandler) Forward(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.respond(w, s.ID(), s.Forward())
}

// Submit handles POST /sessions/{id}/submit
// Only allowed after the background save has failed
func (h *SessionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	res, err := h.reg.Resubmit(s.ID())
	switch {
	case errors.Is(err, ErrSessionNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, "Session not found")
		return
	case errors.Is(err, survey.ErrNotEnded):
		middleware.ErrorResponse(w, http.StatusConflict, "Session has not ended")
		return
	case errors.Is(err, ErrSaveInFlight), errors.Is(err, ErrAlreadySaved):
		middleware.ErrorResponse(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, ErrRegistryClosed):
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Server is shutting down")
		return
	}

	slog.Info("responses resubmitted", "session_id", s.ID(), "success", res.Success)

	state, err := h.state(s.ID())
	if err != nil {
		middleware.ErrorResponse(w, http.StatusNotFound, "Session not found")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, state)
}

// session authenticates the request and looks up its session
func (h *SessionHandler) session(w http.ResponseWriter, r *http.Request) (*survey.Session, bool) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "session ID required")
		return nil, false
	}

	token := r.Header.Get(TokenHeader)
	if token == "" {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "X-Session-Token header required")
		return nil, false
	}
	if err := auth.ValidateSessionToken(sessionID, token, h.cfg.SessionSalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid session token")
		return nil, false
	}

	s, err := h.reg.Get(sessionID)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusNotFound, "Session not found")
		return nil, false
	}
	return s, true
}

func (h *SessionHandler) state(sessionID string) (models.SessionState, error) {
	st, err := h.reg.State(sessionID, h.cfg.Preload)
	if err != nil {
		return models.SessionState{}, err
	}
	if st.Save != nil && st.Save.Success {
		st.CompletionCode = auth.CompletionCode(sessionID, h.cfg.SessionSalt)
	}
	return st, nil
}

func (h *SessionHandler) respond(w http.ResponseWriter, sessionID string, applied bool) {
	state, err := h.state(sessionID)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusNotFound, "Session not found")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.InputResponse{
		Applied: applied,
		State:   state,
	})
}
