// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/danielhkuo/greenery-survey/clock"
	"github.com/danielhkuo/greenery-survey/models"
	"github.com/danielhkuo/greenery-survey/survey"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSaveInFlight    = errors.New("save already in progress")
	ErrAlreadySaved    = errors.New("responses already saved")
	ErrRegistryClosed  = errors.New("registry closed")
)

type entry struct {
	session  *survey.Session
	meta     models.SessionMetadata
	payload  *models.Payload
	save     *models.SaveResult
	lastSeen time.Time
}

// Registry holds the live sessions and plays the survey page host: when a
// session ends it builds the payload and saves it in the background.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*entry

	saver   survey.Saver
	timeout time.Duration
	clock   clock.Clock
	saves   errgroup.Group
	closed  bool
}

func NewRegistry(saver survey.Saver, saveTimeout time.Duration, clk clock.Clock) *Registry {
	if clk == nil {
		clk = clock.System{}
	}
	return &Registry{
		sessions: make(map[string]*entry),
		saver:    saver,
		timeout:  saveTimeout,
		clock:    clk,
	}
}

// Start creates and registers a session. The entry exists before the
// session does, so an immediate end still finds it.
func (reg *Registry) Start(id string, cfg survey.Config, pool survey.Pool, meta models.SessionMetadata) (*survey.Session, error) {
	reg.mu.Lock()
	reg.sessions[id] = &entry{meta: meta, lastSeen: reg.clock.Now()}
	reg.mu.Unlock()

	s, err := survey.NewSession(id, cfg, reg.clock, pool, reg)
	if err != nil {
		reg.mu.Lock()
		delete(reg.sessions, id)
		reg.mu.Unlock()
		return nil, err
	}

	reg.mu.Lock()
	reg.sessions[id].session = s
	reg.mu.Unlock()

	s.Subscribe(func(c survey.Change) { reg.noteChange(id, c) })
	return s, nil
}

// noteChange counts rating edits for the payload metadata.
func (reg *Registry) noteChange(id string, c survey.Change) {
	reg.mu.Lock()
	if e, ok := reg.sessions[id]; ok {
		e.meta.RatingChanges++
		e.lastSeen = reg.clock.Now()
	}
	reg.mu.Unlock()

	slog.Debug("rating changed", "session_id", id, "unit_id", c.UnitID, "field", c.Field, "cleared", c.Value == nil)
}

// Get returns a live session and marks it as seen.
func (reg *Registry) Get(id string) (*survey.Session, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	e, ok := reg.sessions[id]
	if !ok || e.session == nil {
		return nil, ErrSessionNotFound
	}
	e.lastSeen = reg.clock.Now()
	return e.session, nil
}

// State is the session snapshot plus the save outcome, if any.
func (reg *Registry) State(id string, preload int) (models.SessionState, error) {
	reg.mu.Lock()
	e, ok := reg.sessions[id]
	if !ok || e.session == nil {
		reg.mu.Unlock()
		return models.SessionState{}, ErrSessionNotFound
	}
	s := e.session
	var save *models.SaveResult
	if e.save != nil {
		cp := *e.save
		save = &cp
	}
	reg.mu.Unlock()

	st := s.State(preload)
	st.Save = save
	return st, nil
}

// SessionEnded implements survey.Host.
func (reg *Registry) SessionEnded(s *survey.Session, reason survey.EndReason) {
	reg.mu.Lock()
	e, ok := reg.sessions[s.ID()]
	if !ok {
		reg.mu.Unlock()
		slog.Warn("ended session not registered", "session_id", s.ID())
		return
	}
	e.session = s

	p, err := s.Payload(e.meta)
	if err != nil {
		reg.mu.Unlock()
		slog.Error("failed to build payload", "session_id", s.ID(), "error", err)
		return
	}
	e.payload = &p
	if reg.closed {
		// Session timers outlive the server; the store may be gone.
		e.save = &models.SaveResult{Error: ErrRegistryClosed.Error()}
		reg.mu.Unlock()
		slog.Warn("session ended after shutdown, responses not saved", "session_id", s.ID(), "reason", reason)
		return
	}
	e.save = &models.SaveResult{Pending: true}
	// Queued under the lock so Close cannot miss it
	reg.saves.Go(func() error {
		reg.submit(s.ID(), p)
		return nil
	})
	reg.mu.Unlock()

	slog.Info("submitting responses", "session_id", s.ID(), "reason", reason, "records", len(p.Records))
}

// Resubmit retries the save after a failure. It makes one attempt and
// returns its outcome.
func (reg *Registry) Resubmit(id string) (models.SaveResult, error) {
	reg.mu.Lock()
	e, ok := reg.sessions[id]
	switch {
	case reg.closed:
		reg.mu.Unlock()
		return models.SaveResult{}, ErrRegistryClosed
	case !ok || e.session == nil:
		reg.mu.Unlock()
		return models.SaveResult{}, ErrSessionNotFound
	case e.payload == nil:
		reg.mu.Unlock()
		return models.SaveResult{}, survey.ErrNotEnded
	case e.save != nil && e.save.Pending:
		reg.mu.Unlock()
		return models.SaveResult{}, ErrSaveInFlight
	case e.save != nil && e.save.Success:
		reg.mu.Unlock()
		return models.SaveResult{}, ErrAlreadySaved
	}
	p := *e.payload
	e.save = &models.SaveResult{Pending: true}
	e.lastSeen = reg.clock.Now()
	reg.mu.Unlock()

	return reg.submit(id, p), nil
}

func (reg *Registry) submit(id string, p models.Payload) models.SaveResult {
	ctx, cancel := context.WithTimeout(context.Background(), reg.timeout)
	defer cancel()

	res := survey.Submit(ctx, reg.saver, p)

	reg.mu.Lock()
	if e, ok := reg.sessions[id]; ok {
		e.save = &res
	}
	reg.mu.Unlock()

	if res.Success {
		slog.Info("responses saved", "session_id", id, "payload_id", p.ID)
	} else {
		slog.Error("failed to save responses", "session_id", id, "payload_id", p.ID, "error", res.Error)
	}
	return res
}

// Sweep drops sessions idle for longer than idle. Sessions with a save in
// flight are kept.
func (reg *Registry) Sweep(idle time.Duration) int {
	cutoff := reg.clock.Now().Add(-idle)

	reg.mu.Lock()
	defer reg.mu.Unlock()

	n := 0
	for id, e := range reg.sessions {
		if e.save != nil && e.save.Pending {
			continue
		}
		if e.lastSeen.Before(cutoff) {
			delete(reg.sessions, id)
			n++
		}
	}
	return n
}

func (reg *Registry) Len() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.sessions)
}

// Wait blocks until every background save has finished.
func (reg *Registry) Wait() {
	_ = reg.saves.Wait()
}

// Close stops saving for sessions that end from now on and waits for the
// saves already started.
func (reg *Registry) Close() {
	reg.mu.Lock()
	reg.closed = true
	reg.mu.Unlock()

	reg.Wait()
}
