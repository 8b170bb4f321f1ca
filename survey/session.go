// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package survey

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/danielhkuo/greenery-survey/clock"
	"github.com/danielhkuo/greenery-survey/models"
)

var (
	ErrUnknownUnit   = errors.New("unknown unit")
	ErrInvalidConfig = errors.New("invalid session config")
	ErrNotEnded      = errors.New("session has not ended")
)

const (
	DefaultMinDwell  = 2000 * time.Millisecond
	DefaultArmWindow = 800 * time.Millisecond
)

// Config holds the session-level settings.
type Config struct {
	Order     Order
	MinDwell  time.Duration
	ArmWindow time.Duration
	// Cap is the maximum number of completed units; 0 means no cap.
	Cap     int
	Revisit RevisitPolicy
	Lexicon Lexicon
	Version string
}

func (c Config) Validate() error {
	if !c.Order.valid() {
		return fmt.Errorf("%w: order %v", ErrInvalidConfig, c.Order)
	}
	if c.MinDwell < 0 {
		return fmt.Errorf("%w: negative min dwell", ErrInvalidConfig)
	}
	if c.ArmWindow < 0 {
		return fmt.Errorf("%w: negative arm window", ErrInvalidConfig)
	}
	if c.Cap < 0 {
		return fmt.Errorf("%w: negative cap", ErrInvalidConfig)
	}
	if c.Revisit != RevisitReopen && c.Revisit != RevisitLock {
		return fmt.Errorf("%w: revisit policy %q", ErrInvalidConfig, c.Revisit)
	}
	return nil
}

// Pool hands out image references. It is finite and does not restart.
type Pool interface {
	Next() (string, bool)
	Peek(n int) []string
	Remaining() int
}

// Host owns page-level navigation. SessionEnded is called exactly once per
// session, outside the session lock.
type Host interface {
	SessionEnded(s *Session, reason EndReason)
}

// EndReason is the terminal state of a session.
type EndReason string

const (
	EndExhausted EndReason = models.EndExhausted
	EndCapped    EndReason = models.EndCapped
)

// Change announces a field assignment on a unit. A nil Value means cleared.
type Change struct {
	UnitID string
	Field  Field
	Value  *int
}

// Session is one survey run. All state transitions happen under mu, which
// plays the part of the single UI thread: input, load signals and deferred
// advances are serialized through it.
type Session struct {
	mu    sync.Mutex
	id    string
	cfg   Config
	clock clock.Clock
	pool  Pool
	host  Host

	units     []*Unit
	cursor    int
	completed int
	phase     string
	pending   *pendingAdvance
	arm       armState
	lastField Field

	ended     EndReason
	startedAt time.Time
	endedAt   time.Time

	recorder  *Recorder
	observers []func(Change)
	outbox    []func()
}

// NewSession creates a session and seeds its first unit from the pool. An
// empty pool ends the session at once.
func NewSession(id string, cfg Config, clk clock.Clock, pool Pool, host Host) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if clk == nil || pool == nil {
		return nil, fmt.Errorf("%w: clock and pool are required", ErrInvalidConfig)
	}

	s := &Session{
		id:        id,
		cfg:       cfg,
		clock:     clk,
		pool:      pool,
		host:      host,
		startedAt: clk.Now(),
	}
	s.recorder = NewRecorder(s.startedAt)

	s.do(func() {
		ref, ok := s.pool.Next()
		if !ok {
			s.end(EndExhausted)
			return
		}
		u := newUnit(ref)
		s.units = append(s.units, u)
		s.activate(u)
	})

	slog.Info("session started", "session_id", id, "order", cfg.Order.Code(), "cap", cfg.Cap)
	return s, nil
}

func (s *Session) ID() string     { return s.id }
func (s *Session) Config() Config { return s.cfg }

// Subscribe registers an observer of field changes. Observers run after the
// change has been applied, outside the session lock.
func (s *Session) Subscribe(fn func(Change)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// do runs fn under the lock, then delivers queued notifications.
func (s *Session) do(fn func()) {
	s.mu.Lock()
	fn()
	out := s.outbox
	s.outbox = nil
	s.mu.Unlock()

	for _, f := range out {
		f()
	}
}

func (s *Session) active() *Unit {
	if s.ended != "" || len(s.units) == 0 {
		return nil
	}
	return s.units[s.cursor]
}

func (s *Session) unit(id string) *Unit {
	for _, u := range s.units {
		if u.id == id {
			return u
		}
	}
	return nil
}

// ActiveID returns the active unit's ID, or "" once the session has ended.
func (s *Session) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u := s.active(); u != nil {
		return u.id
	}
	return ""
}

// Ended reports the terminal reason, if any.
func (s *Session) Ended() (EndReason, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended, s.ended != ""
}

// Phase returns the phase of the active unit, or the terminal phase.
func (s *Session) Phase() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Units returns the ID and status of every unit created so far, in order.
func (s *Session) Units() []models.UnitView {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.UnitView, 0, len(s.units))
	for _, u := range s.units {
		out = append(out, *u.view(s.readOnly(u)))
	}
	return out
}

// MarkLoaded is the image-load signal for a unit. Only the first signal per
// unit counts. A zero time means now, and so does a time earlier than the
// unit's activation or later than now: the image cannot have loaded outside
// that window.
func (s *Session) MarkLoaded(unitID string, at time.Time) error {
	var err error
	s.do(func() {
		u := s.unit(unitID)
		if u == nil {
			err = fmt.Errorf("%w: %s", ErrUnknownUnit, unitID)
			return
		}
		if u.status == StatusDiscarded {
			return
		}
		now := s.clock.Now()
		if at.IsZero() || at.Before(u.shownAt) || at.After(now) {
			at = now
		}
		if !u.stampLoaded(at) {
			return
		}
		// A load signal for anything but the active unit only stamps.
		if u != s.active() || s.readOnly(u) {
			return
		}
		if u.bothSet() && s.phase == models.PhaseAwaitingLoad {
			s.schedule(u, now)
		}
	})
	return err
}

// State returns a snapshot suitable for the UI.
func (s *Session) State(preload int) models.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := models.SessionState{
		SessionID:      s.id,
		Phase:          s.phase,
		FieldOrder:     s.cfg.Order.Names(),
		Position:       s.cursor,
		UnitCount:      len(s.units),
		CompletedCount: s.completed,
		Cap:            s.cfg.Cap,
		EndReason:      string(s.ended),
	}
	if u := s.active(); u != nil {
		st.Active = u.view(s.readOnly(u))
		if preload > 0 {
			st.Preload = s.pool.Peek(preload)
		}
	}
	return st
}

// Payload assembles the completion payload. It fails until the session has
// reached a terminal state.
func (s *Session) Payload(extra models.SessionMetadata) (models.Payload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ended == "" {
		return models.Payload{}, ErrNotEnded
	}

	meta := extra
	meta.RatingOrder = s.cfg.Order.Code()
	meta.FieldOrder = s.cfg.Order.Names()
	meta.LexiconVariant = string(s.cfg.Lexicon)
	meta.RevisitPolicy = string(s.cfg.Revisit)
	meta.CompletedCount = s.completed
	meta.EndReason = string(s.ended)
	meta.EndedAt = s.endedAt
	if meta.SurveyVersion == "" {
		meta.SurveyVersion = s.cfg.Version
	}
	if s.cfg.Cap > 0 {
		c := s.cfg.Cap
		meta.MaxImagesCap = &c
	}
	return s.recorder.Payload(s.id, meta), nil
}
