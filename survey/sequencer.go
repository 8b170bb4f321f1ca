// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package survey

import (
	"log/slog"
	"time"

	"github.com/danielhkuo/greenery-survey/clock"
	"github.com/danielhkuo/greenery-survey/models"
)

// pendingAdvance is the single deferred advance a session may hold.
type pendingAdvance struct {
	unit  *Unit
	timer clock.Timer
}

// emit applies the sequencer's reaction to a field change and queues the
// change for observers.
func (s *Session) emit(c Change) {
	s.onChange(c)
	for _, fn := range s.observers {
		s.outbox = append(s.outbox, func() { fn(c) })
	}
}

// onChange is the "both ratings set?" check run after every assignment.
func (s *Session) onChange(c Change) {
	u := s.active()
	if u == nil || u.id != c.UnitID {
		return
	}
	if !u.bothSet() {
		s.cancelPending()
		s.phase = models.PhaseAwaitingRatings
		return
	}
	s.onBothRatingsSet(u)
}

// onBothRatingsSet stamps the unit and schedules its advance.
func (s *Session) onBothRatingsSet(u *Unit) {
	now := s.clock.Now()
	u.stampBothRated(now)
	s.schedule(u, now)
}

// schedule evaluates the dwell gate for u and either advances now or arms
// the single deferred advance, replacing whatever was pending before.
func (s *Session) schedule(u *Unit, now time.Time) {
	s.cancelPending()

	v := Evaluate(u, now, s.cfg.MinDwell)
	if !v.WaitKnown {
		s.phase = models.PhaseAwaitingLoad
		return
	}

	wait := v.Wait
	// Hold the advance while a two-digit entry may still be completed.
	if hold := s.armRemaining(u, now); hold > wait {
		wait = hold
	}
	if wait <= 0 {
		s.advance(u)
		return
	}

	s.phase = models.PhaseDwelling
	p := &pendingAdvance{unit: u}
	p.timer = s.clock.AfterFunc(wait, func() { s.fire(p) })
	s.pending = p
}

// fire runs when a deferred advance comes due. Stale callbacks, whether for
// a superseded unit or a replaced schedule, do nothing.
func (s *Session) fire(p *pendingAdvance) {
	s.do(func() {
		if s.pending != p {
			slog.Debug("stale advance ignored", "session_id", s.id, "unit_id", p.unit.id)
			return
		}
		s.pending = nil
		if s.active() != p.unit || !p.unit.bothSet() {
			return
		}
		s.schedule(p.unit, s.clock.Now())
	})
}

func (s *Session) cancelPending() {
	if s.pending == nil {
		return
	}
	s.pending.timer.Stop()
	s.pending = nil
}

// advance completes the active unit and moves on: to an existing next unit,
// to a fresh unit from the pool, or to a terminal state.
func (s *Session) advance(u *Unit) {
	s.phase = models.PhaseAdvancing
	s.disarm()
	s.complete(u)

	if s.cfg.Cap > 0 && s.completed >= s.cfg.Cap {
		s.end(EndCapped)
		return
	}

	if s.cursor+1 < len(s.units) {
		s.cursor++
		s.activate(s.units[s.cursor])
		return
	}

	ref, ok := s.pool.Next()
	if !ok {
		s.end(EndExhausted)
		return
	}
	next := newUnit(ref)
	s.units = append(s.units, next)
	s.cursor++
	s.activate(next)
}

func (s *Session) complete(u *Unit) {
	now := s.clock.Now()
	u.status = StatusCompleted
	u.completedAt = now
	if !u.completedOnce {
		u.completedOnce = true
		s.completed++
	}
	s.recorder.Record(u)

	slog.Info("unit completed",
		"session_id", s.id,
		"unit_id", u.id,
		"image_ref", u.imageRef,
		"completed", s.completed,
	)
}

// activate makes u the active unit and derives its phase. A never-completed
// unit that already holds both ratings is gated again.
func (s *Session) activate(u *Unit) {
	u.status = StatusActive
	u.shownAt = s.clock.Now()
	s.lastField = ""

	switch {
	case u.completedOnce:
		s.phase = models.PhaseReviewing
	case !u.bothSet():
		s.phase = models.PhaseAwaitingRatings
	default:
		s.schedule(u, s.clock.Now())
	}
}

// park takes u out of the active slot without completing it.
func (s *Session) park(u *Unit) {
	if u.completedOnce {
		u.status = StatusCompleted
	} else {
		u.status = StatusPending
	}
}

func (s *Session) end(reason EndReason) {
	if s.ended != "" {
		return
	}
	s.cancelPending()
	s.disarm()

	s.ended = reason
	s.endedAt = s.clock.Now()
	if reason == EndCapped {
		s.phase = models.PhaseCapped
	} else {
		s.phase = models.PhaseExhausted
	}
	for _, u := range s.units {
		if u.status != StatusCompleted {
			u.status = StatusDiscarded
		}
	}

	slog.Info("session ended", "session_id", s.id, "reason", reason, "completed", s.completed, "records", s.recorder.Len())

	if s.host != nil {
		s.outbox = append(s.outbox, func() { s.host.SessionEnded(s, reason) })
	}
}

// readOnly reports whether input to u is refused under the revisit policy.
func (s *Session) readOnly(u *Unit) bool {
	return u.completedOnce && s.cfg.Revisit == RevisitLock
}

// Back steps to the previous unit. The unit left behind keeps its ratings.
func (s *Session) Back() bool {
	moved := false
	s.do(func() {
		u := s.active()
		if u == nil || s.cursor == 0 {
			return
		}
		s.cancelPending()
		s.disarm()
		s.park(u)
		s.cursor--
		s.activate(s.units[s.cursor])
		moved = true
	})
	return moved
}

// Forward steps to an already-created next unit. It is only allowed from a
// unit that has been completed, so it never skips rating.
func (s *Session) Forward() bool {
	moved := false
	s.do(func() {
		u := s.active()
		if u == nil || !u.completedOnce || s.cursor+1 >= len(s.units) {
			return
		}
		s.cancelPending()
		s.disarm()
		s.park(u)
		s.cursor++
		s.activate(s.units[s.cursor])
		moved = true
	})
	return moved
}
