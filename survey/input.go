// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package survey

import (
	"strings"
	"time"
)

// Input is a decoded key press.
type Input struct {
	Kind  InputKind
	Digit int
}

type InputKind int

const (
	InputDigit InputKind = iota + 1
	InputClear
	InputClose
)

// ParseKey decodes a browser key name. Digits may come as "0"-"9" or as
// "Numpad0"-"Numpad9"; "Backspace" clears and "Escape" closes.
func ParseKey(key string) (Input, bool) {
	switch key {
	case "Backspace":
		return Input{Kind: InputClear}, true
	case "Escape":
		return Input{Kind: InputClose}, true
	}
	d := strings.TrimPrefix(key, "Numpad")
	if len(d) != 1 || d[0] < '0' || d[0] > '9' {
		return Input{}, false
	}
	return Input{Kind: InputDigit, Digit: int(d[0] - '0')}, true
}

// armState is the pending "1 then 0" window on the 0-10 field.
type armState struct {
	unit  *Unit
	until time.Time
}

func (s *Session) disarm() {
	s.arm = armState{}
}

// armedFor reports whether a digit arriving now may still upgrade a
// provisional 1 on u's green field.
func (s *Session) armedFor(u *Unit, now time.Time) bool {
	if s.arm.unit != u || now.After(s.arm.until) {
		return false
	}
	v, ok := u.Rating(FieldGreen)
	return ok && v == 1 && s.lastField == FieldGreen
}

func (s *Session) armRemaining(u *Unit, now time.Time) time.Duration {
	if !s.armedFor(u, now) {
		return 0
	}
	return s.arm.until.Sub(now)
}

// assign stores v and announces the change.
func (s *Session) assign(u *Unit, f Field, v int) {
	u.set(f, v)
	s.lastField = f
	val := v
	s.emit(Change{UnitID: u.id, Field: f, Value: &val})
}

func (s *Session) clearField(u *Unit, f Field) {
	u.unset(f)
	s.emit(Change{UnitID: u.id, Field: f})
}

// writable returns the active unit if it accepts input.
func (s *Session) writable() *Unit {
	u := s.active()
	if u == nil || s.readOnly(u) {
		return nil
	}
	return u
}

// Key routes a key press to the active unit. It reports whether the press
// changed anything; invalid or out-of-turn input is dropped silently.
func (s *Session) Key(key string) bool {
	in, ok := ParseKey(key)
	if !ok {
		return false
	}
	switch in.Kind {
	case InputClear:
		return s.Clear()
	case InputClose:
		s.Close()
		return false
	}
	return s.Digit(in.Digit)
}

// Close drops the two-digit window. An advance the window was holding is
// re-gated on the dwell alone.
func (s *Session) Close() {
	s.do(func() {
		u := s.writable()
		if u == nil {
			s.disarm()
			return
		}
		now := s.clock.Now()
		held := s.armRemaining(u, now) > 0
		s.disarm()
		if held && u.bothSet() {
			s.schedule(u, now)
		}
	})
}

// Digit applies a digit following the session's fill order.
func (s *Session) Digit(n int) bool {
	applied := false
	s.do(func() {
		applied = s.digit(n, s.clock.Now())
	})
	return applied
}

func (s *Session) digit(n int, now time.Time) bool {
	u := s.writable()
	if u == nil || n < 0 || n > 9 {
		return false
	}

	if s.armedFor(u, now) {
		s.disarm()
		if n == 0 {
			s.assign(u, FieldGreen, 10)
			return true
		}
		other := FieldGreen.Other()
		if !u.has(other) && other.Accepts(n) {
			s.assign(u, other, n)
			return true
		}
		// The window closed without a change; re-gate so a held advance
		// does not wait for the full window.
		if u.bothSet() {
			s.schedule(u, now)
		}
		return false
	}

	target, ok := s.nextEmpty(u)
	if !ok {
		return false
	}
	if target == FieldGreen && n == 1 {
		// Arm before assigning so the advance check sees the window.
		s.arm = armState{unit: u, until: now.Add(s.cfg.ArmWindow)}
		s.assign(u, FieldGreen, 1)
		return true
	}
	if !target.Accepts(n) {
		return false
	}
	s.disarm()
	s.assign(u, target, n)
	return true
}

func (s *Session) nextEmpty(u *Unit) (Field, bool) {
	for _, f := range s.cfg.Order {
		if !u.has(f) {
			return f, true
		}
	}
	return "", false
}

// Clear removes the second field's value if set, else the first's, and
// disarms any two-digit window.
func (s *Session) Clear() bool {
	cleared := false
	s.do(func() {
		u := s.writable()
		if u == nil {
			return
		}
		s.disarm()
		first, second := s.cfg.Order[0], s.cfg.Order[1]
		switch {
		case u.has(second):
			s.clearField(u, second)
		case u.has(first):
			s.clearField(u, first)
		default:
			return
		}
		cleared = true
	})
	return cleared
}

// Select is a pointer click on a numbered control. Unlike keys it may target
// either field and may replace a value.
func (s *Session) Select(f Field, v int) bool {
	applied := false
	s.do(func() {
		u := s.writable()
		if u == nil || !f.Known() || !f.Accepts(v) {
			return
		}
		s.disarm()
		s.assign(u, f, v)
		applied = true
	})
	return applied
}
