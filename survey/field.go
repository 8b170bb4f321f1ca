// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package survey

import (
	"errors"
	"fmt"
	"strings"

	"github.com/danielhkuo/greenery-survey/models"
)

var (
	ErrInvalidOrder   = errors.New("invalid rating order")
	ErrInvalidLexicon = errors.New("invalid lexicon variant")
	ErrInvalidRevisit = errors.New("invalid revisit policy")
)

// Field names one of the two rating dimensions of a unit.
type Field string

const (
	FieldGreen    Field = models.FieldGreen
	FieldPleasant Field = models.FieldPleasant
)

// Bounds returns the inclusive range accepted by the field.
func (f Field) Bounds() (low, high int) {
	switch f {
	case FieldGreen:
		return 0, 10
	case FieldPleasant:
		return 1, 7
	}
	return 1, 0
}

// Accepts reports whether v lies within the field's range.
func (f Field) Accepts(v int) bool {
	low, high := f.Bounds()
	return v >= low && v <= high
}

func (f Field) Known() bool {
	return f == FieldGreen || f == FieldPleasant
}

// Other returns the field that is not f.
func (f Field) Other() Field {
	if f == FieldGreen {
		return FieldPleasant
	}
	return FieldGreen
}

// Order is the session-level fill order of the two fields.
type Order [2]Field

var (
	OrderGP = Order{FieldGreen, FieldPleasant}
	OrderPG = Order{FieldPleasant, FieldGreen}
)

// ParseOrder accepts "GP", "PG" and the aliases green-first, green,
// pleasant-first and pleasant, case-insensitively.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gp", "green-first", "green":
		return OrderGP, nil
	case "pg", "pleasant-first", "pleasant":
		return OrderPG, nil
	}
	return Order{}, fmt.Errorf("%w: %q", ErrInvalidOrder, s)
}

// Code is the short form recorded in payload metadata.
func (o Order) Code() string {
	if o == OrderPG {
		return "PG"
	}
	return "GP"
}

func (o Order) Names() []string {
	return []string{string(o[0]), string(o[1])}
}

func (o Order) valid() bool {
	return o == OrderGP || o == OrderPG
}

// RevisitPolicy decides what happens when a participant steps back to a
// unit that was already completed.
type RevisitPolicy string

const (
	// RevisitReopen lets the participant edit the unit; setting both fields
	// again re-runs the dwell gate against the original load time.
	RevisitReopen RevisitPolicy = "reopen"
	// RevisitLock makes completed units read-only.
	RevisitLock RevisitPolicy = "lock"
)

func ParseRevisitPolicy(s string) (RevisitPolicy, error) {
	switch RevisitPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case RevisitReopen, "":
		return RevisitReopen, nil
	case RevisitLock:
		return RevisitLock, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRevisit, s)
}
