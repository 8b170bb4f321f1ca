// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package survey

import (
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/greenery-survey/models"
)

// Status of a unit within its session.
type Status string

const (
	StatusPending   Status = models.StatusPending
	StatusActive    Status = models.StatusActive
	StatusCompleted Status = models.StatusCompleted
	StatusDiscarded Status = models.StatusDiscarded
)

// Unit is one image to be rated plus its two rating slots.
// All access goes through the owning Session's lock.
type Unit struct {
	id          string
	imageRef    string
	ratings     map[Field]int
	shownAt     time.Time
	loadedAt    time.Time
	bothRatedAt time.Time
	completedAt time.Time
	status      Status

	// completedOnce survives a revisit that puts the unit back to active.
	completedOnce bool
}

func newUnit(imageRef string) *Unit {
	return &Unit{
		id:       uuid.NewString(),
		imageRef: imageRef,
		ratings:  make(map[Field]int, 2),
		status:   StatusPending,
	}
}

func (u *Unit) ID() string       { return u.id }
func (u *Unit) ImageRef() string { return u.imageRef }
func (u *Unit) Status() Status   { return u.status }

// Rating returns the field's value and whether it is set.
func (u *Unit) Rating(f Field) (int, bool) {
	v, ok := u.ratings[f]
	return v, ok
}

// LoadedAt returns the instant the image became visually ready.
func (u *Unit) LoadedAt() (time.Time, bool) {
	return u.loadedAt, !u.loadedAt.IsZero()
}

// BothRatedAt returns the instant both fields first held values.
func (u *Unit) BothRatedAt() (time.Time, bool) {
	return u.bothRatedAt, !u.bothRatedAt.IsZero()
}

func (u *Unit) has(f Field) bool {
	_, ok := u.ratings[f]
	return ok
}

func (u *Unit) bothSet() bool {
	return u.has(FieldGreen) && u.has(FieldPleasant)
}

func (u *Unit) set(f Field, v int) {
	u.ratings[f] = v
}

func (u *Unit) unset(f Field) {
	delete(u.ratings, f)
}

// stampLoaded records the load instant once; later calls are ignored.
func (u *Unit) stampLoaded(at time.Time) bool {
	if !u.loadedAt.IsZero() {
		return false
	}
	u.loadedAt = at
	return true
}

// stampBothRated records when both fields first became set; later calls
// are ignored.
func (u *Unit) stampBothRated(at time.Time) bool {
	if !u.bothRatedAt.IsZero() {
		return false
	}
	u.bothRatedAt = at
	return true
}

func (u *Unit) view(readOnly bool) *models.UnitView {
	v := &models.UnitView{
		ID:       u.id,
		ImageRef: u.imageRef,
		Status:   string(u.status),
		Ratings:  make(map[string]int, len(u.ratings)),
		ReadOnly: readOnly,
	}
	for f, val := range u.ratings {
		v.Ratings[string(f)] = val
	}
	if t, ok := u.LoadedAt(); ok {
		v.LoadedAt = &t
	}
	if t, ok := u.BothRatedAt(); ok {
		v.BothRatedAt = &t
	}
	return v
}
