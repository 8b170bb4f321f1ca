// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package survey

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/danielhkuo/greenery-survey/models"
)

// Saver is the persistence collaborator.
type Saver interface {
	Save(ctx context.Context, p models.Payload) error
}

// Recorder accumulates one record per completed unit, in completion order.
// A unit completed again after a revisit overwrites its record in place.
type Recorder struct {
	startedAt time.Time
	records   []models.UnitRecord
	index     map[string]int
}

func NewRecorder(startedAt time.Time) *Recorder {
	return &Recorder{
		startedAt: startedAt,
		index:     make(map[string]int),
	}
}

// Record captures u's current values. u must hold both ratings.
func (r *Recorder) Record(u *Unit) {
	green, _ := u.Rating(FieldGreen)
	pleasant, _ := u.Rating(FieldPleasant)

	rec := models.UnitRecord{
		UnitID:      u.id,
		ImageRef:    u.imageRef,
		Green:       green,
		Pleasant:    pleasant,
		LoadedAt:    u.loadedAt,
		BothRatedAt: u.bothRatedAt,
		CompletedAt: u.completedAt,
		DwellMs:     nonNegativeMs(u.bothRatedAt.Sub(u.loadedAt)),
		ViewedMs:    nonNegativeMs(u.completedAt.Sub(u.loadedAt)),
	}

	if i, ok := r.index[u.id]; ok {
		rec.Position = r.records[i].Position
		r.records[i] = rec
		return
	}
	rec.Position = len(r.records)
	r.index[u.id] = len(r.records)
	r.records = append(r.records, rec)
}

func (r *Recorder) Len() int {
	return len(r.records)
}

// Payload builds the submission for a finished session.
func (r *Recorder) Payload(sessionID string, meta models.SessionMetadata) models.Payload {
	meta.StartedAt = r.startedAt
	records := make([]models.UnitRecord, len(r.records))
	copy(records, r.records)
	return models.Payload{
		ID:        newPayloadID(),
		SessionID: sessionID,
		Records:   records,
		Metadata:  meta,
	}
}

// Submit hands p to the saver once and relays the outcome verbatim.
func Submit(ctx context.Context, saver Saver, p models.Payload) models.SaveResult {
	if err := saver.Save(ctx, p); err != nil {
		slog.Error("failed to save survey response", "error", err, "session_id", p.SessionID)
		return models.SaveResult{Error: err.Error()}
	}
	now := time.Now()
	slog.Info("survey response saved", "session_id", p.SessionID, "records", len(p.Records))
	return models.SaveResult{Success: true, SavedAt: &now}
}

func nonNegativeMs(d time.Duration) int64 {
	if d < 0 {
		return 0
	}
	return d.Milliseconds()
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
)

func newPayloadID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}
