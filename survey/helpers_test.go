package survey

import (
	"sync"
	"testing"
	"time"

	"github.com/danielhkuo/greenery-survey/clock"
	"github.com/danielhkuo/greenery-survey/pool"
)

var t0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

type recordingHost struct {
	mu      sync.Mutex
	reasons []EndReason
}

func (h *recordingHost) SessionEnded(_ *Session, reason EndReason) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reasons = append(h.reasons, reason)
}

func (h *recordingHost) calls() []EndReason {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]EndReason(nil), h.reasons...)
}

func testConfig() Config {
	return Config{
		Order:     OrderGP,
		MinDwell:  2000 * time.Millisecond,
		ArmWindow: 800 * time.Millisecond,
		Revisit:   RevisitReopen,
		Lexicon:   LexiconGreen,
		Version:   "test",
	}
}

type fixture struct {
	s    *Session
	clk  *clock.Fake
	host *recordingHost
	pool *pool.Queue
}

func newFixture(t *testing.T, cfg Config, refs ...string) *fixture {
	t.Helper()

	f := &fixture{
		clk:  clock.NewFake(t0),
		host: &recordingHost{},
		pool: pool.NewQueue(refs),
	}
	s, err := NewSession("sess-1", cfg, f.clk, f.pool, f.host)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	f.s = s
	return f
}

// load signals the active unit's image as ready now.
func (f *fixture) load(t *testing.T) {
	t.Helper()
	if err := f.s.MarkLoaded(f.s.ActiveID(), f.clk.Now()); err != nil {
		t.Fatalf("MarkLoaded: %v", err)
	}
}

func (f *fixture) keys(keys ...string) {
	for _, k := range keys {
		f.s.Key(k)
	}
}

func (f *fixture) active(t *testing.T) *Unit {
	t.Helper()
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	u := f.s.active()
	if u == nil {
		t.Fatal("no active unit")
	}
	return u
}

func (f *fixture) rating(t *testing.T, field Field) (int, bool) {
	t.Helper()
	u := f.active(t)
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	return u.Rating(field)
}

func (f *fixture) countActive() int {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	n := 0
	for _, u := range f.s.units {
		if u.status == StatusActive {
			n++
		}
	}
	return n
}

// rateActive loads the active unit, rates it and lets the dwell elapse.
func (f *fixture) rateActive(t *testing.T, green, pleasant string) {
	t.Helper()
	f.load(t)
	f.keys(green, pleasant)
	f.clk.Advance(f.s.cfg.MinDwell + f.s.cfg.ArmWindow)
}
