package survey

import (
	"testing"
	"time"
)

func TestEvaluate(t *testing.T) {
	minDwell := 2000 * time.Millisecond

	tests := []struct {
		name      string
		ratings   map[Field]int
		loaded    bool
		elapsed   time.Duration
		ready     bool
		wait      time.Duration
		waitKnown bool
	}{
		{
			name:      "no ratings",
			ratings:   map[Field]int{},
			loaded:    true,
			waitKnown: true,
		},
		{
			name:      "one rating",
			ratings:   map[Field]int{FieldGreen: 4},
			loaded:    true,
			elapsed:   5 * time.Second,
			waitKnown: true,
		},
		{
			name:    "both set, not loaded",
			ratings: map[Field]int{FieldGreen: 4, FieldPleasant: 2},
		},
		{
			name:      "both set, dwell pending",
			ratings:   map[Field]int{FieldGreen: 4, FieldPleasant: 2},
			loaded:    true,
			elapsed:   500 * time.Millisecond,
			wait:      1500 * time.Millisecond,
			waitKnown: true,
		},
		{
			name:      "both set, dwell exactly met",
			ratings:   map[Field]int{FieldGreen: 0, FieldPleasant: 7},
			loaded:    true,
			elapsed:   2000 * time.Millisecond,
			ready:     true,
			waitKnown: true,
		},
		{
			name:      "both set, dwell exceeded",
			ratings:   map[Field]int{FieldGreen: 10, FieldPleasant: 1},
			loaded:    true,
			elapsed:   time.Minute,
			ready:     true,
			waitKnown: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := newUnit("a.jpg")
			for f, v := range tt.ratings {
				u.set(f, v)
			}
			if tt.loaded {
				u.stampLoaded(t0)
			}

			got := Evaluate(u, t0.Add(tt.elapsed), minDwell)
			if got.Ready != tt.ready || got.Wait != tt.wait || got.WaitKnown != tt.waitKnown {
				t.Errorf("Evaluate = %+v, want ready=%v wait=%v known=%v", got, tt.ready, tt.wait, tt.waitKnown)
			}
		})
	}
}

func TestEvaluateAnchoredToLoad(t *testing.T) {
	u := newUnit("a.jpg")
	u.set(FieldGreen, 3)
	u.set(FieldPleasant, 3)
	u.stampLoaded(t0)

	// Re-evaluating later shrinks the wait instead of restarting it.
	first := Evaluate(u, t0.Add(200*time.Millisecond), 2*time.Second)
	second := Evaluate(u, t0.Add(1200*time.Millisecond), 2*time.Second)
	if first.Wait != 1800*time.Millisecond || second.Wait != 800*time.Millisecond {
		t.Errorf("waits = %v, %v; want 1.8s, 800ms", first.Wait, second.Wait)
	}
}

func TestUnitStampsOnce(t *testing.T) {
	u := newUnit("a.jpg")

	if !u.stampLoaded(t0) {
		t.Fatal("first load stamp rejected")
	}
	if u.stampLoaded(t0.Add(time.Second)) {
		t.Error("second load stamp accepted")
	}
	if got, _ := u.LoadedAt(); !got.Equal(t0) {
		t.Errorf("loadedAt changed to %v", got)
	}

	u.stampBothRated(t0.Add(time.Second))
	u.stampBothRated(t0.Add(2 * time.Second))
	if got, _ := u.BothRatedAt(); !got.Equal(t0.Add(time.Second)) {
		t.Errorf("bothRatedAt changed to %v", got)
	}
}
