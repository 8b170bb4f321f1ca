// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package survey

import "time"

// Verdict is the outcome of a dwell evaluation.
type Verdict struct {
	Ready bool
	// Wait is the remaining dwell. Meaningful only when WaitKnown.
	Wait      time.Duration
	WaitKnown bool
}

// Evaluate decides whether u may advance at now.
//
// With a rating missing nothing is pending (Wait 0). With both ratings set
// but no load signal yet the wait is unknown and the caller must evaluate
// again once the image loads. Otherwise the wait is measured from the load
// instant, so repeated evaluation never extends the total dwell.
func Evaluate(u *Unit, now time.Time, minDwell time.Duration) Verdict {
	if !u.bothSet() {
		return Verdict{WaitKnown: true}
	}
	loadedAt, ok := u.LoadedAt()
	if !ok {
		return Verdict{}
	}
	wait := minDwell - now.Sub(loadedAt)
	if wait < 0 {
		wait = 0
	}
	return Verdict{Ready: wait == 0, Wait: wait, WaitKnown: true}
}
