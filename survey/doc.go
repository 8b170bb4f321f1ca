// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package survey implements the rating-and-advance sequencer.

A Session presents one image at a time (a Unit) and collects two ratings
for it: green (0-10) and pleasant (1-7). Once both are set and the image
has been visible for the minimum dwell, the session advances to the next
unit, drawing from a finite Pool until it runs out or the cap is reached.

# Components

  - Evaluate: the dwell gate, a pure function of unit state and time
  - Session.Key/Digit/Clear/Select: input routing with fill order and
    the "1 then 0" window for the value 10
  - Session sequencer: deferred advance, cancellation, back/forward,
    termination (exhausted or capped)
  - Recorder: per-unit records and the completion payload

# Usage

	sess, err := survey.NewSession(id, cfg, clock.System{}, queue, host)
	sess.MarkLoaded(sess.ActiveID(), time.Time{})
	sess.Key("5")
	sess.Key("4")
	// after the dwell elapses the next unit becomes active

When the session ends the Host is told once; it builds the payload with
Session.Payload and saves it with Submit.

# Concurrency

Every transition runs under the session mutex, so key presses, load
signals and timer callbacks are serialized as if on one UI thread. A
timer callback only acts if its schedule is still the pending one and
its unit is still active.
*/
package survey
