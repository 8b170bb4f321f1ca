// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package clock abstracts time for the rating sequencer.

Sessions read the current time and schedule deferred advances through a
Clock so that dwell gating can be tested without sleeping:

	clk := clock.NewFake(time.Now())
	sess, _ := survey.NewSession(id, cfg, clk, queue, host)
	clk.Advance(2 * time.Second) // fires the pending advance

Production code uses clock.System{}, which delegates to time.Now and
time.AfterFunc.
*/
package clock
