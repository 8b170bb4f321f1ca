// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the greenery survey.

# Handler Types

  - SessionHandler: session start, image-load signals, key and pointer
    input, back/forward navigation, manual resubmission
  - ConfigHandler: field order, scale labels and timing for the page
  - ResultsHandler: per-image rating summaries from the SQL store

Handlers are created via constructor functions:

	reg := handlers.NewRegistry(store, cfg.SaveTimeout, clock.System{})
	sessionHandler := handlers.NewSessionHandler(reg, cfg, manifest)

# Session Lifecycle

	POST /sessions                         → StartSession (returns token, state)
	POST /sessions/{id}/units/{unit}/loaded → ImageLoaded
	POST /sessions/{id}/keys               → Key
	POST /sessions/{id}/ratings            → Rate
	POST /sessions/{id}/back               → Back
	POST /sessions/{id}/forward            → Forward
	GET  /sessions/{id}                    → GetSession
	POST /sessions/{id}/submit             → Submit (after a failed save)

Session operations require the X-Session-Token header. Input that the
sequencer drops (out of range, out of turn, after the end) is answered with
200 and "applied": false.

# Registry

Registry holds live sessions and implements survey.Host. When a session
ends it builds the payload and saves it in the background; the outcome
appears in the session state as "save", followed by a completion code once
the save succeeded. Sweep drops idle sessions; Wait blocks on in-flight
saves during shutdown.

# Results

	GET /results → GetResults (requires X-Admin-Key)

Ratings are grouped per image; each field gets median, p10, p90 and mean.
*/
package handlers
