// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and payload types for the API.

# Request Types

Types for parsing incoming JSON:

  - StartSessionRequest: optional rating_order override
  - ImageLoadedRequest: loaded_at (defaults to server time)
  - KeyRequest: key ("0"-"9", "Numpad0"-"Numpad9", "Backspace", "Escape")
  - RateRequest: field, value (pointer click)

# Response Types

Types for JSON responses:

  - StartSessionResponse: token, state
  - SessionState: phase, active unit, counts, end reason, save result
  - InputResponse: applied, state
  - ConfigResponse: field order, scale labels, timing settings
  - ErrorResponse: error, message

# Payload Types

The completion payload handed to the store:

  - Payload: ordered UnitRecords plus SessionMetadata
  - UnitRecord: image ref, both ratings, timestamps, dwell_ms, viewed_ms
  - SessionMetadata: rating order, counts, cap, start/end, end reason
  - SaveResult: success flag and the store error verbatim

# Constants

Unit status:

	StatusPending   = "pending"
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusDiscarded = "discarded"

End reasons:

	EndExhausted = "exhausted"
	EndCapped    = "capped"
*/
package models
