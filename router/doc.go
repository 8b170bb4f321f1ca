// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the greenery survey API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(cfg, registry, manifest, resultsDB)

# Endpoints

Health and page configuration:

	GET /health
	GET /config

Session (requires X-Session-Token except on create):

	POST /sessions                          - Start a session
	GET  /sessions/{id}                     - Current state and save outcome
	POST /sessions/{id}/units/{unit}/loaded - Image finished loading
	POST /sessions/{id}/keys                - Key press
	POST /sessions/{id}/ratings             - Pointer click on a rating
	POST /sessions/{id}/back                - Step back
	POST /sessions/{id}/forward             - Step forward
	POST /sessions/{id}/submit              - Retry a failed save

Results (admin, requires X-Admin-Key; only with a SQL store):

	GET /results - Per-image rating summaries
*/
package router
