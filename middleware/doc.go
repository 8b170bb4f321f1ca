// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs one line per request (request_id, method, path, status, duration_ms).
The X-Request-ID header is echoed back, or generated when absent.

# CORS Middleware

Enable cross-origin requests from the survey page:

	server := http.Server{
		Handler: middleware.CORS(mux),
	}

Allows methods GET, POST, OPTIONS with headers Content-Type,
X-Session-Token, X-Request-ID.

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, state)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

ParseJSONBody rejects unknown fields and bodies over 64 KiB; an empty body
is not an error.

# Client IP Extraction

	ip := middleware.GetClientIP(r)

Used for IP hashing in response metadata.
*/
package middleware
