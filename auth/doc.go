// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides token, key and hashing utilities.

# Session Tokens

Session tokens use HMAC-SHA256 over the session ID:

	token := auth.GenerateSessionToken(sessionID, salt)
	err := auth.ValidateSessionToken(sessionID, token, salt)

The token is URL-safe base64 without padding. It is deterministic, so the
server never stores it. Every request that feeds input to a session must
carry it in the X-Session-Token header.

# Admin Key

The results endpoint is guarded by a configured admin key, compared in
constant time:

	err := auth.ValidateAdminKey(r.Header.Get("X-Admin-Key"), cfg.AdminKey)

# Completion Codes

CompletionCode derives a short base62 code from the session ID. It is shown
once the payload is saved so a participant can prove completion to a
recruitment platform.

# IP Hashing

HashIP stores a salted 64-bit hash instead of the participant's address:

	ipHash := auth.HashIP(middleware.GetClientIP(r), salt)
*/
package auth
