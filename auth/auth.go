// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
)

var (
	ErrInvalidSessionToken = errors.New("invalid session token")
	ErrInvalidAdminKey     = errors.New("invalid admin key")
)

func mac(salt, msg string) []byte {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(msg))
	return h.Sum(nil)
}

// GenerateSessionToken creates the bearer token a participant presents on
// every input to their session. It is deterministic, so nothing is stored.
func GenerateSessionToken(sessionID, salt string) string {
	// URL-safe base64 without padding
	return strings.TrimRight(base64.URLEncoding.EncodeToString(mac(salt, "session:"+sessionID)), "=")
}

// ValidateSessionToken checks a presented token against the session ID
func ValidateSessionToken(sessionID, token, salt string) error {
	expected := GenerateSessionToken(sessionID, salt)
	if !hmac.Equal([]byte(token), []byte(expected)) {
		return ErrInvalidSessionToken
	}
	return nil
}

// ValidateAdminKey compares a presented admin key with the configured one
// in constant time. An unset key rejects everything.
func ValidateAdminKey(presented, configured string) error {
	if configured == "" || !hmac.Equal([]byte(presented), []byte(configured)) {
		return ErrInvalidAdminKey
	}
	return nil
}

// CompletionCode creates a short code shown to the participant once their
// responses are saved, for pasting back into a recruitment platform.
// Uses HMAC for determinism and base62 so the code is easy to copy.
func CompletionCode(sessionID, salt string) string {
	sum := mac(salt, "complete:"+sessionID)
	return base62Encode(sum[:6])
}

// base62Encode converts bytes to base62 (0-9, a-z, A-Z)
func base62Encode(data []byte) string {
	const base62Chars = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

	var num uint64
	for i := 0; i < len(data) && i < 8; i++ {
		num = num<<8 | uint64(data[i])
	}

	if num == 0 {
		return "0"
	}

	result := make([]byte, 0, 11) // max length for uint64
	for num > 0 {
		result = append(result, base62Chars[num%62])
		num /= 62
	}

	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}

	return string(result)
}

// HashIP creates a one-way hash of an IP address for privacy
// Includes salt to prevent rainbow table attacks
func HashIP(ip, salt string) string {
	if ip == "" {
		return ""
	}
	// First 16 hex chars (64 bits) - enough for deduplication
	return hex.EncodeToString(mac(salt, ip)[:8])
}
