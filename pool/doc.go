// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package pool provides the image pool sessions draw from: a YAML manifest
// of image references and a finite, non-restartable Queue per session.
package pool
