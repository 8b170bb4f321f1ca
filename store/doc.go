// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store persists finished survey payloads.

# Backends

  - SQLStore: PostgreSQL (lib/pq) or SQLite (modernc.org/sqlite), one
    survey_response row plus one unit_rating row per completed unit,
    written in a single transaction
  - ObjectStore: one JSON object per payload in an S3-compatible bucket
    (minio-go), keyed responses/{session_id}/{payload_id}.json
  - MemoryStore: in-process, for local runs and tests

Open picks the backend from a Config:

	s, err := store.Open(ctx, store.Config{Type: store.TypeSQLite, DatabaseURL: "data/survey.db"})

Every backend makes exactly one attempt per Save and returns the error
unchanged; retrying is the caller's decision.
*/
package store
