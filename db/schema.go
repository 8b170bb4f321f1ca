// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Dialect names the SQL flavor a schema is created for.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// CreateSchema creates all tables needed for storing survey responses.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB, dialect Dialect) error {
	_, err := db.Exec(Schema(dialect))
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Schema returns the DDL for the dialect.
func Schema(dialect Dialect) string {
	payloadType := "JSONB"
	if dialect == SQLite {
		payloadType = "TEXT"
	}
	return strings.ReplaceAll(schema, "{{payload}}", payloadType)
}

const schema = `
-- One row per finished session
CREATE TABLE IF NOT EXISTS survey_response (
    id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL UNIQUE,
    rating_order TEXT NOT NULL CHECK (rating_order IN ('GP', 'PG')),
    lexicon_variant TEXT,
    revisit_policy TEXT NOT NULL,
    rated_images_count INTEGER NOT NULL,
    max_images_cap INTEGER,
    end_reason TEXT NOT NULL CHECK (end_reason IN ('exhausted', 'capped')),
    started_at TIMESTAMP NOT NULL,
    completed_at TIMESTAMP NOT NULL,
    survey_version TEXT,
    user_agent TEXT,
    ip_hash TEXT,
    payload {{payload}} NOT NULL,
    saved_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_survey_response_completed_at ON survey_response(completed_at);

-- One row per completed unit
CREATE TABLE IF NOT EXISTS unit_rating (
    response_id TEXT NOT NULL REFERENCES survey_response(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    unit_id TEXT NOT NULL,
    image_ref TEXT NOT NULL,
    green INTEGER NOT NULL CHECK (green >= 0 AND green <= 10),
    pleasant INTEGER NOT NULL CHECK (pleasant >= 1 AND pleasant <= 7),
    loaded_at TIMESTAMP NOT NULL,
    both_rated_at TIMESTAMP NOT NULL,
    completed_at TIMESTAMP NOT NULL,
    dwell_ms INTEGER NOT NULL CHECK (dwell_ms >= 0),
    viewed_ms INTEGER NOT NULL CHECK (viewed_ms >= 0),
    PRIMARY KEY (response_id, position)
);

CREATE INDEX IF NOT EXISTS idx_unit_rating_image_ref ON unit_rating(image_ref);
`
