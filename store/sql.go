// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/danielhkuo/greenery-survey/db"
	"github.com/danielhkuo/greenery-survey/models"
)

// SQLStore writes payloads to PostgreSQL or SQLite.
type SQLStore struct {
	db      *sql.DB
	dialect db.Dialect
}

// OpenSQL opens the database, verifies the connection and creates the
// schema. For SQLite the DSN is a file path.
func OpenSQL(ctx context.Context, dialect db.Dialect, dsn string) (*SQLStore, error) {
	driver := "postgres"
	if dialect == db.SQLite {
		driver = "sqlite"
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create db dir: %w", err)
			}
		}
		dsn += "?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)"
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	if err := db.CreateSchema(conn, dialect); err != nil {
		conn.Close()
		return nil, err
	}

	return NewSQLStore(conn, dialect), nil
}

// NewSQLStore wraps an open connection whose schema already exists.
func NewSQLStore(conn *sql.DB, dialect db.Dialect) *SQLStore {
	return &SQLStore{db: conn, dialect: dialect}
}

func (s *SQLStore) DB() *sql.DB { return s.db }

// Save writes the response row and one row per completed unit in a single
// transaction.
func (s *SQLStore) Save(ctx context.Context, p models.Payload) error {
	if err := validate(p); err != nil {
		return err
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	m := p.Metadata
	_, err = tx.ExecContext(ctx, `
		INSERT INTO survey_response (
			id, session_id, rating_order, lexicon_variant, revisit_policy,
			rated_images_count, max_images_cap, end_reason, started_at, completed_at,
			survey_version, user_agent, ip_hash, payload, saved_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, p.ID, p.SessionID, m.RatingOrder, m.LexiconVariant, m.RevisitPolicy,
		m.CompletedCount, m.MaxImagesCap, m.EndReason, m.StartedAt.UTC(), m.EndedAt.UTC(),
		m.SurveyVersion, m.UserAgent, m.IPHash, string(data), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert survey_response: %w", err)
	}

	for _, rec := range p.Records {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO unit_rating (
				response_id, position, unit_id, image_ref, green, pleasant,
				loaded_at, both_rated_at, completed_at, dwell_ms, viewed_ms
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`, p.ID, rec.Position, rec.UnitID, rec.ImageRef, rec.Green, rec.Pleasant,
			rec.LoadedAt.UTC(), rec.BothRatedAt.UTC(), rec.CompletedAt.UTC(), rec.DwellMs, rec.ViewedMs)
		if err != nil {
			return fmt.Errorf("insert unit_rating %d: %w", rec.Position, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	slog.Info("payload saved",
		"store", s.dialect,
		"payload_id", p.ID,
		"session_id", p.SessionID,
		"records", len(p.Records),
		"size", humanize.Bytes(uint64(len(data))),
	)
	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
