// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/danielhkuo/greenery-survey/db"
	"github.com/danielhkuo/greenery-survey/models"
)

// Store persists finished survey payloads.
type Store interface {
	Save(ctx context.Context, p models.Payload) error
	Close() error
}

var ErrEmptyPayload = errors.New("payload requires id and session_id")

// Type selects a Store backend.
type Type string

const (
	TypePostgres Type = "postgres"
	TypeSQLite   Type = "sqlite"
	TypeObject   Type = "object"
	TypeMemory   Type = "memory"
)

// ParseType accepts a backend name as given on the command line.
func ParseType(s string) (Type, error) {
	switch t := Type(s); t {
	case TypePostgres, TypeSQLite, TypeObject, TypeMemory:
		return t, nil
	}
	return "", fmt.Errorf("unknown store type %q (want postgres, sqlite, object or memory)", s)
}

type Config struct {
	Type        Type
	DatabaseURL string
	Object      ObjectConfig
}

// Open connects the configured backend. Relational backends get their
// schema created; the object backend gets its bucket.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Type {
	case TypePostgres:
		return OpenSQL(ctx, db.Postgres, cfg.DatabaseURL)
	case TypeSQLite:
		return OpenSQL(ctx, db.SQLite, cfg.DatabaseURL)
	case TypeObject:
		return OpenObjectStore(ctx, cfg.Object)
	case TypeMemory:
		return NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown store type %q", cfg.Type)
}

func validate(p models.Payload) error {
	if p.ID == "" || p.SessionID == "" {
		return ErrEmptyPayload
	}
	return nil
}
