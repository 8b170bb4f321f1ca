// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/danielhkuo/greenery-survey/models"
)

// MemoryStore keeps payloads in process. Used for local runs and tests.
type MemoryStore struct {
	mu       sync.Mutex
	payloads []models.Payload
	sessions map[string]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]int)}
}

func (m *MemoryStore) Save(ctx context.Context, p models.Payload) error {
	if err := validate(p); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[p.SessionID]; ok {
		return fmt.Errorf("session %s already saved", p.SessionID)
	}
	m.sessions[p.SessionID] = len(m.payloads)
	m.payloads = append(m.payloads, p)

	slog.Info("payload saved", "store", TypeMemory, "payload_id", p.ID, "records", len(p.Records))
	return nil
}

// Get returns the payload saved for a session.
func (m *MemoryStore) Get(sessionID string) (models.Payload, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i, ok := m.sessions[sessionID]
	if !ok {
		return models.Payload{}, false
	}
	return m.payloads[i], true
}

func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.payloads)
}

func (m *MemoryStore) Close() error { return nil }
