// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/fleur/rewards-engine/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	entries     map[ledger.UserID][]ledger.Entry
	idempotency map[string]bool
}

func NewMemory() *Memory {
	return &Memory{
		entries:     make(map[ledger.UserID][]ledger.Entry),
		idempotency: make(map[string]bool),
	}
}

// Append adds a single entry. Append-only.
func (m *Memory) Append(_ context.Context, e ledger.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e.IdempotencyKey != "" && m.idempotency[e.IdempotencyKey] {
		return ledger.ErrDuplicateIdempotencyKey
	}

	entries := m.entries[e.UserID]

	// Binary search for insertion point; entries almost always arrive in
	// order so this is effectively an append.
	i := sort.Search(len(entries), func(i int) bool {
		return entries[i].At.After(e.At)
	})
	entries = append(entries, ledger.Entry{})
	copy(entries[i+1:], entries[i:])
	entries[i] = e
	m.entries[e.UserID] = entries

	if e.IdempotencyKey != "" {
		m.idempotency[e.IdempotencyKey] = true
	}
	return nil
}

// Load returns all entries for a user, chronologically.
func (m *Memory) Load(_ context.Context, userID ledger.UserID) ([]ledger.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]ledger.Entry, len(m.entries[userID]))
	copy(result, m.entries[userID])
	return result, nil
}

// Exists checks if an idempotency key exists.
func (m *Memory) Exists(_ context.Context, idempotencyKey string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.idempotency[idempotencyKey], nil
}
