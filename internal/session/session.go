// Package session holds the per-user state the engine is evaluated against:
// a fixed transaction snapshot and mutable settings.
package session

import (
	"sync"
	"time"

	"fincoach/internal/core"
)

// Session is safe for concurrent use. The transaction snapshot never changes
// after construction; settings are replaced under the lock.
type Session struct {
	ID        string
	CreatedAt time.Time
	Source    string

	mu           sync.RWMutex
	settings     core.UserSettings
	transactions []core.Transaction
}

// New builds a session around a copy of txs.
func New(id string, txs []core.Transaction, settings core.UserSettings, createdAt time.Time, source string) *Session {
	return &Session{
		ID:           id,
		CreatedAt:    createdAt,
		Source:       source,
		settings:     settings,
		transactions: append([]core.Transaction(nil), txs...),
	}
}

// Settings returns the current settings.
func (s *Session) Settings() core.UserSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Transactions returns a copy of the snapshot.
func (s *Session) Transactions() []core.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Transaction(nil), s.transactions...)
}

// Snapshot returns settings and transactions read under one lock.
func (s *Session) Snapshot() (core.UserSettings, []core.Transaction) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings, append([]core.Transaction(nil), s.transactions...)
}

// UpdateSettings applies fn to a copy of the settings and stores the result.
func (s *Session) UpdateSettings(fn func(*core.UserSettings)) core.UserSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.settings
	fn(&next)
	s.settings = next
	return next
}
