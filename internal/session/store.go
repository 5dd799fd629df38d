package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"fincoach/internal/cache"
	"fincoach/internal/core"
	"fincoach/internal/ledger"
	"fincoach/internal/ledger/memory"
	"fincoach/internal/log"
)

// ErrNotFound is returned for unknown or expired session ids.
var ErrNotFound = errors.New("session not found")

// Source labels recorded on a session.
const (
	SourceLedger   = "ledger"
	SourceFallback = "demo-fallback"
)

// StoreConfig sizes the session store.
type StoreConfig struct {
	MaxSessions int
	TTL         time.Duration
	Defaults    core.UserSettings
}

// Store keeps live sessions in a bounded LRU with sliding expiry. Sessions
// never see each other's state.
type Store struct {
	sessions *cache.LRUCache[*Session]
	source   ledger.TransactionSource
	defaults core.UserSettings
	now      func() time.Time
	logger   *log.Logger
}

// NewStore creates a session store seeded from source.
func NewStore(cfg StoreConfig, source ledger.TransactionSource, logger *log.Logger) *Store {
	logger = logger.WithComponent(log.ComponentSession)
	s := &Store{
		source:   source,
		defaults: cfg.Defaults,
		now:      time.Now,
		logger:   logger,
	}
	s.sessions = cache.NewLRUCache[*Session](cfg.MaxSessions, cfg.TTL,
		cache.WithEvictHook(func(id string, _ *Session) {
			logger.Debug("Session evicted", log.FieldSessionID, id)
		}),
	)
	return s
}

// Create builds a new session from the ledger. If the ledger fails the
// session falls back to the demo transactions so the dashboard still works.
func (s *Store) Create(ctx context.Context) *Session {
	now := s.now()
	src := SourceLedger
	txs, err := s.source.Transactions(ctx, now)
	if err != nil {
		s.logger.WarnContext(ctx, "Ledger unavailable, using demo transactions", log.FieldError, err)
		txs = memory.DemoTransactions(now)
		src = SourceFallback
	}

	sess := New(uuid.NewString(), txs, s.defaults, now, src)
	s.sessions.Set(sess.ID, sess)
	s.logger.InfoContext(ctx, "Session created",
		log.FieldSessionID, sess.ID,
		log.FieldCount, len(txs),
		"source", src)
	return sess
}

// Get returns a live session and extends its lifetime.
func (s *Store) Get(id string) (*Session, error) {
	if sess, ok := s.sessions.Get(id); ok {
		return sess, nil
	}
	return nil, ErrNotFound
}

// Delete ends a session.
func (s *Store) Delete(id string) {
	s.sessions.Delete(id)
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	return s.sessions.Size()
}

// Cleaner exposes the underlying cache to a cache.Manager.
func (s *Store) Cleaner() cache.Cleaner {
	return s.sessions
}
