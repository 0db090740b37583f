package discovery

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cinescout/cinescout/internal/catalog"
)

// DefaultSessionTTL is how long an idle session survives before the sweep
// removes it.
const DefaultSessionTTL = time.Hour

// Manager creates and tracks discovery sessions by UUID.
type Manager struct {
	vocab    *catalog.Vocabulary
	fetcher  *Fetcher
	ranker   *Ranker
	recorder SearchRecorder
	events   Broadcaster
	ttl      time.Duration
	logger   zerolog.Logger

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// NewManager creates a session manager. ttl <= 0 uses the default.
func NewManager(vocab *catalog.Vocabulary, fetcher *Fetcher, ranker *Ranker, ttl time.Duration, logger zerolog.Logger) *Manager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Manager{
		vocab:    vocab,
		fetcher:  fetcher,
		ranker:   ranker,
		ttl:      ttl,
		logger:   logger.With().Str("component", "sessions").Logger(),
		sessions: make(map[uuid.UUID]*Session),
	}
}

// SetRecorder sets the search-history recorder applied to new sessions.
func (m *Manager) SetRecorder(recorder SearchRecorder) {
	m.recorder = recorder
}

// SetBroadcaster sets the status broadcaster applied to new sessions.
func (m *Manager) SetBroadcaster(events Broadcaster) {
	m.events = events
}

// Create creates and registers a new session.
func (m *Manager) Create() *Session {
	id := uuid.New()
	session := newSession(id, m.vocab, m.fetcher, m.ranker, m.recorder, m.events, m.logger)

	m.mu.Lock()
	m.sessions[id] = session
	m.mu.Unlock()

	m.logger.Debug().Str("session", id.String()).Msg("Session created")
	return session
}

// Get returns the session with the given ID.
func (m *Manager) Get(id uuid.UUID) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Remove deletes a session.
func (m *Manager) Remove(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// SweepIdle removes sessions idle past the TTL. Matches the scheduler's
// task function signature.
func (m *Manager) SweepIdle(ctx context.Context) error {
	cutoff := time.Now().Add(-m.ttl)

	m.mu.Lock()
	removed := 0
	for id, session := range m.sessions {
		if session.IdleSince().Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	remaining := len(m.sessions)
	m.mu.Unlock()

	if removed > 0 {
		m.logger.Info().
			Int("removed", removed).
			Int("remaining", remaining).
			Msg("Swept idle sessions")
	}
	return nil
}
