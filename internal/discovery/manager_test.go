package discovery

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cinescout/cinescout/internal/catalog"
)

func newTestManager(ttl time.Duration) *Manager {
	vocab := catalog.MustDefaultVocabulary()
	fetcher := NewFetcher(newScriptedCatalog(), nil, nil, FetcherConfig{}, zerolog.Nop())
	ranker := NewRanker(&fakeSimilar{}, nil, 0, zerolog.Nop())
	return NewManager(vocab, fetcher, ranker, ttl, zerolog.Nop())
}

func TestManager_CreateGetRemove(t *testing.T) {
	m := newTestManager(0)

	s := m.Create()
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1", m.Len())
	}

	got, ok := m.Get(s.ID())
	if !ok || got != s {
		t.Error("Get did not return the created session")
	}

	if _, ok := m.Get(uuid.New()); ok {
		t.Error("Get of unknown id = true, want false")
	}

	m.Remove(s.ID())
	if m.Len() != 0 {
		t.Errorf("Len() after Remove = %d, want 0", m.Len())
	}
}

func TestManager_SweepIdle(t *testing.T) {
	m := newTestManager(20 * time.Millisecond)

	stale := m.Create()
	time.Sleep(40 * time.Millisecond)
	fresh := m.Create()

	if err := m.SweepIdle(context.Background()); err != nil {
		t.Fatalf("SweepIdle() error = %v", err)
	}

	if _, ok := m.Get(stale.ID()); ok {
		t.Error("idle session survived the sweep")
	}
	if _, ok := m.Get(fresh.ID()); !ok {
		t.Error("active session was swept")
	}
}

func TestManager_SweepKeepsRecentlyTouched(t *testing.T) {
	m := newTestManager(30 * time.Millisecond)

	s := m.Create()
	time.Sleep(20 * time.Millisecond)
	s.AddToken("x") // activity resets the idle clock
	time.Sleep(20 * time.Millisecond)

	if err := m.SweepIdle(context.Background()); err != nil {
		t.Fatalf("SweepIdle() error = %v", err)
	}
	if _, ok := m.Get(s.ID()); !ok {
		t.Error("recently touched session was swept")
	}
}
