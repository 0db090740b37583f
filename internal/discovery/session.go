package discovery

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cinescout/cinescout/internal/catalog"
)

// Broadcaster publishes session status events. Satisfied by the websocket
// hub; a nil broadcaster is valid.
type Broadcaster interface {
	Broadcast(msgType string, payload interface{}) error
}

// SearchRecorder persists completed search episodes. A nil recorder is
// valid.
type SearchRecorder interface {
	RecordSearch(ctx context.Context, mode, query, language string, resultCount int) error
}

// Session owns the mutable discovery state for one client: the token set,
// free text, the live query state, the result list, the selection and the
// busy/exhausted flags. All methods are safe for concurrent use; fetches
// run outside the lock and stale completions are discarded by comparing
// episode IDs.
type Session struct {
	id uuid.UUID

	vocab    *catalog.Vocabulary
	fetcher  *Fetcher
	ranker   *Ranker
	recorder SearchRecorder
	events   Broadcaster
	logger   zerolog.Logger

	mu        sync.Mutex
	tokens    *catalog.TokenSet
	freeText  string
	state     QueryState
	items     []catalog.MovieItem
	selection *SelectionSet
	busy      bool
	exhausted bool
	lastSeen  time.Time
}

// Snapshot is a point-in-time copy of session state for API responses.
type Snapshot struct {
	ID        uuid.UUID           `json:"id"`
	Mode      Mode                `json:"mode"`
	Query     string              `json:"query"`
	Language  string              `json:"language"`
	Tokens    []string            `json:"tokens"`
	Items     []catalog.MovieItem `json:"items"`
	Selection []catalog.MovieItem `json:"selection"`
	Exhausted bool                `json:"exhausted"`
	Busy      bool                `json:"busy"`
}

func newSession(id uuid.UUID, vocab *catalog.Vocabulary, fetcher *Fetcher, ranker *Ranker, recorder SearchRecorder, events Broadcaster, logger zerolog.Logger) *Session {
	return &Session{
		id:        id,
		vocab:     vocab,
		fetcher:   fetcher,
		ranker:    ranker,
		recorder:  recorder,
		events:    events,
		logger:    logger.With().Str("component", "session").Str("session", id.String()).Logger(),
		tokens:    catalog.NewTokenSet(),
		selection: NewSelectionSet(),
		state:     QueryState{Mode: ModePopular, Page: 1, Episode: uuid.New()},
		lastSeen:  time.Now(),
	}
}

// ID returns the session identifier.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// AddToken appends a search token. Re-adding an existing token is a no-op.
func (s *Session) AddToken(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = time.Now()
	return s.tokens.Add(token)
}

// RemoveToken deletes a search token.
func (s *Session) RemoveToken(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = time.Now()
	return s.tokens.Remove(token)
}

// ClearTokens removes all search tokens.
func (s *Session) ClearTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = time.Now()
	s.tokens.Clear()
}

// Search starts a fresh search episode from the current tokens and the
// given free text, superseding any in-flight episode, and replaces the
// result list with the initial backfill batch. The busy flag is held for
// the duration of the initial fetch so scroll triggers cannot run a
// second fetch against the same cursor. On failure the current result
// list is left unchanged.
func (s *Session) Search(ctx context.Context, freeText string) error {
	s.mu.Lock()
	s.freeText = freeText
	s.lastSeen = time.Now()
	tokens := s.tokens.Tokens()
	state := BuildQuery(s.vocab, tokens, freeText)
	filter := s.buildFilter(tokens, freeText)
	s.state = state
	s.exhausted = false
	s.busy = true
	s.mu.Unlock()

	s.broadcast("search:started", map[string]interface{}{
		"mode":  state.Mode,
		"query": state.Query,
	})

	items, updated, exhausted, err := s.fetcher.FetchBatch(ctx, state, filter)

	s.mu.Lock()
	if s.state.Episode != state.Episode {
		// The superseding episode owns the busy flag now.
		s.mu.Unlock()
		s.logger.Debug().Str("mode", string(state.Mode)).Msg("Discarding stale search result")
		return nil
	}
	if err != nil {
		s.busy = false
		s.mu.Unlock()
		s.logger.Error().Err(err).Str("mode", string(state.Mode)).Msg("Search failed")
		s.broadcast("search:failed", map[string]interface{}{"error": err.Error()})
		return err
	}
	s.items = items
	s.state = updated
	s.exhausted = exhausted
	s.busy = false
	count := len(items)
	s.mu.Unlock()

	if s.recorder != nil {
		if recErr := s.recorder.RecordSearch(ctx, string(state.Mode), state.Query, state.Language, count); recErr != nil {
			s.logger.Warn().Err(recErr).Msg("Failed to record search history")
		}
	}

	s.broadcast("search:completed", map[string]interface{}{
		"mode":  state.Mode,
		"count": count,
	})
	return nil
}

// LoadMore is the infinite-scroll trigger: it runs at most one backfill
// fetch and appends the batch to the result list. While a fetch is in
// flight, or once the source is exhausted, it does nothing. The busy flag
// is set before the fetch and cleared when the completion still belongs
// to the current episode; a superseding search owns the flag otherwise.
func (s *Session) LoadMore(ctx context.Context) error {
	s.mu.Lock()
	if s.busy || s.exhausted {
		s.mu.Unlock()
		return nil
	}
	s.busy = true
	s.lastSeen = time.Now()
	state := s.state
	filter := s.buildFilter(s.tokens.Tokens(), s.freeText)
	s.mu.Unlock()

	items, updated, exhausted, err := s.fetcher.FetchBatch(ctx, state, filter)

	s.mu.Lock()
	if s.state.Episode == state.Episode {
		s.busy = false
		switch {
		case err != nil:
			s.exhausted = true
		case len(items) == 0:
			s.exhausted = true
		default:
			s.items = append(s.items, items...)
			s.state = updated
			s.exhausted = exhausted
		}
	}
	count := len(s.items)
	s.mu.Unlock()

	if err != nil {
		s.logger.Error().Err(err).Msg("Backfill fetch failed")
		s.broadcast("scroll:failed", map[string]interface{}{"error": err.Error()})
		return err
	}

	s.broadcast("scroll:appended", map[string]interface{}{"count": count})
	return nil
}

// ToggleSelection toggles membership of the item in the selection set.
// It returns false when inserting would exceed the selection capacity.
func (s *Session) ToggleSelection(item catalog.MovieItem) bool {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()

	ok := s.selection.Toggle(item)
	if !ok {
		s.broadcast("selection:capacity", map[string]interface{}{
			"capacity": SelectionCapacity,
		})
		return false
	}

	s.broadcast("selection:changed", map[string]interface{}{
		"count": s.selection.Len(),
	})
	return true
}

// ClearSelection empties the selection set.
func (s *Session) ClearSelection() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()

	s.selection.Clear()
	s.broadcast("selection:changed", map[string]interface{}{"count": 0})
}

// Selection returns the selected movies in insertion order.
func (s *Session) Selection() []catalog.MovieItem {
	return s.selection.Items()
}

// Recommend replaces the result list with the ranked similar-movies list
// computed from the current selection. An empty selection is a no-op with
// no external calls. The recommendation list is terminal: scrolling does
// not extend it.
func (s *Session) Recommend(ctx context.Context) error {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()

	selected := s.selection.Items()
	if len(selected) == 0 {
		return nil
	}

	s.broadcast("recommend:started", map[string]interface{}{"selected": len(selected)})

	ranked, err := s.ranker.Recommend(ctx, selected)
	if err != nil {
		s.logger.Error().Err(err).Msg("Recommendation failed")
		s.broadcast("recommend:failed", map[string]interface{}{"error": err.Error()})
		return err
	}

	s.mu.Lock()
	s.items = ranked
	s.exhausted = true
	s.busy = false
	s.state.Episode = uuid.New()
	s.mu.Unlock()

	s.broadcast("recommend:completed", map[string]interface{}{"count": len(ranked)})
	return nil
}

// Items returns the current result list.
func (s *Session) Items() []catalog.MovieItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]catalog.MovieItem, len(s.items))
	copy(out, s.items)
	return out
}

// Snapshot returns a copy of the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]catalog.MovieItem, len(s.items))
	copy(items, s.items)

	return Snapshot{
		ID:        s.id,
		Mode:      s.state.Mode,
		Query:     s.state.Query,
		Language:  s.state.Language,
		Tokens:    s.tokens.Tokens(),
		Items:     items,
		Selection: s.selection.Items(),
		Exhausted: s.exhausted,
		Busy:      s.busy,
	}
}

// IdleSince returns the time of the last session activity.
func (s *Session) IdleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// buildFilter derives the Discover-mode title filter from the non-region
// tokens and the free-text phrase. Caller holds no particular lock; the
// inputs are copies.
func (s *Session) buildFilter(tokens []string, freeText string) Filter {
	cls := s.vocab.Classify(tokens)
	return Filter{
		Tokens: cls.FilterTokens,
		Text:   strings.TrimSpace(freeText),
	}
}

func (s *Session) broadcast(msgType string, payload map[string]interface{}) {
	if s.events == nil {
		return
	}
	payload["session"] = s.id.String()
	if err := s.events.Broadcast(msgType, payload); err != nil {
		s.logger.Warn().Err(err).Str("type", msgType).Msg("Failed to broadcast event")
	}
}
