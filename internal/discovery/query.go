// Package discovery implements the query-orchestration and
// recommendation-ranking engine: mode selection, minimum-batch backfill
// fetching, the bounded selection set, the similarity ranker and the
// session that owns their shared state.
package discovery

import (
	"strings"

	"github.com/google/uuid"

	"github.com/cinescout/cinescout/internal/catalog"
)

// Mode is one of the three fetch strategies.
type Mode string

const (
	ModePopular  Mode = "popular"
	ModeDiscover Mode = "discover"
	ModeSearch   Mode = "search"
)

// QueryState is the live cursor of one search episode. It is replaced
// atomically when a new episode begins; the Episode ID lets late fetch
// completions from a superseded episode be detected and discarded.
type QueryState struct {
	Mode     Mode      `json:"mode"`
	Query    string    `json:"query"`
	Language string    `json:"language"`
	Page     int       `json:"page"`
	Episode  uuid.UUID `json:"-"`
}

// BuildQuery decides the fetch strategy for a token set and free-text
// query. Precedence: a locale-mapped region token forces Discover mode;
// otherwise any tokens or free text mean Search with everything
// space-joined; otherwise Popular. The returned state always starts at
// page 1 under a fresh episode.
func BuildQuery(vocab *catalog.Vocabulary, tokens []string, freeText string) QueryState {
	state := QueryState{
		Page:    1,
		Episode: uuid.New(),
	}

	cls := vocab.Classify(tokens)
	if cls.RegionToken != "" {
		locale, _ := vocab.RegionLocale(cls.RegionToken)
		state.Mode = ModeDiscover
		state.Language = locale
		return state
	}

	text := strings.TrimSpace(freeText)
	if len(tokens) > 0 || text != "" {
		parts := make([]string, 0, len(tokens)+1)
		parts = append(parts, tokens...)
		if text != "" {
			parts = append(parts, text)
		}
		state.Mode = ModeSearch
		state.Query = strings.TrimSpace(strings.Join(parts, " "))
		return state
	}

	state.Mode = ModePopular
	return state
}
