package catalog

import (
	"fmt"
	"strings"
)

// MovieItem is a single movie as returned by the aggregation API or the
// TMDB fallback. Items are never mutated after they are fetched; a refresh
// replaces them wholesale.
type MovieItem struct {
	ID         int     `json:"id,omitempty"`
	Title      string  `json:"title"`
	Year       string  `json:"year"`
	Poster     string  `json:"poster"`
	Source     string  `json:"source"`
	Popularity float64 `json:"popularity,omitempty"`
}

// Key returns the identity key used for selection membership and
// recommendation dedup. Items with a TMDB identifier are keyed by it;
// everything else falls back to title and year.
func (m MovieItem) Key() string {
	if m.ID > 0 {
		return fmt.Sprintf("tmdb:%d", m.ID)
	}
	return fmt.Sprintf("title:%s|%s", strings.ToLower(m.Title), m.Year)
}
