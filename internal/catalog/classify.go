package catalog

import "strings"

// Classification is the result of partitioning a token set against the
// facet vocabularies. Tokens that match nothing are not listed here; they
// stay in the token set and act as free text in Discover filtering.
type Classification struct {
	GenreTokens []string `json:"genreTokens"`
	ThemeTokens []string `json:"themeTokens"`
	RegionToken string   `json:"regionToken"`

	// FilterTokens are all tokens that are not locale-mapped region labels,
	// in insertion order. Discover mode filters page results against them.
	FilterTokens []string `json:"-"`
}

// Matches reports whether a token matches a vocabulary entry. A token
// matches when the entry contains it as a substring, or when the token
// contains the entry's canonical name (the segment before the first
// parenthesis). Comparison is literal and case-sensitive.
func Matches(entry, token string) bool {
	if strings.Contains(entry, token) {
		return true
	}
	head := entry
	if i := strings.Index(entry, "("); i >= 0 {
		head = entry[:i]
	}
	head = strings.TrimSpace(head)
	return head != "" && strings.Contains(token, head)
}

// Classify partitions tokens into recognized facets. Genre and theme lists
// preserve input order and are not mutually exclusive. Only the first
// region-matching token is honored; later ones are ignored for mode
// selection but still excluded from FilterTokens.
func (v *Vocabulary) Classify(tokens []string) Classification {
	c := Classification{}
	for _, t := range tokens {
		if matchesAny(v.Genres, t) {
			c.GenreTokens = append(c.GenreTokens, t)
		}
		if matchesAny(v.Themes, t) {
			c.ThemeTokens = append(c.ThemeTokens, t)
		}
		if _, ok := v.RegionLocale(t); ok {
			if c.RegionToken == "" {
				c.RegionToken = t
			}
		} else {
			c.FilterTokens = append(c.FilterTokens, t)
		}
	}
	return c
}

func matchesAny(entries []string, token string) bool {
	for _, e := range entries {
		if Matches(e, token) {
			return true
		}
	}
	return false
}
