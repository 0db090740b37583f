package catalog

import "strings"

// TokenSet is an insertion-ordered, duplicate-free set of user-supplied
// search tokens. It is not safe for concurrent use; the owning session
// serializes access.
type TokenSet struct {
	tokens []string
}

// NewTokenSet creates an empty token set.
func NewTokenSet() *TokenSet {
	return &TokenSet{}
}

// Add appends a trimmed token. Empty strings and tokens already present
// are ignored; re-adding an existing token is a no-op.
func (s *TokenSet) Add(token string) bool {
	t := strings.TrimSpace(token)
	if t == "" || s.Contains(t) {
		return false
	}
	s.tokens = append(s.tokens, t)
	return true
}

// Remove deletes a token, preserving the order of the rest.
func (s *TokenSet) Remove(token string) bool {
	for i, t := range s.tokens {
		if t == token {
			s.tokens = append(s.tokens[:i], s.tokens[i+1:]...)
			return true
		}
	}
	return false
}

// Contains reports whether the exact token is present.
func (s *TokenSet) Contains(token string) bool {
	for _, t := range s.tokens {
		if t == token {
			return true
		}
	}
	return false
}

// Clear removes all tokens.
func (s *TokenSet) Clear() {
	s.tokens = nil
}

// Tokens returns the tokens in insertion order.
func (s *TokenSet) Tokens() []string {
	out := make([]string, len(s.tokens))
	copy(out, s.tokens)
	return out
}

// Len returns the number of tokens.
func (s *TokenSet) Len() int {
	return len(s.tokens)
}
