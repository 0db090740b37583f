package catalog

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed vocab.yaml
var vocabYAML []byte

// Region is a region facet entry. A region without a locale is shown as a
// chip but never drives Discover mode.
type Region struct {
	Label  string `yaml:"label" json:"label"`
	Locale string `yaml:"locale" json:"locale"`
}

// Vocabulary holds the three fixed facet lists. Genre and theme entries are
// "Canonical Name (localized alias)" strings; regions map a label to a
// locale code.
type Vocabulary struct {
	Genres  []string `yaml:"genres" json:"genres"`
	Regions []Region `yaml:"regions" json:"regions"`
	Themes  []string `yaml:"themes" json:"themes"`
}

var (
	defaultVocab     *Vocabulary
	defaultVocabOnce sync.Once
	defaultVocabErr  error
)

// DefaultVocabulary returns the vocabulary embedded in the binary.
func DefaultVocabulary() (*Vocabulary, error) {
	defaultVocabOnce.Do(func() {
		defaultVocab, defaultVocabErr = ParseVocabulary(vocabYAML)
	})
	return defaultVocab, defaultVocabErr
}

// MustDefaultVocabulary is DefaultVocabulary for callers that cannot
// reasonably recover from a broken embedded file.
func MustDefaultVocabulary() *Vocabulary {
	v, err := DefaultVocabulary()
	if err != nil {
		panic(err)
	}
	return v
}

// ParseVocabulary parses a YAML vocabulary document.
func ParseVocabulary(data []byte) (*Vocabulary, error) {
	v := &Vocabulary{}
	if err := yaml.Unmarshal(data, v); err != nil {
		return nil, fmt.Errorf("failed to parse vocabulary: %w", err)
	}
	if len(v.Genres) == 0 && len(v.Regions) == 0 && len(v.Themes) == 0 {
		return nil, fmt.Errorf("vocabulary is empty")
	}
	return v, nil
}

// RegionLocale returns the locale code for a token that exactly matches a
// region label. Regions without a locale mapping are not reported.
func (v *Vocabulary) RegionLocale(token string) (string, bool) {
	for _, r := range v.Regions {
		if r.Locale != "" && r.Label == token {
			return r.Locale, true
		}
	}
	return "", false
}
