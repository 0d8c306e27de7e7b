package search

import (
	"strings"
)

// SearchType classifies how the backend should match the query pattern.
//
//nolint:revive // SearchType is the canonical name used by the backend procedures.
type SearchType string

// Search types understood by the backend search procedures.
const (
	SearchExact      SearchType = "exact"
	SearchStartsWith SearchType = "starts_with"
	SearchEndsWith   SearchType = "ends_with"
	SearchContains   SearchType = "contains"
	SearchPattern    SearchType = "pattern"

	// SearchAll is used by list screens where an empty query matches everything.
	SearchAll SearchType = "all"
)

// Default wildcard configuration. Users may type either marker.
const (
	DefaultWildcardMarkers = "*%"
	DefaultPatternChar     = '%'
)

// Query is a normalized search query ready to be sent to the backend.
type Query struct {
	// Raw is the text as typed by the user.
	Raw string `json:"raw" yaml:"raw"`

	// Pattern is the trimmed text with wildcard markers replaced by the pattern character.
	Pattern string `json:"pattern" yaml:"pattern"`

	// Type is the match classification derived from the pattern.
	Type SearchType `json:"search_type" yaml:"search_type"`
}

// IsEmpty reports whether the query carries no search text.
func (q Query) IsEmpty() bool {
	return q.Pattern == ""
}

// Normalizer translates user-facing wildcard markers into the backend pattern syntax.
type Normalizer struct {
	// Markers lists every character accepted as a wildcard in user input.
	Markers string

	// PatternChar is the backend's native "any sequence" character.
	PatternChar rune
}

// DefaultNormalizer returns the normalizer used by all screens: "*" and "%" map to "%".
func DefaultNormalizer() Normalizer {
	return Normalizer{
		Markers:     DefaultWildcardMarkers,
		PatternChar: DefaultPatternChar,
	}
}

// Normalize trims text and classifies it. The boolean result is false when the
// trimmed text is empty, meaning "no search".
func (n Normalizer) Normalize(text string) (Query, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Query{Raw: text}, false
	}

	if n.Markers == "" || !strings.ContainsAny(trimmed, n.Markers) {
		return Query{Raw: text, Pattern: trimmed, Type: SearchExact}, true
	}

	pattern := strings.Map(func(r rune) rune {
		if strings.ContainsRune(n.Markers, r) {
			return n.PatternChar
		}
		return r
	}, trimmed)

	wildcard := string(n.PatternChar)
	leading := strings.HasPrefix(pattern, wildcard)
	trailing := strings.HasSuffix(pattern, wildcard)

	var searchType SearchType
	switch {
	case leading && trailing:
		searchType = SearchContains
	case leading:
		searchType = SearchEndsWith
	case trailing:
		searchType = SearchStartsWith
	default:
		searchType = SearchPattern
	}

	return Query{Raw: text, Pattern: pattern, Type: searchType}, true
}

// NormalizeQuery normalizes text with the default wildcard configuration.
func NormalizeQuery(text string) (Query, bool) {
	return DefaultNormalizer().Normalize(text)
}
