// Package location extracts location intent from free-text queries. The
// extractor is a pure gazetteer lookup: no model call, same output for
// the same input, every run.
package location

import (
	"strings"
)

// Intent is the structured location extraction for one query. City and
// Neighborhood are lowercased for filter construction; the Display
// fields preserve the original casing for rendering.
type Intent struct {
	City                string  // Lowercased city, empty if none found
	State               string  // 2-letter state code, empty if none found
	Neighborhood        string  // Lowercased neighborhood, empty if none found
	DisplayCity         string  // City as written in the query
	DisplayNeighborhood string  // Neighborhood as written in the query
	CleanedQuery        string  // Query with location tokens removed; never empty
	Confidence          float64 // [0,1]
	HasLocation         bool    // True when any component was found
}

// Extract parses a raw query into an Intent. On no match the original
// query passes through unchanged with HasLocation false.
func Extract(query string) Intent {
	originals := strings.Fields(query)
	if len(originals) == 0 {
		return Intent{CleanedQuery: query}
	}
	normalized := make([]string, len(originals))
	for i, tok := range originals {
		normalized[i] = normalizeToken(tok)
	}
	consumed := make([]bool, len(originals))

	intent := Intent{}
	components := 0

	// Most specific first: neighborhood, then city, then state.
	if start, length, name := findPhrase(normalized, consumed, matchNeighborhood); length > 0 {
		place := neighborhoodPlaces[name]
		intent.Neighborhood = name
		intent.DisplayNeighborhood = displayPhrase(originals[start : start+length])
		intent.City = place.city
		intent.State = place.state
		consumeMatch(consumed, normalized, start, length)
		components++
	}

	if start, length, name := findPhrase(normalized, consumed, matchCity); length > 0 {
		if intent.City == "" || intent.City == name {
			intent.DisplayCity = displayPhrase(originals[start : start+length])
		}
		if intent.City == "" {
			intent.City = name
			intent.State = cityStates[name]
		}
		consumeMatch(consumed, normalized, start, length)
		components++
	}

	if start, length, code := findState(originals, normalized, consumed); length > 0 {
		if intent.State == "" {
			intent.State = code
		}
		consumeMatch(consumed, normalized, start, length)
		components++
	}

	if components == 0 {
		return Intent{CleanedQuery: query}
	}

	intent.HasLocation = true
	intent.Confidence = confidence(intent, components)

	var kept []string
	for i, tok := range originals {
		if !consumed[i] {
			kept = append(kept, tok)
		}
	}
	intent.CleanedQuery = strings.TrimSpace(strings.Join(kept, " "))
	if intent.CleanedQuery == "" {
		intent.CleanedQuery = query
	}
	return intent
}

// confidence scores by specificity, with a small boost when multiple
// components corroborate each other.
func confidence(intent Intent, components int) float64 {
	base := 0.0
	switch {
	case intent.Neighborhood != "":
		base = 0.9
	case intent.City != "":
		base = 0.8
	case intent.State != "":
		base = 0.6
	}
	if components > 1 {
		base += 0.05
	}
	if base > 0.95 {
		base = 0.95
	}
	return base
}

func matchNeighborhood(phrase string) (string, bool) {
	_, ok := neighborhoodPlaces[phrase]
	return phrase, ok
}

func matchCity(phrase string) (string, bool) {
	_, ok := cityStates[phrase]
	return phrase, ok
}

// findPhrase scans for the longest unconsumed gazetteer phrase, leftmost
// on ties.
func findPhrase(normalized []string, consumed []bool, match func(string) (string, bool)) (int, int, string) {
	for length := maxPhraseTokens; length >= 1; length-- {
		for start := 0; start+length <= len(normalized); start++ {
			if anyConsumed(consumed, start, length) {
				continue
			}
			phrase := strings.Join(normalized[start:start+length], " ")
			if name, ok := match(phrase); ok {
				return start, length, name
			}
		}
	}
	return 0, 0, ""
}

// findState matches full state names anywhere, and 2-letter codes only
// when written in upper case or directly after a consumed city mention.
// Bare lowercase codes collide with ordinary words ("or", "in").
func findState(originals, normalized []string, consumed []bool) (int, int, string) {
	for length := 2; length >= 1; length-- {
		for start := 0; start+length <= len(normalized); start++ {
			if anyConsumed(consumed, start, length) {
				continue
			}
			phrase := strings.Join(normalized[start:start+length], " ")
			code, ok := stateCodes[phrase]
			if !ok {
				continue
			}
			if len(phrase) == 2 {
				upper := strings.ToUpper(phrase) == strings.TrimRight(originals[start], ",.")
				afterCity := start > 0 && consumed[start-1]
				if !upper && !afterCity {
					continue
				}
			}
			return start, length, code
		}
	}
	return 0, 0, ""
}

// consumeMatch marks the matched span, plus a leading connector word.
func consumeMatch(consumed []bool, normalized []string, start, length int) {
	for i := start; i < start+length; i++ {
		consumed[i] = true
	}
	if start > 0 && !consumed[start-1] && connectorWords[normalized[start-1]] {
		consumed[start-1] = true
	}
}

func anyConsumed(consumed []bool, start, length int) bool {
	for i := start; i < start+length; i++ {
		if consumed[i] {
			return true
		}
	}
	return false
}

// normalizeToken lowercases and strips edge punctuation for matching.
func normalizeToken(tok string) string {
	return strings.Trim(strings.ToLower(tok), ",.!?;:()\"'")
}

// displayPhrase joins the original tokens of a match, stripping the
// punctuation that belonged to the sentence rather than the name.
func displayPhrase(tokens []string) string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		out[i] = strings.Trim(tok, ",.!?;:()\"'")
	}
	return strings.Join(out, " ")
}
