// Package embedding turns entities into canonical text, and text into
// dense vectors via a pluggable provider behind a batching adapter.
package embedding

import (
	"fmt"
	"strings"

	"homesearch/internal/core"
)

// fieldSeparator joins the text segments of one entity. The separator
// and segment order are part of the embedding contract: changing either
// invalidates every previously stored vector.
const fieldSeparator = " | "

// summaryFallbackChars bounds the full_content fallback for articles
// without a long summary.
const summaryFallbackChars = 500

// PropertyText builds the canonical embedding text for a property:
// description, features, address line, amenities, persona hints.
func PropertyText(p core.Property) string {
	segments := []string{
		p.Description,
		strings.Join(p.Features, ", "),
		addressLine(p.Address),
		strings.Join(p.Amenities, ", "),
		strings.Join(personaHints(p), ", "),
	}
	return joinSegments(segments)
}

// NeighborhoodText builds the canonical embedding text for a neighborhood.
func NeighborhoodText(n core.Neighborhood) string {
	segments := []string{
		n.Description,
		n.Name,
	}
	if n.Population > 0 {
		segments = append(segments, fmt.Sprintf("population %d", n.Population))
	}
	if n.MedianIncome > 0 {
		segments = append(segments, fmt.Sprintf("median income %.0f", n.MedianIncome))
	}
	segments = append(segments, strings.Join(n.LifestyleTags, ", "))
	return joinSegments(segments)
}

// WikipediaText builds the canonical embedding text for an article:
// title plus long summary, falling back to a prefix of the full content
// when no summary exists.
func WikipediaText(a core.WikipediaArticle) string {
	body := a.LongSummary
	if body == "" {
		body = a.FullContent
		if len(body) > summaryFallbackChars {
			body = body[:summaryFallbackChars]
		}
	}
	if body == "" {
		return a.Title
	}
	return a.Title + "\n\n" + body
}

// addressLine renders "street, city, state", or "" when the address is
// entirely blank.
func addressLine(a core.Address) string {
	if a.Street == "" && a.City == "" && a.State == "" {
		return ""
	}
	return fmt.Sprintf("%s, %s, %s", a.Street, a.City, a.State)
}

// personaHints derives buyer-persona phrases from structured attributes
// so that queries like "family home" land near the right listings. The
// hint order is fixed; hints are appended, never substituted.
func personaHints(p core.Property) []string {
	var hints []string
	if p.Bedrooms >= 4 {
		hints = append(hints, "spacious family home")
	}
	if p.Bedrooms <= 1 && p.SquareFeet > 0 && p.SquareFeet < 900 {
		hints = append(hints, "compact starter home")
	}
	if p.HasParking {
		hints = append(hints, "includes parking")
	}
	if p.YearBuilt >= 2015 {
		hints = append(hints, "recently built")
	} else if p.YearBuilt > 0 && p.YearBuilt < 1950 {
		hints = append(hints, "historic character")
	}
	if p.PricePerSqft > 0 && p.PricePerSqft >= 1000 {
		hints = append(hints, "luxury price point")
	}
	return hints
}

// joinSegments joins non-empty segments with the field separator. At
// least one segment survives so the provider never receives "".
func joinSegments(segments []string) string {
	kept := make([]string, 0, len(segments))
	for _, s := range segments {
		s = strings.TrimSpace(s)
		if s != "" {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		return "unknown"
	}
	return strings.Join(kept, fieldSeparator)
}
