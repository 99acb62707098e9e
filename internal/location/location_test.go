package location

import (
	"testing"
)

func TestExtractCityWithInferredState(t *testing.T) {
	intent := Extract("modern kitchen with stainless steel appliances in San Francisco")

	if intent.City != "san francisco" {
		t.Errorf("Expected city 'san francisco', got %q", intent.City)
	}
	if intent.State != "CA" {
		t.Errorf("Expected state 'CA', got %q", intent.State)
	}
	if intent.CleanedQuery != "modern kitchen with stainless steel appliances" {
		t.Errorf("Expected location tokens removed, got %q", intent.CleanedQuery)
	}
	if !intent.HasLocation {
		t.Error("Expected has_location true")
	}
	if intent.DisplayCity != "San Francisco" {
		t.Errorf("Expected original casing preserved, got %q", intent.DisplayCity)
	}
}

func TestExtractNeighborhoodWinsSpecificity(t *testing.T) {
	intent := Extract("victorian near Noe Valley San Francisco")

	if intent.Neighborhood != "noe valley" {
		t.Errorf("Expected neighborhood 'noe valley', got %q", intent.Neighborhood)
	}
	if intent.City != "san francisco" {
		t.Errorf("Expected city from neighborhood, got %q", intent.City)
	}
	if intent.State != "CA" {
		t.Errorf("Expected state 'CA', got %q", intent.State)
	}
	if intent.CleanedQuery != "victorian" {
		t.Errorf("Expected 'victorian', got %q", intent.CleanedQuery)
	}
	if intent.Confidence < 0.9 {
		t.Errorf("Neighborhood matches should score at least 0.9, got %f", intent.Confidence)
	}
}

func TestExtractStateOnly(t *testing.T) {
	cases := []struct {
		query   string
		state   string
		cleaned string
	}{
		{"condos in California", "CA", "condos"},
		{"condos in Seattle, WA", "WA", "condos"},
		{"homes with a yard in TX", "TX", "homes with a yard"},
	}
	for _, tc := range cases {
		intent := Extract(tc.query)
		if intent.State != tc.state {
			t.Errorf("Extract(%q): expected state %s, got %q", tc.query, tc.state, intent.State)
		}
		if intent.CleanedQuery != tc.cleaned {
			t.Errorf("Extract(%q): expected cleaned %q, got %q", tc.query, tc.cleaned, intent.CleanedQuery)
		}
	}
}

func TestExtractIgnoresLowercaseStateCodes(t *testing.T) {
	// "or" and "co" are ordinary words unless written as codes.
	intent := Extract("house with deck or patio")
	if intent.HasLocation {
		t.Errorf("Expected no location in %q, got %+v", "house with deck or patio", intent)
	}
	if intent.CleanedQuery != "house with deck or patio" {
		t.Errorf("Query must pass through unchanged, got %q", intent.CleanedQuery)
	}
}

func TestExtractNoLocation(t *testing.T) {
	intent := Extract("two bedroom with a big backyard")
	if intent.HasLocation {
		t.Error("Expected has_location false")
	}
	if intent.Confidence != 0 {
		t.Errorf("Expected zero confidence, got %f", intent.Confidence)
	}
	if intent.CleanedQuery != "two bedroom with a big backyard" {
		t.Errorf("Expected original query, got %q", intent.CleanedQuery)
	}
}

func TestExtractNeverEmptiesQuery(t *testing.T) {
	intent := Extract("San Francisco")
	if intent.CleanedQuery == "" {
		t.Fatal("cleaned_query must never be empty")
	}
	if intent.CleanedQuery != "San Francisco" {
		t.Errorf("All-location query falls back to the original, got %q", intent.CleanedQuery)
	}
	if !intent.HasLocation {
		t.Error("Expected has_location true")
	}
}

func TestExtractIdempotence(t *testing.T) {
	queries := []string{
		"modern kitchen with stainless steel appliances in San Francisco",
		"victorian near Noe Valley",
		"condos in Seattle, WA",
		"two bedroom with a big backyard",
		"San Francisco",
	}
	for _, q := range queries {
		first := Extract(q)
		second := Extract(first.CleanedQuery)
		if second.CleanedQuery != first.CleanedQuery {
			t.Errorf("Extract(%q) not idempotent: %q -> %q", q, first.CleanedQuery, second.CleanedQuery)
		}
	}
}

func TestExtractDeterminism(t *testing.T) {
	q := "loft near Capitol Hill Seattle"
	first := Extract(q)
	for i := 0; i < 10; i++ {
		if got := Extract(q); got != first {
			t.Fatalf("Extraction must be deterministic: %+v vs %+v", got, first)
		}
	}
}
