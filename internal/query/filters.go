package query

import (
	"fmt"
	"strings"
	"time"

	"homesearch/internal/core"
	"homesearch/internal/location"
)

// GeoFilter restricts hits to a radius around a center point.
type GeoFilter struct {
	Center core.GeoPoint
	Radius float64
	Unit   string // "km", "mi", or "m"; defaults to km
}

// SearchFilters is the structured constraint set shared by every
// builder. All filters are applied in non-scoring filter context.
type SearchFilters struct {
	PriceMin        float64
	PriceMax        float64
	BedroomsMin     int
	BedroomsMax     int
	BathroomsMin    float64
	BathroomsMax    float64
	PropertyTypes   []string
	Cities          []string
	States          []string
	Features        []string
	Status          []string
	Geo             *GeoFilter
	ListedAfter     time.Time
	ListedBefore    time.Time
	MaxDaysOnMarket int
	HasParking      *bool
}

// IsZero reports whether no filter is set.
func (f SearchFilters) IsZero() bool {
	return len(f.Clauses()) == 0
}

// Clauses renders the filters as filter-context clauses. City and state
// terms are lowercased to line up with the index normalizer.
func (f SearchFilters) Clauses() []map[string]any {
	var clauses []map[string]any

	if f.PriceMin > 0 || f.PriceMax > 0 {
		bounds := map[string]any{}
		if f.PriceMin > 0 {
			bounds["gte"] = f.PriceMin
		}
		if f.PriceMax > 0 {
			bounds["lte"] = f.PriceMax
		}
		clauses = append(clauses, map[string]any{"range": map[string]any{"price": bounds}})
	}
	if f.BedroomsMin > 0 || f.BedroomsMax > 0 {
		bounds := map[string]any{}
		if f.BedroomsMin > 0 {
			bounds["gte"] = f.BedroomsMin
		}
		if f.BedroomsMax > 0 {
			bounds["lte"] = f.BedroomsMax
		}
		clauses = append(clauses, map[string]any{"range": map[string]any{"bedrooms": bounds}})
	}
	if f.BathroomsMin > 0 || f.BathroomsMax > 0 {
		bounds := map[string]any{}
		if f.BathroomsMin > 0 {
			bounds["gte"] = f.BathroomsMin
		}
		if f.BathroomsMax > 0 {
			bounds["lte"] = f.BathroomsMax
		}
		clauses = append(clauses, map[string]any{"range": map[string]any{"bathrooms": bounds}})
	}
	if len(f.PropertyTypes) > 0 {
		clauses = append(clauses, termsClause("property_type", f.PropertyTypes))
	}
	if len(f.Cities) > 0 {
		clauses = append(clauses, termsClause("address.city", lowercaseAll(f.Cities)))
	}
	if len(f.States) > 0 {
		clauses = append(clauses, termsClause("address.state", f.States))
	}
	for _, feature := range f.Features {
		// Features must all be present, so each gets its own clause.
		clauses = append(clauses, map[string]any{"match": map[string]any{"features": feature}})
	}
	if len(f.Status) > 0 {
		clauses = append(clauses, termsClause("status", f.Status))
	}
	if f.Geo != nil {
		unit := f.Geo.Unit
		if unit == "" {
			unit = "km"
		}
		clauses = append(clauses, map[string]any{
			"geo_distance": map[string]any{
				"distance":         fmt.Sprintf("%g%s", f.Geo.Radius, unit),
				"address.location": map[string]any{"lat": f.Geo.Center.Lat, "lon": f.Geo.Center.Lon},
			},
		})
	}
	if !f.ListedAfter.IsZero() || !f.ListedBefore.IsZero() {
		bounds := map[string]any{}
		if !f.ListedAfter.IsZero() {
			bounds["gte"] = f.ListedAfter.Format(time.RFC3339)
		}
		if !f.ListedBefore.IsZero() {
			bounds["lte"] = f.ListedBefore.Format(time.RFC3339)
		}
		clauses = append(clauses, map[string]any{"range": map[string]any{"listed_date": bounds}})
	}
	if f.MaxDaysOnMarket > 0 {
		clauses = append(clauses, map[string]any{"range": map[string]any{"days_on_market": map[string]any{"lte": f.MaxDaysOnMarket}}})
	}
	if f.HasParking != nil {
		clauses = append(clauses, map[string]any{"term": map[string]any{"has_parking": *f.HasParking}})
	}
	return clauses
}

// LocationClauses renders a location intent as filter clauses: term on
// city and/or state, lowercased for the city.
func LocationClauses(intent location.Intent) []map[string]any {
	var clauses []map[string]any
	if intent.City != "" {
		clauses = append(clauses, map[string]any{"term": map[string]any{"address.city": strings.ToLower(intent.City)}})
	}
	if intent.State != "" {
		clauses = append(clauses, map[string]any{"term": map[string]any{"address.state": intent.State}})
	}
	return clauses
}

func termsClause(field string, values []string) map[string]any {
	return map[string]any{"terms": map[string]any{field: values}}
}

func lowercaseAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(v)
	}
	return out
}
