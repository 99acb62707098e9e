package core

import "time"

// EntityType tags a document with the index family it belongs to.
type EntityType string

const (
	EntityProperty     EntityType = "property"
	EntityNeighborhood EntityType = "neighborhood"
	EntityWikipedia    EntityType = "wikipedia"
)

// GeoPoint is a latitude/longitude pair.
type GeoPoint struct {
	Lat float64 `json:"lat"` // Latitude in decimal degrees
	Lon float64 `json:"lon"` // Longitude in decimal degrees
}

// Address is the nested address object on a property document.
// State is always the canonical 2-letter code; the field is named
// "state", never "state_code".
type Address struct {
	Street   string    `json:"street"`             // Street line, e.g. "1240 Valencia St"
	City     string    `json:"city"`               // City name in original casing
	State    string    `json:"state"`              // 2-letter state code, e.g. "CA"
	Zip      string    `json:"zip,omitempty"`      // ZIP code
	Location *GeoPoint `json:"location,omitempty"` // Geo point for geo_distance filters
}

// PricePoint is one entry of a property's price history, ordered
// ascending by date.
type PricePoint struct {
	Date  time.Time `json:"date"`  // Date the price was recorded
	Price float64   `json:"price"` // Listing price at that date
}

// Property is a single real-estate listing.
type Property struct {
	ListingID      string       `json:"listing_id"`              // Unique primary key
	NeighborhoodID string       `json:"neighborhood_id"`         // Reference to a Neighborhood (may be empty)
	Address        Address      `json:"address"`                 // Nested address object
	PropertyType   string       `json:"property_type"`           // Controlled vocabulary (condo, single-family, ...)
	Price          float64      `json:"price"`                   // Listing price, >= 0
	Bedrooms       int          `json:"bedrooms"`                // Whole bedrooms
	Bathrooms      float64      `json:"bathrooms"`               // Fractional bathrooms (2.5)
	SquareFeet     int          `json:"square_feet"`             // Interior area, > 0
	YearBuilt      int          `json:"year_built,omitempty"`    // Construction year, <= current year
	Status         string       `json:"status,omitempty"`        // Listing status (active, pending, sold)
	ListedDate     time.Time    `json:"listed_date,omitempty"`   // Date the listing went live
	DaysOnMarket   int          `json:"days_on_market,omitempty"` // Days since listing
	HasParking     bool         `json:"has_parking,omitempty"`   // Parking availability flag
	Description    string       `json:"description"`             // Free-text listing description
	Features       []string     `json:"features,omitempty"`      // Feature strings ("hardwood floors")
	Amenities      []string     `json:"amenities,omitempty"`     // Amenity strings ("rooftop deck")
	PricePerSqft   float64      `json:"price_per_sqft,omitempty"` // Derived: price / square_feet
	SearchTags     []string     `json:"search_tags,omitempty"`   // Derived: property_type + features + amenities
	PriceHistory   []PricePoint `json:"price_history,omitempty"` // Ascending by date
	Embedding      []float32    `json:"embedding,omitempty"`     // Dense vector, catalog dimension, cosine space
}

// Finalize computes the derived fields of a property. It is called by
// the ingest path before indexing so that derived values are always
// consistent with their inputs.
func (p *Property) Finalize() {
	if p.Price > 0 && p.SquareFeet > 0 {
		p.PricePerSqft = p.Price / float64(p.SquareFeet)
	}
	tags := make([]string, 0, 1+len(p.Features)+len(p.Amenities))
	seen := make(map[string]bool)
	for _, t := range append(append([]string{p.PropertyType}, p.Features...), p.Amenities...) {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		tags = append(tags, t)
	}
	p.SearchTags = tags
}

// Neighborhood is a named area within a city.
type Neighborhood struct {
	NeighborhoodID string    `json:"neighborhood_id"`           // Unique key; at most one doc per id
	Name           string    `json:"name"`                      // Display name, e.g. "Noe Valley"
	City           string    `json:"city"`                      // City name
	State          string    `json:"state"`                     // 2-letter state code
	Description    string    `json:"description,omitempty"`     // Free-text profile
	Population     int       `json:"population,omitempty"`      // Resident count
	MedianIncome   float64   `json:"median_income,omitempty"`   // Median household income
	WalkScore      int       `json:"walk_score,omitempty"`      // 0-100 walkability
	SchoolRating   float64   `json:"school_rating,omitempty"`   // 0-10 school quality
	LifestyleTags  []string  `json:"lifestyle_tags,omitempty"`  // e.g. "family-friendly", "nightlife"
	WikipediaRefs  []string  `json:"wikipedia_refs,omitempty"`  // Page ids of explicitly linked articles
	Boundaries     []GeoPoint `json:"boundaries,omitempty"`     // Optional boundary polygon
	Embedding      []float32 `json:"embedding,omitempty"`       // Dense vector, cosine space
}

// WikipediaLocation is the optional location info attached to an article.
type WikipediaLocation struct {
	City  string `json:"city,omitempty"`  // City the article is about or located in
	State string `json:"state,omitempty"` // 2-letter state code
}

// WikipediaArticle is an enriched Wikipedia page. Articles are immutable
// once indexed; a reindex is a full replace.
type WikipediaArticle struct {
	PageID         string            `json:"page_id"`                  // External integer id, coerced to string
	Title          string            `json:"title"`                    // Article title
	LongSummary    string            `json:"long_summary,omitempty"`   // Generated long-form summary
	FullContent    string            `json:"full_content,omitempty"`   // Full article text
	Categories     []string          `json:"categories,omitempty"`     // Wikipedia categories
	KeyTopics      []string          `json:"key_topics,omitempty"`     // Extracted topics
	Location       WikipediaLocation `json:"location,omitempty"`       // Optional city/state
	RelevanceScore float64           `json:"relevance_score"`          // [0,1] relevance to the corpus
	Confidence     float64           `json:"confidence"`               // [0,1] extraction confidence
	Embedding      []float32         `json:"embedding,omitempty"`      // Dense vector, cosine space
}

// PropertyRelationship is the denormalized per-property join snapshot:
// the property, its neighborhood, and its linked Wikipedia articles as a
// self-contained unit. Keyed by listing_id; regeneration replaces the
// previous document.
type PropertyRelationship struct {
	ListingID         string             `json:"listing_id"`                  // Same key as the source property
	Property          Property           `json:"property"`                    // Copy of the property document
	Neighborhood      *Neighborhood      `json:"neighborhood"`                // Matching neighborhood, null if none found
	WikipediaArticles []WikipediaArticle `json:"wikipedia_articles,omitempty"` // Ordered by relevance desc, confidence desc, page_id asc
	BuiltAt           time.Time          `json:"built_at"`                    // Join snapshot timestamp
}
