// Package seed holds a small deterministic sample corpus: enough
// listings, neighborhoods, and articles to exercise every query family
// without an external data pipeline. Embeddings are attached at load
// time by the configured provider.
package seed

import (
	"time"

	"homesearch/internal/core"
)

func date(value string) time.Time {
	t, _ := time.Parse("2006-01-02", value)
	return t
}

// Properties returns the sample listings. Listing ids are stable; the
// corpus is safe to re-ingest at any time.
func Properties() []core.Property {
	return []core.Property{
		{
			ListingID:      "prop-001",
			NeighborhoodID: "sf-noe-valley",
			Address: core.Address{
				Street: "1240 Valencia St", City: "San Francisco", State: "CA", Zip: "94110",
				Location: &core.GeoPoint{Lat: 37.7527, Lon: -122.4206},
			},
			PropertyType: "condo",
			Price:        1250000, Bedrooms: 2, Bathrooms: 2, SquareFeet: 1180,
			YearBuilt: 2016, Status: "active", ListedDate: date("2026-07-02"), DaysOnMarket: 53,
			HasParking:  true,
			Description: "Modern kitchen with stainless steel appliances, open floor plan, and abundant natural light",
			Features:    []string{"hardwood floors", "in-unit laundry", "quartz countertops"},
			Amenities:   []string{"rooftop deck", "bike storage"},
		},
		{
			ListingID:      "prop-002",
			NeighborhoodID: "sf-noe-valley",
			Address: core.Address{
				Street: "388 Duncan St", City: "San Francisco", State: "CA", Zip: "94131",
				Location: &core.GeoPoint{Lat: 37.7457, Lon: -122.4312},
			},
			PropertyType: "single-family",
			Price:        2150000, Bedrooms: 4, Bathrooms: 3, SquareFeet: 2450,
			YearBuilt: 1926, Status: "active", ListedDate: date("2026-06-18"), DaysOnMarket: 67,
			HasParking:  true,
			Description: "Classic Victorian with period details, remodeled chef's kitchen, and a sunny garden",
			Features:    []string{"bay windows", "crown molding", "garden"},
			Amenities:   []string{"garage", "storage room"},
		},
		{
			ListingID:      "prop-003",
			NeighborhoodID: "sf-mission",
			Address: core.Address{
				Street: "2755 Folsom St", City: "San Francisco", State: "CA", Zip: "94110",
				Location: &core.GeoPoint{Lat: 37.7520, Lon: -122.4143},
			},
			PropertyType: "loft",
			Price:        985000, Bedrooms: 1, Bathrooms: 1.5, SquareFeet: 920,
			YearBuilt: 2003, Status: "active", ListedDate: date("2026-07-30"), DaysOnMarket: 25,
			Description: "Industrial loft with exposed brick, soaring ceilings, and a modern kitchen",
			Features:    []string{"exposed brick", "high ceilings", "polished concrete"},
			Amenities:   []string{"shared courtyard"},
		},
		{
			ListingID:      "prop-004",
			NeighborhoodID: "sf-mission",
			Address: core.Address{
				Street: "3418 22nd St", City: "San Francisco", State: "CA", Zip: "94110",
				Location: &core.GeoPoint{Lat: 37.7554, Lon: -122.4215},
			},
			PropertyType: "condo",
			Price:        849000, Bedrooms: 2, Bathrooms: 1, SquareFeet: 980,
			YearBuilt: 1999, Status: "pending", ListedDate: date("2026-05-29"), DaysOnMarket: 87,
			Description: "Bright corner unit steps from restaurants and Dolores Park, with a renovated bathroom",
			Features:    []string{"corner unit", "walk-in closet"},
			Amenities:   []string{"elevator", "bike storage"},
		},
		{
			ListingID:      "prop-005",
			NeighborhoodID: "oak-rockridge",
			Address: core.Address{
				Street: "5327 College Ave", City: "Oakland", State: "CA", Zip: "94618",
				Location: &core.GeoPoint{Lat: 37.8420, Lon: -122.2518},
			},
			PropertyType: "single-family",
			Price:        1395000, Bedrooms: 3, Bathrooms: 2, SquareFeet: 1820,
			YearBuilt: 1921, Status: "active", ListedDate: date("2026-07-11"), DaysOnMarket: 44,
			HasParking:  true,
			Description: "Craftsman bungalow with original woodwork, updated kitchen, and a level backyard",
			Features:    []string{"craftsman details", "fireplace", "backyard"},
			Amenities:   []string{"detached garage"},
		},
		{
			ListingID:      "prop-006",
			NeighborhoodID: "oak-rockridge",
			Address: core.Address{
				Street: "440 62nd St", City: "Oakland", State: "CA", Zip: "94609",
				Location: &core.GeoPoint{Lat: 37.8489, Lon: -122.2602},
			},
			PropertyType: "townhouse",
			Price:        765000, Bedrooms: 2, Bathrooms: 2.5, SquareFeet: 1340,
			YearBuilt: 2012, Status: "active", ListedDate: date("2026-08-05"), DaysOnMarket: 19,
			HasParking:  true,
			Description: "Quiet townhouse near BART with a private patio and attached garage",
			Features:    []string{"private patio", "dual-pane windows"},
			Amenities:   []string{"attached garage", "guest parking"},
		},
		{
			ListingID:      "prop-007",
			NeighborhoodID: "sea-capitol-hill",
			Address: core.Address{
				Street: "731 Belmont Ave E", City: "Seattle", State: "WA", Zip: "98102",
				Location: &core.GeoPoint{Lat: 47.6253, Lon: -122.3222},
			},
			PropertyType: "condo",
			Price:        689000, Bedrooms: 2, Bathrooms: 1, SquareFeet: 890,
			YearBuilt: 1962, Status: "active", ListedDate: date("2026-06-25"), DaysOnMarket: 60,
			Description: "Mid-century condo with skyline views, walkable to cafes and nightlife",
			Features:    []string{"city views", "updated kitchen"},
			Amenities:   []string{"rooftop deck", "secure entry"},
		},
		{
			ListingID:      "prop-008",
			NeighborhoodID: "sea-capitol-hill",
			Address: core.Address{
				Street: "1625 E Olive Way", City: "Seattle", State: "WA", Zip: "98102",
				Location: &core.GeoPoint{Lat: 47.6190, Lon: -122.3248},
			},
			PropertyType: "apartment",
			Price:        545000, Bedrooms: 1, Bathrooms: 1, SquareFeet: 680,
			YearBuilt: 2018, Status: "active", ListedDate: date("2026-08-12"), DaysOnMarket: 12,
			Description: "New-construction one bedroom with floor-to-ceiling windows and smart appliances",
			Features:    []string{"floor-to-ceiling windows", "smart thermostat"},
			Amenities:   []string{"gym", "pet washing station"},
		},
		{
			ListingID:      "prop-009",
			NeighborhoodID: "sea-ballard",
			Address: core.Address{
				Street: "5423 Ballard Ave NW", City: "Seattle", State: "WA", Zip: "98107",
				Location: &core.GeoPoint{Lat: 47.6678, Lon: -122.3840},
			},
			PropertyType: "townhouse",
			Price:        899000, Bedrooms: 3, Bathrooms: 2.5, SquareFeet: 1560,
			YearBuilt: 2015, Status: "active", ListedDate: date("2026-07-22"), DaysOnMarket: 33,
			HasParking:  true,
			Description: "Modern townhouse with a roof deck overlooking the ship canal, near the farmers market",
			Features:    []string{"roof deck", "radiant heat"},
			Amenities:   []string{"garage", "ev charger"},
		},
		{
			ListingID:      "prop-010",
			NeighborhoodID: "sea-ballard",
			Address: core.Address{
				Street: "7310 28th Ave NW", City: "Seattle", State: "WA", Zip: "98117",
				Location: &core.GeoPoint{Lat: 47.6823, Lon: -122.3935},
			},
			PropertyType: "single-family",
			Price:        1125000, Bedrooms: 4, Bathrooms: 2, SquareFeet: 2100,
			YearBuilt: 1948, Status: "sold", ListedDate: date("2026-04-10"), DaysOnMarket: 136,
			HasParking:  true,
			Description: "Updated mid-century home with a large fenced yard, close to parks and schools",
			Features:    []string{"fenced yard", "remodeled bathrooms"},
			Amenities:   []string{"carport", "garden shed"},
		},
		{
			// No neighborhood reference: indexed, but excluded from the
			// relationships index.
			ListingID: "prop-011",
			Address: core.Address{
				Street: "18 Rural Route 4", City: "Petaluma", State: "CA", Zip: "94952",
				Location: &core.GeoPoint{Lat: 38.2324, Lon: -122.6367},
			},
			PropertyType: "single-family",
			Price:        720000, Bedrooms: 3, Bathrooms: 2, SquareFeet: 1750,
			YearBuilt: 1978, Status: "active", ListedDate: date("2026-08-01"), DaysOnMarket: 23,
			HasParking:  true,
			Description: "Country home on a half-acre lot with mature oaks and a wraparound porch",
			Features:    []string{"half-acre lot", "wraparound porch"},
			Amenities:   []string{"well water", "workshop"},
		},
		{
			ListingID:      "prop-012",
			NeighborhoodID: "sf-noe-valley",
			Address: core.Address{
				Street: "560 29th St", City: "San Francisco", State: "CA", Zip: "94131",
				Location: &core.GeoPoint{Lat: 37.7439, Lon: -122.4290},
			},
			PropertyType: "single-family",
			Price:        3250000, Bedrooms: 5, Bathrooms: 4, SquareFeet: 3200,
			YearBuilt: 2021, Status: "active", ListedDate: date("2026-07-15"), DaysOnMarket: 40,
			HasParking:  true,
			Description: "Rebuilt contemporary home with panoramic views, designer kitchen, and an au pair suite",
			Features:    []string{"panoramic views", "radiant floors", "au pair suite"},
			Amenities:   []string{"two-car garage", "smart home system"},
		},
	}
}

// Neighborhoods returns the sample neighborhood records.
func Neighborhoods() []core.Neighborhood {
	return []core.Neighborhood{
		{
			NeighborhoodID: "sf-noe-valley", Name: "Noe Valley", City: "San Francisco", State: "CA",
			Description:   "Sunny, family-oriented neighborhood of Victorians and stroller-friendly cafes",
			Population:    22000, MedianIncome: 186000, WalkScore: 88, SchoolRating: 8.2,
			LifestyleTags: []string{"family-friendly", "quiet", "village feel"},
			WikipediaRefs: []string{"52412"},
		},
		{
			NeighborhoodID: "sf-mission", Name: "Mission District", City: "San Francisco", State: "CA",
			Description:   "Vibrant, historically Latino district known for murals, taquerias, and nightlife",
			Population:    59000, MedianIncome: 122000, WalkScore: 97, SchoolRating: 6.8,
			LifestyleTags: []string{"nightlife", "arts", "foodie"},
			WikipediaRefs: []string{"52413"},
		},
		{
			NeighborhoodID: "oak-rockridge", Name: "Rockridge", City: "Oakland", State: "CA",
			Description:   "Leafy streets of Craftsman homes with an upscale shopping corridor on College Avenue",
			Population:    14000, MedianIncome: 158000, WalkScore: 85, SchoolRating: 8.8,
			LifestyleTags: []string{"family-friendly", "walkable", "transit"},
		},
		{
			NeighborhoodID: "sea-capitol-hill", Name: "Capitol Hill", City: "Seattle", State: "WA",
			Description:   "Seattle's densest and liveliest neighborhood, packed with music venues and cafes",
			Population:    33000, MedianIncome: 98000, WalkScore: 94, SchoolRating: 6.1,
			LifestyleTags: []string{"nightlife", "lgbtq-friendly", "dense"},
			WikipediaRefs: []string{"61201"},
		},
		{
			NeighborhoodID: "sea-ballard", Name: "Ballard", City: "Seattle", State: "WA",
			Description:   "Former fishing village with a Nordic heritage, breweries, and a Sunday farmers market",
			Population:    25000, MedianIncome: 112000, WalkScore: 89, SchoolRating: 7.4,
			LifestyleTags: []string{"breweries", "maritime", "family-friendly"},
		},
	}
}

// Articles returns the sample Wikipedia articles.
func Articles() []core.WikipediaArticle {
	return []core.WikipediaArticle{
		{
			PageID: "52412", Title: "Noe Valley, San Francisco",
			LongSummary: "Noe Valley is a neighborhood in central San Francisco known for its sunny microclimate, Victorian and Edwardian houses, and 24th Street commercial corridor.",
			FullContent: "Noe Valley sits in a valley sheltered by Twin Peaks, which blocks the coastal fog and gives the neighborhood its famously sunny weather. Its housing stock of Victorians and Edwardians survived the 1906 earthquake largely intact, and the 24th Street corridor anchors daily life with bakeries, bookstores, and a Saturday farmers market.",
			Categories:  []string{"Neighborhoods in San Francisco"},
			KeyTopics:   []string{"victorian architecture", "24th street"},
			Location:    core.WikipediaLocation{City: "San Francisco", State: "CA"},
			RelevanceScore: 0.95, Confidence: 0.92,
		},
		{
			PageID: "52413", Title: "Mission District, San Francisco",
			LongSummary: "The Mission District is one of San Francisco's oldest neighborhoods, noted for its murals, Mission Dolores, and a celebrated food scene.",
			FullContent: "The Mission District grew around Mission San Francisco de Asis, founded in 1776, making it the oldest surviving structure in the city. The neighborhood is celebrated for its mural alleys, Balmy and Clarion among them, its taquerias credited with inventing the Mission burrito, and Dolores Park, one of the most heavily used green spaces in San Francisco.",
			Categories:  []string{"Neighborhoods in San Francisco"},
			KeyTopics:   []string{"murals", "mission dolores"},
			Location:    core.WikipediaLocation{City: "San Francisco", State: "CA"},
			RelevanceScore: 0.93, Confidence: 0.9,
		},
		{
			PageID: "52520", Title: "Golden Gate Park",
			LongSummary: "Golden Gate Park is a large urban park in San Francisco with gardens, museums, and open meadows stretching from Stanyan Street to the Pacific Ocean.",
			FullContent: "Golden Gate Park stretches over a thousand acres from Stanyan Street to the Pacific Ocean, larger than New York's Central Park. It hosts the de Young Museum, the California Academy of Sciences, the Japanese Tea Garden, and a herd of bison, and its meadows and windmills draw millions of visitors each year.",
			Categories:  []string{"Parks in San Francisco"},
			KeyTopics:   []string{"museums", "gardens"},
			Location:    core.WikipediaLocation{City: "San Francisco", State: "CA"},
			RelevanceScore: 0.78, Confidence: 0.85,
		},
		{
			PageID: "58810", Title: "Rockridge, Oakland",
			LongSummary: "Rockridge is a residential district of Oakland along College Avenue, served by its own BART station and known for Craftsman bungalows.",
			FullContent: "Rockridge developed after the 1906 earthquake as San Franciscans relocated across the bay, filling its streets with Craftsman bungalows. College Avenue forms its spine, lined with restaurants and the Market Hall food emporium, and the Rockridge BART station connects the district directly to downtown Oakland and San Francisco.",
			Categories:  []string{"Neighborhoods in Oakland"},
			KeyTopics:   []string{"bart", "craftsman bungalows"},
			Location:    core.WikipediaLocation{City: "Oakland", State: "CA"},
			RelevanceScore: 0.88, Confidence: 0.86,
		},
		{
			PageID: "61201", Title: "Capitol Hill, Seattle",
			LongSummary: "Capitol Hill is a densely populated neighborhood east of downtown Seattle, the city's center of nightlife and counterculture.",
			FullContent: "Capitol Hill rises just east of downtown Seattle and has long been the city's center of counterculture and LGBTQ life. Broadway and Pike/Pine form its commercial spines, dense with music venues, coffee houses, and nightlife, while the neighborhood's western slopes hold some of Seattle's oldest mansions along Millionaire's Row.",
			Categories:  []string{"Neighborhoods in Seattle"},
			KeyTopics:   []string{"nightlife", "counterculture"},
			Location:    core.WikipediaLocation{City: "Seattle", State: "WA"},
			RelevanceScore: 0.9, Confidence: 0.88,
		},
		{
			PageID: "61305", Title: "Ballard, Seattle",
			LongSummary: "Ballard is a neighborhood in northwestern Seattle with a strong Scandinavian maritime heritage, home to the Ballard Locks and a historic avenue.",
			FullContent: "Ballard began as an independent city of Scandinavian fishermen and mill workers before annexation by Seattle in 1907. The Hiram M. Chittenden Locks connect Salmon Bay to Puget Sound and draw visitors to watch boats and salmon pass, while Ballard Avenue's brick storefronts now house breweries and a popular Sunday farmers market.",
			Categories:  []string{"Neighborhoods in Seattle"},
			KeyTopics:   []string{"ballard locks", "scandinavian heritage"},
			Location:    core.WikipediaLocation{City: "Seattle", State: "WA"},
			RelevanceScore: 0.87, Confidence: 0.84,
		},
	}
}
