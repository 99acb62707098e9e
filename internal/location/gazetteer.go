package location

// The gazetteer is a static lookup of the places the corpus covers.
// Extraction is pure table matching, so results are deterministic for a
// given build of this file.

// stateCodes maps lowercase state names and codes to the canonical
// 2-letter code.
var stateCodes = map[string]string{
	"california":    "CA",
	"ca":            "CA",
	"washington":    "WA",
	"wa":            "WA",
	"oregon":        "OR",
	"or":            "OR",
	"texas":         "TX",
	"tx":            "TX",
	"new york":      "NY",
	"ny":            "NY",
	"colorado":      "CO",
	"co":            "CO",
	"illinois":      "IL",
	"il":            "IL",
	"massachusetts": "MA",
	"ma":            "MA",
	"florida":       "FL",
	"fl":            "FL",
	"arizona":       "AZ",
	"az":            "AZ",
}

// cityStates maps lowercase city names to their state code.
var cityStates = map[string]string{
	"san francisco": "CA",
	"oakland":       "CA",
	"berkeley":      "CA",
	"san jose":      "CA",
	"palo alto":     "CA",
	"los angeles":   "CA",
	"san diego":     "CA",
	"sacramento":    "CA",
	"seattle":       "WA",
	"bellevue":      "WA",
	"tacoma":        "WA",
	"portland":      "OR",
	"austin":        "TX",
	"dallas":        "TX",
	"houston":       "TX",
	"new york":      "NY",
	"brooklyn":      "NY",
	"denver":        "CO",
	"boulder":       "CO",
	"chicago":       "IL",
	"boston":        "MA",
	"cambridge":     "MA",
	"miami":         "FL",
	"phoenix":       "AZ",
	"scottsdale":    "AZ",
}

// neighborhoodPlace locates a neighborhood inside its city.
type neighborhoodPlace struct {
	city  string
	state string
}

// neighborhoodPlaces maps lowercase neighborhood names to their city
// and state.
var neighborhoodPlaces = map[string]neighborhoodPlace{
	"noe valley":       {"san francisco", "CA"},
	"mission district": {"san francisco", "CA"},
	"the mission":      {"san francisco", "CA"},
	"pacific heights":  {"san francisco", "CA"},
	"soma":             {"san francisco", "CA"},
	"south of market":  {"san francisco", "CA"},
	"nob hill":         {"san francisco", "CA"},
	"russian hill":     {"san francisco", "CA"},
	"hayes valley":     {"san francisco", "CA"},
	"sunset district":  {"san francisco", "CA"},
	"rockridge":        {"oakland", "CA"},
	"temescal":         {"oakland", "CA"},
	"capitol hill":     {"seattle", "WA"},
	"ballard":          {"seattle", "WA"},
	"fremont":          {"seattle", "WA"},
	"queen anne":       {"seattle", "WA"},
	"pearl district":   {"portland", "OR"},
	"south congress":   {"austin", "TX"},
	"hyde park":        {"austin", "TX"},
	"williamsburg":     {"brooklyn", "NY"},
	"park slope":       {"brooklyn", "NY"},
	"wicker park":      {"chicago", "IL"},
	"back bay":         {"boston", "MA"},
	"beacon hill":      {"boston", "MA"},
}

// maxPhraseTokens is the longest gazetteer phrase in tokens.
const maxPhraseTokens = 3

// connectorWords precede a location mention and are removed with it.
var connectorWords = map[string]bool{
	"in":     true,
	"near":   true,
	"around": true,
	"at":     true,
}
