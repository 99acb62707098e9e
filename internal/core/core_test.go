package core

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestPropertyFinalizeDerivedFields(t *testing.T) {
	p := Property{
		ListingID:    "prop-001",
		PropertyType: "condo",
		Price:        750000,
		SquareFeet:   1500,
		Features:     []string{"hardwood floors", "condo"},
		Amenities:    []string{"rooftop deck", "hardwood floors"},
	}
	p.Finalize()

	if p.PricePerSqft != 500 {
		t.Errorf("Expected price_per_sqft 500, got %f", p.PricePerSqft)
	}
	expected := []string{"condo", "hardwood floors", "rooftop deck"}
	if len(p.SearchTags) != len(expected) {
		t.Fatalf("Expected %d search tags, got %d: %v", len(expected), len(p.SearchTags), p.SearchTags)
	}
	for i, tag := range expected {
		if p.SearchTags[i] != tag {
			t.Errorf("Expected search tag %d to be %q, got %q", i, tag, p.SearchTags[i])
		}
	}
}

func TestPropertyFinalizeWithoutSquareFeet(t *testing.T) {
	p := Property{ListingID: "prop-002", Price: 500000}
	p.Finalize()
	if p.PricePerSqft != 0 {
		t.Errorf("Expected price_per_sqft to stay zero without square_feet, got %f", p.PricePerSqft)
	}
}

func TestAddressSerializesStateNotStateCode(t *testing.T) {
	p := Property{
		ListingID: "prop-003",
		Address: Address{
			Street: "1240 Valencia St",
			City:   "San Francisco",
			State:  "CA",
		},
	}
	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	doc := string(data)
	if strings.Contains(doc, "state_code") {
		t.Error("Property document must never contain 'state_code'")
	}
	if !strings.Contains(doc, `"state":"CA"`) {
		t.Errorf("Property document must carry nested address state, got %s", doc)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if _, ok := decoded["address"].(map[string]any); !ok {
		t.Error("Address must serialize as a nested object, not flat siblings")
	}
}

func TestRelationshipNeighborhoodNullable(t *testing.T) {
	rel := PropertyRelationship{
		ListingID: "prop-004",
		Property:  Property{ListingID: "prop-004"},
	}
	data, err := json.Marshal(rel)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"neighborhood":null`) {
		t.Errorf("Expected explicit null neighborhood, got %s", data)
	}
}
