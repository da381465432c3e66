// Package model defines the domain types shared by the classification pipeline.
package model

// Place is a place record returned by the lookup provider for the input address.
type Place struct {
	Name             string   `json:"name"`
	FormattedAddress string   `json:"formatted_address"`
	Types            []string `json:"types"`
	BusinessStatus   *string  `json:"business_status"`
	UserRatingsTotal int      `json:"user_ratings_total"`
	Rating           *float64 `json:"rating,omitempty"`
	Lat              *float64 `json:"lat"`
	Lng              *float64 `json:"lng"`
}

// HasLocation reports whether both coordinates are known.
func (p *Place) HasLocation() bool {
	return p != nil && p.Lat != nil && p.Lng != nil
}

// NearbyPlace is a place found within the search radius of the main place.
// DistanceM is nil when the result carried no coordinates.
type NearbyPlace struct {
	Name             string   `json:"name"`
	Types            []string `json:"types"`
	BusinessStatus   *string  `json:"business_status"`
	UserRatingsTotal int      `json:"user_ratings_total"`
	Rating           *float64 `json:"rating,omitempty"`
	Lat              *float64 `json:"lat,omitempty"`
	Lng              *float64 `json:"lng,omitempty"`
	DistanceM        *float64 `json:"distance_m"`
}

// DistanceTier buckets a nearby place by its distance from the main place.
type DistanceTier string

const (
	TierExact        DistanceTier = "exact"
	TierSameBuilding DistanceTier = "same_building"
	TierAdjacent     DistanceTier = "adjacent"
)

// Upper bounds (inclusive, meters) of each tier.
const (
	ExactMaxM        = 5.0
	SameBuildingMaxM = 30.0
	AdjacentMaxM     = 70.0
)

// TierFor returns the tier for a distance in meters. Boundaries are half-open
// on the low side: 5.0 is exact, 5.01 is same_building. Distances beyond
// AdjacentMaxM have no tier.
func TierFor(distanceM float64) (DistanceTier, bool) {
	switch {
	case distanceM < 0:
		return "", false
	case distanceM <= ExactMaxM:
		return TierExact, true
	case distanceM <= SameBuildingMaxM:
		return TierSameBuilding, true
	case distanceM <= AdjacentMaxM:
		return TierAdjacent, true
	default:
		return "", false
	}
}

// DistanceTiers maps each tier to the nearby places assigned to it. All three
// keys are always serialized.
type DistanceTiers struct {
	Exact        []NearbyPlace `json:"exact"`
	SameBuilding []NearbyPlace `json:"same_building"`
	Adjacent     []NearbyPlace `json:"adjacent"`
}

// NewDistanceTiers returns tiers with non-nil, empty buckets.
func NewDistanceTiers() DistanceTiers {
	return DistanceTiers{
		Exact:        []NearbyPlace{},
		SameBuilding: []NearbyPlace{},
		Adjacent:     []NearbyPlace{},
	}
}

// Add places np into the bucket for tier.
func (t *DistanceTiers) Add(tier DistanceTier, np NearbyPlace) {
	switch tier {
	case TierExact:
		t.Exact = append(t.Exact, np)
	case TierSameBuilding:
		t.SameBuilding = append(t.SameBuilding, np)
	case TierAdjacent:
		t.Adjacent = append(t.Adjacent, np)
	}
}

// Get returns the bucket for tier.
func (t DistanceTiers) Get(tier DistanceTier) []NearbyPlace {
	switch tier {
	case TierExact:
		return t.Exact
	case TierSameBuilding:
		return t.SameBuilding
	case TierAdjacent:
		return t.Adjacent
	default:
		return nil
	}
}

// Len returns the number of tiered places.
func (t DistanceTiers) Len() int {
	return len(t.Exact) + len(t.SameBuilding) + len(t.Adjacent)
}

// AllTiers lists every tier, nearest first.
func AllTiers() []DistanceTier {
	return []DistanceTier{TierExact, TierSameBuilding, TierAdjacent}
}
