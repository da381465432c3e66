package model

import (
	"math"
	"strings"
	"time"
)

// Category is the classification label for an address.
type Category string

const (
	CategoryResidential Category = "residential"
	CategoryBusiness    Category = "business"
	CategoryUnknown     Category = "unknown"
)

// AllCategories returns every valid category.
func AllCategories() []Category {
	return []Category{CategoryResidential, CategoryBusiness, CategoryUnknown}
}

// Valid reports whether c is one of the enumerated categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryResidential, CategoryBusiness, CategoryUnknown:
		return true
	default:
		return false
	}
}

// ParseCategory normalizes s and returns CategoryUnknown for anything that is
// not an enumerated value.
func ParseCategory(s string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return CategoryUnknown
	}
	return c
}

// ClampConfidence forces v into [0,1]. NaN and infinities become 0.
func ClampConfidence(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Min(1, math.Max(0, v))
}

// ClassificationResult is the outcome of classifying one address.
type ClassificationResult struct {
	Category    Category `json:"category"`
	Confidence  float64  `json:"confidence"`
	Reason      string   `json:"reason"`
	NearbyCount int      `json:"nearby_count"`
}

// Classification is a result paired with the address it was produced for.
type Classification struct {
	ClassificationResult
	Address string `json:"address"`
}

// ClassificationRecord is a persisted classification.
type ClassificationRecord struct {
	ID            string               `json:"id"`
	Address       string               `json:"address"`
	Result        ClassificationResult `json:"result"`
	PolicyVersion string               `json:"policy_version"`
	CreatedAt     time.Time            `json:"created_at"`
}
