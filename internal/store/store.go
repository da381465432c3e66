// Package store persists classification results for the history views.
package store

import (
	"context"

	"github.com/sells-group/address-classifier/internal/model"
)

// DefaultListLimit is used when a caller asks for no specific limit.
const DefaultListLimit = 50

// MaxListLimit caps a single history page.
const MaxListLimit = 500

// Store records classifications and lists them newest first.
type Store interface {
	Record(ctx context.Context, c model.Classification, policyVersion string) (*model.ClassificationRecord, error)
	List(ctx context.Context, limit int) ([]model.ClassificationRecord, error)

	Migrate(ctx context.Context) error
	Close() error
}

// clampLimit maps a requested page size into [1, MaxListLimit].
func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	default:
		return limit
	}
}
