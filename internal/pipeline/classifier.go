// Package pipeline runs one address through context building and the
// classification decision.
package pipeline

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/address-classifier/internal/decision"
	"github.com/sells-group/address-classifier/internal/model"
	"github.com/sells-group/address-classifier/internal/placectx"
	"github.com/sells-group/address-classifier/internal/store"
)

// ErrEmptyAddress is returned when the address is blank after trimming.
var ErrEmptyAddress = eris.New("pipeline: address is required")

// ContextBuilder gathers the place evidence for an address.
type ContextBuilder interface {
	Build(ctx context.Context, address string) *placectx.PlaceContext
}

// Decider makes the classification decision for a context.
type Decider interface {
	Decide(ctx context.Context, cc *model.ClassificationContext) model.ClassificationResult
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithStore records every classification in st.
func WithStore(st store.Store) Option {
	return func(c *Classifier) {
		c.store = st
	}
}

// WithPolicyVersion sets the policy version recorded with each result.
func WithPolicyVersion(v string) Option {
	return func(c *Classifier) {
		c.policyVersion = v
	}
}

// Classifier classifies addresses. It holds no per-request state and is safe
// for concurrent use when its builder and decider are.
type Classifier struct {
	builder       ContextBuilder
	decider       Decider
	store         store.Store
	policyVersion string
}

// NewClassifier creates a Classifier.
func NewClassifier(builder ContextBuilder, decider Decider, opts ...Option) *Classifier {
	c := &Classifier{builder: builder, decider: decider}
	if e, ok := decider.(*decision.Engine); ok {
		c.policyVersion = e.Policy().Version
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Classification is the outcome for one address.
type Classification struct {
	model.Classification
	PolicyVersion string `json:"policy_version,omitempty"`
}

// Classify builds the context for address and decides its category. The
// only error is ErrEmptyAddress; lookup and reasoning failures are folded
// into the result.
func (c *Classifier) Classify(ctx context.Context, address string) (*Classification, error) {
	cc, err := c.ContextFor(ctx, address)
	if err != nil {
		return nil, err
	}

	result := c.decider.Decide(ctx, cc)
	out := &Classification{
		Classification: model.Classification{ClassificationResult: result, Address: cc.Address},
		PolicyVersion:  c.policyVersion,
	}

	zap.L().Info("pipeline: classified address",
		zap.String("address", cc.Address),
		zap.String("category", string(result.Category)),
		zap.Float64("confidence", result.Confidence),
		zap.Int("nearby_count", result.NearbyCount),
		zap.Bool("degraded", cc.Error != nil),
	)

	if c.store != nil {
		if _, err := c.store.Record(ctx, out.Classification, c.policyVersion); err != nil {
			zap.L().Warn("pipeline: failed to record classification",
				zap.String("address", cc.Address),
				zap.Error(err),
			)
		}
	}

	return out, nil
}

// ContextFor builds and assembles the classification context for address
// without making the decision.
func (c *Classifier) ContextFor(ctx context.Context, address string) (*model.ClassificationContext, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, ErrEmptyAddress
	}

	var pc *placectx.PlaceContext
	if c.builder != nil {
		pc = c.builder.Build(ctx, address)
	}
	return Assemble(address, pc), nil
}

// PlaceContext runs only the builder, for callers that need the raw lookup
// output such as the GeoJSON export.
func (c *Classifier) PlaceContext(ctx context.Context, address string) (*placectx.PlaceContext, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, ErrEmptyAddress
	}
	if c.builder == nil {
		return nil, eris.New("pipeline: no context builder configured")
	}
	return c.builder.Build(ctx, address), nil
}
