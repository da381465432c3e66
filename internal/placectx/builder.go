// Package placectx gathers the place evidence for an address: the main place,
// alternate building names, and the nearby places bucketed by distance.
package placectx

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/address-classifier/internal/features"
	"github.com/sells-group/address-classifier/internal/model"
	"github.com/sells-group/address-classifier/internal/resilience"
	"github.com/sells-group/address-classifier/pkg/google"
)

// Defaults for the lookup shape.
const (
	DefaultRadiusM     = 50
	DefaultMaxNearby   = 25
	DefaultAltNameScan = 5
)

// residentialKeywords mark a text-search result name as a residential building.
var residentialKeywords = []string{
	"apartment",
	"residence",
	"tower",
	"condo",
	"loft",
	"manor",
	"villa",
	"court",
	"place",
}

// PlaceContext is the builder output for one address.
type PlaceContext struct {
	MainPlace              *model.Place
	AlternateBuildingNames []string
	NearbyPlaces           []model.NearbyPlace
	DistanceTiers          model.DistanceTiers
	Features               model.AddressFeatures
	Steps                  Steps
}

// LookupError returns a note describing lookups that failed, or "" when none did.
func (pc *PlaceContext) LookupError() string {
	if pc == nil {
		return ""
	}
	return pc.Steps.lookupError()
}

// Option configures a Builder.
type Option func(*Builder)

// WithRadius sets the nearby-search radius in meters.
func WithRadius(m int) Option {
	return func(b *Builder) {
		if m > 0 {
			b.radiusM = m
		}
	}
}

// WithMaxNearby caps the number of nearby results kept.
func WithMaxNearby(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.maxNearby = n
		}
	}
}

// WithAltNameScan sets how many text-search results are scanned for building names.
func WithAltNameScan(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.altNameScan = n
		}
	}
}

// WithStepTimeout bounds each lookup call independently.
func WithStepTimeout(d time.Duration) Option {
	return func(b *Builder) {
		b.stepTimeout = d
	}
}

// Builder queries the place-lookup provider for the evidence around an address.
type Builder struct {
	places      google.Client
	radiusM     int
	maxNearby   int
	altNameScan int
	stepTimeout time.Duration
}

// NewBuilder creates a Builder backed by places.
func NewBuilder(places google.Client, opts ...Option) *Builder {
	b := &Builder{
		places:      places,
		radiusM:     DefaultRadiusM,
		maxNearby:   DefaultMaxNearby,
		altNameScan: DefaultAltNameScan,
		stepTimeout: 10 * time.Second,
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Build runs the lookups for address in order: find place, text search,
// nearby search. It never fails; a failed lookup contributes nothing and is
// recorded in the returned Steps.
func (b *Builder) Build(ctx context.Context, address string) *PlaceContext {
	pc := &PlaceContext{
		AlternateBuildingNames: []string{},
		NearbyPlaces:           []model.NearbyPlace{},
		DistanceTiers:          model.NewDistanceTiers(),
		Features:               features.Extract(address),
		Steps: Steps{
			FindPlace:    StepResult{Step: StepFindPlace, Status: StatusSkipped},
			TextSearch:   StepResult{Step: StepTextSearch, Status: StatusSkipped},
			NearbySearch: StepResult{Step: StepNearbySearch, Status: StatusSkipped},
		},
	}

	if b.places == nil {
		pc.Steps.FindPlace = failed(StepFindPlace, "place lookup not configured", nil)
		return pc
	}

	main, step := b.findPlace(ctx, address)
	pc.Steps.FindPlace = step
	if step.Status == StatusEmpty {
		pc.Steps.TextSearch.Reason = "no main place"
		pc.Steps.NearbySearch.Reason = "no main place"
		return pc
	}
	pc.MainPlace = main

	pc.AlternateBuildingNames, pc.Steps.TextSearch = b.alternateNames(ctx, address)

	switch {
	case main == nil:
		pc.Steps.NearbySearch.Reason = "no main place"
		return pc
	case !main.HasLocation():
		pc.Steps.NearbySearch.Reason = "main place has no coordinates"
		return pc
	}

	var nearby []google.Place
	nearby, pc.Steps.NearbySearch = b.nearby(ctx, *main.Lat, *main.Lng)
	pc.NearbyPlaces, pc.DistanceTiers = b.tier(*main.Lat, *main.Lng, nearby)

	return pc
}

func (b *Builder) findPlace(ctx context.Context, address string) (*model.Place, StepResult) {
	ctx, cancel := b.stepContext(ctx)
	defer cancel()

	resp, err := b.places.FindPlace(ctx, address, google.DefaultFindPlaceFields)
	if err != nil {
		return nil, failed(StepFindPlace, err.Error(), err)
	}
	if len(resp.Candidates) == 0 {
		return nil, StepResult{Step: StepFindPlace, Status: StatusEmpty, Reason: "no candidates"}
	}

	c := resp.Candidates[0]
	main := &model.Place{
		Name:             c.Name,
		FormattedAddress: c.FormattedAddress,
		Types:            nonNil(c.Types),
		BusinessStatus:   optionalString(c.BusinessStatus),
		UserRatingsTotal: max(c.UserRatingsTotal, 0),
		Rating:           c.Rating,
	}
	if loc := c.Location(); loc != nil {
		main.Lat, main.Lng = &loc.Lat, &loc.Lng
	}
	return main, StepResult{Step: StepFindPlace, Status: StatusOK}
}

// alternateNames scans the first text-search results for residential
// building names. A failure here is supplementary and only logged.
func (b *Builder) alternateNames(ctx context.Context, address string) ([]string, StepResult) {
	ctx, cancel := b.stepContext(ctx)
	defer cancel()

	names := []string{}
	resp, err := b.places.TextSearch(ctx, address)
	if err != nil {
		return names, failed(StepTextSearch, err.Error(), err)
	}

	results := resp.Results
	if len(results) > b.altNameScan {
		results = results[:b.altNameScan]
	}

	seen := make(map[string]bool)
	for _, r := range results {
		name := strings.TrimSpace(r.Name)
		if name == "" || seen[strings.ToLower(name)] || !IsResidentialBuildingName(name) {
			continue
		}
		seen[strings.ToLower(name)] = true
		names = append(names, name)
	}

	if len(names) == 0 {
		return names, StepResult{Step: StepTextSearch, Status: StatusEmpty, Reason: "no residential building names"}
	}
	return names, StepResult{Step: StepTextSearch, Status: StatusOK}
}

func (b *Builder) nearby(ctx context.Context, lat, lng float64) ([]google.Place, StepResult) {
	ctx, cancel := b.stepContext(ctx)
	defer cancel()

	resp, err := b.places.NearbySearch(ctx, google.NearbyRequest{Lat: lat, Lng: lng, RadiusM: b.radiusM})
	if err != nil {
		return nil, failed(StepNearbySearch, err.Error(), err)
	}
	if len(resp.Results) == 0 {
		return nil, StepResult{Step: StepNearbySearch, Status: StatusEmpty, Reason: "no nearby places"}
	}

	results := resp.Results
	if len(results) > b.maxNearby {
		results = results[:b.maxNearby]
	}
	return results, StepResult{Step: StepNearbySearch, Status: StatusOK}
}

// tier computes each result's distance from the main place and buckets it.
// Results without coordinates are listed untiered; results beyond the
// adjacent bound are dropped.
func (b *Builder) tier(lat, lng float64, results []google.Place) ([]model.NearbyPlace, model.DistanceTiers) {
	nearby := make([]model.NearbyPlace, 0, len(results))
	tiers := model.NewDistanceTiers()

	for _, r := range results {
		np := model.NearbyPlace{
			Name:             r.Name,
			Types:            nonNil(r.Types),
			BusinessStatus:   optionalString(r.BusinessStatus),
			UserRatingsTotal: max(r.UserRatingsTotal, 0),
			Rating:           r.Rating,
		}

		loc := r.Location()
		if loc == nil {
			nearby = append(nearby, np)
			continue
		}

		d := HaversineM(lat, lng, loc.Lat, loc.Lng)
		tier, ok := model.TierFor(d)
		if !ok {
			zap.L().Debug("placectx: nearby result outside tier range",
				zap.String("name", r.Name),
				zap.Float64("distance_m", d),
			)
			continue
		}

		np.Lat, np.Lng = &loc.Lat, &loc.Lng
		np.DistanceM = &d
		nearby = append(nearby, np)
		tiers.Add(tier, np)
	}

	return nearby, tiers
}

func (b *Builder) stepContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.stepTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, b.stepTimeout)
}

// IsResidentialBuildingName reports whether name contains a residential
// building keyword.
func IsResidentialBuildingName(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range residentialKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func failed(step Step, reason string, err error) StepResult {
	kind := resilience.Kind(err)
	zap.L().Warn("placectx: lookup degraded",
		zap.String("step", string(step)),
		zap.String("kind", kind),
		zap.Bool("transient", resilience.IsTransient(err)),
		zap.String("reason", reason),
	)
	return StepResult{Step: step, Status: StatusFailed, Reason: reason, Kind: kind}
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
