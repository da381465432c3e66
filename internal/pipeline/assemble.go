package pipeline

import (
	"github.com/sells-group/address-classifier/internal/features"
	"github.com/sells-group/address-classifier/internal/model"
	"github.com/sells-group/address-classifier/internal/placectx"
)

// contextUnavailable is the error note used when no place context was built.
const contextUnavailable = "place context unavailable"

// Assemble merges the place context for address into the context handed to
// the decision step. pc may be nil when the builder produced nothing.
func Assemble(address string, pc *placectx.PlaceContext) *model.ClassificationContext {
	if pc == nil {
		msg := contextUnavailable
		return &model.ClassificationContext{
			Address:                address,
			AlternateBuildingNames: []string{},
			NearbyPlaces:           []model.NearbyPlace{},
			DistanceTiers:          model.NewDistanceTiers(),
			AddressFeatures:        features.Extract(address),
			Error:                  &msg,
		}
	}

	cc := &model.ClassificationContext{
		Address:                address,
		MainPlace:              pc.MainPlace,
		AlternateBuildingNames: pc.AlternateBuildingNames,
		NearbyPlaces:           pc.NearbyPlaces,
		DistanceTiers:          pc.DistanceTiers,
		AddressFeatures:        pc.Features,
	}
	if cc.AlternateBuildingNames == nil {
		cc.AlternateBuildingNames = []string{}
	}
	if cc.NearbyPlaces == nil {
		cc.NearbyPlaces = []model.NearbyPlace{}
	}
	fillTiers(&cc.DistanceTiers)

	if msg := pc.LookupError(); msg != "" {
		cc.Error = &msg
	}
	return cc
}

func fillTiers(t *model.DistanceTiers) {
	if t.Exact == nil {
		t.Exact = []model.NearbyPlace{}
	}
	if t.SameBuilding == nil {
		t.SameBuilding = []model.NearbyPlace{}
	}
	if t.Adjacent == nil {
		t.Adjacent = []model.NearbyPlace{}
	}
}
