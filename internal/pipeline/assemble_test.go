package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/address-classifier/internal/model"
	"github.com/sells-group/address-classifier/internal/placectx"
)

func TestAssemble_NilContext(t *testing.T) {
	cc := Assemble("123 Main St Apt 4B", nil)

	assert.Equal(t, "123 Main St Apt 4B", cc.Address)
	assert.Nil(t, cc.MainPlace)
	assert.NotNil(t, cc.AlternateBuildingNames)
	assert.NotNil(t, cc.NearbyPlaces)
	assert.NotNil(t, cc.DistanceTiers.Exact)
	assert.NotNil(t, cc.DistanceTiers.SameBuilding)
	assert.NotNil(t, cc.DistanceTiers.Adjacent)
	assert.True(t, cc.AddressFeatures.HasApartmentOrUnitToken)
	require.NotNil(t, cc.Error)
	assert.Equal(t, contextUnavailable, *cc.Error)
}

func TestAssemble_PartialContext(t *testing.T) {
	pc := &placectx.PlaceContext{
		MainPlace: &model.Place{Name: "Oak Manor"},
		Features:  model.AddressFeatures{HasSuiteOrOfficeToken: true},
		Steps: placectx.Steps{
			FindPlace:    placectx.StepResult{Step: placectx.StepFindPlace, Status: placectx.StatusOK},
			NearbySearch: placectx.StepResult{Step: placectx.StepNearbySearch, Status: placectx.StatusFailed, Reason: "status 500"},
		},
	}

	cc := Assemble("1 Oak St", pc)

	assert.Equal(t, "Oak Manor", cc.MainPlace.Name)
	assert.True(t, cc.AddressFeatures.HasSuiteOrOfficeToken)
	assert.NotNil(t, cc.AlternateBuildingNames)
	assert.NotNil(t, cc.NearbyPlaces)
	assert.NotNil(t, cc.DistanceTiers.Adjacent)
	require.NotNil(t, cc.Error)
	assert.Equal(t, "nearby_search: status 500", *cc.Error)
}

func TestAssemble_CleanContextHasNoError(t *testing.T) {
	d := 3.0
	np := model.NearbyPlace{Name: "Cafe", DistanceM: &d}
	tiers := model.NewDistanceTiers()
	tiers.Add(model.TierExact, np)

	cc := Assemble("1 Oak St", &placectx.PlaceContext{
		NearbyPlaces:           []model.NearbyPlace{np},
		AlternateBuildingNames: []string{"Oak Towers"},
		DistanceTiers:          tiers,
	})

	assert.Nil(t, cc.Error)
	assert.Equal(t, 1, cc.NearbyCount())
	assert.Equal(t, []string{"Oak Towers"}, cc.AlternateBuildingNames)
	assert.Len(t, cc.DistanceTiers.Exact, 1)
}
