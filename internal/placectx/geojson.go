package placectx

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/address-classifier/internal/model"
)

// GeoJSON renders the main place and every located nearby place as a
// FeatureCollection. Features carry a "role" property of "main" or "nearby";
// nearby features also carry their distance and tier.
func (pc *PlaceContext) GeoJSON() ([]byte, error) {
	fc := &geojson.FeatureCollection{Features: []*geojson.Feature{}}
	if pc == nil {
		return marshalCollection(fc)
	}

	if pc.MainPlace.HasLocation() {
		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry: point(*pc.MainPlace.Lat, *pc.MainPlace.Lng),
			Properties: map[string]interface{}{
				"role":              "main",
				"name":              pc.MainPlace.Name,
				"formatted_address": pc.MainPlace.FormattedAddress,
				"types":             pc.MainPlace.Types,
			},
		})
	}

	for _, np := range pc.NearbyPlaces {
		if np.Lat == nil || np.Lng == nil {
			continue
		}
		props := map[string]interface{}{
			"role":  "nearby",
			"name":  np.Name,
			"types": np.Types,
		}
		if np.DistanceM != nil {
			props["distance_m"] = *np.DistanceM
			if tier, ok := model.TierFor(*np.DistanceM); ok {
				props["tier"] = string(tier)
			}
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry:   point(*np.Lat, *np.Lng),
			Properties: props,
		})
	}

	return marshalCollection(fc)
}

func point(lat, lng float64) *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{lng, lat})
}

func marshalCollection(fc *geojson.FeatureCollection) ([]byte, error) {
	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return nil, eris.Wrap(err, "placectx: marshal geojson")
	}
	return data, nil
}
