package model

// AddressFeatures holds structural signals derived from the address text alone.
type AddressFeatures struct {
	HasSuiteOrOfficeToken   bool `json:"has_suite_or_office_token"`
	HasApartmentOrUnitToken bool `json:"has_apartment_or_unit_token"`
}

// Ambiguous reports whether the text carries both business and residential tokens.
func (f AddressFeatures) Ambiguous() bool {
	return f.HasSuiteOrOfficeToken && f.HasApartmentOrUnitToken
}

// ClassificationContext is everything the decision step sees for one address.
// It is built once per request and never persisted.
type ClassificationContext struct {
	Address                string          `json:"address"`
	MainPlace              *Place          `json:"main_place"`
	AlternateBuildingNames []string        `json:"alternate_building_names"`
	NearbyPlaces           []NearbyPlace   `json:"nearby_places"`
	DistanceTiers          DistanceTiers   `json:"distance_tiers"`
	AddressFeatures        AddressFeatures `json:"address_features"`
	Error                  *string         `json:"error"`
}

// NearbyCount returns the number of nearby places considered.
func (c *ClassificationContext) NearbyCount() int {
	if c == nil {
		return 0
	}
	return len(c.NearbyPlaces)
}
