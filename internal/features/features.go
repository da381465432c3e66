// Package features derives structural signals from raw address text.
package features

import (
	"regexp"

	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/address-classifier/internal/model"
)

var (
	// Designator word, optional period, optional "#", then a number.
	suiteTokenRe     = regexp.MustCompile(`(?i)\b(?:ste|suite|office|bldg|building)\b\.?\s*#?\s*\d+`)
	floorTokenRe     = regexp.MustCompile(`(?i)\b(?:floor|fl)\b\.?\s*#?\s*(\d+)`)
	apartmentTokenRe = regexp.MustCompile(`(?i)\b(?:apt|apartment|unit)\b\.?\s*#?\s*\d+`)

	hashLetterRe = regexp.MustCompile(`(?i)#\s*[a-z]`)
	hashDigitRe  = regexp.MustCompile(`#\s*\d`)
)

// Extract returns the structural features of address. It is total and
// deterministic. Both flags may be set for the same address.
func Extract(address string) model.AddressFeatures {
	text := norm.NFKC.String(address)
	return model.AddressFeatures{
		HasSuiteOrOfficeToken:   suiteTokenRe.MatchString(text) || hasFloorToken(text) || hashLetterRe.MatchString(text),
		HasApartmentOrUnitToken: apartmentTokenRe.MatchString(text) || hashDigitRe.MatchString(text),
	}
}

// hasFloorToken matches "Floor 3" or "Fl 12". A five-digit number after "FL"
// is the Florida state code followed by a ZIP, not a floor.
func hasFloorToken(text string) bool {
	for _, m := range floorTokenRe.FindAllStringSubmatch(text, -1) {
		if len(m[1]) != 5 {
			return true
		}
	}
	return false
}
