package features

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name      string
		address   string
		suite     bool
		apartment bool
	}{
		{"suite abbreviation", "1801 Century Park E Ste 2050, Los Angeles, CA 90067", true, false},
		{"suite word", "500 Market St Suite 300, San Francisco, CA", true, false},
		{"floor", "1 World Trade Center Floor 64, New York, NY", true, false},
		{"fl with period", "200 Park Ave Fl. 12, New York, NY", true, false},
		{"short fl", "Fl 3", true, false},
		{"florida zip", "123 Main St, Miami, FL 33101", false, false},
		{"florida zip plus four", "123 Main St, Miami, FL 33101-1234", false, false},
		{"floor with florida zip", "200 Brickell Ave Fl 9, Miami, FL 33131", true, false},
		{"building number", "Bldg 7, 1 Infinite Loop, Cupertino", true, false},
		{"office number", "Office 12, 10 Downing Pl", true, false},
		{"hash letter", "77 Pine St #B, Boston, MA", true, false},
		{"apartment abbreviation", "123 Main St Apt 4B, Springfield", false, true},
		{"apartment word", "9 Elm Rd Apartment 2, Dayton, OH", false, true},
		{"unit", "45 Ocean Dr Unit 1203, Miami Beach, FL", false, true},
		{"hash digit", "88 Oak Ave #12, Portland, OR", false, true},
		{"both tokens", "10 King St Suite 5 Apt 2", true, true},
		{"plain street", "742 Evergreen Terrace, Springfield", false, false},
		{"designator without number", "4th floor, 20 River St", false, false},
		{"word inside another word", "12 Stevens Way, Flatbush", false, false},
		{"unit inside word", "3 Community Rd 10", false, false},
		{"empty", "", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Extract(tt.address)
			assert.Equal(t, tt.suite, f.HasSuiteOrOfficeToken, "suite flag")
			assert.Equal(t, tt.apartment, f.HasApartmentOrUnitToken, "apartment flag")
		})
	}
}

func TestExtract_CaseInsensitive(t *testing.T) {
	addresses := []string{
		"1801 Century Park E Ste 2050",
		"123 Main St Apt 4B",
		"77 Pine St #b",
		"45 Ocean Dr Unit 1203",
	}
	for _, a := range addresses {
		want := Extract(a)
		assert.Equal(t, want, Extract(strings.ToUpper(a)), a)
		assert.Equal(t, want, Extract(strings.ToLower(a)), a)
	}
}

func TestExtract_Deterministic(t *testing.T) {
	a := "10 King St Suite 5 Apt 2"
	first := Extract(a)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Extract(a))
	}
}

func TestExtract_FullWidthCharacters(t *testing.T) {
	f := Extract("88 Oak Ave ＃１２")
	assert.True(t, f.HasApartmentOrUnitToken)
	assert.False(t, f.HasSuiteOrOfficeToken)
}

func TestExtract_Ambiguous(t *testing.T) {
	assert.True(t, Extract("10 King St Suite 5 Apt 2").Ambiguous())
	assert.False(t, Extract("10 King St Suite 5").Ambiguous())
}
