// Package division picks the regional division whose emissions factors apply to a utility.
package division

import (
	"fmt"
	"strings"

	carbonaccounting "github.com/Open-Earth-Foundation/blockchain-carbon-accounting"
)

// National is the default division used for domestic utilities carrying
// neither a state nor a grid region.
var National = carbonaccounting.Division{ID: "USA", Type: carbonaccounting.DivisionCountry}

// Resolve returns the most specific division known for the utility, falling
// back from state to grid region to foreign country to the national default.
func Resolve(lookup carbonaccounting.UtilityLookupItem) (carbonaccounting.Division, error) {
	resolved := resolve(lookup)
	if strings.TrimSpace(resolved.ID) == "" {
		return carbonaccounting.Division{}, fmt.Errorf("%w: utility %s has no usable division id", carbonaccounting.ErrResolution, lookup.UUID)
	}
	return resolved, nil
}

func resolve(lookup carbonaccounting.UtilityLookupItem) carbonaccounting.Division {
	if strings.TrimSpace(lookup.StateProvince) != "" {
		return carbonaccounting.Division{ID: lookup.StateProvince, Type: carbonaccounting.DivisionState}
	}

	divisionType, err := carbonaccounting.ParseDivisionType(lookup.Divisions.DivisionType)
	if err != nil {
		return National
	}

	switch {
	case divisionType == carbonaccounting.DivisionNercRegion:
		return carbonaccounting.Division{ID: lookup.Divisions.DivisionID, Type: carbonaccounting.DivisionNercRegion}
	case divisionType == carbonaccounting.DivisionCountry && !strings.EqualFold(lookup.Divisions.DivisionID, National.ID):
		return carbonaccounting.Division{ID: lookup.Divisions.DivisionID, Type: carbonaccounting.DivisionCountry}
	}

	return National
}
