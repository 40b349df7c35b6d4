package store

import (
	"strconv"

	carbonaccounting "github.com/Open-Earth-Foundation/blockchain-carbon-accounting"
)

const (
	EmissionsRecordType = "EmissionsRecord"
	FactorType          = "UtilityEmissionsFactor"
	LookupType          = "UtilityLookupItem"
)

// Store groups the three entity collections kept in the world state.
type Store struct {
	// Records are keyed by utilityId, partyId, fromDate, thruDate.
	Records *Collection[carbonaccounting.EmissionsRecord]
	// Factors are keyed by division_type, division_id, year.
	Factors *Collection[carbonaccounting.UtilityEmissionsFactorItem]
	// Lookups are keyed by uuid only.
	Lookups *Collection[carbonaccounting.UtilityLookupItem]
}

func New(state WorldState) *Store {
	return &Store{
		Records: &Collection[carbonaccounting.EmissionsRecord]{
			state:      state,
			objectType: EmissionsRecordType,
			identity:   func(r carbonaccounting.EmissionsRecord) string { return r.UUID },
			keyAttrs: func(r carbonaccounting.EmissionsRecord) []string {
				return []string{r.UtilityID, r.PartyID, r.FromDate, r.ThruDate, r.UUID}
			},
		},
		Factors: &Collection[carbonaccounting.UtilityEmissionsFactorItem]{
			state:      state,
			objectType: FactorType,
			identity:   func(f carbonaccounting.UtilityEmissionsFactorItem) string { return f.UUID },
			keyAttrs: func(f carbonaccounting.UtilityEmissionsFactorItem) []string {
				return []string{f.DivisionType.String(), f.DivisionID, YearAttribute(f.Year), f.UUID}
			},
		},
		Lookups: &Collection[carbonaccounting.UtilityLookupItem]{
			state:      state,
			objectType: LookupType,
			identity:   func(l carbonaccounting.UtilityLookupItem) string { return l.UUID },
			keyAttrs: func(l carbonaccounting.UtilityLookupItem) []string {
				return []string{l.UUID}
			},
		},
	}
}

// YearAttribute renders a year as a factor key attribute.
func YearAttribute(year int) string {
	return strconv.Itoa(year)
}
