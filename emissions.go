package carbonaccounting

import (
	"fmt"
	"strings"
)

// DivisionType is the kind of geographic grouping an emissions factor applies to.
type DivisionType int

const (
	DivisionUnknown DivisionType = iota
	DivisionState
	DivisionNercRegion
	DivisionCountry
)

// ParseDivisionType normalizes the many spellings found in utility and factor
// datasets ("STATE", "nerc_region", "Country", ...).
func ParseDivisionType(s string) (DivisionType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "STATE":
		return DivisionState, nil
	case "NERC_REGION":
		return DivisionNercRegion, nil
	case "COUNTRY":
		return DivisionCountry, nil
	}
	return DivisionUnknown, fmt.Errorf("%w: unknown division type %q", ErrParse, s)
}

func (t DivisionType) String() string {
	switch t {
	case DivisionState:
		return "STATE"
	case DivisionNercRegion:
		return "NERC_REGION"
	case DivisionCountry:
		return "COUNTRY"
	}
	return ""
}

func (t DivisionType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *DivisionType) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*t = DivisionUnknown
		return nil
	}
	parsed, err := ParseDivisionType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Division identifies the regional grouping queried for emissions factors.
type Division struct {
	ID   string       `json:"division_id" mapstructure:"division_id"`
	Type DivisionType `json:"division_type" mapstructure:"division_type"`
}

func (d Division) String() string {
	return d.Type.String() + "/" + d.ID
}

// UtilityEmissionsFactorItem is a published emissions coefficient for a division and year.
// PercentOfRenewables selects the calculation formula: when set, the factor is
// expressed per unit of energy; otherwise it is derived from net generation.
type UtilityEmissionsFactorItem struct {
	UUID                      string       `json:"uuid" mapstructure:"uuid"`
	Year                      int          `json:"year" mapstructure:"year"`
	Country                   string       `json:"country" mapstructure:"country"`
	DivisionType              DivisionType `json:"division_type" mapstructure:"division_type"`
	DivisionID                string       `json:"division_id" mapstructure:"division_id"`
	DivisionName              string       `json:"division_name" mapstructure:"division_name"`
	NetGeneration             *float64     `json:"net_generation,omitempty" mapstructure:"net_generation"`
	NetGenerationUom          string       `json:"net_generation_uom" mapstructure:"net_generation_uom"`
	CO2EquivalentEmissions    float64      `json:"co2_equivalent_emissions" mapstructure:"co2_equivalent_emissions"`
	CO2EquivalentEmissionsUom string       `json:"co2_equivalent_emissions_uom" mapstructure:"co2_equivalent_emissions_uom"`
	Source                    string       `json:"source" mapstructure:"source"`
	NonRenewables             *float64     `json:"non_renewables,omitempty" mapstructure:"non_renewables"`
	Renewables                *float64     `json:"renewables,omitempty" mapstructure:"renewables"`
	PercentOfRenewables       *float64     `json:"percent_of_renewables,omitempty" mapstructure:"percent_of_renewables"`
}

func (f UtilityEmissionsFactorItem) Division() Division {
	return Division{ID: f.DivisionID, Type: f.DivisionType}
}

// UtilityLookupItem describes a utility and the division it reports under.
type UtilityLookupItem struct {
	UUID          string           `json:"uuid" mapstructure:"uuid"`
	Year          int              `json:"year,omitempty" mapstructure:"year"`
	UtilityNumber string           `json:"utility_number" mapstructure:"utility_number"`
	UtilityName   string           `json:"utility_name" mapstructure:"utility_name"`
	Country       string           `json:"country" mapstructure:"country"`
	StateProvince string           `json:"state_province,omitempty" mapstructure:"state_province"`
	Divisions     UtilityDivisions `json:"divisions" mapstructure:"divisions"`
}

// UtilityDivisions keeps the division fields of a lookup item verbatim, as the
// resolver needs to tell a domestic country entry from a foreign one.
type UtilityDivisions struct {
	DivisionType string `json:"division_type" mapstructure:"division_type"`
	DivisionID   string `json:"division_id" mapstructure:"division_id"`
}

// EmissionsRecord is the ledger entry holding the emissions attributed to a
// party for a utility over a period.
type EmissionsRecord struct {
	UUID                        string  `json:"uuid" mapstructure:"uuid"`
	UtilityID                   string  `json:"utilityId" mapstructure:"utilityId"`
	PartyID                     string  `json:"partyId" mapstructure:"partyId"`
	FromDate                    string  `json:"fromDate" mapstructure:"fromDate"`
	ThruDate                    string  `json:"thruDate" mapstructure:"thruDate"`
	EmissionsAmount             float64 `json:"emissionsAmount" mapstructure:"emissionsAmount"`
	EmissionsUom                string  `json:"emissionsUom" mapstructure:"emissionsUom"`
	RenewableEnergyUseAmount    float64 `json:"renewableEnergyUseAmount" mapstructure:"renewableEnergyUseAmount"`
	NonrenewableEnergyUseAmount float64 `json:"nonrenewableEnergyUseAmount" mapstructure:"nonrenewableEnergyUseAmount"`
	EnergyUseUom                string  `json:"energyUseUom" mapstructure:"energyUseUom"`
	FactorSource                string  `json:"factorSource" mapstructure:"factorSource"`
	URL                         string  `json:"url" mapstructure:"url"`
	ContentHash                 string  `json:"contentHash" mapstructure:"contentHash"`
	TokenID                     *string `json:"tokenId" mapstructure:"tokenId"`
}
