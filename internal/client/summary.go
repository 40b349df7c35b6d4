package client

import (
	"context"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Summary totals the emissions of a set of records. Emissions are totalled
// per unit, as energy based and generation based records use different units.
type Summary struct {
	Info                        string             `json:"info"`
	UtilityID                   string             `json:"utilityId,omitempty"`
	PartyID                     string             `json:"partyId,omitempty"`
	Records                     int                `json:"records"`
	Emissions                   map[string]float64 `json:"emissions"`
	RenewableEnergyUseAmount    float64            `json:"renewableEnergyUseAmount"`
	NonrenewableEnergyUseAmount float64            `json:"nonrenewableEnergyUseAmount"`
}

// Summarize totals records. Energy amounts are summed as given: callers mixing
// energy units get a meaningless energy total.
func Summarize(records []EmissionsResult) Summary {
	emissions := make(map[string][]float64)
	renewable := make([]float64, 0, len(records))
	nonrenewable := make([]float64, 0, len(records))

	for _, r := range records {
		uom := strings.ToLower(r.EmissionsUom)
		emissions[uom] = append(emissions[uom], r.EmissionsAmount)
		renewable = append(renewable, r.RenewableEnergyUseAmount)
		nonrenewable = append(nonrenewable, r.NonrenewableEnergyUseAmount)
	}

	summary := Summary{
		Info:                        InfoFetched,
		Records:                     len(records),
		Emissions:                   make(map[string]float64, len(emissions)),
		RenewableEnergyUseAmount:    floats.Sum(renewable),
		NonrenewableEnergyUseAmount: floats.Sum(nonrenewable),
	}
	for uom, amounts := range emissions {
		summary.Emissions[uom] = floats.Sum(amounts)
	}
	return summary
}

// SummarizeEmissions totals the recent records of a utility and party.
func (c *Client) SummarizeEmissions(ctx context.Context, utilityID, partyID string) Summary {
	list := c.GetAllEmissionsData(ctx, utilityID, partyID)
	if Failed(list.Info) {
		return Summary{Info: list.Info, UtilityID: utilityID, PartyID: partyID, Emissions: map[string]float64{}}
	}
	summary := Summarize(list.Records)
	summary.UtilityID = utilityID
	summary.PartyID = partyID
	return summary
}
