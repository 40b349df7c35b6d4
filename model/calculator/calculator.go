// Package calculator converts an energy usage into CO2 equivalent emissions
// using a utility emissions factor.
package calculator

import (
	"fmt"
	"math"

	carbonaccounting "github.com/Open-Earth-Foundation/blockchain-carbon-accounting"
)

const (
	// EnergyBasedUom is the unit of emissions computed from a per-energy factor.
	EnergyBasedUom = "g"
	// GenerationBasedUom is the unit of emissions computed from net generation totals.
	GenerationBasedUom = "tons"
)

// Result holds the emissions attributed to an energy usage and the split of
// that usage between renewable and non renewable sources.
type Result struct {
	EmissionsValue     float64
	EmissionsUom       string
	RenewableAmount    float64
	NonrenewableAmount float64
	DivisionType       carbonaccounting.DivisionType
	DivisionID         string
	Year               int
}

// Calculate applies the factor to usageAmount expressed in usageUom. Factors
// carrying a renewables percentage are per-energy coefficients; the others
// are divided by their net generation.
func Calculate(factor carbonaccounting.UtilityEmissionsFactorItem, usageAmount float64, usageUom string) (Result, error) {
	if !finite(usageAmount) {
		return Result{}, fmt.Errorf("%w: usage amount %v is not a number", carbonaccounting.ErrCalculation, usageAmount)
	}
	if !finite(factor.CO2EquivalentEmissions) {
		return Result{}, fmt.Errorf("%w: co2 equivalent emissions of factor %s is not a number", carbonaccounting.ErrCalculation, factor.UUID)
	}

	result := Result{
		DivisionType: factor.DivisionType,
		DivisionID:   factor.DivisionID,
		Year:         factor.Year,
	}

	var err error
	if factor.PercentOfRenewables != nil {
		err = energyBased(&result, factor, usageAmount)
	} else {
		err = generationBased(&result, factor, usageAmount, usageUom)
	}
	if err != nil {
		return Result{}, err
	}

	for _, v := range []float64{result.EmissionsValue, result.RenewableAmount, result.NonrenewableAmount} {
		if !finite(v) {
			return Result{}, fmt.Errorf("%w: factor %s produced a non finite value", carbonaccounting.ErrCalculation, factor.UUID)
		}
	}

	return result, nil
}

func energyBased(result *Result, factor carbonaccounting.UtilityEmissionsFactorItem, usageAmount float64) error {
	percent := *factor.PercentOfRenewables
	if !finite(percent) || percent < 0 || percent > 100 {
		return fmt.Errorf("%w: percent of renewables %v of factor %s is out of range", carbonaccounting.ErrCalculation, percent, factor.UUID)
	}

	mass, energy, err := carbonaccounting.SplitCompoundUnit(factor.CO2EquivalentEmissionsUom)
	if err != nil {
		return err
	}
	conversion, err := carbonaccounting.Ratio(mass, energy)
	if err != nil {
		return err
	}

	result.EmissionsUom = EnergyBasedUom
	result.EmissionsValue = factor.CO2EquivalentEmissions * usageAmount * conversion
	result.RenewableAmount = usageAmount * (percent / 100)
	result.NonrenewableAmount = usageAmount * (1 - percent/100)
	return nil
}

func generationBased(result *Result, factor carbonaccounting.UtilityEmissionsFactorItem, usageAmount float64, usageUom string) error {
	netGeneration, err := required(factor, "net_generation", factor.NetGeneration)
	if err != nil {
		return err
	}
	nonRenewables, err := required(factor, "non_renewables", factor.NonRenewables)
	if err != nil {
		return err
	}
	renewables, err := required(factor, "renewables", factor.Renewables)
	if err != nil {
		return err
	}

	if netGeneration == 0 {
		return fmt.Errorf("%w: net generation of factor %s is zero", carbonaccounting.ErrCalculation, factor.UUID)
	}
	totalGeneration := nonRenewables + renewables
	if totalGeneration == 0 {
		return fmt.Errorf("%w: total generation of factor %s is zero", carbonaccounting.ErrCalculation, factor.UUID)
	}

	usageConversion, err := carbonaccounting.Ratio(usageUom, factor.NetGenerationUom)
	if err != nil {
		return err
	}
	emissionsConversion, err := carbonaccounting.Ratio(factor.CO2EquivalentEmissionsUom, GenerationBasedUom)
	if err != nil {
		return err
	}

	result.EmissionsUom = GenerationBasedUom
	result.EmissionsValue = (factor.CO2EquivalentEmissions / netGeneration) * usageAmount * usageConversion * emissionsConversion
	result.RenewableAmount = usageAmount * (renewables / totalGeneration)
	result.NonrenewableAmount = usageAmount * (nonRenewables / totalGeneration)
	return nil
}

func required(factor carbonaccounting.UtilityEmissionsFactorItem, field string, v *float64) (float64, error) {
	if v == nil {
		return 0, fmt.Errorf("%w: factor %s has no %s", carbonaccounting.ErrCalculation, factor.UUID, field)
	}
	if !finite(*v) {
		return 0, fmt.Errorf("%w: %s of factor %s is not a number", carbonaccounting.ErrCalculation, field, factor.UUID)
	}
	return *v, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
