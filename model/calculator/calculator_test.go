package calculator

import (
	"math"
	"testing"

	carbonaccounting "github.com/Open-Earth-Foundation/blockchain-carbon-accounting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats/scalar"
)

func ptr(v float64) *float64 { return &v }

func californiaFactor() carbonaccounting.UtilityEmissionsFactorItem {
	return carbonaccounting.UtilityEmissionsFactorItem{
		UUID:                      "F-CA-2020",
		Year:                      2020,
		DivisionType:              carbonaccounting.DivisionState,
		DivisionID:                "CA",
		CO2EquivalentEmissions:    500,
		CO2EquivalentEmissionsUom: "lbs/MWh",
		PercentOfRenewables:       ptr(40),
	}
}

func weccFactor() carbonaccounting.UtilityEmissionsFactorItem {
	return carbonaccounting.UtilityEmissionsFactorItem{
		UUID:                      "F-WECC-2019",
		Year:                      2019,
		DivisionType:              carbonaccounting.DivisionNercRegion,
		DivisionID:                "WECC",
		NetGeneration:             ptr(2000),
		NetGenerationUom:          "MWh",
		CO2EquivalentEmissions:    800,
		CO2EquivalentEmissionsUom: "tons",
		NonRenewables:             ptr(1500),
		Renewables:                ptr(500),
	}
}

func TestCalculateEnergyBased(t *testing.T) {
	result, err := Calculate(californiaFactor(), 1000, "MWh")
	require.NoError(t, err)

	assert.Equal(t, "g", result.EmissionsUom)
	assert.True(t, scalar.EqualWithinAbs(500*1000*(0.453592/1e6), result.EmissionsValue, 1e-12))
	assert.True(t, scalar.EqualWithinAbs(400, result.RenewableAmount, 1e-9))
	assert.True(t, scalar.EqualWithinAbs(600, result.NonrenewableAmount, 1e-9))
	assert.Equal(t, carbonaccounting.DivisionState, result.DivisionType)
	assert.Equal(t, "CA", result.DivisionID)
	assert.Equal(t, 2020, result.Year)
}

func TestCalculateGenerationBased(t *testing.T) {
	result, err := Calculate(weccFactor(), 500, "kWh")
	require.NoError(t, err)

	// 800 tons / 2000 MWh * 0.5 MWh
	assert.Equal(t, "tons", result.EmissionsUom)
	assert.True(t, scalar.EqualWithinAbs(0.2, result.EmissionsValue, 1e-12))
	assert.True(t, scalar.EqualWithinAbs(125, result.RenewableAmount, 1e-9))
	assert.True(t, scalar.EqualWithinAbs(375, result.NonrenewableAmount, 1e-9))
}

func TestCalculateSplitMatchesUsage(t *testing.T) {
	for _, factor := range []carbonaccounting.UtilityEmissionsFactorItem{californiaFactor(), weccFactor()} {
		for _, usage := range []float64{0, 1, 1234.5678, 1e9} {
			result, err := Calculate(factor, usage, "MWh")
			require.NoError(t, err)
			assert.True(t, scalar.EqualWithinAbsOrRel(usage, result.RenewableAmount+result.NonrenewableAmount, 1e-9, 1e-12), "%s %v", factor.UUID, usage)
		}
	}
}

func TestCalculateIsDeterministic(t *testing.T) {
	for _, factor := range []carbonaccounting.UtilityEmissionsFactorItem{californiaFactor(), weccFactor()} {
		first, err := Calculate(factor, 987.65, "kWh")
		require.NoError(t, err)
		second, err := Calculate(factor, 987.65, "kWh")
		require.NoError(t, err)

		assert.Equal(t, math.Float64bits(first.EmissionsValue), math.Float64bits(second.EmissionsValue))
		assert.Equal(t, first, second)
	}
}

func TestCalculateRejectsZeroGeneration(t *testing.T) {
	factor := weccFactor()
	factor.NetGeneration = ptr(0)
	_, err := Calculate(factor, 100, "MWh")
	assert.ErrorIs(t, err, carbonaccounting.ErrCalculation)

	factor = weccFactor()
	factor.NonRenewables = ptr(0)
	factor.Renewables = ptr(0)
	_, err = Calculate(factor, 100, "MWh")
	assert.ErrorIs(t, err, carbonaccounting.ErrCalculation)
}

func TestCalculateRejectsMissingInputs(t *testing.T) {
	factor := weccFactor()
	factor.NetGeneration = nil
	_, err := Calculate(factor, 100, "MWh")
	assert.ErrorIs(t, err, carbonaccounting.ErrCalculation)

	factor = weccFactor()
	factor.Renewables = nil
	_, err = Calculate(factor, 100, "MWh")
	assert.ErrorIs(t, err, carbonaccounting.ErrCalculation)

	factor = weccFactor()
	factor.NetGenerationUom = "furlong"
	_, err = Calculate(factor, 100, "MWh")
	assert.ErrorIs(t, err, carbonaccounting.ErrCalculation)

	factor = californiaFactor()
	factor.CO2EquivalentEmissionsUom = "lbs"
	_, err = Calculate(factor, 100, "MWh")
	assert.ErrorIs(t, err, carbonaccounting.ErrCalculation)

	factor = californiaFactor()
	factor.PercentOfRenewables = ptr(140)
	_, err = Calculate(factor, 100, "MWh")
	assert.ErrorIs(t, err, carbonaccounting.ErrCalculation)

	_, err = Calculate(californiaFactor(), math.NaN(), "MWh")
	assert.ErrorIs(t, err, carbonaccounting.ErrCalculation)

	_, err = Calculate(weccFactor(), math.Inf(1), "MWh")
	assert.ErrorIs(t, err, carbonaccounting.ErrCalculation)
}
