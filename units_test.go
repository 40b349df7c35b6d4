package carbonaccounting_test

import (
	"testing"

	carbonaccounting "github.com/Open-Earth-Foundation/blockchain-carbon-accounting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitFactor(t *testing.T) {
	factor, err := carbonaccounting.UnitFactor("MWh")
	require.NoError(t, err)
	assert.Equal(t, 1e6, factor)

	factor, err = carbonaccounting.UnitFactor(" lbs ")
	require.NoError(t, err)
	assert.Equal(t, 0.453592, factor)

	_, err = carbonaccounting.UnitFactor("furlong")
	assert.ErrorIs(t, err, carbonaccounting.ErrCalculation)

	_, err = carbonaccounting.UnitFactor("")
	assert.ErrorIs(t, err, carbonaccounting.ErrCalculation)
}

func TestRatio(t *testing.T) {
	ratio, err := carbonaccounting.Ratio("kWh", "MWh")
	require.NoError(t, err)
	assert.Equal(t, 0.001, ratio)

	ratio, err = carbonaccounting.Ratio("tons", "tons")
	require.NoError(t, err)
	assert.Equal(t, 1.0, ratio)

	_, err = carbonaccounting.Ratio("kWh", "parsec")
	assert.ErrorIs(t, err, carbonaccounting.ErrCalculation)
}

func TestSplitCompoundUnit(t *testing.T) {
	mass, energy, err := carbonaccounting.SplitCompoundUnit("lbs/MWh")
	require.NoError(t, err)
	assert.Equal(t, "lbs", mass)
	assert.Equal(t, "MWh", energy)

	_, _, err = carbonaccounting.SplitCompoundUnit("tons")
	assert.ErrorIs(t, err, carbonaccounting.ErrCalculation)

	_, _, err = carbonaccounting.SplitCompoundUnit("/MWh")
	assert.ErrorIs(t, err, carbonaccounting.ErrCalculation)
}
