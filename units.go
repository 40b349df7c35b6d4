package carbonaccounting

import (
	"fmt"
	"strings"
)

// uomFactors maps a unit of measure to its multiplier against the canonical
// base unit of its dimension: watt-hour for energy, kilogram for mass.
var uomFactors = map[string]float64{
	"wh":  1,
	"kwh": 1e3,
	"mwh": 1e6,
	"gwh": 1e9,
	"twh": 1e12,

	"g":      1e-3,
	"kg":     1,
	"t":      1e3,
	"ton":    1e3,
	"tons":   1e3,
	"tonne":  1e3,
	"tonnes": 1e3,
	"kt":     1e6,
	"mt":     1e9,
	"lb":     0.453592,
	"lbs":    0.453592,
}

// UnitFactor returns the multiplier of uom against its base unit.
func UnitFactor(uom string) (float64, error) {
	factor, found := uomFactors[strings.ToLower(strings.TrimSpace(uom))]
	if !found {
		return 0, fmt.Errorf("%w: unknown unit of measure %q", ErrCalculation, uom)
	}
	return factor, nil
}

// Ratio returns the conversion coefficient from one unit to another of the same dimension.
func Ratio(from, to string) (float64, error) {
	fromFactor, err := UnitFactor(from)
	if err != nil {
		return 0, err
	}
	toFactor, err := UnitFactor(to)
	if err != nil {
		return 0, err
	}
	return fromFactor / toFactor, nil
}

// SplitCompoundUnit splits a "<mass>/<energy>" unit such as "lbs/MWh".
func SplitCompoundUnit(uom string) (mass string, energy string, err error) {
	mass, energy, found := strings.Cut(uom, "/")
	if !found || strings.TrimSpace(mass) == "" || strings.TrimSpace(energy) == "" {
		return "", "", fmt.Errorf("%w: %q is not a <mass>/<energy> unit", ErrCalculation, uom)
	}
	return strings.TrimSpace(mass), strings.TrimSpace(energy), nil
}
