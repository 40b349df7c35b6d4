package carbonaccounting_test

import (
	"testing"

	carbonaccounting "github.com/Open-Earth-Foundation/blockchain-carbon-accounting"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDivisionType(t *testing.T) {
	for input, expected := range map[string]carbonaccounting.DivisionType{
		"STATE":       carbonaccounting.DivisionState,
		"state":       carbonaccounting.DivisionState,
		"nerc_region": carbonaccounting.DivisionNercRegion,
		"Country":     carbonaccounting.DivisionCountry,
		" COUNTRY ":   carbonaccounting.DivisionCountry,
	} {
		divisionType, err := carbonaccounting.ParseDivisionType(input)
		require.NoError(t, err, input)
		assert.Equal(t, expected, divisionType, input)
	}

	_, err := carbonaccounting.ParseDivisionType("county")
	assert.ErrorIs(t, err, carbonaccounting.ErrParse)
}

func TestFactorJSONUsesCanonicalDivisionType(t *testing.T) {
	factor := carbonaccounting.UtilityEmissionsFactorItem{}
	require.NoError(t, json.Unmarshal([]byte(`{"uuid":"F1","division_type":"nerc_region","division_id":"WECC","year":2019}`), &factor))
	assert.Equal(t, carbonaccounting.DivisionNercRegion, factor.DivisionType)
	assert.Nil(t, factor.PercentOfRenewables)

	out, err := json.Marshal(factor)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"division_type":"NERC_REGION"`)
	assert.NotContains(t, string(out), "percent_of_renewables")
}

func TestKind(t *testing.T) {
	err := &carbonaccounting.OperationErr{Operation: "recordEmissions", Err: carbonaccounting.ErrNoFactorFound}
	assert.Equal(t, "NoFactorFound", carbonaccounting.Kind(err))
	assert.Equal(t, "Internal", carbonaccounting.Kind(assert.AnError))

	remote := carbonaccounting.KindError("NotFound", "utility U1 not found")
	assert.ErrorIs(t, remote, carbonaccounting.ErrNotFound)
	assert.Equal(t, "utility U1 not found", remote.Error())

	assert.NotErrorIs(t, carbonaccounting.KindError("Unknown", "boom"), carbonaccounting.ErrNotFound)
}

func TestSHA256Fingerprint(t *testing.T) {
	a := carbonaccounting.RecordFingerprint(carbonaccounting.SHA256Fingerprint, "U1", "P1", "2020-01-01", "2020-01-31")
	b := carbonaccounting.RecordFingerprint(carbonaccounting.SHA256Fingerprint, "U1", "P1", "2020-01-01", "2020-01-31")
	c := carbonaccounting.RecordFingerprint(carbonaccounting.SHA256Fingerprint, "U1", "P2", "2020-01-01", "2020-01-31")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestSHA256FingerprintPartBoundaries(t *testing.T) {
	fp := carbonaccounting.SHA256Fingerprint
	assert.NotEqual(t, fp("a|b", "c"), fp("a", "b|c"))
	assert.NotEqual(t, fp("ab", "c"), fp("a", "bc"))
	assert.NotEqual(t, fp("a", ""), fp("a"))
	assert.NotEqual(t,
		carbonaccounting.RecordFingerprint(fp, "U1|P1", "", "2020-01-01", "2020-01-31"),
		carbonaccounting.RecordFingerprint(fp, "U1", "|P1", "2020-01-01", "2020-01-31"),
	)
}

func TestParseYear(t *testing.T) {
	for date, expected := range map[string]int{
		"2020-01-31":               2020,
		"2021-06-01T00:00:00Z":     2021,
		"2019-12-31T23:59:59.000Z": 2019,
		"2018-03-04 10:00:00":      2018,
	} {
		year, ok := carbonaccounting.ParseYear(date)
		assert.True(t, ok, date)
		assert.Equal(t, expected, year, date)
	}

	_, ok := carbonaccounting.ParseYear("31/01/2020")
	assert.False(t, ok)
	_, ok = carbonaccounting.ParseYear("")
	assert.False(t, ok)
}
