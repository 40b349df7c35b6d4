package api_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Open-Earth-Foundation/blockchain-carbon-accounting/internal/api"
	"github.com/Open-Earth-Foundation/blockchain-carbon-accounting/internal/client"
	"github.com/Open-Earth-Foundation/blockchain-carbon-accounting/internal/engine"
	"github.com/Open-Earth-Foundation/blockchain-carbon-accounting/internal/ledger"
	"github.com/Open-Earth-Foundation/blockchain-carbon-accounting/internal/worldstate"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func seeded(t *testing.T) http.Handler {
	t.Helper()
	h := api.New(client.New(ledger.NewLocalConnector(engine.New(), worldstate.NewMemory()))).Handler()

	rec := serve(t, h, http.MethodPost, "/utilities", `{"uuid":"U1","utility_name":"Pacific Gas & Electric Co.","country":"USA","state_province":"CA"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = serve(t, h, http.MethodPost, "/factors", `{"uuid":"F1","year":"2020","division_type":"state","division_id":"CA","percent_of_renewables":"40","co2_equivalent_emissions":"500","co2_equivalent_emissions_uom":"lbs/MWh"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	return h
}

func TestRecordAndFetchEmissions(t *testing.T) {
	h := seeded(t)

	rec := serve(t, h, http.MethodPost, "/emissions", `{"utilityId":"U1","partyId":"P1","fromDate":"2020-01-01","thruDate":"2020-01-31","energyUseAmount":1000,"energyUseUom":"MWh"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res client.EmissionsResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, client.InfoRecorded, res.Info)
	assert.InDelta(t, 400, res.RenewableEnergyUseAmount, 1e-9)

	rec = serve(t, h, http.MethodGet, "/emissions/"+res.UUID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"utilityId":"U1"`)

	rec = serve(t, h, http.MethodPut, "/emissions/"+res.UUID, `{"utilityId":"U1","partyId":"P1","fromDate":"2020-01-01","thruDate":"2020-01-31","emissionsAmount":1,"energyUseUom":"MWh","tokenId":"0x1"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"tokenId":"0x1"`)

	rec = serve(t, h, http.MethodGet, "/emissions/range?fromDate=2020-01-01&thruDate=2020-12-31&partyId=P1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list client.EmissionsList
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list.Records, 1)

	rec = serve(t, h, http.MethodGet, "/emissions/summary?utilityId=U1&partyId=P1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"utilityId":"U1"`)
}

func TestFailures(t *testing.T) {
	h := seeded(t)

	rec := serve(t, h, http.MethodGet, "/emissions/missing", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "Failed to evaluate transaction")

	rec = serve(t, h, http.MethodPost, "/emissions", `{"utilityId":"U9","partyId":"P1","fromDate":"2020-01-01","thruDate":"2020-01-31","energyUseAmount":1,"energyUseUom":"MWh"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), `"utilityId":"U9"`)

	rec = serve(t, h, http.MethodPost, "/emissions", `{"utilityId":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, h, http.MethodPost, "/factors", `{"uuid":"F2","division_type":"county"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUtilities(t *testing.T) {
	h := seeded(t)

	rec := serve(t, h, http.MethodPut, "/utilities/U1", `{"utility_name":"PGE Corp","country":"USA","state_province":"CA"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = serve(t, h, http.MethodGet, "/utilities/U1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"utility_name":"PGE Corp"`)

	rec = serve(t, h, http.MethodGet, "/utilities?q=pge", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list client.UtilityList
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Utilities, 1)
	assert.Equal(t, "U1", list.Utilities[0].UUID)

	rec = serve(t, h, http.MethodGet, "/factors/F1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"division_type":"STATE"`)
}
