package lease

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lease_economics/pkg/core/analysis"
	"lease_economics/pkg/core/cashflow"
	"lease_economics/pkg/core/config"
	"lease_economics/pkg/core/equivalency"
	"lease_economics/pkg/core/scenario"
	"lease_economics/pkg/core/store"
	"lease_economics/pkg/core/termination"
	"lease_economics/pkg/core/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const leaseJSON = `{
	"id": "API-1",
	"name": "Tower 5",
	"rsf": 12000,
	"lease_type": "full_service",
	"commencement": "2025-01-01",
	"expiration": "2029-12-31",
	"operating": {"base_psf": 11, "escalation": {"type": "fixed", "rate": 0.03}},
	"rent_schedule": [{"rate_psf": 45, "escalation": 0.03}],
	"concessions": {"ti_allowance_psf": 40, "ti_actual_cost_psf": 55},
	"options": [{"type": "termination", "earliest_date": "2028-01-01", "notice_months": 9, "penalty_months": 3}]
}`

func newTestHandler(t *testing.T) (*Handler, *http.ServeMux) {
	cfg := config.Default().Engine
	cfg.DiscountRate = 0.07
	h := NewHandler(cfg, store.NewAnalysisRepo(nil, t.TempDir()))
	mux := http.NewServeMux()
	h.Register(mux)
	return h, mux
}

func do(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestAnalyzeAppliesConfigRateAndStores(t *testing.T) {
	_, mux := newTestHandler(t)

	rec := do(mux, http.MethodPost, "/api/lease/analyze", leaseJSON)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	var res analysis.LeaseAnalysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "API-1", res.LeaseID)
	assert.Equal(t, 0.07, res.Metrics.DiscountRate)
	assert.Len(t, res.Cashflow, 5)
	require.NotNil(t, res.MonthlyEconomics)
	assert.Len(t, res.MonthlyEconomics.Lines, 60)
	for _, line := range res.Cashflow {
		assert.Equal(t, utils.RoundMoney(line.BaseRent), line.BaseRent)
	}

	rec = do(mux, http.MethodGet, "/api/lease/analysis?lease_id=API-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var stored store.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stored))
	assert.Equal(t, "Tower 5", stored.LeaseName)

	rec = do(mux, http.MethodGet, "/api/lease/analyses", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []store.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)
}

func TestAnalyzeAcceptsHjson(t *testing.T) {
	_, mux := newTestHandler(t)
	body := `{
		# hand-typed draft
		name: Annex
		rsf: 5000
		commencement: "2026-01-01"
		expiration: "2027-12-31"
		rent_schedule: [{rate_psf: 30}]
	}`
	rec := do(mux, http.MethodPost, "/api/lease/analyze", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res analysis.LeaseAnalysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.NotEmpty(t, res.LeaseID)
	assert.InDelta(t, 150000, res.Cashflow[0].BaseRent, 0.01)
}

func TestAnalyzeErrors(t *testing.T) {
	_, mux := newTestHandler(t)

	rec := do(mux, http.MethodOptions, "/api/lease/analyze", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(mux, http.MethodGet, "/api/lease/analyze", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = do(mux, http.MethodPost, "/api/lease/analyze", `{"id": "X", "commencement": "2030-01-01", "expiration": "2025-01-01"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(mux, http.MethodGet, "/api/lease/analysis?lease_id=missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(mux, http.MethodGet, "/api/lease/analysis", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScenariosEndpoint(t *testing.T) {
	_, mux := newTestHandler(t)
	body := `{"lease": ` + leaseJSON + `, "top_n": 1, "scenarios": [
		{"name": "base"},
		{"name": "more TI", "overrides": {"concessions": {"ti_allowance_psf": 55}}}
	]}`
	rec := do(mux, http.MethodPost, "/api/lease/scenarios", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var results []scenario.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Len(t, results, 2)
	assert.Empty(t, results[0].Drivers)
	require.Len(t, results[1].Drivers, 1)
	assert.Equal(t, cashflow.TIShortfall, results[1].Drivers[0].Bucket)

	rec = do(mux, http.MethodPost, "/api/lease/scenarios", `{"lease": {}, "scenarios": [{"name": "bad", "overrides": {"rsf": "big"}}]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(mux, http.MethodPost, "/api/lease/scenarios", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCompareEndpoint(t *testing.T) {
	_, mux := newTestHandler(t)
	cheaper := strings.Replace(leaseJSON, `"rate_psf": 45`, `"rate_psf": 40`, 1)
	rec := do(mux, http.MethodPost, "/api/lease/compare", `{"a": `+leaseJSON+`, "b": `+cheaper+`}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp CompareResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Less(t, resp.Comparison.NPVDelta, 0.0)
	require.NotEmpty(t, resp.Comparison.TopDrivers)
	assert.Equal(t, cashflow.BaseRent, resp.Comparison.TopDrivers[0].Bucket)
}

func TestTerminationEndpoint(t *testing.T) {
	_, mux := newTestHandler(t)
	rec := do(mux, http.MethodPost, "/api/lease/termination", `{"lease": `+leaseJSON+`, "termination_date": "2028-01-01"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var sc termination.Scenario
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sc))
	assert.True(t, sc.Feasible)
	assert.Equal(t, "2027-04-01", sc.NoticeDeadline.String())
	assert.Len(t, sc.Cashflow, 3)
	assert.Greater(t, sc.Fee.Total, 0.0)
}

func TestEquivalencyEndpoint(t *testing.T) {
	_, mux := newTestHandler(t)
	rec := do(mux, http.MethodPost, "/api/lease/equivalency", `{"lease": `+leaseJSON+`, "kind": "ti_to_rate", "value": 10}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res equivalency.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, equivalency.TIToRate, res.Kind)
	assert.Equal(t, 0.07, res.DiscountRate)
	assert.Greater(t, res.Output, 2.0)
	assert.Less(t, res.Output, 3.0)

	rec = do(mux, http.MethodPost, "/api/lease/equivalency", `{"lease": `+leaseJSON+`, "kind": "bogus"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWithDefaultsLeavesInputAlone(t *testing.T) {
	h, _ := newTestHandler(t)

	var req TerminationRequest
	require.NoError(t, json.Unmarshal([]byte(`{"lease": `+leaseJSON+`}`), &req))
	out := h.withDefaults(req.Lease)
	assert.Nil(t, req.Lease.DiscountRate)
	require.NotNil(t, out.DiscountRate)
	assert.Equal(t, 0.07, *out.DiscountRate)
	require.NotNil(t, out.Options[0].InterestRate)
	assert.Equal(t, 0.08, *out.Options[0].InterestRate)
	assert.Nil(t, req.Lease.Options[0].InterestRate)
}

func TestPostOnlyEndpoints(t *testing.T) {
	_, mux := newTestHandler(t)
	for _, path := range []string{
		"/api/lease/analyze",
		"/api/lease/scenarios",
		"/api/lease/compare",
		"/api/lease/termination",
		"/api/lease/equivalency",
	} {
		rec := do(mux, http.MethodGet, path, "")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, path)

		rec = do(mux, http.MethodOptions, path, "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}
