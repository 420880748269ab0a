package scenario

import (
	"context"
	"testing"
	"time"

	"lease_economics/pkg/core/analysis"
	"lease_economics/pkg/core/cashflow"
	"lease_economics/pkg/core/lease"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseLease() lease.LeaseDescription {
	return lease.LeaseDescription{
		ID:           "S-1",
		RSF:          15000,
		LeaseType:    lease.TripleNet,
		Commencement: lease.NewDate(2025, time.January, 1),
		Expiration:   lease.NewDate(2029, time.December, 31),
		Operating:    lease.OperatingExpenses{BasePSF: 10, Escalation: lease.FixedEscalation(0.03)},
		RentSchedule: []lease.RentRow{{RatePSF: 40, Escalation: 0.025}},
		Concessions:  lease.Concessions{TIAllowancePSF: 30, TIActualCostPSF: 45},
	}
}

func shift(lines []cashflow.Line, b cashflow.Bucket, amount float64) []cashflow.Line {
	out := make([]cashflow.Line, len(lines))
	for i, l := range lines {
		out[i] = l.WithValue(b, l.Value(b)+amount)
	}
	return out
}

func TestDriversOfIdenticalCashflowsAreEmpty(t *testing.T) {
	lines := cashflow.BuildAnnual(baseLease())
	assert.Empty(t, ComputeScenarioDrivers(lines, lines, 3))
}

func TestSingleShiftedBucketIsTheDriver(t *testing.T) {
	lines := cashflow.BuildAnnual(baseLease())
	drivers := ComputeScenarioDrivers(lines, shift(lines, cashflow.Parking, 1000), 3)
	require.Len(t, drivers, 1)
	assert.Equal(t, cashflow.Parking, drivers[0].Bucket)
	assert.InDelta(t, 5000, drivers[0].Delta, 1e-6)

	drivers = ComputeScenarioDrivers(lines, shift(lines, cashflow.Operating, -1000), 0)
	require.Len(t, drivers, 1)
	assert.InDelta(t, -5000, drivers[0].Delta, 1e-6)
}

func TestDriversSortedByMagnitudeThenDeclarationOrder(t *testing.T) {
	lines := cashflow.BuildAnnual(baseLease())
	changed := shift(lines, cashflow.OtherRecurring, 100)
	changed = shift(changed, cashflow.BaseRent, -300)
	changed = shift(changed, cashflow.Parking, 100)
	changed = shift(changed, cashflow.AmortizedCosts, 50)

	drivers := ComputeScenarioDrivers(lines, changed, 3)
	require.Len(t, drivers, 3)
	assert.Equal(t, cashflow.BaseRent, drivers[0].Bucket)
	assert.Equal(t, cashflow.Parking, drivers[1].Bucket)
	assert.Equal(t, cashflow.OtherRecurring, drivers[2].Bucket)
	assert.Less(t, drivers[0].Delta, 0.0)
}

func TestAnalyzeScenarios(t *testing.T) {
	base := baseLease()
	scenarios := []Scenario{
		{Name: "as proposed"},
		{Name: "richer TI", Overrides: map[string]interface{}{
			"concessions": map[string]interface{}{"ti_allowance_psf": 45.0},
		}},
		{Name: "lower rent", Overrides: map[string]interface{}{
			"rent_schedule": []interface{}{map[string]interface{}{"rate_psf": 36.0}},
		}},
	}

	results, err := AnalyzeScenarios(context.Background(), base, scenarios)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, scenarios[i].Name, r.Name)
	}

	assert.Empty(t, results[0].Drivers)
	assert.InDelta(t, analysis.AnalyzeLease(base).Metrics.NPV, results[0].Analysis.Metrics.NPV, 1e-6)

	// TI override merges into concessions, other concession fields survive
	assert.Equal(t, 45.0, results[1].Lease.Concessions.TIActualCostPSF)
	require.Len(t, results[1].Drivers, 1)
	assert.Equal(t, cashflow.TIShortfall, results[1].Drivers[0].Bucket)
	assert.InDelta(t, -225000, results[1].Drivers[0].Delta, 1e-6)

	// arrays replace wholesale, so the row loses its escalation
	require.Len(t, results[2].Lease.RentSchedule, 1)
	assert.Equal(t, 0.0, results[2].Lease.RentSchedule[0].Escalation)
	assert.Equal(t, cashflow.BaseRent, results[2].Drivers[0].Bucket)

	// the base is untouched
	assert.Equal(t, baseLease(), base)
}

func TestAnalyzeScenariosRejectsBadOverrides(t *testing.T) {
	_, err := AnalyzeScenarios(context.Background(), baseLease(), []Scenario{
		{Name: "broken", Overrides: map[string]interface{}{"rsf": "lots"}},
	})
	assert.ErrorContains(t, err, `scenario "broken"`)
}

func TestAnalyzeScenariosHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := AnalyzeScenarios(ctx, baseLease(), []Scenario{{Name: "a"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCompareScenarios(t *testing.T) {
	a := analysis.AnalyzeLease(baseLease())
	cheaper := baseLease()
	cheaper.RentSchedule[0].RatePSF = 38
	b := analysis.AnalyzeLease(cheaper)

	cmp := CompareScenarios(a, b)
	assert.InDelta(t, b.Metrics.NPV-a.Metrics.NPV, cmp.NPVDelta, 1e-9)
	assert.Less(t, cmp.NPVDelta, 0.0)
	assert.InDelta(t, b.Totals.NetCashFlow-a.Totals.NetCashFlow, cmp.TotalCashflowDelta, 1e-9)
	require.NotEmpty(t, cmp.TopDrivers)
	assert.Equal(t, cashflow.BaseRent, cmp.TopDrivers[0].Bucket)
}

func TestTopNLimitsDrivers(t *testing.T) {
	base := baseLease()
	results, err := AnalyzeScenariosTopN(context.Background(), base, []Scenario{
		{Name: "everything", Overrides: map[string]interface{}{
			"concessions":   map[string]interface{}{"ti_allowance_psf": 45.0},
			"rent_schedule": []interface{}{map[string]interface{}{"rate_psf": 36.0}},
		}},
	}, 1)
	require.NoError(t, err)
	require.Len(t, results[0].Drivers, 1)
	assert.Equal(t, cashflow.BaseRent, results[0].Drivers[0].Bucket)

	cmp := CompareScenariosTopN(analysis.AnalyzeLease(base), results[0].Analysis, 5)
	assert.Len(t, cmp.TopDrivers, 2)
}
