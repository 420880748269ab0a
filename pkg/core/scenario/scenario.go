// Package scenario reruns a lease under named field overrides and explains the
// difference between two results by cashflow bucket.
package scenario

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"

	"lease_economics/pkg/core/analysis"
	"lease_economics/pkg/core/cashflow"
	"lease_economics/pkg/core/lease"

	"golang.org/x/sync/errgroup"
)

// DefaultTopN is the number of drivers reported when the caller does not say.
const DefaultTopN = 3

// driverEpsilon treats float noise between identical cashflows as no change.
const driverEpsilon = 1e-9

// Scenario is a name plus a partial lease in JSON field names.
type Scenario struct {
	Name      string                 `json:"name"`
	Overrides map[string]interface{} `json:"overrides"`
}

// Result is one evaluated scenario.
type Result struct {
	Name     string                 `json:"name"`
	Lease    lease.LeaseDescription `json:"lease"`
	Analysis analysis.LeaseAnalysis `json:"analysis"`
	Drivers  []Driver               `json:"drivers"` // against the base lease
}

// Driver is the signed (scenario - base) change of one bucket summed over all periods.
type Driver struct {
	Bucket cashflow.Bucket `json:"bucket"`
	Delta  float64         `json:"delta"`
}

// Comparison summarizes how economics B differs from economics A.
type Comparison struct {
	TopDrivers         []Driver `json:"top_drivers"`
	NPVDelta           float64  `json:"npv_delta"`
	TotalCashflowDelta float64  `json:"total_cashflow_delta"`
}

// AnalyzeScenarios applies each scenario's overrides to base and analyzes the result.
// Scenarios run in parallel; results keep input order. base is never modified.
func AnalyzeScenarios(ctx context.Context, base lease.LeaseDescription, scenarios []Scenario) ([]Result, error) {
	return AnalyzeScenariosTopN(ctx, base, scenarios, DefaultTopN)
}

// AnalyzeScenariosTopN is AnalyzeScenarios reporting topN drivers per scenario.
func AnalyzeScenariosTopN(ctx context.Context, base lease.LeaseDescription, scenarios []Scenario, topN int) ([]Result, error) {
	baseLines := analysis.BuildAnnualCashflow(base)
	results := make([]Result, len(scenarios))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, sc := range scenarios {
		i, sc := i, sc
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			l, err := lease.ApplyOverrides(base, sc.Overrides)
			if err != nil {
				return fmt.Errorf("scenario %q: %w", sc.Name, err)
			}
			res := analysis.AnalyzeLease(l)
			results[i] = Result{
				Name:     sc.Name,
				Lease:    l,
				Analysis: res,
				Drivers:  ComputeScenarioDrivers(baseLines, res.Cashflow, topN),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// ComputeScenarioDrivers sums Σ(scenario - base) per bucket and returns the topN buckets
// by absolute delta. Zero deltas are left out; ties keep bucket declaration order.
// topN <= 0 means DefaultTopN.
func ComputeScenarioDrivers(baseLines, scenarioLines []cashflow.Line, topN int) []Driver {
	if topN <= 0 {
		topN = DefaultTopN
	}
	baseTotal := cashflow.Sum(baseLines)
	scenarioTotal := cashflow.Sum(scenarioLines)

	drivers := make([]Driver, 0, len(cashflow.Buckets))
	for _, b := range cashflow.Buckets {
		delta := scenarioTotal.Value(b) - baseTotal.Value(b)
		if math.Abs(delta) < driverEpsilon || math.IsNaN(delta) {
			continue
		}
		drivers = append(drivers, Driver{Bucket: b, Delta: delta})
	}
	sort.SliceStable(drivers, func(i, j int) bool {
		return math.Abs(drivers[i].Delta) > math.Abs(drivers[j].Delta)
	})
	if len(drivers) > topN {
		drivers = drivers[:topN]
	}
	return drivers
}

// CompareScenarios reports what changed from a to b.
func CompareScenarios(a, b analysis.LeaseAnalysis) Comparison {
	return CompareScenariosTopN(a, b, DefaultTopN)
}

// CompareScenariosTopN is CompareScenarios keeping topN drivers.
func CompareScenariosTopN(a, b analysis.LeaseAnalysis, topN int) Comparison {
	return Comparison{
		TopDrivers:         ComputeScenarioDrivers(a.Cashflow, b.Cashflow, topN),
		NPVDelta:           b.Metrics.NPV - a.Metrics.NPV,
		TotalCashflowDelta: b.Totals.NetCashFlow - a.Totals.NetCashFlow,
	}
}
