package lease

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func draftLease() LeaseDescription {
	return LeaseDescription{
		ID:           "L-1",
		RSF:          10000,
		Commencement: NewDate(2025, time.March, 1),
		RentStart:    NewDate(2025, time.February, 1),
		Term:         &LeaseTerm{Years: 5, AbatementExtendsTerm: true},
		RentSchedule: []RentRow{
			{Start: NewDate(2027, time.March, 1), RatePSF: 44},
			{RatePSF: 40, Escalation: 0.03},
		},
		Concessions: Concessions{
			Abatement: CustomAbatement(AbatementPeriod{Start: NewDate(2025, time.March, 1), Months: 3}),
		},
		TransactionCosts: &TransactionCosts{LegalFees: 10000, BrokerageFees: 50000},
		Financing:        &Financing{AmortizeTransactionCosts: true},
	}
}

func TestNormalizeResolvesDefaults(t *testing.T) {
	n := Normalize(draftLease())

	assert.Equal(t, FullService, n.LeaseType)
	// 5 years plus 3 abated months
	assert.Equal(t, "2030-05-31", n.Expiration.String())
	assert.False(t, n.RentStart.IsSet(), "rent start before commencement is dropped")
	assert.Equal(t, 2025, n.Operating.BaseYear)

	require.Len(t, n.RentSchedule, 2)
	assert.Equal(t, 40.0, n.RentSchedule[0].RatePSF)
	assert.Equal(t, "2025-03-01", n.RentSchedule[0].Start.String())
	assert.Equal(t, "2027-02-28", n.RentSchedule[0].End.String())
	assert.Equal(t, "2030-05-31", n.RentSchedule[1].End.String())

	p := n.Concessions.Abatement.Periods[0]
	assert.Equal(t, "2025-05-31", p.End.String())
	assert.Equal(t, BaseOnly, p.AppliesTo)

	assert.Equal(t, 60000.0, n.TransactionCosts.Total)
	assert.Equal(t, StraightLine, n.Financing.Method)
	assert.Equal(t, 63, n.Financing.TermMonths)
	assert.Equal(t, DefaultDiscountRate, n.Rate())
}

func TestNormalizeIsIdempotentAndPure(t *testing.T) {
	raw := draftLease()
	before := draftLease()

	once := Normalize(raw)
	twice := Normalize(once)
	assert.Equal(t, once, twice)
	assert.Equal(t, before, raw)
}

func TestNormalizeClampsBadRSF(t *testing.T) {
	l := draftLease()
	l.RSF = -50
	assert.Equal(t, 0.0, Normalize(l).RSF)
}

func TestCloneSharesNothing(t *testing.T) {
	l := draftLease()
	rate := 0.07
	l.DiscountRate = &rate
	l.Options = []LeaseOption{{Type: OptionTermination, InterestRate: &rate}}

	c := l.Clone()
	c.RentSchedule[0].RatePSF = 1
	c.Concessions.Abatement.Periods[0].Months = 9
	*c.DiscountRate = 0.5
	*c.Options[0].InterestRate = 0.5
	c.TransactionCosts.Total = 1

	assert.Equal(t, 44.0, l.RentSchedule[0].RatePSF)
	assert.Equal(t, 3, l.Concessions.Abatement.Periods[0].Months)
	assert.Equal(t, 0.07, *l.DiscountRate)
	assert.Equal(t, 0.07, *l.Options[0].InterestRate)
	assert.Equal(t, 0.0, l.TransactionCosts.Total)
}

func TestAbatementTotalMonths(t *testing.T) {
	var none *AbatementVariant
	assert.Equal(t, 0, none.TotalMonths())
	assert.Equal(t, 6, AtCommencement(6, BaseOnly).TotalMonths())
	assert.Equal(t, 0, AtCommencement(-2, BaseOnly).TotalMonths())
	assert.Equal(t, 5, CustomAbatement(
		AbatementPeriod{Months: 2},
		AbatementPeriod{Start: NewDate(2026, time.November, 1), End: NewDate(2027, time.January, 31)},
	).TotalMonths())
}

func TestDateJSON(t *testing.T) {
	var row RentRow
	require.NoError(t, json.Unmarshal([]byte(`{"start": "2025-01-15", "end": "2026-01-14T00:00:00Z", "rate_psf": 30}`), &row))
	assert.Equal(t, NewDate(2025, time.January, 15), row.Start)
	assert.Equal(t, NewDate(2026, time.January, 14), row.End)

	out, err := json.Marshal(RentRow{Start: NewDate(2025, time.January, 15)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"start": "2025-01-15", "end": null, "rate_psf": 0}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"start": "15/01/2025"}`), &row))
	assert.Error(t, json.Unmarshal([]byte(`{"start": 20250115}`), &row))
}

func TestParseLenientInputs(t *testing.T) {
	l, err := Parse([]byte(`{
		# draft from the broker
		name: Harbor Point
		rsf: 7500
		commencement: "2026-01-01"
		notes: "# Summary\nTenant-favorable deal.\n## Risks\nCo-tenancy."
	}`))
	require.NoError(t, err)
	assert.Equal(t, "Harbor Point", l.Name)
	assert.Equal(t, 7500.0, l.RSF)
	_, err = uuid.Parse(l.ID)
	assert.NoError(t, err, "missing ids are generated")
	assert.Equal(t, []string{"Summary", "Risks"}, l.NoteSections())

	l, err = Parse([]byte(`{"id": "KEEP", "rsf": 100,`))
	require.NoError(t, err)
	assert.Equal(t, "KEEP", l.ID)

	_, err = Parse([]byte(`{"rsf": "many"}`))
	assert.Error(t, err)
}

func TestApplyOverrides(t *testing.T) {
	base := draftLease()
	base.Concessions.TIAllowancePSF = 40

	out, err := ApplyOverrides(base, map[string]interface{}{
		"name":        "Counter",
		"concessions": map[string]interface{}{"ti_actual_cost_psf": 60.0},
		"rent_schedule": []interface{}{
			map[string]interface{}{"rate_psf": 38.0},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Counter", out.Name)
	assert.Equal(t, 40.0, out.Concessions.TIAllowancePSF, "objects merge")
	assert.Equal(t, 60.0, out.Concessions.TIActualCostPSF)
	require.Len(t, out.RentSchedule, 1, "arrays replace")
	assert.Equal(t, 38.0, out.RentSchedule[0].RatePSF)
	require.NotNil(t, out.Concessions.Abatement)

	assert.Equal(t, draftLease().RentSchedule, base.RentSchedule)

	same, err := ApplyOverrides(base, nil)
	require.NoError(t, err)
	assert.Equal(t, base, same)

	_, err = ApplyOverrides(base, map[string]interface{}{"commencement": "not a date"})
	assert.Error(t, err)
}
