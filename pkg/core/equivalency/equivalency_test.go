package equivalency

import (
	"testing"
	"time"

	"lease_economics/pkg/core/lease"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tenYearLease() lease.LeaseDescription {
	rate := 0.08
	return lease.LeaseDescription{
		RSF:          20000,
		LeaseType:    lease.FullService,
		Commencement: lease.NewDate(2025, time.April, 1),
		Expiration:   lease.NewDate(2035, time.March, 31),
		RentSchedule: []lease.RentRow{{RatePSF: 42, Escalation: 0.03}},
		DiscountRate: &rate,
	}
}

func TestTIRateRoundTrip(t *testing.T) {
	l := tenYearLease()
	for _, ti := range []float64{0.5, 10, 45.25, 120} {
		rate := TIToRateEquivalentPSFYr(l, ti)
		assert.Greater(t, rate, 0.0)
		assert.InDelta(t, ti, RateToTIEquivalentPSF(l, rate), 1e-6)
	}
	for _, r := range []float64{0.25, 3, 7.5} {
		assert.InDelta(t, r, TIToRateEquivalentPSFYr(l, RateToTIEquivalentPSF(l, r)), 1e-6)
	}
}

func TestTIWorthMoreThanItsUndiscountedSpread(t *testing.T) {
	// $10/SF of TI over ten years at 8% costs more than $1/SF/yr
	rate := TIToRateEquivalentPSFYr(tenYearLease(), 10)
	assert.Greater(t, rate, 1.0)
	assert.Less(t, rate, 2.0)
}

func TestFreeRentRoundTripAtWholeMonths(t *testing.T) {
	l := tenYearLease()
	for months := 1; months <= 18; months++ {
		rate := FreeRentToRateEquivalentPSFYr(l, months)
		require.Greater(t, rate, 0.0)
		assert.Equal(t, months, RateToFreeRentMonths(l, rate), "months %d", months)
	}
}

func TestFreeRentRoundsToNearestMonth(t *testing.T) {
	l := tenYearLease()
	three := FreeRentToRateEquivalentPSFYr(l, 3)
	four := FreeRentToRateEquivalentPSFYr(l, 4)
	assert.Equal(t, 3, RateToFreeRentMonths(l, three+(four-three)*0.4))
	assert.Equal(t, 4, RateToFreeRentMonths(l, three+(four-three)*0.6))
	assert.Equal(t, 0, RateToFreeRentMonths(l, 0))
}

func TestFreeRentSkipsMonthsBeforeRentStart(t *testing.T) {
	l := tenYearLease()
	deferred := l
	deferred.RentStart = lease.NewDate(2025, time.July, 1)
	assert.Greater(t, FreeRentToRateEquivalentPSFYr(deferred, 2), 0.0)
}

func TestTermExtensionIsMonotonic(t *testing.T) {
	l := tenYearLease()
	prev := 0.0
	for _, months := range []int{1, 6, 12, 24, 60} {
		ti := TermExtensionToAdditionalTIPSF(l, months)
		assert.Greater(t, ti, prev, "months %d", months)
		prev = ti
	}
	assert.Equal(t, 0.0, TermExtensionToAdditionalTIPSF(l, 0))
}

func TestExtendKeepsMonthEnd(t *testing.T) {
	ext := Extend(tenYearLease(), 11)
	assert.Equal(t, "2036-02-29", ext.Expiration.String())
	assert.Equal(t, ext.Expiration, ext.RentSchedule[len(ext.RentSchedule)-1].End)
}

func TestInvalidLeaseReturnsZero(t *testing.T) {
	l := tenYearLease()
	l.Expiration = lease.Date{}
	assert.Equal(t, 0.0, TIToRateEquivalentPSFYr(l, 10))
	assert.Equal(t, 0.0, RateToTIEquivalentPSF(l, 1))
	assert.Equal(t, 0.0, FreeRentToRateEquivalentPSFYr(l, 3))
	assert.Equal(t, 0, RateToFreeRentMonths(l, 1))
	assert.Equal(t, 0.0, TermExtensionToAdditionalTIPSF(l, 12))
}

func TestConvert(t *testing.T) {
	l := tenYearLease()
	res, err := Convert(l, "", 10)
	require.NoError(t, err)
	assert.Equal(t, TIToRate, res.Kind)
	assert.InDelta(t, TIToRateEquivalentPSFYr(l, 10), res.Output, 1e-12)
	assert.Equal(t, 0.08, res.DiscountRate)

	res, err = Convert(l, RateToFreeRent, FreeRentToRateEquivalentPSFYr(l, 5))
	require.NoError(t, err)
	assert.Equal(t, 5.0, res.Output)

	_, err = Convert(l, "rate_to_parking", 1)
	assert.Error(t, err)
}
