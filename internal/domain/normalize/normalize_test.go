package normalize

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/leaselens/leaselens/internal/domain/negotiation"
)

func TestClamp_Boundaries(t *testing.T) {
	testCases := []struct {
		in       float64
		lo, hi   float64
		expected float64
	}{
		{-1, 0, 1, 0},
		{0.5, 0, 1, 0.5},
		{2, 0, 1, 1},
		{150, 0, 100, 100},
		{math.NaN(), 0, 1, 0},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, Clamp(tc.in, tc.lo, tc.hi))
	}
}

func TestNonNegative_CoercesMalformed(t *testing.T) {
	assert.Equal(t, 0.0, NonNegative(-250))
	assert.Equal(t, 0.0, NonNegative(math.NaN()))
	assert.Equal(t, 0.0, NonNegative(math.Inf(1)))
	assert.Equal(t, 1200.0, NonNegative(1200))
}

func TestProperty_ClampsWithoutMutatingInput(t *testing.T) {
	in := negotiation.PropertyData{
		ID:             "unit-1",
		CurrentRent:    -2000,
		VacancyDays:    -5,
		RelistingCount: -1,
		Occupancy:      1.4,
		DebtRatio:      -0.2,
		PriceChanges:   []float64{-50, math.NaN(), 25},
		QuarterTargetPressure: map[int]float64{
			2: 1.8,
			7: 0.5, // invalid quarter, dropped
		},
	}

	out := Property(in)

	assert.Equal(t, 0.0, out.CurrentRent)
	assert.Equal(t, 0, out.VacancyDays)
	assert.Equal(t, 0, out.RelistingCount)
	assert.Equal(t, 1.0, out.Occupancy)
	assert.Equal(t, 0.0, out.DebtRatio)
	assert.Equal(t, []float64{-50, 0, 25}, out.PriceChanges)
	assert.Equal(t, map[int]float64{2: 1.0}, out.QuarterTargetPressure)

	// Input untouched.
	assert.Equal(t, -2000.0, in.CurrentRent)
	assert.True(t, math.IsNaN(in.PriceChanges[1]))
	assert.Equal(t, 1.8, in.QuarterTargetPressure[2])
}

func TestBehavioral_DecisionAuthorityDefault(t *testing.T) {
	out := Behavioral(negotiation.BehavioralData{AcceptanceRate: 0.7})
	assert.Equal(t, DefaultDecisionAuthority, out.DecisionAuthority)

	out = Behavioral(negotiation.BehavioralData{AcceptanceRate: 0.7, DecisionAuthority: 0.9})
	assert.Equal(t, 0.9, out.DecisionAuthority)

	out = Behavioral(negotiation.BehavioralData{DecisionAuthority: 3})
	assert.Equal(t, 1.0, out.DecisionAuthority)
}

func TestSeasonalMultiplier_DefaultsToOne(t *testing.T) {
	m := negotiation.MarketData{SeasonalMultipliers: map[time.Month]float64{time.December: 1.2}}

	assert.Equal(t, 1.2, SeasonalMultiplier(m, time.December))
	assert.Equal(t, DefaultSeasonalMultiplier, SeasonalMultiplier(m, time.July))
	assert.Equal(t, DefaultSeasonalMultiplier, SeasonalMultiplier(negotiation.MarketData{}, time.July))
}

func TestLeaseTerm_Defaulting(t *testing.T) {
	assert.Equal(t, DefaultLeaseTermMonths, LeaseTerm(0))
	assert.Equal(t, 6, LeaseTerm(6))
	// Negatives pass through so the savings calculator rejects them loudly.
	assert.Equal(t, -3, LeaseTerm(-3))
}

func TestCompleteness_CountsPopulatedSignals(t *testing.T) {
	empty := Completeness(negotiation.PropertyData{}, negotiation.MarketData{}, negotiation.BehavioralData{})
	assert.Equal(t, 0.0, empty)

	full := Completeness(
		negotiation.PropertyData{
			CurrentRent:  2350,
			VacancyDays:  47,
			PriceChanges: []float64{-50},
			Occupancy:    0.82,
			DebtRatio:    0.65,
		},
		negotiation.MarketData{Location: "portland-or"},
		negotiation.BehavioralData{AcceptanceRate: 0.72, AvgResponseHours: 6},
	)
	assert.Equal(t, 1.0, full)

	half := Completeness(
		negotiation.PropertyData{CurrentRent: 2350, VacancyDays: 47, Occupancy: 0.9, DebtRatio: 0.1},
		negotiation.MarketData{},
		negotiation.BehavioralData{},
	)
	assert.Equal(t, 0.5, half)
}
