// Package normalize clamps raw caller-supplied signals into the bounded
// ranges the scorers assume. Malformed numerics (NaN, Inf, negatives where
// only positives make sense) are coerced to the nearest valid boundary
// rather than rejected, so a dirty upstream feed can never abort a batch.
package normalize

import (
	"math"
	"time"

	"github.com/leaselens/leaselens/internal/domain/negotiation"
)

// DefaultDecisionAuthority is the conservative assumption when the
// landlord's decision authority is unknown: half the flexibility signal
// survives.
const DefaultDecisionAuthority = 0.5

// DefaultSeasonalMultiplier applies when market data has no entry for the
// evaluation month.
const DefaultSeasonalMultiplier = 1.0

// DefaultLeaseTermMonths substitutes for an unset lease term.
const DefaultLeaseTermMonths = 12

// Clamp bounds v to [lo, hi], coercing NaN to lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

// Clamp01 bounds a fraction to [0,1].
func Clamp01(v float64) float64 { return Clamp(v, 0, 1) }

// ClampScore bounds a sub-score or composite score to [0,100].
func ClampScore(v float64) float64 { return Clamp(v, 0, 100) }

// ClampProbability bounds a negotiation probability to the engine's
// documented ceiling of 0.95 (and the success-rate floor of 0).
func ClampProbability(v float64) float64 { return Clamp(v, 0, 0.95) }

// NonNegative coerces NaN, Inf and negatives to 0.
func NonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// Property returns a cleaned copy of p with every numeric signal inside its
// semantic range. The input is never mutated.
func Property(p negotiation.PropertyData) negotiation.PropertyData {
	out := p
	out.CurrentRent = NonNegative(p.CurrentRent)
	if out.VacancyDays < 0 {
		out.VacancyDays = 0
	}
	if out.RelistingCount < 0 {
		out.RelistingCount = 0
	}
	out.Occupancy = Clamp01(p.Occupancy)
	out.DebtRatio = Clamp01(p.DebtRatio)

	if len(p.PriceChanges) > 0 {
		changes := make([]float64, 0, len(p.PriceChanges))
		for _, c := range p.PriceChanges {
			if math.IsNaN(c) || math.IsInf(c, 0) {
				c = 0
			}
			changes = append(changes, c)
		}
		out.PriceChanges = changes
	}

	if len(p.QuarterTargetPressure) > 0 {
		pressure := make(map[int]float64, len(p.QuarterTargetPressure))
		for q, frac := range p.QuarterTargetPressure {
			if q < 1 || q > 4 {
				continue
			}
			pressure[q] = Clamp01(frac)
		}
		out.QuarterTargetPressure = pressure
	}
	return out
}

// Market returns a cleaned copy of m.
func Market(m negotiation.MarketData) negotiation.MarketData {
	out := m
	if out.NewConstructionUnits < 0 {
		out.NewConstructionUnits = 0
	}
	if len(m.SeasonalMultipliers) > 0 {
		mult := make(map[time.Month]float64, len(m.SeasonalMultipliers))
		for month, v := range m.SeasonalMultipliers {
			mult[month] = Clamp(v, 0, 3) // multipliers beyond 3x are treated as feed noise
		}
		out.SeasonalMultipliers = mult
	}
	if len(m.CompetitorVacancyRates) > 0 {
		rates := make([]float64, 0, len(m.CompetitorVacancyRates))
		for _, r := range m.CompetitorVacancyRates {
			rates = append(rates, Clamp01(r))
		}
		out.CompetitorVacancyRates = rates
	}
	return out
}

// SeasonalMultiplier looks up the month multiplier for m, falling back to
// DefaultSeasonalMultiplier when absent.
func SeasonalMultiplier(m negotiation.MarketData, month time.Month) float64 {
	if v, ok := m.SeasonalMultipliers[month]; ok {
		return v
	}
	return DefaultSeasonalMultiplier
}

// Behavioral returns a cleaned copy of b. Unknown decision authority (zero
// or negative) becomes the conservative default.
func Behavioral(b negotiation.BehavioralData) negotiation.BehavioralData {
	out := b
	out.AcceptanceRate = Clamp01(b.AcceptanceRate)
	out.AvgResponseHours = NonNegative(b.AvgResponseHours)
	if b.DecisionAuthority <= 0 || math.IsNaN(b.DecisionAuthority) {
		out.DecisionAuthority = DefaultDecisionAuthority
	} else {
		out.DecisionAuthority = Clamp01(b.DecisionAuthority)
	}
	return out
}

// Tenant returns a cleaned copy of t.
func Tenant(t negotiation.TenantProfile) negotiation.TenantProfile {
	out := t
	out.AnnualIncome = NonNegative(t.AnnualIncome)
	out.CreditScore = Clamp(t.CreditScore, 0, 850)
	out.EmploymentStability = Clamp01(t.EmploymentStability)
	out.BudgetFlexibility = Clamp01(t.BudgetFlexibility)
	out.RiskTolerance = Clamp01(t.RiskTolerance)
	return out
}

// LeaseTerm substitutes the default term for an unset (zero) value. Negative
// terms are left alone so the savings calculator can reject them explicitly.
func LeaseTerm(months int) int {
	if months == 0 {
		return DefaultLeaseTermMonths
	}
	return months
}

// Completeness measures how much of the signal surface was actually
// populated, as a fraction of the eight inputs the formulas lean on
// hardest. Feeds the confidence classifier.
func Completeness(p negotiation.PropertyData, m negotiation.MarketData, b negotiation.BehavioralData) float64 {
	present := 0
	if p.CurrentRent > 0 {
		present++
	}
	if p.VacancyDays > 0 {
		present++
	}
	if len(p.PriceChanges) > 0 {
		present++
	}
	if p.Occupancy > 0 {
		present++
	}
	if p.DebtRatio > 0 {
		present++
	}
	if b.AcceptanceRate > 0 {
		present++
	}
	if b.AvgResponseHours > 0 {
		present++
	}
	if m.Available() {
		present++
	}
	return float64(present) / 8.0
}
