// Package success estimates the probability that a negotiation attempt
// lands at all, combining tenant strength, market timing and the composite
// opportunity score through a sigmoid.
package success

import (
	"math"

	"github.com/leaselens/leaselens/internal/domain/negotiation"
)

// OpportunityTermScale weights the raw 0-100 opportunity score inside the
// linear combination. The production calibration feeds the score in
// unscaled, which saturates the sigmoid for any nontrivial opportunity;
// that behavior is locked in by tests. A recalibrated deployment can divide
// by 100 here without touching the rest of the pipeline.
const OpportunityTermScale = 0.25

// Floor and Ceiling bound the returned probability: never certain either
// way.
const (
	Floor   = 0.05
	Ceiling = 0.95
)

// TenantStrength scores the tenant's negotiating position in [0,1] from
// income-to-rent ratio, credit standing and employment stability.
func TenantStrength(t negotiation.TenantProfile, p negotiation.PropertyData) float64 {
	strength := 0.0

	if annualRent := p.CurrentRent * 12; annualRent > 0 {
		switch ratio := t.AnnualIncome / annualRent; {
		case ratio >= 3.0:
			strength += 0.4
		case ratio >= 2.5:
			strength += 0.3
		case ratio >= 2.0:
			strength += 0.2
		}
	}

	switch {
	case t.CreditScore >= 750:
		strength += 0.3
	case t.CreditScore >= 700:
		strength += 0.2
	case t.CreditScore >= 650:
		strength += 0.1
	}

	strength += t.EmploymentStability * 0.3

	return math.Max(0, math.Min(1, strength))
}

// Predict returns the negotiation success probability in [Floor, Ceiling].
// opportunityScore is the 0-100 composite score for the same property.
func Predict(p negotiation.PropertyData, b negotiation.BehavioralData, t negotiation.TenantProfile, opportunityScore float64) float64 {
	tenantStrength := TenantStrength(t, p)

	linear := 0.30*tenantStrength +
		OpportunityTermScale*opportunityScore +
		0.20*math.Min(1, opportunityScore/100) +
		0.15*math.Min(1, float64(p.VacancyDays)/60) +
		0.10*b.AcceptanceRate

	prob := sigmoid(5 * (linear - 0.5))

	return math.Max(Floor, math.Min(Ceiling, prob))
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
