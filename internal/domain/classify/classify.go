// Package classify maps the combined opportunity/success score to a
// discrete tier, and data depth to a confidence label.
package classify

import (
	"fmt"

	"github.com/leaselens/leaselens/internal/domain/negotiation"
)

// Thresholds holds the tier and confidence cut points. Tiers partition
// [0,100] with no overlap and no gap: a combined score of exactly HotDeal
// is a hot deal, exactly StrongOpportunity is strong.
type Thresholds struct {
	HotDeal            float64 `yaml:"hot_deal" json:"hot_deal"`
	StrongOpportunity  float64 `yaml:"strong_opportunity" json:"strong_opportunity"`
	ConfidenceHigh     float64 `yaml:"confidence_high" json:"confidence_high"`
	ConfidenceModerate float64 `yaml:"confidence_moderate" json:"confidence_moderate"`
}

// DefaultThresholds returns the production cut points.
func DefaultThresholds() Thresholds {
	return Thresholds{
		HotDeal:            90,
		StrongOpportunity:  70,
		ConfidenceHigh:     85,
		ConfidenceModerate: 65,
	}
}

// Validate checks the cut points are ordered and inside [0,100].
func (t Thresholds) Validate() error {
	if t.HotDeal <= t.StrongOpportunity {
		return fmt.Errorf("hot_deal threshold %.1f must exceed strong_opportunity %.1f", t.HotDeal, t.StrongOpportunity)
	}
	if t.ConfidenceHigh <= t.ConfidenceModerate {
		return fmt.Errorf("confidence_high threshold %.1f must exceed confidence_moderate %.1f", t.ConfidenceHigh, t.ConfidenceModerate)
	}
	for name, v := range map[string]float64{
		"hot_deal":            t.HotDeal,
		"strong_opportunity":  t.StrongOpportunity,
		"confidence_high":     t.ConfidenceHigh,
		"confidence_moderate": t.ConfidenceModerate,
	} {
		if v < 0 || v > 100 {
			return fmt.Errorf("threshold %s outside [0,100]: %.1f", name, v)
		}
	}
	return nil
}

// CombinedScore averages the opportunity score with the success probability
// expressed on the same 0-100 scale.
func CombinedScore(opportunityScore, successProbability float64) float64 {
	return (opportunityScore + successProbability*100) / 2
}

// TierFor buckets a combined score.
func (t Thresholds) TierFor(combined float64) negotiation.Tier {
	switch {
	case combined >= t.HotDeal:
		return negotiation.TierHotDeal
	case combined >= t.StrongOpportunity:
		return negotiation.TierStrongOpportunity
	default:
		return negotiation.TierWorthTrying
	}
}

// ConfidenceScore measures data support for a result: negotiation history
// depth, field completeness, and whether the core vacancy/pricing signals
// and any market context were present at all.
func ConfidenceScore(p negotiation.PropertyData, m negotiation.MarketData, b negotiation.BehavioralData, dataCompleteness float64) float64 {
	score := 0.0

	switch n := len(b.PastNegotiations); {
	case n >= 5:
		score += 30
	case n >= 2:
		score += 20
	case n >= 1:
		score += 10
	}

	score += dataCompleteness * 40

	if p.VacancyDays > 0 && len(p.PriceChanges) > 0 {
		score += 20
	}

	if m.Available() {
		score += 10
	}

	return score
}

// ConfidenceFor buckets a confidence score.
func (t Thresholds) ConfidenceFor(confidenceScore float64) negotiation.Confidence {
	switch {
	case confidenceScore >= t.ConfidenceHigh:
		return negotiation.ConfidenceHigh
	case confidenceScore >= t.ConfidenceModerate:
		return negotiation.ConfidenceModerate
	default:
		return negotiation.ConfidenceExperimental
	}
}
