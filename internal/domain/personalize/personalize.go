// Package personalize adjusts a batch of opportunity results for one
// tenant's fit and re-sorts them. Only the opportunity score used for
// ranking changes; success rate, concessions and savings stay exactly as
// the unadjusted evaluation produced them.
package personalize

import (
	"sort"

	"github.com/leaselens/leaselens/internal/domain/negotiation"
	"github.com/leaselens/leaselens/internal/domain/normalize"
)

// MatchFactor scores how well an opportunity fits this tenant, in [0,1].
// Confident results reward any tenant; shakier results lean on the tenant's
// own risk tolerance.
func MatchFactor(t negotiation.TenantProfile, confidence negotiation.Confidence) float64 {
	match := 0.5 + t.BudgetFlexibility*0.3

	switch confidence {
	case negotiation.ConfidenceHigh:
		match += 0.2
	case negotiation.ConfidenceModerate:
		match += t.RiskTolerance * 0.2
	case negotiation.ConfidenceExperimental:
		match += t.RiskTolerance * 0.1
	}

	return normalize.Clamp01(match)
}

// Rank returns a new slice with each result's opportunity score adjusted by
// tenant fit and the batch re-sorted by descending adjusted score. The
// input slice and its elements are not modified.
func Rank(t negotiation.TenantProfile, results []negotiation.OpportunityResult) []negotiation.OpportunityResult {
	out := make([]negotiation.OpportunityResult, len(results))
	for i, r := range results {
		match := MatchFactor(t, r.Confidence)
		r.OpportunityScore = r.OpportunityScore * (0.7 + 0.3*match)
		out[i] = r
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OpportunityScore > out[j].OpportunityScore
	})
	return out
}
