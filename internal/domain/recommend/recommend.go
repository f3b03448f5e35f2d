// Package recommend renders an OpportunityResult into a short, stable
// explanation string. Same input, same output; no clocks, no randomness.
package recommend

import (
	"sort"
	"strings"

	"github.com/leaselens/leaselens/internal/domain/negotiation"
)

// TimeSensitiveScore is the opportunity score above which the text urges
// the tenant to move quickly.
const TimeSensitiveScore = 80

// For generates the recommendation text for one result.
func For(r negotiation.OpportunityResult) string {
	var b strings.Builder

	switch r.Tier {
	case negotiation.TierHotDeal:
		b.WriteString("Hot deal: conditions strongly favor negotiating right now.")
	case negotiation.TierStrongOpportunity:
		b.WriteString("Strong opportunity: the landlord has clear reasons to make a deal.")
	default:
		b.WriteString("Worth trying: leverage is limited, but a polite ask costs nothing.")
	}

	if top := topByProbability(r.Concessions, 2); len(top) > 0 {
		b.WriteString(" Lead with ")
		b.WriteString(displayName(top[0].Kind))
		if len(top) > 1 {
			b.WriteString(", then ")
			b.WriteString(displayName(top[1].Kind))
		}
		b.WriteString(".")
	}

	if r.OpportunityScore > TimeSensitiveScore {
		b.WriteString(" Conditions like these rarely hold; act within days, not weeks.")
	}

	if r.Confidence == negotiation.ConfidenceExperimental {
		b.WriteString(" Limited history backs this read, so treat it as a starting point rather than a promise.")
	}

	return b.String()
}

// topByProbability returns the n concessions most likely to be granted.
func topByProbability(concessions []negotiation.ConcessionPrediction, n int) []negotiation.ConcessionPrediction {
	sorted := make([]negotiation.ConcessionPrediction, len(concessions))
	copy(sorted, concessions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Probability > sorted[j].Probability
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// displayName turns "first_month_free" into "First Month Free".
func displayName(k negotiation.ConcessionKind) string {
	words := strings.Split(string(k), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
