// Package concession predicts which non-rent incentives a landlord is
// likely to grant, with probabilities and dollar values scaled by the
// opportunity score and the landlord's own preferences.
package concession

import (
	"sort"

	"github.com/leaselens/leaselens/internal/domain/negotiation"
)

// Profile prices one concession archetype: a base grant probability plus a
// value rule expressed as a rent fraction and/or a flat dollar amount.
type Profile struct {
	BaseProbability float64 `yaml:"base_probability" json:"base_probability"`
	RentFraction    float64 `yaml:"rent_fraction" json:"rent_fraction"`
	FlatAmount      float64 `yaml:"flat_amount" json:"flat_amount"`
}

// Value computes the concession's dollar value at the given rent.
func (p Profile) Value(rent float64) float64 {
	return rent*p.RentFraction + p.FlatAmount
}

// Table maps every concession kind to its pricing profile.
type Table map[negotiation.ConcessionKind]Profile

// DefaultTable returns the calibrated base probabilities and value rules.
func DefaultTable() Table {
	return Table{
		negotiation.ConcessionWaivedFees:     {BaseProbability: 0.85, RentFraction: 0.08},
		negotiation.ConcessionFirstMonthFree: {BaseProbability: 0.72, RentFraction: 1.00},
		negotiation.ConcessionReducedDeposit: {BaseProbability: 0.68, RentFraction: 0.50},
		negotiation.ConcessionParkingStorage: {BaseProbability: 0.61, FlatAmount: 150},
		negotiation.ConcessionEarlyMoveIn:    {BaseProbability: 0.58, RentFraction: 0.10},
	}
}

// ProbabilityCap is the ceiling for any adjusted concession probability.
const ProbabilityCap = 0.95

// PreferenceBoost multiplies the probability when the concession kind
// appears in the landlord's preferred list.
const PreferenceBoost = 1.2

// Predictor derives concession predictions from a pricing table. Holds
// configuration only; safe for concurrent use.
type Predictor struct {
	table Table
}

// NewPredictor returns a predictor over the given table.
func NewPredictor(table Table) *Predictor {
	return &Predictor{table: table}
}

// Predict returns one prediction per concession kind, sorted by descending
// impact score (probability × value ÷ rent). opportunityScore is the 0-100
// composite score for the same property.
func (pr *Predictor) Predict(p negotiation.PropertyData, b negotiation.BehavioralData, opportunityScore float64) []negotiation.ConcessionPrediction {
	preferred := make(map[negotiation.ConcessionKind]bool, len(b.PreferredConcessions))
	for _, k := range b.PreferredConcessions {
		preferred[k] = true
	}

	out := make([]negotiation.ConcessionPrediction, 0, len(pr.table))
	for _, kind := range negotiation.ConcessionKinds() {
		profile, ok := pr.table[kind]
		if !ok {
			continue
		}

		prob := profile.BaseProbability * (0.7 + 0.6*opportunityScore/100)
		if prob > ProbabilityCap {
			prob = ProbabilityCap
		}
		if preferred[kind] {
			prob *= PreferenceBoost
			if prob > ProbabilityCap {
				prob = ProbabilityCap
			}
		}

		value := profile.Value(p.CurrentRent)
		impact := 0.0
		if p.CurrentRent > 0 {
			impact = prob * value / p.CurrentRent
		}

		out = append(out, negotiation.ConcessionPrediction{
			Kind:        kind,
			Probability: prob,
			Value:       value,
			Impact:      impact,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Impact > out[j].Impact
	})
	return out
}
