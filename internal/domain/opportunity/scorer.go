// Package opportunity computes the 0-100 composite negotiation-opportunity
// score from six independently bounded sub-scores. Calendar-dependent terms
// read the caller-supplied evaluation time, never the ambient clock, so a
// pinned clock makes the scorer fully deterministic.
package opportunity

import (
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/leaselens/leaselens/internal/domain/negotiation"
	"github.com/leaselens/leaselens/internal/domain/normalize"
)

// Breakdown carries the composite score plus each sub-score before
// weighting, for explainability surfaces.
type Breakdown struct {
	Score float64 `json:"score"`
	Parts struct {
		VacancyPressure     float64 `json:"vacancy_pressure"`
		SeasonalLeverage    float64 `json:"seasonal_leverage"`
		FinancialStress     float64 `json:"financial_stress"`
		MarketCompetition   float64 `json:"market_competition"`
		LandlordFlexibility float64 `json:"landlord_flexibility"`
		TimingAdvantage     float64 `json:"timing_advantage"`
	} `json:"parts"`
}

// urgencyKeywords are matched case-insensitively against listing signals.
// Each distinct match adds 10 points of timing advantage.
var urgencyKeywords = []string{"must rent", "immediate", "flexible", "motivated"}

// monthBaseLeverage maps calendar month to baseline renter leverage before
// the market multiplier. Winter peaks, summer troughs, shoulders ramp.
var monthBaseLeverage = map[time.Month]float64{
	time.January:   88,
	time.February:  85,
	time.March:     65,
	time.April:     50,
	time.May:       35,
	time.June:      20,
	time.July:      15,
	time.August:    18,
	time.September: 40,
	time.October:   55,
	time.November:  75,
	time.December:  90,
}

// Scorer combines the six sub-scores under a fixed weight table. Holds
// configuration only; safe for concurrent use.
type Scorer struct {
	weights FactorWeights
}

// NewScorer returns a scorer using the given weight table.
func NewScorer(weights FactorWeights) *Scorer {
	return &Scorer{weights: weights}
}

// Weights returns the scorer's weight table.
func (s *Scorer) Weights() FactorWeights { return s.weights }

// Score computes the composite opportunity score for one property at the
// given evaluation time. Inputs are assumed normalized (see package
// normalize); the result is clamped to [0,100].
func (s *Scorer) Score(p negotiation.PropertyData, m negotiation.MarketData, b negotiation.BehavioralData, now time.Time) Breakdown {
	var bd Breakdown
	bd.Parts.VacancyPressure = vacancyPressure(p)
	bd.Parts.SeasonalLeverage = seasonalLeverage(m, now)
	bd.Parts.FinancialStress = financialStress(p, now)
	bd.Parts.MarketCompetition = marketCompetition(m)
	bd.Parts.LandlordFlexibility = landlordFlexibility(b)
	bd.Parts.TimingAdvantage = timingAdvantage(p, m, now)

	bd.Score = normalize.ClampScore(
		bd.Parts.VacancyPressure*s.weights.VacancyPressure +
			bd.Parts.SeasonalLeverage*s.weights.SeasonalLeverage +
			bd.Parts.FinancialStress*s.weights.FinancialStress +
			bd.Parts.MarketCompetition*s.weights.MarketCompetition +
			bd.Parts.LandlordFlexibility*s.weights.LandlordFlexibility +
			bd.Parts.TimingAdvantage*s.weights.TimingAdvantage)

	log.Debug().
		Str("property_id", p.ID).
		Float64("vacancy_pressure", bd.Parts.VacancyPressure).
		Float64("seasonal_leverage", bd.Parts.SeasonalLeverage).
		Float64("financial_stress", bd.Parts.FinancialStress).
		Float64("market_competition", bd.Parts.MarketCompetition).
		Float64("landlord_flexibility", bd.Parts.LandlordFlexibility).
		Float64("timing_advantage", bd.Parts.TimingAdvantage).
		Float64("score", bd.Score).
		Msg("Opportunity score computed")

	return bd
}

// vacancyPressure scores how long and how aggressively the unit has failed
// to lease.
func vacancyPressure(p negotiation.PropertyData) float64 {
	score := 0.0

	switch {
	case p.VacancyDays > 45:
		score += 40
	case p.VacancyDays > 30:
		score += 25
	case p.VacancyDays > 15:
		score += 10
	}

	relist := float64(p.RelistingCount) * 10
	if relist > 30 {
		relist = 30
	}
	score += relist

	// Any price cut within the last three changes signals a softening ask.
	changes := p.PriceChanges
	if len(changes) > 3 {
		changes = changes[len(changes)-3:]
	}
	for _, c := range changes {
		if c < 0 {
			score += 20
			break
		}
	}

	switch {
	case p.Occupancy > 0 && p.Occupancy < 0.85:
		score += 15
	case p.Occupancy > 0 && p.Occupancy < 0.90:
		score += 8
	}

	return normalize.ClampScore(score)
}

// seasonalLeverage scores calendar-driven renter bargaining power, scaled
// by the market's local multiplier.
func seasonalLeverage(m negotiation.MarketData, now time.Time) float64 {
	base := monthBaseLeverage[now.Month()]
	return normalize.ClampScore(base * normalize.SeasonalMultiplier(m, now.Month()))
}

// financialStress scores the owner's incentive to close quickly.
func financialStress(p negotiation.PropertyData, now time.Time) float64 {
	score := 0.0

	switch {
	case p.DebtRatio > 0.8:
		score += 40
	case p.DebtRatio > 0.6:
		score += 25
	case p.DebtRatio > 0.4:
		score += 10
	}

	quarter := (int(now.Month())-1)/3 + 1
	score += p.QuarterTargetPressure[quarter] * 30

	// Owners chase leasing targets hardest in the closing month of a
	// fiscal quarter.
	switch now.Month() {
	case time.March, time.June, time.September, time.December:
		score += 15
	}

	return normalize.ClampScore(score)
}

// marketCompetition scores how hard nearby buildings are fighting for the
// same tenants.
func marketCompetition(m negotiation.MarketData) float64 {
	score := 0.0

	if len(m.CompetitorVacancyRates) > 0 {
		sum := 0.0
		for _, r := range m.CompetitorVacancyRates {
			sum += r
		}
		avg := sum / float64(len(m.CompetitorVacancyRates))
		switch {
		case avg > 0.15:
			score += 30
		case avg > 0.10:
			score += 20
		case avg > 0.05:
			score += 10
		}
	}

	switch {
	case len(m.CompetitorIncentives) > 2:
		score += 25
	case len(m.CompetitorIncentives) > 0:
		score += 15
	}

	if m.NewConstructionUnits > 100 {
		score += 15
	}

	return normalize.ClampScore(score)
}

// landlordFlexibility scores how likely this landlord is to say yes, damped
// by how much of the decision they actually own.
func landlordFlexibility(b negotiation.BehavioralData) float64 {
	score := b.AcceptanceRate * 100 * b.DecisionAuthority

	switch {
	case b.AvgResponseHours > 0 && b.AvgResponseHours < 2:
		score += 10
	case b.AvgResponseHours > 0 && b.AvgResponseHours < 8:
		score += 5
	}

	return normalize.ClampScore(score)
}

// timingAdvantage scores transient leverage: month-end pressure, supply
// coming online, and urgency language in the listing itself.
func timingAdvantage(p negotiation.PropertyData, m negotiation.MarketData, now time.Time) float64 {
	score := 0.0

	// daysLeft is 0 on the last day of the month, so < 5 covers exactly the
	// closing five days and < 10 the closing ten.
	daysLeft := daysLeftInMonth(now)
	switch {
	case daysLeft < 5:
		score += 30
	case daysLeft < 10:
		score += 15
	}

	if m.NewConstructionUnits > 100 {
		score += 20
	}

	for _, kw := range urgencyKeywords {
		if matchesSignal(p.ListingSignals, kw) {
			score += 10
		}
	}

	return normalize.ClampScore(score)
}

func daysLeftInMonth(now time.Time) int {
	firstOfNext := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, 1, 0)
	lastDay := firstOfNext.AddDate(0, 0, -1).Day()
	return lastDay - now.Day()
}

func matchesSignal(signals []string, keyword string) bool {
	for _, s := range signals {
		if strings.Contains(strings.ToLower(s), keyword) {
			return true
		}
	}
	return false
}
