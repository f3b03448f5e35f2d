package opportunity

import (
	"fmt"
	"math"
)

// FactorWeights allocates the six sub-scores into the composite opportunity
// score. Weights must sum to 1.0.
type FactorWeights struct {
	VacancyPressure     float64 `yaml:"vacancy_pressure" json:"vacancy_pressure"`
	SeasonalLeverage    float64 `yaml:"seasonal_leverage" json:"seasonal_leverage"`
	FinancialStress     float64 `yaml:"financial_stress" json:"financial_stress"`
	MarketCompetition   float64 `yaml:"market_competition" json:"market_competition"`
	LandlordFlexibility float64 `yaml:"landlord_flexibility" json:"landlord_flexibility"`
	TimingAdvantage     float64 `yaml:"timing_advantage" json:"timing_advantage"`
}

// DefaultWeights returns the calibrated production allocation.
func DefaultWeights() FactorWeights {
	return FactorWeights{
		VacancyPressure:     0.25,
		SeasonalLeverage:    0.20,
		FinancialStress:     0.18,
		MarketCompetition:   0.15,
		LandlordFlexibility: 0.12,
		TimingAdvantage:     0.10,
	}
}

// Sum returns the total weight allocation.
func (w FactorWeights) Sum() float64 {
	return w.VacancyPressure + w.SeasonalLeverage + w.FinancialStress +
		w.MarketCompetition + w.LandlordFlexibility + w.TimingAdvantage
}

// WeightSumTolerance is the allowed drift from 1.0 for a weight table.
const WeightSumTolerance = 0.001

// Validate checks every weight is non-negative and the table sums to 1.0
// within tolerance.
func (w FactorWeights) Validate() error {
	for name, v := range map[string]float64{
		"vacancy_pressure":     w.VacancyPressure,
		"seasonal_leverage":    w.SeasonalLeverage,
		"financial_stress":     w.FinancialStress,
		"market_competition":   w.MarketCompetition,
		"landlord_flexibility": w.LandlordFlexibility,
		"timing_advantage":     w.TimingAdvantage,
	} {
		if v < 0 {
			return fmt.Errorf("weight %s is negative: %.3f", name, v)
		}
	}
	if sum := w.Sum(); math.Abs(sum-1.0) > WeightSumTolerance {
		return fmt.Errorf("weights sum to %.4f, expected 1.0 ± %.3f", sum, WeightSumTolerance)
	}
	return nil
}
