// Package negotiation defines the input and output contracts of the
// negotiation-opportunity scoring engine. All structures are value types
// created fresh per analysis run; nothing here is mutated after construction.
package negotiation

import (
	"encoding/json"
	"time"
)

// PropertyData carries the unit-level signals consumed by the scorers.
// Supplied by the caller per analysis run; treated as immutable.
type PropertyData struct {
	ID          string  `json:"id"`
	Address     string  `json:"address,omitempty"`
	CurrentRent float64 `json:"current_rent"`

	VacancyDays    int       `json:"vacancy_days"`
	RelistingCount int       `json:"relisting_count"`
	PriceChanges   []float64 `json:"price_changes,omitempty"` // signed deltas, oldest first

	Occupancy float64 `json:"occupancy"`  // building occupancy fraction [0,1]
	DebtRatio float64 `json:"debt_ratio"` // owner leverage fraction [0,1]

	// QuarterTargetPressure maps fiscal quarter (1-4) to how far the owner
	// is behind leasing targets for that quarter, as a fraction [0,1].
	QuarterTargetPressure map[int]float64 `json:"quarter_target_pressure,omitempty"`

	// ListingSignals holds free-text phrases lifted from the listing copy
	// ("must rent", "motivated", ...). Matched case-insensitively.
	ListingSignals []string `json:"listing_signals,omitempty"`
}

// MarketData carries location-level context. Supplied externally, never
// computed by this engine.
type MarketData struct {
	Location string `json:"location,omitempty"`

	// SeasonalMultipliers scales the month base leverage table per market.
	// A missing month defaults to 1.0.
	SeasonalMultipliers map[time.Month]float64 `json:"seasonal_multipliers,omitempty"`

	CompetitorPricing      []float64 `json:"competitor_pricing,omitempty"`
	CompetitorIncentives   []string  `json:"competitor_incentives,omitempty"`
	CompetitorVacancyRates []float64 `json:"competitor_vacancy_rates,omitempty"`

	NewConstructionUnits int `json:"new_construction_units"`
}

// Available reports whether any market context was supplied at all. The
// confidence score awards a flat bonus when it was.
func (m MarketData) Available() bool {
	return m.Location != "" ||
		len(m.SeasonalMultipliers) > 0 ||
		len(m.CompetitorPricing) > 0 ||
		len(m.CompetitorIncentives) > 0 ||
		len(m.CompetitorVacancyRates) > 0 ||
		m.NewConstructionUnits > 0
}

// NegotiationOutcome is one past negotiation with this landlord. Only the
// count of outcomes feeds the formulas; the rest is kept for reporting.
type NegotiationOutcome struct {
	Date     time.Time `json:"date"`
	Accepted bool      `json:"accepted"`
	Summary  string    `json:"summary,omitempty"`
}

// BehavioralData carries landlord/agent behavior signals. Fields not named
// by a formula live in the opaque Extra blob and are passed through
// untouched.
type BehavioralData struct {
	LandlordID string `json:"landlord_id,omitempty"`

	AcceptanceRate       float64          `json:"acceptance_rate"`    // historical offer acceptance [0,1]
	PreferredConcessions []ConcessionKind `json:"preferred_concessions,omitempty"`
	DecisionAuthority    float64          `json:"decision_authority"` // [0,1], 0 means unknown
	AvgResponseHours     float64          `json:"avg_response_hours"`

	PastNegotiations []NegotiationOutcome `json:"past_negotiations,omitempty"`

	// Extra is free-form upstream metadata (communication patterns, CRM
	// notes). The engine never interprets it.
	Extra json.RawMessage `json:"extra,omitempty"`
}

// TenantProfile describes the negotiating tenant.
type TenantProfile struct {
	AnnualIncome        float64 `json:"annual_income"`
	CreditScore         float64 `json:"credit_score"`
	EmploymentStability float64 `json:"employment_stability"` // [0,1]
	BudgetFlexibility   float64 `json:"budget_flexibility"`   // [0,1]
	RiskTolerance       float64 `json:"risk_tolerance"`       // [0,1]
}

// ConcessionPrediction is one predicted concession with its negotiation odds
// and dollar value. Impact is the ranking key: probability × value ÷ rent.
type ConcessionPrediction struct {
	Kind        ConcessionKind `json:"kind"`
	Probability float64        `json:"probability"` // [0,0.95]
	Value       float64        `json:"value"`       // dollars
	Impact      float64        `json:"impact"`
}

// SavingsEstimate is the output of the savings calculator.
type SavingsEstimate struct {
	ExpectedSavings      float64 `json:"expected_savings"`       // monthly, dollars
	EffectiveMonthlyRate float64 `json:"effective_monthly_rate"` // dollars
}

// OpportunityResult is the engine's complete answer for one property.
// Concessions are always sorted by descending impact.
type OpportunityResult struct {
	PropertyID string `json:"property_id"`

	OpportunityScore float64    `json:"opportunity_score"` // [0,100]
	Tier             Tier       `json:"tier"`
	Confidence       Confidence `json:"confidence"`

	Concessions          []ConcessionPrediction `json:"concessions"`
	ExpectedSavings      float64                `json:"expected_savings"`
	EffectiveMonthlyRate float64                `json:"effective_monthly_rate"`
	SuccessProbability   float64                `json:"success_probability"` // [0.05,0.95]

	Recommendation string    `json:"recommendation"`
	EvaluatedAt    time.Time `json:"evaluated_at"`
}
