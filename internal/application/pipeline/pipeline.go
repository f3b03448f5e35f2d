// Package pipeline orchestrates the scoring stages into per-property
// analyses and tenant-level batches. The engine itself is stateless: all
// calibration lives in the config it was built with, and every calendar
// read comes from the caller-supplied evaluation time.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/leaselens/leaselens/internal/config"
	"github.com/leaselens/leaselens/internal/domain/classify"
	"github.com/leaselens/leaselens/internal/domain/concession"
	"github.com/leaselens/leaselens/internal/domain/negotiation"
	"github.com/leaselens/leaselens/internal/domain/normalize"
	"github.com/leaselens/leaselens/internal/domain/opportunity"
	"github.com/leaselens/leaselens/internal/domain/recommend"
	"github.com/leaselens/leaselens/internal/domain/savings"
	"github.com/leaselens/leaselens/internal/domain/success"
	"github.com/leaselens/leaselens/internal/metrics"
)

// ErrMissingPropertyID marks a structural contract violation: the caller
// must identify every property.
var ErrMissingPropertyID = errors.New("property id is required")

// Item is one property's inputs inside a batch.
type Item struct {
	Property   negotiation.PropertyData   `json:"property"`
	Market     negotiation.MarketData     `json:"market"`
	Behavioral negotiation.BehavioralData `json:"behavioral"`
}

// Request is a single-property analysis request. A zero AsOf means "now",
// resolved once at the entry point.
type Request struct {
	Item
	Tenant          negotiation.TenantProfile `json:"tenant"`
	LeaseTermMonths int                       `json:"lease_term_months"`
	AsOf            time.Time                 `json:"as_of"`
}

// Engine wires the scoring stages together under one calibration.
type Engine struct {
	cfg        config.EngineConfig
	scorer     *opportunity.Scorer
	predictor  *concession.Predictor
	thresholds classify.Thresholds
	metrics    *metrics.Registry
}

// New builds an engine from calibration config. The metrics registry may be
// nil for library use.
func New(cfg config.EngineConfig, reg *metrics.Registry) *Engine {
	return &Engine{
		cfg:        cfg,
		scorer:     opportunity.NewScorer(cfg.Weights),
		predictor:  concession.NewPredictor(cfg.Concessions),
		thresholds: cfg.Thresholds,
		metrics:    reg,
	}
}

// Analyze runs the full per-property pipeline: normalize, score, predict
// concessions, estimate savings, predict success, classify, recommend.
func (e *Engine) Analyze(ctx context.Context, req Request) (*negotiation.OpportunityResult, error) {
	start := time.Now()
	result, err := e.analyze(ctx, req)
	if e.metrics != nil {
		e.metrics.ObserveAnalysis(time.Since(start), err)
		if err == nil {
			e.metrics.ObserveTier(string(result.Tier))
		}
	}
	return result, err
}

func (e *Engine) analyze(ctx context.Context, req Request) (*negotiation.OpportunityResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Property.ID == "" {
		return nil, ErrMissingPropertyID
	}

	asOf := req.AsOf
	if asOf.IsZero() {
		asOf = time.Now()
	}

	prop := normalize.Property(req.Property)
	market := normalize.Market(req.Market)
	behavioral := normalize.Behavioral(req.Behavioral)
	tenant := normalize.Tenant(req.Tenant)
	leaseTerm := normalize.LeaseTerm(req.LeaseTermMonths)

	breakdown := e.scorer.Score(prop, market, behavioral, asOf)

	concessions := e.predictor.Predict(prop, behavioral, breakdown.Score)

	estimate, err := savings.Calculate(prop, concessions, leaseTerm)
	if err != nil {
		return nil, fmt.Errorf("property %s: %w", prop.ID, err)
	}

	successProb := success.Predict(prop, behavioral, tenant, breakdown.Score)

	combined := classify.CombinedScore(breakdown.Score, successProb)
	completeness := normalize.Completeness(prop, market, behavioral)

	result := &negotiation.OpportunityResult{
		PropertyID:           prop.ID,
		OpportunityScore:     breakdown.Score,
		Tier:                 e.thresholds.TierFor(combined),
		Confidence:           e.thresholds.ConfidenceFor(classify.ConfidenceScore(prop, market, behavioral, completeness)),
		Concessions:          concessions,
		ExpectedSavings:      estimate.ExpectedSavings,
		EffectiveMonthlyRate: estimate.EffectiveMonthlyRate,
		SuccessProbability:   successProb,
		EvaluatedAt:          asOf,
	}
	result.Recommendation = recommend.For(*result)

	log.Debug().
		Str("property_id", prop.ID).
		Float64("opportunity_score", result.OpportunityScore).
		Float64("combined_score", combined).
		Str("tier", string(result.Tier)).
		Str("confidence", string(result.Confidence)).
		Float64("success_probability", result.SuccessProbability).
		Msg("Property analysis complete")

	return result, nil
}
