// Package store persists analysis snapshots to Postgres so dashboards can
// trend a property's negotiation leverage over time. Writes run behind a
// circuit breaker: a down database must not slow the scoring path.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/leaselens/leaselens/internal/domain/negotiation"
)

// Schema creates the results table. Applied with IF NOT EXISTS so repeated
// startups are safe.
const Schema = `
CREATE TABLE IF NOT EXISTS opportunity_results (
	id                     BIGSERIAL PRIMARY KEY,
	run_id                 TEXT NOT NULL,
	property_id            TEXT NOT NULL,
	opportunity_score      DOUBLE PRECISION NOT NULL,
	tier                   TEXT NOT NULL,
	confidence             TEXT NOT NULL,
	success_probability    DOUBLE PRECISION NOT NULL,
	expected_savings       DOUBLE PRECISION NOT NULL,
	effective_monthly_rate DOUBLE PRECISION NOT NULL,
	concessions            JSONB NOT NULL,
	recommendation         TEXT NOT NULL,
	evaluated_at           TIMESTAMPTZ NOT NULL,
	created_at             TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_opportunity_results_property
	ON opportunity_results (property_id, evaluated_at DESC);
`

// ResultRow is one persisted snapshot.
type ResultRow struct {
	RunID                string    `db:"run_id" json:"run_id"`
	PropertyID           string    `db:"property_id" json:"property_id"`
	OpportunityScore     float64   `db:"opportunity_score" json:"opportunity_score"`
	Tier                 string    `db:"tier" json:"tier"`
	Confidence           string    `db:"confidence" json:"confidence"`
	SuccessProbability   float64   `db:"success_probability" json:"success_probability"`
	ExpectedSavings      float64   `db:"expected_savings" json:"expected_savings"`
	EffectiveMonthlyRate float64   `db:"effective_monthly_rate" json:"effective_monthly_rate"`
	Concessions          []byte    `db:"concessions" json:"-"`
	Recommendation       string    `db:"recommendation" json:"recommendation"`
	EvaluatedAt          time.Time `db:"evaluated_at" json:"evaluated_at"`
}

// Store wraps the Postgres connection.
type Store struct {
	db      *sqlx.DB
	breaker *gobreaker.CircuitBreaker
}

// Open connects to Postgres and applies the schema.
func Open(dsn string) (*Store, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return NewWithDB(db), nil
}

// NewWithDB wraps an existing connection; used by tests.
func NewWithDB(db *sqlx.DB) *Store {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "result-store",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).
				Str("from", from.String()).Str("to", to.String()).
				Msg("Result store breaker state change")
		},
	})
	return &Store{db: db, breaker: breaker}
}

// Close releases the connection pool.
func (s *Store) Close() error { return s.db.Close() }

// SaveResult inserts one snapshot. The call goes through the circuit
// breaker; when the breaker is open the write fails fast.
func (s *Store) SaveResult(ctx context.Context, runID string, result negotiation.OpportunityResult) error {
	concessions, err := json.Marshal(result.Concessions)
	if err != nil {
		return fmt.Errorf("marshal concessions for %s: %w", result.PropertyID, err)
	}

	_, err = s.breaker.Execute(func() (interface{}, error) {
		return s.db.ExecContext(ctx, `
			INSERT INTO opportunity_results (
				run_id, property_id, opportunity_score, tier, confidence,
				success_probability, expected_savings, effective_monthly_rate,
				concessions, recommendation, evaluated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			runID,
			result.PropertyID,
			result.OpportunityScore,
			string(result.Tier),
			string(result.Confidence),
			result.SuccessProbability,
			result.ExpectedSavings,
			result.EffectiveMonthlyRate,
			concessions,
			result.Recommendation,
			result.EvaluatedAt,
		)
	})
	if err != nil {
		return fmt.Errorf("save result for %s: %w", result.PropertyID, err)
	}
	return nil
}

// RecentResults returns up to limit snapshots for a property, newest first.
func (s *Store) RecentResults(ctx context.Context, propertyID string, limit int) ([]ResultRow, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []ResultRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT run_id, property_id, opportunity_score, tier, confidence,
		       success_probability, expected_savings, effective_monthly_rate,
		       concessions, recommendation, evaluated_at
		FROM opportunity_results
		WHERE property_id = $1
		ORDER BY evaluated_at DESC
		LIMIT $2`, propertyID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent results for %s: %w", propertyID, err)
	}
	return rows, nil
}
