package pipeline

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/leaselens/leaselens/internal/domain/negotiation"
	"github.com/leaselens/leaselens/internal/domain/personalize"
)

// BatchRequest analyzes many properties for one tenant. A zero AsOf pins
// the whole batch to a single "now" so calendar terms stay internally
// consistent across properties.
type BatchRequest struct {
	Items           []Item                    `json:"items"`
	Tenant          negotiation.TenantProfile `json:"tenant"`
	LeaseTermMonths int                       `json:"lease_term_months"`
	AsOf            time.Time                 `json:"as_of"`
}

// ItemError reports one failed property analysis without aborting the rest
// of the batch.
type ItemError struct {
	Index      int    `json:"index"`
	PropertyID string `json:"property_id,omitempty"`
	Err        error  `json:"-"`
	Message    string `json:"error"`
}

// BatchResult carries the personalized, ranked results plus any per-item
// failures.
type BatchResult struct {
	RunID   string                          `json:"run_id"`
	AsOf    time.Time                       `json:"as_of"`
	Results []negotiation.OpportunityResult `json:"results"`
	Errors  []ItemError                     `json:"errors,omitempty"`
}

// AnalyzeBatch fans the per-property stage out across a bounded worker
// pool, then applies the personalization barrier: every property must be
// scored before the tenant-fit re-ranking runs.
func (e *Engine) AnalyzeBatch(ctx context.Context, req BatchRequest) (*BatchResult, error) {
	return e.analyzeBatch(ctx, req, nil)
}

// AnalyzeBatchStream behaves like AnalyzeBatch but additionally invokes
// onResult for each property as its unpersonalized analysis completes.
// onResult may be called from multiple goroutines.
func (e *Engine) AnalyzeBatchStream(ctx context.Context, req BatchRequest, onResult func(negotiation.OpportunityResult)) (*BatchResult, error) {
	return e.analyzeBatch(ctx, req, onResult)
}

func (e *Engine) analyzeBatch(ctx context.Context, req BatchRequest, onResult func(negotiation.OpportunityResult)) (*BatchResult, error) {
	asOf := req.AsOf
	if asOf.IsZero() {
		asOf = time.Now()
	}

	runID := uuid.New().String()
	if e.metrics != nil {
		e.metrics.ObserveBatch(len(req.Items))
	}

	concurrency := e.cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	type indexed struct {
		index  int
		result *negotiation.OpportunityResult
		err    error
	}

	out := make([]indexed, len(req.Items))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, item := range req.Items {
		wg.Add(1)
		go func(i int, item Item) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			result, err := e.Analyze(ctx, Request{
				Item:            item,
				Tenant:          req.Tenant,
				LeaseTermMonths: req.LeaseTermMonths,
				AsOf:            asOf,
			})
			out[i] = indexed{index: i, result: result, err: err}
			if err == nil && onResult != nil {
				onResult(*result)
			}
		}(i, item)
	}
	wg.Wait()

	batch := &BatchResult{RunID: runID, AsOf: asOf}
	unranked := make([]negotiation.OpportunityResult, 0, len(req.Items))
	for _, o := range out {
		if o.err != nil {
			batch.Errors = append(batch.Errors, ItemError{
				Index:      o.index,
				PropertyID: req.Items[o.index].Property.ID,
				Err:        o.err,
				Message:    o.err.Error(),
			})
			continue
		}
		unranked = append(unranked, *o.result)
	}

	// Personalization barrier: runs only once every item has settled.
	batch.Results = personalize.Rank(req.Tenant, unranked)

	log.Info().
		Str("run_id", runID).
		Time("as_of", asOf).
		Int("properties", len(req.Items)).
		Int("succeeded", len(batch.Results)).
		Int("failed", len(batch.Errors)).
		Msg("Batch analysis complete")

	return batch, nil
}

// TopN returns the n highest-ranked results of a batch.
func (b *BatchResult) TopN(n int) []negotiation.OpportunityResult {
	if n <= 0 || n >= len(b.Results) {
		return b.Results
	}
	top := make([]negotiation.OpportunityResult, n)
	copy(top, b.Results[:n])
	return top
}

// SortedByScore reports whether results are ordered by descending
// opportunity score. Used by invariant checks and tests.
func SortedByScore(results []negotiation.OpportunityResult) bool {
	return sort.SliceIsSorted(results, func(i, j int) bool {
		return results[i].OpportunityScore > results[j].OpportunityScore
	})
}
