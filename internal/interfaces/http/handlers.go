package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/leaselens/leaselens/internal/application/pipeline"
	"github.com/leaselens/leaselens/internal/domain/negotiation"
	"github.com/leaselens/leaselens/internal/domain/personalize"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"cache":     s.cache != nil,
		"storage":   s.store != nil,
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "unknown endpoint")
}

// handleAnalyze scores a batch of properties for one tenant and returns the
// ranked results. Properties already analyzed today are served from the
// cache without recomputation; the rest run through the engine and are
// cached on the way out. Per-item failures come back in the errors array;
// only a malformed request body fails the call outright.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req pipeline.BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "at least one property is required")
		return
	}

	// Resolve the clock here so cache lookups and the engine agree on the
	// evaluation day.
	if req.AsOf.IsZero() {
		req.AsOf = time.Now()
	}

	cached := s.cachedResults(r.Context(), &req)

	// Cache entries hold the tenant-neutral analysis, so fresh results are
	// collected from the stream callback before personalization and the
	// final ranking runs once over hits and misses together.
	var mu sync.Mutex
	fresh := make([]negotiation.OpportunityResult, 0, len(req.Items))
	batch, err := s.engine.AnalyzeBatchStream(r.Context(), req, func(result negotiation.OpportunityResult) {
		mu.Lock()
		fresh = append(fresh, result)
		mu.Unlock()
		if s.cache != nil {
			if err := s.cache.Set(r.Context(), result); err != nil {
				log.Warn().Str("property_id", result.PropertyID).Err(err).Msg("Cache write failed")
			}
		}
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	batch.Results = personalize.Rank(req.Tenant, append(cached, fresh...))

	s.persistResults(r, batch)

	writeJSON(w, http.StatusOK, batch)
}

// cachedResults pulls same-day snapshots for the batch's properties and
// strips the corresponding items from the request, leaving only the
// properties that need computing. Cache trouble degrades to a miss.
func (s *Server) cachedResults(ctx context.Context, req *pipeline.BatchRequest) []negotiation.OpportunityResult {
	if s.cache == nil {
		return nil
	}

	var hits []negotiation.OpportunityResult
	remaining := make([]pipeline.Item, 0, len(req.Items))
	for _, item := range req.Items {
		result, err := s.cache.Get(ctx, item.Property.ID, req.AsOf)
		if err != nil {
			log.Warn().Str("property_id", item.Property.ID).Err(err).Msg("Cache read failed")
		}
		if result == nil {
			remaining = append(remaining, item)
			continue
		}
		hits = append(hits, *result)
	}
	req.Items = remaining
	return hits
}

// persistResults writes the ranked batch output to the store when it is
// configured. Failures are logged and counted, never surfaced to the
// caller: persistence is best-effort by contract.
func (s *Server) persistResults(r *http.Request, batch *pipeline.BatchResult) {
	if s.store == nil {
		return
	}
	for _, result := range batch.Results {
		if err := s.store.SaveResult(r.Context(), batch.RunID, result); err != nil {
			if s.metrics != nil {
				s.metrics.StoreErrors.Inc()
			}
			log.Warn().Str("property_id", result.PropertyID).Err(err).Msg("Store write failed")
		}
	}
}

// handleHistory returns persisted snapshots for one property, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotImplemented, "result storage is not configured")
		return
	}

	propertyID := mux.Vars(r)["propertyID"]
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	rows, err := s.store.RecentResults(r.Context(), propertyID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"property_id": propertyID,
		"results":     rows,
	})
}
