package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gorilla/websocket"

	"github.com/leaselens/leaselens/internal/application/pipeline"
	"github.com/leaselens/leaselens/internal/config"
	"github.com/leaselens/leaselens/internal/domain/negotiation"
	"github.com/leaselens/leaselens/internal/domain/personalize"
	"github.com/leaselens/leaselens/internal/infrastructure/cache"
	"github.com/leaselens/leaselens/internal/metrics"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Default()
	promReg := prometheus.NewRegistry()
	reg := metrics.NewRegistry(promReg)
	engine := pipeline.New(cfg.Engine, reg)

	return NewServer(cfg.HTTP, Options{
		Engine:   engine,
		Metrics:  reg,
		Gatherer: promReg,
	})
}

func batchBody(t *testing.T) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(pipeline.BatchRequest{
		Items: []pipeline.Item{
			{Property: negotiation.PropertyData{ID: "unit-1", CurrentRent: 2350, VacancyDays: 47, DebtRatio: 0.65}},
			{Property: negotiation.PropertyData{ID: "unit-2", CurrentRent: 1900, VacancyDays: 5, Occupancy: 0.97}},
		},
		Tenant: negotiation.TenantProfile{AnnualIncome: 90000, CreditScore: 740, BudgetFlexibility: 0.5},
		AsOf:   time.Date(2025, time.December, 28, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func TestHealth(t *testing.T) {
	s := testServer(t)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, false, body["cache"])
	assert.Equal(t, false, body["storage"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestAnalyze(t *testing.T) {
	s := testServer(t)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/analyze", batchBody(t)))

	require.Equal(t, http.StatusOK, rec.Code)
	var batch pipeline.BatchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &batch))

	require.Len(t, batch.Results, 2)
	assert.True(t, pipeline.SortedByScore(batch.Results))
	assert.NotEmpty(t, batch.RunID)
	assert.Empty(t, batch.Errors)
}

func TestAnalyze_EmptyItems(t *testing.T) {
	s := testServer(t)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/analyze",
		strings.NewReader(`{"items": []}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "at least one property")
}

func TestAnalyze_MalformedBody(t *testing.T) {
	s := testServer(t)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/analyze",
		strings.NewReader(`{not json`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyze_PerItemErrorsReported(t *testing.T) {
	s := testServer(t)

	body := `{"items": [{"property": {"id": "unit-1", "current_rent": 2000}}, {"property": {"current_rent": 1800}}]}`
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code, "one bad item never fails the call")
	var batch pipeline.BatchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &batch))
	assert.Len(t, batch.Results, 1)
	assert.Len(t, batch.Errors, 1)
}

func testServerWithCache(t *testing.T) (*Server, redismock.ClientMock, *metrics.Registry) {
	t.Helper()
	cfg := config.Default()
	promReg := prometheus.NewRegistry()
	reg := metrics.NewRegistry(promReg)
	client, mock := redismock.NewClientMock()

	s := NewServer(cfg.HTTP, Options{
		Engine:   pipeline.New(cfg.Engine, reg),
		Cache:    cache.New(client, time.Hour, reg),
		Metrics:  reg,
		Gatherer: promReg,
	})
	return s, mock, reg
}

// referenceAnalysis computes the tenant-neutral result an identical engine
// would cache for this item, as marshaled bytes.
func referenceAnalysis(t *testing.T, item pipeline.Item, tenant negotiation.TenantProfile, asOf time.Time) []byte {
	t.Helper()
	result, err := pipeline.New(config.Default().Engine, nil).Analyze(context.Background(), pipeline.Request{
		Item:   item,
		Tenant: tenant,
		AsOf:   asOf,
	})
	require.NoError(t, err)
	data, err := json.Marshal(result)
	require.NoError(t, err)
	return data
}

func TestAnalyze_CacheHitSkipsRecomputation(t *testing.T) {
	s, mock, reg := testServerWithCache(t)
	asOf := time.Date(2025, time.December, 28, 10, 0, 0, 0, time.UTC)
	item := pipeline.Item{Property: negotiation.PropertyData{ID: "unit-1", CurrentRent: 2350, VacancyDays: 47, DebtRatio: 0.65}}
	tenant := negotiation.TenantProfile{BudgetFlexibility: 0.5, RiskTolerance: 0.5}

	cachedData := referenceAnalysis(t, item, tenant, asOf)
	mock.ExpectGet(cache.Key("unit-1", asOf)).SetVal(string(cachedData))

	body, err := json.Marshal(pipeline.BatchRequest{Items: []pipeline.Item{item}, Tenant: tenant, AsOf: asOf})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	var batch pipeline.BatchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &batch))
	require.Len(t, batch.Results, 1)
	assert.Equal(t, "unit-1", batch.Results[0].PropertyID)

	// The cached snapshot is tenant-neutral; the response carries the
	// personalized score on top of it.
	var cached negotiation.OpportunityResult
	require.NoError(t, json.Unmarshal(cachedData, &cached))
	match := personalize.MatchFactor(tenant, cached.Confidence)
	assert.InDelta(t, cached.OpportunityScore*(0.7+0.3*match), batch.Results[0].OpportunityScore, 1e-9)

	assert.Equal(t, 1.0, testutil.ToFloat64(reg.CacheHits))
	assert.Equal(t, 0.0, testutil.ToFloat64(reg.AnalysesTotal.WithLabelValues("ok")),
		"a cache hit must not reach the engine")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalyze_CacheMissComputesAndWritesBack(t *testing.T) {
	s, mock, reg := testServerWithCache(t)
	asOf := time.Date(2025, time.December, 28, 10, 0, 0, 0, time.UTC)
	item := pipeline.Item{Property: negotiation.PropertyData{ID: "unit-1", CurrentRent: 2350, VacancyDays: 47, DebtRatio: 0.65}}
	tenant := negotiation.TenantProfile{BudgetFlexibility: 0.5, RiskTolerance: 0.5}

	key := cache.Key("unit-1", asOf)
	mock.ExpectGet(key).RedisNil()
	mock.ExpectSet(key, referenceAnalysis(t, item, tenant, asOf), time.Hour).SetVal("OK")

	body, err := json.Marshal(pipeline.BatchRequest{Items: []pipeline.Item{item}, Tenant: tenant, AsOf: asOf})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	var batch pipeline.BatchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &batch))
	require.Len(t, batch.Results, 1)

	assert.Equal(t, 1.0, testutil.ToFloat64(reg.CacheMisses))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.AnalysesTotal.WithLabelValues("ok")))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalyze_CacheErrorDegradesToCompute(t *testing.T) {
	s, mock, _ := testServerWithCache(t)
	asOf := time.Date(2025, time.December, 28, 10, 0, 0, 0, time.UTC)
	item := pipeline.Item{Property: negotiation.PropertyData{ID: "unit-1", CurrentRent: 2350, VacancyDays: 47, DebtRatio: 0.65}}
	tenant := negotiation.TenantProfile{BudgetFlexibility: 0.5, RiskTolerance: 0.5}

	key := cache.Key("unit-1", asOf)
	mock.ExpectGet(key).SetErr(assert.AnError)
	mock.ExpectSet(key, referenceAnalysis(t, item, tenant, asOf), time.Hour).SetVal("OK")

	body, err := json.Marshal(pipeline.BatchRequest{Items: []pipeline.Item{item}, Tenant: tenant, AsOf: asOf})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code, "an unreachable cache must not fail the call")
	var batch pipeline.BatchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &batch))
	assert.Len(t, batch.Results, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHistory_WithoutStore(t *testing.T) {
	s := testServer(t)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/history/unit-1", nil))

	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestUnknownEndpoint(t *testing.T) {
	s := testServer(t)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown endpoint")
}

func TestMetricsEndpoint(t *testing.T) {
	s := testServer(t)

	// Run one batch so counters have samples.
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/analyze", batchBody(t)))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "leaselens_analyses_total")
	assert.Contains(t, rec.Body.String(), "leaselens_batches_total")
}

func TestRateLimit(t *testing.T) {
	cfg := config.Default().HTTP
	cfg.RatePerSec = 1
	cfg.RateBurst = 1
	s := NewServer(cfg, Options{Engine: pipeline.New(config.Default().Engine, nil)})

	first := httptest.NewRecorder()
	s.Router().ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/health", nil))
	second := httptest.NewRecorder()
	s.Router().ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestAnalyzeStream(t *testing.T) {
	s := testServer(t)
	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/analyze"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(pipeline.BatchRequest{
		Items: []pipeline.Item{
			{Property: negotiation.PropertyData{ID: "unit-1", CurrentRent: 2350, VacancyDays: 47}},
			{Property: negotiation.PropertyData{ID: "unit-2", CurrentRent: 1900, VacancyDays: 5}},
		},
		AsOf: time.Date(2025, time.December, 28, 10, 0, 0, 0, time.UTC),
	}))

	var results int
	for {
		var msg streamMessage
		require.NoError(t, conn.ReadJSON(&msg))

		switch msg.Type {
		case "result":
			require.NotNil(t, msg.Result)
			results++
		case "summary":
			require.NotNil(t, msg.Summary)
			assert.Len(t, msg.Summary.Results, 2)
			assert.Equal(t, 2, results, "every property streams before the summary")
			return
		default:
			t.Fatalf("unexpected frame type %q: %+v", msg.Type, msg)
		}
	}
}

func TestAnalyzeStream_EmptyBatchRejected(t *testing.T) {
	s := testServer(t)
	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/analyze"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(pipeline.BatchRequest{}))

	var msg streamMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "error", msg.Type)
}
