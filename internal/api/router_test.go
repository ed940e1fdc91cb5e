package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wslny/wslny/internal/api"
	"github.com/wslny/wslny/internal/api/models"
	"github.com/wslny/wslny/internal/auth"
	"github.com/wslny/wslny/internal/extraction"
	"github.com/wslny/wslny/internal/fare"
	"github.com/wslny/wslny/internal/history"
	"github.com/wslny/wslny/internal/location"
	"github.com/wslny/wslny/internal/orchestrator"
	"github.com/wslny/wslny/internal/provider/resilience"
	"github.com/wslny/wslny/internal/routing"
	"github.com/wslny/wslny/internal/routing/engine"
)

const extractionBody = `{
	"from_location": "Tahrir Square",
	"to_location": "Giza Square",
	"intent": "route",
	"from_coordinates": {"latitude": 30.0444, "longitude": 31.2357},
	"to_coordinates": {"latitude": 30.0131, "longitude": 31.2089}
}`

// testEnv is the full API stack backed by fake upstream services and an
// in-memory history store.
type testEnv struct {
	router   http.Handler
	store    *history.InMemoryStore
	sink     *history.Sink
	verifier *auth.Verifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	routes, err := os.ReadFile("../routing/engine/testdata/multi_response.json")
	require.NoError(t, err)
	return newTestEnvWithRoutes(t, routes)
}

// newTestEnvWithRoutes builds the stack with a routing service that always
// answers with the given body.
func newTestEnvWithRoutes(t *testing.T, routes []byte) *testEnv {
	t.Helper()
	logger := zerolog.New(io.Discard)

	extractionServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(extractionBody))
	}))
	t.Cleanup(extractionServer.Close)

	routingServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(routes)
	}))
	t.Cleanup(routingServer.Close)

	registry := resilience.NewRegistry()

	extractionClient, err := extraction.NewClient(extraction.ClientConfig{
		BaseURL:  extractionServer.URL,
		Registry: registry,
		Logger:   logger,
	})
	require.NoError(t, err)

	routingClient, err := engine.NewClient(engine.ClientConfig{
		BaseURL:  routingServer.URL,
		Registry: registry,
		Logger:   logger,
	})
	require.NoError(t, err)

	store := history.NewInMemoryStore()
	sink := history.NewSink(history.SinkConfig{Writer: store, Logger: logger})

	resolver := location.NewResolver(location.ResolverConfig{
		Extractor: extraction.NewService(extraction.ServiceConfig{Provider: extractionClient, Logger: logger}),
		Suggester: location.NewSuggester(location.SuggesterConfig{Source: store, Logger: logger}),
		Logger:    logger,
	})

	orch := orchestrator.New(orchestrator.Config{
		Resolver:  resolver,
		Router:    routing.NewService(routing.ServiceConfig{Provider: routingClient, Logger: logger}),
		Estimator: fare.NewEstimator(fare.DefaultTable()),
		History:   sink,
		Logger:    logger,
	})

	verifier := auth.NewVerifier(auth.Config{SigningKey: "test-secret-key-for-testing-only", Issuer: "wslny"})

	return &testEnv{
		router: api.NewRouter(api.RouterConfig{
			Version:      "test",
			BuildTime:    "2026-01-01T00:00:00Z",
			Logger:       logger,
			Verifier:     verifier,
			Orchestrator: orch,
			HistoryStore: store,
			Registry:     registry,
			SinkStats:    sink.Stats,
		}),
		store:    store,
		sink:     sink,
		verifier: verifier,
	}
}

func (e *testEnv) token(t *testing.T, userID string) string {
	t.Helper()
	token, _, err := e.verifier.Issue(userID, time.Hour)
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, target, body, userID string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader = http.NoBody
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+e.token(t, userID))
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// flush drains the history sink so that records are visible in the store.
func (e *testEnv) flush(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, e.sink.Close(ctx))
}

func TestRouter_HealthCheck(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/ops/health", "", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	var health models.Health
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, models.HealthStatusOK, health.Status)
}

func TestRouter_ReadinessCheck(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/ops/ready", "", "")

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_SystemStatus(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/ops/status", "", "")

	require.Equal(t, http.StatusOK, w.Code)

	var status models.SystemStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, models.HealthStatusOK, status.Status)
	require.Len(t, status.Providers, 2)
	assert.Equal(t, extraction.ProviderName, status.Providers[0].Provider)
	assert.Equal(t, engine.ProviderName, status.Providers[1].Provider)
	assert.Equal(t, "closed", status.Providers[1].CircuitState)
}

func TestRouter_Route_Text(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/route", `{"text":"from Tahrir to Giza","filter":2}`, "rider-1")

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.RouteResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, resp.RequestID, w.Header().Get("X-Request-Id"))
	_, err := uuid.Parse(resp.RequestID)
	assert.NoError(t, err)

	assert.Equal(t, "text", resp.Source)
	assert.Equal(t, "route", resp.Intent)
	assert.Equal(t, 2, resp.Filter)
	require.NotNil(t, resp.FromName)
	assert.Equal(t, "Tahrir Square", *resp.FromName)
	require.NotNil(t, resp.ToName)
	assert.Equal(t, "Giza Square", *resp.ToName)
	assert.Contains(t, resp.Query, "origin")

	require.NotNil(t, resp.Route)
	assert.Equal(t, "fastest", resp.Route.Type)
	assert.Equal(t, 1500, resp.Route.TotalDurationSeconds)
	require.NotNil(t, resp.Route.EstimatedFare)
	assert.InDelta(t, 8, *resp.Route.EstimatedFare, 0.001)
	require.NotNil(t, resp.Route.WalkDistanceMeters)
	assert.InDelta(t, 600, *resp.Route.WalkDistanceMeters, 0.001)

	env.flush(t)
	rec, ok := env.store.Get(resp.RequestID)
	require.True(t, ok)
	assert.Equal(t, history.StatusSuccess, rec.Status)
	assert.Equal(t, "rider-1", rec.UserID)
	assert.Equal(t, "from Tahrir to Giza", rec.InputText)
}

func TestRouter_Route_MapResponseTypeIsFilterName(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/route",
		`{"origin":{"lat":30.0444,"lon":31.2357},"destination":{"lat":30.0131,"lon":31.2089},"filter":3}`, "rider-1")

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.RouteResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "map", resp.Source)
	assert.Equal(t, "direct_coordinates", resp.Intent)
	require.NotNil(t, resp.Route)
	assert.Equal(t, "cheapest", resp.Route.Type)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	assert.Equal(t, "null", string(raw["from_name"]), "map endpoints carry no name")
	assert.Equal(t, "null", string(raw["to_name"]))
}

func TestRouter_Route_RoutingBodyWithoutRoutes(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"empty object", `{}`, http.StatusBadGateway, "ROUTING_UPSTREAM_ERROR"},
		{"unrelated fields", `{"status":"ok"}`, http.StatusBadGateway, "ROUTING_UPSTREAM_ERROR"},
		{"null routes", `{"routes":null}`, http.StatusNotFound, "ROUTING_NO_MATCHING_FILTER"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnvWithRoutes(t, []byte(tt.body))

			w := env.do(t, http.MethodPost, "/api/route",
				`{"origin":{"lat":30.0444,"lon":31.2357},"destination":{"lat":30.0131,"lon":31.2089}}`, "rider-1")

			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			var resp models.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Error.Code)

			env.flush(t)
			rec, ok := env.store.Get(resp.RequestID)
			require.True(t, ok)
			assert.Equal(t, history.StatusFailed, rec.Status)
			assert.Equal(t, tt.wantCode, rec.ErrorCode)
		})
	}
}

func TestRouter_Route_NoMatchingFilter(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/route",
		`{"origin":{"lat":30.0444,"lon":31.2357},"destination":{"lat":30.0131,"lon":31.2089},"filter":5}`, "rider-1")

	require.Equal(t, http.StatusNotFound, w.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ROUTING_NO_MATCHING_FILTER", resp.Error.Code)
	assert.Equal(t, "No route found for filter 'microbus_only'.", resp.Error.Message)

	env.flush(t)
	rec, ok := env.store.Get(resp.RequestID)
	require.True(t, ok)
	assert.Equal(t, history.StatusFailed, rec.Status)
	assert.Equal(t, "ROUTING_NO_MATCHING_FILTER", rec.ErrorCode)
}

func TestRouter_Route_InvalidBody(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/route", `not json`, "rider-1")

	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "INVALID_REQUEST_BODY", resp.Error.Code)
	assert.NotEmpty(t, resp.RequestID)

	env.flush(t)
	assert.Equal(t, 1, env.store.Len(), "failed requests are recorded too")
}

func TestRouter_Route_RequiresToken(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/route", `{"text":"from Tahrir to Giza"}`, "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
}

func TestRouter_Route_UnsupportedMediaType(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/route", strings.NewReader("text=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+env.token(t, "rider-1"))
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestRouter_Validate(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/routes/validate", `{"text":"from Tahrir to Giza","filter":"metro_only"}`, "rider-1")

	require.Equal(t, http.StatusOK, w.Code)

	var resp models.ValidateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Valid)
	assert.Equal(t, 6, resp.Filter)
	assert.Equal(t, "metro_only", resp.FilterName)

	w = env.do(t, http.MethodPost, "/api/routes/validate", `{"text":"x","filter":"teleport"}`, "rider-1")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_FILTER")

	env.flush(t)
	assert.Equal(t, 0, env.store.Len(), "validation records no history")
}

func TestRouter_Metadata(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/routes/metadata", "", "rider-1")

	require.Equal(t, http.StatusOK, w.Code)

	var meta models.Metadata
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &meta))
	assert.Len(t, meta.Filters, 6)
}

func TestRouter_History(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/route",
		`{"origin":{"lat":30.0444,"lon":31.2357},"destination":{"lat":30.0131,"lon":31.2089}}`, "rider-1")
	require.Equal(t, http.StatusOK, w.Code)

	var route models.RouteResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &route))

	require.Eventually(t, func() bool {
		_, ok := env.store.Get(route.RequestID)
		return ok
	}, 5*time.Second, 10*time.Millisecond)

	w = env.do(t, http.MethodGet, "/api/route/history?limit=10", "", "rider-1")
	require.Equal(t, http.StatusOK, w.Code)

	var list models.HistoryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Items, 1)
	assert.Equal(t, route.RequestID, list.Items[0].RequestID)
	assert.Equal(t, "success", list.Items[0].Status)

	w = env.do(t, http.MethodPost, "/api/route/history/"+route.RequestID+"/selection", `{"selected_route_type":"fastest"}`, "rider-1")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodPost, "/api/route/history/"+route.RequestID+"/selection", `{"selected_route_type":"fastest"}`, "rider-2")
	assert.Equal(t, http.StatusNotFound, w.Code)

	rec, ok := env.store.Get(route.RequestID)
	require.True(t, ok)
	assert.Equal(t, "fastest", rec.SelectedRouteType)
}

func TestRouter_RequestID_Preserved(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/ops/health", http.NoBody)
	req.Header.Set("X-Request-Id", "0b5f4a52-9c1e-4d7a-b3a6-2f1e8d9c7b60")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, "0b5f4a52-9c1e-4d7a-b3a6-2f1e8d9c7b60", w.Header().Get("X-Request-Id"))
}

func TestRouter_NotFound(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/v1/nonexistent", "", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
}
