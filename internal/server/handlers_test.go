package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/domain"
	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/market"
	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/repository"
	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/service"
)

var referenceNow = time.Date(2026, 10, 14, 14, 0, 0, 0, time.UTC)

func testUser() domain.UserRecord {
	return domain.UserRecord{
		ID:       "USR-1",
		Location: "Austin",
		Devices: []domain.DeviceRecord{
			{ID: "DEV-LAPTOP", Category: "laptop", Brand: "Dell", Model: "XPS 13", PurchaseDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), Condition: "excellent"},
			{ID: "DEV-PHONE", Category: "smartphone", Brand: "Apple", Model: "iPhone 7", PurchaseDate: time.Date(2018, 1, 10, 0, 0, 0, 0, time.UTC), Condition: "poor"},
		},
		MarketplaceListings: []domain.Listing{{ID: "LST-1", Price: 250}},
	}
}

func steadyMarket(ctx context.Context, category domain.Category) (domain.MarketData, error) {
	return domain.MarketData{Category: category, DemandTrend: 0.3, PriceTrend: 0.15, SeasonalFactor: 0.5}, nil
}

func newTestRouter(t *testing.T, provider market.ProviderFunc, health HealthService) http.Handler {
	t.Helper()
	store := repository.NewDatasetStore([]domain.UserRecord{testUser()})
	svc := service.NewTransferService(store, provider, 2)
	svc.WithClock(func() time.Time { return referenceNow })
	return NewRouter(RouterDependencies{
		Logger:         zerolog.Nop(),
		Health:         health,
		API:            NewAPIHandlers(svc),
		MetricsEnabled: true,
	})
}

func doRequest(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestListUsers(t *testing.T) {
	router := newTestRouter(t, steadyMarket, nil)

	rec := doRequest(t, router, http.MethodGet, "/v1/users?limit=10", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody[usersResponse](t, rec)
	if len(resp.Users) != 1 || resp.Users[0] != "USR-1" || resp.Limit != 10 {
		t.Fatalf("unexpected response: %+v", resp)
	}

	rec = doRequest(t, router, http.MethodGet, "/v1/users?offset=-1", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative offset, got %d", rec.Code)
	}
}

func TestListSuggestions(t *testing.T) {
	router := newTestRouter(t, steadyMarket, nil)

	rec := doRequest(t, router, http.MethodGet, "/v1/users/USR-1/suggestions", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get(requestIDHeader) == "" {
		t.Fatal("expected a request id header")
	}

	resp := decodeBody[suggestionsResponse](t, rec)
	if resp.UserID != "USR-1" || len(resp.Suggestions) != 2 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Suggestions[0].SuggestionType != domain.SuggestionRecycle || resp.Suggestions[1].SuggestionType != domain.SuggestionSell {
		t.Fatalf("unexpected ranking: %s, %s", resp.Suggestions[0].SuggestionType, resp.Suggestions[1].SuggestionType)
	}
}

func TestListSuggestionsUnknownUser(t *testing.T) {
	router := newTestRouter(t, steadyMarket, nil)

	rec := doRequest(t, router, http.MethodGet, "/v1/users/USR-404/suggestions", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	resp := decodeBody[errorResponse](t, rec)
	if resp.Error.Code != "NOT_FOUND" {
		t.Fatalf("unexpected error code %q", resp.Error.Code)
	}
}

func TestListSuggestionsMarketUnavailable(t *testing.T) {
	router := newTestRouter(t, func(ctx context.Context, category domain.Category) (domain.MarketData, error) {
		return domain.MarketData{}, errors.Join(domain.ErrMarketUnavailable, errors.New("dial tcp: connection refused"))
	}, nil)

	rec := doRequest(t, router, http.MethodGet, "/v1/users/USR-1/suggestions", nil)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "connection refused") {
		t.Fatalf("upstream detail leaked into response: %s", rec.Body.String())
	}
}

func TestEvaluateSuggestion(t *testing.T) {
	router := newTestRouter(t, steadyMarket, nil)
	user := testUser()

	rec := doRequest(t, router, http.MethodPost, "/v1/suggestions/evaluate", evaluateRequest{
		Device: user.Devices[0],
		User:   user,
		Market: &domain.MarketData{DemandTrend: 0.5, PriceTrend: 0.3},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	ev := decodeBody[service.Evaluation](t, rec)
	if ev.Suggestion == nil || ev.Suggestion.SuggestionType != domain.SuggestionSell {
		t.Fatalf("expected sell suggestion, got %+v", ev.Suggestion)
	}
	if ev.Suggestion.Urgency != domain.UrgencyHigh {
		t.Fatalf("expected high urgency with strongly rising prices, got %s", ev.Suggestion.Urgency)
	}
	if ev.Analysis.Age != 2 || ev.Analysis.MarketValue != 768 {
		t.Fatalf("unexpected analysis: %+v", ev.Analysis)
	}
}

func TestEvaluateSuggestionValidation(t *testing.T) {
	router := newTestRouter(t, steadyMarket, nil)

	rec := doRequest(t, router, http.MethodPost, "/v1/suggestions/evaluate", evaluateRequest{
		Device: domain.DeviceRecord{Category: "laptop"},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	resp := decodeBody[errorResponse](t, rec)
	if resp.Error.Code != "VALIDATION_ERROR" || resp.Error.Message != "device.id is required" {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}

	rec = doRequest(t, router, http.MethodPost, "/v1/suggestions/evaluate", `{"device":{"id":"D1"},"unexpected":true}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown fields, got %d", rec.Code)
	}
	if code := decodeBody[errorResponse](t, rec).Error.Code; code != "INVALID_JSON" {
		t.Fatalf("unexpected error code %q", code)
	}
}

func TestComposePrompt(t *testing.T) {
	router := newTestRouter(t, steadyMarket, nil)
	user := testUser()
	value := 768.0
	morning := "morning"
	saturday := int(time.Saturday)

	rec := doRequest(t, router, http.MethodPost, "/v1/prompts", map[string]any{
		"suggestion": domain.TransferSuggestion{
			DeviceID:       "DEV-LAPTOP",
			SuggestionType: domain.SuggestionSell,
			Confidence:     0.8,
			Urgency:        domain.UrgencyHigh,
			EstimatedValue: &value,
		},
		"device":  user.Devices[0],
		"user":    user,
		"context": map[string]any{"timeOfDay": morning, "dayOfWeek": saturday},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	prompt := decodeBody[domain.TransferPrompt](t, rec)
	if prompt.ID != "prompt-DEV-LAPTOP-sell" {
		t.Fatalf("unexpected prompt id %q", prompt.ID)
	}
	if !strings.HasPrefix(prompt.Message, "Start your day") {
		t.Fatalf("expected morning framing, got %q", prompt.Message)
	}
	if prompt.CallToAction.Secondary != "Learn More" || prompt.CallToAction.Dismiss != "Not Now" {
		t.Fatalf("unexpected call to action: %+v", prompt.CallToAction)
	}
}

func TestComposePromptRejectsBadContext(t *testing.T) {
	router := newTestRouter(t, steadyMarket, nil)

	rec := doRequest(t, router, http.MethodPost, "/v1/prompts", map[string]any{
		"suggestion": map[string]any{"deviceId": "DEV-1", "suggestionType": "donate", "confidence": 0.85},
		"context":    map[string]any{"season": "monsoon"},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestComposePromptRejectsIncompleteInput(t *testing.T) {
	router := newTestRouter(t, steadyMarket, nil)
	user := testUser()
	valid := map[string]any{"deviceId": "DEV-LAPTOP", "suggestionType": "sell", "confidence": 0.8, "urgency": "high"}

	cases := []struct {
		name       string
		body       map[string]any
		wantDetail string
	}{
		{
			name:       "unknown suggestion type",
			body:       map[string]any{"suggestion": withField(valid, "suggestionType", "banana"), "device": user.Devices[0], "user": user},
			wantDetail: "suggestion.suggestionType must be one of",
		},
		{
			name:       "unknown urgency",
			body:       map[string]any{"suggestion": withField(valid, "urgency", "critical"), "device": user.Devices[0], "user": user},
			wantDetail: "suggestion.urgency must be one of",
		},
		{
			name:       "missing device",
			body:       map[string]any{"suggestion": valid, "user": user},
			wantDetail: "device is required",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(t, router, http.MethodPost, "/v1/prompts", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
			resp := decodeBody[errorResponse](t, rec)
			if resp.Error.Code != "VALIDATION_ERROR" || !strings.Contains(resp.Error.Message, tc.wantDetail) {
				t.Fatalf("unexpected error %+v", resp.Error)
			}
		})
	}
}

func withField(base map[string]any, key string, value any) map[string]any {
	out := make(map[string]any, len(base))
	for k, v := range base {
		out[k] = v
	}
	out[key] = value
	return out
}

func TestDeviceTiming(t *testing.T) {
	router := newTestRouter(t, steadyMarket, nil)

	rec := doRequest(t, router, http.MethodGet, "/v1/users/USR-1/devices/DEV-PHONE/timing", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	timing := decodeBody[domain.TransferTiming](t, rec)
	if timing.DeviceID != "DEV-PHONE" {
		t.Fatalf("unexpected device id %q", timing.DeviceID)
	}
	want := referenceNow.AddDate(0, 0, timing.OptimalWindow.OffsetDays())
	if !timing.OptimalTransferDate.Equal(want) {
		t.Fatalf("expected %v, got %v", want, timing.OptimalTransferDate)
	}

	rec = doRequest(t, router, http.MethodGet, "/v1/users/USR-1/devices/DEV-404/timing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestOptimizeTiming(t *testing.T) {
	router := newTestRouter(t, steadyMarket, nil)
	user := testUser()

	rec := doRequest(t, router, http.MethodPost, "/v1/timing", timingRequest{
		Device: user.Devices[1],
		User:   user,
		Market: &domain.MarketData{PriceTrend: -0.9},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	timing := decodeBody[domain.TransferTiming](t, rec)
	if timing.Recommendation != domain.TimingTransferSoon || timing.OptimalWindow != domain.WindowNext7Days {
		t.Fatalf("expected transfer_soon within 7 days for a collapsing market, got %s/%s", timing.Recommendation, timing.OptimalWindow)
	}
}

func TestMarketSnapshot(t *testing.T) {
	router := newTestRouter(t, steadyMarket, nil)

	rec := doRequest(t, router, http.MethodGet, "/v1/market/Tablet", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := decodeBody[domain.MarketData](t, rec); got.Category != domain.CategoryTablet {
		t.Fatalf("unexpected category %q", got.Category)
	}

	rec = doRequest(t, router, http.MethodGet, "/v1/market/toaster", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown category, got %d", rec.Code)
	}
}

type probeFunc func(ctx context.Context) error

func (f probeFunc) Probe(ctx context.Context) error { return f(ctx) }

func TestHealthz(t *testing.T) {
	router := newTestRouter(t, steadyMarket, probeFunc(func(context.Context) error { return nil }))
	if rec := doRequest(t, router, http.MethodGet, "/healthz", nil); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	router = newTestRouter(t, steadyMarket, probeFunc(func(context.Context) error { return errors.New("neo4j unreachable") }))
	rec := doRequest(t, router, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if got := decodeBody[map[string]any](t, rec); got["status"] != "degraded" {
		t.Fatalf("unexpected health payload: %v", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, steadyMarket, nil)
	doRequest(t, router, http.MethodGet, "/v1/market/laptop", nil)

	rec := doRequest(t, router, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `api_request_duration_seconds_count{method="GET",route="/v1/market/{category}",status="200"}`) {
		t.Fatal("expected request metrics labelled by route pattern")
	}
}
