package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thebtf/blink/internal/agent"
	"github.com/thebtf/blink/internal/dispatch"
	"github.com/thebtf/blink/internal/menu"
	"github.com/thebtf/blink/internal/ports"
	"github.com/thebtf/blink/internal/session"
	"github.com/thebtf/blink/pkg/models"
)

type fixedClassifier struct{ data models.IntentData }

func (f fixedClassifier) Classify(context.Context, ports.ClassifyRequest) (models.IntentData, error) {
	return f.data, nil
}

type fixedMenus struct{ entries []models.MenuEntry }

func (f fixedMenus) FetchMenu(context.Context, ports.MenuRequest) ([]models.MenuEntry, error) {
	return f.entries, nil
}

type nopPhones struct{}

func (nopPhones) VerifyPhone(_ context.Context, req ports.PhoneRequest) (ports.PhoneResult, error) {
	return ports.PhoneResult{Verified: true, NormalizedPhone: req.Phone}, nil
}

type nopOrders struct{}

func (nopOrders) SubmitOrder(context.Context, ports.OrderRequest) (ports.OrderResult, error) {
	return ports.OrderResult{OrderID: "ord-1"}, nil
}

type nopFulfillment struct{}

func (nopFulfillment) Notify(context.Context, ports.FulfillmentEvent) {}

type nopSink struct{}

func (nopSink) Record(context.Context, ports.TurnEvent) {}

func newTestService(intent models.IntentData) *Service {
	dispatcher := dispatch.New(
		menu.NewMatcher(menu.DefaultThreshold),
		fixedMenus{entries: []models.MenuEntry{{Name: "Cheeseburger", Price: "$8"}}},
		nopPhones{},
		nopOrders{},
		nopFulfillment{},
		dispatch.DefaultCatalog(),
		nil,
	)
	coordinator := agent.New(session.NewMemoryStore(time.Hour), fixedClassifier{data: intent}, dispatcher, nopSink{}, nil)
	return NewService(coordinator, "test")
}

func TestHealthEndpoint(t *testing.T) {
	svc := newTestService(models.IntentData{Intent: models.IntentChitchat})

	rec := httptest.NewRecorder()
	svc.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "blink-orchestrator", body["service"])
	assert.Equal(t, "test", body["version"])
}

func TestOrchestrateHappyPath(t *testing.T) {
	svc := newTestService(models.IntentData{Intent: models.IntentGetMenu})

	payload, err := json.Marshal(models.TurnRequest{
		Channel:   "web",
		UserID:    "u1",
		SessionID: "s1",
		Text:      "what's on the menu?",
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	svc.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orchestrate", bytes.NewReader(payload)))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.TurnResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.ReplyText, "Cheeseburger")
	assert.False(t, resp.SessionDone)
	assert.Equal(t, dispatch.StepMenu, resp.MemorySnapshot.Step)
	assert.Equal(t, 1, resp.MemorySnapshot.TurnCount)
	require.Len(t, resp.MemorySnapshot.Scratchpad.Menu, 1)
	assert.Equal(t, "Cheeseburger", resp.MemorySnapshot.Scratchpad.Menu[0].Name)
}

func TestOrchestrateRejectsMalformedJSON(t *testing.T) {
	svc := newTestService(models.IntentData{Intent: models.IntentChitchat})

	rec := httptest.NewRecorder()
	svc.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orchestrate", bytes.NewReader([]byte("{not json"))))

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "invalid JSON body", body["error"])
}

func TestOrchestrateRejectsMissingFields(t *testing.T) {
	svc := newTestService(models.IntentData{Intent: models.IntentChitchat})

	tests := []struct {
		name string
		req  models.TurnRequest
	}{
		{"missing channel", models.TurnRequest{UserID: "u1", SessionID: "s1", Text: "hi"}},
		{"missing user_id", models.TurnRequest{Channel: "web", SessionID: "s1", Text: "hi"}},
		{"missing session_id", models.TurnRequest{Channel: "web", UserID: "u1", Text: "hi"}},
		{"missing text", models.TurnRequest{Channel: "web", UserID: "u1", SessionID: "s1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := json.Marshal(tt.req)
			require.NoError(t, err)

			rec := httptest.NewRecorder()
			svc.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orchestrate", bytes.NewReader(payload)))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestOrchestrateSessionSurvivesBetweenRequests(t *testing.T) {
	svc := newTestService(models.IntentData{Intent: models.IntentChitchat})

	do := func() models.TurnResponse {
		payload, err := json.Marshal(models.TurnRequest{Channel: "web", UserID: "u1", SessionID: "s1", Text: "hello"})
		require.NoError(t, err)
		rec := httptest.NewRecorder()
		svc.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orchestrate", bytes.NewReader(payload)))
		require.Equal(t, http.StatusOK, rec.Code)
		var resp models.TurnResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		return resp
	}

	first := do()
	second := do()
	assert.Equal(t, 1, first.MemorySnapshot.TurnCount)
	assert.Equal(t, 2, second.MemorySnapshot.TurnCount)
}
