// Package analytics emits per-turn analytics events to a webhook.
package analytics

import (
	"bytes"
	"context"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/thebtf/blink/internal/metrics"
	"github.com/thebtf/blink/internal/ports"
)

// DefaultTimeout bounds each analytics call.
const DefaultTimeout = 10 * time.Second

// Sink implements ports.AnalyticsSink against an analytics webhook.
// Best-effort: failures are logged and counted, never returned.
type Sink struct {
	url     string
	client  *http.Client
	metrics *metrics.Metrics
}

// NewSink creates a Sink. An empty url makes Record a no-op.
func NewSink(url string, m *metrics.Metrics) *Sink {
	return &Sink{
		url:     url,
		client:  &http.Client{Timeout: DefaultTimeout},
		metrics: m,
	}
}

// Record implements ports.AnalyticsSink.
func (s *Sink) Record(ctx context.Context, event ports.TurnEvent) {
	if s.url == "" {
		return
	}

	payload := map[string]any{
		"event_id":  event.EventID,
		"timestamp": event.Timestamp.UTC().Format(time.RFC3339),
		"session": map[string]any{
			"session_id": event.Session.SessionID,
			"user_id":    event.Session.UserID,
			"channel":    event.Session.Channel,
		},
		"turn": map[string]any{
			"intent":     event.Intent,
			"user_text":  event.UserText,
			"reply_text": event.ReplyText,
			"flow":       event.Flow,
			"step":       event.Step,
		},
		"extracted": map[string]any{
			"items":   event.Items,
			"notes":   event.Notes,
			"phone":   event.Phone,
			"address": event.Address,
		},
		"order_snapshot": map[string]any{
			"reference_id": event.LastOrderID,
			"items":        event.LastOrderItems,
		},
		"satisfaction": map[string]any{
			"score":  event.Satisfaction,
			"source": "classifier",
		},
	}

	data, err := json.Marshal(payload)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to encode analytics event")
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(data))
	if err != nil {
		log.Warn().Err(err).Msg("Failed to build analytics request")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.metrics.NotifyFailure(ctx, "analytics")
		log.Warn().Err(err).Str("event_id", event.EventID).Msg("Analytics delivery failed")
		return
	}
	resp.Body.Close()
}
