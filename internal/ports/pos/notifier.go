// Package pos hands placed orders to the point-of-sale system.
package pos

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

// DefaultTimeout bounds each POS call.
const DefaultTimeout = 10 * time.Second

// Notifier implements ports.FulfillmentNotifier against a POS endpoint.
// Calls are best-effort: failures are logged and counted, never returned.
type Notifier struct {
	url     string
	client  *http.Client
	metrics *metrics.Metrics
}

// NewNotifier creates a Notifier. An empty url makes Notify a no-op.
func NewNotifier(url string, m *metrics.Metrics) *Notifier {
	return &Notifier{
		url:     url,
		client:  &http.Client{Timeout: DefaultTimeout},
		metrics: m,
	}
}

// Notify implements ports.FulfillmentNotifier.
func (n *Notifier) Notify(ctx context.Context, event ports.FulfillmentEvent) {
	if n.url == "" {
		return
	}

	payload := map[string]any{
		"customer": map[string]any{
			"phone":   event.Phone,
			"address": event.Address,
		},
		"order": map[string]any{
			"reference_id": event.OrderID,
			"items":        event.Items,
			"notes":        event.Notes,
		},
		"session": map[string]any{
			"session_id": event.Session.SessionID,
			"user_id":    event.Session.UserID,
			"channel":    event.Session.Channel,
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
		},
	}

	if err := post(ctx, n.client, n.url, payload); err != nil {
		n.metrics.NotifyFailure(ctx, "pos")
		log.Warn().Err(err).Str("order_id", event.OrderID).Msg("POS handoff failed")
	}
}

func post(ctx context.Context, client *http.Client, url string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}
