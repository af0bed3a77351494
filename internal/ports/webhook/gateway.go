// Package webhook implements the menu, phone and order ports as calls to
// configured webhook endpoints.
package webhook

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/thebtf/blink/internal/ports"
	"github.com/thebtf/blink/pkg/models"
)

// DefaultTimeout bounds each webhook call.
const DefaultTimeout = 20 * time.Second

// Config holds the webhook endpoints. An empty URL disables the
// corresponding port, which callers observe as an ordinary port failure.
type Config struct {
	MenuURL  string
	PhoneURL string
	OrderURL string
	Timeout  time.Duration
}

// Gateway talks to the menu/phone/order webhooks.
type Gateway struct {
	cfg    Config
	client *http.Client
}

// NewGateway creates a Gateway from cfg.
func NewGateway(cfg Config) *Gateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Gateway{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// FetchMenu implements ports.MenuFetcher. The webhook may return the menu
// under "menu" or "items", with entries as bare names or name/price
// objects; both normalize to MenuEntry.
func (g *Gateway) FetchMenu(ctx context.Context, req ports.MenuRequest) ([]models.MenuEntry, error) {
	payload := map[string]any{
		"session_id": req.Session.SessionID,
		"user_id":    req.Session.UserID,
		"channel":    req.Session.Channel,
		"intent":     models.IntentGetMenu,
		"notes":      req.Notes,
	}

	var body struct {
		Menu  []any `json:"menu"`
		Items []any `json:"items"`
	}
	if err := g.post(ctx, g.cfg.MenuURL, payload, &body); err != nil {
		return nil, err
	}

	raw := body.Menu
	if len(raw) == 0 {
		raw = body.Items
	}
	return models.NormalizeMenu(raw), nil
}

// VerifyPhone implements ports.PhoneVerifier.
func (g *Gateway) VerifyPhone(ctx context.Context, req ports.PhoneRequest) (ports.PhoneResult, error) {
	payload := map[string]any{
		"session_id": req.Session.SessionID,
		"user_id":    req.Session.UserID,
		"intent":     models.IntentProvidePhone,
		"phone":      req.Phone,
	}

	var result ports.PhoneResult
	if err := g.post(ctx, g.cfg.PhoneURL, payload, &result); err != nil {
		return ports.PhoneResult{}, err
	}
	if result.NormalizedPhone == "" {
		result.NormalizedPhone = req.Phone
	}
	return result, nil
}

// SubmitOrder implements ports.OrderSubmitter. A response without an
// order_id is reported as an error so the dispatcher never confirms an
// order it cannot reference.
func (g *Gateway) SubmitOrder(ctx context.Context, req ports.OrderRequest) (ports.OrderResult, error) {
	payload := map[string]any{
		"session_id": req.Session.SessionID,
		"user_id":    req.Session.UserID,
		"intent":     models.IntentPlaceOrder,
		"items":      req.Items,
		"notes":      req.Notes,
		"phone":      req.Phone,
		"address":    req.Address,
	}

	var body struct {
		OrderID string `json:"order_id"`
		ETA     any    `json:"eta"`
	}
	if err := g.post(ctx, g.cfg.OrderURL, payload, &body); err != nil {
		return ports.OrderResult{}, err
	}
	if body.OrderID == "" {
		return ports.OrderResult{}, fmt.Errorf("order webhook returned no order_id")
	}

	result := ports.OrderResult{OrderID: body.OrderID}
	if body.ETA != nil {
		result.ETA = fmt.Sprintf("%v", body.ETA)
	}
	return result, nil
}

func (g *Gateway) post(ctx context.Context, url string, payload any, out any) error {
	if url == "" {
		return fmt.Errorf("webhook url not configured")
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Warn().Str("url", url).Int("status", resp.StatusCode).Msg("Webhook returned non-2xx")
		return fmt.Errorf("webhook status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
