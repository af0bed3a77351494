// Package ports defines the boundary interfaces the orchestrator core
// consumes: intent classification, the menu/phone/order webhooks, and the
// fire-and-forget fulfillment and analytics sinks.
//
// Implementations own their timeouts. The core treats every failure the
// same way: degrade the reply, never raise past the dispatcher.
package ports

import (
	"context"
	"time"

	"github.com/thebtf/blink/pkg/models"
)

// SessionRef identifies the session a port call belongs to.
type SessionRef struct {
	Channel   string `json:"channel"`
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
}

// ClassifyRequest carries the utterance plus recent history for context.
type ClassifyRequest struct {
	Text    string
	History []models.Message
}

// Classifier turns a user utterance into structured intent data. On any
// failure implementations return the unknown intent alongside the error;
// callers log the error and proceed with the degraded result.
type Classifier interface {
	Classify(ctx context.Context, req ClassifyRequest) (models.IntentData, error)
}

// MenuRequest asks the menu webhook for the current menu.
type MenuRequest struct {
	Session SessionRef
	Notes   string
}

// MenuFetcher fetches the menu. An error or empty result means "menu
// unavailable" and must not block the conversation.
type MenuFetcher interface {
	FetchMenu(ctx context.Context, req MenuRequest) ([]models.MenuEntry, error)
}

// PhoneRequest submits a phone number for verification.
type PhoneRequest struct {
	Session SessionRef
	Phone   string
}

// PhoneResult is the verification outcome. NormalizedPhone falls back to
// the input when the verifier returns nothing better.
type PhoneResult struct {
	Verified        bool   `json:"verified"`
	NormalizedPhone string `json:"normalized_phone"`
}

// PhoneVerifier verifies and normalizes a phone number.
type PhoneVerifier interface {
	VerifyPhone(ctx context.Context, req PhoneRequest) (PhoneResult, error)
}

// OrderRequest submits a reconciled order.
type OrderRequest struct {
	Session SessionRef
	Items   []models.MenuEntry
	Notes   string
	Phone   string
	Address string
}

// OrderResult is the submission outcome. An empty OrderID is treated as
// submission failure regardless of transport success.
type OrderResult struct {
	OrderID string `json:"order_id"`
	ETA     string `json:"eta"`
}

// OrderSubmitter places an order with the external order service.
type OrderSubmitter interface {
	SubmitOrder(ctx context.Context, req OrderRequest) (OrderResult, error)
}

// FulfillmentEvent is the downstream handoff payload for a placed order.
type FulfillmentEvent struct {
	Session SessionRef
	OrderID string
	Items   []models.MenuEntry
	Notes   string
	Phone   string
	Address string
}

// FulfillmentNotifier hands a placed order to the point-of-sale side.
// Best-effort: implementations swallow failures.
type FulfillmentNotifier interface {
	Notify(ctx context.Context, event FulfillmentEvent)
}

// TurnEvent is the per-turn analytics payload.
type TurnEvent struct {
	EventID        string
	Timestamp      time.Time
	Session        SessionRef
	Intent         models.Intent
	UserText       string
	ReplyText      string
	Flow           string
	Step           string
	Items          []string
	Notes          string
	Phone          string
	Address        string
	LastOrderID    string
	LastOrderItems []models.MenuEntry
	Satisfaction   *float64
}

// AnalyticsSink records one turn. Best-effort: implementations swallow
// failures.
type AnalyticsSink interface {
	Record(ctx context.Context, event TurnEvent)
}
