// Package dispatch implements the intent-driven step state machine: one
// handler per intent, mutating the session record and producing the reply.
package dispatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/thebtf/blink/internal/menu"
	"github.com/thebtf/blink/internal/metrics"
	"github.com/thebtf/blink/internal/ports"
	"github.com/thebtf/blink/internal/session"
	"github.com/thebtf/blink/pkg/models"
)

// FlowFoodOrder is the single supported scenario label. It is assigned on
// the first dispatch for a session and never reset.
const FlowFoodOrder = "food_order"

// Step labels recorded in session state.
const (
	StepMenu     = "menu"
	StepPhone    = "phone"
	StepAddress  = "address"
	StepOrder    = "order"
	StepFallback = "fallback"
	StepUnknown  = "unknown"
)

const (
	menuListLimit = 10
	suggestLimit  = 8
)

// Dispatcher routes a classified intent to its step handler.
type Dispatcher struct {
	matcher     *menu.Matcher
	menus       ports.MenuFetcher
	phones      ports.PhoneVerifier
	orders      ports.OrderSubmitter
	fulfillment ports.FulfillmentNotifier
	replies     *Catalog
	metrics     *metrics.Metrics
}

// New creates a Dispatcher. replies may not be nil; metrics may be.
func New(
	matcher *menu.Matcher,
	menus ports.MenuFetcher,
	phones ports.PhoneVerifier,
	orders ports.OrderSubmitter,
	fulfillment ports.FulfillmentNotifier,
	replies *Catalog,
	m *metrics.Metrics,
) *Dispatcher {
	return &Dispatcher{
		matcher:     matcher,
		menus:       menus,
		phones:      phones,
		orders:      orders,
		fulfillment: fulfillment,
		replies:     replies,
		metrics:     m,
	}
}

// Replies exposes the catalog so the coordinator can share its texts.
func (d *Dispatcher) Replies() *Catalog { return d.replies }

// Dispatch applies the transition table for one turn. It mutates sess in
// place and returns the reply plus the session's done latch. External
// port failures never escape: each handler converts them into a degraded
// reply.
func (d *Dispatcher) Dispatch(ctx context.Context, sess *session.Context, in models.IntentData) (string, bool) {
	if sess.State.Flow == "" {
		sess.State.Flow = FlowFoodOrder
	}

	var reply string
	switch in.Intent {
	case models.IntentGetMenu:
		sess.State.Step = StepMenu
		reply = d.handleGetMenu(ctx, sess, in)
	case models.IntentProvidePhone:
		sess.State.Step = StepPhone
		reply = d.handlePhone(ctx, sess, in)
	case models.IntentProvideAddress:
		sess.State.Step = StepAddress
		reply = d.handleAddress(sess, in)
	case models.IntentPlaceOrder:
		sess.State.Step = StepOrder
		reply = d.handleOrder(ctx, sess, in)
	case models.IntentChitchat, models.IntentUnknown:
		sess.State.Step = StepFallback
		reply = d.replies.Get(ReplyFallback)
	default:
		// Safety net for labels outside the closed intent set.
		sess.State.Step = StepUnknown
		reply = d.replies.Get(ReplyUnrecognized)
	}

	return reply, sess.State.Done
}

func (d *Dispatcher) handleGetMenu(ctx context.Context, sess *session.Context, in models.IntentData) string {
	entries, err := d.menus.FetchMenu(ctx, ports.MenuRequest{
		Session: sessionRef(sess),
		Notes:   in.Notes,
	})
	if err != nil {
		d.metrics.PortFailure(ctx, "menu")
		log.Warn().Err(err).Str("session", sess.Key().String()).Msg("Menu fetch failed")
	}
	if len(entries) == 0 {
		return d.replies.Get(ReplyMenuUnavailable)
	}

	sess.State.Scratchpad.Menu = entries

	var sb strings.Builder
	sb.WriteString(d.replies.Get(ReplyMenuHeader))
	for i, entry := range entries {
		if i == menuListLimit {
			break
		}
		sb.WriteString("\n- ")
		sb.WriteString(entry.Label())
	}
	sb.WriteString("\n")
	sb.WriteString(d.replies.Get(ReplyMenuFooter))
	return sb.String()
}

func (d *Dispatcher) handlePhone(ctx context.Context, sess *session.Context, in models.IntentData) string {
	phone := in.Phone
	if phone == "" {
		phone = sess.State.Scratchpad.Phone
	}
	if phone == "" {
		return d.replies.Get(ReplyAskPhone)
	}

	verified := false
	normalized := phone
	result, err := d.phones.VerifyPhone(ctx, ports.PhoneRequest{
		Session: sessionRef(sess),
		Phone:   phone,
	})
	if err != nil {
		d.metrics.PortFailure(ctx, "phone")
		log.Warn().Err(err).Str("session", sess.Key().String()).Msg("Phone verification failed")
	} else {
		verified = result.Verified
		if result.NormalizedPhone != "" {
			normalized = result.NormalizedPhone
		}
	}

	// The phone is cached whether or not verification succeeded.
	sess.State.Scratchpad.Phone = normalized

	if verified {
		return fmt.Sprintf(d.replies.Get(ReplyPhoneVerified), normalized)
	}
	return fmt.Sprintf(d.replies.Get(ReplyPhoneUnverified), normalized)
}

func (d *Dispatcher) handleAddress(sess *session.Context, in models.IntentData) string {
	address := in.Address
	if address == "" {
		address = sess.State.Scratchpad.Address
	}
	if address == "" {
		return d.replies.Get(ReplyAskAddress)
	}

	sess.State.Scratchpad.Address = address
	return fmt.Sprintf(d.replies.Get(ReplyAddressConfirm), address)
}

func (d *Dispatcher) handleOrder(ctx context.Context, sess *session.Context, in models.IntentData) string {
	result := d.matcher.Match(in.Items, sess.State.Scratchpad.Menu)
	if len(result.Unmatched) > 0 {
		return d.clarifyReply(sess, result.Unmatched)
	}

	order, err := d.orders.SubmitOrder(ctx, ports.OrderRequest{
		Session: sessionRef(sess),
		Items:   result.Matched,
		Notes:   in.Notes,
		Phone:   sess.State.Scratchpad.Phone,
		Address: sess.State.Scratchpad.Address,
	})
	if err != nil || order.OrderID == "" {
		d.metrics.PortFailure(ctx, "order")
		log.Warn().Err(err).Str("session", sess.Key().String()).Msg("Order submission failed")
		return d.replies.Get(ReplyOrderFailed)
	}

	sess.State.Scratchpad.LastOrderID = order.OrderID
	sess.State.Scratchpad.LastOrderItems = result.Matched

	// Fire-and-forget POS handoff; the notifier swallows its own failures.
	event := ports.FulfillmentEvent{
		Session: sessionRef(sess),
		OrderID: order.OrderID,
		Items:   result.Matched,
		Notes:   in.Notes,
		Phone:   sess.State.Scratchpad.Phone,
		Address: sess.State.Scratchpad.Address,
	}
	go d.fulfillment.Notify(context.WithoutCancel(ctx), event)

	sess.MarkDone()

	var sb strings.Builder
	fmt.Fprintf(&sb, "I've placed your order with reference ID %s", order.OrderID)
	if order.ETA != "" {
		fmt.Fprintf(&sb, ". Estimated delivery time is %s.", order.ETA)
	} else {
		sb.WriteString(".")
	}
	sb.WriteString(d.replies.Get(ReplyOrderThanks))
	return sb.String()
}

func (d *Dispatcher) clarifyReply(sess *session.Context, unmatched []string) string {
	var sb strings.Builder
	sb.WriteString(d.replies.Get(ReplyOrderUnknownHeader))
	for _, item := range unmatched {
		sb.WriteString("\n- ")
		sb.WriteString(item)
	}

	if cached := sess.State.Scratchpad.Menu; len(cached) > 0 {
		sb.WriteString("\n\n")
		sb.WriteString(d.replies.Get(ReplyOrderSuggestHeader))
		for i, entry := range cached {
			if i == suggestLimit {
				break
			}
			sb.WriteString("\n- ")
			sb.WriteString(entry.Label())
		}
	}

	sb.WriteString("\n\n")
	sb.WriteString(d.replies.Get(ReplyOrderClarifyFooter))
	return sb.String()
}

func sessionRef(sess *session.Context) ports.SessionRef {
	return ports.SessionRef{
		Channel:   sess.Meta.Channel,
		UserID:    sess.Meta.UserID,
		SessionID: sess.Meta.SessionID,
	}
}
