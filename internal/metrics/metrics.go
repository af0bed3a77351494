// Package metrics exposes the orchestrator's OpenTelemetry counters.
package metrics

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/thebtf/blink"

// Metrics bundles the turn-level counters. A nil *Metrics is valid and
// records nothing, so tests and optional wiring skip the setup.
type Metrics struct {
	turns          metric.Int64Counter
	portFailures   metric.Int64Counter
	notifyFailures metric.Int64Counter
	sweptSessions  metric.Int64Counter
}

// New registers the counters on the global meter provider.
func New() (*Metrics, error) {
	meter := otel.Meter(meterName)

	turns, err := meter.Int64Counter("blink.turns",
		metric.WithDescription("Conversational turns handled"))
	if err != nil {
		return nil, err
	}
	portFailures, err := meter.Int64Counter("blink.port_failures",
		metric.WithDescription("External port calls that failed and degraded the reply"))
	if err != nil {
		return nil, err
	}
	notifyFailures, err := meter.Int64Counter("blink.notify_failures",
		metric.WithDescription("Swallowed fire-and-forget notification failures"))
	if err != nil {
		return nil, err
	}
	sweptSessions, err := meter.Int64Counter("blink.swept_sessions",
		metric.WithDescription("Expired sessions removed by sweep"))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		turns:          turns,
		portFailures:   portFailures,
		notifyFailures: notifyFailures,
		sweptSessions:  sweptSessions,
	}, nil
}

// Turn records a handled turn with its classified intent.
func (m *Metrics) Turn(ctx context.Context, intent string) {
	if m == nil {
		return
	}
	m.turns.Add(ctx, 1, metric.WithAttributes(attribute.String("intent", intent)))
}

// PortFailure records a degraded external port call.
func (m *Metrics) PortFailure(ctx context.Context, port string) {
	if m == nil {
		return
	}
	m.portFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("port", port)))
}

// NotifyFailure records a swallowed notification failure.
func (m *Metrics) NotifyFailure(ctx context.Context, sink string) {
	if m == nil {
		return
	}
	m.notifyFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("sink", sink)))
}

// Swept records how many sessions a sweep removed.
func (m *Metrics) Swept(ctx context.Context, count int) {
	if m == nil || count == 0 {
		return
	}
	m.sweptSessions.Add(ctx, int64(count))
}
