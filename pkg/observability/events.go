package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// DomainMetrics counts marketplace events as they are consumed by workers.
type DomainMetrics struct {
	events        metric.Int64Counter
	notifications metric.Int64Counter
}

// NewDomainMetrics registers counters on the global meter provider.
func NewDomainMetrics() (*DomainMetrics, error) {
	meter := otel.Meter(tracerName)

	events, err := meter.Int64Counter(
		"healthmarket_domain_events_total",
		metric.WithDescription("Domain events handled, by subject"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}

	notifications, err := meter.Int64Counter(
		"healthmarket_notifications_created_total",
		metric.WithDescription("Notification rows written by fan-out"),
		metric.WithUnit("{notification}"),
	)
	if err != nil {
		return nil, err
	}

	return &DomainMetrics{events: events, notifications: notifications}, nil
}

func (m *DomainMetrics) Event(ctx context.Context, subject string, ok bool) {
	if m == nil {
		return
	}
	m.events.Add(ctx, 1, metric.WithAttributes(
		attribute.String("subject", subject),
		attribute.Bool("ok", ok),
	))
}

func (m *DomainMetrics) Notifications(ctx context.Context, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.notifications.Add(ctx, int64(n))
}
