package app

import (
	"context"
	"fmt"
	"log/slog"

	"go.uber.org/fx"

	"github.com/Alijeyrad/healthmarket_backend/internal/service/notification"
	"github.com/Alijeyrad/healthmarket_backend/pkg/email"
	"github.com/Alijeyrad/healthmarket_backend/pkg/events"
	"github.com/Alijeyrad/healthmarket_backend/pkg/observability"
)

// WorkerModule registers the event workers on the bus.
var WorkerModule = fx.Module("workers",
	fx.Provide(ProvideDomainMetrics),
	fx.Invoke(RegisterWorkers),
)

type Notifier interface {
	FanOut(ctx context.Context, ev events.Event) (int, error)
}

type AdminAlerter interface {
	AlertAdmins(ctx context.Context, subject, body string) error
}

type WorkerParams struct {
	fx.In

	Lc      fx.Lifecycle
	Bus     events.Bus
	Notify  notification.Service
	Email   *email.Client
	Metrics *observability.DomainMetrics `optional:"true"`
}

func ProvideDomainMetrics() *observability.DomainMetrics {
	m, err := observability.NewDomainMetrics()
	if err != nil {
		slog.Warn("domain metrics disabled", "err", err)
		return nil
	}
	return m
}

func RegisterWorkers(p WorkerParams) {
	w := &eventWorker{notifier: p.Notify, metrics: p.Metrics}
	if p.Email != nil && p.Email.Enabled() {
		w.alerts = p.Email
	}

	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			for _, subject := range []string{events.SubjectAllAppointments, events.SubjectAllProfiles} {
				if err := p.Bus.Subscribe(subject, w.Handle); err != nil {
					return fmt.Errorf("subscribe %s: %w", subject, err)
				}
			}
			slog.Info("event workers started")
			return nil
		},
	})
}

// ---------------------------------------------------------------------------
// event worker
// ---------------------------------------------------------------------------

type eventWorker struct {
	notifier Notifier
	alerts   AdminAlerter
	metrics  *observability.DomainMetrics
}

// Handle fans every event out to notifications and mails the admin list when
// a profile finishes onboarding.
func (w *eventWorker) Handle(ctx context.Context, ev events.Event) error {
	n, err := w.notifier.FanOut(ctx, ev)
	w.metrics.Event(ctx, ev.Subject, err == nil)
	if err != nil {
		return fmt.Errorf("fan out %s: %w", ev.Subject, err)
	}
	w.metrics.Notifications(ctx, n)

	if ev.Subject == events.SubjectProfileCompleted && w.alerts != nil {
		var p events.ProfileEvent
		if err := ev.Decode(&p); err != nil {
			return fmt.Errorf("decode %s: %w", ev.Subject, err)
		}
		body := fmt.Sprintf("A %s account (%s) completed onboarding and is waiting for verification.", p.Role, p.UserID)
		if err := w.alerts.AlertAdmins(ctx, "New profile awaiting verification", body); err != nil {
			slog.Warn("admin alert email failed", "user_id", p.UserID, "err", err)
		}
	}
	return nil
}
