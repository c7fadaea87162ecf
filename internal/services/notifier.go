package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	domainprog "github.com/yungbote/trailmark-backend/internal/domain/progress"
	"github.com/yungbote/trailmark-backend/internal/observability"
	"github.com/yungbote/trailmark-backend/internal/platform/logger"
	"github.com/yungbote/trailmark-backend/internal/realtime/bus"
)

// Notifier delivers a single member notification.
type Notifier interface {
	Send(ctx context.Context, memberID uuid.UUID, title, message, severity string) error
}

type busNotifier struct {
	bus bus.Bus
}

func NewBusNotifier(b bus.Bus) Notifier {
	return &busNotifier{bus: b}
}

func (n *busNotifier) Send(ctx context.Context, memberID uuid.UUID, title, message, severity string) error {
	return n.bus.Publish(ctx, bus.Message{
		Channel: bus.MemberChannel(memberID),
		Event:   bus.EventNotification,
		Data: map[string]any{
			"member_id": memberID.String(),
			"title":     title,
			"message":   message,
			"severity":  severity,
		},
	})
}

type logNotifier struct {
	log *logger.Logger
}

// NewLogNotifier only logs. Used when no bus is configured.
func NewLogNotifier(log *logger.Logger) Notifier {
	return &logNotifier{log: log.With("service", "LogNotifier")}
}

func (n *logNotifier) Send(_ context.Context, memberID uuid.UUID, title, _ string, severity string) error {
	n.log.Info("notification", "member_id", memberID, "title", title, "severity", severity)
	return nil
}

const (
	dispatchTimeout     = 10 * time.Second
	dispatchConcurrency = 8
)

// NotificationDispatcher sends notifications after the triggering write has
// committed. Delivery never blocks the caller and failures are only logged.
type NotificationDispatcher struct {
	log      *logger.Logger
	notifier Notifier
	metrics  *observability.Metrics
	wg       sync.WaitGroup
}

func NewNotificationDispatcher(log *logger.Logger, notifier Notifier, metrics *observability.Metrics) *NotificationDispatcher {
	if notifier == nil {
		notifier = NewLogNotifier(log)
	}
	return &NotificationDispatcher{
		log:      log.With("service", "NotificationDispatcher"),
		notifier: notifier,
		metrics:  metrics,
	}
}

func (d *NotificationDispatcher) Dispatch(ctx context.Context, notes []domainprog.Notification) {
	if d == nil || len(notes) == 0 {
		return
	}
	base := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		dctx, cancel := context.WithTimeout(base, dispatchTimeout)
		defer cancel()

		g, gctx := errgroup.WithContext(dctx)
		g.SetLimit(dispatchConcurrency)
		for _, n := range notes {
			g.Go(func() error {
				if err := d.notifier.Send(gctx, n.MemberID, n.Title, n.Message, n.Severity); err != nil {
					d.metrics.IncNotification("failed")
					d.log.Warn("notification delivery failed", "member_id", n.MemberID, "title", n.Title, "error", err)
					return nil
				}
				d.metrics.IncNotification("sent")
				return nil
			})
		}
		_ = g.Wait()
	}()
}

// Wait blocks until in-flight dispatches finish. Called on shutdown and in tests.
func (d *NotificationDispatcher) Wait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}
