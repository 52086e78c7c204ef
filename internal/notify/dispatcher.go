package notify

import (
	"context"
	"time"

	"github.com/edulink/backend/internal/metrics"
	"github.com/edulink/backend/internal/models"
	"go.uber.org/zap"
)

const (
	// dispatchBudget bounds how long a request waits on delivery, across
	// all events of one Dispatch call.
	dispatchBudget = 200 * time.Millisecond
	retryTimeout   = 2 * time.Second
)

// Transport accepts an event for best-effort delivery to the account's
// connected clients.
type Transport interface {
	Accept(ctx context.Context, event models.NotificationEvent) error
}

// Dispatcher is called after a mutation commits. A transport failure never
// reaches the caller: the event is parked in the outbox and redelivered by
// Run.
type Dispatcher struct {
	transport Transport
	outbox    chan models.NotificationEvent
	budget    time.Duration
	logger    *zap.Logger
}

func NewDispatcher(transport Transport, outboxSize int, logger *zap.Logger) *Dispatcher {
	if outboxSize <= 0 {
		outboxSize = 1
	}
	return &Dispatcher{
		transport: transport,
		outbox:    make(chan models.NotificationEvent, outboxSize),
		budget:    dispatchBudget,
		logger:    logger,
	}
}

// Dispatch attempts delivery once within dispatchBudget and queues the event
// for retry on failure. Events left when the budget runs out are queued
// without an attempt.
func (d *Dispatcher) Dispatch(ctx context.Context, events ...models.NotificationEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.budget)
	defer cancel()

	for _, event := range events {
		if ctx.Err() != nil {
			d.park(event)
			continue
		}
		if err := d.attempt(ctx, event); err != nil {
			d.logger.Warn("Notification dispatch failed, queued for retry",
				zap.String("event_id", event.EventID),
				zap.String("account_id", event.AccountID),
				zap.String("category", string(event.Category)),
				zap.Error(err))
			d.park(event)
		}
	}
}

func (d *Dispatcher) attempt(ctx context.Context, event models.NotificationEvent) error {
	if err := d.transport.Accept(ctx, event); err != nil {
		metrics.RecordDispatch("failed")
		return err
	}
	metrics.RecordDispatch("accepted")
	return nil
}

func (d *Dispatcher) park(event models.NotificationEvent) {
	select {
	case d.outbox <- event:
	default:
		metrics.RecordDispatch("dropped")
		d.logger.Error("Notification outbox full, dropping event",
			zap.String("event_id", event.EventID),
			zap.String("account_id", event.AccountID))
	}
}

// Pending reports how many events wait for redelivery.
func (d *Dispatcher) Pending() int {
	return len(d.outbox)
}

// Retry makes one pass over the events currently in the outbox. Events that
// fail again go back in.
func (d *Dispatcher) Retry(ctx context.Context) int {
	n := len(d.outbox)
	delivered := 0
	for i := 0; i < n; i++ {
		var event models.NotificationEvent
		select {
		case event = <-d.outbox:
		default:
			return delivered
		}

		attemptCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), retryTimeout)
		err := d.attempt(attemptCtx, event)
		cancel()
		if err != nil {
			d.park(event)
			continue
		}
		delivered++
	}
	return delivered
}

// Run retries the outbox every interval until ctx is done.
func (d *Dispatcher) Run(ctx context.Context, interval time.Duration) {
	d.logger.Info("Starting notification retrier", zap.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if d.Pending() == 0 {
				continue
			}
			delivered := d.Retry(ctx)
			d.logger.Info("Notification retry pass completed",
				zap.Int("delivered", delivered),
				zap.Int("pending", d.Pending()))
		case <-ctx.Done():
			d.logger.Info("Notification retrier stopped", zap.Int("pending", d.Pending()))
			return
		}
	}
}
