package worker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/helpdeskhq/helpdesk-service/internal/outbox"
	"github.com/helpdeskhq/helpdesk-service/internal/repository"
)

// Notifier dispatches one notification. Implemented by
// service.NotificationService.
type Notifier interface {
	NotifyTicketAction(ctx context.Context, ticketID, description string, extraEmails []string) error
	NotifySlaAlert(ctx context.Context, ticketID string) error
}

// OutboxWorker drains the notification outbox. Delivery failures never
// reach the operation that enqueued the message: the row is retried on
// later polls until the attempt cap marks it failed.
type OutboxWorker struct {
	queue       repository.OutboxRepository
	notifier    Notifier
	interval    time.Duration
	batchSize   int
	maxAttempts int
	logger      *zap.Logger
}

// NewOutboxWorker constructs the worker.
func NewOutboxWorker(queue repository.OutboxRepository, notifier Notifier, interval time.Duration, batchSize, maxAttempts int, logger *zap.Logger) *OutboxWorker {
	if batchSize <= 0 {
		batchSize = 50
	}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &OutboxWorker{
		queue:       queue,
		notifier:    notifier,
		interval:    interval,
		batchSize:   batchSize,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// Run loops until the context is cancelled.
func (w *OutboxWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("outbox worker started", zap.Duration("interval", w.interval))
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("outbox worker stopped")
			return
		case <-ticker.C:
			if err := w.Drain(ctx); err != nil {
				w.logger.Error("outbox drain failed", zap.Error(err))
			}
		}
	}
}

// Drain processes one batch of pending messages.
func (w *OutboxWorker) Drain(ctx context.Context) error {
	messages, err := w.queue.ListPending(ctx, w.batchSize)
	if err != nil {
		return err
	}
	for i := range messages {
		msg := &messages[i]
		if err := w.dispatch(ctx, msg); err != nil {
			terminal := msg.Attempts+1 >= w.maxAttempts
			w.logger.Warn("notification dispatch failed",
				zap.String("message_id", msg.ID),
				zap.String("ticket_id", msg.TicketID),
				zap.Int("attempts", msg.Attempts+1),
				zap.Bool("terminal", terminal),
				zap.Error(err),
			)
			if markErr := w.queue.MarkFailed(ctx, msg.ID, terminal); markErr != nil {
				w.logger.Error("mark failed errored", zap.String("message_id", msg.ID), zap.Error(markErr))
			}
			continue
		}
		if err := w.queue.MarkSent(ctx, msg.ID, time.Now()); err != nil {
			w.logger.Error("mark sent errored", zap.String("message_id", msg.ID), zap.Error(err))
		}
	}
	return nil
}

func (w *OutboxWorker) dispatch(ctx context.Context, msg *outbox.Message) error {
	switch msg.Kind {
	case outbox.KindTicketAction:
		return w.notifier.NotifyTicketAction(ctx, msg.TicketID, msg.Description, msg.ExtraEmails)
	case outbox.KindSLAAlert:
		return w.notifier.NotifySlaAlert(ctx, msg.TicketID)
	default:
		return fmt.Errorf("unknown outbox kind %q", msg.Kind)
	}
}
