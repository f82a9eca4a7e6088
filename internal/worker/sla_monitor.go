package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/helpdeskhq/helpdesk-service/internal/outbox"
	"github.com/helpdeskhq/helpdesk-service/internal/repository"
	"github.com/helpdeskhq/helpdesk-service/internal/sla"
)

// SLAMonitor periodically scans active tickets and queues an alert for
// every ticket past the alert threshold of its SLA window. Qualifying
// tickets alert again on every cycle; there is no suppression window.
type SLAMonitor struct {
	tickets  repository.TicketRepository
	queue    repository.OutboxRepository
	interval time.Duration
	logger   *zap.Logger
}

// NewSLAMonitor constructs the monitor.
func NewSLAMonitor(tickets repository.TicketRepository, queue repository.OutboxRepository, interval time.Duration, logger *zap.Logger) *SLAMonitor {
	return &SLAMonitor{tickets: tickets, queue: queue, interval: interval, logger: logger}
}

// Run loops until the context is cancelled. Scan failures are logged
// and retried on the next tick.
func (m *SLAMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.logger.Info("sla monitor started", zap.Duration("interval", m.interval))
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("sla monitor stopped")
			return
		case <-ticker.C:
			if err := m.Scan(ctx); err != nil {
				m.logger.Error("sla scan failed", zap.Error(err))
			}
		}
	}
}

// Scan runs one monitor cycle.
func (m *SLAMonitor) Scan(ctx context.Context) error {
	now := time.Now()
	tickets, err := m.tickets.ListActive(ctx, now)
	if err != nil {
		return err
	}
	alerted := 0
	for i := range tickets {
		ticket := &tickets[i]
		if !sla.ShouldAlert(ticket, now) {
			continue
		}
		msg := outbox.NewSLAAlert(ticket.ID)
		if err := m.queue.Enqueue(ctx, &msg); err != nil {
			m.logger.Error("enqueue sla alert failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
			continue
		}
		alerted++
	}
	if alerted > 0 {
		m.logger.Info("sla alerts queued", zap.Int("count", alerted))
	}
	return nil
}
