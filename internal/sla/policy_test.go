package sla

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/helpdeskhq/helpdesk-service/internal/domain"
)

func TestDurationFor(t *testing.T) {
	cases := []struct {
		priority domain.TicketPriority
		want     time.Duration
	}{
		{domain.TicketPriorityCritica, 8 * time.Hour},
		{domain.TicketPriorityAlta, 24 * time.Hour},
		{domain.TicketPriorityMedia, 48 * time.Hour},
		{domain.TicketPriorityBaixa, 72 * time.Hour},
		{domain.TicketPriority("WHATEVER"), 72 * time.Hour},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, DurationFor(tc.priority), "priority %s", tc.priority)
	}
}

func TestDueAt(t *testing.T) {
	start := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, start.Add(8*time.Hour), DueAt(start, domain.TicketPriorityCritica))
	assert.Equal(t, start.Add(48*time.Hour), DueAt(start, domain.TicketPriorityMedia))
}

func activeTicket(start time.Time, priority domain.TicketPriority) *domain.Ticket {
	due := DueAt(start, priority)
	return &domain.Ticket{
		ID:         "t1",
		Status:     domain.TicketStatusEmAnalise,
		Priority:   priority,
		SLAStartAt: start,
		SLADueAt:   &due,
	}
}

func TestShouldAlertThreshold(t *testing.T) {
	start := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	ticket := activeTicket(start, domain.TicketPriorityAlta) // 24h window

	cases := []struct {
		name    string
		elapsed time.Duration
		want    bool
	}{
		{"just opened", 0, false},
		{"half window", 12 * time.Hour, false},
		{"just below threshold", 20*time.Hour + 23*time.Minute, false},
		{"exactly at threshold", 20*time.Hour + 24*time.Minute, true},
		{"above threshold", 23 * time.Hour, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ShouldAlert(ticket, start.Add(tc.elapsed)))
		})
	}
}

func TestShouldAlertSkipsTerminalAndOverdue(t *testing.T) {
	start := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	overdue := activeTicket(start, domain.TicketPriorityCritica)
	assert.False(t, ShouldAlert(overdue, start.Add(9*time.Hour)), "overdue tickets are not alerted")
	assert.False(t, ShouldAlert(overdue, start.Add(8*time.Hour)), "exactly due counts as overdue")

	closed := activeTicket(start, domain.TicketPriorityCritica)
	closed.Status = domain.TicketStatusFechado
	assert.False(t, ShouldAlert(closed, start.Add(7*time.Hour)))

	cancelled := activeTicket(start, domain.TicketPriorityCritica)
	cancelled.Status = domain.TicketStatusCancelado
	assert.False(t, ShouldAlert(cancelled, start.Add(7*time.Hour)))

	noDeadline := activeTicket(start, domain.TicketPriorityCritica)
	noDeadline.SLADueAt = nil
	assert.False(t, ShouldAlert(noDeadline, start.Add(7*time.Hour)))
}

func TestShouldAlertDegenerateWindow(t *testing.T) {
	start := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	ticket := activeTicket(start, domain.TicketPriorityAlta)
	// Due before the window start: never alert rather than divide into
	// a negative window.
	ticket.SLAStartAt = start.Add(48 * time.Hour)
	assert.False(t, ShouldAlert(ticket, start.Add(12*time.Hour)))
}
