// Package sla holds the pure SLA policy: priority to resolution window
// mapping and the alert threshold evaluation used by the monitor.
package sla

import (
	"time"

	"github.com/helpdeskhq/helpdesk-service/internal/domain"
)

// AlertThreshold is the fraction of the SLA window after which a ticket
// qualifies for an alert every monitor cycle.
const AlertThreshold = 0.85

// DurationFor maps a priority to its resolution window. Unknown values
// fall back to the widest window.
func DurationFor(priority domain.TicketPriority) time.Duration {
	switch priority {
	case domain.TicketPriorityCritica:
		return 8 * time.Hour
	case domain.TicketPriorityAlta:
		return 24 * time.Hour
	case domain.TicketPriorityMedia:
		return 48 * time.Hour
	default:
		return 72 * time.Hour
	}
}

// DueAt computes the SLA deadline for a window starting at start.
func DueAt(start time.Time, priority domain.TicketPriority) time.Time {
	return start.Add(DurationFor(priority))
}

// ShouldAlert reports whether the ticket has consumed at least
// AlertThreshold of its SLA window at the given instant. Terminal
// tickets, tickets without a deadline, overdue tickets and degenerate
// windows never alert; the monitor's fetch already filters most of
// these, the checks here are defensive.
func ShouldAlert(ticket *domain.Ticket, now time.Time) bool {
	if ticket.SLADueAt == nil || ticket.Status.IsTerminal() {
		return false
	}
	due := *ticket.SLADueAt
	if !due.After(now) {
		return false
	}
	window := due.Sub(ticket.SLAStartAt)
	if window <= 0 {
		return false
	}
	elapsed := now.Sub(ticket.SLAStartAt)
	return float64(elapsed)/float64(window) >= AlertThreshold
}
