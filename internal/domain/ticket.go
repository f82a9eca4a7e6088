package domain

import (
	"fmt"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusNovo        TicketStatus = "NOVO"
	TicketStatusEmAnalise   TicketStatus = "EM_ANALISE"
	TicketStatusEmAndamento TicketStatus = "EM_ANDAMENTO"
	TicketStatusResolvido   TicketStatus = "RESOLVIDO"
	TicketStatusFechado     TicketStatus = "FECHADO"
	TicketStatusCancelado   TicketStatus = "CANCELADO"
)

// ParseTicketStatus converts a raw string into a TicketStatus.
func ParseTicketStatus(raw string) (TicketStatus, error) {
	status := TicketStatus(raw)
	switch status {
	case TicketStatusNovo, TicketStatusEmAnalise, TicketStatusEmAndamento,
		TicketStatusResolvido, TicketStatusFechado, TicketStatusCancelado:
		return status, nil
	}
	return "", fmt.Errorf("unknown ticket status %q", raw)
}

// IsTerminal reports whether the status ends the ticket workflow.
func (s TicketStatus) IsTerminal() bool {
	return s == TicketStatusFechado || s == TicketStatusCancelado
}

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityBaixa   TicketPriority = "BAIXA"
	TicketPriorityMedia   TicketPriority = "MEDIA"
	TicketPriorityAlta    TicketPriority = "ALTA"
	TicketPriorityCritica TicketPriority = "CRITICA"
)

// ParseTicketPriority converts a raw string into a TicketPriority.
func ParseTicketPriority(raw string) (TicketPriority, error) {
	priority := TicketPriority(raw)
	if priority.Valid() {
		return priority, nil
	}
	return "", fmt.Errorf("unknown ticket priority %q", raw)
}

// Valid reports whether the priority is one of the four known values.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityBaixa, TicketPriorityMedia, TicketPriorityAlta, TicketPriorityCritica:
		return true
	}
	return false
}

// Field length limits enforced by the services.
const (
	MaxTitleLength             = 180
	MaxActionDescriptionLength = 600
	MaxCommentMessageLength    = 4000
)

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID          string
	Title       string
	Description string
	Status      TicketStatus
	Priority    TicketPriority
	RequesterID *string
	AssigneeID  *string
	CategoryID  *string
	CreatedAt   time.Time
	SLAStartAt  time.Time
	SLADueAt    *time.Time
	AssignedAt  *time.Time
	ClosedAt    *time.Time
	Version     int64
}

// IsActive reports whether the ticket still accepts workflow operations.
func (t *Ticket) IsActive() bool {
	return !t.Status.IsTerminal()
}

// IsParticipant reports whether the user takes part in this ticket:
// a Manager, the current requester, or the current assignee.
func (t *Ticket) IsParticipant(user *User) bool {
	if user == nil {
		return false
	}
	if user.Role == UserRoleManager {
		return true
	}
	if t.RequesterID != nil && *t.RequesterID == user.ID {
		return true
	}
	if t.AssigneeID != nil && *t.AssigneeID == user.ID {
		return true
	}
	return false
}
