package dto

import (
	"time"

	"github.com/helpdeskhq/helpdesk-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string `json:"title" validate:"required,max=180"`
	Description string `json:"description" validate:"required"`
	Priority    string `json:"priority" validate:"required"`
	CategoryID  string `json:"category_id" validate:"required"`
}

// UpdateTicketRequest payload; absent fields are untouched.
type UpdateTicketRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=180"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
	CategoryID  *string `json:"category_id"`
}

// AssignTicketRequest payload.
type AssignTicketRequest struct {
	AssigneeID string `json:"assignee_id" validate:"required"`
}

// ChangeRequesterRequest payload.
type ChangeRequesterRequest struct {
	RequesterID string `json:"requester_id" validate:"required"`
}

// ChangeStatusRequest payload.
type ChangeStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// ReasonRequest payload for reopen and cancel.
type ReasonRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// TicketResponse mirrors the ticket aggregate.
type TicketResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	RequesterID *string    `json:"requester_id"`
	AssigneeID  *string    `json:"assignee_id"`
	CategoryID  *string    `json:"category_id"`
	CreatedAt   time.Time  `json:"created_at"`
	SLAStartAt  time.Time  `json:"sla_start_at"`
	SLADueAt    *time.Time `json:"sla_due_at"`
	AssignedAt  *time.Time `json:"assigned_at"`
	ClosedAt    *time.Time `json:"closed_at"`
}

// NewTicketResponse maps the domain struct.
func NewTicketResponse(ticket *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:          ticket.ID,
		Title:       ticket.Title,
		Description: ticket.Description,
		Status:      string(ticket.Status),
		Priority:    string(ticket.Priority),
		RequesterID: ticket.RequesterID,
		AssigneeID:  ticket.AssigneeID,
		CategoryID:  ticket.CategoryID,
		CreatedAt:   ticket.CreatedAt,
		SLAStartAt:  ticket.SLAStartAt,
		SLADueAt:    ticket.SLADueAt,
		AssignedAt:  ticket.AssignedAt,
		ClosedAt:    ticket.ClosedAt,
	}
}

// TicketActionResponse mirrors one audit entry.
type TicketActionResponse struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewTicketActionResponse maps the domain struct.
func NewTicketActionResponse(action *domain.TicketAction) TicketActionResponse {
	return TicketActionResponse{
		ID:          action.ID,
		Description: action.Description,
		CreatedAt:   action.CreatedAt,
	}
}
