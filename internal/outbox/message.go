// Package outbox defines the transactional notification queue. Lifecycle
// transactions enqueue messages together with the business rows; a worker
// drains them out of band so dispatch latency and failures never touch
// the request path.
package outbox

import (
	"time"

	"github.com/google/uuid"
)

// Kind enumerates supported message kinds.
type Kind string

const (
	KindTicketAction Kind = "TICKET_ACTION"
	KindSLAAlert     Kind = "SLA_ALERT"
)

// Status enumerates delivery states of a message.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusSent    Status = "SENT"
	StatusFailed  Status = "FAILED"
)

// Message is one queued notification.
type Message struct {
	ID          string
	Kind        Kind
	TicketID    string
	Description string
	ExtraEmails []string
	Status      Status
	Attempts    int
	CreatedAt   time.Time
	SentAt      *time.Time
}

// NewTicketAction builds a pending ticket-action notification.
func NewTicketAction(ticketID, description string, extraEmails ...string) Message {
	return Message{
		ID:          uuid.NewString(),
		Kind:        KindTicketAction,
		TicketID:    ticketID,
		Description: description,
		ExtraEmails: extraEmails,
		Status:      StatusPending,
		CreatedAt:   time.Now(),
	}
}

// NewSLAAlert builds a pending SLA-alert notification.
func NewSLAAlert(ticketID string) Message {
	return Message{
		ID:        uuid.NewString(),
		Kind:      KindSLAAlert,
		TicketID:  ticketID,
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}
}
