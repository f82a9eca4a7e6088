package domain

import "time"

// TicketAction is an immutable audit trail entry tied to a ticket.
// Entries are only ever written as a side effect of a lifecycle operation.
type TicketAction struct {
	ID          string
	TicketID    string
	Description string
	CreatedAt   time.Time
}
