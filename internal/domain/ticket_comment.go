package domain

import (
	"fmt"
	"time"
)

// CommentVisibility differentiates public replies from internal notes.
type CommentVisibility string

const (
	CommentVisibilityPublic   CommentVisibility = "PUBLIC"
	CommentVisibilityInternal CommentVisibility = "INTERNAL"
)

// ParseCommentVisibility converts a raw string into a CommentVisibility.
func ParseCommentVisibility(raw string) (CommentVisibility, error) {
	visibility := CommentVisibility(raw)
	switch visibility {
	case CommentVisibilityPublic, CommentVisibilityInternal:
		return visibility, nil
	}
	return "", fmt.Errorf("unknown comment visibility %q", raw)
}

// TicketComment captures communications in a ticket thread.
type TicketComment struct {
	ID         string
	TicketID   string
	AuthorID   *string
	Visibility CommentVisibility
	Message    string
	CreatedAt  time.Time
}

// VisibleTo reports whether the given user may read this comment.
// Internal comments are restricted to ticket participants.
func (c *TicketComment) VisibleTo(user *User, ticket *Ticket) bool {
	if c.Visibility == CommentVisibilityPublic {
		return true
	}
	return ticket.IsParticipant(user)
}
