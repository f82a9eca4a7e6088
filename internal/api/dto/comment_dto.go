package dto

import (
	"time"

	"github.com/helpdeskhq/helpdesk-service/internal/domain"
)

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Visibility string `json:"visibility" validate:"required"`
	Message    string `json:"message" validate:"required,max=4000"`
}

// EditCommentRequest payload.
type EditCommentRequest struct {
	Message string `json:"message" validate:"required,max=4000"`
}

// CommentResponse mirrors a ticket comment.
type CommentResponse struct {
	ID         string    `json:"id"`
	TicketID   string    `json:"ticket_id"`
	AuthorID   *string   `json:"author_id"`
	Visibility string    `json:"visibility"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewCommentResponse maps the domain struct.
func NewCommentResponse(comment *domain.TicketComment) CommentResponse {
	return CommentResponse{
		ID:         comment.ID,
		TicketID:   comment.TicketID,
		AuthorID:   comment.AuthorID,
		Visibility: string(comment.Visibility),
		Message:    comment.Message,
		CreatedAt:  comment.CreatedAt,
	}
}
