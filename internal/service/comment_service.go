package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/helpdeskhq/helpdesk-service/internal/directory"
	"github.com/helpdeskhq/helpdesk-service/internal/domain"
	"github.com/helpdeskhq/helpdesk-service/internal/repository"
	apperrors "github.com/helpdeskhq/helpdesk-service/pkg/util"
)

// editedPrefix marks a comment whose message was replaced by its author.
const editedPrefix = "edited: "

// CommentService enforces comment visibility and authorship rules.
type CommentService struct {
	comments repository.TicketCommentRepository
	tickets  repository.TicketRepository
	users    directory.UserDirectory
}

// NewCommentService constructs the service.
func NewCommentService(comments repository.TicketCommentRepository, tickets repository.TicketRepository, users directory.UserDirectory) *CommentService {
	return &CommentService{comments: comments, tickets: tickets, users: users}
}

// Add creates a comment on an active ticket. Internal comments require
// the author to be a ticket participant; public comments only require a
// resolved caller.
func (s *CommentService) Add(ctx context.Context, actorID, ticketID string, visibility domain.CommentVisibility, message string) (*domain.TicketComment, error) {
	actor, ticket, err := s.actorAndTicket(ctx, actorID, ticketID)
	if err != nil {
		return nil, err
	}
	if !ticket.IsActive() {
		return nil, apperrors.NewValidationError("comments are not allowed on closed or cancelled tickets", nil)
	}
	if visibility == domain.CommentVisibilityInternal && !ticket.IsParticipant(actor) {
		return nil, apperrors.NewForbidden("internal comments are restricted to ticket participants")
	}
	message, err = validateMessage(message)
	if err != nil {
		return nil, err
	}

	comment := &domain.TicketComment{
		ID:         uuid.NewString(),
		TicketID:   ticket.ID,
		AuthorID:   &actor.ID,
		Visibility: visibility,
		Message:    message,
		CreatedAt:  time.Now(),
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperrors.MapError(err)
	}
	return comment, nil
}

// Edit replaces the message of the author's own comment. The new
// content must differ from the current one; the stored message carries
// the edited marker and a refreshed timestamp.
func (s *CommentService) Edit(ctx context.Context, actorID, commentID, message string) (*domain.TicketComment, error) {
	actor, comment, ticket, err := s.actorAndComment(ctx, actorID, commentID)
	if err != nil {
		return nil, err
	}
	if !ticket.IsActive() {
		return nil, apperrors.NewValidationError("comments are not allowed on closed or cancelled tickets", nil)
	}
	if comment.AuthorID == nil || *comment.AuthorID != actor.ID {
		return nil, apperrors.NewForbidden("only the comment author may edit it")
	}
	message, err = validateMessage(message)
	if err != nil {
		return nil, err
	}
	if message == comment.Message || editedPrefix+message == comment.Message {
		return nil, apperrors.NewValidationError("new message must differ from the current one", nil)
	}

	now := time.Now()
	// The marker counts against the column limit too; clip so a
	// maximum-length replacement still fits after prefixing.
	comment.Message = clip(editedPrefix+message, domain.MaxCommentMessageLength)
	comment.CreatedAt = now
	if err := s.comments.UpdateMessage(ctx, comment.ID, comment.Message, now); err != nil {
		return nil, apperrors.MapError(err)
	}
	return comment, nil
}

// Delete removes the author's own comment from an active ticket.
func (s *CommentService) Delete(ctx context.Context, actorID, commentID string) error {
	actor, comment, ticket, err := s.actorAndComment(ctx, actorID, commentID)
	if err != nil {
		return err
	}
	if !ticket.IsActive() {
		return apperrors.NewValidationError("comments are not allowed on closed or cancelled tickets", nil)
	}
	if comment.AuthorID == nil || *comment.AuthorID != actor.ID {
		return apperrors.NewForbidden("only the comment author may delete it")
	}
	if err := s.comments.Delete(ctx, comment.ID); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// ListForTicket returns the comments the caller may read: everything
// for participants, public comments only for everyone else.
func (s *CommentService) ListForTicket(ctx context.Context, actorID, ticketID string) ([]domain.TicketComment, error) {
	actor, ticket, err := s.actorAndTicket(ctx, actorID, ticketID)
	if err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	visible := make([]domain.TicketComment, 0, len(comments))
	for _, comment := range comments {
		if comment.VisibleTo(actor, ticket) {
			visible = append(visible, comment)
		}
	}
	return visible, nil
}

func (s *CommentService) actorAndTicket(ctx context.Context, actorID, ticketID string) (*domain.User, *domain.Ticket, error) {
	actor, err := s.users.FindUser(ctx, actorID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	if actor == nil {
		return nil, nil, apperrors.NewUnauthorized("caller identity could not be resolved")
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, nil, apperrors.MapError(err)
	}
	return actor, ticket, nil
}

func (s *CommentService) actorAndComment(ctx context.Context, actorID, commentID string) (*domain.User, *domain.TicketComment, *domain.Ticket, error) {
	actor, err := s.users.FindUser(ctx, actorID)
	if err != nil {
		return nil, nil, nil, apperrors.MapError(err)
	}
	if actor == nil {
		return nil, nil, nil, apperrors.NewUnauthorized("caller identity could not be resolved")
	}
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, nil, apperrors.NewNotFound("comment", map[string]any{"comment_id": commentID})
		}
		return nil, nil, nil, apperrors.MapError(err)
	}
	ticket, err := s.tickets.GetByID(ctx, comment.TicketID)
	if err != nil {
		return nil, nil, nil, apperrors.MapError(err)
	}
	return actor, comment, ticket, nil
}

func validateMessage(message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", apperrors.NewValidationError("message is required", nil)
	}
	if utf8.RuneCountInString(message) > domain.MaxCommentMessageLength {
		return "", apperrors.NewValidationError(fmt.Sprintf("message exceeds %d characters", domain.MaxCommentMessageLength), nil)
	}
	return message, nil
}
