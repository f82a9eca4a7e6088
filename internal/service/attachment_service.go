package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/helpdeskhq/helpdesk-service/internal/directory"
	"github.com/helpdeskhq/helpdesk-service/internal/domain"
	"github.com/helpdeskhq/helpdesk-service/internal/repository"
	apperrors "github.com/helpdeskhq/helpdesk-service/pkg/util"
)

// AttachmentService stores attachment metadata. The blob itself is
// uploaded to external storage by the edge; only its key and URL land
// here.
type AttachmentService struct {
	attachments repository.AttachmentRepository
	tickets     repository.TicketRepository
	users       directory.UserDirectory
}

// NewAttachmentService constructs the service.
func NewAttachmentService(attachments repository.AttachmentRepository, tickets repository.TicketRepository, users directory.UserDirectory) *AttachmentService {
	return &AttachmentService{attachments: attachments, tickets: tickets, users: users}
}

// AttachmentInput describes attachment metadata to register.
type AttachmentInput struct {
	FileName    string
	ContentType string
	SizeBytes   int64
	StorageKey  string
	PublicURL   string
}

// Register records attachment metadata on an active ticket. Only ticket
// participants may attach files.
func (s *AttachmentService) Register(ctx context.Context, actorID, ticketID string, input AttachmentInput) (*domain.Attachment, error) {
	actor, ticket, err := s.actorAndTicket(ctx, actorID, ticketID)
	if err != nil {
		return nil, err
	}
	if !ticket.IsActive() {
		return nil, apperrors.NewValidationError("attachments are not allowed on closed or cancelled tickets", nil)
	}
	if !ticket.IsParticipant(actor) {
		return nil, apperrors.NewForbidden("only ticket participants can attach files")
	}
	if strings.TrimSpace(input.FileName) == "" {
		return nil, apperrors.NewValidationError("file name is required", nil)
	}
	if strings.TrimSpace(input.StorageKey) == "" {
		return nil, apperrors.NewValidationError("storage key is required", nil)
	}
	if input.SizeBytes <= 0 {
		return nil, apperrors.NewValidationError("size must be positive", nil)
	}

	attachment := &domain.Attachment{
		ID:          uuid.NewString(),
		TicketID:    ticket.ID,
		UploaderID:  &actor.ID,
		FileName:    strings.TrimSpace(input.FileName),
		ContentType: input.ContentType,
		SizeBytes:   input.SizeBytes,
		StorageKey:  input.StorageKey,
		PublicURL:   input.PublicURL,
		UploadedAt:  time.Now(),
	}
	if err := s.attachments.Create(ctx, attachment); err != nil {
		return nil, apperrors.MapError(err)
	}
	return attachment, nil
}

// ListByTicket returns attachment metadata for a ticket.
func (s *AttachmentService) ListByTicket(ctx context.Context, actorID, ticketID string) ([]domain.Attachment, error) {
	_, _, err := s.actorAndTicket(ctx, actorID, ticketID)
	if err != nil {
		return nil, err
	}
	attachments, err := s.attachments.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return attachments, nil
}

// Delete removes attachment metadata; allowed to the uploader or a
// Manager.
func (s *AttachmentService) Delete(ctx context.Context, actorID, attachmentID string) error {
	actor, err := s.users.FindUser(ctx, actorID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if actor == nil {
		return apperrors.NewUnauthorized("caller identity could not be resolved")
	}
	attachment, err := s.attachments.GetByID(ctx, attachmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("attachment", map[string]any{"attachment_id": attachmentID})
		}
		return apperrors.MapError(err)
	}
	owner := attachment.UploaderID != nil && *attachment.UploaderID == actor.ID
	if !owner && actor.Role != domain.UserRoleManager {
		return apperrors.NewForbidden("only the uploader or a Manager can delete an attachment")
	}
	if err := s.attachments.Delete(ctx, attachment.ID); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

func (s *AttachmentService) actorAndTicket(ctx context.Context, actorID, ticketID string) (*domain.User, *domain.Ticket, error) {
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
