package dto

import (
	"time"

	"github.com/helpdeskhq/helpdesk-service/internal/domain"
)

// RegisterAttachmentRequest records metadata for a file already uploaded
// to external storage.
type RegisterAttachmentRequest struct {
	FileName    string `json:"file_name" validate:"required"`
	ContentType string `json:"content_type" validate:"required"`
	SizeBytes   int64  `json:"size_bytes" validate:"gt=0"`
	StorageKey  string `json:"storage_key" validate:"required"`
	PublicURL   string `json:"public_url" validate:"omitempty,url"`
}

// AttachmentResponse mirrors attachment metadata.
type AttachmentResponse struct {
	ID          string    `json:"id"`
	TicketID    string    `json:"ticket_id"`
	UploaderID  *string   `json:"uploader_id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	StorageKey  string    `json:"storage_key"`
	PublicURL   string    `json:"public_url"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// NewAttachmentResponse maps the domain struct.
func NewAttachmentResponse(attachment *domain.Attachment) AttachmentResponse {
	return AttachmentResponse{
		ID:          attachment.ID,
		TicketID:    attachment.TicketID,
		UploaderID:  attachment.UploaderID,
		FileName:    attachment.FileName,
		ContentType: attachment.ContentType,
		SizeBytes:   attachment.SizeBytes,
		StorageKey:  attachment.StorageKey,
		PublicURL:   attachment.PublicURL,
		UploadedAt:  attachment.UploadedAt,
	}
}
