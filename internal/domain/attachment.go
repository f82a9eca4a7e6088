package domain

import "time"

// Attachment stores metadata for a file attached to a ticket. The blob
// itself lives in external storage addressed by StorageKey.
type Attachment struct {
	ID          string
	TicketID    string
	UploaderID  *string
	FileName    string
	ContentType string
	SizeBytes   int64
	StorageKey  string
	PublicURL   string
	UploadedAt  time.Time
}
