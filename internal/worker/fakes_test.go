package worker

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/helpdeskhq/helpdesk-service/internal/domain"
	"github.com/helpdeskhq/helpdesk-service/internal/outbox"
	"github.com/helpdeskhq/helpdesk-service/internal/repository"
)

// stubTicketRepo serves ListActive from a fixed slice; the workers never
// touch the other methods.
type stubTicketRepo struct {
	active  []domain.Ticket
	listErr error
}

func (r *stubTicketRepo) Create(ctx context.Context, ticket *domain.Ticket, action *domain.TicketAction, messages []outbox.Message) error {
	return nil
}

func (r *stubTicketRepo) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	return nil, pgx.ErrNoRows
}

func (r *stubTicketRepo) ListWithFilter(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	return nil, nil
}

func (r *stubTicketRepo) ListActive(ctx context.Context, now time.Time) ([]domain.Ticket, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.active, nil
}

func (r *stubTicketRepo) ApplyChange(ctx context.Context, change repository.TicketChange) error {
	return nil
}

func (r *stubTicketRepo) CountByCategory(ctx context.Context, categoryID string) (int64, error) {
	return 0, nil
}

// memOutbox is an in-memory repository.OutboxRepository.
type memOutbox struct {
	messages []outbox.Message
}

func (q *memOutbox) Enqueue(ctx context.Context, msg *outbox.Message) error {
	q.messages = append(q.messages, *msg)
	return nil
}

func (q *memOutbox) ListPending(ctx context.Context, limit int) ([]outbox.Message, error) {
	var pending []outbox.Message
	for _, msg := range q.messages {
		if msg.Status == outbox.StatusPending {
			pending = append(pending, msg)
			if len(pending) == limit {
				break
			}
		}
	}
	return pending, nil
}

func (q *memOutbox) MarkSent(ctx context.Context, id string, at time.Time) error {
	for i := range q.messages {
		if q.messages[i].ID == id {
			q.messages[i].Status = outbox.StatusSent
			q.messages[i].SentAt = &at
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (q *memOutbox) MarkFailed(ctx context.Context, id string, terminal bool) error {
	for i := range q.messages {
		if q.messages[i].ID == id {
			q.messages[i].Attempts++
			if terminal {
				q.messages[i].Status = outbox.StatusFailed
			}
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (q *memOutbox) pendingCount() int {
	count := 0
	for _, msg := range q.messages {
		if msg.Status == outbox.StatusPending {
			count++
		}
	}
	return count
}

// recordingNotifier counts dispatches and can be told to fail.
type recordingNotifier struct {
	actions []string
	alerts  []string
	err     error
}

func (n *recordingNotifier) NotifyTicketAction(ctx context.Context, ticketID, description string, extraEmails []string) error {
	if n.err != nil {
		return n.err
	}
	n.actions = append(n.actions, ticketID)
	return nil
}

func (n *recordingNotifier) NotifySlaAlert(ctx context.Context, ticketID string) error {
	if n.err != nil {
		return n.err
	}
	n.alerts = append(n.alerts, ticketID)
	return nil
}
