package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/helpdeskhq/helpdesk-service/internal/outbox"
)

// OutboxRepository manages queued notifications. Lifecycle transactions
// insert rows through TicketRepository; the SLA monitor and the worker
// use this surface.
type OutboxRepository interface {
	Enqueue(ctx context.Context, msg *outbox.Message) error
	ListPending(ctx context.Context, limit int) ([]outbox.Message, error)
	MarkSent(ctx context.Context, id string, at time.Time) error
	MarkFailed(ctx context.Context, id string, terminal bool) error
}

type outboxRepository struct {
	pool *pgxpool.Pool
}

// NewOutboxRepository instantiates repository.
func NewOutboxRepository(pool *pgxpool.Pool) OutboxRepository {
	return &outboxRepository{pool: pool}
}

func (r *outboxRepository) Enqueue(ctx context.Context, msg *outbox.Message) error {
	const query = `
        INSERT INTO notification_outbox (id, kind, ticket_id, description, extra_emails, status, attempts, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	_, err := r.pool.Exec(ctx, query,
		msg.ID,
		msg.Kind,
		msg.TicketID,
		msg.Description,
		msg.ExtraEmails,
		msg.Status,
		msg.Attempts,
		msg.CreatedAt,
	)
	return err
}

func (r *outboxRepository) ListPending(ctx context.Context, limit int) ([]outbox.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
        SELECT id, kind, ticket_id, description, extra_emails, status, attempts, created_at, sent_at
        FROM notification_outbox WHERE status=$1 ORDER BY created_at ASC LIMIT $2`
	rows, err := r.pool.Query(ctx, query, outbox.StatusPending, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []outbox.Message
	for rows.Next() {
		var msg outbox.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.Kind,
			&msg.TicketID,
			&msg.Description,
			&msg.ExtraEmails,
			&msg.Status,
			&msg.Attempts,
			&msg.CreatedAt,
			&msg.SentAt,
		); err != nil {
			return nil, err
		}
		result = append(result, msg)
	}
	return result, rows.Err()
}

func (r *outboxRepository) MarkSent(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE notification_outbox SET status=$1, sent_at=$2 WHERE id=$3`
	_, err := r.pool.Exec(ctx, query, outbox.StatusSent, at, id)
	return err
}

func (r *outboxRepository) MarkFailed(ctx context.Context, id string, terminal bool) error {
	status := outbox.StatusPending
	if terminal {
		status = outbox.StatusFailed
	}
	const query = `UPDATE notification_outbox SET attempts=attempts+1, status=$1 WHERE id=$2`
	_, err := r.pool.Exec(ctx, query, status, id)
	return err
}
