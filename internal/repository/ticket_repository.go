package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/helpdeskhq/helpdesk-service/internal/domain"
	"github.com/helpdeskhq/helpdesk-service/internal/outbox"
)

// ErrVersionConflict signals that a ticket row changed between the read
// and the guarded write of a mutation.
var ErrVersionConflict = errors.New("ticket modified concurrently")

// TicketFilter captures listing parameters.
type TicketFilter struct {
	RequesterID *string
	AssigneeID  *string
	CategoryID  *string
	Statuses    []domain.TicketStatus
	Priorities  []domain.TicketPriority
	SearchTerm  *string
	Limit       int
	Offset      int
}

// TicketChange bundles everything one lifecycle mutation writes: the new
// ticket state, its audit entries, an optional reason comment and queued
// notifications. ApplyChange commits all of it atomically.
type TicketChange struct {
	Ticket  *domain.Ticket
	Actions []domain.TicketAction
	Comment *domain.TicketComment
	Outbox  []outbox.Message
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket, action *domain.TicketAction, messages []outbox.Message) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	ListActive(ctx context.Context, now time.Time) ([]domain.Ticket, error)
	ApplyChange(ctx context.Context, change TicketChange) error
	CountByCategory(ctx context.Context, categoryID string) (int64, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, title, description, status, priority, requester_id, assignee_id, category_id,
        created_at, sla_start_at, sla_due_at, assigned_at, closed_at, version`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket, action *domain.TicketAction, messages []outbox.Message) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const query = `
            INSERT INTO tickets (id, title, description, status, priority, requester_id, assignee_id, category_id,
                created_at, sla_start_at, sla_due_at, assigned_at, closed_at, version)
            VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`
		if _, err := tx.Exec(ctx, query,
			ticket.ID,
			ticket.Title,
			ticket.Description,
			ticket.Status,
			ticket.Priority,
			ticket.RequesterID,
			ticket.AssigneeID,
			ticket.CategoryID,
			ticket.CreatedAt,
			ticket.SLAStartAt,
			ticket.SLADueAt,
			ticket.AssignedAt,
			ticket.ClosedAt,
			ticket.Version,
		); err != nil {
			return err
		}
		if action != nil {
			if err := insertAction(ctx, tx, action); err != nil {
				return err
			}
		}
		for i := range messages {
			if err := insertOutbox(ctx, tx, &messages[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// ApplyChange persists a lifecycle mutation in one transaction. The
// UPDATE is guarded by the version read with the snapshot; a stale
// snapshot yields ErrVersionConflict and nothing is written.
func (r *ticketRepository) ApplyChange(ctx context.Context, change TicketChange) error {
	ticket := change.Ticket
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const query = `
            UPDATE tickets SET title=$1, description=$2, status=$3, priority=$4, requester_id=$5,
                assignee_id=$6, category_id=$7, sla_start_at=$8, sla_due_at=$9, assigned_at=$10,
                closed_at=$11, version=version+1
            WHERE id=$12 AND version=$13`
		cmd, err := tx.Exec(ctx, query,
			ticket.Title,
			ticket.Description,
			ticket.Status,
			ticket.Priority,
			ticket.RequesterID,
			ticket.AssigneeID,
			ticket.CategoryID,
			ticket.SLAStartAt,
			ticket.SLADueAt,
			ticket.AssignedAt,
			ticket.ClosedAt,
			ticket.ID,
			ticket.Version,
		)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return ErrVersionConflict
		}
		for i := range change.Actions {
			if err := insertAction(ctx, tx, &change.Actions[i]); err != nil {
				return err
			}
		}
		if change.Comment != nil {
			if err := insertComment(ctx, tx, change.Comment); err != nil {
				return err
			}
		}
		for i := range change.Outbox {
			if err := insertOutbox(ctx, tx, &change.Outbox[i]); err != nil {
				return err
			}
		}
		ticket.Version++
		return nil
	})
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1`, ticketColumns)
	var ticket domain.Ticket
	if err := scanTicket(r.pool.QueryRow(ctx, query, id), &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

// ListActive returns tickets the SLA monitor cares about: a deadline is
// set and still ahead, and the workflow has not terminated.
func (r *ticketRepository) ListActive(ctx context.Context, now time.Time) ([]domain.Ticket, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM tickets
        WHERE sla_due_at IS NOT NULL AND sla_due_at > $1 AND status NOT IN ($2, $3)
        ORDER BY sla_due_at ASC`, ticketColumns)
	rows, err := r.pool.Query(ctx, query, now, domain.TicketStatusFechado, domain.TicketStatusCancelado)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.RequesterID != nil {
		args = append(args, *filter.RequesterID)
		clauses = append(clauses, fmt.Sprintf("requester_id=$%d", len(args)))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("assignee_id=$%d", len(args)))
	}
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		clauses = append(clauses, fmt.Sprintf("category_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(description) LIKE %s)", placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		ticketColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) CountByCategory(ctx context.Context, categoryID string) (int64, error) {
	const query = `SELECT COUNT(*) FROM tickets WHERE category_id=$1 AND status NOT IN ($2, $3)`
	var count int64
	err := r.pool.QueryRow(ctx, query, categoryID, domain.TicketStatusFechado, domain.TicketStatusCancelado).Scan(&count)
	return count, err
}

func scanTicket(row pgx.Row, ticket *domain.Ticket) error {
	return row.Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Status,
		&ticket.Priority,
		&ticket.RequesterID,
		&ticket.AssigneeID,
		&ticket.CategoryID,
		&ticket.CreatedAt,
		&ticket.SLAStartAt,
		&ticket.SLADueAt,
		&ticket.AssignedAt,
		&ticket.ClosedAt,
		&ticket.Version,
	)
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := scanTicket(rows, &ticket); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}

func insertAction(ctx context.Context, tx pgx.Tx, action *domain.TicketAction) error {
	const query = `
        INSERT INTO ticket_actions (id, ticket_id, description, created_at)
        VALUES ($1,$2,$3,$4)`
	_, err := tx.Exec(ctx, query, action.ID, action.TicketID, action.Description, action.CreatedAt)
	return err
}

func insertComment(ctx context.Context, tx pgx.Tx, comment *domain.TicketComment) error {
	const query = `
        INSERT INTO ticket_comments (id, ticket_id, author_id, visibility, message, created_at)
        VALUES ($1,$2,$3,$4,$5,$6)`
	_, err := tx.Exec(ctx, query,
		comment.ID,
		comment.TicketID,
		comment.AuthorID,
		comment.Visibility,
		comment.Message,
		comment.CreatedAt,
	)
	return err
}

func insertOutbox(ctx context.Context, tx pgx.Tx, msg *outbox.Message) error {
	const query = `
        INSERT INTO notification_outbox (id, kind, ticket_id, description, extra_emails, status, attempts, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	_, err := tx.Exec(ctx, query,
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
