package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/helpdeskhq/helpdesk-service/internal/domain"
)

// TicketActionRepository reads the audit trail. Writes only happen inside
// ticket transactions, never standalone.
type TicketActionRepository interface {
	ListByTicket(ctx context.Context, ticketID string, limit, offset int) ([]domain.TicketAction, error)
}

type ticketActionRepository struct {
	pool *pgxpool.Pool
}

// NewTicketActionRepository instantiates repository.
func NewTicketActionRepository(pool *pgxpool.Pool) TicketActionRepository {
	return &ticketActionRepository{pool: pool}
}

func (r *ticketActionRepository) ListByTicket(ctx context.Context, ticketID string, limit, offset int) ([]domain.TicketAction, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT id, ticket_id, description, created_at
        FROM ticket_actions WHERE ticket_id=$1
        ORDER BY created_at ASC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, ticketID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketAction
	for rows.Next() {
		var action domain.TicketAction
		if err := rows.Scan(&action.ID, &action.TicketID, &action.Description, &action.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, action)
	}
	return result, rows.Err()
}
