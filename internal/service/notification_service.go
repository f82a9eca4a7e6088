package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/helpdeskhq/helpdesk-service/internal/config"
	"github.com/helpdeskhq/helpdesk-service/internal/domain"
	"github.com/helpdeskhq/helpdesk-service/internal/repository"
)

// Mailer sends a message to a set of recipients. Transport mechanics
// live behind this boundary.
type Mailer interface {
	Send(ctx context.Context, to []string, subject, body string) error
}

// LogMailer is the default Mailer: it only logs what would be sent.
type LogMailer struct {
	logger *zap.Logger
	from   string
}

// NewLogMailer constructs the logging mailer.
func NewLogMailer(logger *zap.Logger, cfg config.NotificationConfig) *LogMailer {
	return &LogMailer{logger: logger, from: cfg.EmailFrom}
}

// Send logs the outgoing message.
func (m *LogMailer) Send(ctx context.Context, to []string, subject, body string) error {
	m.logger.Info("sending email",
		zap.String("from", m.from),
		zap.Strings("to", to),
		zap.String("subject", subject),
		zap.String("body", body),
	)
	return nil
}

// NotificationService resolves ticket participants to email addresses
// and hands messages to the Mailer. All methods are best effort from
// the caller's perspective; the outbox worker owns retries.
type NotificationService struct {
	tickets repository.TicketRepository
	users   repository.UserRepository
	mailer  Mailer
	logger  *zap.Logger
}

// NewNotificationService constructs the service.
func NewNotificationService(tickets repository.TicketRepository, users repository.UserRepository, mailer Mailer, logger *zap.Logger) *NotificationService {
	return &NotificationService{tickets: tickets, users: users, mailer: mailer, logger: logger}
}

// NotifyTicketAction emails the ticket participants about one audit
// entry, plus any extra recipients the operation named.
func (n *NotificationService) NotifyTicketAction(ctx context.Context, ticketID, description string, extraEmails []string) error {
	ticket, err := n.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return fmt.Errorf("load ticket %s: %w", ticketID, err)
	}
	recipients := n.participantEmails(ctx, ticket, extraEmails)
	if len(recipients) == 0 {
		n.logger.Debug("no recipients for ticket action", zap.String("ticket_id", ticketID))
		return nil
	}
	subject := fmt.Sprintf("[%s] ticket update", ticket.Title)
	return n.mailer.Send(ctx, recipients, subject, description)
}

// NotifySlaAlert emails the ticket participants that the SLA window is
// nearly consumed.
func (n *NotificationService) NotifySlaAlert(ctx context.Context, ticketID string) error {
	ticket, err := n.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return fmt.Errorf("load ticket %s: %w", ticketID, err)
	}
	recipients := n.participantEmails(ctx, ticket, nil)
	if len(recipients) == 0 {
		n.logger.Debug("no recipients for sla alert", zap.String("ticket_id", ticketID))
		return nil
	}
	subject := fmt.Sprintf("[%s] SLA deadline approaching", ticket.Title)
	body := fmt.Sprintf("ticket %s is close to its SLA deadline", ticket.ID)
	if ticket.SLADueAt != nil {
		body = fmt.Sprintf("ticket %s is due at %s", ticket.ID, ticket.SLADueAt.Format("2006-01-02 15:04"))
	}
	return n.mailer.Send(ctx, recipients, subject, body)
}

func (n *NotificationService) participantEmails(ctx context.Context, ticket *domain.Ticket, extra []string) []string {
	seen := make(map[string]struct{})
	var recipients []string
	add := func(email string) {
		if email == "" {
			return
		}
		if _, dup := seen[email]; dup {
			return
		}
		seen[email] = struct{}{}
		recipients = append(recipients, email)
	}

	for _, userID := range []*string{ticket.RequesterID, ticket.AssigneeID} {
		if userID == nil {
			continue
		}
		user, err := n.users.GetByID(ctx, *userID)
		if err != nil {
			if !errors.Is(err, pgx.ErrNoRows) {
				n.logger.Warn("resolve participant failed", zap.String("user_id", *userID), zap.Error(err))
			}
			continue
		}
		add(user.Email)
	}
	for _, email := range extra {
		add(email)
	}
	return recipients
}
