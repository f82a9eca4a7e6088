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
	"github.com/helpdeskhq/helpdesk-service/internal/outbox"
	"github.com/helpdeskhq/helpdesk-service/internal/repository"
	"github.com/helpdeskhq/helpdesk-service/internal/sla"
	apperrors "github.com/helpdeskhq/helpdesk-service/pkg/util"
)

// validWorkflowChain is quoted back to operators on rejected transitions.
const validWorkflowChain = "NOVO -> EM_ANALISE -> EM_ANDAMENTO -> RESOLVIDO -> FECHADO"

// workflowTransitions holds the only forward edges reachable through
// ChangeStatus. Cancellation and reopening have dedicated operations.
var workflowTransitions = map[domain.TicketStatus]domain.TicketStatus{
	domain.TicketStatusEmAnalise:   domain.TicketStatusEmAndamento,
	domain.TicketStatusEmAndamento: domain.TicketStatusResolvido,
	domain.TicketStatusResolvido:   domain.TicketStatusFechado,
}

// TicketService is the ticket lifecycle engine: it owns the ticket
// record, enforces role and ownership checks, executes transitions,
// recalculates the SLA window and couples every mutation with its audit
// entries and queued notifications in a single transaction.
type TicketService struct {
	tickets    repository.TicketRepository
	actions    repository.TicketActionRepository
	users      directory.UserDirectory
	categories directory.CategoryDirectory
}

// TicketDependencies bundles collaborators for the lifecycle engine.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	ActionRepo repository.TicketActionRepository
	Users      directory.UserDirectory
	Categories directory.CategoryDirectory
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		actions:    deps.ActionRepo,
		users:      deps.Users,
		categories: deps.Categories,
	}
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Priority    domain.TicketPriority
	CategoryID  string
}

// TicketUpdateInput carries a partial update; nil fields are untouched.
type TicketUpdateInput struct {
	Title       *string
	Description *string
	Priority    *domain.TicketPriority
	CategoryID  *string
}

// TicketListFilter describes listing parameters.
type TicketListFilter struct {
	RequesterID *string
	AssigneeID  *string
	CategoryID  *string
	Statuses    []domain.TicketStatus
	Priorities  []domain.TicketPriority
	SearchTerm  *string
	Limit       int
	Offset      int
}

// Create opens a new ticket for the acting Requester or Manager.
func (s *TicketService) Create(ctx context.Context, actorID string, input TicketCreateInput) (*domain.Ticket, error) {
	actor, err := s.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if actor.Role != domain.UserRoleRequester && actor.Role != domain.UserRoleManager {
		return nil, apperrors.NewForbidden("only a Requester or Manager can open tickets")
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title is required", nil)
	}
	if utf8.RuneCountInString(title) > domain.MaxTitleLength {
		return nil, apperrors.NewValidationError(fmt.Sprintf("title exceeds %d characters", domain.MaxTitleLength), nil)
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, apperrors.NewValidationError("description is required", nil)
	}
	if !input.Priority.Valid() {
		return nil, apperrors.NewValidationError("priority must be one of BAIXA, MEDIA, ALTA, CRITICA", nil)
	}
	exists, err := s.categories.CategoryExists(ctx, input.CategoryID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !exists {
		return nil, apperrors.NewNotFound("category", map[string]any{"category_id": input.CategoryID})
	}

	now := time.Now()
	dueAt := sla.DueAt(now, input.Priority)
	categoryID := input.CategoryID
	ticket := &domain.Ticket{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Status:      domain.TicketStatusNovo,
		Priority:    input.Priority,
		RequesterID: &actor.ID,
		CategoryID:  &categoryID,
		CreatedAt:   now,
		SLAStartAt:  now,
		SLADueAt:    &dueAt,
	}

	action := s.newAction(ticket.ID, fmt.Sprintf("created by %s", actor.Name), now)
	msg := outbox.NewTicketAction(ticket.ID, action.Description)
	if err := s.tickets.Create(ctx, ticket, &action, []outbox.Message{msg}); err != nil {
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// Update applies a partial update. Each field that actually changes
// yields its own audit entry and notification; a no-op is rejected.
func (s *TicketService) Update(ctx context.Context, actorID, ticketID string, input TicketUpdateInput) (*domain.Ticket, error) {
	actor, ticket, err := s.actorAndTicket(ctx, actorID, ticketID)
	if err != nil {
		return nil, err
	}
	if err := requireRequesterOrManager(actor, ticket); err != nil {
		return nil, err
	}
	if !ticket.IsActive() {
		return nil, apperrors.NewValidationError("ticket is closed or cancelled", nil)
	}

	now := time.Now()
	var actions []domain.TicketAction
	var messages []outbox.Message
	record := func(description string) {
		action := s.newAction(ticket.ID, description, now)
		actions = append(actions, action)
		messages = append(messages, outbox.NewTicketAction(ticket.ID, action.Description))
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, apperrors.NewValidationError("title cannot be empty", nil)
		}
		if utf8.RuneCountInString(title) > domain.MaxTitleLength {
			return nil, apperrors.NewValidationError(fmt.Sprintf("title exceeds %d characters", domain.MaxTitleLength), nil)
		}
		if title != ticket.Title {
			ticket.Title = title
			record(fmt.Sprintf("title updated by %s", actor.Name))
		}
	}
	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		if description == "" {
			return nil, apperrors.NewValidationError("description cannot be empty", nil)
		}
		if description != ticket.Description {
			ticket.Description = description
			record(fmt.Sprintf("description updated by %s", actor.Name))
		}
	}
	if input.Priority != nil {
		priority := *input.Priority
		if !priority.Valid() {
			return nil, apperrors.NewValidationError("priority must be one of BAIXA, MEDIA, ALTA, CRITICA", nil)
		}
		if priority != ticket.Priority {
			old := ticket.Priority
			ticket.Priority = priority
			ticket.SLAStartAt = now
			dueAt := sla.DueAt(now, priority)
			ticket.SLADueAt = &dueAt
			record(fmt.Sprintf("priority changed from %s to %s by %s", old, priority, actor.Name))
		}
	}
	if input.CategoryID != nil {
		exists, err := s.categories.CategoryExists(ctx, *input.CategoryID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if !exists {
			return nil, apperrors.NewNotFound("category", map[string]any{"category_id": *input.CategoryID})
		}
		if ticket.CategoryID == nil || *ticket.CategoryID != *input.CategoryID {
			categoryID := *input.CategoryID
			ticket.CategoryID = &categoryID
			record(fmt.Sprintf("category changed by %s", actor.Name))
		}
	}

	if len(actions) == 0 {
		return nil, apperrors.NewValidationError("no changes detected", nil)
	}
	return ticket, s.commit(ctx, repository.TicketChange{Ticket: ticket, Actions: actions, Outbox: messages})
}

// Assign hands the ticket to an Agent. A first assignment on a fresh
// ticket also moves it from NOVO to EM_ANALISE.
func (s *TicketService) Assign(ctx context.Context, actorID, ticketID, assigneeID string) (*domain.Ticket, error) {
	actor, ticket, err := s.actorAndTicket(ctx, actorID, ticketID)
	if err != nil {
		return nil, err
	}
	if err := requireRequesterOrManager(actor, ticket); err != nil {
		return nil, err
	}
	if !ticket.IsActive() {
		return nil, apperrors.NewValidationError("ticket is closed or cancelled", nil)
	}
	target, err := s.users.FindUser(ctx, assigneeID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if target == nil {
		return nil, apperrors.NewNotFound("user", map[string]any{"user_id": assigneeID})
	}
	if target.Role != domain.UserRoleAgent {
		return nil, apperrors.NewValidationError("assignee must have role AGENT", nil)
	}

	now := time.Now()
	ticket.AssigneeID = &target.ID
	ticket.AssignedAt = &now
	if ticket.Status == domain.TicketStatusNovo {
		ticket.Status = domain.TicketStatusEmAnalise
	}

	action := s.newAction(ticket.ID, fmt.Sprintf("assigned to %s by %s", target.Name, actor.Name), now)
	msg := outbox.NewTicketAction(ticket.ID, action.Description, target.Email)
	return ticket, s.commit(ctx, repository.TicketChange{
		Ticket:  ticket,
		Actions: []domain.TicketAction{action},
		Outbox:  []outbox.Message{msg},
	})
}

// ChangeRequester moves ownership of the ticket to another Requester.
func (s *TicketService) ChangeRequester(ctx context.Context, actorID, ticketID, requesterID string) (*domain.Ticket, error) {
	actor, ticket, err := s.actorAndTicket(ctx, actorID, ticketID)
	if err != nil {
		return nil, err
	}
	if err := requireRequesterOrManager(actor, ticket); err != nil {
		return nil, err
	}
	if !ticket.IsActive() {
		return nil, apperrors.NewValidationError("ticket is closed or cancelled", nil)
	}
	target, err := s.users.FindUser(ctx, requesterID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if target == nil {
		return nil, apperrors.NewNotFound("user", map[string]any{"user_id": requesterID})
	}
	if target.Role != domain.UserRoleRequester {
		return nil, apperrors.NewValidationError("new requester must have role REQUESTER", nil)
	}

	now := time.Now()
	ticket.RequesterID = &target.ID
	action := s.newAction(ticket.ID, fmt.Sprintf("requester changed to %s by %s", target.Name, actor.Name), now)
	msg := outbox.NewTicketAction(ticket.ID, action.Description, target.Email)
	return ticket, s.commit(ctx, repository.TicketChange{
		Ticket:  ticket,
		Actions: []domain.TicketAction{action},
		Outbox:  []outbox.Message{msg},
	})
}

// ChangeStatus walks the ticket along the workflow chain. The edge must
// exist in the transition table and the caller must satisfy the edge's
// actor requirement.
func (s *TicketService) ChangeStatus(ctx context.Context, actorID, ticketID string, next domain.TicketStatus) (*domain.Ticket, error) {
	actor, ticket, err := s.actorAndTicket(ctx, actorID, ticketID)
	if err != nil {
		return nil, err
	}

	if workflowTransitions[ticket.Status] != next {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("invalid status transition %s -> %s; valid flow: %s", ticket.Status, next, validWorkflowChain), nil)
	}

	switch next {
	case domain.TicketStatusEmAndamento, domain.TicketStatusResolvido:
		if ticket.AssigneeID == nil {
			return nil, apperrors.NewValidationError("ticket has no assignee", nil)
		}
		if *ticket.AssigneeID != actor.ID {
			return nil, apperrors.NewForbidden("only the current assignee can perform this transition")
		}
	case domain.TicketStatusFechado:
		if ticket.RequesterID == nil {
			return nil, apperrors.NewValidationError("ticket has no requester", nil)
		}
		if *ticket.RequesterID != actor.ID {
			return nil, apperrors.NewForbidden("only the requester can close the ticket")
		}
	}

	now := time.Now()
	old := ticket.Status
	ticket.Status = next
	if next == domain.TicketStatusFechado {
		ticket.ClosedAt = &now
	}

	action := s.newAction(ticket.ID, fmt.Sprintf("status changed from %s to %s by %s", old, next, actor.Name), now)
	msg := outbox.NewTicketAction(ticket.ID, action.Description)
	return ticket, s.commit(ctx, repository.TicketChange{
		Ticket:  ticket,
		Actions: []domain.TicketAction{action},
		Outbox:  []outbox.Message{msg},
	})
}

// Reopen puts a resolved or closed ticket back into analysis with a
// fresh SLA window. The mandatory reason lands in an internal comment.
func (s *TicketService) Reopen(ctx context.Context, actorID, ticketID, reason string) (*domain.Ticket, error) {
	actor, ticket, err := s.actorAndTicket(ctx, actorID, ticketID)
	if err != nil {
		return nil, err
	}
	if err := requireRequesterOrManager(actor, ticket); err != nil {
		return nil, err
	}
	if ticket.Status != domain.TicketStatusResolvido && ticket.Status != domain.TicketStatusFechado {
		return nil, apperrors.NewValidationError("only resolved or closed tickets can be reopened", nil)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperrors.NewValidationError("a reason is required to reopen a ticket", nil)
	}

	now := time.Now()
	ticket.Status = domain.TicketStatusEmAnalise
	ticket.ClosedAt = nil
	ticket.SLAStartAt = now
	dueAt := sla.DueAt(now, ticket.Priority)
	ticket.SLADueAt = &dueAt

	comment := s.newInternalComment(ticket.ID, actor.ID, reason, now)
	action := s.newAction(ticket.ID, clip(fmt.Sprintf("reopened by %s: %s", actor.Name, reason), domain.MaxActionDescriptionLength), now)
	msg := outbox.NewTicketAction(ticket.ID, action.Description)
	return ticket, s.commit(ctx, repository.TicketChange{
		Ticket:  ticket,
		Actions: []domain.TicketAction{action},
		Comment: &comment,
		Outbox:  []outbox.Message{msg},
	})
}

// Cancel aborts a ticket that never entered progress. The mandatory
// reason lands in an internal comment.
func (s *TicketService) Cancel(ctx context.Context, actorID, ticketID, reason string) (*domain.Ticket, error) {
	actor, ticket, err := s.actorAndTicket(ctx, actorID, ticketID)
	if err != nil {
		return nil, err
	}
	if err := requireRequesterOrManager(actor, ticket); err != nil {
		return nil, err
	}
	if ticket.Status != domain.TicketStatusNovo && ticket.Status != domain.TicketStatusEmAnalise {
		return nil, apperrors.NewValidationError("only new or in-analysis tickets can be cancelled", nil)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperrors.NewValidationError("a reason is required to cancel a ticket", nil)
	}

	now := time.Now()
	ticket.Status = domain.TicketStatusCancelado
	ticket.ClosedAt = &now

	comment := s.newInternalComment(ticket.ID, actor.ID, reason, now)
	action := s.newAction(ticket.ID, clip(fmt.Sprintf("cancelled by %s: %s", actor.Name, reason), domain.MaxActionDescriptionLength), now)
	msg := outbox.NewTicketAction(ticket.ID, action.Description)
	return ticket, s.commit(ctx, repository.TicketChange{
		Ticket:  ticket,
		Actions: []domain.TicketAction{action},
		Comment: &comment,
		Outbox:  []outbox.Message{msg},
	})
}

// Get fetches a single ticket for a resolved caller.
func (s *TicketService) Get(ctx context.Context, actorID, ticketID string) (*domain.Ticket, error) {
	_, ticket, err := s.actorAndTicket(ctx, actorID, ticketID)
	return ticket, err
}

// List returns tickets matching the filter. Requesters only ever see
// their own tickets; Agents and Managers see everything the filter
// selects.
func (s *TicketService) List(ctx context.Context, actorID string, filter TicketListFilter) ([]domain.Ticket, error) {
	actor, err := s.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	repoFilter := repository.TicketFilter{
		RequesterID: filter.RequesterID,
		AssigneeID:  filter.AssigneeID,
		CategoryID:  filter.CategoryID,
		Statuses:    filter.Statuses,
		Priorities:  filter.Priorities,
		SearchTerm:  filter.SearchTerm,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	}
	if actor.Role == domain.UserRoleRequester {
		repoFilter.RequesterID = &actor.ID
	}
	tickets, err := s.tickets.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// ListActions returns the audit trail of a ticket.
func (s *TicketService) ListActions(ctx context.Context, actorID, ticketID string, limit, offset int) ([]domain.TicketAction, error) {
	if _, _, err := s.actorAndTicket(ctx, actorID, ticketID); err != nil {
		return nil, err
	}
	entries, err := s.actions.ListByTicket(ctx, ticketID, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

func (s *TicketService) resolveActor(ctx context.Context, actorID string) (*domain.User, error) {
	actor, err := s.users.FindUser(ctx, actorID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if actor == nil {
		return nil, apperrors.NewUnauthorized("caller identity could not be resolved")
	}
	return actor, nil
}

func (s *TicketService) actorAndTicket(ctx context.Context, actorID, ticketID string) (*domain.User, *domain.Ticket, error) {
	actor, err := s.resolveActor(ctx, actorID)
	if err != nil {
		return nil, nil, err
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

func (s *TicketService) commit(ctx context.Context, change repository.TicketChange) error {
	if err := s.tickets.ApplyChange(ctx, change); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return apperrors.NewConflict("ticket was modified concurrently, retry the operation", nil)
		}
		return apperrors.MapError(err)
	}
	return nil
}

func (s *TicketService) newAction(ticketID, description string, at time.Time) domain.TicketAction {
	return domain.TicketAction{
		ID:          uuid.NewString(),
		TicketID:    ticketID,
		Description: clip(description, domain.MaxActionDescriptionLength),
		CreatedAt:   at,
	}
}

func (s *TicketService) newInternalComment(ticketID, authorID, message string, at time.Time) domain.TicketComment {
	return domain.TicketComment{
		ID:         uuid.NewString(),
		TicketID:   ticketID,
		AuthorID:   &authorID,
		Visibility: domain.CommentVisibilityInternal,
		Message:    clip(message, domain.MaxCommentMessageLength),
		CreatedAt:  at,
	}
}

func requireRequesterOrManager(actor *domain.User, ticket *domain.Ticket) error {
	if actor.Role == domain.UserRoleManager {
		return nil
	}
	if ticket.RequesterID != nil && *ticket.RequesterID == actor.ID {
		return nil
	}
	return apperrors.NewForbidden("only the ticket requester or a Manager may perform this operation")
}

// clip truncates s to max characters. Limits here match the VARCHAR(n)
// columns, which count characters, so the cut must land on a rune
// boundary rather than a byte offset.
func clip(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
