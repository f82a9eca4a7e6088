package service

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdeskhq/helpdesk-service/internal/domain"
	apperrors "github.com/helpdeskhq/helpdesk-service/pkg/util"
)

func TestAddCommentVisibilityRules(t *testing.T) {
	f := newFixture()
	requester, agent, _ := seedWorkflowUsers(f)
	stranger := f.store.addUser("req-2", domain.UserRoleRequester)
	ctx := context.Background()

	ticket := mustCreateTicket(t, f, requester.ID, domain.TicketPriorityMedia)
	_, err := f.tickets.Assign(ctx, requester.ID, ticket.ID, agent.ID)
	require.NoError(t, err)

	_, err = f.comments.Add(ctx, stranger.ID, ticket.ID, domain.CommentVisibilityPublic, "me too")
	assert.NoError(t, err, "anyone resolved may comment publicly")

	_, err = f.comments.Add(ctx, stranger.ID, ticket.ID, domain.CommentVisibilityInternal, "secret")
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"), "internal comments need a participant")

	_, err = f.comments.Add(ctx, agent.ID, ticket.ID, domain.CommentVisibilityInternal, "triage note")
	assert.NoError(t, err)

	_, err = f.comments.Add(ctx, requester.ID, ticket.ID, domain.CommentVisibilityInternal, "requester note")
	assert.NoError(t, err, "the requester is a participant")
}

func TestListForTicketFiltersInternal(t *testing.T) {
	f := newFixture()
	requester, agent, manager := seedWorkflowUsers(f)
	stranger := f.store.addUser("req-2", domain.UserRoleRequester)
	ctx := context.Background()

	ticket := mustCreateTicket(t, f, requester.ID, domain.TicketPriorityMedia)
	_, err := f.tickets.Assign(ctx, requester.ID, ticket.ID, agent.ID)
	require.NoError(t, err)

	_, err = f.comments.Add(ctx, requester.ID, ticket.ID, domain.CommentVisibilityPublic, "any update?")
	require.NoError(t, err)
	_, err = f.comments.Add(ctx, agent.ID, ticket.ID, domain.CommentVisibilityInternal, "waiting on vendor")
	require.NoError(t, err)

	forStranger, err := f.comments.ListForTicket(ctx, stranger.ID, ticket.ID)
	require.NoError(t, err)
	require.Len(t, forStranger, 1)
	assert.Equal(t, domain.CommentVisibilityPublic, forStranger[0].Visibility)

	forAgent, err := f.comments.ListForTicket(ctx, agent.ID, ticket.ID)
	require.NoError(t, err)
	assert.Len(t, forAgent, 2)

	forManager, err := f.comments.ListForTicket(ctx, manager.ID, ticket.ID)
	require.NoError(t, err)
	assert.Len(t, forManager, 2)
}

func TestEditComment(t *testing.T) {
	f := newFixture()
	requester, agent, _ := seedWorkflowUsers(f)
	ctx := context.Background()

	ticket := mustCreateTicket(t, f, requester.ID, domain.TicketPriorityMedia)
	comment, err := f.comments.Add(ctx, requester.ID, ticket.ID, domain.CommentVisibilityPublic, "original")
	require.NoError(t, err)
	createdAt := comment.CreatedAt

	_, err = f.comments.Edit(ctx, agent.ID, comment.ID, "hijacked")
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"), "only the author edits")

	_, err = f.comments.Edit(ctx, requester.ID, comment.ID, "original")
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"), "new message must differ")

	edited, err := f.comments.Edit(ctx, requester.ID, comment.ID, "corrected")
	require.NoError(t, err)
	assert.Equal(t, "edited: corrected", edited.Message)
	assert.False(t, edited.CreatedAt.Before(createdAt))

	// Re-submitting the same content after an edit is still a no-op.
	_, err = f.comments.Edit(ctx, requester.ID, comment.ID, "corrected")
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestEditCommentAtMessageLimit(t *testing.T) {
	f := newFixture()
	requester, _, _ := seedWorkflowUsers(f)
	ctx := context.Background()

	ticket := mustCreateTicket(t, f, requester.ID, domain.TicketPriorityMedia)

	// Multi-byte runes: character counts, not byte counts, drive the
	// limit, matching the VARCHAR column.
	original := strings.Repeat("é", domain.MaxCommentMessageLength)
	comment, err := f.comments.Add(ctx, requester.ID, ticket.ID, domain.CommentVisibilityPublic, original)
	require.NoError(t, err)

	_, err = f.comments.Add(ctx, requester.ID, ticket.ID, domain.CommentVisibilityPublic, original+"x")
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))

	// A maximum-length replacement still fits after the edit marker.
	replacement := strings.Repeat("ã", domain.MaxCommentMessageLength)
	edited, err := f.comments.Edit(ctx, requester.ID, comment.ID, replacement)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(edited.Message, "edited: "))
	assert.Equal(t, domain.MaxCommentMessageLength, utf8.RuneCountInString(edited.Message))
	assert.True(t, utf8.ValidString(edited.Message))
}

func TestDeleteComment(t *testing.T) {
	f := newFixture()
	requester, agent, _ := seedWorkflowUsers(f)
	ctx := context.Background()

	ticket := mustCreateTicket(t, f, requester.ID, domain.TicketPriorityMedia)
	comment, err := f.comments.Add(ctx, requester.ID, ticket.ID, domain.CommentVisibilityPublic, "remove me")
	require.NoError(t, err)

	err = f.comments.Delete(ctx, agent.ID, comment.ID)
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))

	require.NoError(t, f.comments.Delete(ctx, requester.ID, comment.ID))

	err = f.comments.Delete(ctx, requester.ID, comment.ID)
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}

func TestCommentsBlockedOnTerminalTickets(t *testing.T) {
	f := newFixture()
	requester, _, _ := seedWorkflowUsers(f)
	ctx := context.Background()

	ticket := mustCreateTicket(t, f, requester.ID, domain.TicketPriorityMedia)
	comment, err := f.comments.Add(ctx, requester.ID, ticket.ID, domain.CommentVisibilityPublic, "before cancel")
	require.NoError(t, err)

	_, err = f.tickets.Cancel(ctx, requester.ID, ticket.ID, "not needed")
	require.NoError(t, err)

	_, err = f.comments.Add(ctx, requester.ID, ticket.ID, domain.CommentVisibilityPublic, "after cancel")
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))

	_, err = f.comments.Edit(ctx, requester.ID, comment.ID, "too late")
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))

	err = f.comments.Delete(ctx, requester.ID, comment.ID)
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}
