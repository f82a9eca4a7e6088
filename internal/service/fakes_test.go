package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/helpdeskhq/helpdesk-service/internal/domain"
	"github.com/helpdeskhq/helpdesk-service/internal/outbox"
	"github.com/helpdeskhq/helpdesk-service/internal/repository"
)

// memStore backs the in-memory fakes shared by the service tests.
type memStore struct {
	tickets     map[string]*domain.Ticket
	actions     []domain.TicketAction
	comments    map[string]*domain.TicketComment
	outbox      []outbox.Message
	users       map[string]*domain.User
	categories  map[string]*domain.Category
	attachments map[string]*domain.Attachment

	applyErr error
}

func newMemStore() *memStore {
	return &memStore{
		tickets:     map[string]*domain.Ticket{},
		comments:    map[string]*domain.TicketComment{},
		users:       map[string]*domain.User{},
		categories:  map[string]*domain.Category{},
		attachments: map[string]*domain.Attachment{},
	}
}

func (s *memStore) addUser(id string, role domain.UserRole) *domain.User {
	user := &domain.User{ID: id, Name: "user " + id, Email: id + "@example.com", Role: role}
	s.users[id] = user
	return user
}

func (s *memStore) addCategory(id string, parentID *string) *domain.Category {
	category := &domain.Category{ID: id, Name: "category " + id, ParentID: parentID}
	s.categories[id] = category
	return category
}

func (s *memStore) actionsFor(ticketID string) []domain.TicketAction {
	var out []domain.TicketAction
	for _, action := range s.actions {
		if action.TicketID == ticketID {
			out = append(out, action)
		}
	}
	return out
}

func (s *memStore) commentsFor(ticketID string) []domain.TicketComment {
	var out []domain.TicketComment
	for _, comment := range s.comments {
		if comment.TicketID == ticketID {
			out = append(out, *comment)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func copyTicket(t *domain.Ticket) *domain.Ticket {
	clone := *t
	return &clone
}

// fakeTicketRepo implements repository.TicketRepository over memStore.
type fakeTicketRepo struct{ store *memStore }

func (r *fakeTicketRepo) Create(ctx context.Context, ticket *domain.Ticket, action *domain.TicketAction, messages []outbox.Message) error {
	r.store.tickets[ticket.ID] = copyTicket(ticket)
	if action != nil {
		r.store.actions = append(r.store.actions, *action)
	}
	r.store.outbox = append(r.store.outbox, messages...)
	return nil
}

func (r *fakeTicketRepo) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, ok := r.store.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return copyTicket(ticket), nil
}

func (r *fakeTicketRepo) ListWithFilter(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	var out []domain.Ticket
	for _, ticket := range r.store.tickets {
		if filter.RequesterID != nil && (ticket.RequesterID == nil || *ticket.RequesterID != *filter.RequesterID) {
			continue
		}
		if filter.AssigneeID != nil && (ticket.AssigneeID == nil || *ticket.AssigneeID != *filter.AssigneeID) {
			continue
		}
		if filter.CategoryID != nil && (ticket.CategoryID == nil || *ticket.CategoryID != *filter.CategoryID) {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, ticket.Status) {
			continue
		}
		if filter.SearchTerm != nil && !strings.Contains(ticket.Title, *filter.SearchTerm) {
			continue
		}
		out = append(out, *ticket)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeTicketRepo) ListActive(ctx context.Context, now time.Time) ([]domain.Ticket, error) {
	var out []domain.Ticket
	for _, ticket := range r.store.tickets {
		if ticket.IsActive() {
			out = append(out, *ticket)
		}
	}
	return out, nil
}

func (r *fakeTicketRepo) ApplyChange(ctx context.Context, change repository.TicketChange) error {
	if r.store.applyErr != nil {
		return r.store.applyErr
	}
	current, ok := r.store.tickets[change.Ticket.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if current.Version != change.Ticket.Version {
		return repository.ErrVersionConflict
	}
	updated := copyTicket(change.Ticket)
	updated.Version++
	r.store.tickets[updated.ID] = updated
	r.store.actions = append(r.store.actions, change.Actions...)
	if change.Comment != nil {
		comment := *change.Comment
		r.store.comments[comment.ID] = &comment
	}
	r.store.outbox = append(r.store.outbox, change.Outbox...)
	return nil
}

func (r *fakeTicketRepo) CountByCategory(ctx context.Context, categoryID string) (int64, error) {
	var count int64
	for _, ticket := range r.store.tickets {
		if ticket.CategoryID != nil && *ticket.CategoryID == categoryID && ticket.IsActive() {
			count++
		}
	}
	return count, nil
}

func containsStatus(statuses []domain.TicketStatus, status domain.TicketStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

// fakeActionRepo implements repository.TicketActionRepository.
type fakeActionRepo struct{ store *memStore }

func (r *fakeActionRepo) ListByTicket(ctx context.Context, ticketID string, limit, offset int) ([]domain.TicketAction, error) {
	return r.store.actionsFor(ticketID), nil
}

// fakeCommentRepo implements repository.TicketCommentRepository.
type fakeCommentRepo struct{ store *memStore }

func (r *fakeCommentRepo) Create(ctx context.Context, comment *domain.TicketComment) error {
	clone := *comment
	r.store.comments[comment.ID] = &clone
	return nil
}

func (r *fakeCommentRepo) GetByID(ctx context.Context, id string) (*domain.TicketComment, error) {
	comment, ok := r.store.comments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *comment
	return &clone, nil
}

func (r *fakeCommentRepo) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketComment, error) {
	return r.store.commentsFor(ticketID), nil
}

func (r *fakeCommentRepo) UpdateMessage(ctx context.Context, id, message string, at time.Time) error {
	comment, ok := r.store.comments[id]
	if !ok {
		return pgx.ErrNoRows
	}
	comment.Message = message
	comment.CreatedAt = at
	return nil
}

func (r *fakeCommentRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.store.comments[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.store.comments, id)
	return nil
}

// fakeCategoryRepo implements repository.CategoryRepository.
type fakeCategoryRepo struct{ store *memStore }

func (r *fakeCategoryRepo) Create(ctx context.Context, category *domain.Category) error {
	clone := *category
	r.store.categories[category.ID] = &clone
	return nil
}

func (r *fakeCategoryRepo) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	category, ok := r.store.categories[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *category
	return &clone, nil
}

func (r *fakeCategoryRepo) GetByName(ctx context.Context, name string) (*domain.Category, error) {
	for _, category := range r.store.categories {
		if category.Name == name {
			clone := *category
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeCategoryRepo) List(ctx context.Context) ([]domain.Category, error) {
	var out []domain.Category
	for _, category := range r.store.categories {
		out = append(out, *category)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeCategoryRepo) Update(ctx context.Context, category *domain.Category) error {
	if _, ok := r.store.categories[category.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *category
	r.store.categories[category.ID] = &clone
	return nil
}

func (r *fakeCategoryRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.store.categories[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.store.categories, id)
	return nil
}

func (r *fakeCategoryRepo) CountChildren(ctx context.Context, id string) (int64, error) {
	var count int64
	for _, category := range r.store.categories {
		if category.ParentID != nil && *category.ParentID == id {
			count++
		}
	}
	return count, nil
}

// fakeUserRepo implements repository.UserRepository.
type fakeUserRepo struct{ store *memStore }

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	clone := *user
	r.store.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, ok := r.store.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, user := range r.store.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) List(ctx context.Context, limit, offset int) ([]domain.User, error) {
	var out []domain.User
	for _, user := range r.store.users {
		out = append(out, *user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *domain.User) error {
	if _, ok := r.store.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *user
	r.store.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.store.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.store.users, id)
	return nil
}

// fakeAttachmentRepo implements repository.AttachmentRepository.
type fakeAttachmentRepo struct{ store *memStore }

func (r *fakeAttachmentRepo) Create(ctx context.Context, attachment *domain.Attachment) error {
	clone := *attachment
	r.store.attachments[attachment.ID] = &clone
	return nil
}

func (r *fakeAttachmentRepo) GetByID(ctx context.Context, id string) (*domain.Attachment, error) {
	attachment, ok := r.store.attachments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *attachment
	return &clone, nil
}

func (r *fakeAttachmentRepo) ListByTicket(ctx context.Context, ticketID string) ([]domain.Attachment, error) {
	var out []domain.Attachment
	for _, attachment := range r.store.attachments {
		if attachment.TicketID == ticketID {
			out = append(out, *attachment)
		}
	}
	return out, nil
}

func (r *fakeAttachmentRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.store.attachments[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.store.attachments, id)
	return nil
}

// fakeUserDirectory implements directory.UserDirectory over memStore.
type fakeUserDirectory struct {
	store       *memStore
	invalidated []string
}

func (d *fakeUserDirectory) FindUser(ctx context.Context, id string) (*domain.User, error) {
	user, ok := d.store.users[id]
	if !ok {
		return nil, nil
	}
	clone := *user
	return &clone, nil
}

func (d *fakeUserDirectory) Invalidate(ctx context.Context, id string) {
	d.invalidated = append(d.invalidated, id)
}

// fakeCategoryDirectory implements directory.CategoryDirectory.
type fakeCategoryDirectory struct{ store *memStore }

func (d *fakeCategoryDirectory) CategoryExists(ctx context.Context, id string) (bool, error) {
	_, ok := d.store.categories[id]
	return ok, nil
}

func (d *fakeCategoryDirectory) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	category, ok := d.store.categories[id]
	if !ok {
		return nil, nil
	}
	clone := *category
	return &clone, nil
}

// fixture bundles the fakes and services under test.
type fixture struct {
	store       *memStore
	userDir     *fakeUserDirectory
	tickets     *TicketService
	comments    *CommentService
	categories  *CategoryService
	users       *UserService
	attachments *AttachmentService
}

func newFixture() *fixture {
	store := newMemStore()
	ticketRepo := &fakeTicketRepo{store: store}
	actionRepo := &fakeActionRepo{store: store}
	commentRepo := &fakeCommentRepo{store: store}
	categoryRepo := &fakeCategoryRepo{store: store}
	userRepo := &fakeUserRepo{store: store}
	attachmentRepo := &fakeAttachmentRepo{store: store}
	userDir := &fakeUserDirectory{store: store}
	categoryDir := &fakeCategoryDirectory{store: store}

	return &fixture{
		store:   store,
		userDir: userDir,
		tickets: NewTicketService(TicketDependencies{
			TicketRepo: ticketRepo,
			ActionRepo: actionRepo,
			Users:      userDir,
			Categories: categoryDir,
		}),
		comments:    NewCommentService(commentRepo, ticketRepo, userDir),
		categories:  NewCategoryService(categoryRepo, ticketRepo, userDir),
		users:       NewUserService(userRepo, userDir),
		attachments: NewAttachmentService(attachmentRepo, ticketRepo, userDir),
	}
}
