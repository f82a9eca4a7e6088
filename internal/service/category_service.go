package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/helpdeskhq/helpdesk-service/internal/directory"
	"github.com/helpdeskhq/helpdesk-service/internal/domain"
	"github.com/helpdeskhq/helpdesk-service/internal/repository"
	apperrors "github.com/helpdeskhq/helpdesk-service/pkg/util"
)

// CategoryService maintains the two-level category taxonomy.
type CategoryService struct {
	categories repository.CategoryRepository
	tickets    repository.TicketRepository
	users      directory.UserDirectory
}

// NewCategoryService constructs the service.
func NewCategoryService(categories repository.CategoryRepository, tickets repository.TicketRepository, users directory.UserDirectory) *CategoryService {
	return &CategoryService{categories: categories, tickets: tickets, users: users}
}

// CategoryInput describes category creation/update payload.
type CategoryInput struct {
	Name     string
	ParentID *string
}

// Create adds a category, optionally under a root parent.
func (s *CategoryService) Create(ctx context.Context, actorID string, input CategoryInput) (*domain.Category, error) {
	if err := s.requireManager(ctx, actorID); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("name is required", nil)
	}
	if err := s.checkNameAvailable(ctx, name, ""); err != nil {
		return nil, err
	}
	if input.ParentID != nil {
		if err := s.checkParent(ctx, *input.ParentID); err != nil {
			return nil, err
		}
	}

	category := &domain.Category{
		ID:       uuid.NewString(),
		Name:     name,
		ParentID: input.ParentID,
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, apperrors.MapError(err)
	}
	return category, nil
}

// Update renames a category or moves it under another root.
func (s *CategoryService) Update(ctx context.Context, actorID, categoryID string, input CategoryInput) (*domain.Category, error) {
	if err := s.requireManager(ctx, actorID); err != nil {
		return nil, err
	}
	category, err := s.get(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("name is required", nil)
	}
	if err := s.checkNameAvailable(ctx, name, category.ID); err != nil {
		return nil, err
	}
	if input.ParentID != nil {
		if *input.ParentID == category.ID {
			return nil, apperrors.NewConflict("category cannot be its own parent", nil)
		}
		children, err := s.categories.CountChildren(ctx, category.ID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if children > 0 {
			return nil, apperrors.NewConflict("category with children cannot be given a parent", nil)
		}
		if err := s.checkParent(ctx, *input.ParentID); err != nil {
			return nil, err
		}
	}

	category.Name = name
	category.ParentID = input.ParentID
	if err := s.categories.Update(ctx, category); err != nil {
		return nil, apperrors.MapError(err)
	}
	return category, nil
}

// Delete removes a category that has no children and no active tickets.
func (s *CategoryService) Delete(ctx context.Context, actorID, categoryID string) error {
	if err := s.requireManager(ctx, actorID); err != nil {
		return err
	}
	category, err := s.get(ctx, categoryID)
	if err != nil {
		return err
	}
	children, err := s.categories.CountChildren(ctx, category.ID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if children > 0 {
		return apperrors.NewConflict("category has child categories", map[string]any{"children": children})
	}
	tickets, err := s.tickets.CountByCategory(ctx, category.ID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if tickets > 0 {
		return apperrors.NewConflict("category has active tickets", map[string]any{"tickets": tickets})
	}
	if err := s.categories.Delete(ctx, category.ID); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// Get returns one category.
func (s *CategoryService) Get(ctx context.Context, categoryID string) (*domain.Category, error) {
	return s.get(ctx, categoryID)
}

// List returns all categories ordered by name.
func (s *CategoryService) List(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return categories, nil
}

func (s *CategoryService) get(ctx context.Context, categoryID string) (*domain.Category, error) {
	category, err := s.categories.GetByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("category", map[string]any{"category_id": categoryID})
		}
		return nil, apperrors.MapError(err)
	}
	return category, nil
}

// checkParent validates the two-level invariant: a parent must exist and
// must itself be a root category.
func (s *CategoryService) checkParent(ctx context.Context, parentID string) error {
	parent, err := s.categories.GetByID(ctx, parentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("category", map[string]any{"category_id": parentID})
		}
		return apperrors.MapError(err)
	}
	if !parent.IsRoot() {
		return apperrors.NewConflict("a category that has a parent cannot itself be a parent", nil)
	}
	return nil
}

func (s *CategoryService) checkNameAvailable(ctx context.Context, name, selfID string) error {
	existing, err := s.categories.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return apperrors.MapError(err)
	}
	if existing.ID != selfID {
		return apperrors.NewConflict("category name already in use", map[string]any{"name": name})
	}
	return nil
}

func (s *CategoryService) requireManager(ctx context.Context, actorID string) error {
	actor, err := s.users.FindUser(ctx, actorID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if actor == nil {
		return apperrors.NewUnauthorized("caller identity could not be resolved")
	}
	if actor.Role != domain.UserRoleManager {
		return apperrors.NewForbidden("only a Manager can manage categories")
	}
	return nil
}
