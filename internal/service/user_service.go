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

// UserService maintains user records and keeps the directory cache in
// step with mutations.
type UserService struct {
	users     repository.UserRepository
	directory directory.UserDirectory
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository, dir directory.UserDirectory) *UserService {
	return &UserService{users: users, directory: dir}
}

// UserInput describes user creation/update payload.
type UserInput struct {
	Name  string
	Email string
	Role  domain.UserRole
}

// Create registers a new user.
func (s *UserService) Create(ctx context.Context, input UserInput) (*domain.User, error) {
	name, email, err := validateUserInput(input)
	if err != nil {
		return nil, err
	}
	if err := s.checkEmailAvailable(ctx, email, ""); err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:    uuid.NewString(),
		Name:  name,
		Email: email,
		Role:  input.Role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// Get returns one user.
func (s *UserService) Get(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// List returns users ordered by name.
func (s *UserService) List(ctx context.Context, limit, offset int) ([]domain.User, error) {
	users, err := s.users.List(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// Update replaces name, email and role of an existing user.
func (s *UserService) Update(ctx context.Context, userID string, input UserInput) (*domain.User, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	name, email, err := validateUserInput(input)
	if err != nil {
		return nil, err
	}
	if err := s.checkEmailAvailable(ctx, email, user.ID); err != nil {
		return nil, err
	}

	user.Name = name
	user.Email = email
	user.Role = input.Role
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.directory.Invalidate(ctx, user.ID)
	return user, nil
}

// Delete removes a user. Tickets, comments and attachments referencing
// the user keep existing with the reference nulled by the schema.
func (s *UserService) Delete(ctx context.Context, userID string) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return apperrors.MapError(err)
	}
	s.directory.Invalidate(ctx, userID)
	return nil
}

func (s *UserService) checkEmailAvailable(ctx context.Context, email, selfID string) error {
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return apperrors.MapError(err)
	}
	if existing.ID != selfID {
		return apperrors.NewConflict("email already in use", map[string]any{"email": email})
	}
	return nil
}

func validateUserInput(input UserInput) (name, email string, err error) {
	name = strings.TrimSpace(input.Name)
	if name == "" {
		return "", "", apperrors.NewValidationError("name is required", nil)
	}
	email = strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return "", "", apperrors.NewValidationError("email is required", nil)
	}
	if _, roleErr := domain.ParseUserRole(string(input.Role)); roleErr != nil {
		return "", "", apperrors.NewValidationError("role must be one of REQUESTER, AGENT, MANAGER", nil)
	}
	return name, email, nil
}
