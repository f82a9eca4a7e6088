package directory

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/helpdeskhq/helpdesk-service/internal/domain"
	"github.com/helpdeskhq/helpdesk-service/internal/repository"
)

// CategoryDirectory answers category lookups for the lifecycle engine.
// GetCategory returns (nil, nil) when the category does not exist.
type CategoryDirectory interface {
	CategoryExists(ctx context.Context, id string) (bool, error)
	GetCategory(ctx context.Context, id string) (*domain.Category, error)
}

type categoryDirectory struct {
	categories repository.CategoryRepository
}

// NewCategoryDirectory wraps the category repository.
func NewCategoryDirectory(categories repository.CategoryRepository) CategoryDirectory {
	return &categoryDirectory{categories: categories}
}

func (d *categoryDirectory) CategoryExists(ctx context.Context, id string) (bool, error) {
	category, err := d.GetCategory(ctx, id)
	if err != nil {
		return false, err
	}
	return category != nil, nil
}

func (d *categoryDirectory) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	category, err := d.categories.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return category, nil
}
