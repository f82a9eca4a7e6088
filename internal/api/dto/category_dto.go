package dto

import "github.com/helpdeskhq/helpdesk-service/internal/domain"

// CategoryRequest payload for create and update.
type CategoryRequest struct {
	Name     string  `json:"name" validate:"required"`
	ParentID *string `json:"parent_id"`
}

// CategoryResponse mirrors a category.
type CategoryResponse struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id"`
}

// NewCategoryResponse maps the domain struct.
func NewCategoryResponse(category *domain.Category) CategoryResponse {
	return CategoryResponse{
		ID:       category.ID,
		Name:     category.Name,
		ParentID: category.ParentID,
	}
}
