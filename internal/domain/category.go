package domain

import "time"

// Category groups tickets into a two-level taxonomy. A category that
// already has a parent can never itself become a parent.
type Category struct {
	ID        string
	Name      string
	ParentID  *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsRoot reports whether the category sits at the top of the taxonomy.
func (c *Category) IsRoot() bool {
	return c.ParentID == nil
}
