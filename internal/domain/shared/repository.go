package shared

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the base interface for all repositories
type Repository[T any] interface {
	FindByID(ctx context.Context, id uuid.UUID) (*T, error)
	FindAll(ctx context.Context, filter Filter) ([]T, error)
	Save(ctx context.Context, entity *T) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context, filter Filter) (int64, error)
}

// Filter represents query filter options. A zero Page or PageSize
// disables pagination and returns the full result set.
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
	Filters  map[string]interface{}
}

// DefaultFilter returns a filter with default values
func DefaultFilter() Filter {
	return Filter{
		Page:     1,
		PageSize: 20,
		OrderBy:  "created_at",
		OrderDir: "desc",
		Filters:  make(map[string]interface{}),
	}
}

// Paginates reports whether the filter requests page-based slicing.
func (f Filter) Paginates() bool {
	return f.Page > 0 && f.PageSize > 0
}

// Offset returns the row offset implied by Page and PageSize.
func (f Filter) Offset() int {
	if !f.Paginates() {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}
