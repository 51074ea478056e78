package brand

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence operations for brands.
type Repository interface {
	Save(ctx context.Context, b *Brand) error
	Update(ctx context.Context, b *Brand) error
	FindByID(ctx context.Context, id uuid.UUID) (*Brand, error)
	FindBySlug(ctx context.Context, slug string) (*Brand, error)
	FindAll(ctx context.Context) ([]*Brand, error)
	// Delete removes a brand. Implementations must refuse the delete while
	// vouchers still reference the brand.
	Delete(ctx context.Context, id uuid.UUID) error
}
