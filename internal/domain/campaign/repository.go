package campaign

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence operations for campaigns.
type Repository interface {
	Save(ctx context.Context, c *Campaign) error
	Update(ctx context.Context, c *Campaign) error
	FindByID(ctx context.Context, id uuid.UUID) (*Campaign, error)
	// FindActive returns the currently active campaign, or nil when none is.
	FindActive(ctx context.Context) (*Campaign, error)
	FindAll(ctx context.Context) ([]*Campaign, error)
}
