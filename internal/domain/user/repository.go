package user

import (
	"context"

	"github.com/google/uuid"
)

// ListFilter narrows user listings.
type ListFilter struct {
	Search string
	Page   int
	Limit  int
}

// Repository defines persistence operations for users.
type Repository interface {
	Save(ctx context.Context, u *User) error
	Update(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByChatID(ctx context.Context, chatID string) (*User, error)
	FindAll(ctx context.Context, filter ListFilter) ([]*User, int64, error)
}
