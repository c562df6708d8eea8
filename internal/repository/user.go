package repository

import (
	"context"

	"github.com/meetlite/meetlite/internal/domain"
)

// UserRepository handles account persistence.
type UserRepository interface {
	// Create inserts a new user. Returns domain.ErrEmailTaken when the
	// email's unique constraint rejects the insert.
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}
