package ports

import (
	"context"

	"github.com/skateshop/storefront/internal/core/domain"
)

// UserRepository defines persistence operations for user accounts.
type UserRepository interface {
	// Create inserts a user and returns it with its assigned ID.
	// Returns domain.ErrUserExists when username or email is taken.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	// FindByLogin looks a user up by username or, failing that, by email.
	FindByLogin(ctx context.Context, login string) (*domain.User, error)
	// CreateIfAbsent inserts user unless the username or email already exists.
	// It reports whether a row was inserted.
	CreateIfAbsent(ctx context.Context, user *domain.User) (bool, error)
}
