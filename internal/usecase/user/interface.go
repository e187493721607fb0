package user

import (
	"context"

	domain "rest-user-service/internal/domain/user"
)

// UserUsecase defines the interface for user business logic operations.
type UserUsecase interface {
	ListUsers(ctx context.Context) ([]domain.Projection, error)
	GetUser(ctx context.Context, id int64) (*domain.Projection, error)
	CreateUser(ctx context.Context, in UserInput) (*domain.Projection, error)
	UpdateUser(ctx context.Context, id int64, in UserInput) (*domain.Projection, error)
	DeleteUser(ctx context.Context, id int64) (*domain.Projection, error)
}

// Repository defines the interface for user data access operations.
// Lookups return (nil, nil) when no record matches.
type Repository interface {
	FindAll(ctx context.Context) ([]domain.User, error)                 // All users ordered by last name, then first name
	FindByID(ctx context.Context, id int64) (*domain.User, error)       // Retrieve user by ID
	FindByEmail(ctx context.Context, email string) (*domain.User, error) // Case-insensitive email lookup
	Save(ctx context.Context, u *domain.User) error                     // Insert (ID == 0) or update, applying lifecycle hooks
	Delete(ctx context.Context, id int64) error                         // Delete user by ID
}
