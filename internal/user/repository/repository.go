package repository

import (
	"context"

	"auth-api-template/internal/user/domain"
)

// Repository defines persistence for users. Implementations return (nil, nil)
// for missing rows; errors indicate store failures only.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
}
