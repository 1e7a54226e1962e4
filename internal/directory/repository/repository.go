package repository

import (
	"context"

	"fitness-gateway/internal/directory/domain"
)

// Repository defines persistence for directory users.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// ExistsByKeycloakID reports whether any user carries the given Keycloak subject id.
	ExistsByKeycloakID(ctx context.Context, keycloakID string) (bool, error)
	Create(ctx context.Context, u *domain.User) error
}
