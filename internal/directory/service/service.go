// Package service implements the user directory's registration and lookup
// operations on top of the repository.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"fitness-gateway/internal/directory/domain"
	"fitness-gateway/internal/directory/repository"
	"fitness-gateway/internal/identity"
	"fitness-gateway/internal/security"
)

// Sentinel errors for the directory service; the handler maps them to HTTP statuses.
var (
	ErrKeycloakIDRequired = errors.New("keycloak id is required")
	ErrEmailRequired      = errors.New("email is required")
	ErrUserNotFound       = errors.New("user not found")
	// ErrDuplicateIdentity is a lost registration race: another request
	// created the same identity between check and insert. The identity
	// exists; callers typically treat this as success-equivalent.
	ErrDuplicateIdentity = errors.New("identity already registered")
)

// UserRepo is the minimal repository surface the service needs.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ExistsByKeycloakID(ctx context.Context, keycloakID string) (bool, error)
	Create(ctx context.Context, u *domain.User) error
}

// Service implements register, exists-by-subject, and profile lookup.
type Service struct {
	repo   UserRepo
	hasher *security.Hasher
}

// New returns a Service using the given repository and password hasher.
func New(repo UserRepo, hasher *security.Hasher) *Service {
	return &Service{repo: repo, hasher: hasher}
}

// Register creates a user from the registration payload. Registration is
// idempotent by email: when the email is already registered the existing
// record is returned unchanged, matching what a retried or raced first
// login expects. A blank Keycloak id is rejected.
func (s *Service) Register(ctx context.Context, req identity.RegisterRequest) (*domain.User, error) {
	if strings.TrimSpace(req.KeycloakID) == "" {
		return nil, ErrKeycloakIDRequired
	}
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" {
		return nil, ErrEmailRequired
	}

	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	hash, err := s.hasher.Hash([]byte(req.Password))
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		KeycloakID:   req.KeycloakID,
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateIdentity
		}
		return nil, err
	}
	return user, nil
}

// Exists reports whether a user with the given Keycloak subject id is registered.
func (s *Service) Exists(ctx context.Context, keycloakID string) (bool, error) {
	return s.repo.ExistsByKeycloakID(ctx, keycloakID)
}

// GetProfile returns the user for id, or ErrUserNotFound.
func (s *Service) GetProfile(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}
