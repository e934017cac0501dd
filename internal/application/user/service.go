package user

import (
	"context"
	"fmt"

	"github.com/go-lms-api/internal/domain"
)

type Service interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	UpdateRole(ctx context.Context, userID, role string) (*domain.User, error)
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	UpdateRole(ctx context.Context, userID, role string) error
}

type service struct {
	repo userStore
}

func NewService(repo userStore) Service {
	return &service{repo: repo}
}

func (s *service) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.Get(ctx, userID)
}

// UpdateRole stores role in its normalized form. Tokens already issued to the
// user stay valid; the new role applies on the next request because the auth
// middleware reloads the user every time.
func (s *service) UpdateRole(ctx context.Context, userID, role string) (*domain.User, error) {
	if !domain.ValidRole(role) {
		return nil, fmt.Errorf("invalid role %q: %w", role, domain.ErrBadRequest)
	}
	if err := s.repo.UpdateRole(ctx, userID, domain.NormalizeRole(role)); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, userID)
}
