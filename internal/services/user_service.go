// Package services – UserService
//
// Authentication happens upstream at the identity provider; this service only
// maintains the local mirror row keyed by the provider's subject identifier.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/ldelacour/go-carriere-backend/internal/domain"
	"github.com/ldelacour/go-carriere-backend/internal/repo"
)

// ErrUserNotFound is returned when no mirror row exists for the subject.
var ErrUserNotFound = errors.New("user not found")

// UserService maintains identity-provider mirror rows.
type UserService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
}

// NewUserService constructs a UserService.
func NewUserService(db *gorm.DB) *UserService {
	return &UserService{DB: db}
}

// Ensure upserts the mirror row for an authenticated subject. Called on each
// authenticated request so email/username stay current with the token claims.
func (s *UserService) Ensure(ctx context.Context, id, email, username string) (*domain.User, error) {
	return repo.UpsertUser(ctx, s.DB, id, email, username)
}

// Get returns the mirror row for a subject, or ErrUserNotFound.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	u, err := repo.GetUser(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}
