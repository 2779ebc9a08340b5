// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the User
// mirror rows created on first authenticated request.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ldelacour/go-carriere-backend/internal/domain"
)

// UpsertUser inserts the identity-provider mirror row on first sign-in and
// refreshes email/username on later ones. The ID is the provider's subject
// identifier, never locally generated.
func UpsertUser(ctx context.Context, db *gorm.DB, id, email, username string) (*domain.User, error) {
	u := &domain.User{
		ID:        id,
		Email:     email,
		Username:  username,
		CreatedAt: time.Now().UTC(),
	}
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"email", "username"}),
		}).
		Create(u).Error
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetUser fetches a user mirror row by ID, or ErrNotFound.
func GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}
