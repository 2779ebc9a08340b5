// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// PromptTemplate and Quiz models used by the document pipeline.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ldelacour/go-carriere-backend/internal/domain"
)

// GetPromptTemplate looks up an instruction template by name, or ErrNotFound.
func GetPromptTemplate(ctx context.Context, db *gorm.DB, name string) (*domain.PromptTemplate, error) {
	var t domain.PromptTemplate
	if err := db.WithContext(ctx).Where("name = ?", name).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// UpsertPromptTemplate creates or replaces the template with the given name.
// Used by the startup seeding step.
func UpsertPromptTemplate(ctx context.Context, db *gorm.DB, name, content string) error {
	t := &domain.PromptTemplate{
		ID:        uuid.NewString(),
		Name:      name,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"content"}),
		}).
		Create(t).Error
}

// CreateQuiz persists a generated quiz owned by userID.
func CreateQuiz(ctx context.Context, db *gorm.DB, userID, poste string, data datatypes.JSON) (*domain.Quiz, error) {
	q := &domain.Quiz{
		ID:        uuid.NewString(),
		UserID:    userID,
		Poste:     poste,
		Data:      data,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(q).Error; err != nil {
		return nil, err
	}
	return q, nil
}

// ListQuizzes returns quizzes owned by userID, most recent first.
func ListQuizzes(ctx context.Context, db *gorm.DB, userID string) ([]domain.Quiz, error) {
	var out []domain.Quiz
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}
