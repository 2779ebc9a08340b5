// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// Conversation model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - Ownership is enforced with compound (id, user_id) filters. A missing
//     row and a row owned by someone else are indistinguishable: both return
//     gorm.ErrRecordNotFound (exported here as ErrNotFound), so handlers can
//     answer 404 without leaking the existence of other users' resources.
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ldelacour/go-carriere-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateConversation inserts a new Conversation row owned by userID with the
// given title. The ID is a randomly generated UUID and CreatedAt is UTC.
func CreateConversation(ctx context.Context, db *gorm.DB, userID, title string) (*domain.Conversation, error) {
	c := &domain.Conversation{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// ListConversations returns all conversations belonging to userID, ordered
// by updated_at descending (most recently active first). Each conversation
// carries only its first message, which list views use as a preview.
func ListConversations(ctx context.Context, db *gorm.DB, userID string) ([]domain.Conversation, error) {
	var out []domain.Conversation
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at desc").
		Preload("Messages", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("created_at ASC, id ASC")
		}).
		Find(&out).Error
	trimToPreview(out)
	return out, err
}

// trimToPreview keeps only the first message of each conversation. A LIMIT
// inside Preload would cap the whole batched query, not each parent, so the
// trim happens here instead.
func trimToPreview(convs []domain.Conversation) {
	for i := range convs {
		if len(convs[i].Messages) > 1 {
			convs[i].Messages = convs[i].Messages[:1]
		}
	}
}

// CountConversations returns the total number of conversations owned by userID.
func CountConversations(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	return total, err
}

// ListConversationsPage returns a paginated slice of conversations for
// userID, ordered by updated_at descending, with first-message previews.
// Use CountConversations to obtain the total for pagination metadata.
//
// The caller is responsible for computing offset and limit (e.g., (page-1)*pageSize).
func ListConversationsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Conversation, error) {
	var out []domain.Conversation
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at desc").
		Offset(offset).
		Limit(limit).
		Preload("Messages", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("created_at ASC, id ASC")
		}).
		Find(&out).Error
	trimToPreview(out)
	return out, err
}

// GetConversation fetches a single conversation by its ID and owner (userID),
// including the full ordered message list. If the record does not exist or
// belongs to another user, it returns ErrNotFound.
func GetConversation(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Conversation, error) {
	var c domain.Conversation
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Preload("Messages", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("created_at ASC, id ASC")
		}).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ConversationOwned reports whether a conversation exists and belongs to
// userID, without loading its messages. Handlers use it to gate conditional
// responses before any per-conversation stats are computed.
func ConversationOwned(ctx context.Context, db *gorm.DB, id, userID string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("id = ? AND user_id = ?", id, userID).
		Count(&n).Error
	return n > 0, err
}

// GetConversationByID fetches a conversation by ID alone, without the
// ownership filter. Reserved for flows that must distinguish "missing" from
// "not yours" (the share service answers 403, not 404, for non-owners).
func GetConversationByID(ctx context.Context, db *gorm.DB, id string) (*domain.Conversation, error) {
	var c domain.Conversation
	if err := db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// GetConversationByShareID fetches a public conversation by its share
// identifier. Rows that are not public are treated as missing. Callers load
// the ordered message list separately via ListMessages.
func GetConversationByShareID(ctx context.Context, db *gorm.DB, shareID string) (*domain.Conversation, error) {
	var c domain.Conversation
	err := db.WithContext(ctx).
		Where("share_id = ? AND is_public = ?", shareID, true).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateConversationTitle updates the title of a conversation identified by
// id and owned by userID. If no rows are affected (missing or not owned),
// it returns ErrNotFound.
func UpdateConversationTitle(ctx context.Context, db *gorm.DB, id, userID, title string) error {
	res := db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("title", title)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteConversation soft-deletes a conversation owned by userID along with
// its messages. Returns ErrNotFound when the (id, userID) pair matches no row.
func DeleteConversation(ctx context.Context, db *gorm.DB, id, userID string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&domain.Conversation{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("conversation_id = ?", id).Delete(&domain.Message{}).Error
	})
}

// TouchConversation bumps updated_at so list ordering reflects recency.
// Called after every message creation.
func TouchConversation(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("id = ?", id).
		Update("updated_at", time.Now().UTC()).Error
}

// ShareIDInUse reports whether any conversation, public or not, already holds
// the given share identifier. Revoked shares keep their identifier, so this
// check covers rows GetConversationByShareID would not resolve.
func ShareIDInUse(ctx context.Context, db *gorm.DB, shareID string) (bool, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("share_id = ?", shareID).
		Count(&total).Error
	return total > 0, err
}

// SetConversationShare persists the share identifier and visibility flag.
func SetConversationShare(ctx context.Context, db *gorm.DB, id string, shareID *string, isPublic bool) error {
	return db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("id = ?", id).
		Updates(map[string]any{"share_id": shareID, "is_public": isPublic}).Error
}
