// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Role and
// RoleShare models.
//
// The repository follows a "thin" approach: it performs persistence and
// simple query composition, leaving the owned/shared/system precedence rules
// to the services package.
//
// Error semantics:
//   - Owner-scoped mutations use compound (id, owner_user_id) filters and
//     return ErrNotFound when the pair matches no row.
//   - The share upsert relies on the (role_id, shared_with_user_id) unique
//     index; a conflicting insert updates the existing grant in place.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ldelacour/go-carriere-backend/internal/domain"
)

// CreateRole inserts a new role owned by ownerUserID.
func CreateRole(ctx context.Context, db *gorm.DB, ownerUserID string, r *domain.Role) (*domain.Role, error) {
	r.ID = uuid.NewString()
	r.OwnerUserID = &ownerUserID
	r.CreatedAt = time.Now().UTC()
	if r.Visibility == "" {
		r.Visibility = domain.RoleVisibilityPrivate
	}
	if err := db.WithContext(ctx).Create(r).Error; err != nil {
		return nil, err
	}
	return r, nil
}

// GetRole fetches a role by ID without any access filter. Access decisions
// belong to the service layer, which needs the row to inspect ownership.
func GetRole(ctx context.Context, db *gorm.DB, id string) (*domain.Role, error) {
	var r domain.Role
	if err := db.WithContext(ctx).Where("id = ?", id).First(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// ListOwnedRoles returns active roles owned by userID, most recent first.
func ListOwnedRoles(ctx context.Context, db *gorm.DB, userID string) ([]domain.Role, error) {
	var out []domain.Role
	err := db.WithContext(ctx).
		Where("owner_user_id = ? AND is_active = ?", userID, true).
		Order("updated_at desc").
		Find(&out).Error
	return out, err
}

// ListSharedRoles returns active roles shared with userID via a grant,
// joined so each row is the role itself. Edit rights per grant are fetched
// separately through GetShare.
func ListSharedRoles(ctx context.Context, db *gorm.DB, userID string) ([]domain.Role, error) {
	var out []domain.Role
	err := db.WithContext(ctx).
		Joins("JOIN role_shares ON role_shares.role_id = roles.id AND role_shares.deleted_at IS NULL").
		Where("role_shares.shared_with_user_id = ? AND roles.is_active = ?", userID, true).
		Order("roles.updated_at desc").
		Find(&out).Error
	return out, err
}

// ListSystemRoles returns the globally readable system roles.
func ListSystemRoles(ctx context.Context, db *gorm.DB) ([]domain.Role, error) {
	var out []domain.Role
	err := db.WithContext(ctx).
		Where("visibility = ? AND is_active = ?", domain.RoleVisibilitySystem, true).
		Order("name asc").
		Find(&out).Error
	return out, err
}

// CreateSystemRole inserts a built-in role with no owner. Visibility is
// forced to system so the row shows up for every user.
func CreateSystemRole(ctx context.Context, db *gorm.DB, r *domain.Role) (*domain.Role, error) {
	r.ID = uuid.NewString()
	r.OwnerUserID = nil
	r.Visibility = domain.RoleVisibilitySystem
	r.IsActive = true
	r.CreatedAt = time.Now().UTC()
	if err := db.WithContext(ctx).Create(r).Error; err != nil {
		return nil, err
	}
	return r, nil
}

// CountSystemRoles reports how many system roles exist; used by the seeding
// step at startup.
func CountSystemRoles(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Role{}).
		Where("visibility = ?", domain.RoleVisibilitySystem).
		Count(&total).Error
	return total, err
}

// UpdateRole applies the given column updates to a role by ID. The service
// layer decides whether the caller may edit before calling this.
func UpdateRole(ctx context.Context, db *gorm.DB, id string, updates map[string]any) error {
	res := db.WithContext(ctx).
		Model(&domain.Role{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteRole soft-deletes a role owned by ownerUserID, together with its
// share grants. Returns ErrNotFound when the (id, owner) pair matches no row.
func DeleteRole(ctx context.Context, db *gorm.DB, id, ownerUserID string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND owner_user_id = ?", id, ownerUserID).Delete(&domain.Role{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("role_id = ?", id).Delete(&domain.RoleShare{}).Error
	})
}

// IncrementRoleUsage bumps usage_count when a role is attached to a send.
// Best effort: a missing role is not an error here.
func IncrementRoleUsage(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).
		Model(&domain.Role{}).
		Where("id = ?", id).
		UpdateColumn("usage_count", gorm.Expr("usage_count + 1")).Error
}

// UpsertShare creates or updates the grant for (roleID, targetUserID).
// Sharing the same role with the same user twice keeps exactly one row
// reflecting the latest can_edit value.
func UpsertShare(ctx context.Context, db *gorm.DB, roleID, targetUserID, sharedBy string, canEdit bool) (*domain.RoleShare, error) {
	now := time.Now().UTC()
	s := &domain.RoleShare{
		ID:               uuid.NewString(),
		RoleID:           roleID,
		SharedWithUserID: targetUserID,
		SharedByUserID:   sharedBy,
		CanEdit:          canEdit,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "role_id"}, {Name: "shared_with_user_id"}},
			// deleted_at is cleared so re-sharing after a revoke revives the
			// tombstoned grant instead of colliding with its unique index.
			DoUpdates: clause.Assignments(map[string]any{"can_edit": canEdit, "updated_at": now, "shared_by_user_id": sharedBy, "deleted_at": nil}),
		}).
		Create(s).Error
	if err != nil {
		return nil, err
	}
	// On conflict the pre-built struct carries a fresh ID the database never
	// stored; return the surviving row instead.
	return GetShare(ctx, db, roleID, targetUserID)
}

// GetShare returns the grant for (roleID, userID), or ErrNotFound.
func GetShare(ctx context.Context, db *gorm.DB, roleID, userID string) (*domain.RoleShare, error) {
	var s domain.RoleShare
	err := db.WithContext(ctx).
		Where("role_id = ? AND shared_with_user_id = ?", roleID, userID).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListGrantsForUser returns every grant where userID is the recipient.
// Services use it to annotate edit rights on merged role lists.
func ListGrantsForUser(ctx context.Context, db *gorm.DB, userID string) ([]domain.RoleShare, error) {
	var out []domain.RoleShare
	err := db.WithContext(ctx).
		Where("shared_with_user_id = ?", userID).
		Find(&out).Error
	return out, err
}

// ListShares returns all grants for a role.
func ListShares(ctx context.Context, db *gorm.DB, roleID string) ([]domain.RoleShare, error) {
	var out []domain.RoleShare
	err := db.WithContext(ctx).
		Where("role_id = ?", roleID).
		Order("created_at asc").
		Find(&out).Error
	return out, err
}

// DeleteShare removes the grant for (roleID, targetUserID). Returns
// ErrNotFound when no grant exists.
func DeleteShare(ctx context.Context, db *gorm.DB, roleID, targetUserID string) error {
	res := db.WithContext(ctx).
		Where("role_id = ? AND shared_with_user_id = ?", roleID, targetUserID).
		Delete(&domain.RoleShare{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
