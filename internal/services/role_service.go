// Package services – RoleService
//
// This file implements RoleService, which owns the lifecycle of reusable
// system-prompt personas and their sharing grants. Visibility resolution is
// strictly ordered: ownership first, then system visibility, then an
// existing share grant. A role simultaneously owned and shared with the
// same user always resolves to the owned view with full edit rights.
//
// The three-way merge of owned/shared/system roles is a pure function over
// already-fetched slices (MergeRoles) so it stays unit-testable without a
// database.
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ldelacour/go-carriere-backend/internal/domain"
	"github.com/ldelacour/go-carriere-backend/internal/repo"
)

// RoleService provides persona CRUD and sharing operations.
type RoleService struct {
	DB *gorm.DB
}

// RoleInput carries the mutable persona fields for create/update.
type RoleInput struct {
	Name         string
	SystemPrompt string
	Description  string
	Icon         string
	Category     string
}

// ListForUser returns the union of roles owned by userID, roles shared with
// userID, and system roles, deduplicated with priority owned > shared > system.
func (s *RoleService) ListForUser(ctx context.Context, userID string) ([]domain.Role, error) {
	tr := otel.Tracer("services/RoleService")
	ctx, span := tr.Start(ctx, "ListForUser",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	owned, err := repo.ListOwnedRoles(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	shared, err := repo.ListSharedRoles(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	grants, err := repo.ListGrantsForUser(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	system, err := repo.ListSystemRoles(ctx, s.DB)
	if err != nil {
		return nil, err
	}

	editable := make(map[string]bool, len(grants))
	for _, g := range grants {
		editable[g.RoleID] = g.CanEdit
	}
	return MergeRoles(owned, shared, editable, system), nil
}

// MergeRoles deduplicates the three visibility sets by role ID. An owned
// role always wins over a shared or system occurrence of the same ID; a
// shared occurrence wins over a system one. The editable map carries the
// can_edit flag of the caller's share grants, keyed by role ID.
func MergeRoles(owned, shared []domain.Role, editable map[string]bool, system []domain.Role) []domain.Role {
	out := make([]domain.Role, 0, len(owned)+len(shared)+len(system))
	seen := make(map[string]struct{}, cap(out))

	for _, r := range owned {
		r.IsOwned = true
		r.CanEdit = true
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	for _, r := range shared {
		if _, dup := seen[r.ID]; dup {
			continue
		}
		r.IsOwned = false
		r.CanEdit = editable[r.ID]
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	for _, r := range system {
		if _, dup := seen[r.ID]; dup {
			continue
		}
		r.IsOwned = false
		r.CanEdit = false
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out
}

// Get resolves a role for userID, checking ownership first, then system
// visibility, then an existing share grant, in that order. The result is
// annotated with IsOwned and CanEdit derived from the matching branch.
// Inaccessible and missing roles are both ErrRoleNotFound.
func (s *RoleService) Get(ctx context.Context, roleID, userID string) (*domain.Role, error) {
	tr := otel.Tracer("services/RoleService")
	ctx, span := tr.Start(ctx, "Get",
		trace.WithAttributes(
			attribute.String("role.id", roleID),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	r, err := repo.GetRole(ctx, s.DB, roleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, err
	}

	// Ownership wins over any other access path.
	if r.OwnerUserID != nil && *r.OwnerUserID == userID {
		r.IsOwned = true
		r.CanEdit = true
		return r, nil
	}
	if r.Visibility == domain.RoleVisibilitySystem {
		r.IsOwned = false
		r.CanEdit = false
		return r, nil
	}
	grant, err := repo.GetShare(ctx, s.DB, roleID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, err
	}
	r.IsOwned = false
	r.CanEdit = grant.CanEdit
	return r, nil
}

// Create inserts a new private role owned by userID.
func (s *RoleService) Create(ctx context.Context, userID string, in RoleInput) (*domain.Role, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.SystemPrompt) == "" {
		return nil, ErrEmptyPrompt
	}
	r := &domain.Role{
		Name:         strings.TrimSpace(in.Name),
		SystemPrompt: in.SystemPrompt,
		Description:  in.Description,
		Icon:         in.Icon,
		Category:     in.Category,
		Visibility:   domain.RoleVisibilityPrivate,
		IsActive:     true,
	}
	return repo.CreateRole(ctx, s.DB, userID, r)
}

// Update mutates a role when the caller is the owner or holds an editing
// grant. Returns ErrRoleForbidden otherwise.
func (s *RoleService) Update(ctx context.Context, roleID, userID string, in RoleInput) (*domain.Role, error) {
	r, err := s.Get(ctx, roleID, userID)
	if err != nil {
		return nil, err
	}
	if !r.CanEdit {
		return nil, ErrRoleForbidden
	}

	updates := map[string]any{}
	if v := strings.TrimSpace(in.Name); v != "" {
		updates["name"] = v
	}
	if in.SystemPrompt != "" {
		updates["system_prompt"] = in.SystemPrompt
	}
	if in.Description != "" {
		updates["description"] = in.Description
	}
	if in.Icon != "" {
		updates["icon"] = in.Icon
	}
	if in.Category != "" {
		updates["category"] = in.Category
	}
	if len(updates) == 0 {
		return r, nil
	}
	if err := repo.UpdateRole(ctx, s.DB, roleID, updates); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, err
	}
	return s.Get(ctx, roleID, userID)
}

// Delete removes a role. Only the owner may delete; an editing grant does
// not extend to deletion.
func (s *RoleService) Delete(ctx context.Context, roleID, userID string) error {
	r, err := s.Get(ctx, roleID, userID)
	if err != nil {
		return err
	}
	if !r.IsOwned {
		return ErrRoleForbidden
	}
	if err := repo.DeleteRole(ctx, s.DB, roleID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRoleNotFound
		}
		return err
	}
	return nil
}

// Share grants targetUserID access to a role owned by ownerUserID,
// optionally with editing rights. Re-sharing upserts the existing grant so
// the latest can_edit value wins and no duplicate rows accumulate.
func (s *RoleService) Share(ctx context.Context, roleID, ownerUserID, targetUserID string, canEdit bool) (*domain.RoleShare, error) {
	tr := otel.Tracer("services/RoleService")
	ctx, span := tr.Start(ctx, "Share",
		trace.WithAttributes(
			attribute.String("role.id", roleID),
			attribute.String("user.id", ownerUserID),
			attribute.String("target.id", targetUserID),
		),
	)
	defer span.End()

	if targetUserID == ownerUserID {
		return nil, ErrRoleForbidden
	}
	r, err := s.Get(ctx, roleID, ownerUserID)
	if err != nil {
		return nil, err
	}
	if !r.IsOwned {
		return nil, ErrRoleForbidden
	}

	grant, err := repo.UpsertShare(ctx, s.DB, roleID, targetUserID, ownerUserID, canEdit)
	if err != nil {
		return nil, err
	}
	// A shared private role becomes visible as "shared" in listings.
	if r.Visibility == domain.RoleVisibilityPrivate {
		_ = repo.UpdateRole(ctx, s.DB, roleID, map[string]any{"visibility": domain.RoleVisibilityShared})
	}
	return grant, nil
}

// Revoke removes targetUserID's grant on a role owned by ownerUserID.
func (s *RoleService) Revoke(ctx context.Context, roleID, ownerUserID, targetUserID string) error {
	r, err := s.Get(ctx, roleID, ownerUserID)
	if err != nil {
		return err
	}
	if !r.IsOwned {
		return ErrRoleForbidden
	}
	if err := repo.DeleteShare(ctx, s.DB, roleID, targetUserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRoleNotFound
		}
		return err
	}
	return nil
}

// ListShares lists a role's grants; owner-gated like Revoke.
func (s *RoleService) ListShares(ctx context.Context, roleID, ownerUserID string) ([]domain.RoleShare, error) {
	r, err := s.Get(ctx, roleID, ownerUserID)
	if err != nil {
		return nil, err
	}
	if !r.IsOwned {
		return nil, ErrRoleForbidden
	}
	return repo.ListShares(ctx, s.DB, roleID)
}

// ResolveForUse returns the system prompt of a role the user may attach to
// a message send, bumping its usage counter. Missing access degrades to an
// error the caller maps to 404.
func (s *RoleService) ResolveForUse(ctx context.Context, roleID, userID string) (string, error) {
	r, err := s.Get(ctx, roleID, userID)
	if err != nil {
		return "", err
	}
	if !r.IsActive {
		return "", ErrRoleNotFound
	}
	_ = repo.IncrementRoleUsage(ctx, s.DB, roleID)
	return r.SystemPrompt, nil
}
