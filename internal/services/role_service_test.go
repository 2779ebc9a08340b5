package services

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/ldelacour/go-carriere-backend/internal/domain"
	"github.com/ldelacour/go-carriere-backend/internal/repo"
)

func roleFixture(t *testing.T) (*RoleService, *gorm.DB) {
	t.Helper()
	db := newSvcDB(t, &domain.Role{}, &domain.RoleShare{})
	return &RoleService{DB: db}, db
}

func TestRoleCreate_RequiresNameAndPrompt(t *testing.T) {
	s, _ := roleFixture(t)

	if _, err := s.Create(context.Background(), "u1", RoleInput{Name: "  ", SystemPrompt: "p"}); !errors.Is(err, ErrEmptyPrompt) {
		t.Fatalf("expected ErrEmptyPrompt for blank name, got %v", err)
	}
	if _, err := s.Create(context.Background(), "u1", RoleInput{Name: "Coach", SystemPrompt: ""}); !errors.Is(err, ErrEmptyPrompt) {
		t.Fatalf("expected ErrEmptyPrompt for blank prompt, got %v", err)
	}
}

func TestRoleCreate_PrivateByDefault(t *testing.T) {
	s, _ := roleFixture(t)

	r, err := s.Create(context.Background(), "u1", RoleInput{Name: " Coach ", SystemPrompt: "Tu es un coach."})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if r.Name != "Coach" {
		t.Fatalf("name not trimmed: %q", r.Name)
	}
	if r.Visibility != domain.RoleVisibilityPrivate {
		t.Fatalf("visibility = %q; want private", r.Visibility)
	}
	if r.OwnerUserID == nil || *r.OwnerUserID != "u1" {
		t.Fatalf("owner not set: %v", r.OwnerUserID)
	}
}

func TestRoleGet_AccessBranches(t *testing.T) {
	s, db := roleFixture(t)
	ctx := context.Background()

	owned, _ := s.Create(ctx, "owner", RoleInput{Name: "Privé", SystemPrompt: "p"})
	system, err := repo.CreateSystemRole(ctx, db, &domain.Role{Name: "Coach carrière", SystemPrompt: "p"})
	if err != nil {
		t.Fatalf("seed system role: %v", err)
	}

	// Owner sees the role with edit rights.
	got, err := s.Get(ctx, owned.ID, "owner")
	if err != nil {
		t.Fatalf("owner Get: %v", err)
	}
	if !got.IsOwned || !got.CanEdit {
		t.Fatalf("owner flags = %+v", got)
	}

	// A stranger cannot see a private role; missing and inaccessible look alike.
	if _, err := s.Get(ctx, owned.ID, "stranger"); !errors.Is(err, ErrRoleNotFound) {
		t.Fatalf("expected ErrRoleNotFound for stranger, got %v", err)
	}

	// System roles are readable by everyone, never editable.
	got, err = s.Get(ctx, system.ID, "stranger")
	if err != nil {
		t.Fatalf("system Get: %v", err)
	}
	if got.IsOwned || got.CanEdit {
		t.Fatalf("system flags = %+v", got)
	}

	// A grant opens read access with the grant's edit flag.
	if _, err := s.Share(ctx, owned.ID, "owner", "friend", false); err != nil {
		t.Fatalf("Share: %v", err)
	}
	got, err = s.Get(ctx, owned.ID, "friend")
	if err != nil {
		t.Fatalf("grantee Get: %v", err)
	}
	if got.IsOwned || got.CanEdit {
		t.Fatalf("grantee flags = %+v", got)
	}
}

func TestRoleShare_UpsertsSingleGrant(t *testing.T) {
	s, db := roleFixture(t)
	ctx := context.Background()

	r, _ := s.Create(ctx, "owner", RoleInput{Name: "Coach", SystemPrompt: "p"})

	if _, err := s.Share(ctx, r.ID, "owner", "friend", false); err != nil {
		t.Fatalf("first Share: %v", err)
	}
	grant, err := s.Share(ctx, r.ID, "owner", "friend", true)
	if err != nil {
		t.Fatalf("second Share: %v", err)
	}
	if !grant.CanEdit {
		t.Fatalf("latest can_edit should win")
	}

	var n int64
	db.Model(&domain.RoleShare{}).Where("role_id = ?", r.ID).Count(&n)
	if n != 1 {
		t.Fatalf("re-sharing must not duplicate grants, got %d rows", n)
	}

	// Sharing flips a private role to shared visibility.
	got, _ := s.Get(ctx, r.ID, "owner")
	if got.Visibility != domain.RoleVisibilityShared {
		t.Fatalf("visibility = %q; want shared", got.Visibility)
	}
}

func TestRoleShare_Guards(t *testing.T) {
	s, _ := roleFixture(t)
	ctx := context.Background()

	r, _ := s.Create(ctx, "owner", RoleInput{Name: "Coach", SystemPrompt: "p"})

	if _, err := s.Share(ctx, r.ID, "owner", "owner", false); !errors.Is(err, ErrRoleForbidden) {
		t.Fatalf("self-share should be forbidden, got %v", err)
	}
	if _, err := s.Share(ctx, r.ID, "stranger", "friend", false); !errors.Is(err, ErrRoleNotFound) {
		t.Fatalf("stranger cannot even see the role, got %v", err)
	}

	// A grantee, editing or not, cannot re-share.
	if _, err := s.Share(ctx, r.ID, "owner", "friend", true); err != nil {
		t.Fatalf("Share: %v", err)
	}
	if _, err := s.Share(ctx, r.ID, "friend", "other", false); !errors.Is(err, ErrRoleForbidden) {
		t.Fatalf("grantee re-share should be forbidden, got %v", err)
	}
}

func TestRoleUpdate_EditGrant(t *testing.T) {
	s, _ := roleFixture(t)
	ctx := context.Background()

	r, _ := s.Create(ctx, "owner", RoleInput{Name: "Coach", SystemPrompt: "p"})
	if _, err := s.Share(ctx, r.ID, "owner", "reader", false); err != nil {
		t.Fatalf("Share: %v", err)
	}
	if _, err := s.Share(ctx, r.ID, "owner", "editor", true); err != nil {
		t.Fatalf("Share: %v", err)
	}

	if _, err := s.Update(ctx, r.ID, "reader", RoleInput{Name: "X"}); !errors.Is(err, ErrRoleForbidden) {
		t.Fatalf("read-only grant must not edit, got %v", err)
	}

	got, err := s.Update(ctx, r.ID, "editor", RoleInput{Description: "mise à jour"})
	if err != nil {
		t.Fatalf("editor Update: %v", err)
	}
	if got.Description != "mise à jour" {
		t.Fatalf("description = %q", got.Description)
	}
}

func TestRoleDelete_OwnerOnly(t *testing.T) {
	s, _ := roleFixture(t)
	ctx := context.Background()

	r, _ := s.Create(ctx, "owner", RoleInput{Name: "Coach", SystemPrompt: "p"})
	if _, err := s.Share(ctx, r.ID, "owner", "editor", true); err != nil {
		t.Fatalf("Share: %v", err)
	}

	// An editing grant does not extend to deletion.
	if err := s.Delete(ctx, r.ID, "editor"); !errors.Is(err, ErrRoleForbidden) {
		t.Fatalf("expected ErrRoleForbidden, got %v", err)
	}
	if err := s.Delete(ctx, r.ID, "owner"); err != nil {
		t.Fatalf("owner Delete: %v", err)
	}
	if _, err := s.Get(ctx, r.ID, "owner"); !errors.Is(err, ErrRoleNotFound) {
		t.Fatalf("deleted role should be gone, got %v", err)
	}
}

func TestRoleRevoke(t *testing.T) {
	s, _ := roleFixture(t)
	ctx := context.Background()

	r, _ := s.Create(ctx, "owner", RoleInput{Name: "Coach", SystemPrompt: "p"})
	if _, err := s.Share(ctx, r.ID, "owner", "friend", false); err != nil {
		t.Fatalf("Share: %v", err)
	}

	if err := s.Revoke(ctx, r.ID, "owner", "friend"); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if _, err := s.Get(ctx, r.ID, "friend"); !errors.Is(err, ErrRoleNotFound) {
		t.Fatalf("revoked grantee should lose access, got %v", err)
	}
}

func TestResolveForUse(t *testing.T) {
	s, db := roleFixture(t)
	ctx := context.Background()

	r, _ := s.Create(ctx, "owner", RoleInput{Name: "Coach", SystemPrompt: "Tu es un coach."})

	prompt, err := s.ResolveForUse(ctx, r.ID, "owner")
	if err != nil {
		t.Fatalf("ResolveForUse: %v", err)
	}
	if prompt != "Tu es un coach." {
		t.Fatalf("prompt = %q", prompt)
	}

	var got domain.Role
	db.First(&got, "id = ?", r.ID)
	if got.UsageCount != 1 {
		t.Fatalf("usage count = %d; want 1", got.UsageCount)
	}

	// Deactivated personas cannot be attached anymore.
	db.Model(&domain.Role{}).Where("id = ?", r.ID).Update("is_active", false)
	if _, err := s.ResolveForUse(ctx, r.ID, "owner"); !errors.Is(err, ErrRoleNotFound) {
		t.Fatalf("inactive role should be unusable, got %v", err)
	}
}

func TestMergeRoles_Precedence(t *testing.T) {
	owned := []domain.Role{{ID: "a", Name: "mine"}}
	shared := []domain.Role{{ID: "a", Name: "dup"}, {ID: "b", Name: "granted"}}
	system := []domain.Role{{ID: "b", Name: "dup"}, {ID: "c", Name: "builtin"}}

	out := MergeRoles(owned, shared, map[string]bool{"b": true}, system)
	if len(out) != 3 {
		t.Fatalf("expected 3 deduplicated roles, got %d", len(out))
	}
	if out[0].ID != "a" || !out[0].IsOwned || !out[0].CanEdit {
		t.Fatalf("owned occurrence must win: %+v", out[0])
	}
	if out[1].ID != "b" || out[1].IsOwned || !out[1].CanEdit {
		t.Fatalf("shared occurrence must win over system: %+v", out[1])
	}
	if out[2].ID != "c" || out[2].CanEdit {
		t.Fatalf("system roles are read-only: %+v", out[2])
	}
}

func TestListForUser_Union(t *testing.T) {
	s, db := roleFixture(t)
	ctx := context.Background()

	mine, _ := s.Create(ctx, "u1", RoleInput{Name: "Mien", SystemPrompt: "p"})
	other, _ := s.Create(ctx, "u2", RoleInput{Name: "Partagé", SystemPrompt: "p"})
	if _, err := s.Share(ctx, other.ID, "u2", "u1", true); err != nil {
		t.Fatalf("Share: %v", err)
	}
	if _, err := repo.CreateSystemRole(ctx, db, &domain.Role{Name: "Coach carrière", SystemPrompt: "p"}); err != nil {
		t.Fatalf("seed system role: %v", err)
	}
	// Noise: a private role of another user stays invisible.
	if _, err := s.Create(ctx, "u3", RoleInput{Name: "Caché", SystemPrompt: "p"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	out, err := s.ListForUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected owned+shared+system = 3 roles, got %d", len(out))
	}
	byID := map[string]domain.Role{}
	for _, r := range out {
		byID[r.ID] = r
	}
	if !byID[mine.ID].IsOwned {
		t.Fatalf("owned role not flagged: %+v", byID[mine.ID])
	}
	if g := byID[other.ID]; g.IsOwned || !g.CanEdit {
		t.Fatalf("granted role flags wrong: %+v", g)
	}
}
