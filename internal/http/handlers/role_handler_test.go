package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ldelacour/go-carriere-backend/internal/domain"
	"github.com/ldelacour/go-carriere-backend/internal/services"
)

// roleHandlers builds a Handlers whose role service is the given stub.
func roleHandlers(role RoleService) *Handlers {
	return New(stubConvSvc{}, role, stubShareSvc{}, stubDocSvc{}, stubUserSvc{})
}

func roleRouter(h *Handlers) *gin.Engine {
	r := gin.New()
	r.GET("/roles", h.ListRoles)
	r.POST("/roles", h.CreateRole)
	r.GET("/roles/:id", h.GetRole)
	r.PUT("/roles/:id", h.UpdateRole)
	r.DELETE("/roles/:id", h.DeleteRole)
	r.POST("/roles/:id/share", h.ShareRole)
	r.DELETE("/roles/:id/share/:userId", h.RevokeRoleShare)
	r.GET("/roles/:id/shares", h.ListRoleShares)
	return r
}

func doRole(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("X-User-ID", "u1")
	r.ServeHTTP(w, req)
	return w
}

// ---------- ListRoles ----------

func TestListRoles_Success_Error(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// success with annotation flags passed through
	{
		svc := stubRoleSvc{
			listForUser: func(ctx context.Context, u string) ([]domain.Role, error) {
				return []domain.Role{
					{ID: "r1", Name: "Coach carrière", IsOwned: true, CanEdit: true},
					{ID: "r2", Name: "Recruteur technique", Visibility: domain.RoleVisibilitySystem},
				}, nil
			},
		}
		w := doRole(roleRouter(roleHandlers(svc)), http.MethodGet, "/roles", "")
		if w.Code != http.StatusOK {
			t.Fatalf("list 200 -> %d", w.Code)
		}
		var out ListRolesResponse
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("json: %v", err)
		}
		if len(out.Roles) != 2 || !out.Roles[0].IsOwned || out.Roles[1].Visibility != domain.RoleVisibilitySystem {
			t.Fatalf("unexpected roles: %#v", out.Roles)
		}
	}

	// error -> 500
	{
		svc := stubRoleSvc{
			listForUser: func(context.Context, string) ([]domain.Role, error) {
				return nil, context.DeadlineExceeded
			},
		}
		if w := doRole(roleRouter(roleHandlers(svc)), http.MethodGet, "/roles", ""); w.Code != http.StatusInternalServerError {
			t.Fatalf("list error -> %d", w.Code)
		}
	}
}

// ---------- CreateRole ----------

func TestCreateRole_Binding_Success(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// missing system_prompt -> 400
	if w := doRole(roleRouter(roleHandlers(stubRoleSvc{})), http.MethodPost, "/roles", `{"name":"Coach"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("binding 400 -> %d", w.Code)
	}

	// success -> 201 with trimmed input
	var got services.RoleInput
	svc := stubRoleSvc{
		create: func(ctx context.Context, u string, in services.RoleInput) (*domain.Role, error) {
			got = in
			return &domain.Role{ID: "r1", Name: in.Name, Visibility: domain.RoleVisibilityPrivate, IsOwned: true}, nil
		},
	}
	w := doRole(roleRouter(roleHandlers(svc)), http.MethodPost, "/roles",
		`{"name":"  Coach entretien ","system_prompt":" Tu es un coach. ","category":"entretien"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create 201 -> %d body=%s", w.Code, w.Body.String())
	}
	if got.Name != "Coach entretien" || got.SystemPrompt != "Tu es un coach." || got.Category != "entretien" {
		t.Fatalf("input not trimmed: %+v", got)
	}
}

// ---------- GetRole ----------

func TestGetRole_UUID_NotFound_Success(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// bad uuid
	if w := doRole(roleRouter(roleHandlers(stubRoleSvc{})), http.MethodGet, "/roles/not-uuid", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("uuid 400 -> %d", w.Code)
	}

	// not found
	{
		svc := stubRoleSvc{
			get: func(context.Context, string, string) (*domain.Role, error) {
				return nil, services.ErrRoleNotFound
			},
		}
		if w := doRole(roleRouter(roleHandlers(svc)), http.MethodGet, "/roles/"+uuid.NewString(), ""); w.Code != http.StatusNotFound {
			t.Fatalf("not found -> %d", w.Code)
		}
	}

	// success
	{
		id := uuid.NewString()
		svc := stubRoleSvc{
			get: func(ctx context.Context, gotID, u string) (*domain.Role, error) {
				return &domain.Role{ID: gotID, Name: "Coach", CanEdit: true}, nil
			},
		}
		w := doRole(roleRouter(roleHandlers(svc)), http.MethodGet, "/roles/"+id, "")
		if w.Code != http.StatusOK {
			t.Fatalf("get 200 -> %d", w.Code)
		}
		var out domain.Role
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("json: %v", err)
		}
		if out.ID != id || !out.CanEdit {
			t.Fatalf("unexpected role: %#v", out)
		}
	}
}

// ---------- UpdateRole / DeleteRole ----------

func TestUpdateRole_Forbidden_Success(t *testing.T) {
	gin.SetMode(gin.TestMode)

	payload := `{"name":"Coach","system_prompt":"Tu es un coach."}`

	// reader without edit grant -> 403
	{
		svc := stubRoleSvc{
			update: func(context.Context, string, string, services.RoleInput) (*domain.Role, error) {
				return nil, services.ErrRoleForbidden
			},
		}
		if w := doRole(roleRouter(roleHandlers(svc)), http.MethodPut, "/roles/"+uuid.NewString(), payload); w.Code != http.StatusForbidden {
			t.Fatalf("forbidden -> %d", w.Code)
		}
	}

	// owner or editor -> 200
	{
		svc := stubRoleSvc{
			update: func(ctx context.Context, id, u string, in services.RoleInput) (*domain.Role, error) {
				return &domain.Role{ID: id, Name: in.Name}, nil
			},
		}
		if w := doRole(roleRouter(roleHandlers(svc)), http.MethodPut, "/roles/"+uuid.NewString(), payload); w.Code != http.StatusOK {
			t.Fatalf("update 200 -> %d", w.Code)
		}
	}
}

func TestDeleteRole_Forbidden_Success(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// editor (not owner) -> 403
	{
		svc := stubRoleSvc{
			del: func(context.Context, string, string) error { return services.ErrRoleForbidden },
		}
		if w := doRole(roleRouter(roleHandlers(svc)), http.MethodDelete, "/roles/"+uuid.NewString(), ""); w.Code != http.StatusForbidden {
			t.Fatalf("forbidden -> %d", w.Code)
		}
	}

	// owner -> 204
	if w := doRole(roleRouter(roleHandlers(stubRoleSvc{})), http.MethodDelete, "/roles/"+uuid.NewString(), ""); w.Code != http.StatusNoContent {
		t.Fatalf("204 -> %d", w.Code)
	}
}

// ---------- ShareRole / RevokeRoleShare / ListRoleShares ----------

func TestShareRole_Binding_Forbidden_Success(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// missing user_id -> 400
	if w := doRole(roleRouter(roleHandlers(stubRoleSvc{})), http.MethodPost, "/roles/"+uuid.NewString()+"/share", `{"can_edit":true}`); w.Code != http.StatusBadRequest {
		t.Fatalf("binding 400 -> %d", w.Code)
	}

	// non-owner share attempt -> 404 (existence hidden)
	{
		svc := stubRoleSvc{
			share: func(context.Context, string, string, string, bool) (*domain.RoleShare, error) {
				return nil, services.ErrRoleNotFound
			},
		}
		if w := doRole(roleRouter(roleHandlers(svc)), http.MethodPost, "/roles/"+uuid.NewString()+"/share", `{"user_id":"u2"}`); w.Code != http.StatusNotFound {
			t.Fatalf("not found -> %d", w.Code)
		}
	}

	// success -> 200, args forwarded
	{
		roleID := uuid.NewString()
		var got struct {
			id, owner, target string
			canEdit           bool
		}
		svc := stubRoleSvc{
			share: func(ctx context.Context, id, owner, target string, canEdit bool) (*domain.RoleShare, error) {
				got.id, got.owner, got.target, got.canEdit = id, owner, target, canEdit
				return &domain.RoleShare{RoleID: id, SharedWithUserID: target, CanEdit: canEdit}, nil
			},
		}
		w := doRole(roleRouter(roleHandlers(svc)), http.MethodPost, "/roles/"+roleID+"/share", `{"user_id":" u2 ","can_edit":true}`)
		if w.Code != http.StatusOK {
			t.Fatalf("share 200 -> %d body=%s", w.Code, w.Body.String())
		}
		if got.id != roleID || got.owner != "u1" || got.target != "u2" || !got.canEdit {
			t.Fatalf("service args mismatch: %+v", got)
		}
	}
}

func TestRevokeRoleShare_Paths(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// bad uuid
	if w := doRole(roleRouter(roleHandlers(stubRoleSvc{})), http.MethodDelete, "/roles/not-uuid/share/u2", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("uuid 400 -> %d", w.Code)
	}

	// success -> 204
	var got struct{ id, owner, target string }
	svc := stubRoleSvc{
		revoke: func(ctx context.Context, id, owner, target string) error {
			got.id, got.owner, got.target = id, owner, target
			return nil
		},
	}
	roleID := uuid.NewString()
	if w := doRole(roleRouter(roleHandlers(svc)), http.MethodDelete, "/roles/"+roleID+"/share/u2", ""); w.Code != http.StatusNoContent {
		t.Fatalf("204 -> %d", w.Code)
	}
	if got.id != roleID || got.owner != "u1" || got.target != "u2" {
		t.Fatalf("service args mismatch: %+v", got)
	}
}

func TestListRoleShares_Forbidden_Success(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// non-owner -> 403
	{
		svc := stubRoleSvc{
			listShares: func(context.Context, string, string) ([]domain.RoleShare, error) {
				return nil, services.ErrRoleForbidden
			},
		}
		if w := doRole(roleRouter(roleHandlers(svc)), http.MethodGet, "/roles/"+uuid.NewString()+"/shares", ""); w.Code != http.StatusForbidden {
			t.Fatalf("forbidden -> %d", w.Code)
		}
	}

	// owner -> 200
	{
		svc := stubRoleSvc{
			listShares: func(ctx context.Context, id, owner string) ([]domain.RoleShare, error) {
				return []domain.RoleShare{{RoleID: id, SharedWithUserID: "u2"}}, nil
			},
		}
		w := doRole(roleRouter(roleHandlers(svc)), http.MethodGet, "/roles/"+uuid.NewString()+"/shares", "")
		if w.Code != http.StatusOK {
			t.Fatalf("list 200 -> %d", w.Code)
		}
		var out ListRoleSharesResponse
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("json: %v", err)
		}
		if len(out.Shares) != 1 || out.Shares[0].SharedWithUserID != "u2" {
			t.Fatalf("unexpected shares: %#v", out.Shares)
		}
	}
}
