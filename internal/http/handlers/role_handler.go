// Role HTTP handlers.
//
// This file exposes REST endpoints for persona resources:
//   - GET    /roles                       (list owned + shared + system, annotated)
//   - POST   /roles                       (create private persona)
//   - GET    /roles/{id}                  (fetch accessible persona)
//   - PUT    /roles/{id}                  (update, requires edit grant or ownership)
//   - DELETE /roles/{id}                  (delete, owner only)
//   - POST   /roles/{id}/share            (grant access to another user, upsert)
//   - DELETE /roles/{id}/share/{userId}   (revoke a grant)
//   - GET    /roles/{id}/shares           (list grants, owner only)
//
// Access resolution happens in the service layer; handlers only map service
// errors to HTTP statuses.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ldelacour/go-carriere-backend/internal/domain"
	"github.com/ldelacour/go-carriere-backend/internal/services"
)

//
// DTOs
//

// RoleRequest is the JSON payload for creating or updating a persona.
type RoleRequest struct {
	// Name is the display name of the persona.
	Name string `json:"name" binding:"required,min=1,max=128" example:"Coach entretien"`
	// SystemPrompt frames every assistant reply when the persona is active.
	SystemPrompt string `json:"system_prompt" binding:"required,min=1" example:"Tu es un coach spécialisé dans la préparation aux entretiens techniques."`
	// Description optionally documents the persona's intent.
	Description string `json:"description,omitempty"`
	// Icon optionally names a UI glyph.
	Icon string `json:"icon,omitempty" example:"graduation-cap"`
	// Category optionally groups personas in the UI.
	Category string `json:"category,omitempty" example:"entretien"`
}

// ShareRoleRequest is the JSON payload for granting persona access.
type ShareRoleRequest struct {
	// UserID identifies the grantee.
	UserID string `json:"user_id" binding:"required,min=1" example:"auth0|64adf1..."`
	// CanEdit grants write access in addition to read.
	CanEdit bool `json:"can_edit"`
}

// ListRolesResponse wraps the annotated persona list.
type ListRolesResponse struct {
	Roles []domain.Role `json:"roles"`
}

// ListRoleSharesResponse wraps a persona's grant list.
type ListRoleSharesResponse struct {
	Shares []domain.RoleShare `json:"shares"`
}

// roleInput converts the transport DTO into the service-layer input.
func (r RoleRequest) roleInput() services.RoleInput {
	return services.RoleInput{
		Name:         strings.TrimSpace(r.Name),
		SystemPrompt: strings.TrimSpace(r.SystemPrompt),
		Description:  strings.TrimSpace(r.Description),
		Icon:         strings.TrimSpace(r.Icon),
		Category:     strings.TrimSpace(r.Category),
	}
}

// failRole maps service-layer persona errors to HTTP responses.
func failRole(c *gin.Context, err error) {
	switch err {
	case services.ErrRoleNotFound:
		fail(c, http.StatusNotFound, ErrCodeNotFound, "role not found")
	case services.ErrRoleForbidden:
		fail(c, http.StatusForbidden, ErrCodeForbidden, "insufficient permissions on role")
	case services.ErrEmptyPrompt:
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name and system_prompt required")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

//
// Handlers
//

// ListRoles godoc
// @ID          listRoles
// @Summary     List accessible personas
// @Description Returns the personas visible to the current user: owned, shared
// @Description with them, and system-provided, deduplicated with owned taking
// @Description precedence. Each entry carries is_owned and can_edit flags.
// @Tags        Roles
// @Produce     json
//
// @Success     200  {object}  handlers.ListRolesResponse
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /roles [get]
func (h *Handlers) ListRoles(c *gin.Context) {
	roles, err := h.roleSvc.ListForUser(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListRolesResponse{Roles: roles})
}

// CreateRole godoc
// @ID          createRole
// @Summary     Create a persona
// @Description Creates a private persona owned by the current user.
// @Tags        Roles
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.RoleRequest  true  "Persona payload"
//
// @Success     201  {object}  domain.Role
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /roles [post]
func (h *Handlers) CreateRole(c *gin.Context) {
	var req RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name and system_prompt required")
		return
	}

	role, err := h.roleSvc.Create(c.Request.Context(), userID(c), req.roleInput())
	if err != nil {
		failRole(c, err)
		return
	}
	ok(c, http.StatusCreated, role)
}

// GetRole godoc
// @ID          getRole
// @Summary     Fetch a persona
// @Description Returns a persona the current user can access (owned, shared, or system).
// @Tags        Roles
// @Produce     json
//
// @Param       id  path  string  true  "Role ID (UUID)"  format(uuid)
//
// @Success     200  {object}  domain.Role
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse "Role not found"
// @Router      /roles/{id} [get]
func (h *Handlers) GetRole(c *gin.Context) {
	roleID := c.Param("id")
	if _, err := uuid.Parse(roleID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "role id must be a UUID")
		return
	}

	role, err := h.roleSvc.Get(c.Request.Context(), roleID, userID(c))
	if err != nil {
		failRole(c, err)
		return
	}
	ok(c, http.StatusOK, role)
}

// UpdateRole godoc
// @ID          updateRole
// @Summary     Update a persona
// @Description Updates a persona the current user owns or holds an edit grant on.
// @Tags        Roles
// @Accept      json
// @Produce     json
//
// @Param       id    path  string                true  "Role ID (UUID)"  format(uuid)
// @Param       body  body  handlers.RoleRequest  true  "Persona payload"
//
// @Success     200  {object}  domain.Role
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse "Forbidden"
// @Failure     404  {object}  handlers.ErrorResponse "Role not found"
// @Router      /roles/{id} [put]
func (h *Handlers) UpdateRole(c *gin.Context) {
	roleID := c.Param("id")
	if _, err := uuid.Parse(roleID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "role id must be a UUID")
		return
	}

	var req RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name and system_prompt required")
		return
	}

	role, err := h.roleSvc.Update(c.Request.Context(), roleID, userID(c), req.roleInput())
	if err != nil {
		failRole(c, err)
		return
	}
	ok(c, http.StatusOK, role)
}

// DeleteRole godoc
// @ID          deleteRole
// @Summary     Delete a persona
// @Description Deletes a persona owned by the current user along with its grants.
// @Tags        Roles
// @Produce     json
//
// @Param       id  path  string  true  "Role ID (UUID)"  format(uuid)
//
// @Success     204  {string}  string "No Content"
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse "Forbidden"
// @Failure     404  {object}  handlers.ErrorResponse "Role not found"
// @Router      /roles/{id} [delete]
func (h *Handlers) DeleteRole(c *gin.Context) {
	roleID := c.Param("id")
	if _, err := uuid.Parse(roleID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "role id must be a UUID")
		return
	}

	if err := h.roleSvc.Delete(c.Request.Context(), roleID, userID(c)); err != nil {
		failRole(c, err)
		return
	}
	noContent(c)
}

// ShareRole godoc
// @ID          shareRole
// @Summary     Share a persona
// @Description Grants another user access to a persona owned by the current user.
// @Description Re-sharing with the same user updates the existing grant instead
// @Description of creating a duplicate.
// @Tags        Roles
// @Accept      json
// @Produce     json
//
// @Param       id    path  string                     true  "Role ID (UUID)"  format(uuid)
// @Param       body  body  handlers.ShareRoleRequest  true  "Grant payload"
//
// @Success     200  {object}  domain.RoleShare
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse "Forbidden"
// @Failure     404  {object}  handlers.ErrorResponse "Role not found"
// @Router      /roles/{id}/share [post]
func (h *Handlers) ShareRole(c *gin.Context) {
	roleID := c.Param("id")
	if _, err := uuid.Parse(roleID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "role id must be a UUID")
		return
	}

	var req ShareRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.UserID) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user_id required")
		return
	}

	share, err := h.roleSvc.Share(c.Request.Context(), roleID, userID(c), strings.TrimSpace(req.UserID), req.CanEdit)
	if err != nil {
		failRole(c, err)
		return
	}
	ok(c, http.StatusOK, share)
}

// RevokeRoleShare godoc
// @ID          revokeRoleShare
// @Summary     Revoke a persona grant
// @Description Removes another user's access to a persona owned by the current user.
// @Tags        Roles
// @Produce     json
//
// @Param       id      path  string  true  "Role ID (UUID)"  format(uuid)
// @Param       userId  path  string  true  "Grantee user ID"
//
// @Success     204  {string}  string "No Content"
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse "Forbidden"
// @Failure     404  {object}  handlers.ErrorResponse "Role not found"
// @Router      /roles/{id}/share/{userId} [delete]
func (h *Handlers) RevokeRoleShare(c *gin.Context) {
	roleID := c.Param("id")
	if _, err := uuid.Parse(roleID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "role id must be a UUID")
		return
	}
	target := strings.TrimSpace(c.Param("userId"))
	if target == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user id required")
		return
	}

	if err := h.roleSvc.Revoke(c.Request.Context(), roleID, userID(c), target); err != nil {
		failRole(c, err)
		return
	}
	noContent(c)
}

// ListRoleShares godoc
// @ID          listRoleShares
// @Summary     List persona grants
// @Description Returns the grants on a persona owned by the current user.
// @Tags        Roles
// @Produce     json
//
// @Param       id  path  string  true  "Role ID (UUID)"  format(uuid)
//
// @Success     200  {object}  handlers.ListRoleSharesResponse
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse "Forbidden"
// @Failure     404  {object}  handlers.ErrorResponse "Role not found"
// @Router      /roles/{id}/shares [get]
func (h *Handlers) ListRoleShares(c *gin.Context) {
	roleID := c.Param("id")
	if _, err := uuid.Parse(roleID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "role id must be a UUID")
		return
	}

	shares, err := h.roleSvc.ListShares(c.Request.Context(), roleID, userID(c))
	if err != nil {
		failRole(c, err)
		return
	}
	ok(c, http.StatusOK, ListRoleSharesResponse{Shares: shares})
}
