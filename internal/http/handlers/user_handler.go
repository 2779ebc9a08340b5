// User HTTP handlers.
//
// Single endpoint: GET /users/me returns the mirror row for the authenticated
// subject, creating it on first access from the token claims stashed by the
// auth middleware.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Me godoc
// @ID          me
// @Summary     Current user profile
// @Description Returns the profile of the authenticated user, created lazily
// @Description from the identity provider's token claims.
// @Tags        Users
// @Produce     json
//
// @Success     200  {object}  domain.User
// @Failure     401  {object}  handlers.ErrorResponse "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /users/me [get]
func (h *Handlers) Me(c *gin.Context) {
	uid := userID(c)
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}

	u, err := h.userSvc.Ensure(c.Request.Context(), uid, c.GetString("email"), c.GetString("username"))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, u)
}
