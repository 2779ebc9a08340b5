// Share HTTP handlers.
//
// This file exposes the share lifecycle for conversations:
//   - POST   /conversations/{id}/share   (publish, idempotent)
//   - DELETE /conversations/{id}/share   (revoke public access)
//   - GET    /public/conversations/{shareId}   (unauthenticated read)
//
// Publishing is owner-only and returns 403 (not 404) for someone else's
// conversation: a share attempt is an explicit claim of ownership, so there
// is no existence to hide. The public read endpoint requires no auth.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ldelacour/go-carriere-backend/internal/services"
)

// ShareConversation godoc
// @ID          shareConversation
// @Summary     Publish a conversation
// @Description Makes a conversation readable via a public link. Repeated calls
// @Description return the same share identifier; revoking and republishing
// @Description reactivates the original link.
// @Tags        Shares
// @Produce     json
//
// @Param       id  path  string  true  "Conversation ID (UUID)"  format(uuid)
//
// @Success     200  {object}  services.ShareLink
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse "Not the owner"
// @Failure     404  {object}  handlers.ErrorResponse "Conversation not found"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /conversations/{id}/share [post]
func (h *Handlers) ShareConversation(c *gin.Context) {
	conversationID := c.Param("id")
	if _, err := uuid.Parse(conversationID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "conversation id must be a UUID")
		return
	}

	link, err := h.shareSvc.Publish(c.Request.Context(), conversationID, userID(c))
	if err != nil {
		switch err {
		case services.ErrConversationNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "conversation not found")
		case services.ErrShareForbidden:
			fail(c, http.StatusForbidden, ErrCodeForbidden, "only the owner can share this conversation")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, link)
}

// UnshareConversation godoc
// @ID          unshareConversation
// @Summary     Revoke a public link
// @Description Withdraws public access to a conversation. The identifier is
// @Description kept so a later publish restores the same link.
// @Tags        Shares
// @Produce     json
//
// @Param       id  path  string  true  "Conversation ID (UUID)"  format(uuid)
//
// @Success     204  {string}  string "No Content"
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse "Not the owner"
// @Failure     404  {object}  handlers.ErrorResponse "Conversation not found"
// @Router      /conversations/{id}/share [delete]
func (h *Handlers) UnshareConversation(c *gin.Context) {
	conversationID := c.Param("id")
	if _, err := uuid.Parse(conversationID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "conversation id must be a UUID")
		return
	}

	if err := h.shareSvc.Revoke(c.Request.Context(), conversationID, userID(c)); err != nil {
		switch err {
		case services.ErrConversationNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "conversation not found")
		case services.ErrShareForbidden:
			fail(c, http.StatusForbidden, ErrCodeForbidden, "only the owner can unshare this conversation")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	noContent(c)
}

// GetPublicConversation godoc
// @ID          getPublicConversation
// @Summary     Read a shared conversation
// @Description Returns a published conversation by its share identifier. No
// @Description authentication is required; revoked or unknown identifiers
// @Description yield 404.
// @Tags        Shares
// @Produce     json
//
// @Param       shareId  path  string  true  "Share identifier"  example(a1b2c3d4)
//
// @Success     200  {object}  domain.Conversation
// @Failure     404  {object}  handlers.ErrorResponse "Not found"
// @Router      /public/conversations/{shareId} [get]
func (h *Handlers) GetPublicConversation(c *gin.Context) {
	shareID := strings.TrimSpace(c.Param("shareId"))
	if shareID == "" {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "conversation not found")
		return
	}

	conv, err := h.shareSvc.GetPublic(c.Request.Context(), shareID)
	if err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "conversation not found")
		return
	}
	ok(c, http.StatusOK, conv)
}
