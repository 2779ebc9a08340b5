// Conversation HTTP handlers.
//
// This file exposes REST endpoints for conversation resources:
//   - POST   /conversations             (create)
//   - GET    /conversations             (list, paginated, ETag support)
//   - GET    /conversations/{id}        (fetch with messages)
//   - PUT    /conversations/{id}/title  (rename)
//   - DELETE /conversations/{id}        (delete with messages)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses (including conditional responses).
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ldelacour/go-carriere-backend/internal/domain"
	"github.com/ldelacour/go-carriere-backend/internal/repo"
	"github.com/ldelacour/go-carriere-backend/internal/services"
	"github.com/ldelacour/go-carriere-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// ConversationService defines conversation lifecycle operations consumed by
// HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type ConversationService interface {
	// Create starts a new conversation for userID with an optional title.
	Create(ctx context.Context, userID, title string) (*domain.Conversation, error)
	// List returns all conversations for a user with first-message previews.
	List(ctx context.Context, userID string) ([]domain.Conversation, error)
	// ListPage returns a page of conversations for a user and the total count.
	ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Conversation, int64, error)
	// Get fetches a conversation owned by userID with its full message list.
	Get(ctx context.Context, conversationID, userID string) (*domain.Conversation, error)
	// UpdateTitle renames a conversation that belongs to userID.
	UpdateTitle(ctx context.Context, userID, conversationID, title string) error
	// Delete removes a conversation owned by userID and its messages.
	Delete(ctx context.Context, conversationID, userID string) error
	// SendMessage appends a user message and generates the assistant reply.
	SendMessage(ctx context.Context, userID, conversationID, content string, files []domain.FileRef, roleID string) (*services.SendResult, error)
	// ListMessagesPage returns a page of messages for an owned conversation.
	ListMessagesPage(ctx context.Context, conversationID, userID string, page, pageSize int) ([]domain.Message, int64, error)
	// DeleteMessage removes one message from an owned conversation.
	DeleteMessage(ctx context.Context, userID, conversationID, messageID string) error
}

// RoleService defines persona CRUD and sharing operations consumed by HTTP
// handlers.
type RoleService interface {
	ListForUser(ctx context.Context, userID string) ([]domain.Role, error)
	Get(ctx context.Context, roleID, userID string) (*domain.Role, error)
	Create(ctx context.Context, userID string, in services.RoleInput) (*domain.Role, error)
	Update(ctx context.Context, roleID, userID string, in services.RoleInput) (*domain.Role, error)
	Delete(ctx context.Context, roleID, userID string) error
	Share(ctx context.Context, roleID, ownerUserID, targetUserID string, canEdit bool) (*domain.RoleShare, error)
	Revoke(ctx context.Context, roleID, ownerUserID, targetUserID string) error
	ListShares(ctx context.Context, roleID, ownerUserID string) ([]domain.RoleShare, error)
}

// ShareService defines public share link operations consumed by HTTP handlers.
type ShareService interface {
	Publish(ctx context.Context, conversationID, userID string) (*services.ShareLink, error)
	Revoke(ctx context.Context, conversationID, userID string) error
	GetPublic(ctx context.Context, shareID string) (*domain.Conversation, error)
}

// DocumentService defines CV/quiz generation operations consumed by HTTP
// handlers.
type DocumentService interface {
	GenerateCV(ctx context.Context, userID string, req services.CVRequest) (*services.CVResult, error)
	GenerateQuiz(ctx context.Context, userID string, req services.QuizRequest) (*domain.Quiz, error)
	ListQuizzes(ctx context.Context, userID string) ([]domain.Quiz, error)
}

// UserService defines identity mirror operations consumed by HTTP handlers.
type UserService interface {
	Ensure(ctx context.Context, id, email, username string) (*domain.User, error)
	Get(ctx context.Context, id string) (*domain.User, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for conversations, roles, documents, shares,
// and users. It depends on abstract service interfaces to keep transport
// concerns separate from business logic.
type Handlers struct {
	convSvc  ConversationService
	roleSvc  RoleService
	shareSvc ShareService
	docSvc   DocumentService
	userSvc  UserService

	// MaxUploadBytes caps multipart file sizes for the document pipeline.
	MaxUploadBytes int64
	// IdempotencyTTL is how long a stored Idempotency-Key result can be
	// replayed. Values <= 0 fall back to 24h.
	IdempotencyTTL time.Duration
}

// New constructs and returns a Handlers instance bound to the given services.
func New(convSvc ConversationService, roleSvc RoleService, shareSvc ShareService, docSvc DocumentService, userSvc UserService) *Handlers {
	return &Handlers{
		convSvc:        convSvc,
		roleSvc:        roleSvc,
		shareSvc:       shareSvc,
		docSvc:         docSvc,
		userSvc:        userSvc,
		MaxUploadBytes: 10 << 20,
	}
}

// userID extracts the authenticated user id from Gin context (set by the auth
// middleware). If absent, it falls back to "X-User-ID" header (tests use it).
// It never touches c.Request if it's nil.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return ""
}

//
// DTOs
//

// CreateConversationRequest is the JSON payload for creating a conversation.
type CreateConversationRequest struct {
	// Title optionally sets the conversation title; a default is used when empty.
	Title string `json:"title" example:"Préparer l'entretien DevOps"`
}

// UpdateConversationTitleRequest is the JSON payload for renaming a conversation.
type UpdateConversationTitleRequest struct {
	// Title is the new conversation name (1–255 chars).
	Title string `json:"title" binding:"required,min=1,max=255" example:"Relecture CV — poste SRE"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListConversationsResponse wraps a page of conversations and pagination
// information.
type ListConversationsResponse struct {
	Conversations []domain.Conversation `json:"conversations"`
	Pagination    Pagination            `json:"pagination"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

//
// Handlers
//

// CreateConversation godoc
// @ID          createConversation
// @Summary     Create a new conversation
// @Description Creates a conversation for the current user and returns the resource.
// @Tags        Conversations
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.CreateConversationRequest  true  "Create conversation payload"
//
// @Success     201  {object}  domain.Conversation
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /conversations [post]
func (h *Handlers) CreateConversation(c *gin.Context) {
	var req CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	title := strings.TrimSpace(req.Title)

	conv, err := h.convSvc.Create(c.Request.Context(), userID(c), title)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		return
	}
	ok(c, http.StatusCreated, conv)
}

// ListConversations godoc
// @ID          listConversations
// @Summary     List conversations (paginated)
// @Description Returns a page of the user's conversations, most recently active first.
// @Description Supports weak ETag via If-None-Match and may return 304.
// @Tags        Conversations
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListConversationsResponse
// @Header      200  {string} ETag           "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /conversations [get]
func (h *Handlers) ListConversations(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	var db *gorm.DB
	if svc, ok := h.convSvc.(*services.ConversationService); ok {
		db = svc.DB
	}
	if db != nil {
		count, maxTS, err := repo.ConversationsStats(ctx, db, uid)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"conversations:%s:%d:%d"`, uid, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	// Fetch page.
	items, total, err := h.convSvc.ListPage(ctx, uid, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	resp := ListConversationsResponse{
		Conversations: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	}
	ok(c, http.StatusOK, resp)
}

// GetConversation godoc
// @ID          getConversation
// @Summary     Fetch a conversation
// @Description Returns a conversation owned by the current user, including its
// @Description full ordered message list.
// @Tags        Conversations
// @Produce     json
//
// @Param       id  path  string  true  "Conversation ID (UUID)"  format(uuid)
//
// @Success     200  {object} domain.Conversation
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Conversation not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /conversations/{id} [get]
func (h *Handlers) GetConversation(c *gin.Context) {
	conversationID := c.Param("id")
	if _, err := uuid.Parse(conversationID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "conversation id must be a UUID")
		return
	}

	conv, err := h.convSvc.Get(c.Request.Context(), conversationID, userID(c))
	if err != nil {
		if err == services.ErrConversationNotFound {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "conversation not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, conv)
}

// UpdateConversationTitle godoc
// @ID          updateConversationTitle
// @Summary     Rename a conversation
// @Description Updates the title of a conversation owned by the current user.
// @Tags        Conversations
// @Accept      json
// @Produce     json
//
// @Param       id    path  string  true  "Conversation ID (UUID)"  format(uuid)
// @Param       body  body  handlers.UpdateConversationTitleRequest  true  "New title"
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Conversation not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /conversations/{id}/title [put]
func (h *Handlers) UpdateConversationTitle(c *gin.Context) {
	conversationID := c.Param("id")
	if _, err := uuid.Parse(conversationID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "conversation id must be a UUID")
		return
	}

	var req UpdateConversationTitleRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "title required (1–255 chars)")
		return
	}

	if err := h.convSvc.UpdateTitle(c.Request.Context(), userID(c), conversationID, req.Title); err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "conversation not found")
		return
	}

	noContent(c)
}

// DeleteConversation godoc
// @ID          deleteConversation
// @Summary     Delete a conversation
// @Description Deletes a conversation owned by the current user along with its messages.
// @Tags        Conversations
// @Produce     json
//
// @Param       id  path  string  true  "Conversation ID (UUID)"  format(uuid)
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Conversation not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /conversations/{id} [delete]
func (h *Handlers) DeleteConversation(c *gin.Context) {
	conversationID := c.Param("id")
	if _, err := uuid.Parse(conversationID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "conversation id must be a UUID")
		return
	}

	if err := h.convSvc.Delete(c.Request.Context(), conversationID, userID(c)); err != nil {
		if err == services.ErrConversationNotFound {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "conversation not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	noContent(c)
}
