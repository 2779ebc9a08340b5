// Package services – ConversationService
//
// This file implements the ConversationService, which manages the lifecycle
// of conversations and the send-message flow. It validates and normalizes
// titles and content, enforces ownership rules, and coordinates repository
// operations with the completion gateway.
//
// Ordering guarantee of SendMessage: the user message is durably stored
// before the external completion call is made, so a failed provider call
// never loses the user's input. First-message title generation happens
// inline in the same flow, not in a background job.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"golang.org/x/text/language"

	"github.com/ldelacour/go-carriere-backend/internal/domain"
	"github.com/ldelacour/go-carriere-backend/internal/llm"
	"github.com/ldelacour/go-carriere-backend/internal/repo"
)

// ConversationRepo defines the repository contract required by
// ConversationService. Implementations are responsible for persistence of
// conversation aggregates.
type ConversationRepo interface {
	// CreateConversation inserts a new conversation row for the given user.
	CreateConversation(ctx context.Context, db *gorm.DB, userID, title string) (*domain.Conversation, error)

	// ListConversations returns all conversations belonging to the user,
	// each with its first message attached for previews.
	ListConversations(ctx context.Context, db *gorm.DB, userID string) ([]domain.Conversation, error)

	// GetConversation fetches a conversation by ID ensuring it belongs to
	// the user, including the full ordered message list.
	GetConversation(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Conversation, error)

	// UpdateConversationTitle updates a title (only if owned by the user).
	UpdateConversationTitle(ctx context.Context, db *gorm.DB, id, userID, title string) error

	// DeleteConversation removes a conversation and its messages.
	DeleteConversation(ctx context.Context, db *gorm.DB, id, userID string) error

	// TouchConversation bumps updated_at after message creation.
	TouchConversation(ctx context.Context, db *gorm.DB, id string) error

	// CountConversations returns the total number of conversations for pagination.
	CountConversations(ctx context.Context, db *gorm.DB, userID string) (int64, error)

	// ListConversationsPage returns a page of conversations for the user.
	ListConversationsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Conversation, error)
}

// RoleResolver resolves the system prompt for a persona attached to a send.
type RoleResolver interface {
	ResolveForUse(ctx context.Context, roleID, userID string) (string, error)
}

// TitleSource produces a conversation title from the first user message.
// It must never fail; implementations fall back deterministically.
type TitleSource interface {
	Generate(ctx context.Context, firstMessage string) string
}

// SendResult pairs the two messages produced by one send.
type SendResult struct {
	UserMessage      *domain.Message `json:"user_message"`
	AssistantMessage *domain.Message `json:"assistant_message"`
}

// ConversationService provides conversation-level operations and the
// message-send orchestration.
type ConversationService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the conversation repository used by this service.
	Repo ConversationRepo
	// Gateway is the completion adapter; nil disables assistant replies.
	Gateway llm.Gateway
	// Titles produces first-message titles.
	Titles TitleSource
	// Sessions is the optional in-process history cache.
	Sessions *llm.SessionCache
	// Roles resolves persona prompts attached to sends; optional.
	Roles RoleResolver

	// MaxPromptRunes caps user message length.
	MaxPromptRunes int
	// TitleMaxLen caps stored titles by rune length.
	TitleMaxLen int
	// TitleLocale is retained for parity with the title pipeline; generated
	// titles are stored as produced.
	TitleLocale language.Tag
}

// NewConversationService constructs a ConversationService with sane defaults.
func NewConversationService(db *gorm.DB, r ConversationRepo, gw llm.Gateway, titles TitleSource) *ConversationService {
	return &ConversationService{
		DB:             db,
		Repo:           r,
		Gateway:        gw,
		Titles:         titles,
		MaxPromptRunes: 8000,
		TitleMaxLen:    50,
		TitleLocale:    language.French,
	}
}

// Create inserts a new conversation owned by userID with the provided title.
// Titles are normalized, trimmed, clipped, and the default applied when blank.
func (s *ConversationService) Create(ctx context.Context, userID, title string) (*domain.Conversation, error) {
	title = normalizeTitle(title)
	if title == "" {
		title = domain.DefaultConversationTitle
	}
	return s.Repo.CreateConversation(ctx, s.DB, userID, s.clip(title))
}

// List returns all conversations for a user, most recently active first,
// each carrying its first message as a preview.
func (s *ConversationService) List(ctx context.Context, userID string) ([]domain.Conversation, error) {
	return s.Repo.ListConversations(ctx, s.DB, userID)
}

// ListPage returns a page of conversations for a user (paginated).
// It applies defaults for invalid page/pageSize and returns total count.
func (s *ConversationService) ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Conversation, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountConversations(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Conversation{}, 0, nil
	}

	items, err := s.Repo.ListConversationsPage(ctx, s.DB, userID, offset, pageSize)
	return items, total, err
}

// Get fetches a conversation owned by userID including its full ordered
// message list. Missing and not-owned both map to ErrConversationNotFound.
func (s *ConversationService) Get(ctx context.Context, conversationID, userID string) (*domain.Conversation, error) {
	c, err := s.Repo.GetConversation(ctx, s.DB, conversationID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	return c, nil
}

// UpdateTitle updates a conversation's title, ensuring it exists and belongs
// to the given user.
func (s *ConversationService) UpdateTitle(ctx context.Context, userID, conversationID, title string) error {
	title = normalizeTitle(title)
	if title == "" {
		title = domain.DefaultConversationTitle
	}
	if _, err := s.Repo.GetConversation(ctx, s.DB, conversationID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrConversationNotFound
		}
		return err
	}
	return s.Repo.UpdateConversationTitle(ctx, s.DB, conversationID, userID, s.clip(title))
}

// Delete removes a conversation owned by userID along with its messages and
// evicts any cached session.
func (s *ConversationService) Delete(ctx context.Context, conversationID, userID string) error {
	if err := s.Repo.DeleteConversation(ctx, s.DB, conversationID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrConversationNotFound
		}
		return err
	}
	if s.Sessions != nil {
		s.Sessions.Drop(conversationID)
	}
	return nil
}

// SendMessage appends a user message to a conversation and obtains the
// assistant's reply from the gateway.
//
// Sequence:
//  1. validate and normalize the content,
//  2. verify the conversation exists and belongs to userID,
//  3. durably persist the user message (with attachment manifest) and touch
//     the conversation,
//  4. on the conversation's first message, generate and store a title,
//  5. format the full history and invoke the gateway,
//  6. persist the assistant reply with model and token usage.
//
// A gateway failure after step 3 returns the error without rolling back the
// stored user message.
func (s *ConversationService) SendMessage(ctx context.Context, userID, conversationID, content string, files []domain.FileRef, roleID string) (*SendResult, error) {
	tr := otel.Tracer("services/ConversationService")
	ctx, span := tr.Start(ctx, "SendMessage",
		trace.WithAttributes(
			attribute.String("conversation.id", conversationID),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyPrompt
	}
	if s.MaxPromptRunes > 0 && utf8.RuneCountInString(content) > s.MaxPromptRunes {
		return nil, ErrTooLong
	}

	conv, err := s.Repo.GetConversation(ctx, s.DB, conversationID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	firstMessage := len(conv.Messages) == 0

	// Resolve the persona before any write so an invalid role fails cleanly.
	systemPrompt := ""
	if roleID != "" && s.Roles != nil {
		systemPrompt, err = s.Roles.ResolveForUse(ctx, roleID, userID)
		if err != nil {
			return nil, err
		}
	}

	var filesJSON datatypes.JSON
	if len(files) > 0 {
		raw, merr := json.Marshal(files)
		if merr != nil {
			return nil, merr
		}
		filesJSON = datatypes.JSON(raw)
	}

	// Durably store the user's turn before calling out.
	userMsg, err := repo.CreateMessage(s.DB.WithContext(ctx), conversationID, userID, domain.MessageRoleUser, content, nil, nil, filesJSON)
	if err != nil {
		return nil, err
	}
	if terr := s.Repo.TouchConversation(ctx, s.DB, conversationID); terr != nil {
		span.RecordError(terr)
	}

	if firstMessage && s.Titles != nil && s.shouldAutoTitle(conv.Title) {
		if gen := s.clip(s.Titles.Generate(ctx, content)); gen != "" {
			if uerr := s.Repo.UpdateConversationTitle(ctx, s.DB, conversationID, userID, gen); uerr == nil {
				conv.Title = gen
			}
		}
	}

	history := s.history(conv, content, files)

	reply, err := s.Gateway.GenerateResponse(ctx, systemPrompt, history)
	if err != nil {
		// The user message stays; the caller surfaces the provider failure.
		return nil, err
	}

	model := reply.Model
	tokens := reply.TokensUsed
	assistantMsg, err := repo.CreateMessage(s.DB.WithContext(ctx), conversationID, userID, domain.MessageRoleAssistant, reply.Content, &model, &tokens, nil)
	if err != nil {
		return nil, err
	}
	if terr := s.Repo.TouchConversation(ctx, s.DB, conversationID); terr != nil {
		span.RecordError(terr)
	}

	if s.Sessions != nil {
		s.Sessions.Put(conversationID, append(history, llm.Turn{
			Role:    domain.MessageRoleAssistant,
			Content: reply.Content,
		}))
	}

	return &SendResult{UserMessage: userMsg, AssistantMessage: assistantMsg}, nil
}

// ListMessagesPage returns paginated messages for a conversation owned by
// userID.
func (s *ConversationService) ListMessagesPage(ctx context.Context, conversationID, userID string, page, pageSize int) ([]domain.Message, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	if _, err := s.Repo.GetConversation(ctx, s.DB, conversationID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, ErrConversationNotFound
		}
		return nil, 0, err
	}

	total, err := repo.CountMessages(s.DB.WithContext(ctx), conversationID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Message{}, 0, nil
	}

	items, err := repo.ListMessagesPage(s.DB.WithContext(ctx), conversationID, offset, pageSize)
	return items, total, err
}

// DeleteMessage removes a single message from a conversation owned by
// userID and drops the cached session so the next send rebuilds history
// from storage.
func (s *ConversationService) DeleteMessage(ctx context.Context, userID, conversationID, messageID string) error {
	owned, err := repo.ConversationOwned(ctx, s.DB, conversationID, userID)
	if err != nil {
		return err
	}
	if !owned {
		return ErrConversationNotFound
	}
	if err := repo.DeleteMessage(s.DB.WithContext(ctx), messageID, conversationID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMessageNotFound
		}
		return err
	}
	if s.Sessions != nil {
		s.Sessions.Drop(conversationID)
	}
	return nil
}

// history assembles the gateway turns for a send: the cached session when
// present, otherwise the conversation's stored messages, plus the new turn.
func (s *ConversationService) history(conv *domain.Conversation, content string, files []domain.FileRef) []llm.Turn {
	if s.Sessions != nil {
		if cached, ok := s.Sessions.Get(conv.ID); ok {
			return append(cached, llm.Turn{Role: domain.MessageRoleUser, Content: content, Files: files})
		}
	}
	turns := make([]llm.Turn, 0, len(conv.Messages)+1)
	for _, m := range conv.Messages {
		t := llm.Turn{Role: m.Role, Content: m.Content}
		if len(m.Files) > 0 {
			var refs []domain.FileRef
			if err := json.Unmarshal(m.Files, &refs); err == nil {
				t.Files = refs
			}
		}
		turns = append(turns, t)
	}
	return append(turns, llm.Turn{Role: domain.MessageRoleUser, Content: content, Files: files})
}

// shouldAutoTitle reports whether the current title is a placeholder.
func (s *ConversationService) shouldAutoTitle(current string) bool {
	t := strings.TrimSpace(strings.ToLower(current))
	return t == "" || t == strings.ToLower(domain.DefaultConversationTitle)
}

// clip truncates a title to the configured maximum rune length.
func (s *ConversationService) clip(title string) string {
	max := s.TitleMaxLen
	if max <= 0 {
		max = 50
	}
	if utf8.RuneCountInString(title) > max {
		return string([]rune(title)[:max])
	}
	return title
}

// normalizeTitle trims whitespace and collapses multiple spaces to one.
func normalizeTitle(s string) string {
	s = whitespaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
	return s
}

// whitespaceRE collapses consecutive whitespace to a single space.
var whitespaceRE = regexp.MustCompile(`\s+`)
