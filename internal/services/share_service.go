// Package services – ShareService
//
// This file implements public share links for conversations. Publishing is
// idempotent: a conversation keeps a single short share identifier for its
// lifetime, and republishing after a revoke reactivates the same link.
package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ldelacour/go-carriere-backend/internal/domain"
	"github.com/ldelacour/go-carriere-backend/internal/repo"
)

// shareIDLen is the length of the short public identifier.
const shareIDLen = 8

// ShareService manages public share links for conversations.
type ShareService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// BaseURL is the externally visible origin used to build share URLs,
	// e.g. "https://app.example.com".
	BaseURL string
}

// NewShareService constructs a ShareService.
func NewShareService(db *gorm.DB, baseURL string) *ShareService {
	return &ShareService{DB: db, BaseURL: strings.TrimRight(baseURL, "/")}
}

// ShareLink is the result of publishing a conversation.
type ShareLink struct {
	ShareID  string `json:"share_id"`
	ShareURL string `json:"share_url"`
	IsPublic bool   `json:"is_public"`
}

// Publish makes a conversation publicly readable and returns its share link.
//
// Only the owner may publish; a conversation belonging to another user yields
// ErrShareForbidden (the caller learns the resource exists but is not theirs,
// matching link-sharing semantics). Republishing an already shared
// conversation returns the existing identifier unchanged.
func (s *ShareService) Publish(ctx context.Context, conversationID, userID string) (*ShareLink, error) {
	tr := otel.Tracer("services/ShareService")
	ctx, span := tr.Start(ctx, "Publish",
		trace.WithAttributes(attribute.String("conversation.id", conversationID)),
	)
	defer span.End()

	conv, err := repo.GetConversationByID(ctx, s.DB, conversationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	if conv.UserID != userID {
		return nil, ErrShareForbidden
	}

	shareID := ""
	if conv.ShareID != nil && *conv.ShareID != "" {
		shareID = *conv.ShareID
	} else {
		shareID, err = s.newShareID(ctx)
		if err != nil {
			return nil, err
		}
	}

	if err := repo.SetConversationShare(ctx, s.DB, conversationID, &shareID, true); err != nil {
		return nil, err
	}

	return &ShareLink{ShareID: shareID, ShareURL: s.URL(shareID), IsPublic: true}, nil
}

// Revoke withdraws public access to a conversation. The share identifier is
// retained so a later Publish reuses the same link. Only the owner may revoke.
func (s *ShareService) Revoke(ctx context.Context, conversationID, userID string) error {
	conv, err := repo.GetConversationByID(ctx, s.DB, conversationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrConversationNotFound
		}
		return err
	}
	if conv.UserID != userID {
		return ErrShareForbidden
	}
	return repo.SetConversationShare(ctx, s.DB, conversationID, conv.ShareID, false)
}

// GetPublic returns a shared conversation by its share identifier. It only
// resolves conversations currently published; revoked or unknown identifiers
// yield ErrConversationNotFound.
func (s *ShareService) GetPublic(ctx context.Context, shareID string) (*domain.Conversation, error) {
	conv, err := repo.GetConversationByShareID(ctx, s.DB, shareID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	msgs, err := repo.ListMessages(s.DB.WithContext(ctx), conv.ID, 0)
	if err != nil {
		return nil, err
	}
	conv.Messages = msgs
	return conv, nil
}

// URL builds the public URL for a share identifier.
func (s *ShareService) URL(shareID string) string {
	return s.BaseURL + "/partage/" + shareID
}

// newShareID mints a short collision-checked identifier.
func (s *ShareService) newShareID(ctx context.Context) (string, error) {
	for i := 0; i < 5; i++ {
		id := strings.ReplaceAll(uuid.NewString(), "-", "")[:shareIDLen]
		taken, err := repo.ShareIDInUse(ctx, s.DB, id)
		if err != nil {
			return "", err
		}
		if !taken {
			return id, nil
		}
	}
	return "", errors.New("share: could not allocate identifier")
}
