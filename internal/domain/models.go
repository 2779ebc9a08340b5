// Package domain defines the persistence models for users, conversations,
// messages, roles, role shares, prompt templates, and quizzes. These types
// are mapped with GORM and form the core data layer of the application.
package domain

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Message author roles.
const (
	MessageRoleUser      = "user"
	MessageRoleAssistant = "assistant"
)

// Role visibility levels.
const (
	RoleVisibilityPrivate = "private"
	RoleVisibilityShared  = "shared"
	RoleVisibilitySystem  = "system"
)

// DefaultConversationTitle is the placeholder title applied when a
// conversation is created without one.
const DefaultConversationTitle = "Nouvelle conversation"

// User mirrors an account owned by the external identity provider. The row
// is created lazily on the first authenticated request; its ID is the
// provider's subject identifier, never locally generated.
type User struct {
	ID        string    `json:"id"         gorm:"type:varchar(64);primaryKey"`
	Email     string    `json:"email"      gorm:"type:varchar(255);not null;uniqueIndex"`
	Username  string    `json:"username"   gorm:"type:varchar(128);not null"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Conversation represents a chat thread owned by exactly one user.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - UserID: identifier of the owner; indexed for efficient retrieval.
//   - Title: human-readable title (auto-generated on the first message).
//   - ShareID: short opaque public identifier; stable once issued so that
//     previously distributed links keep working.
//   - IsPublic: whether unauthenticated read access via ShareID is allowed.
//   - UpdatedAt: touched on every new message so list ordering reflects recency.
type Conversation struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID    string         `json:"user_id"    gorm:"type:varchar(64);not null;index:idx_user_conversations"`
	Title     string         `json:"title"      gorm:"type:varchar(255);not null;default:'Nouvelle conversation'"`
	ShareID   *string        `json:"share_id,omitempty" gorm:"type:varchar(16);uniqueIndex"`
	IsPublic  bool           `json:"is_public"  gorm:"not null;default:false"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`

	// Messages is the ordered list of turns. Loaded on demand; cascade-deleted
	// with the conversation.
	Messages []Message `json:"messages,omitempty" gorm:"foreignKey:ConversationID"`
}

// TableName returns the database table name for Conversation.
func (Conversation) TableName() string { return "conversations" }

// Message represents a single utterance within a conversation, authored
// either by the "user" or the "assistant". Messages are immutable once
// created except for deletion.
//
// Assistant messages carry the provider model name and token usage.
// User messages may carry a serialized list of attachment descriptors.
type Message struct {
	ID             string         `json:"id"              gorm:"type:char(36);primaryKey"`
	ConversationID string         `json:"conversation_id" gorm:"type:char(36);not null;index:idx_conversation_msgs,priority:1"`
	UserID         string         `json:"user_id"         gorm:"type:varchar(64);not null"`
	Role           string         `json:"role"            gorm:"type:varchar(16);not null;check:role IN ('user','assistant')"`
	Content        string         `json:"content"         gorm:"type:text;not null"`
	Model          *string        `json:"model,omitempty" gorm:"type:varchar(128)"`
	Tokens         *int           `json:"tokens,omitempty"`
	Files          datatypes.JSON `json:"files,omitempty" gorm:"type:json"`
	CreatedAt      time.Time      `json:"created_at"      gorm:"index:idx_conversation_msgs,priority:2"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-"               gorm:"index"`

	// Conversation is the parent thread. Messages are cascade-deleted if
	// their conversation is removed.
	Conversation Conversation `json:"-" gorm:"foreignKey:ConversationID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// FileRef describes one attachment on a user message. Only the manifest
// (name, MIME type, size) is stored; binary content never reaches the
// completion endpoint.
type FileRef struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Size int64  `json:"size,omitempty"`
}

// Role is a reusable system-prompt persona attachable to a conversation.
// A role with visibility "system" has no owner and is globally readable.
type Role struct {
	ID           string         `json:"id"            gorm:"type:char(36);primaryKey"`
	OwnerUserID  *string        `json:"owner_user_id,omitempty" gorm:"type:varchar(64);index"`
	Name         string         `json:"name"          gorm:"type:varchar(128);not null"`
	SystemPrompt string         `json:"system_prompt" gorm:"type:text;not null"`
	Description  string         `json:"description"   gorm:"type:text"`
	Icon         string         `json:"icon"          gorm:"type:varchar(64)"`
	Category     string         `json:"category"      gorm:"type:varchar(64)"`
	Visibility   string         `json:"visibility"    gorm:"type:varchar(16);not null;default:'private';check:visibility IN ('private','shared','system')"`
	IsActive     bool           `json:"is_active"     gorm:"not null;default:true"`
	UsageCount   int64          `json:"usage_count"   gorm:"not null;default:0"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-"             gorm:"index"`

	// IsOwned and CanEdit annotate lookup results with the branch that
	// granted access. Never persisted.
	IsOwned bool `json:"is_owned" gorm:"-"`
	CanEdit bool `json:"can_edit" gorm:"-"`
}

// TableName returns the database table name for Role.
func (Role) TableName() string { return "roles" }

// RoleShare is a capability grant from a role's owner to another user.
// At most one active share exists per (role_id, shared_with_user_id) pair;
// re-sharing updates the existing row (upsert semantics).
type RoleShare struct {
	ID               string         `json:"id"                  gorm:"type:char(36);primaryKey"`
	RoleID           string         `json:"role_id"             gorm:"type:char(36);not null;index;uniqueIndex:ux_role_shared_with"`
	SharedWithUserID string         `json:"shared_with_user_id" gorm:"type:varchar(64);not null;index;uniqueIndex:ux_role_shared_with"`
	SharedByUserID   string         `json:"shared_by_user_id"   gorm:"type:varchar(64);not null"`
	CanEdit          bool           `json:"can_edit"            gorm:"not null;default:false"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `json:"-"                   gorm:"index"`

	// Role is the shared persona. Grants are cascade-deleted with the role.
	Role Role `json:"-" gorm:"foreignKey:RoleID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for RoleShare.
func (RoleShare) TableName() string { return "role_shares" }

// PromptTemplate is a named instruction template consumed by the document
// pipeline (CV and quiz generation). Templates are looked up by name; an
// absent template disables the dependent feature instead of failing the
// generation midway.
type PromptTemplate struct {
	ID        string    `json:"id"      gorm:"type:char(36);primaryKey"`
	Name      string    `json:"name"    gorm:"type:varchar(64);not null;uniqueIndex"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for PromptTemplate.
func (PromptTemplate) TableName() string { return "prompt_templates" }

// Quiz is a generated interview quiz owned by the requesting user. The
// provider's structured output is stored verbatim as JSON.
type Quiz struct {
	ID        string         `json:"id"      gorm:"type:char(36);primaryKey"`
	UserID    string         `json:"user_id" gorm:"type:varchar(64);not null;index"`
	Poste     string         `json:"poste"   gorm:"type:varchar(255)"`
	Data      datatypes.JSON `json:"data"    gorm:"type:json;not null"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"       gorm:"index"`
}

// TableName returns the database table name for Quiz.
func (Quiz) TableName() string { return "quizzes" }
