// Package services defines the business logic for conversations, messages,
// roles, sharing, and document generation. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler layer.
package services

import "errors"

var (
	// ErrConversationNotFound indicates that the requested conversation does
	// not exist or is not accessible to the current user.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrEmptyPrompt is returned when a request to send a message contains
	// an empty content field.
	ErrEmptyPrompt = errors.New("message content is empty")

	// ErrTooLong is returned when a message exceeds the maximum configured
	// length limit.
	ErrTooLong = errors.New("message content too long")

	// ErrMessageNotFound indicates that the requested message does not exist
	// in the conversation or is not accessible to the current user.
	ErrMessageNotFound = errors.New("message not found")

	// ErrRoleNotFound indicates that the requested role does not exist or is
	// not visible to the current user.
	ErrRoleNotFound = errors.New("role not found")

	// ErrRoleForbidden is returned when a user attempts a role mutation
	// without sufficient rights (not the owner, or no editing grant).
	ErrRoleForbidden = errors.New("insufficient rights on this role")

	// ErrShareForbidden is returned when a user attempts to publish a
	// conversation they do not own.
	ErrShareForbidden = errors.New("only the owner can share this conversation")

	// ErrFeatureUnavailable indicates a required instruction template is not
	// configured, so the dependent generation feature is disabled.
	ErrFeatureUnavailable = errors.New("generation template not configured")

	// ErrBadDocument indicates an uploaded document could not be read or
	// contained no extractable text.
	ErrBadDocument = errors.New("document could not be read")

	// ErrBadGeneration indicates the provider's structured output could not
	// be parsed.
	ErrBadGeneration = errors.New("provider returned unparseable output")
)
