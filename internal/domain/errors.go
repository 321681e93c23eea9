package domain

import "errors"

var (
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrInsufficientQuota   = errors.New("message quota exceeded")
	ErrUserNotFound        = errors.New("user not found")
	ErrUserExists          = errors.New("user with this email or username already exists")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrSessionNotFound     = errors.New("session not found")
	ErrSessionOwnership    = errors.New("session belongs to another user")
	ErrThreadCreation      = errors.New("failed to create thread")
	ErrUnsupportedToolCall = errors.New("unsupported tool call")
	ErrRunFailed           = errors.New("assistant run failed")
	ErrRunCancelled        = errors.New("assistant run cancelled")
	ErrRunExpired          = errors.New("assistant run expired")
	ErrRunTimedOut         = errors.New("assistant run timed out")
	ErrEmptyMessage        = errors.New("message is required")
)
