package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message roles. The core never writes any other role locally.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatSession is the local mirror of one conversation. ThreadID is the
// remote provider's thread handle; it is assigned at most once and never
// changes afterwards. The provider stays authoritative for thread content.
type ChatSession struct {
	ID        uuid.UUID
	UserID    int64
	ThreadID  *string
	Title     string
	Messages  []Message
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message is one turn of a session. An assistant message with empty
// content is an in-flight placeholder, never a final reply.
type Message struct {
	ID          int64
	SessionID   uuid.UUID
	Role        string
	Content     string
	Attachments []Attachment
	CreatedAt   time.Time
}

// Attachment is a file associated with a message. FileID is the remote
// file-store handle; when nil the upload failed and the attachment exists
// for local display only — it must not be referenced when submitting the
// message to the provider.
type Attachment struct {
	ID       int64
	Name     string
	MimeType string
	Size     int64
	FileID   *string
}

// Skip reasons for files the ingestion pipeline did not attach.
const (
	SkipTooLarge        = "TooLarge"
	SkipUnsupportedType = "UnsupportedType"
	SkipUploadFailed    = "UploadFailed"
)

// SkippedFile describes a file rejected or lost during ingestion.
type SkippedFile struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}
