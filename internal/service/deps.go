package service

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/fiskara/taxchat/internal/assistant"
	"github.com/fiskara/taxchat/internal/domain"
)

// Provider is the remote conversation capability: threads, runs, thread
// messages and the file store. Implemented by assistant.Client.
type Provider interface {
	CreateThread(ctx context.Context) (string, error)
	PostMessage(ctx context.Context, threadID, text string, fileIDs []string) error
	CreateRun(ctx context.Context, threadID string, cfg assistant.RunConfig) (*assistant.Run, error)
	GetRun(ctx context.Context, threadID, runID string) (*assistant.Run, error)
	SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []assistant.ToolOutput) error
	ListMessages(ctx context.Context, threadID string) ([]assistant.ThreadMessage, error)
	UploadFile(ctx context.Context, name string, r io.Reader) (string, error)
}

// SessionStore persists the local mirror of conversations.
type SessionStore interface {
	Create(ctx context.Context, userID int64, title string) (*domain.ChatSession, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ChatSession, error)
	BindThread(ctx context.Context, id uuid.UUID, threadID string) (string, error)
	AddMessage(ctx context.Context, sessionID uuid.UUID, role, content string, attachments []domain.Attachment) (*domain.Message, error)
	Messages(ctx context.Context, sessionID uuid.UUID) ([]domain.Message, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.ChatSession, error)
	Rename(ctx context.Context, id uuid.UUID, userID int64, title string) error
	Delete(ctx context.Context, id uuid.UUID, userID int64) error
}

// UserStore persists accounts and their quota fields.
type UserStore interface {
	Create(ctx context.Context, username, email, passwordHash, jobTitle string, messageLimit int) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// Alerter delivers ops notifications. Optional; a nil Alerter disables it.
type Alerter interface {
	Notify(ctx context.Context, event, message string)
}
