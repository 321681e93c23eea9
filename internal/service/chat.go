package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fiskara/taxchat/internal/assistant"
	"github.com/fiskara/taxchat/internal/config"
	"github.com/fiskara/taxchat/internal/domain"
)

// SendRequest is one caller submission: a message, an optional existing
// session and optional files.
type SendRequest struct {
	SessionID *uuid.UUID
	Message   string
	Files     []IncomingFile
}

// SendResult carries the persisted turn back to the caller.
type SendResult struct {
	SessionID         uuid.UUID
	UserMessage       domain.Message
	Replies           []domain.Message
	RemainingMessages int
	SkippedFiles      []domain.SkippedFile
}

// ChatService orchestrates one conversation turn end to end: session and
// thread resolution, quota debit, file ingestion, run execution and
// response reconstruction. Any failure after the debit is compensated
// with a quota refund.
type ChatService struct {
	provider Provider
	sessions SessionStore
	quota    *QuotaGuard
	ingestor *Ingestor
	executor *runExecutor
	alerts   Alerter

	timeoutText  time.Duration
	timeoutTools time.Duration
}

func NewChatService(provider Provider, sessions SessionStore, quota *QuotaGuard, tools *ToolRegistry, assistantID string, alerts Alerter) *ChatService {
	return &ChatService{
		provider:     provider,
		sessions:     sessions,
		quota:        quota,
		ingestor:     NewIngestor(provider),
		executor:     newRunExecutor(provider, tools, buildRunConfig(assistantID, tools)),
		alerts:       alerts,
		timeoutText:  config.RunTimeoutText,
		timeoutTools: config.RunTimeoutTools,
	}
}

// buildRunConfig fixes the assistant configuration every run starts with:
// model, sampling parameters, instructions and the enabled tool set.
func buildRunConfig(assistantID string, tools *ToolRegistry) assistant.RunConfig {
	return assistant.RunConfig{
		AssistantID:  assistantID,
		Model:        config.AssistantModel,
		Temperature:  config.AssistantTemperature,
		TopP:         config.AssistantTopP,
		Instructions: config.AssistantInstructions,
		Tools:        tools.Definitions(),
	}
}

// SendMessage runs one full turn. The quota is debited before any remote
// call; a short balance means zero provider traffic.
func (s *ChatService) SendMessage(ctx context.Context, userID int64, req SendRequest) (*SendResult, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, domain.ErrEmptyMessage
	}

	session, err := s.resolveSession(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	remaining, err := s.quota.Debit(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientQuota) {
			s.notify(ctx, "quota_exhausted", fmt.Sprintf("user %d has no messages left", userID))
		}
		return nil, err
	}

	result, err := s.runTurn(ctx, session, req)
	if err != nil {
		s.quota.Refund(ctx, userID)
		s.notify(ctx, "turn_failed", fmt.Sprintf("session %s: %v", session.ID, err))
		return nil, err
	}

	result.RemainingMessages = remaining
	return result, nil
}

func (s *ChatService) resolveSession(ctx context.Context, userID int64, req SendRequest) (*domain.ChatSession, error) {
	if req.SessionID == nil {
		return s.sessions.Create(ctx, userID, deriveTitle(req.Message))
	}

	session, err := s.sessions.GetByID(ctx, *req.SessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, domain.ErrSessionOwnership
	}
	return session, nil
}

// resolveThread returns the session's remote thread handle, creating and
// binding one on first use. The binding is immutable: a lost bind race
// yields the already-stored handle, never a second one.
func (s *ChatService) resolveThread(ctx context.Context, session *domain.ChatSession) (string, error) {
	if session.ThreadID != nil {
		return *session.ThreadID, nil
	}

	threadID, err := s.provider.CreateThread(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrThreadCreation, err)
	}

	bound, err := s.sessions.BindThread(ctx, session.ID, threadID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrThreadCreation, err)
	}
	session.ThreadID = &bound
	return bound, nil
}

func (s *ChatService) runTurn(ctx context.Context, session *domain.ChatSession, req SendRequest) (*SendResult, error) {
	threadID, err := s.resolveThread(ctx, session)
	if err != nil {
		return nil, err
	}

	attached, skipped := s.ingestor.Ingest(ctx, req.Files)
	ids := fileIDs(attached)

	timeout := s.timeoutText
	if len(ids) > 0 {
		timeout = s.timeoutTools
	}

	if err := s.executor.execute(ctx, threadID, req.Message, ids, timeout); err != nil {
		return nil, err
	}

	raw, err := s.provider.ListMessages(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("list thread messages: %w", err)
	}
	texts := reconstructReplies(raw)

	userMsg, err := s.sessions.AddMessage(ctx, session.ID, domain.RoleUser, req.Message, attached)
	if err != nil {
		return nil, fmt.Errorf("persist user message: %w", err)
	}

	replies := make([]domain.Message, 0, len(texts))
	for _, text := range texts {
		m, err := s.sessions.AddMessage(ctx, session.ID, domain.RoleAssistant, text, nil)
		if err != nil {
			return nil, fmt.Errorf("persist assistant message: %w", err)
		}
		replies = append(replies, *m)
	}

	return &SendResult{
		SessionID:    session.ID,
		UserMessage:  *userMsg,
		Replies:      replies,
		SkippedFiles: skipped,
	}, nil
}

func (s *ChatService) notify(ctx context.Context, event, message string) {
	if s.alerts == nil {
		return
	}
	s.alerts.Notify(ctx, event, message)
}

// deriveTitle names a new session after its first message.
func deriveTitle(message string) string {
	runes := []rune(strings.TrimSpace(message))
	if len(runes) <= config.TitleMaxLen {
		return string(runes)
	}
	return string(runes[:config.TitleMaxLen]) + "..."
}
