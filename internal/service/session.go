package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/fiskara/taxchat/internal/domain"
)

// SessionService exposes session management for the API surface: listing,
// reading, renaming and deleting, with ownership enforced on every access.
type SessionService struct {
	store SessionStore
}

func NewSessionService(store SessionStore) *SessionService {
	return &SessionService{store: store}
}

func (s *SessionService) ListByUser(ctx context.Context, userID int64) ([]domain.ChatSession, error) {
	return s.store.ListByUser(ctx, userID)
}

// GetForUser loads one session with its messages. A session owned by
// someone else reads as not found.
func (s *SessionService) GetForUser(ctx context.Context, id uuid.UUID, userID int64) (*domain.ChatSession, error) {
	session, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, domain.ErrSessionNotFound
	}

	msgs, err := s.store.Messages(ctx, id)
	if err != nil {
		return nil, err
	}
	session.Messages = msgs
	return session, nil
}

func (s *SessionService) Rename(ctx context.Context, id uuid.UUID, userID int64, title string) error {
	return s.store.Rename(ctx, id, userID, title)
}

func (s *SessionService) Delete(ctx context.Context, id uuid.UUID, userID int64) error {
	return s.store.Delete(ctx, id, userID)
}
