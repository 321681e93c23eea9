package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fiskara/taxchat/internal/domain"
)

func TestGetForUserLoadsMessages(t *testing.T) {
	store := newFakeSessionStore()
	svc := NewSessionService(store)

	session, err := store.Create(context.Background(), 1, "vat question")
	require.NoError(t, err)
	_, err = store.AddMessage(context.Background(), session.ID, domain.RoleUser, "what is the rate?", nil)
	require.NoError(t, err)
	_, err = store.AddMessage(context.Background(), session.ID, domain.RoleAssistant, "9% for services.", nil)
	require.NoError(t, err)

	got, err := svc.GetForUser(context.Background(), session.ID, 1)
	require.NoError(t, err)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, domain.RoleUser, got.Messages[0].Role)
	assert.Equal(t, domain.RoleAssistant, got.Messages[1].Role)
}

func TestGetForUserForeignSessionReadsAsNotFound(t *testing.T) {
	store := newFakeSessionStore()
	svc := NewSessionService(store)

	session, err := store.Create(context.Background(), 1, "private")
	require.NoError(t, err)

	_, err = svc.GetForUser(context.Background(), session.ID, 2)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestRenameAndDeleteEnforceOwnership(t *testing.T) {
	store := newFakeSessionStore()
	svc := NewSessionService(store)

	session, err := store.Create(context.Background(), 1, "old title")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Rename(context.Background(), session.ID, 2, "stolen"), domain.ErrSessionNotFound)
	assert.ErrorIs(t, svc.Delete(context.Background(), session.ID, 2), domain.ErrSessionNotFound)

	require.NoError(t, svc.Rename(context.Background(), session.ID, 1, "new title"))
	got, err := store.GetByID(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, "new title", got.Title)

	require.NoError(t, svc.Delete(context.Background(), session.ID, 1))
	_, err = store.GetByID(context.Background(), session.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestDeleteUnknownSession(t *testing.T) {
	store := newFakeSessionStore()
	svc := NewSessionService(store)

	err := svc.Delete(context.Background(), uuid.New(), 1)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}
