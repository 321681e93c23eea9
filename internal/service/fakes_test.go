package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fiskara/taxchat/internal/assistant"
	"github.com/fiskara/taxchat/internal/domain"
)

type postedMessage struct {
	threadID string
	text     string
	fileIDs  []string
}

// fakeProvider is an in-memory Provider. Run polling is driven by a
// status script: CreateRun returns the first entry, each GetRun advances
// to the next, and the final entry repeats forever.
type fakeProvider struct {
	calls int

	threads   []string
	threadErr error

	posted  []postedMessage
	postErr error

	runScript []assistant.Run
	runIdx    int

	submitted [][]assistant.ToolOutput
	submitErr error

	listed  []assistant.ThreadMessage
	listErr error

	uploaded  []string
	uploadErr map[string]error
}

func (p *fakeProvider) CreateThread(ctx context.Context) (string, error) {
	p.calls++
	if p.threadErr != nil {
		return "", p.threadErr
	}
	id := fmt.Sprintf("thread_%d", len(p.threads)+1)
	p.threads = append(p.threads, id)
	return id, nil
}

func (p *fakeProvider) PostMessage(ctx context.Context, threadID, text string, fileIDs []string) error {
	p.calls++
	if p.postErr != nil {
		return p.postErr
	}
	p.posted = append(p.posted, postedMessage{threadID: threadID, text: text, fileIDs: fileIDs})
	return nil
}

func (p *fakeProvider) CreateRun(ctx context.Context, threadID string, cfg assistant.RunConfig) (*assistant.Run, error) {
	p.calls++
	return p.nextRun(), nil
}

func (p *fakeProvider) GetRun(ctx context.Context, threadID, runID string) (*assistant.Run, error) {
	p.calls++
	return p.nextRun(), nil
}

func (p *fakeProvider) nextRun() *assistant.Run {
	if len(p.runScript) == 0 {
		return &assistant.Run{ID: "run_1", Status: assistant.StatusCompleted}
	}
	run := p.runScript[p.runIdx]
	if p.runIdx < len(p.runScript)-1 {
		p.runIdx++
	}
	if run.ID == "" {
		run.ID = "run_1"
	}
	return &run
}

func (p *fakeProvider) SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []assistant.ToolOutput) error {
	p.calls++
	if p.submitErr != nil {
		return p.submitErr
	}
	p.submitted = append(p.submitted, outputs)
	return nil
}

func (p *fakeProvider) ListMessages(ctx context.Context, threadID string) ([]assistant.ThreadMessage, error) {
	p.calls++
	if p.listErr != nil {
		return nil, p.listErr
	}
	return p.listed, nil
}

func (p *fakeProvider) UploadFile(ctx context.Context, name string, r io.Reader) (string, error) {
	p.calls++
	if err := p.uploadErr[name]; err != nil {
		return "", err
	}
	id := fmt.Sprintf("file_%d", len(p.uploaded)+1)
	p.uploaded = append(p.uploaded, id)
	return id, nil
}

// fakeSessionStore keeps sessions and messages in maps. Message
// timestamps increase with every insert so ordering assertions hold.
type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*domain.ChatSession
	messages map[uuid.UUID][]domain.Message
	nextID   int64
	binds    int
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{
		sessions: make(map[uuid.UUID]*domain.ChatSession),
		messages: make(map[uuid.UUID][]domain.Message),
	}
}

var sessionEpoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func (s *fakeSessionStore) Create(ctx context.Context, userID int64, title string) (*domain.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session := &domain.ChatSession{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		CreatedAt: sessionEpoch,
		UpdatedAt: sessionEpoch,
	}
	s.sessions[session.ID] = session
	cp := *session
	return &cp, nil
}

func (s *fakeSessionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	cp := *session
	return &cp, nil
}

func (s *fakeSessionStore) BindThread(ctx context.Context, id uuid.UUID, threadID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.binds++
	session, ok := s.sessions[id]
	if !ok {
		return "", domain.ErrSessionNotFound
	}
	if session.ThreadID != nil {
		return *session.ThreadID, nil
	}
	bound := threadID
	session.ThreadID = &bound
	return bound, nil
}

func (s *fakeSessionStore) AddMessage(ctx context.Context, sessionID uuid.UUID, role, content string, attachments []domain.Attachment) (*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	s.nextID++
	m := domain.Message{
		ID:          s.nextID,
		SessionID:   sessionID,
		Role:        role,
		Content:     content,
		Attachments: attachments,
		CreatedAt:   sessionEpoch.Add(time.Duration(s.nextID) * time.Second),
	}
	s.messages[sessionID] = append(s.messages[sessionID], m)
	session.UpdatedAt = m.CreatedAt
	return &m, nil
}

func (s *fakeSessionStore) Messages(ctx context.Context, sessionID uuid.UUID) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Message(nil), s.messages[sessionID]...), nil
}

func (s *fakeSessionStore) ListByUser(ctx context.Context, userID int64) ([]domain.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.ChatSession
	for _, session := range s.sessions {
		if session.UserID == userID {
			out = append(out, *session)
		}
	}
	return out, nil
}

func (s *fakeSessionStore) Rename(ctx context.Context, id uuid.UUID, userID int64, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok || session.UserID != userID {
		return domain.ErrSessionNotFound
	}
	session.Title = title
	return nil
}

func (s *fakeSessionStore) Delete(ctx context.Context, id uuid.UUID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok || session.UserID != userID {
		return domain.ErrSessionNotFound
	}
	delete(s.sessions, id)
	delete(s.messages, id)
	return nil
}

// fakeQuota implements QuotaStore with the same fail-closed debit and
// clamped credit semantics the repository provides.
type fakeQuota struct {
	limit     int
	remaining int
	debits    int
	credits   int
	creditErr error
}

func (q *fakeQuota) DebitQuota(ctx context.Context, userID int64, n int) (int, error) {
	if q.remaining < n {
		return 0, domain.ErrInsufficientQuota
	}
	q.remaining -= n
	q.debits++
	return q.remaining, nil
}

func (q *fakeQuota) CreditQuota(ctx context.Context, userID int64, n int) (int, error) {
	if q.creditErr != nil {
		return 0, q.creditErr
	}
	q.remaining += n
	if q.remaining > q.limit {
		q.remaining = q.limit
	}
	q.credits++
	return q.remaining, nil
}

type alertRecord struct {
	event   string
	message string
}

type fakeAlerter struct {
	events []alertRecord
}

func (a *fakeAlerter) Notify(ctx context.Context, event, message string) {
	a.events = append(a.events, alertRecord{event: event, message: message})
}

// fakeUserStore backs the user service tests.
type fakeUserStore struct {
	byEmail map[string]*domain.User
	byID    map[int64]*domain.User
	nextID  int64
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		byEmail: make(map[string]*domain.User),
		byID:    make(map[int64]*domain.User),
	}
}

func (s *fakeUserStore) Create(ctx context.Context, username, email, passwordHash, jobTitle string, messageLimit int) (*domain.User, error) {
	if _, ok := s.byEmail[email]; ok {
		return nil, domain.ErrUserExists
	}
	s.nextID++
	u := &domain.User{
		ID:                s.nextID,
		Username:          username,
		Email:             email,
		PasswordHash:      passwordHash,
		JobTitle:          jobTitle,
		MessageLimit:      messageLimit,
		RemainingMessages: messageLimit,
	}
	s.byEmail[email] = u
	s.byID[u.ID] = u
	return u, nil
}

func (s *fakeUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, ok := s.byEmail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (s *fakeUserStore) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	u, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func threadText(role string, createdAt int64, text string) assistant.ThreadMessage {
	return assistant.ThreadMessage{
		Role:      role,
		CreatedAt: createdAt,
		Content: []assistant.ContentPart{
			{Type: "text", Text: &assistant.TextContent{Value: text}},
		},
	}
}
