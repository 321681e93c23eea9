package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fiskara/taxchat/internal/domain"
)

type SessionRepo struct {
	pool *pgxpool.Pool
}

func NewSessionRepo(pool *pgxpool.Pool) *SessionRepo {
	return &SessionRepo{pool: pool}
}

func (r *SessionRepo) Create(ctx context.Context, userID int64, title string) (*domain.ChatSession, error) {
	s := &domain.ChatSession{UserID: userID, Title: title}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO chat_sessions (user_id, title)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at`,
		userID, title,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return s, nil
}

func (r *SessionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.ChatSession, error) {
	s := &domain.ChatSession{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, thread_id, title, created_at, updated_at
		FROM chat_sessions WHERE id = $1`,
		id,
	).Scan(&s.ID, &s.UserID, &s.ThreadID, &s.Title, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return s, nil
}

// BindThread assigns the remote thread handle, but only once: the update
// applies solely while thread_id is still unset. The returned handle is
// the authoritative one, so a lost race yields the winner's handle rather
// than a second binding.
func (r *SessionRepo) BindThread(ctx context.Context, id uuid.UUID, threadID string) (string, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE chat_sessions
		SET thread_id = $2, updated_at = now()
		WHERE id = $1 AND thread_id IS NULL`,
		id, threadID,
	)
	if err != nil {
		return "", fmt.Errorf("bind thread: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return threadID, nil
	}

	var bound *string
	err = r.pool.QueryRow(ctx, `SELECT thread_id FROM chat_sessions WHERE id = $1`, id).Scan(&bound)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrSessionNotFound
		}
		return "", fmt.Errorf("bind thread: %w", err)
	}
	if bound == nil {
		return "", fmt.Errorf("bind thread: no row updated for session %s", id)
	}
	return *bound, nil
}

func (r *SessionRepo) AddMessage(ctx context.Context, sessionID uuid.UUID, role, content string, attachments []domain.Attachment) (*domain.Message, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	m := &domain.Message{SessionID: sessionID, Role: role, Content: content}
	err = tx.QueryRow(ctx, `
		INSERT INTO session_messages (session_id, role, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		sessionID, role, content,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("add message: %w", err)
	}

	for _, a := range attachments {
		var id int64
		err = tx.QueryRow(ctx, `
			INSERT INTO message_attachments (message_id, name, mime_type, size_bytes, file_id)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`,
			m.ID, a.Name, a.MimeType, a.Size, a.FileID,
		).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("add attachment: %w", err)
		}
		a.ID = id
		m.Attachments = append(m.Attachments, a)
	}

	if _, err := tx.Exec(ctx, `UPDATE chat_sessions SET updated_at = now() WHERE id = $1`, sessionID); err != nil {
		return nil, fmt.Errorf("touch session: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return m, nil
}

// Messages returns the session's turns in insertion order, which is the
// display order.
func (r *SessionRepo) Messages(ctx context.Context, sessionID uuid.UUID) ([]domain.Message, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, role, content, created_at
		FROM session_messages
		WHERE session_id = $1
		ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("get messages: %w", err)
	}
	defer rows.Close()

	var msgs []domain.Message
	index := make(map[int64]int)
	for rows.Next() {
		m := domain.Message{SessionID: sessionID}
		if err := rows.Scan(&m.ID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		index[m.ID] = len(msgs)
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	attRows, err := r.pool.Query(ctx, `
		SELECT a.message_id, a.id, a.name, a.mime_type, a.size_bytes, a.file_id
		FROM message_attachments a
		JOIN session_messages m ON m.id = a.message_id
		WHERE m.session_id = $1
		ORDER BY a.id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("get attachments: %w", err)
	}
	defer attRows.Close()

	for attRows.Next() {
		var messageID int64
		var a domain.Attachment
		if err := attRows.Scan(&messageID, &a.ID, &a.Name, &a.MimeType, &a.Size, &a.FileID); err != nil {
			return nil, fmt.Errorf("scan attachment: %w", err)
		}
		if i, ok := index[messageID]; ok {
			msgs[i].Attachments = append(msgs[i].Attachments, a)
		}
	}
	if err := attRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attachments: %w", err)
	}

	return msgs, nil
}

// ListByUser returns the user's sessions newest-activity first, without
// their message bodies.
func (r *SessionRepo) ListByUser(ctx context.Context, userID int64) ([]domain.ChatSession, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, thread_id, title, created_at, updated_at
		FROM chat_sessions
		WHERE user_id = $1
		ORDER BY updated_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.ChatSession
	for rows.Next() {
		var s domain.ChatSession
		if err := rows.Scan(&s.ID, &s.UserID, &s.ThreadID, &s.Title, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

func (r *SessionRepo) Rename(ctx context.Context, id uuid.UUID, userID int64, title string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE chat_sessions SET title = $3, updated_at = now()
		WHERE id = $1 AND user_id = $2`,
		id, userID, title,
	)
	if err != nil {
		return fmt.Errorf("rename session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (r *SessionRepo) Delete(ctx context.Context, id uuid.UUID, userID int64) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM chat_sessions WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}
