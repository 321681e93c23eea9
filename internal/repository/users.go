package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/fiskara/taxchat/internal/domain"
)

const uniqueViolation = "23505"

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) Create(ctx context.Context, username, email, passwordHash, jobTitle string, messageLimit int) (*domain.User, error) {
	u := &domain.User{
		Username:          username,
		Email:             email,
		PasswordHash:      passwordHash,
		JobTitle:          jobTitle,
		MessageLimit:      messageLimit,
		RemainingMessages: messageLimit,
	}

	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash, job_title, message_limit, remaining_messages)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING id, created_at, updated_at`,
		username, email, passwordHash, jobTitle, messageLimit,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.get(ctx, `WHERE email = $1`, email)
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.get(ctx, `WHERE id = $1`, id)
}

func (r *UserRepo) get(ctx context.Context, where string, arg any) (*domain.User, error) {
	u := &domain.User{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, username, email, password_hash, job_title, message_limit, remaining_messages, created_at, updated_at
		FROM users `+where,
		arg,
	).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.JobTitle,
		&u.MessageLimit, &u.RemainingMessages, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// DebitQuota decrements the user's remaining messages by n as one
// conditional update, so two concurrent debits can never both pass a
// stale balance check. Fails closed: when the balance is short nothing
// is written. Each debit is recorded in the quota ledger.
func (r *UserRepo) DebitQuota(ctx context.Context, userID int64, n int) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var remaining int
	err = tx.QueryRow(ctx, `
		UPDATE users
		SET remaining_messages = remaining_messages - $2, updated_at = now()
		WHERE id = $1 AND remaining_messages >= $2
		RETURNING remaining_messages`,
		userID, n,
	).Scan(&remaining)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("debit quota: %w", err)
		}
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); err != nil {
			return 0, fmt.Errorf("debit quota: %w", err)
		}
		if !exists {
			return 0, domain.ErrUserNotFound
		}
		return 0, domain.ErrInsufficientQuota
	}

	if err := insertQuotaTx(ctx, tx, userID, decimal.NewFromInt(int64(n)).Neg(), domain.TxTypeDebit, "message debit"); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return remaining, nil
}

// CreditQuota adds n back to the user's remaining messages, clamped at
// the message limit. Used as the compensating action when a turn fails
// after its debit.
func (r *UserRepo) CreditQuota(ctx context.Context, userID int64, n int) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var remaining int
	err = tx.QueryRow(ctx, `
		UPDATE users
		SET remaining_messages = LEAST(remaining_messages + $2, message_limit), updated_at = now()
		WHERE id = $1
		RETURNING remaining_messages`,
		userID, n,
	).Scan(&remaining)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrUserNotFound
		}
		return 0, fmt.Errorf("credit quota: %w", err)
	}

	if err := insertQuotaTx(ctx, tx, userID, decimal.NewFromInt(int64(n)), domain.TxTypeCredit, "message refund"); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return remaining, nil
}

func insertQuotaTx(ctx context.Context, tx pgx.Tx, userID int64, amount decimal.Decimal, txType domain.TxType, description string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO quota_transactions (user_id, amount, tx_type, description)
		VALUES ($1, $2, $3, $4)`,
		userID, amount, string(txType), description,
	)
	if err != nil {
		return fmt.Errorf("record quota transaction: %w", err)
	}
	return nil
}
