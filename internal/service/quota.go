package service

import (
	"context"
	"log/slog"
)

// QuotaStore performs the atomic quota mutations. Debit is a conditional
// decrement that fails closed; credit is a bounded increment clamped at
// the user's message limit. Both are single persistence-layer operations.
type QuotaStore interface {
	DebitQuota(ctx context.Context, userID int64, n int) (remaining int, err error)
	CreditQuota(ctx context.Context, userID int64, n int) (remaining int, err error)
}

// QuotaGuard meters the per-user message allowance. The unit cost per
// turn is fixed but configurable.
type QuotaGuard struct {
	store QuotaStore
	cost  int
}

func NewQuotaGuard(store QuotaStore, cost int) *QuotaGuard {
	if cost <= 0 {
		cost = 1
	}
	return &QuotaGuard{store: store, cost: cost}
}

// Debit charges one turn. Returns domain.ErrInsufficientQuota without any
// mutation when the balance is short; callers must not have touched the
// remote provider yet.
func (g *QuotaGuard) Debit(ctx context.Context, userID int64) (int, error) {
	return g.store.DebitQuota(ctx, userID, g.cost)
}

// Refund is the best-effort compensating action after a turn fails
// downstream of its debit. A refund failure leaves the user short one
// message; it is logged, never propagated.
func (g *QuotaGuard) Refund(ctx context.Context, userID int64) {
	if _, err := g.store.CreditQuota(ctx, userID, g.cost); err != nil {
		slog.Error("quota refund failed", "error", err, "user_id", userID, "amount", g.cost)
	}
}
