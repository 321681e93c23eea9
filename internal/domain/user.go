package domain

import (
	"time"
)

// User is an account holder. Quota fields are shared across every chat
// session the user starts: debits apply globally, not per-session.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	JobTitle     string

	// MessageLimit is the immutable ceiling; RemainingMessages the mutable
	// counter. 0 <= RemainingMessages <= MessageLimit always holds; writes
	// that would escape the range are clamped by the store.
	MessageLimit      int
	RemainingMessages int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasQuota reports whether the user can afford n more messages.
func (u *User) HasQuota(n int) bool {
	return u.RemainingMessages >= n
}
