package session

import (
	"context"
	"time"

	"github.com/pg19/portal-auth/internal/domain"
)

const (
	PhoneTTL    = 3 * time.Minute
	EmailTTL    = 5 * time.Minute
	TelegramTTL = 3 * time.Minute

	// MaxEmailAttempts is the hard cap on code checks per email session.
	// Crossing it invalidates the session outright.
	MaxEmailAttempts = 5
)

const (
	ChannelPhone    = "phone"
	ChannelEmail    = "email"
	ChannelTelegram = "telegram"
	ChannelContract = "contract"
)

const (
	TelegramPending  = "pending"
	TelegramVerified = "verified"
)

// PhoneSession tracks a phone-callback login attempt. CreatedAt doubles as
// the lower bound for call-log matching.
type PhoneSession struct {
	Phone     string    `json:"phone"`
	PersonID  int64     `json:"person_id"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"created_at"`
}

// EmailSession tracks an emailed one-time-code login attempt.
type EmailSession struct {
	Email    string `json:"email"`
	Code     string `json:"code"`
	PersonID int64  `json:"person_id"`
	Attempts int    `json:"attempts"`
}

// TelegramSession tracks a deep-link handshake. AuthData is cached at
// confirmation time so the browser poll that follows needs no directory call.
type TelegramSession struct {
	Status     string           `json:"status"`
	TelegramID string           `json:"telegram_id,omitempty"`
	AuthData   *domain.AuthData `json:"auth_data,omitempty"`
}

// Table is a keyed store of short-lived records for one auth channel.
//
// Get lazily evicts expired entries, so correctness never depends on a
// background sweep. Mutate applies fn under the entry's lock; fn returning
// false deletes the record in the same critical section, which is how the
// attempt counter and the single-use handoff stay linearizable. Delete
// reports whether this call removed a live record: concurrent consumers race
// on it and exactly one wins.
type Table[T any] interface {
	Create(ctx context.Context, id string, data T) error
	Get(ctx context.Context, id string) (T, bool, error)
	Mutate(ctx context.Context, id string, fn func(*T) bool) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// Store bundles the per-channel tables. It exclusively owns session
// lifetime; verifiers go through the table operations and nothing else.
type Store struct {
	Phone    Table[PhoneSession]
	Email    Table[EmailSession]
	Telegram Table[TelegramSession]

	sweep func() int
}

// Sweep evicts everything past TTL across all tables and returns the number
// of evicted records. Backends with native expiry report zero. Safe to call
// on any schedule or never.
func (s *Store) Sweep() int {
	if s.sweep == nil {
		return 0
	}
	return s.sweep()
}
