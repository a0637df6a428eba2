package domain

import (
	"context"
	"encoding/json"
)

const (
	StatusActive     = "active"
	StatusSuspended  = "suspended"
	StatusTerminated = "terminated"
)

// Identity is the directory's person record, resolved by one of the
// authentication identifiers (phone, email, telegram id, contract).
type Identity struct {
	ID               int64  `json:"id"`
	Status           string `json:"status"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	Phone            string `json:"phone,omitempty"`
	Email            string `json:"email,omitempty"`
	TelegramID       string `json:"telegram_id,omitempty"`
	TelegramUsername string `json:"telegram_username,omitempty"`
}

type Contract struct {
	ID     int64  `json:"id"`
	Number string `json:"number"`
	Status string `json:"status"`
}

type Account struct {
	ID      int64   `json:"id"`
	Number  string  `json:"number"`
	Balance float64 `json:"balance"`
	Tariff  string  `json:"tariff,omitempty"`
}

// AuthData is the consolidated payload returned to a client on successful
// login. The verifiers treat it as opaque: it is cached and forwarded as-is.
type AuthData struct {
	Person   Identity  `json:"person"`
	Contract *Contract `json:"contract,omitempty"`
	Accounts []Account `json:"accounts"`
}

// ContractRecord is the result of a contract-number lookup: the person, the
// contract itself and its accounts in one round trip.
type ContractRecord struct {
	Person   Identity
	Contract Contract
	Accounts []Account
}

// Directory resolves identities against the customer CMS. A nil result with a
// nil error means "no such record"; errors are reserved for transport and
// upstream failures.
type Directory interface {
	FindByPhone(ctx context.Context, phone string) (*Identity, error)
	FindByEmail(ctx context.Context, email string) (*Identity, error)
	FindByTelegramID(ctx context.Context, telegramID string) (*Identity, error)
	FindByContractNumber(ctx context.Context, number string) (*ContractRecord, error)
	GetAuthData(ctx context.Context, personID int64) (*AuthData, error)

	// UpdateTelegramUsername records a newly observed Telegram username.
	// Best effort: callers log failures and move on.
	UpdateTelegramUsername(ctx context.Context, personID int64, username string) error
}

// Raw returns the payload as JSON for audit details.
func (a *AuthData) Raw() json.RawMessage {
	b, err := json.Marshal(a)
	if err != nil {
		return nil
	}
	return b
}
