package domain

import "time"

const (
	EventInit      = "init"
	EventVerified  = "verified"
	EventRejected  = "rejected"
	EventRateLimit = "rate_limited"
)

type AuthEvent struct {
	ID         int64
	Channel    string
	Event      string
	PersonID   *int64
	Identifier string
	TraceID    string
	IPAddress  string
	CreatedAt  time.Time
}

type CreateAuthEventInput struct {
	Channel    string
	Event      string
	PersonID   *int64
	Identifier string
	TraceID    string
	IPAddress  string
}

type AuthEventRepository interface {
	Create(input CreateAuthEventInput) (*AuthEvent, error)
	ListRecent(limit int) ([]AuthEvent, error)
}
