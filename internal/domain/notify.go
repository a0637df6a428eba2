package domain

import (
	"context"
	"time"
)

// Mailer delivers a one-time login code. Failures are logged by callers;
// the email session stays valid either way.
type Mailer interface {
	SendVerificationCode(ctx context.Context, to, code string) error
}

// CallDetector answers whether the subscriber has dialed the verification
// number since the session was created. It must distinguish "no call yet"
// (false, nil) from "the call log cannot be reached" (false, ErrUnavailable).
type CallDetector interface {
	HasIncomingCall(ctx context.Context, phone string, since time.Time) (bool, error)
}

// Messenger sends a human-readable message to a Telegram chat. Best effort.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}
