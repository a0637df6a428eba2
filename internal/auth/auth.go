// Package auth holds the channel verifiers: the protocol logic that turns a
// session store, a customer directory and a notification channel into the
// four login flows of the portal.
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pg19/portal-auth/internal/domain"
)

// upstreamTimeout bounds every directory and notification call made from a
// verifier, so no request hangs on a stuck collaborator.
const upstreamTimeout = 10 * time.Second

func withUpstreamTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, upstreamTimeout)
}

func validateSessionID(sessionID string) error {
	if _, err := uuid.Parse(sessionID); err != nil {
		return domain.E(domain.ErrInvalidInput, "Неверный формат сессии")
	}
	return nil
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
}

// checkIdentity applies the directory-lookup outcome rules shared by every
// channel: upstream failure is Unavailable, no record is NotFound with a
// channel-specific message, a terminated person is Forbidden.
func checkIdentity(person *domain.Identity, err error, notFoundMsg string) (*domain.Identity, error) {
	if err != nil {
		return nil, unavailable(err)
	}
	if person == nil {
		return nil, domain.E(domain.ErrNotFound, notFoundMsg)
	}
	if person.Status == domain.StatusTerminated {
		return nil, domain.E(domain.ErrForbidden, "Аккаунт деактивирован")
	}
	return person, nil
}
