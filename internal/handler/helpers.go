package handler

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/pg19/portal-auth/internal/domain"
	"github.com/pg19/portal-auth/internal/middleware"
	"github.com/pg19/portal-auth/internal/response"
	"github.com/pg19/portal-auth/internal/token"
)

func HandleDomainError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return response.NotFound(c, err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		return response.BadRequest(c, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		return response.Unauthorized(c, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		return response.Forbidden(c, err.Error())
	case errors.Is(err, domain.ErrRateLimited):
		return response.RateLimited(c, err.Error())
	case errors.Is(err, domain.ErrUnavailable):
		return response.Unavailable(c, err.Error())
	default:
		return response.InternalError(c)
	}
}

// AuthSuccess is the terminal payload of every login flow: the subscriber's
// consolidated data plus a bearer token for the portal API.
type AuthSuccess struct {
	Auth  *domain.AuthData `json:"auth"`
	Token string           `json:"token"`
}

func buildAuthSuccess(issuer *token.Issuer, auth *domain.AuthData) (*AuthSuccess, error) {
	t, err := issuer.Issue(auth.Person.ID)
	if err != nil {
		return nil, err
	}
	return &AuthSuccess{Auth: auth, Token: t}, nil
}

// EventRecorder writes auth audit events. Recording is best effort: a failed
// insert is logged and never blocks the login flow. A nil repository disables
// auditing entirely (no DATABASE_URL configured).
type EventRecorder struct {
	repo   domain.AuthEventRepository
	logger *slog.Logger
}

func NewEventRecorder(repo domain.AuthEventRepository, logger *slog.Logger) *EventRecorder {
	return &EventRecorder{repo: repo, logger: logger}
}

func (r *EventRecorder) Record(c *fiber.Ctx, channel, event string, personID *int64, identifier string) {
	if r == nil || r.repo == nil {
		return
	}
	_, err := r.repo.Create(domain.CreateAuthEventInput{
		Channel:    channel,
		Event:      event,
		PersonID:   personID,
		Identifier: identifier,
		TraceID:    middleware.GetTraceID(c),
		IPAddress:  c.IP(),
	})
	if err != nil {
		r.logger.Error("failed to record auth event",
			"channel", channel,
			"event", event,
			"error", err,
		)
	}
}

func eventForError(err error) string {
	if errors.Is(err, domain.ErrRateLimited) {
		return domain.EventRateLimit
	}
	return domain.EventRejected
}
