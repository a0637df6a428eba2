package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"regexp"
	"strings"

	"github.com/pg19/portal-auth/internal/crypto"
	"github.com/pg19/portal-auth/internal/domain"
	"github.com/pg19/portal-auth/internal/session"
)

var codePattern = regexp.MustCompile(`^\d{6}$`)

// EmailVerifier runs the one-time-code flow: a six-digit code mailed to the
// subscriber, checked against a capped number of attempts.
type EmailVerifier struct {
	store     *session.Store
	directory domain.Directory
	mailer    domain.Mailer
	logger    *slog.Logger
}

type EmailVerifierConfig struct {
	Store     *session.Store
	Directory domain.Directory
	Mailer    domain.Mailer
	Logger    *slog.Logger
}

func NewEmailVerifier(cfg EmailVerifierConfig) *EmailVerifier {
	return &EmailVerifier{
		store:     cfg.Store,
		directory: cfg.Directory,
		mailer:    cfg.Mailer,
		logger:    cfg.Logger.With("channel", session.ChannelEmail),
	}
}

type EmailSendResult struct {
	SessionID string `json:"sessionId"`
	ExpiresIn int    `json:"expiresIn"`
	PersonID  int64  `json:"-"`
}

func (v *EmailVerifier) Send(ctx context.Context, rawEmail string) (*EmailSendResult, error) {
	email := strings.ToLower(strings.TrimSpace(rawEmail))
	if email == "" {
		return nil, domain.E(domain.ErrInvalidInput, "Введите email")
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, domain.E(domain.ErrInvalidInput, "Неверный формат email")
	}

	upCtx, cancel := withUpstreamTimeout(ctx)
	defer cancel()

	person, err := v.directory.FindByEmail(upCtx, email)
	person, err = checkIdentity(person, err, "Пользователь с таким email не найден")
	if err != nil {
		return nil, err
	}

	code, err := crypto.GenerateCode()
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}

	sessionID := crypto.GenerateSessionID()
	err = v.store.Email.Create(ctx, sessionID, session.EmailSession{
		Email:    email,
		Code:     code,
		PersonID: person.ID,
	})
	if err != nil {
		return nil, unavailable(err)
	}

	// Dispatch after the session is visible. A failed send is logged, not
	// fatal: the session stays valid and the user can retry the whole flow.
	sendCtx, sendCancel := withUpstreamTimeout(ctx)
	defer sendCancel()
	if err := v.mailer.SendVerificationCode(sendCtx, email, code); err != nil {
		v.logger.Error("Failed to send verification code", "error", err)
	}

	v.logger.Info("Email auth session created", "person_id", person.ID)

	return &EmailSendResult{
		SessionID: sessionID,
		ExpiresIn: int(session.EmailTTL.Seconds()),
		PersonID:  person.ID,
	}, nil
}

type emailOutcome int

const (
	emailMatch emailOutcome = iota
	emailMismatch
	emailOverCap
)

// Verify checks the supplied code. The attempt increment, the cap check and
// the comparison all run inside one Mutate, so racing calls serialize: the
// counter never loses updates and at most one correct-code call survives to
// consume the session.
func (v *EmailVerifier) Verify(ctx context.Context, sessionID, code string) (*domain.AuthData, error) {
	if err := validateSessionID(sessionID); err != nil {
		return nil, err
	}
	if !codePattern.MatchString(code) {
		return nil, domain.E(domain.ErrInvalidInput, "Код должен содержать 6 цифр")
	}

	var (
		outcome   emailOutcome
		remaining int
		personID  int64
	)

	ok, err := v.store.Email.Mutate(ctx, sessionID, func(s *session.EmailSession) bool {
		s.Attempts++
		if s.Attempts > session.MaxEmailAttempts {
			// Over the cap: the session dies without the code ever reaching
			// the comparator.
			outcome = emailOverCap
			return false
		}
		if !crypto.SecureCompare(code, s.Code) {
			outcome = emailMismatch
			remaining = session.MaxEmailAttempts - s.Attempts
			return true
		}
		outcome = emailMatch
		personID = s.PersonID
		return false
	})
	if err != nil {
		return nil, unavailable(err)
	}
	if !ok {
		return nil, domain.E(domain.ErrNotFound, "Сессия истекла. Запросите код повторно")
	}

	switch outcome {
	case emailOverCap:
		return nil, domain.E(domain.ErrRateLimited, "Слишком много попыток. Запросите код повторно")
	case emailMismatch:
		return nil, domain.E(domain.ErrUnauthorized,
			fmt.Sprintf("Неверный код. Осталось попыток: %d", remaining))
	}

	upCtx, cancel := withUpstreamTimeout(ctx)
	defer cancel()

	auth, err := v.directory.GetAuthData(upCtx, personID)
	if err != nil {
		return nil, unavailable(err)
	}
	if auth == nil {
		return nil, domain.E(domain.ErrNotFound, "Данные пользователя не найдены")
	}

	v.logger.Info("Email auth verified", "person_id", personID)

	return auth, nil
}
