package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/pg19/portal-auth/internal/crypto"
	"github.com/pg19/portal-auth/internal/domain"
	"github.com/pg19/portal-auth/internal/session"
)

// PhoneVerifier runs the callback flow: the subscriber dials the
// verification number from their own phone, and polling picks the call up
// from the PBX log.
type PhoneVerifier struct {
	store        *session.Store
	directory    domain.Directory
	calls        domain.CallDetector
	logger       *slog.Logger
	verifyNumber string
}

type PhoneVerifierConfig struct {
	Store        *session.Store
	Directory    domain.Directory
	Calls        domain.CallDetector
	Logger       *slog.Logger
	VerifyNumber string
}

func NewPhoneVerifier(cfg PhoneVerifierConfig) *PhoneVerifier {
	return &PhoneVerifier{
		store:        cfg.Store,
		directory:    cfg.Directory,
		calls:        cfg.Calls,
		logger:       cfg.Logger.With("channel", session.ChannelPhone),
		verifyNumber: cfg.VerifyNumber,
	}
}

type PhoneInitResult struct {
	SessionID    string `json:"sessionId"`
	VerifyNumber string `json:"verifyNumber"`
	ExpiresIn    int    `json:"expiresIn"`
	PersonID     int64  `json:"-"`
}

type PhoneCheckResult struct {
	Verified bool             `json:"verified"`
	Auth     *domain.AuthData `json:"auth,omitempty"`
	Message  string           `json:"message,omitempty"`
}

func (v *PhoneVerifier) Init(ctx context.Context, rawPhone string) (*PhoneInitResult, error) {
	phone, err := NormalizePhone(rawPhone)
	if err != nil {
		return nil, err
	}

	upCtx, cancel := withUpstreamTimeout(ctx)
	defer cancel()

	person, err := v.directory.FindByPhone(upCtx, phone)
	person, err = checkIdentity(person, err, "Пользователь с таким номером телефона не найден")
	if err != nil {
		return nil, err
	}

	sessionID := crypto.GenerateSessionID()
	err = v.store.Phone.Create(ctx, sessionID, session.PhoneSession{
		Phone:     phone,
		PersonID:  person.ID,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return nil, unavailable(err)
	}

	v.logger.Info("Phone auth session created", "person_id", person.ID)

	return &PhoneInitResult{
		SessionID:    sessionID,
		VerifyNumber: v.verifyNumber,
		ExpiresIn:    int(session.PhoneTTL.Seconds()),
		PersonID:     person.ID,
	}, nil
}

func (v *PhoneVerifier) Check(ctx context.Context, sessionID string) (*PhoneCheckResult, error) {
	if err := validateSessionID(sessionID); err != nil {
		return nil, err
	}

	sess, ok, err := v.store.Phone.Get(ctx, sessionID)
	if err != nil {
		return nil, unavailable(err)
	}
	if !ok {
		return nil, domain.E(domain.ErrNotFound, "Сессия истекла. Начните авторизацию заново")
	}

	if sess.Verified {
		return v.consume(ctx, sessionID, sess.PersonID)
	}

	upCtx, cancel := withUpstreamTimeout(ctx)
	received, err := v.calls.HasIncomingCall(upCtx, sess.Phone, sess.CreatedAt)
	cancel()
	if err != nil {
		if errors.Is(err, domain.ErrUnavailable) {
			// A PBX outage must not read as "keep waiting": tell the client
			// the check itself is down.
			v.logger.Warn("Call log unavailable", "error", err)
			return &PhoneCheckResult{
				Verified: false,
				Message:  "Проверка звонков временно недоступна",
			}, nil
		}
		return nil, unavailable(err)
	}

	if !received {
		return &PhoneCheckResult{Verified: false}, nil
	}

	ok, err = v.store.Phone.Mutate(ctx, sessionID, func(s *session.PhoneSession) bool {
		s.Verified = true
		return true
	})
	if err != nil {
		return nil, unavailable(err)
	}
	if !ok {
		return nil, domain.E(domain.ErrNotFound, "Сессия истекла. Начните авторизацию заново")
	}

	return v.consume(ctx, sessionID, sess.PersonID)
}

// consume resolves the final payload and takes the single-use handoff gate:
// of two racing polls only the one whose Delete removed the record returns
// AuthData.
func (v *PhoneVerifier) consume(ctx context.Context, sessionID string, personID int64) (*PhoneCheckResult, error) {
	upCtx, cancel := withUpstreamTimeout(ctx)
	defer cancel()

	auth, err := v.directory.GetAuthData(upCtx, personID)
	if err != nil {
		return nil, unavailable(err)
	}
	if auth == nil {
		return nil, domain.E(domain.ErrNotFound, "Данные пользователя не найдены")
	}

	won, err := v.store.Phone.Delete(ctx, sessionID)
	if err != nil {
		return nil, unavailable(err)
	}
	if !won {
		return nil, domain.E(domain.ErrNotFound, "Сессия истекла. Начните авторизацию заново")
	}

	v.logger.Info("Phone auth verified", "person_id", personID)

	return &PhoneCheckResult{Verified: true, Auth: auth}, nil
}
