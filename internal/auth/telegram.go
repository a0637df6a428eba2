package auth

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/pg19/portal-auth/internal/crypto"
	"github.com/pg19/portal-auth/internal/domain"
	"github.com/pg19/portal-auth/internal/session"
	"github.com/pg19/portal-auth/internal/telegram"
)

// TelegramVerifier runs the deep-link handshake. Two trust boundaries hold:
// the browser and the Telegram account must agree on the session id, and the
// confirmation must provably come from the bot side, either as a relayed
// payload signed with the webhook secret or as a raw bot update.
type TelegramVerifier struct {
	store         *session.Store
	directory     domain.Directory
	messenger     domain.Messenger
	logger        *slog.Logger
	botUsername   string
	botToken      string
	webhookSecret string
}

type TelegramVerifierConfig struct {
	Store         *session.Store
	Directory     domain.Directory
	Messenger     domain.Messenger
	Logger        *slog.Logger
	BotUsername   string
	BotToken      string
	WebhookSecret string
}

func NewTelegramVerifier(cfg TelegramVerifierConfig) *TelegramVerifier {
	return &TelegramVerifier{
		store:         cfg.Store,
		directory:     cfg.Directory,
		messenger:     cfg.Messenger,
		logger:        cfg.Logger.With("channel", session.ChannelTelegram),
		botUsername:   cfg.BotUsername,
		botToken:      cfg.BotToken,
		webhookSecret: cfg.WebhookSecret,
	}
}

type TelegramInitResult struct {
	SessionID string `json:"sessionId"`
	DeepLink  string `json:"deepLink"`
	ExpiresIn int    `json:"expiresIn"`
}

func (v *TelegramVerifier) Init(ctx context.Context) (*TelegramInitResult, error) {
	if v.botUsername == "" {
		return nil, domain.E(domain.ErrUnavailable, "Telegram авторизация не настроена")
	}

	sessionID := crypto.GenerateSessionID()
	err := v.store.Telegram.Create(ctx, sessionID, session.TelegramSession{
		Status: session.TelegramPending,
	})
	if err != nil {
		return nil, unavailable(err)
	}

	return &TelegramInitResult{
		SessionID: sessionID,
		DeepLink:  telegram.BuildDeepLink(v.botUsername, sessionID),
		ExpiresIn: int(session.TelegramTTL.Seconds()),
	}, nil
}

const (
	TelegramStatusPending  = "pending"
	TelegramStatusVerified = "verified"
	TelegramStatusExpired  = "expired"
)

type TelegramCheckResult struct {
	Status string           `json:"status"`
	Data   *domain.AuthData `json:"data,omitempty"`
}

// Check is the browser polling endpoint. A verified session hands its cached
// payload out exactly once; the delete gate turns the second of two racing
// polls into "expired".
func (v *TelegramVerifier) Check(ctx context.Context, sessionID string) (*TelegramCheckResult, error) {
	if err := validateSessionID(sessionID); err != nil {
		return nil, err
	}

	sess, ok, err := v.store.Telegram.Get(ctx, sessionID)
	if err != nil {
		return nil, unavailable(err)
	}
	if !ok {
		return &TelegramCheckResult{Status: TelegramStatusExpired}, nil
	}

	if sess.Status != session.TelegramVerified || sess.AuthData == nil {
		return &TelegramCheckResult{Status: TelegramStatusPending}, nil
	}

	won, err := v.store.Telegram.Delete(ctx, sessionID)
	if err != nil {
		return nil, unavailable(err)
	}
	if !won {
		return &TelegramCheckResult{Status: TelegramStatusExpired}, nil
	}

	v.logger.Info("Telegram auth handed off", "person_id", sess.AuthData.Person.ID)

	return &TelegramCheckResult{Status: TelegramStatusVerified, Data: sess.AuthData}, nil
}

// SignedConfirmation is the relay-worker payload: the bot observed
// "/start auth_<session>" and vouches for it with an HMAC signature.
type SignedConfirmation struct {
	SessionID  string `json:"session_id"`
	TelegramID string `json:"telegram_id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Username   string `json:"username"`
	Signature  string `json:"signature"`
}

func (v *TelegramVerifier) ConfirmSigned(ctx context.Context, conf SignedConfirmation) error {
	if err := validateSessionID(conf.SessionID); err != nil {
		return err
	}
	if v.webhookSecret == "" {
		return domain.E(domain.ErrUnavailable, "Webhook не настроен")
	}
	if !telegram.ValidateSignature(conf.SessionID, conf.TelegramID, conf.Signature, v.webhookSecret) {
		return domain.E(domain.ErrUnauthorized, "Недействительная подпись")
	}

	return v.confirm(ctx, conf.SessionID, conf.TelegramID, conf.Username)
}

// HandleUpdate is the direct bot-update transport: the service itself is the
// bot webhook. Outcomes are reported to the user in chat; the transport
// always acknowledges so Telegram does not retry.
func (v *TelegramVerifier) HandleUpdate(ctx context.Context, update telegram.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}

	msg := update.Message
	chatID := msg.Chat.ID

	sessionID := telegram.ParseStartAuth(msg.Text)
	if sessionID == "" {
		if msg.Text == "/start" {
			v.reply(ctx, chatID,
				"👋 Привет! Я бот для авторизации в личном кабинете PG19.\n\n"+
					"Чтобы войти, откройте сайт личного кабинета и выберите вход через Telegram.")
		}
		return
	}

	if err := validateSessionID(sessionID); err != nil {
		v.reply(ctx, chatID, "❌ Неверная ссылка для авторизации")
		return
	}

	err := v.confirm(ctx, sessionID, strconv.FormatInt(msg.From.ID, 10), msg.From.Username)
	switch {
	case err == nil:
		v.reply(ctx, chatID, "✅ <b>Авторизация успешна!</b>\n\nТеперь вы можете вернуться в личный кабинет.")
	case errors.Is(err, domain.ErrNotFound):
		v.reply(ctx, chatID, "❌ "+err.Error()+"\n\nПопробуйте начать авторизацию заново.")
	case errors.Is(err, domain.ErrForbidden):
		v.reply(ctx, chatID, "❌ "+err.Error())
	default:
		v.logger.Error("Telegram confirm failed", "error", err)
		v.reply(ctx, chatID, "❌ Ошибка авторизации. Попробуйте позже.")
	}
}

// confirm is the single state transition both transports funnel into: bind
// the resolved identity to the pending session and cache the auth payload
// for the browser poll.
func (v *TelegramVerifier) confirm(ctx context.Context, sessionID, telegramID, username string) error {
	_, ok, err := v.store.Telegram.Get(ctx, sessionID)
	if err != nil {
		return unavailable(err)
	}
	if !ok {
		return domain.E(domain.ErrNotFound, "Сессия не найдена или истекла")
	}

	upCtx, cancel := withUpstreamTimeout(ctx)
	defer cancel()

	person, err := v.directory.FindByTelegramID(upCtx, telegramID)
	person, err = checkIdentity(person, err, "Telegram не привязан к аккаунту")
	if err != nil {
		return err
	}

	auth, err := v.directory.GetAuthData(upCtx, person.ID)
	if err != nil {
		return unavailable(err)
	}
	if auth == nil {
		return domain.E(domain.ErrNotFound, "Данные пользователя не найдены")
	}

	ok, err = v.store.Telegram.Mutate(ctx, sessionID, func(s *session.TelegramSession) bool {
		s.Status = session.TelegramVerified
		s.TelegramID = telegramID
		s.AuthData = auth
		return true
	})
	if err != nil {
		return unavailable(err)
	}
	if !ok {
		return domain.E(domain.ErrNotFound, "Сессия не найдена или истекла")
	}

	if username != "" && username != person.TelegramUsername {
		if err := v.directory.UpdateTelegramUsername(upCtx, person.ID, username); err != nil {
			v.logger.Warn("Failed to update telegram username", "person_id", person.ID, "error", err)
		}
	}

	v.logger.Info("Telegram auth confirmed", "person_id", person.ID)
	return nil
}

// VerifyWidget handles the login-widget shortcut: the widget payload itself
// proves possession of the Telegram account, so no session round-trip is
// needed.
func (v *TelegramVerifier) VerifyWidget(ctx context.Context, data telegram.WidgetAuth) (*domain.AuthData, error) {
	if v.botToken == "" {
		return nil, domain.E(domain.ErrUnavailable, "Telegram авторизация не настроена")
	}

	if !telegram.ValidateWidget(data, v.botToken) {
		return nil, domain.E(domain.ErrUnauthorized, "Недействительные данные авторизации")
	}

	if time.Now().Unix()-data.AuthDate > telegram.WidgetReplayWindow {
		return nil, domain.E(domain.ErrUnauthorized, "Срок авторизации истёк. Повторите вход через Telegram")
	}

	upCtx, cancel := withUpstreamTimeout(ctx)
	defer cancel()

	person, err := v.directory.FindByTelegramID(upCtx, strconv.FormatInt(data.ID, 10))
	person, err = checkIdentity(person, err, "Telegram не привязан к аккаунту. Обратитесь в поддержку для привязки")
	if err != nil {
		return nil, err
	}

	auth, err := v.directory.GetAuthData(upCtx, person.ID)
	if err != nil {
		return nil, unavailable(err)
	}
	if auth == nil {
		return nil, domain.E(domain.ErrNotFound, "Данные пользователя не найдены")
	}

	v.logger.Info("Telegram widget auth verified", "person_id", person.ID)

	return auth, nil
}

func (v *TelegramVerifier) reply(ctx context.Context, chatID int64, text string) {
	if v.messenger == nil {
		return
	}
	sendCtx, cancel := withUpstreamTimeout(ctx)
	defer cancel()
	if err := v.messenger.SendMessage(sendCtx, chatID, text); err != nil {
		v.logger.Warn("Failed to send telegram reply", "chat_id", chatID, "error", err)
	}
}
