package handler

import (
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/pg19/portal-auth/internal/auth"
	"github.com/pg19/portal-auth/internal/config"
	"github.com/pg19/portal-auth/internal/domain"
	"github.com/pg19/portal-auth/internal/response"
	"github.com/pg19/portal-auth/internal/session"
	"github.com/pg19/portal-auth/internal/telegram"
	"github.com/pg19/portal-auth/internal/token"
)

type TelegramHandler struct {
	verifier    *auth.TelegramVerifier
	issuer      *token.Issuer
	recorder    *EventRecorder
	logger      *slog.Logger
	confirmMode string
}

type TelegramHandlerConfig struct {
	Verifier    *auth.TelegramVerifier
	Issuer      *token.Issuer
	Recorder    *EventRecorder
	Logger      *slog.Logger
	ConfirmMode string
}

func NewTelegramHandler(cfg TelegramHandlerConfig) *TelegramHandler {
	return &TelegramHandler{
		verifier:    cfg.Verifier,
		issuer:      cfg.Issuer,
		recorder:    cfg.Recorder,
		logger:      cfg.Logger,
		confirmMode: cfg.ConfirmMode,
	}
}

// Register mounts the polling endpoints plus exactly one confirmation
// transport: either the signed bridge callback or the raw bot webhook,
// depending on deploy configuration. Mounting both would give an attacker
// two surfaces to forge confirmations on.
func (h *TelegramHandler) Register(router fiber.Router) {
	router.Post("/telegram/init", h.Init)
	router.Post("/telegram/check", h.Check)
	router.Post("/telegram/widget", h.Widget)

	switch h.confirmMode {
	case config.ConfirmModeBot:
		router.Post("/telegram/updates", h.Updates)
	default:
		router.Post("/telegram/confirm", h.Confirm)
	}
}

func (h *TelegramHandler) Init(c *fiber.Ctx) error {
	result, err := h.verifier.Init(c.Context())
	if err != nil {
		return HandleDomainError(c, err)
	}

	h.recorder.Record(c, session.ChannelTelegram, domain.EventInit, nil, result.SessionID)
	return response.OK(c, result)
}

type telegramCheckRequest struct {
	SessionID string `json:"sessionId"`
}

type telegramCheckResponse struct {
	Status string           `json:"status"`
	Auth   *domain.AuthData `json:"auth,omitempty"`
	Token  string           `json:"token,omitempty"`
}

func (h *TelegramHandler) Check(c *fiber.Ctx) error {
	var req telegramCheckRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	result, err := h.verifier.Check(c.Context(), req.SessionID)
	if err != nil {
		return HandleDomainError(c, err)
	}

	resp := telegramCheckResponse{Status: result.Status}

	if result.Data != nil {
		success, err := buildAuthSuccess(h.issuer, result.Data)
		if err != nil {
			h.logger.Error("failed to issue token", "error", err)
			return response.InternalError(c)
		}
		resp.Auth = success.Auth
		resp.Token = success.Token
		h.recorder.Record(c, session.ChannelTelegram, domain.EventVerified, &result.Data.Person.ID, result.Data.Person.TelegramID)
	}

	return response.OK(c, resp)
}

func (h *TelegramHandler) Confirm(c *fiber.Ctx) error {
	var conf auth.SignedConfirmation
	if err := c.BodyParser(&conf); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	if err := h.verifier.ConfirmSigned(c.Context(), conf); err != nil {
		h.recorder.Record(c, session.ChannelTelegram, eventForError(err), nil, conf.TelegramID)
		return HandleDomainError(c, err)
	}

	return response.OK(c, fiber.Map{"confirmed": true})
}

// Updates receives raw bot webhook updates. Telegram retries deliveries that
// do not return 2xx, so every update is acknowledged regardless of outcome.
func (h *TelegramHandler) Updates(c *fiber.Ctx) error {
	var update telegram.Update
	if err := c.BodyParser(&update); err != nil {
		h.logger.Warn("unparseable telegram update", "error", err)
		return response.OK(c, fiber.Map{"ok": true})
	}

	h.verifier.HandleUpdate(c.Context(), update)
	return response.OK(c, fiber.Map{"ok": true})
}

func (h *TelegramHandler) Widget(c *fiber.Ctx) error {
	var data telegram.WidgetAuth
	if err := c.BodyParser(&data); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	telegramID := strconv.FormatInt(data.ID, 10)

	authData, err := h.verifier.VerifyWidget(c.Context(), data)
	if err != nil {
		h.recorder.Record(c, session.ChannelTelegram, eventForError(err), nil, telegramID)
		return HandleDomainError(c, err)
	}

	success, err := buildAuthSuccess(h.issuer, authData)
	if err != nil {
		h.logger.Error("failed to issue token", "error", err)
		return response.InternalError(c)
	}

	h.recorder.Record(c, session.ChannelTelegram, domain.EventVerified, &authData.Person.ID, telegramID)
	return response.OK(c, success)
}
