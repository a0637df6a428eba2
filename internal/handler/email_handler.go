package handler

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/pg19/portal-auth/internal/auth"
	"github.com/pg19/portal-auth/internal/domain"
	"github.com/pg19/portal-auth/internal/response"
	"github.com/pg19/portal-auth/internal/session"
	"github.com/pg19/portal-auth/internal/token"
)

type EmailHandler struct {
	verifier *auth.EmailVerifier
	issuer   *token.Issuer
	recorder *EventRecorder
	logger   *slog.Logger
}

type EmailHandlerConfig struct {
	Verifier *auth.EmailVerifier
	Issuer   *token.Issuer
	Recorder *EventRecorder
	Logger   *slog.Logger
}

func NewEmailHandler(cfg EmailHandlerConfig) *EmailHandler {
	return &EmailHandler{
		verifier: cfg.Verifier,
		issuer:   cfg.Issuer,
		recorder: cfg.Recorder,
		logger:   cfg.Logger,
	}
}

func (h *EmailHandler) Register(router fiber.Router) {
	router.Post("/email/send", h.Send)
	router.Post("/email/verify", h.Verify)
}

type emailSendRequest struct {
	Email string `json:"email"`
}

func (h *EmailHandler) Send(c *fiber.Ctx) error {
	var req emailSendRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	result, err := h.verifier.Send(c.Context(), req.Email)
	if err != nil {
		h.recorder.Record(c, session.ChannelEmail, eventForError(err), nil, req.Email)
		return HandleDomainError(c, err)
	}

	h.recorder.Record(c, session.ChannelEmail, domain.EventInit, &result.PersonID, req.Email)
	return response.OK(c, result)
}

type emailVerifyRequest struct {
	SessionID string `json:"sessionId"`
	Code      string `json:"code"`
}

func (h *EmailHandler) Verify(c *fiber.Ctx) error {
	var req emailVerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	authData, err := h.verifier.Verify(c.Context(), req.SessionID, req.Code)
	if err != nil {
		h.recorder.Record(c, session.ChannelEmail, eventForError(err), nil, req.SessionID)
		return HandleDomainError(c, err)
	}

	success, err := buildAuthSuccess(h.issuer, authData)
	if err != nil {
		h.logger.Error("failed to issue token", "error", err)
		return response.InternalError(c)
	}

	h.recorder.Record(c, session.ChannelEmail, domain.EventVerified, &authData.Person.ID, authData.Person.Email)
	return response.OK(c, success)
}
