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

type PhoneHandler struct {
	verifier *auth.PhoneVerifier
	issuer   *token.Issuer
	recorder *EventRecorder
	logger   *slog.Logger
}

type PhoneHandlerConfig struct {
	Verifier *auth.PhoneVerifier
	Issuer   *token.Issuer
	Recorder *EventRecorder
	Logger   *slog.Logger
}

func NewPhoneHandler(cfg PhoneHandlerConfig) *PhoneHandler {
	return &PhoneHandler{
		verifier: cfg.Verifier,
		issuer:   cfg.Issuer,
		recorder: cfg.Recorder,
		logger:   cfg.Logger,
	}
}

func (h *PhoneHandler) Register(router fiber.Router) {
	router.Post("/phone/init", h.Init)
	router.Post("/phone/check", h.Check)
}

type phoneInitRequest struct {
	Phone string `json:"phone"`
}

func (h *PhoneHandler) Init(c *fiber.Ctx) error {
	var req phoneInitRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	result, err := h.verifier.Init(c.Context(), req.Phone)
	if err != nil {
		h.recorder.Record(c, session.ChannelPhone, eventForError(err), nil, req.Phone)
		return HandleDomainError(c, err)
	}

	h.recorder.Record(c, session.ChannelPhone, domain.EventInit, &result.PersonID, req.Phone)
	return response.OK(c, result)
}

type phoneCheckRequest struct {
	SessionID string `json:"sessionId"`
}

type phoneCheckResponse struct {
	Verified bool             `json:"verified"`
	Auth     *domain.AuthData `json:"auth,omitempty"`
	Token    string           `json:"token,omitempty"`
	Message  string           `json:"message,omitempty"`
}

func (h *PhoneHandler) Check(c *fiber.Ctx) error {
	var req phoneCheckRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	result, err := h.verifier.Check(c.Context(), req.SessionID)
	if err != nil {
		return HandleDomainError(c, err)
	}

	resp := phoneCheckResponse{
		Verified: result.Verified,
		Message:  result.Message,
	}

	if result.Verified && result.Auth != nil {
		success, err := buildAuthSuccess(h.issuer, result.Auth)
		if err != nil {
			h.logger.Error("failed to issue token", "error", err)
			return response.InternalError(c)
		}
		resp.Auth = success.Auth
		resp.Token = success.Token
		h.recorder.Record(c, session.ChannelPhone, domain.EventVerified, &result.Auth.Person.ID, result.Auth.Person.Phone)
	}

	return response.OK(c, resp)
}
