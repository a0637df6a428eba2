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

type ContractHandler struct {
	verifier *auth.ContractVerifier
	issuer   *token.Issuer
	recorder *EventRecorder
	logger   *slog.Logger
}

type ContractHandlerConfig struct {
	Verifier *auth.ContractVerifier
	Issuer   *token.Issuer
	Recorder *EventRecorder
	Logger   *slog.Logger
}

func NewContractHandler(cfg ContractHandlerConfig) *ContractHandler {
	return &ContractHandler{
		verifier: cfg.Verifier,
		issuer:   cfg.Issuer,
		recorder: cfg.Recorder,
		logger:   cfg.Logger,
	}
}

func (h *ContractHandler) Register(router fiber.Router) {
	router.Post("/login", h.Login)
}

type contractLoginRequest struct {
	ContractNumber string `json:"contractNumber"`
	FullName       string `json:"fullName"`
}

func (h *ContractHandler) Login(c *fiber.Ctx) error {
	var req contractLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	authData, err := h.verifier.Login(c.Context(), req.ContractNumber, req.FullName)
	if err != nil {
		h.recorder.Record(c, session.ChannelContract, eventForError(err), nil, req.ContractNumber)
		return HandleDomainError(c, err)
	}

	success, err := buildAuthSuccess(h.issuer, authData)
	if err != nil {
		h.logger.Error("failed to issue token", "error", err)
		return response.InternalError(c)
	}

	h.recorder.Record(c, session.ChannelContract, domain.EventVerified, &authData.Person.ID, req.ContractNumber)
	return response.OK(c, success)
}
