package handler

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/pg19/portal-auth/internal/domain"
	"github.com/pg19/portal-auth/internal/middleware"
	"github.com/pg19/portal-auth/internal/response"
)

// MeHandler serves the authenticated subscriber's consolidated data. The
// portal calls it on page load to refresh what the login response returned.
type MeHandler struct {
	directory domain.Directory
	logger    *slog.Logger
}

func NewMeHandler(directory domain.Directory, logger *slog.Logger) *MeHandler {
	return &MeHandler{directory: directory, logger: logger}
}

func (h *MeHandler) Register(router fiber.Router, requireAuth fiber.Handler) {
	router.Get("/me", requireAuth, h.Me)
}

func (h *MeHandler) Me(c *fiber.Ctx) error {
	personID, ok := middleware.PersonFromContext(c)
	if !ok {
		return response.Unauthorized(c, "not authenticated")
	}

	authData, err := h.directory.GetAuthData(c.Context(), personID)
	if err != nil {
		h.logger.Error("failed to load subscriber data", "personId", personID, "error", err)
		return response.Unavailable(c, "Сервис временно недоступен")
	}
	if authData == nil {
		return response.NotFound(c, "Абонент не найден")
	}

	return response.OK(c, authData)
}
