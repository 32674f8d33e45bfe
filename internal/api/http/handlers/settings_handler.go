package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/community-tickets/internal/api/dto"
	"github.com/spec-kit/community-tickets/internal/auth"
	"github.com/spec-kit/community-tickets/internal/service"
	apperrors "github.com/spec-kit/community-tickets/pkg/util"
)

// SettingsHandler manages community configuration endpoints.
type SettingsHandler struct {
	service *service.SettingsService
}

// NewSettingsHandler constructs handler.
func NewSettingsHandler(settingsService *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{service: settingsService}
}

// Get GET /communities/:communityID/settings.
func (h *SettingsHandler) Get(c *fiber.Ctx) error {
	if _, ok := auth.ActorFromContext(c); !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	settings, err := h.service.Get(c.UserContext(), c.Params("communityID"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SettingsFromDomain(settings)})
}

// Update PUT /communities/:communityID/settings.
func (h *SettingsHandler) Update(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	var req dto.UpdateSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	settings, err := h.service.Update(c.UserContext(), c.Params("communityID"), actor, req.ToInput())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SettingsFromDomain(settings)})
}
