package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/community-tickets/internal/api/dto"
	"github.com/spec-kit/community-tickets/internal/auth"
	"github.com/spec-kit/community-tickets/internal/service"
	apperrors "github.com/spec-kit/community-tickets/pkg/util"
)

// CategoriesHandler manages ticket category administration.
type CategoriesHandler struct {
	service *service.CategoryService
}

// NewCategoriesHandler constructs handler.
func NewCategoriesHandler(categoryService *service.CategoryService) *CategoriesHandler {
	return &CategoriesHandler{service: categoryService}
}

// List GET /communities/:communityID/categories.
func (h *CategoriesHandler) List(c *fiber.Ctx) error {
	if _, ok := auth.ActorFromContext(c); !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	enabledOnly := c.Query("all") != "true"
	categories, err := h.service.List(c.UserContext(), c.Params("communityID"), enabledOnly)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.CategoriesFromDomain(categories)})
}

// Create POST /communities/:communityID/categories.
func (h *CategoriesHandler) Create(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	var req dto.CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	category, err := h.service.Create(c.UserContext(), c.Params("communityID"), actor, req.ToInput())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.CategoryFromDomain(category)})
}

// Update PUT /communities/:communityID/categories/:categoryID.
func (h *CategoriesHandler) Update(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	var req dto.CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	category, err := h.service.Update(c.UserContext(), c.Params("communityID"), c.Params("categoryID"), actor, req.ToInput())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.CategoryFromDomain(category)})
}

// Delete DELETE /communities/:communityID/categories/:categoryID.
func (h *CategoriesHandler) Delete(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	if err := h.service.Delete(c.UserContext(), c.Params("communityID"), c.Params("categoryID"), actor); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
