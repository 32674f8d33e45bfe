package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/community-tickets/internal/api/dto"
	"github.com/spec-kit/community-tickets/internal/auth"
	"github.com/spec-kit/community-tickets/internal/domain"
	"github.com/spec-kit/community-tickets/internal/repository"
	"github.com/spec-kit/community-tickets/internal/service"
	apperrors "github.com/spec-kit/community-tickets/pkg/util"
)

// TicketsHandler manages ticket lifecycle endpoints.
type TicketsHandler struct {
	provisioning *service.ProvisioningService
	lifecycle    *service.LifecycleService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(provisioning *service.ProvisioningService, lifecycle *service.LifecycleService) *TicketsHandler {
	return &TicketsHandler{provisioning: provisioning, lifecycle: lifecycle}
}

// Open POST /communities/:communityID/tickets.
func (h *TicketsHandler) Open(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	var req dto.OpenTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.CategoryID == "" {
		return apperrors.NewValidationError("category_id required", nil)
	}

	ticket, err := h.provisioning.Open(c.UserContext(), actor, service.OpenInput{
		CommunityID:   c.Params("communityID"),
		CategoryID:    req.CategoryID,
		FormResponses: req.FormResponses,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.TicketFromDomain(ticket)})
}

// List GET /communities/:communityID/tickets.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	tickets, err := h.lifecycle.List(c.UserContext(), c.Params("communityID"), actor, parseTicketQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketsFromDomain(tickets)})
}

// Get GET /tickets/:channelID.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	ticket, err := h.lifecycle.Get(c.UserContext(), c.Params("channelID"), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketFromDomain(ticket)})
}

// GetByNumber GET /communities/:communityID/tickets/:number.
func (h *TicketsHandler) GetByNumber(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	number, err := strconv.Atoi(c.Params("number"))
	if err != nil || number <= 0 {
		return apperrors.NewValidationError("invalid ticket number", nil)
	}
	ticket, err := h.lifecycle.GetByNumber(c.UserContext(), c.Params("communityID"), number, actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketFromDomain(ticket)})
}

// Claim POST /tickets/:channelID/claim.
func (h *TicketsHandler) Claim(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	ticket, err := h.lifecycle.Claim(c.UserContext(), c.Params("channelID"), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketFromDomain(ticket)})
}

// Unclaim POST /tickets/:channelID/unclaim.
func (h *TicketsHandler) Unclaim(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	ticket, err := h.lifecycle.Unclaim(c.UserContext(), c.Params("channelID"), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketFromDomain(ticket)})
}

// Transfer POST /tickets/:channelID/transfer.
func (h *TicketsHandler) Transfer(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	var req dto.TransferTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Target.MemberID == "" {
		return apperrors.NewValidationError("target.member_id required", nil)
	}
	ticket, err := h.lifecycle.Transfer(c.UserContext(), c.Params("channelID"), actor, req.Target.ToActor())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketFromDomain(ticket)})
}

// Close POST /tickets/:channelID/close.
func (h *TicketsHandler) Close(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	var req dto.CloseTicketRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.lifecycle.Close(c.UserContext(), c.Params("channelID"), actor, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketFromDomain(ticket)})
}

// AddParticipant POST /tickets/:channelID/participants.
func (h *TicketsHandler) AddParticipant(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	var req dto.ParticipantRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.MemberID == "" {
		return apperrors.NewValidationError("member_id required", nil)
	}
	ticket, err := h.lifecycle.AddParticipant(c.UserContext(), c.Params("channelID"), actor, service.MemberRef{
		ID:       req.MemberID,
		Username: req.Username,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketFromDomain(ticket)})
}

// RemoveParticipant POST /tickets/:channelID/participants/remove.
func (h *TicketsHandler) RemoveParticipant(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	var req dto.ParticipantRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.MemberID == "" {
		return apperrors.NewValidationError("member_id required", nil)
	}
	ticket, err := h.lifecycle.RemoveParticipant(c.UserContext(), c.Params("channelID"), actor, service.MemberRef{
		ID:       req.MemberID,
		Username: req.Username,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketFromDomain(ticket)})
}

// Rename POST /tickets/:channelID/rename.
func (h *TicketsHandler) Rename(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("actor required")
	}
	var req dto.RenameTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Name) == "" {
		return apperrors.NewValidationError("name required", nil)
	}
	ticket, err := h.lifecycle.Rename(c.UserContext(), c.Params("channelID"), actor, strings.TrimSpace(req.Name))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketFromDomain(ticket)})
}

func parseTicketQuery(c *fiber.Ctx) repository.TicketFilter {
	filter := repository.TicketFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.TicketStatus(strings.TrimSpace(part)))
		}
	}
	if requester := c.Query("requester_id"); requester != "" {
		filter.RequesterID = &requester
	}
	if category := c.Query("category_id"); category != "" {
		filter.CategoryID = &category
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
