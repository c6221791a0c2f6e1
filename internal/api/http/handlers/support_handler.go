package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-platform/internal/api/dto"
	"github.com/spec-kit/ticket-platform/internal/auth"
	"github.com/spec-kit/ticket-platform/internal/service"
	apperrors "github.com/spec-kit/ticket-platform/pkg/util"
)

// SupportHandler exposes the support-staff queue operations.
type SupportHandler struct {
	service *service.TicketService
}

// NewSupportHandler constructs handler.
func NewSupportHandler(ticketService *service.TicketService) *SupportHandler {
	return &SupportHandler{service: ticketService}
}

// Unassigned GET /support/tickets/unassigned.
func (h *SupportHandler) Unassigned(c *fiber.Ctx) error {
	filter, page, pageSize := parseTicketQuery(c)
	filter.Unassigned = true
	filter.AssigneeEmail = nil

	tickets, total, err := h.service.ListTickets(c.Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewPaginatedTickets(tickets, total, page, pageSize)})
}

// Assigned GET /support/tickets/assigned lists tickets claimed by the caller.
func (h *SupportHandler) Assigned(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	filter, page, pageSize := parseTicketQuery(c)
	email := principal.User.Email
	filter.AssigneeEmail = &email
	filter.Unassigned = false

	tickets, total, err := h.service.ListTickets(c.Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewPaginatedTickets(tickets, total, page, pageSize)})
}

// Claim POST /support/tickets/:id/claim. Exactly one concurrent caller wins;
// losers receive 409 carrying the winner's ticket state.
func (h *SupportHandler) Claim(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	ticket, err := h.service.Claim(c.Context(), c.Params("id"), principal.User.Email, principal.User.Name)
	if err != nil {
		if apperrors.IsCode(err, "CONFLICT") && ticket != nil {
			domainErr := apperrors.ToDomainError(err)
			return c.Status(http.StatusConflict).JSON(fiber.Map{
				"error": fiber.Map{
					"code":    domainErr.Code,
					"message": domainErr.Message,
					"details": domainErr.Details,
				},
				"data": dto.FromTicket(ticket),
			})
		}
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicket(ticket)})
}

// Check GET /support/check reports the caller's membership.
func (h *SupportHandler) Check(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"email":      principal.User.Email,
		"is_support": principal.IsSupport,
	}})
}
