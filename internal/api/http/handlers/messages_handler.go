package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-platform/internal/api/dto"
	"github.com/spec-kit/ticket-platform/internal/service"
	apperrors "github.com/spec-kit/ticket-platform/pkg/util"
)

// MessagesHandler manages the per-ticket conversation thread.
type MessagesHandler struct {
	service *service.MessageService
}

// NewMessagesHandler constructs handler.
func NewMessagesHandler(messageService *service.MessageService) *MessagesHandler {
	return &MessagesHandler{service: messageService}
}

// Create POST /tickets/:id/messages.
func (h *MessagesHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := req.Validate(); err != nil {
		return err
	}

	message, err := h.service.Append(c.Context(), c.Params("id"), service.MessageCreateInput{
		Content:     req.Content,
		AuthorEmail: req.AuthorEmail,
		AuthorName:  req.AuthorName,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.FromMessage(message)})
}

// List GET /tickets/:id/messages.
func (h *MessagesHandler) List(c *fiber.Ctx) error {
	messages, err := h.service.ListByTicket(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	responses := make([]dto.MessageResponse, 0, len(messages))
	for i := range messages {
		responses = append(responses, dto.FromMessage(&messages[i]))
	}
	return c.JSON(fiber.Map{"data": responses})
}

// UnreadCount GET /tickets/:id/unread-count.
func (h *MessagesHandler) UnreadCount(c *fiber.Ctx) error {
	userEmail := c.Query("user_email")
	if userEmail == "" {
		return apperrors.NewValidationError("user_email query parameter is required", nil)
	}

	count, err := h.service.UnreadCount(c.Context(), c.Params("id"), userEmail)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.UnreadCountResponse{Count: count}})
}

// MarkRead POST /tickets/:id/mark-read.
func (h *MessagesHandler) MarkRead(c *fiber.Ctx) error {
	userEmail := c.Query("user_email")
	if userEmail == "" {
		return apperrors.NewValidationError("user_email query parameter is required", nil)
	}

	if err := h.service.MarkRead(c.Context(), c.Params("id"), userEmail); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "messages marked as read"})
}
