package dto

import (
	"time"

	"github.com/spec-kit/ticket-platform/internal/domain"
)

// CreateMessageRequest payload for thread messages.
type CreateMessageRequest struct {
	Content     string `json:"content"`
	AuthorEmail string `json:"author_email"`
	AuthorName  string `json:"author_name"`
}

// MessageResponse represents a thread message.
type MessageResponse struct {
	ID          string    `json:"id"`
	TicketID    string    `json:"ticket_id"`
	Content     string    `json:"content"`
	AuthorEmail string    `json:"author_email"`
	AuthorName  string    `json:"author_name"`
	IsSupport   bool      `json:"is_support"`
	CreatedAt   time.Time `json:"created_at"`
}

// UnreadCountResponse wraps an unread message count.
type UnreadCountResponse struct {
	Count int64 `json:"count"`
}

// FromMessage maps a domain message to its response form.
func FromMessage(msg *domain.Message) MessageResponse {
	return MessageResponse{
		ID:          msg.ID,
		TicketID:    msg.TicketID,
		Content:     msg.Content,
		AuthorEmail: msg.AuthorEmail,
		AuthorName:  msg.AuthorName,
		IsSupport:   msg.IsSupport,
		CreatedAt:   msg.CreatedAt,
	}
}
