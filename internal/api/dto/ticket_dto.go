package dto

import (
	"time"

	"github.com/spec-kit/ticket-platform/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title         string                `json:"title"`
	Description   string                `json:"description"`
	Priority      domain.TicketPriority `json:"priority"`
	Category      domain.TicketCategory `json:"category"`
	ReporterEmail string                `json:"reporter_email"`
	ReporterName  string                `json:"reporter_name"`
}

// UpdateTicketRequest is the partial-update payload; absent fields are left
// untouched.
type UpdateTicketRequest struct {
	Title       *string                `json:"title"`
	Description *string                `json:"description"`
	Status      *domain.TicketStatus   `json:"status"`
	Priority    *domain.TicketPriority `json:"priority"`
	Category    *domain.TicketCategory `json:"category"`
}

// Patch converts the request into the domain patch type.
func (r UpdateTicketRequest) Patch() domain.TicketPatch {
	return domain.TicketPatch{
		Title:       r.Title,
		Description: r.Description,
		Status:      r.Status,
		Priority:    r.Priority,
		Category:    r.Category,
	}
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	AuthorName  string `json:"author_name"`
	AuthorEmail string `json:"author_email"`
	Content     string `json:"content"`
}

// CommentResponse represents an embedded comment.
type CommentResponse struct {
	ID          string    `json:"id"`
	AuthorName  string    `json:"author_name"`
	AuthorEmail string    `json:"author_email"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
}

// TicketResponse provides full ticket info.
type TicketResponse struct {
	ID            string                `json:"id"`
	Title         string                `json:"title"`
	Description   string                `json:"description"`
	Status        domain.TicketStatus   `json:"status"`
	Priority      domain.TicketPriority `json:"priority"`
	Category      domain.TicketCategory `json:"category"`
	ReporterEmail string                `json:"reporter_email"`
	ReporterName  string                `json:"reporter_name"`
	AssigneeEmail *string               `json:"assignee_email,omitempty"`
	AssigneeName  *string               `json:"assignee_name,omitempty"`
	Comments      []CommentResponse     `json:"comments,omitempty"`
	CommentsCount int                   `json:"comments_count"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
	ClosedAt      *time.Time            `json:"closed_at,omitempty"`
}

// PaginatedTicketsResponse wraps a ticket page.
type PaginatedTicketsResponse struct {
	Tickets    []TicketResponse `json:"tickets"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int64            `json:"total_pages"`
}

// FromTicket maps a domain ticket to its response form.
func FromTicket(ticket *domain.Ticket) TicketResponse {
	comments := make([]CommentResponse, 0, len(ticket.Comments))
	for _, comment := range ticket.Comments {
		comments = append(comments, CommentResponse{
			ID:          comment.ID,
			AuthorName:  comment.AuthorName,
			AuthorEmail: comment.AuthorEmail,
			Content:     comment.Content,
			CreatedAt:   comment.CreatedAt,
		})
	}
	return TicketResponse{
		ID:            ticket.ID,
		Title:         ticket.Title,
		Description:   ticket.Description,
		Status:        ticket.Status,
		Priority:      ticket.Priority,
		Category:      ticket.Category,
		ReporterEmail: ticket.ReporterEmail,
		ReporterName:  ticket.ReporterName,
		AssigneeEmail: ticket.AssigneeEmail,
		AssigneeName:  ticket.AssigneeName,
		Comments:      comments,
		CommentsCount: ticket.CommentCount,
		CreatedAt:     ticket.CreatedAt,
		UpdatedAt:     ticket.UpdatedAt,
		ClosedAt:      ticket.ClosedAt,
	}
}

// NewPaginatedTickets assembles the list response.
func NewPaginatedTickets(tickets []domain.Ticket, total int64, page, pageSize int) PaginatedTicketsResponse {
	items := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		resp := FromTicket(&tickets[i])
		resp.Comments = nil
		items = append(items, resp)
	}
	totalPages := (total + int64(pageSize) - 1) / int64(pageSize)
	return PaginatedTicketsResponse{
		Tickets:    items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}
