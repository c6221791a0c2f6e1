package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/ticket-platform/internal/domain"
)

// EventKind enumerates notification kinds carried on the wire.
type EventKind string

const (
	EventTicketCreated  EventKind = "created"
	EventTicketUpdated  EventKind = "updated"
	EventTicketAssigned EventKind = "assigned"
	EventTicketClosed   EventKind = "closed"
	EventCommentAdded   EventKind = "comment_added"
	EventMessageAdded   EventKind = "message_added"
)

// Envelope is the canonical notification payload. It is a value object built
// and consumed within a single Publish call; every subscriber of a channel
// receives the same serialized bytes.
type Envelope struct {
	ID        string           `json:"id"`
	Event     EventKind        `json:"event"`
	TicketID  string           `json:"ticket_id"`
	Ticket    *TicketSnapshot  `json:"ticket,omitempty"`
	Message   *MessageSnapshot `json:"message,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// TicketSnapshot is the wire form of a ticket at the moment of the event.
type TicketSnapshot struct {
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
	CommentsCount int                   `json:"comments_count"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
	ClosedAt      *time.Time            `json:"closed_at,omitempty"`
}

// MessageSnapshot is the wire form of a thread message.
type MessageSnapshot struct {
	ID          string    `json:"id"`
	TicketID    string    `json:"ticket_id"`
	Content     string    `json:"content"`
	AuthorEmail string    `json:"author_email"`
	AuthorName  string    `json:"author_name"`
	IsSupport   bool      `json:"is_support"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewTicketEnvelope builds an envelope around a ticket snapshot.
func NewTicketEnvelope(kind EventKind, ticket *domain.Ticket) Envelope {
	return Envelope{
		ID:        uuid.NewString(),
		Event:     kind,
		TicketID:  ticket.ID,
		Ticket:    SnapshotTicket(ticket),
		Timestamp: time.Now().UTC(),
	}
}

// NewMessageEnvelope builds an envelope around a thread message.
func NewMessageEnvelope(msg *domain.Message) Envelope {
	return Envelope{
		ID:       uuid.NewString(),
		Event:    EventMessageAdded,
		TicketID: msg.TicketID,
		Message: &MessageSnapshot{
			ID:          msg.ID,
			TicketID:    msg.TicketID,
			Content:     msg.Content,
			AuthorEmail: msg.AuthorEmail,
			AuthorName:  msg.AuthorName,
			IsSupport:   msg.IsSupport,
			CreatedAt:   msg.CreatedAt,
		},
		Timestamp: time.Now().UTC(),
	}
}

// SnapshotTicket converts a domain ticket into its wire form.
func SnapshotTicket(ticket *domain.Ticket) *TicketSnapshot {
	return &TicketSnapshot{
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
		CommentsCount: ticket.CommentCount,
		CreatedAt:     ticket.CreatedAt,
		UpdatedAt:     ticket.UpdatedAt,
		ClosedAt:      ticket.ClosedAt,
	}
}
