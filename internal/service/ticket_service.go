package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-platform/internal/domain"
	"github.com/spec-kit/ticket-platform/internal/events"
	"github.com/spec-kit/ticket-platform/internal/repository"
	apperrors "github.com/spec-kit/ticket-platform/pkg/util"
)

// TicketService owns the ticket lifecycle state machine. Every successful
// mutation publishes exactly one envelope after the store commit; publish
// failures never unwind the mutation.
type TicketService struct {
	tickets repository.TicketRepository
	bus     *events.Bus
	channel string
	logger  *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	Bus        *events.Bus
	Channel    string
	Logger     *zap.Logger
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title         string
	Description   string
	Priority      domain.TicketPriority
	Category      domain.TicketCategory
	ReporterEmail string
	ReporterName  string
}

// CommentInput describes a comment to append.
type CommentInput struct {
	AuthorEmail string
	AuthorName  string
	Content     string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets: deps.TicketRepo,
		bus:     deps.Bus,
		channel: deps.Channel,
		logger:  deps.Logger,
	}
}

// CreateTicket opens a new ticket with no assignee and an empty comment log.
func (s *TicketService) CreateTicket(ctx context.Context, input TicketCreateInput) (*domain.Ticket, error) {
	ticket := &domain.Ticket{
		Title:         strings.TrimSpace(input.Title),
		Description:   strings.TrimSpace(input.Description),
		Status:        domain.TicketStatusOpen,
		Priority:      input.Priority,
		Category:      input.Category,
		ReporterEmail: input.ReporterEmail,
		ReporterName:  input.ReporterName,
	}
	if ticket.Priority == "" {
		ticket.Priority = domain.TicketPriorityMedium
	}
	if ticket.Category == "" {
		ticket.Category = domain.TicketCategoryGeneral
	}
	if !ticket.Priority.IsValid() {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": ticket.Priority})
	}
	if !ticket.Category.IsValid() {
		return nil, apperrors.NewValidationError("unknown category", map[string]any{"category": ticket.Category})
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publish(ctx, events.NewTicketEnvelope(events.EventTicketCreated, ticket))
	s.logger.Info("ticket created", zap.String("ticket_id", ticket.ID))
	return ticket, nil
}

// GetTicket fetches a ticket with its comment log.
func (s *TicketService) GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// ListTickets returns a filtered ticket page plus the unpaged total.
func (s *TicketService) ListTickets(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, int64, error) {
	tickets, total, err := s.tickets.List(ctx, filter)
	if err != nil {
		return nil, 0, apperrors.MapError(err)
	}
	return tickets, total, nil
}

// Claim assigns the ticket to the given support identity. The assignment is
// a single conditional update keyed on the assignee being absent and the
// status being non-terminal, so exactly one of N concurrent claims wins. The
// loser receives a CONFLICT error along with the winner's current ticket
// state; a claim on a resolved or closed ticket is an invalid transition.
func (s *TicketService) Claim(ctx context.Context, ticketID, assigneeEmail, assigneeName string) (*domain.Ticket, error) {
	ticket, err := s.tickets.ClaimIfUnassigned(ctx, ticketID, assigneeEmail, assigneeName)
	if err == nil {
		s.publish(ctx, events.NewTicketEnvelope(events.EventTicketAssigned, ticket))
		s.logger.Info("ticket claimed",
			zap.String("ticket_id", ticket.ID),
			zap.String("assignee", assigneeEmail))
		return ticket, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	// The conditional update matched nothing: the ticket is gone, someone
	// else claimed it first, or it already reached a terminal status.
	current, getErr := s.tickets.GetByID(ctx, ticketID)
	if getErr != nil {
		if errors.Is(getErr, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(getErr)
	}
	if current.AssigneeEmail != nil {
		details := map[string]any{
			"ticket_id":      ticketID,
			"assignee_email": *current.AssigneeEmail,
		}
		return current, apperrors.NewConflict("ticket already assigned", details)
	}
	return nil, apperrors.NewInvalidTransition(string(current.Status), string(domain.TicketStatusInProgress))
}

// ApplyUpdate applies the non-nil patch fields. Status changes are validated
// against the transition table; entering a terminal state stamps closed_at.
func (s *TicketService) ApplyUpdate(ctx context.Context, ticketID string, patch domain.TicketPatch) (*domain.Ticket, error) {
	if patch.Empty() {
		return nil, apperrors.NewNoChange()
	}
	if patch.Priority != nil && !patch.Priority.IsValid() {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": *patch.Priority})
	}
	if patch.Category != nil && !patch.Category.IsValid() {
		return nil, apperrors.NewValidationError("unknown category", map[string]any{"category": *patch.Category})
	}

	var closedAt *time.Time
	closing := false
	if patch.Status != nil {
		if !patch.Status.IsValid() {
			return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": *patch.Status})
		}
		current, err := s.GetTicket(ctx, ticketID)
		if err != nil {
			return nil, err
		}
		if !isValidTransition(current.Status, *patch.Status) {
			return nil, apperrors.NewInvalidTransition(string(current.Status), string(*patch.Status))
		}
		if patch.Status.IsTerminal() && !current.Status.IsTerminal() {
			now := time.Now().UTC()
			closedAt = &now
			closing = true
		}
	}

	ticket, err := s.tickets.ApplyPatch(ctx, ticketID, patch, closedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}

	kind := events.EventTicketUpdated
	if closing {
		kind = events.EventTicketClosed
	}
	s.publish(ctx, events.NewTicketEnvelope(kind, ticket))
	s.logger.Info("ticket updated", zap.String("ticket_id", ticket.ID), zap.String("event", string(kind)))
	return ticket, nil
}

// AddComment appends to the comment log and bumps updated_at. Comments are
// accepted in any status, terminal states included.
func (s *TicketService) AddComment(ctx context.Context, ticketID string, input CommentInput) (*domain.Ticket, error) {
	comment := &domain.Comment{
		TicketID:    ticketID,
		AuthorEmail: input.AuthorEmail,
		AuthorName:  input.AuthorName,
		Content:     strings.TrimSpace(input.Content),
	}
	if err := s.tickets.AddComment(ctx, comment); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}

	ticket, err := s.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.NewTicketEnvelope(events.EventCommentAdded, ticket))
	s.logger.Info("comment added", zap.String("ticket_id", ticketID))
	return ticket, nil
}

// DeleteTicket removes the ticket permanently.
func (s *TicketService) DeleteTicket(ctx context.Context, ticketID string) error {
	if err := s.tickets.Delete(ctx, ticketID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return apperrors.MapError(err)
	}
	s.logger.Info("ticket deleted", zap.String("ticket_id", ticketID))
	return nil
}

// Stats aggregates ticket counts by status, priority and category.
func (s *TicketService) Stats(ctx context.Context) (*domain.TicketStats, error) {
	stats, err := s.tickets.Stats(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return stats, nil
}

func (s *TicketService) publish(ctx context.Context, envelope events.Envelope) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, s.channel, envelope)
}

// allowedTransitions defines the ticket state machine. Terminal states have
// no outgoing edges; re-asserting the current status is a no-op edge.
var allowedTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusOpen:       {domain.TicketStatusInProgress, domain.TicketStatusResolved, domain.TicketStatusClosed},
	domain.TicketStatusInProgress: {domain.TicketStatusResolved, domain.TicketStatusClosed},
	domain.TicketStatusResolved:   {},
	domain.TicketStatusClosed:     {},
}

func isValidTransition(current, next domain.TicketStatus) bool {
	if current == next {
		return true
	}
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}
