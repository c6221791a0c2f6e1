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

// SupportDirectory answers support-staff membership questions.
type SupportDirectory interface {
	IsMember(email string) bool
}

// MessageService owns the per-ticket conversation thread and its read
// watermarks.
type MessageService struct {
	messages repository.MessageRepository
	tickets  repository.TicketRepository
	support  SupportDirectory
	bus      *events.Bus
	channel  string
	logger   *zap.Logger
}

// MessageDependencies bundles collaborators for the message service.
type MessageDependencies struct {
	MessageRepo repository.MessageRepository
	TicketRepo  repository.TicketRepository
	Support     SupportDirectory
	Bus         *events.Bus
	Channel     string
	Logger      *zap.Logger
}

// MessageCreateInput describes a thread message to append.
type MessageCreateInput struct {
	Content     string
	AuthorEmail string
	AuthorName  string
}

// NewMessageService constructs the service.
func NewMessageService(deps MessageDependencies) *MessageService {
	return &MessageService{
		messages: deps.MessageRepo,
		tickets:  deps.TicketRepo,
		support:  deps.Support,
		bus:      deps.Bus,
		channel:  deps.Channel,
		logger:   deps.Logger,
	}
}

// Append stores a message in the ticket thread. The is_support flag is
// derived once at creation from the membership set.
func (s *MessageService) Append(ctx context.Context, ticketID string, input MessageCreateInput) (*domain.Message, error) {
	if _, err := s.tickets.GetByID(ctx, ticketID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}

	msg := &domain.Message{
		TicketID:    ticketID,
		Content:     strings.TrimSpace(input.Content),
		AuthorEmail: input.AuthorEmail,
		AuthorName:  input.AuthorName,
		IsSupport:   s.support.IsMember(input.AuthorEmail),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, apperrors.MapError(err)
	}

	if s.bus != nil {
		s.bus.Publish(ctx, s.channel, events.NewMessageEnvelope(msg))
	}
	s.logger.Info("message appended",
		zap.String("ticket_id", ticketID),
		zap.Bool("is_support", msg.IsSupport))
	return msg, nil
}

// ListByTicket returns the conversation ordered by creation time ascending.
func (s *MessageService) ListByTicket(ctx context.Context, ticketID string) ([]domain.Message, error) {
	msgs, err := s.messages.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return msgs, nil
}

// UnreadCount derives the number of unread messages for a user. A user with
// no watermark sees every message authored by others as unread, never their
// own.
func (s *MessageService) UnreadCount(ctx context.Context, ticketID, userEmail string) (int64, error) {
	count, err := s.messages.UnreadCount(ctx, ticketID, userEmail)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	return count, nil
}

// MarkRead advances the user's watermark to now. Idempotent.
func (s *MessageService) MarkRead(ctx context.Context, ticketID, userEmail string) error {
	if err := s.messages.UpsertWatermark(ctx, ticketID, userEmail, time.Now().UTC()); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}
