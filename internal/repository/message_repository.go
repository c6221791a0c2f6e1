package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-platform/internal/domain"
)

// MessageRepository manages thread messages and per-user read watermarks.
type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	// ListByTicket returns messages ordered by creation time ascending.
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Message, error)
	// UnreadCount counts messages authored by someone other than userEmail
	// and created strictly after the user's watermark. Without a watermark
	// every message by others counts.
	UnreadCount(ctx context.Context, ticketID, userEmail string) (int64, error)
	// UpsertWatermark records the last-read time for the (ticket, user) pair.
	UpsertWatermark(ctx context.Context, ticketID, userEmail string, readAt time.Time) error
}

type messageRepository struct {
	pool *pgxpool.Pool
}

// NewMessageRepository builds repository.
func NewMessageRepository(pool *pgxpool.Pool) MessageRepository {
	return &messageRepository{pool: pool}
}

func (r *messageRepository) Create(ctx context.Context, msg *domain.Message) error {
	const query = `
        INSERT INTO messages (ticket_id, content, author_email, author_name, is_support)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		msg.TicketID,
		msg.Content,
		msg.AuthorEmail,
		msg.AuthorName,
		msg.IsSupport,
	).Scan(&msg.ID, &msg.CreatedAt)
}

func (r *messageRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Message, error) {
	const query = `
        SELECT id, ticket_id, content, author_email, author_name, is_support, created_at
        FROM messages WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.TicketID,
			&msg.Content,
			&msg.AuthorEmail,
			&msg.AuthorName,
			&msg.IsSupport,
			&msg.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, msg)
	}
	return result, rows.Err()
}

func (r *messageRepository) UnreadCount(ctx context.Context, ticketID, userEmail string) (int64, error) {
	const query = `
        SELECT COUNT(*) FROM messages m
        WHERE m.ticket_id=$1 AND m.author_email <> $2
          AND m.created_at > COALESCE(
              (SELECT w.last_read_at FROM read_watermarks w
               WHERE w.ticket_id=$1 AND w.user_email=$2),
              'epoch'::timestamptz)`
	var count int64
	if err := r.pool.QueryRow(ctx, query, ticketID, userEmail).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *messageRepository) UpsertWatermark(ctx context.Context, ticketID, userEmail string, readAt time.Time) error {
	const query = `
        INSERT INTO read_watermarks (ticket_id, user_email, last_read_at)
        VALUES ($1,$2,$3)
        ON CONFLICT (ticket_id, user_email) DO UPDATE SET last_read_at=EXCLUDED.last_read_at`
	_, err := r.pool.Exec(ctx, query, ticketID, userEmail, readAt)
	return err
}
