package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-platform/internal/domain"
)

// TicketFilter captures listing parameters.
type TicketFilter struct {
	Status        *domain.TicketStatus
	Priority      *domain.TicketPriority
	Category      *domain.TicketCategory
	AssigneeEmail *string
	ReporterEmail *string
	Unassigned    bool
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
	SearchTerm    *string
	Limit         int
	Offset        int
}

// TicketRepository encapsulates ticket persistence. GetByID and every method
// returning a ticket load the full embedded comment log; List returns only
// the stored comment count.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	// ApplyPatch performs a partial update in a single conditional statement
	// and returns the resulting row, or pgx.ErrNoRows when the id is unknown.
	ApplyPatch(ctx context.Context, id string, patch domain.TicketPatch, closedAt *time.Time) (*domain.Ticket, error)
	// ClaimIfUnassigned atomically sets the assignee and moves the ticket to
	// IN_PROGRESS, keyed on the assignee column being NULL and the status
	// being non-terminal. It returns pgx.ErrNoRows when the ticket is
	// missing, already assigned, or terminal; callers disambiguate with
	// GetByID.
	ClaimIfUnassigned(ctx context.Context, id, assigneeEmail, assigneeName string) (*domain.Ticket, error)
	AddComment(ctx context.Context, comment *domain.Comment) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int64, error)
	Stats(ctx context.Context) (*domain.TicketStats, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, title, description, status, priority, category,
               reporter_email, reporter_name, assignee_email, assignee_name,
               (SELECT COUNT(*) FROM ticket_comments c WHERE c.ticket_id = tickets.id),
               created_at, updated_at, closed_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (title, description, status, priority, category, reporter_email, reporter_name)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.Category,
		ticket.ReporterEmail,
		ticket.ReporterName,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	ticket, err := r.fetchSingle(ctx, query, id)
	if err != nil {
		return nil, err
	}
	if err := r.loadComments(ctx, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

func (r *ticketRepository) ApplyPatch(ctx context.Context, id string, patch domain.TicketPatch, closedAt *time.Time) (*domain.Ticket, error) {
	sets := []string{"updated_at=NOW()"}
	args := []any{}

	if patch.Title != nil {
		args = append(args, *patch.Title)
		sets = append(sets, fmt.Sprintf("title=$%d", len(args)))
	}
	if patch.Description != nil {
		args = append(args, *patch.Description)
		sets = append(sets, fmt.Sprintf("description=$%d", len(args)))
	}
	if patch.Status != nil {
		args = append(args, *patch.Status)
		sets = append(sets, fmt.Sprintf("status=$%d", len(args)))
	}
	if patch.Priority != nil {
		args = append(args, *patch.Priority)
		sets = append(sets, fmt.Sprintf("priority=$%d", len(args)))
	}
	if patch.Category != nil {
		args = append(args, *patch.Category)
		sets = append(sets, fmt.Sprintf("category=$%d", len(args)))
	}
	if closedAt != nil {
		args = append(args, *closedAt)
		sets = append(sets, fmt.Sprintf("closed_at=$%d", len(args)))
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE tickets SET %s WHERE id=$%d RETURNING `+ticketColumns,
		strings.Join(sets, ", "), len(args))

	ticket, err := r.fetchSingle(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if err := r.loadComments(ctx, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

func (r *ticketRepository) ClaimIfUnassigned(ctx context.Context, id, assigneeEmail, assigneeName string) (*domain.Ticket, error) {
	query := `
        UPDATE tickets
        SET assignee_email=$1, assignee_name=$2, status=$3, updated_at=NOW()
        WHERE id=$4 AND assignee_email IS NULL AND status IN ('OPEN','IN_PROGRESS')
        RETURNING ` + ticketColumns
	ticket, err := r.fetchSingle(ctx, query, assigneeEmail, assigneeName, domain.TicketStatusInProgress, id)
	if err != nil {
		return nil, err
	}
	if err := r.loadComments(ctx, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

func (r *ticketRepository) AddComment(ctx context.Context, comment *domain.Comment) error {
	// The updated_at bump doubles as the existence check; one transaction
	// keeps the row locked so a concurrent delete cannot slip between the
	// bump and the insert.
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		cmd, err := tx.Exec(ctx, `UPDATE tickets SET updated_at=NOW() WHERE id=$1`, comment.TicketID)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}

		const query = `
        INSERT INTO ticket_comments (ticket_id, author_email, author_name, content)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
		return tx.QueryRow(ctx, query,
			comment.TicketID,
			comment.AuthorEmail,
			comment.AuthorName,
			comment.Content,
		).Scan(&comment.ID, &comment.CreatedAt)
	})
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int64, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.Priority != nil {
		args = append(args, *filter.Priority)
		clauses = append(clauses, fmt.Sprintf("priority=$%d", len(args)))
	}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		clauses = append(clauses, fmt.Sprintf("category=$%d", len(args)))
	}
	if filter.AssigneeEmail != nil {
		args = append(args, *filter.AssigneeEmail)
		clauses = append(clauses, fmt.Sprintf("assignee_email=$%d", len(args)))
	}
	if filter.ReporterEmail != nil {
		args = append(args, *filter.ReporterEmail)
		clauses = append(clauses, fmt.Sprintf("reporter_email=$%d", len(args)))
	}
	if filter.Unassigned {
		clauses = append(clauses, "assignee_email IS NULL")
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(description) LIKE %s)", placeholder, placeholder))
	}

	where := strings.Join(clauses, " AND ")

	var total int64
	countQuery := `SELECT COUNT(*) FROM tickets WHERE ` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		ticketColumns, where, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	tickets, err := scanTickets(rows)
	if err != nil {
		return nil, 0, err
	}
	return tickets, total, nil
}

func (r *ticketRepository) Stats(ctx context.Context) (*domain.TicketStats, error) {
	stats := &domain.TicketStats{
		ByStatus:   make(map[domain.TicketStatus]int64),
		ByPriority: make(map[domain.TicketPriority]int64),
		ByCategory: make(map[domain.TicketCategory]int64),
	}

	const query = `SELECT status, priority, category, COUNT(*) FROM tickets GROUP BY status, priority, category`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status   domain.TicketStatus
			priority domain.TicketPriority
			category domain.TicketCategory
			count    int64
		)
		if err := rows.Scan(&status, &priority, &category, &count); err != nil {
			return nil, err
		}
		stats.Total += count
		stats.ByStatus[status] += count
		stats.ByPriority[priority] += count
		stats.ByCategory[category] += count
	}
	return stats, rows.Err()
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Status,
		&ticket.Priority,
		&ticket.Category,
		&ticket.ReporterEmail,
		&ticket.ReporterName,
		&ticket.AssigneeEmail,
		&ticket.AssigneeName,
		&ticket.CommentCount,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ClosedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) loadComments(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        SELECT id, ticket_id, author_email, author_name, content, created_at
        FROM ticket_comments WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticket.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	var comments []domain.Comment
	for rows.Next() {
		var comment domain.Comment
		if err := rows.Scan(
			&comment.ID,
			&comment.TicketID,
			&comment.AuthorEmail,
			&comment.AuthorName,
			&comment.Content,
			&comment.CreatedAt,
		); err != nil {
			return err
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	ticket.Comments = comments
	ticket.CommentCount = len(comments)
	return nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.Title,
			&ticket.Description,
			&ticket.Status,
			&ticket.Priority,
			&ticket.Category,
			&ticket.ReporterEmail,
			&ticket.ReporterName,
			&ticket.AssigneeEmail,
			&ticket.AssigneeName,
			&ticket.CommentCount,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
			&ticket.ClosedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
