package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-platform/internal/domain"
	"github.com/spec-kit/ticket-platform/internal/events"
	"github.com/spec-kit/ticket-platform/internal/repository"
	apperrors "github.com/spec-kit/ticket-platform/pkg/util"
)

// fakeTicketRepo is an in-memory TicketRepository with the same row-matched
// error contract as the SQL implementation.
type fakeTicketRepo struct {
	mu       sync.Mutex
	tickets  map[string]*domain.Ticket
	comments map[string][]domain.Comment
	seq      int
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{
		tickets:  make(map[string]*domain.Ticket),
		comments: make(map[string][]domain.Comment),
	}
}

func (f *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	ticket.ID = fmt.Sprintf("ticket-%d", f.seq)
	now := time.Now().UTC()
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	stored := *ticket
	f.tickets[ticket.ID] = &stored
	return nil
}

func (f *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshot(id)
}

func (f *fakeTicketRepo) ApplyPatch(_ context.Context, id string, patch domain.TicketPatch, closedAt *time.Time) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ticket, ok := f.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if patch.Title != nil {
		ticket.Title = *patch.Title
	}
	if patch.Description != nil {
		ticket.Description = *patch.Description
	}
	if patch.Status != nil {
		ticket.Status = *patch.Status
	}
	if patch.Priority != nil {
		ticket.Priority = *patch.Priority
	}
	if patch.Category != nil {
		ticket.Category = *patch.Category
	}
	if closedAt != nil {
		ticket.ClosedAt = closedAt
	}
	ticket.UpdatedAt = time.Now().UTC()
	return f.snapshot(id)
}

func (f *fakeTicketRepo) ClaimIfUnassigned(_ context.Context, id, assigneeEmail, assigneeName string) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ticket, ok := f.tickets[id]
	if !ok || ticket.AssigneeEmail != nil || ticket.Status.IsTerminal() {
		return nil, pgx.ErrNoRows
	}
	email, name := assigneeEmail, assigneeName
	ticket.AssigneeEmail = &email
	ticket.AssigneeName = &name
	ticket.Status = domain.TicketStatusInProgress
	ticket.UpdatedAt = time.Now().UTC()
	return f.snapshot(id)
}

func (f *fakeTicketRepo) AddComment(_ context.Context, comment *domain.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ticket, ok := f.tickets[comment.TicketID]
	if !ok {
		return pgx.ErrNoRows
	}
	comment.ID = fmt.Sprintf("comment-%d", len(f.comments[comment.TicketID])+1)
	comment.CreatedAt = time.Now().UTC()
	f.comments[comment.TicketID] = append(f.comments[comment.TicketID], *comment)
	ticket.UpdatedAt = comment.CreatedAt
	return nil
}

func (f *fakeTicketRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.tickets, id)
	delete(f.comments, id)
	return nil
}

func (f *fakeTicketRepo) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []domain.Ticket
	for id, ticket := range f.tickets {
		if filter.Status != nil && ticket.Status != *filter.Status {
			continue
		}
		if filter.Unassigned && ticket.AssigneeEmail != nil {
			continue
		}
		if filter.AssigneeEmail != nil &&
			(ticket.AssigneeEmail == nil || *ticket.AssigneeEmail != *filter.AssigneeEmail) {
			continue
		}
		snap, _ := f.snapshot(id)
		snap.Comments = nil
		matched = append(matched, *snap)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	total := int64(len(matched))
	if filter.Offset > len(matched) {
		return nil, total, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func (f *fakeTicketRepo) Stats(_ context.Context) (*domain.TicketStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := &domain.TicketStats{
		ByStatus:   make(map[domain.TicketStatus]int64),
		ByPriority: make(map[domain.TicketPriority]int64),
		ByCategory: make(map[domain.TicketCategory]int64),
	}
	for _, ticket := range f.tickets {
		stats.Total++
		stats.ByStatus[ticket.Status]++
		stats.ByPriority[ticket.Priority]++
		stats.ByCategory[ticket.Category]++
	}
	return stats, nil
}

func (f *fakeTicketRepo) snapshot(id string) (*domain.Ticket, error) {
	ticket, ok := f.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *ticket
	copied.Comments = append([]domain.Comment(nil), f.comments[id]...)
	copied.CommentCount = len(f.comments[id])
	return &copied, nil
}

// recordingBroker captures every payload handed to the broker leg.
type recordingBroker struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (b *recordingBroker) Publish(_ context.Context, _ string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.payloads = append(b.payloads, append([]byte(nil), payload...))
	return nil
}

func (b *recordingBroker) envelopes(t *testing.T) []events.Envelope {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	result := make([]events.Envelope, 0, len(b.payloads))
	for _, payload := range b.payloads {
		var env events.Envelope
		require.NoError(t, json.Unmarshal(payload, &env))
		result = append(result, env)
	}
	return result
}

func newTicketServiceForTest(t *testing.T) (*TicketService, *fakeTicketRepo, *recordingBroker) {
	t.Helper()
	repo := newFakeTicketRepo()
	broker := &recordingBroker{}
	bus := events.NewBus(broker, events.NewSubscriberRegistry(), zap.NewNop())
	svc := NewTicketService(TicketDependencies{
		TicketRepo: repo,
		Bus:        bus,
		Channel:    "ticket_events",
		Logger:     zap.NewNop(),
	})
	return svc, repo, broker
}

func createTicket(t *testing.T, svc *TicketService) *domain.Ticket {
	t.Helper()
	ticket, err := svc.CreateTicket(context.Background(), TicketCreateInput{
		Title:         "printer on fire",
		Description:   "lp0 reports smoke",
		ReporterEmail: "reporter@example.com",
		ReporterName:  "Rey Porter",
	})
	require.NoError(t, err)
	return ticket
}

func TestCreateTicketDefaults(t *testing.T) {
	svc, _, broker := newTicketServiceForTest(t)

	ticket := createTicket(t, svc)

	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.Equal(t, domain.TicketPriorityMedium, ticket.Priority)
	assert.Equal(t, domain.TicketCategoryGeneral, ticket.Category)
	assert.Nil(t, ticket.AssigneeEmail)
	assert.Nil(t, ticket.ClosedAt)

	envs := broker.envelopes(t)
	require.Len(t, envs, 1)
	assert.Equal(t, events.EventTicketCreated, envs[0].Event)
	assert.Equal(t, ticket.ID, envs[0].TicketID)
	require.NotNil(t, envs[0].Ticket)
	assert.Equal(t, domain.TicketStatusOpen, envs[0].Ticket.Status)
}

func TestCreateTicketRejectsUnknownPriority(t *testing.T) {
	svc, _, broker := newTicketServiceForTest(t)

	_, err := svc.CreateTicket(context.Background(), TicketCreateInput{
		Title:         "title",
		Description:   "description",
		Priority:      domain.TicketPriority("URGENT"),
		ReporterEmail: "reporter@example.com",
		ReporterName:  "Rey Porter",
	})

	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
	assert.Empty(t, broker.envelopes(t))
}

func TestClaimAssignsExactlyOnce(t *testing.T) {
	svc, _, broker := newTicketServiceForTest(t)
	ticket := createTicket(t, svc)

	claimed, err := svc.Claim(context.Background(), ticket.ID, "agent@example.com", "Agent One")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, claimed.Status)
	require.NotNil(t, claimed.AssigneeEmail)
	assert.Equal(t, "agent@example.com", *claimed.AssigneeEmail)

	// The loser observes the winner's state alongside the conflict.
	current, err := svc.Claim(context.Background(), ticket.ID, "rival@example.com", "Agent Two")
	assert.True(t, apperrors.IsCode(err, "CONFLICT"))
	require.NotNil(t, current)
	require.NotNil(t, current.AssigneeEmail)
	assert.Equal(t, "agent@example.com", *current.AssigneeEmail)

	envs := broker.envelopes(t)
	require.Len(t, envs, 2) // created + assigned; the failed claim publishes nothing
	assert.Equal(t, events.EventTicketAssigned, envs[1].Event)
}

func TestClaimRejectsTerminalTicket(t *testing.T) {
	svc, _, broker := newTicketServiceForTest(t)
	ticket := createTicket(t, svc)

	resolved := domain.TicketStatusResolved
	closedTicket, err := svc.ApplyUpdate(context.Background(), ticket.ID, domain.TicketPatch{Status: &resolved})
	require.NoError(t, err)
	require.NotNil(t, closedTicket.ClosedAt)

	_, err = svc.Claim(context.Background(), ticket.ID, "agent@example.com", "Agent One")
	assert.True(t, apperrors.IsCode(err, "INVALID_TRANSITION"))

	// The ticket stays resolved with its close timestamp intact.
	current, err := svc.GetTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusResolved, current.Status)
	assert.Nil(t, current.AssigneeEmail)
	require.NotNil(t, current.ClosedAt)
	assert.Equal(t, *closedTicket.ClosedAt, *current.ClosedAt)

	envs := broker.envelopes(t)
	require.Len(t, envs, 2) // created + closed; the rejected claim publishes nothing
	assert.Equal(t, events.EventTicketClosed, envs[1].Event)
}

func TestClaimMissingTicket(t *testing.T) {
	svc, _, _ := newTicketServiceForTest(t)

	_, err := svc.Claim(context.Background(), "nope", "agent@example.com", "Agent One")
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}

func TestConcurrentClaimsSingleWinner(t *testing.T) {
	svc, _, broker := newTicketServiceForTest(t)
	ticket := createTicket(t, svc)

	const contenders = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0
	conflicts := 0

	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			email := fmt.Sprintf("agent%d@example.com", n)
			_, err := svc.Claim(context.Background(), ticket.ID, email, "Agent")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners++
			case apperrors.IsCode(err, "CONFLICT"):
				conflicts++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
	assert.Equal(t, contenders-1, conflicts)

	envs := broker.envelopes(t)
	require.Len(t, envs, 2)
	assert.Equal(t, events.EventTicketAssigned, envs[1].Event)
}

func TestApplyUpdateResolveStampsClosedAt(t *testing.T) {
	svc, _, broker := newTicketServiceForTest(t)
	ticket := createTicket(t, svc)

	status := domain.TicketStatusResolved
	updated, err := svc.ApplyUpdate(context.Background(), ticket.ID, domain.TicketPatch{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusResolved, updated.Status)
	require.NotNil(t, updated.ClosedAt)

	envs := broker.envelopes(t)
	require.Len(t, envs, 2)
	assert.Equal(t, events.EventTicketClosed, envs[1].Event)
}

func TestApplyUpdateRejectsLeavingTerminalState(t *testing.T) {
	svc, _, _ := newTicketServiceForTest(t)
	ticket := createTicket(t, svc)

	resolved := domain.TicketStatusResolved
	_, err := svc.ApplyUpdate(context.Background(), ticket.ID, domain.TicketPatch{Status: &resolved})
	require.NoError(t, err)

	open := domain.TicketStatusOpen
	_, err = svc.ApplyUpdate(context.Background(), ticket.ID, domain.TicketPatch{Status: &open})
	assert.True(t, apperrors.IsCode(err, "INVALID_TRANSITION"))
}

func TestApplyUpdateSameStatusIsNoOpEdge(t *testing.T) {
	svc, _, broker := newTicketServiceForTest(t)
	ticket := createTicket(t, svc)

	open := domain.TicketStatusOpen
	updated, err := svc.ApplyUpdate(context.Background(), ticket.ID, domain.TicketPatch{Status: &open})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, updated.Status)
	assert.Nil(t, updated.ClosedAt)

	envs := broker.envelopes(t)
	require.Len(t, envs, 2)
	assert.Equal(t, events.EventTicketUpdated, envs[1].Event)
}

func TestApplyUpdateEmptyPatch(t *testing.T) {
	svc, _, _ := newTicketServiceForTest(t)
	ticket := createTicket(t, svc)

	_, err := svc.ApplyUpdate(context.Background(), ticket.ID, domain.TicketPatch{})
	assert.True(t, apperrors.IsCode(err, "NO_CHANGE"))
}

func TestApplyUpdateClosedAtSetOnlyOnce(t *testing.T) {
	svc, repo, _ := newTicketServiceForTest(t)
	ticket := createTicket(t, svc)

	resolved := domain.TicketStatusResolved
	first, err := svc.ApplyUpdate(context.Background(), ticket.ID, domain.TicketPatch{Status: &resolved})
	require.NoError(t, err)
	require.NotNil(t, first.ClosedAt)

	// Re-asserting the terminal status must not move the close timestamp.
	second, err := svc.ApplyUpdate(context.Background(), ticket.ID, domain.TicketPatch{Status: &resolved})
	require.NoError(t, err)
	require.NotNil(t, second.ClosedAt)
	assert.Equal(t, *first.ClosedAt, *second.ClosedAt)

	stored, err := repo.GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, *first.ClosedAt, *stored.ClosedAt)
}

func TestAddCommentAcceptedInTerminalState(t *testing.T) {
	svc, _, broker := newTicketServiceForTest(t)
	ticket := createTicket(t, svc)

	closed := domain.TicketStatusClosed
	_, err := svc.ApplyUpdate(context.Background(), ticket.ID, domain.TicketPatch{Status: &closed})
	require.NoError(t, err)

	withComment, err := svc.AddComment(context.Background(), ticket.ID, CommentInput{
		AuthorEmail: "reporter@example.com",
		AuthorName:  "Rey Porter",
		Content:     "thanks, it stopped smoking",
	})
	require.NoError(t, err)
	require.Len(t, withComment.Comments, 1)
	assert.Equal(t, 1, withComment.CommentCount)
	assert.Equal(t, domain.TicketStatusClosed, withComment.Status)

	envs := broker.envelopes(t)
	require.Len(t, envs, 3)
	assert.Equal(t, events.EventCommentAdded, envs[2].Event)
	require.NotNil(t, envs[2].Ticket)
	assert.Equal(t, 1, envs[2].Ticket.CommentsCount)
}

func TestAddCommentAfterDelete(t *testing.T) {
	svc, _, broker := newTicketServiceForTest(t)
	ticket := createTicket(t, svc)

	require.NoError(t, svc.DeleteTicket(context.Background(), ticket.ID))

	_, err := svc.AddComment(context.Background(), ticket.ID, CommentInput{
		AuthorEmail: "reporter@example.com",
		AuthorName:  "Rey Porter",
		Content:     "anyone there?",
	})
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
	require.Len(t, broker.envelopes(t), 1)
}

func TestDeleteTicket(t *testing.T) {
	svc, _, broker := newTicketServiceForTest(t)
	ticket := createTicket(t, svc)

	require.NoError(t, svc.DeleteTicket(context.Background(), ticket.ID))

	_, err := svc.GetTicket(context.Background(), ticket.ID)
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))

	err = svc.DeleteTicket(context.Background(), ticket.ID)
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))

	// Delete is silent on the wire.
	require.Len(t, broker.envelopes(t), 1)
}

func TestListTicketsUnassignedFilter(t *testing.T) {
	svc, _, _ := newTicketServiceForTest(t)
	first := createTicket(t, svc)
	createTicket(t, svc)

	_, err := svc.Claim(context.Background(), first.ID, "agent@example.com", "Agent One")
	require.NoError(t, err)

	tickets, total, err := svc.ListTickets(context.Background(), repository.TicketFilter{Unassigned: true, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, tickets, 1)
	assert.Nil(t, tickets[0].AssigneeEmail)
}
