package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// IsTerminal reports whether no further status transition is defined.
func (s TicketStatus) IsTerminal() bool {
	return s == TicketStatusResolved || s == TicketStatusClosed
}

// IsValid reports whether the value is a known status.
func (s TicketStatus) IsValid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "LOW"
	TicketPriorityMedium   TicketPriority = "MEDIUM"
	TicketPriorityHigh     TicketPriority = "HIGH"
	TicketPriorityCritical TicketPriority = "CRITICAL"
)

// IsValid reports whether the value is a known priority.
func (p TicketPriority) IsValid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityCritical:
		return true
	}
	return false
}

// TicketCategory enumerates request categories.
type TicketCategory string

const (
	TicketCategoryTechnical      TicketCategory = "TECHNICAL"
	TicketCategoryBilling        TicketCategory = "BILLING"
	TicketCategoryGeneral        TicketCategory = "GENERAL"
	TicketCategoryBugReport      TicketCategory = "BUG_REPORT"
	TicketCategoryFeatureRequest TicketCategory = "FEATURE_REQUEST"
)

// IsValid reports whether the value is a known category.
func (c TicketCategory) IsValid() bool {
	switch c {
	case TicketCategoryTechnical, TicketCategoryBilling, TicketCategoryGeneral,
		TicketCategoryBugReport, TicketCategoryFeatureRequest:
		return true
	}
	return false
}

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID            string
	Title         string
	Description   string
	Status        TicketStatus
	Priority      TicketPriority
	Category      TicketCategory
	ReporterEmail string
	ReporterName  string
	AssigneeEmail *string
	AssigneeName  *string
	Comments      []Comment
	// CommentCount mirrors len(Comments) when the comment log is loaded and
	// carries the stored count for list queries that skip loading it.
	CommentCount int
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ClosedAt     *time.Time
}

// Assigned reports whether the ticket has been claimed.
func (t *Ticket) Assigned() bool {
	return t.AssigneeEmail != nil
}

// Comment is a note appended to a ticket. Comments belong to their parent
// ticket and are immutable once written.
type Comment struct {
	ID          string
	TicketID    string
	AuthorEmail string
	AuthorName  string
	Content     string
	CreatedAt   time.Time
}

// TicketPatch carries a partial update. Nil fields are left untouched.
type TicketPatch struct {
	Title       *string
	Description *string
	Status      *TicketStatus
	Priority    *TicketPriority
	Category    *TicketCategory
}

// Empty reports whether the patch changes nothing.
func (p TicketPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil &&
		p.Priority == nil && p.Category == nil
}

// TicketStats aggregates counts for the summary endpoint.
type TicketStats struct {
	Total      int64
	ByStatus   map[TicketStatus]int64
	ByPriority map[TicketPriority]int64
	ByCategory map[TicketCategory]int64
}
