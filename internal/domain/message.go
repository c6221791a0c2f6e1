package domain

import "time"

// Message captures one entry in a ticket conversation thread. Messages are
// stored independently of the ticket aggregate and ordered by creation time.
type Message struct {
	ID          string
	TicketID    string
	Content     string
	AuthorEmail string
	AuthorName  string
	IsSupport   bool
	CreatedAt   time.Time
}

// ReadWatermark records the last time a user read a ticket thread. One row
// exists per (ticket, user) pair; it only feeds unread counts and is never
// returned to clients.
type ReadWatermark struct {
	TicketID   string
	UserEmail  string
	LastReadAt time.Time
}
