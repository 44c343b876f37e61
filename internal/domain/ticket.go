package domain

import "time"

type TicketStatus string

const (
	TicketStatusOpen      TicketStatus = "OPEN"
	TicketStatusResolved  TicketStatus = "RESOLVED"
	TicketStatusClosed    TicketStatus = "CLOSED"
	TicketStatusCancelled TicketStatus = "CANCELLED"
)

func IsValidTicketStatus(s TicketStatus) bool {
	switch s {
	case TicketStatusOpen, TicketStatusResolved, TicketStatusClosed, TicketStatusCancelled:
		return true
	}
	return false
}

// IsTerminalTicketStatus reports whether s admits no further transitions.
func IsTerminalTicketStatus(s TicketStatus) bool {
	return s == TicketStatusResolved || s == TicketStatusClosed || s == TicketStatusCancelled
}

type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
)

// Ticket is the human-support unit of work tied 1:1 to an order.
// ClaimedBy is ownership, not assignment metadata: it moves from nil to
// a staff id exactly once via compare-and-set, unless an administrator
// reassigns it.
type Ticket struct {
	TicketID   string
	OrderID    string
	UserID     string
	ClaimedBy  *string
	Status     TicketStatus
	Priority   TicketPriority
	Category   string
	Subject    string
	AdminNotes []string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
