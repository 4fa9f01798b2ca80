package model

import "time"

// TicketStatus is the closed set of ticket lifecycle states.
type TicketStatus string

const (
	TicketValid     TicketStatus = "valid"     // issued, not yet presented at the gate
	TicketUsed      TicketStatus = "used"      // checked in; terminal
	TicketCancelled TicketStatus = "cancelled" // voided by an operator; terminal
)

// Valid reports whether s is one of the known ticket statuses.
func (s TicketStatus) Valid() bool {
	return s == TicketValid || s == TicketUsed || s == TicketCancelled
}

// CanTransition reports whether moving from s to next is a normal-path
// transition. Only valid tickets move forward; used and cancelled are
// terminal. Reopening a terminal ticket is an explicit operator override
// and is deliberately not expressible here.
func (s TicketStatus) CanTransition(next TicketStatus) bool {
	return s == TicketValid && (next == TicketUsed || next == TicketCancelled)
}

// Ticket records a purchase entitling its owner to event entry. A ticket
// belongs to exactly one user, its price is frozen at purchase time, and
// it is never deleted: cancellation is a status value, not a row removal.
type Ticket struct {
	ID           uint64       // tickets.id
	EventID      uint64       // tickets.event_id
	UserID       uint64       // tickets.user_id
	TicketNumber string       // tickets.ticket_number (unique, event prefix + random suffix)
	Status       TicketStatus // tickets.status
	Quantity     uint8        // tickets.quantity (1..5)
	PriceCents   uint32       // tickets.price_cents, snapshot of the event price
	PaymentRef   string       // tickets.payment_ref, PIX transaction reference
	PurchasedAt  time.Time    // tickets.purchased_at (UTC)
	UpdatedAt    time.Time    // tickets.updated_at
}
