// Package queue defines message payloads exchanged over the message broker.
package queue

// TicketIssuedEvent is published when a purchase completes. It carries
// enough information for downstream consumers to log, notify, or feed
// analytics without querying the primary database.
type TicketIssuedEvent struct {
	TicketID     uint64 `json:"ticket_id"`
	TicketNumber string `json:"ticket_number"`
	EventID      uint64 `json:"event_id"`
	EventTitle   string `json:"event_title"`
	UserID       uint64 `json:"user_id"`
	Quantity     uint8  `json:"quantity"`
	PriceCents   uint32 `json:"price_cents"`
	PaymentRef   string `json:"payment_ref"`
	IssuedAt     string `json:"issued_at"`
}
