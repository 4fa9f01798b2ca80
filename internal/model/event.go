package model

import "time"

// Event is a row in the `events` table. Events are read-mostly from the
// ticketing core's point of view: the storefront lists them and tickets
// reference them, but only back-office operators mutate them. The price
// stored here is the current sale price; tickets snapshot it at purchase
// time and never re-derive it.
type Event struct {
	ID         uint64    // events.id
	Title      string    // events.title
	StartsAt   time.Time // events.starts_at (UTC)
	Location   string    // events.location
	PriceCents uint32    // events.price_cents
	CreatedAt  time.Time // events.created_at
	UpdatedAt  time.Time // events.updated_at
}
