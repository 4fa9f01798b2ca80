package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/soundpass/soundpass/internal/model"
)

// EventRepo provides persistence for events. Events are read-mostly
// from the ticketing core's point of view; only back-office operators
// create or modify them.
type EventRepo struct{ DB *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{DB: db} }

const eventColumns = "id,title,starts_at,location,price_cents,created_at,updated_at"

// List returns all events ordered by start time, soonest first.
func (r *EventRepo) List(ctx context.Context) ([]model.Event, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+eventColumns+" FROM events ORDER BY starts_at ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.Title, &e.StartsAt, &e.Location, &e.PriceCents, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// GetByID fetches a single event.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (model.Event, error) {
	var e model.Event
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+eventColumns+" FROM events WHERE id=? LIMIT 1", id).
		Scan(&e.ID, &e.Title, &e.StartsAt, &e.Location, &e.PriceCents, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Event{}, ErrEventNotFound
		}
		return model.Event{}, err
	}
	return e, nil
}

// Create inserts a new event and populates its generated ID.
func (r *EventRepo) Create(ctx context.Context, e *model.Event) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO events (title, starts_at, location, price_cents) VALUES (?,?,?,?)",
		e.Title, e.StartsAt, e.Location, e.PriceCents)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

// Update rewrites the mutable fields of an event. Returns
// ErrEventNotFound when no row matches.
func (r *EventRepo) Update(ctx context.Context, e model.Event) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE events SET title=?, starts_at=?, location=?, price_cents=? WHERE id=?",
		e.Title, e.StartsAt, e.Location, e.PriceCents, e.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Either the event does not exist or the update was value-preserving;
		// distinguish by looking it up.
		if _, err := r.GetByID(ctx, e.ID); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes an event that has no issued tickets. Returns
// ErrConflict when tickets reference the event (tickets are never
// orphaned) and ErrEventNotFound when the event does not exist.
func (r *EventRepo) Delete(ctx context.Context, id uint64) error {
	var tickets int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM tickets WHERE event_id=?", id).Scan(&tickets); err != nil {
		return err
	}
	if tickets > 0 {
		return ErrConflict
	}
	res, err := r.DB.ExecContext(ctx, "DELETE FROM events WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrEventNotFound
	}
	return nil
}
