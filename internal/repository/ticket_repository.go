package repository

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/soundpass/soundpass/internal/model"
)

// ErrDuplicateTicketNumber is returned by Create when the generated
// ticket number collides with an existing one. Callers regenerate and
// retry instead of overwriting.
var ErrDuplicateTicketNumber = errors.New("duplicate ticket number")

// TicketRepo provides persistence for tickets. The status column is the
// only contended field: check-in uses a conditional update so that two
// operators scanning the same code cannot both succeed.
type TicketRepo struct{ DB *sql.DB }

func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{DB: db} }

const ticketColumns = "id,event_id,user_id,ticket_number,status,quantity,price_cents,payment_ref,purchased_at,updated_at"

// GenerateTicketNumber builds a human-presentable ticket code from an
// event-scoped prefix and a random suffix. Four random bytes give eight
// hex characters, enough to make enumeration impractical while staying
// typeable at the gate; the unique index catches the rare collision.
func GenerateTicketNumber(eventID uint64) (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return fmt.Sprintf("EVT%d-%s", eventID, strings.ToUpper(hex.EncodeToString(buf))), nil
}

// Create inserts a ticket as a single atomic statement and populates
// its generated ID. A collision on the unique ticket_number index is
// reported as ErrDuplicateTicketNumber.
func (r *TicketRepo) Create(ctx context.Context, t *model.Ticket) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO tickets (event_id, user_id, ticket_number, status, quantity, price_cents, payment_ref, purchased_at) VALUES (?,?,?,?,?,?,?,?)",
		t.EventID, t.UserID, t.TicketNumber, string(t.Status), t.Quantity, t.PriceCents, t.PaymentRef, t.PurchasedAt)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrDuplicateTicketNumber
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// GetByNumber fetches a ticket by its presented code.
func (r *TicketRepo) GetByNumber(ctx context.Context, number string) (model.Ticket, error) {
	return scanTicket(r.DB.QueryRowContext(ctx,
		"SELECT "+ticketColumns+" FROM tickets WHERE ticket_number=? LIMIT 1",
		strings.TrimSpace(number)))
}

// ListByUser returns the user's tickets, most recent purchase first.
func (r *TicketRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Ticket, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+ticketColumns+" FROM tickets WHERE user_id=? ORDER BY purchased_at DESC, id DESC",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []model.Ticket
	for rows.Next() {
		var t model.Ticket
		var status string
		if err := rows.Scan(&t.ID, &t.EventID, &t.UserID, &t.TicketNumber, &status, &t.Quantity, &t.PriceCents, &t.PaymentRef, &t.PurchasedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		t.Status = model.TicketStatus(status)
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

// MarkUsed transitions a ticket from valid to used as a single
// conditional update. It reports false when the ticket was not in the
// valid state, which is how a losing concurrent check-in observes that
// another operator already won.
func (r *TicketRepo) MarkUsed(ctx context.Context, id uint64) (bool, error) {
	return r.transition(ctx, id, model.TicketValid, model.TicketUsed)
}

// Cancel transitions a ticket from valid to cancelled. Terminal states
// are left untouched and reported as false.
func (r *TicketRepo) Cancel(ctx context.Context, id uint64) (bool, error) {
	return r.transition(ctx, id, model.TicketValid, model.TicketCancelled)
}

// Revalidate is the deliberate operator override that reopens a used or
// cancelled ticket. It is not reachable from the normal check-in path.
func (r *TicketRepo) Revalidate(ctx context.Context, id uint64) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE tickets SET status=?, updated_at=NOW() WHERE id=? AND status IN (?,?)",
		string(model.TicketValid), id, string(model.TicketUsed), string(model.TicketCancelled))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (r *TicketRepo) transition(ctx context.Context, id uint64, from, to model.TicketStatus) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE tickets SET status=?, updated_at=NOW() WHERE id=? AND status=?",
		string(to), id, string(from))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func scanTicket(row *sql.Row) (model.Ticket, error) {
	var t model.Ticket
	var status string
	err := row.Scan(&t.ID, &t.EventID, &t.UserID, &t.TicketNumber, &status, &t.Quantity, &t.PriceCents, &t.PaymentRef, &t.PurchasedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Ticket{}, ErrTicketNotFound
		}
		return model.Ticket{}, err
	}
	t.Status = model.TicketStatus(status)
	return t, nil
}
