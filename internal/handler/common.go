package handler

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/soundpass/soundpass/internal/model"
	"github.com/soundpass/soundpass/internal/repository"
)

// Handlers depend on these narrow store interfaces rather than the
// concrete SQL repositories so tests can slot in fakes. The repository
// types satisfy them as-is.

// UserStore is the slice of user persistence the handlers need.
type UserStore interface {
	Create(ctx context.Context, email, name, password string, role model.Role, cost int) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	UpdateRole(ctx context.Context, id uint64, role model.Role) error
}

// TokenStore persists refresh tokens.
type TokenStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// EventStore reads and writes the event catalog.
type EventStore interface {
	List(ctx context.Context) ([]model.Event, error)
	GetByID(ctx context.Context, id uint64) (model.Event, error)
	Create(ctx context.Context, e *model.Event) error
	Update(ctx context.Context, e model.Event) error
	Delete(ctx context.Context, id uint64) error
}

// TicketStore persists tickets and their status transitions.
type TicketStore interface {
	Create(ctx context.Context, t *model.Ticket) error
	GetByNumber(ctx context.Context, number string) (model.Ticket, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Ticket, error)
	MarkUsed(ctx context.Context, id uint64) (bool, error)
	Cancel(ctx context.Context, id uint64) (bool, error)
	Revalidate(ctx context.Context, id uint64) (bool, error)
}

// ResumeStore holds single-slot client resume state.
type ResumeStore interface {
	SavePath(ctx context.Context, clientID, path string) error
	LoadPath(ctx context.Context, clientID string) (string, error)
	SavePurchase(ctx context.Context, clientID string, draft repository.PurchaseDraft) error
	LoadPurchase(ctx context.Context, clientID string) (repository.PurchaseDraft, error)
}

// dbTimeout bounds every store call made from a handler so a hung
// backend resolves to an error response instead of an open-ended wait.
const dbTimeout = 5 * time.Second

// getUserID extracts the user_id claim from echo.Context and converts
// it to uint64. JWT numeric claims decode as float64, so several
// representations are accepted.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get("user_id").(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}
