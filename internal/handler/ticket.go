package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/soundpass/soundpass/internal/model"
	"github.com/soundpass/soundpass/internal/queue"
	"github.com/soundpass/soundpass/internal/repository"
)

// Purchases are capped per ticket to keep bulk buying out of the
// storefront flow.
const (
	minQuantity = 1
	maxQuantity = 5
)

// Publisher sends a domain event to the message broker. A nil publisher
// disables messaging entirely.
type Publisher func(ctx context.Context, ev queue.TicketIssuedEvent) error

// TicketHandler implements ticket purchase and listing for customers.
// JWT authentication has already run; purchase is never reachable
// anonymously (unauthenticated clients park their form in the resume
// store and come back after login).
type TicketHandler struct {
	Events  EventStore
	Tickets TicketStore
	Publish Publisher
}

func NewTicketHandler(events EventStore, tickets TicketStore, publish Publisher) *TicketHandler {
	if events == nil || tickets == nil {
		panic("nil store passed to NewTicketHandler")
	}
	return &TicketHandler{Events: events, Tickets: tickets, Publish: publish}
}

type purchaseReq struct {
	Quantity int `json:"quantity"`
}

type ticketResp struct {
	ID           uint64             `json:"id"`
	EventID      uint64             `json:"event_id"`
	TicketNumber string             `json:"ticket_number"`
	Status       model.TicketStatus `json:"status"`
	Quantity     uint8              `json:"quantity"`
	PriceCents   uint32             `json:"price_cents"`
	PaymentRef   string             `json:"payment_ref"`
	PurchasedAt  time.Time          `json:"purchased_at"`
}

func toTicketResp(t model.Ticket) ticketResp {
	return ticketResp{
		ID:           t.ID,
		EventID:      t.EventID,
		TicketNumber: t.TicketNumber,
		Status:       t.Status,
		Quantity:     t.Quantity,
		PriceCents:   t.PriceCents,
		PaymentRef:   t.PaymentRef,
		PurchasedAt:  t.PurchasedAt,
	}
}

// Purchase handles POST /v1/events/:id/purchase. It materializes a
// ticket from a confirmed purchase: quantity within [1,5], price
// snapshotted from the event at this moment, a fresh event-scoped
// ticket number, and a PIX payment reference. The insert is a single
// atomic statement; a ticket-number collision is retried once with a
// new number and then given up on.
func (h *TicketHandler) Purchase(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	eventID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || eventID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var req purchaseReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Quantity < minQuantity || req.Quantity > maxQuantity {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "quantity must be between 1 and 5"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	event, err := h.Events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	ticket := model.Ticket{
		EventID:     event.ID,
		UserID:      userID,
		Status:      model.TicketValid,
		Quantity:    uint8(req.Quantity),
		PriceCents:  event.PriceCents,
		PaymentRef:  uuid.NewString(),
		PurchasedAt: time.Now().UTC(),
	}

	// One retry on a ticket-number collision, then give up rather than
	// loop. The random suffix makes a second collision vanishingly rare.
	for attempt := 0; attempt < 2; attempt++ {
		number, err := repository.GenerateTicketNumber(event.ID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not issue ticket"})
		}
		ticket.TicketNumber = number
		err = h.Tickets.Create(ctx, &ticket)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrDuplicateTicketNumber) || attempt == 1 {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not issue ticket"})
		}
	}

	if h.Publish != nil {
		// Best effort: the purchase stands whether or not the broker is up.
		_ = h.Publish(ctx, queue.TicketIssuedEvent{
			TicketID:     ticket.ID,
			TicketNumber: ticket.TicketNumber,
			EventID:      event.ID,
			EventTitle:   event.Title,
			UserID:       userID,
			Quantity:     ticket.Quantity,
			PriceCents:   ticket.PriceCents,
			PaymentRef:   ticket.PaymentRef,
			IssuedAt:     ticket.PurchasedAt.Format(time.RFC3339),
		})
	}

	return c.JSON(http.StatusCreated, toTicketResp(ticket))
}

// MyTickets handles GET /v1/tickets and returns the caller's own
// tickets, newest purchase first.
func (h *TicketHandler) MyTickets(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	tickets, err := h.Tickets.ListByUser(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]ticketResp, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, toTicketResp(t))
	}
	return c.JSON(http.StatusOK, echo.Map{"tickets": out})
}
