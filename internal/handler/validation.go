package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/soundpass/soundpass/internal/audit"
	"github.com/soundpass/soundpass/internal/model"
	"github.com/soundpass/soundpass/internal/repository"
)

// ValidationHandler implements the gate check-in state machine. An
// operator presents a ticket code (scanned or typed); the handler
// resolves it and, for a valid ticket, flips it to used with a single
// conditional update so two concurrent scans of the same code can never
// both succeed. Every outcome lands in the recent-validations list for
// operator visibility.
type ValidationHandler struct {
	Tickets TicketStore
	Recent  *audit.RecentLog
}

func NewValidationHandler(tickets TicketStore, recent *audit.RecentLog) *ValidationHandler {
	if tickets == nil || recent == nil {
		panic("nil dependency passed to NewValidationHandler")
	}
	return &ValidationHandler{Tickets: tickets, Recent: recent}
}

type validateReq struct {
	TicketNumber string `json:"ticket_number"`
}

type validateResp struct {
	Result audit.Result `json:"result"`
	Reason string       `json:"reason,omitempty"`
	Ticket *ticketResp  `json:"ticket,omitempty"`
}

// Validate handles POST /v1/validate. The scan itself always succeeds
// with 200; the body says whether the ticket is good. Outcomes:
//
//	valid        – ticket accepted and transitioned to used
//	already_used – presented before, or lost a concurrent scan
//	invalid      – unknown code, or a cancelled ticket (with reason)
func (h *ValidationHandler) Validate(c echo.Context) error {
	var req validateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	number := strings.TrimSpace(req.TicketNumber)
	if number == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ticket_number required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	ticket, err := h.Tickets.GetByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			return c.JSON(http.StatusOK, h.record(number, audit.ResultInvalid, "ticket not found", nil))
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	switch ticket.Status {
	case model.TicketUsed:
		return c.JSON(http.StatusOK, h.record(number, audit.ResultAlreadyUsed, "", &ticket))
	case model.TicketCancelled:
		return c.JSON(http.StatusOK, h.record(number, audit.ResultInvalid, "ticket cancelled", &ticket))
	}

	ok, err := h.Tickets.MarkUsed(ctx, ticket.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !ok {
		// Another operator won the conditional update between our read
		// and write.
		return c.JSON(http.StatusOK, h.record(number, audit.ResultAlreadyUsed, "", &ticket))
	}
	ticket.Status = model.TicketUsed
	return c.JSON(http.StatusOK, h.record(number, audit.ResultValid, "", &ticket))
}

// RecentValidations handles GET /v1/validate/recent: the bounded,
// most-recent-first list of check-in attempts for this process.
func (h *ValidationHandler) RecentValidations(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"validations": h.Recent.Entries()})
}

func (h *ValidationHandler) record(number string, result audit.Result, reason string, ticket *model.Ticket) validateResp {
	h.Recent.Record(audit.Entry{
		TicketNumber: number,
		Result:       result,
		Reason:       reason,
		At:           time.Now().UTC(),
	})
	resp := validateResp{Result: result, Reason: reason}
	if ticket != nil {
		tr := toTicketResp(*ticket)
		resp.Ticket = &tr
	}
	return resp
}
