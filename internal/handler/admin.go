package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/soundpass/soundpass/internal/model"
	"github.com/soundpass/soundpass/internal/repository"
)

// AdminHandler groups back-office operations: elevating a user to
// admin and the deliberate ticket status overrides. Authorization is
// enforced by middleware — either an admin JWT or, for the out-of-band
// grant route, the deployment's service key.
type AdminHandler struct {
	Users   UserStore
	Tickets TicketStore
}

func NewAdminHandler(users UserStore, tickets TicketStore) *AdminHandler {
	if users == nil || tickets == nil {
		panic("nil store passed to NewAdminHandler")
	}
	return &AdminHandler{Users: users, Tickets: tickets}
}

type grantReq struct {
	Email string `json:"email"`
}

// GrantAdmin elevates the user with the given email to the admin role.
// Unknown emails fail with 404 and mutate nothing; granting admin to an
// existing admin is a no-op success, so the call is idempotent.
func (h *AdminHandler) GrantAdmin(c echo.Context) error {
	var req grantReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if u.Role == model.RoleAdmin {
		return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "user is already an admin"})
	}
	if err := h.Users.UpdateRole(ctx, u.ID, model.RoleAdmin); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update role failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "admin role granted"})
}

// CancelTicket handles POST /v1/admin/tickets/:number/cancel. Only a
// valid ticket can be cancelled; used and cancelled are terminal for
// the normal path and report a conflict.
func (h *AdminHandler) CancelTicket(c echo.Context) error {
	ticket, ok := h.lookup(c)
	if !ok {
		return nil // response already written by lookup
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	done, err := h.Tickets.Cancel(ctx, ticket.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !done {
		return c.JSON(http.StatusConflict, echo.Map{"error": "ticket is not in a cancellable state"})
	}
	ticket.Status = model.TicketCancelled
	return c.JSON(http.StatusOK, toTicketResp(ticket))
}

// RevalidateTicket handles POST /v1/admin/tickets/:number/revalidate,
// the explicit operator override that reopens a used or cancelled
// ticket. A ticket that is already valid passes through unchanged.
func (h *AdminHandler) RevalidateTicket(c echo.Context) error {
	ticket, ok := h.lookup(c)
	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if ticket.Status != model.TicketValid {
		if _, err := h.Tickets.Revalidate(ctx, ticket.ID); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		ticket.Status = model.TicketValid
	}
	return c.JSON(http.StatusOK, toTicketResp(ticket))
}

// lookup resolves the :number path parameter to a ticket. On failure it
// writes the error response itself and reports ok=false.
func (h *AdminHandler) lookup(c echo.Context) (model.Ticket, bool) {
	number := strings.TrimSpace(c.Param("number"))
	if number == "" {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "ticket number required"})
		return model.Ticket{}, false
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	ticket, err := h.Tickets.GetByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			_ = c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
		} else {
			_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		return model.Ticket{}, false
	}
	return ticket, true
}
