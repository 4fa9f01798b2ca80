package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/soundpass/soundpass/internal/model"
	"github.com/soundpass/soundpass/internal/repository"
)

// EventHandler serves the public event catalog and the back-office
// event management endpoints. Public reads sit behind the Redis
// response cache; the admin mutations do not.
type EventHandler struct {
	Events EventStore
}

func NewEventHandler(events EventStore) *EventHandler {
	if events == nil {
		panic("nil store passed to NewEventHandler")
	}
	return &EventHandler{Events: events}
}

type eventReq struct {
	Title      string `json:"title"`
	StartsAt   string `json:"starts_at"` // RFC 3339
	Location   string `json:"location"`
	PriceCents uint32 `json:"price_cents"`
}

type eventResp struct {
	ID         uint64    `json:"id"`
	Title      string    `json:"title"`
	StartsAt   time.Time `json:"starts_at"`
	Location   string    `json:"location"`
	PriceCents uint32    `json:"price_cents"`
}

func toEventResp(e model.Event) eventResp {
	return eventResp{ID: e.ID, Title: e.Title, StartsAt: e.StartsAt, Location: e.Location, PriceCents: e.PriceCents}
}

// ListEvents handles GET /v1/events.
func (h *EventHandler) ListEvents(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	events, err := h.Events.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]eventResp, 0, len(events))
	for _, e := range events {
		out = append(out, toEventResp(e))
	}
	return c.JSON(http.StatusOK, echo.Map{"events": out})
}

// GetEvent handles GET /v1/events/:id.
func (h *EventHandler) GetEvent(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	event, err := h.Events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, toEventResp(event))
}

// CreateEvent handles POST /v1/admin/events.
func (h *EventHandler) CreateEvent(c echo.Context) error {
	event, ok := h.bindEvent(c)
	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Events.Create(ctx, &event); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create event failed"})
	}
	return c.JSON(http.StatusCreated, toEventResp(event))
}

// UpdateEvent handles PUT /v1/admin/events/:id. The event's current
// sale price may change here; tickets already issued keep the price
// they were purchased at.
func (h *EventHandler) UpdateEvent(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	event, ok := h.bindEvent(c)
	if !ok {
		return nil
	}
	event.ID = id

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Events.Update(ctx, event); err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update event failed"})
	}
	return c.JSON(http.StatusOK, toEventResp(event))
}

// DeleteEvent handles DELETE /v1/admin/events/:id. Events with issued
// tickets cannot be removed; tickets are never orphaned.
func (h *EventHandler) DeleteEvent(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Events.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrEventNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "event has issued tickets"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete event failed"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *EventHandler) bindEvent(c echo.Context) (model.Event, bool) {
	var req eventReq
	if err := c.Bind(&req); err != nil {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
		return model.Event{}, false
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Location = strings.TrimSpace(req.Location)
	if req.Title == "" || req.Location == "" {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "title and location required"})
		return model.Event{}, false
	}
	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "starts_at must be RFC 3339"})
		return model.Event{}, false
	}
	return model.Event{
		Title:      req.Title,
		StartsAt:   startsAt.UTC(),
		Location:   req.Location,
		PriceCents: req.PriceCents,
	}, true
}
