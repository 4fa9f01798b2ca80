package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/soundpass/soundpass/internal/repository"
)

// ResumeHandler exposes the single-slot resume store: the path a client
// should return to after logging in, and the purchase form it was in
// the middle of when it got sent to the login page. Both keys are
// scoped to a client-chosen ID carried in the X-Client-ID header, so
// they survive a full page reload without requiring a session.
type ResumeHandler struct {
	Resume ResumeStore
}

func NewResumeHandler(resume ResumeStore) *ResumeHandler {
	if resume == nil {
		panic("nil store passed to NewResumeHandler")
	}
	return &ResumeHandler{Resume: resume}
}

type resumePathReq struct {
	Path string `json:"path"`
}

// SavePath handles PUT /v1/resume/path. A new write overwrites the
// previous slot; there is no queue of pending redirects.
func (h *ResumeHandler) SavePath(c echo.Context) error {
	clientID, ok := h.clientID(c)
	if !ok {
		return nil
	}
	var req resumePathReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Path) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "path required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Resume.SavePath(ctx, clientID, strings.TrimSpace(req.Path)); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// LoadPath handles GET /v1/resume/path, returning and consuming the
// saved redirect target.
func (h *ResumeHandler) LoadPath(c echo.Context) error {
	clientID, ok := h.clientID(c)
	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	path, err := h.Resume.LoadPath(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNoResumeState) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no saved path"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"path": path})
}

// SavePurchase handles PUT /v1/resume/purchase: the in-progress
// purchase form parked before a login redirect.
func (h *ResumeHandler) SavePurchase(c echo.Context) error {
	clientID, ok := h.clientID(c)
	if !ok {
		return nil
	}
	var draft repository.PurchaseDraft
	if err := c.Bind(&draft); err != nil || draft.EventID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Resume.SavePurchase(ctx, clientID, draft); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// LoadPurchase handles GET /v1/resume/purchase, returning and consuming
// the saved draft so the purchase flow can pick up where it left off.
func (h *ResumeHandler) LoadPurchase(c echo.Context) error {
	clientID, ok := h.clientID(c)
	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	draft, err := h.Resume.LoadPurchase(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNoResumeState) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no saved purchase"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load failed"})
	}
	return c.JSON(http.StatusOK, draft)
}

func (h *ResumeHandler) clientID(c echo.Context) (string, bool) {
	id := strings.TrimSpace(c.Request().Header.Get("X-Client-ID"))
	if id == "" {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "X-Client-ID header required"})
		return "", false
	}
	return id, true
}
