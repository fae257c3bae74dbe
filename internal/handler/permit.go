package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/notaryops/travel-permits/internal/model"
	"github.com/notaryops/travel-permits/internal/permit"
	"github.com/notaryops/travel-permits/internal/queue"
	"github.com/notaryops/travel-permits/internal/repository"
	queue_publisher "github.com/notaryops/travel-permits/internal/service"
)

// PermitHandler exposes the permit lifecycle over HTTP.  All business
// rules live in the permit service; this layer only binds, delegates
// and maps errors.
type PermitHandler struct {
	Svc   *permit.Service
	Users *repository.UserRepo // resolves actor emails for audit fields
}

func NewPermitHandler(svc *permit.Service, users *repository.UserRepo) *PermitHandler {
	return &PermitHandler{Svc: svc, Users: users}
}

type createPermitReq struct {
	Year int `json:"year"` // 0 means current year
	model.PermitContent
}

type voidReq struct {
	Reason string `json:"reason"`
}

// actorEmail resolves the authenticated user's email for the audit
// fields (voided_by, created_by).  Falls back to "user:<id>" when the
// row cannot be loaded; the audit trail must never be empty.
func (h *PermitHandler) actorEmail(c echo.Context) string {
	uid, err := getUserID(c)
	if err != nil {
		return "unknown"
	}
	if h.Users != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if u, err := h.Users.GetByID(ctx, uid); err == nil && u.Email != "" {
			return u.Email
		}
	}
	return fmt.Sprintf("user:%d", uid)
}

// Create mints the next correlative for the year, persists the permit
// and renders the document.  The response carries the full record
// including the assigned correlative.
func (h *PermitHandler) Create(c echo.Context) error {
	var req createPermitReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	year := req.Year
	if year == 0 {
		year = time.Now().UTC().Year()
	}

	p, err := h.Svc.CreatePermit(c.Request().Context(), year, req.PermitContent)
	if err != nil {
		return writeDomainErr(c, err)
	}

	uid, _ := getUserID(c)
	ev := queue.PermitIssuedEvent{
		PermitID:       p.ID,
		Year:           p.Year,
		SequenceNumber: p.SequenceNumber,
		Correlative:    p.Correlative(),
		MinorName:      p.Minor.Name,
		MinorDoc:       p.Minor.DocNumber,
		TravelKind:     p.Travel.Kind,
		Destination:    p.Travel.Destination,
		IssuedBy:       uid,
	}
	go func() { _ = queue_publisher.PublishPermitIssued(context.Background(), ev) }()

	return c.JSON(http.StatusCreated, permitResp(p))
}

// List returns registry summaries, optionally filtered by ?year=.
func (h *PermitHandler) List(c echo.Context) error {
	year := 0
	if ys := c.QueryParam("year"); ys != "" {
		n, err := strconv.Atoi(ys)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid year"})
		}
		year = n
	}
	list, err := h.Svc.ListPermits(c.Request().Context(), year)
	if err != nil {
		return writeDomainErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"permits": list, "count": len(list)})
}

// Get returns the full record by surrogate ID.
func (h *PermitHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	p, err := h.Svc.GetPermit(c.Request().Context(), id)
	if err != nil {
		return writeDomainErr(c, err)
	}
	return c.JSON(http.StatusOK, permitResp(p))
}

// GetByCorrelative looks a permit up by its legal identity.
func (h *PermitHandler) GetByCorrelative(c echo.Context) error {
	year, err1 := strconv.Atoi(c.Param("year"))
	number, err2 := strconv.Atoi(c.Param("number"))
	if err1 != nil || err2 != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid correlative"})
	}
	p, err := h.Svc.GetByCorrelative(c.Request().Context(), year, number)
	if err != nil {
		return writeDomainErr(c, err)
	}
	return c.JSON(http.StatusOK, permitResp(p))
}

// Edit replaces the permit content, bumping the version and moving the
// record to CORRECTED.
func (h *PermitHandler) Edit(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var content model.PermitContent
	if err := c.Bind(&content); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	p, err := h.Svc.ApplyEdit(c.Request().Context(), id, content)
	if err != nil {
		return writeDomainErr(c, err)
	}
	return c.JSON(http.StatusOK, permitResp(p))
}

// Regenerate re-renders the document from current content, bumping the
// version.
func (h *PermitHandler) Regenerate(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	path, err := h.Svc.RegenerateDocument(c.Request().Context(), id)
	if err != nil {
		return writeDomainErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"document_path": path})
}

// Void marks a permit VOIDED.  NOTARY only (enforced at the router).
func (h *PermitHandler) Void(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req voidReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	actor := h.actorEmail(c)
	if err := h.Svc.Void(c.Request().Context(), id, req.Reason, actor); err != nil {
		return writeDomainErr(c, err)
	}

	if p, err := h.Svc.GetPermit(c.Request().Context(), id); err == nil {
		ev := queue.PermitVoidedEvent{
			PermitID:    p.ID,
			Correlative: p.Correlative(),
			Reason:      req.Reason,
			VoidedBy:    actor,
		}
		go func() { _ = queue_publisher.PublishPermitVoided(context.Background(), ev) }()
	}
	return c.NoContent(http.StatusNoContent)
}

// permitResp shapes the full record for JSON output.
func permitResp(p *model.Permit) echo.Map {
	return echo.Map{
		"id":              p.ID,
		"correlative":     p.Correlative(),
		"year":            p.Year,
		"sequence_number": p.SequenceNumber,
		"state":           p.State,
		"version":         p.Version,
		"content":         p.PermitContent,
		"document_path":   p.DocumentPath,
		"void_reason":     p.VoidReason,
		"voided_by":       p.VoidedBy,
		"voided_at":       p.VoidedAt,
		"created_at":      p.CreatedAt,
		"updated_at":      p.UpdatedAt,
	}
}
