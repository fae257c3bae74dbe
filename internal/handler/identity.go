package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/notaryops/travel-permits/internal/permit"
	"github.com/notaryops/travel-permits/internal/queue"
	"github.com/notaryops/travel-permits/internal/repository"
	queue_publisher "github.com/notaryops/travel-permits/internal/service"
)

// IdentityHandler exposes retroactive identity propagation and the
// suppressed-identity registry.
type IdentityHandler struct {
	Svc   *permit.Service
	Users *repository.UserRepo
}

func NewIdentityHandler(svc *permit.Service, users *repository.UserRepo) *IdentityHandler {
	return &IdentityHandler{Svc: svc, Users: users}
}

type propagateReq struct {
	Role   string `json:"role"`
	OldDoc string `json:"old_doc"`
	NewDoc string `json:"new_doc"`
}

type hideReq struct {
	Role   string `json:"role"`
	Doc    string `json:"doc"`
	Reason string `json:"reason"`
}

// Propagate rewrites a document number across every historical permit
// that carries it in the given role, voided records included.  NOTARY
// only.  A partial failure still reports how many records were already
// rewritten so the operator can re-run the same request: the rewrite is
// idempotent.
func (h *IdentityHandler) Propagate(c echo.Context) error {
	var req propagateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	role := strings.ToUpper(strings.TrimSpace(req.Role))

	affected, err := h.Svc.PropagateIdentityChange(c.Request().Context(), role, req.OldDoc, req.NewDoc)
	if err != nil {
		if _, ok := permit.AsValidation(err); ok {
			return writeDomainErr(c, err)
		}
		return c.JSON(http.StatusServiceUnavailable, echo.Map{
			"error":           "identity rewrite incomplete, re-run to finish",
			"records_updated": affected,
		})
	}

	uid, _ := getUserID(c)
	ev := queue.IdentityPropagatedEvent{
		Role:        role,
		OldDoc:      req.OldDoc,
		NewDoc:      req.NewDoc,
		RecordCount: affected,
		RequestedBy: uid,
	}
	go func() { _ = queue_publisher.PublishIdentityPropagated(context.Background(), ev) }()

	return c.JSON(http.StatusOK, echo.Map{"records_updated": affected})
}

// Hide adds a suppressed-identity marker so the pair stops appearing in
// auto-suggest.  Re-hiding updates the stored reason.
func (h *IdentityHandler) Hide(c echo.Context) error {
	var req hideReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	actor := actorFor(c, h.Users)
	role := strings.ToUpper(strings.TrimSpace(req.Role))
	if err := h.Svc.HideIdentity(c.Request().Context(), role, req.Doc, req.Reason, actor); err != nil {
		return writeDomainErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Unhide removes a suppression marker.
func (h *IdentityHandler) Unhide(c echo.Context) error {
	var req hideReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	role := strings.ToUpper(strings.TrimSpace(req.Role))
	if err := h.Svc.UnhideIdentity(c.Request().Context(), role, req.Doc); err != nil {
		return writeDomainErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Suggest lists distinct known identities for a role, minus suppressed
// markers, filtered by an optional ?q= (name fragment or document
// prefix).
func (h *IdentityHandler) Suggest(c echo.Context) error {
	role := strings.ToUpper(strings.TrimSpace(c.QueryParam("role")))
	entries, err := h.Svc.SuggestIdentities(c.Request().Context(), role, c.QueryParam("q"))
	if err != nil {
		return writeDomainErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"identities": entries, "count": len(entries)})
}

// actorFor resolves the audit actor like PermitHandler.actorEmail but
// without requiring a PermitHandler.
func actorFor(c echo.Context, users *repository.UserRepo) string {
	ph := PermitHandler{Users: users}
	return ph.actorEmail(c)
}
