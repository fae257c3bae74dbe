package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/notaryops/travel-permits/internal/permit"
)

// getUserID extracts the authenticated user ID stored by the JWT
// middleware.  JWT numeric claims arrive as float64.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
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

// writeDomainErr maps registry errors onto HTTP responses.  Validation
// failures list every reason so a clerk can fix the whole form in one
// pass; transient storage errors become 503 with a retry hint.
func writeDomainErr(c echo.Context, err error) error {
	if verr, ok := permit.AsValidation(err); ok {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":   "validation failed",
			"reasons": verr.Reasons,
		})
	}
	switch {
	case errors.Is(err, permit.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "permit not found"})
	case errors.Is(err, permit.ErrMarkerNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "suppressed identity not found"})
	case errors.Is(err, permit.ErrAlreadyVoided):
		return c.JSON(http.StatusConflict, echo.Map{"error": "permit already voided"})
	case errors.Is(err, permit.ErrVoidedImmutable):
		return c.JSON(http.StatusConflict, echo.Map{"error": "voided permit is read-only"})
	case errors.Is(err, permit.ErrDuplicateCorrelative):
		return c.JSON(http.StatusConflict, echo.Map{"error": "correlative already exists"})
	case errors.Is(err, permit.ErrRetryableStorage):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "storage busy, try again"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

// pathID parses the :id route parameter.
func pathID(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}
