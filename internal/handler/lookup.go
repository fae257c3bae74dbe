package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/notaryops/travel-permits/internal/lookup"
)

// LookupHandler proxies the external identity and geography services.
// These endpoints are a convenience for form prefill; failures are
// reported but never block permit issuance.
type LookupHandler struct {
	DNI *lookup.DNIClient
	Geo *lookup.GeoClient
}

func NewLookupHandler(dni *lookup.DNIClient, geo *lookup.GeoClient) *LookupHandler {
	return &LookupHandler{DNI: dni, Geo: geo}
}

func writeLookupErr(c echo.Context, err error) error {
	switch {
	case errors.Is(err, lookup.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, lookup.ErrUnavailable):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "lookup service unavailable"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

// DNILookup returns the registry record for a document number.
func (h *LookupHandler) DNILookup(c echo.Context) error {
	number := c.Param("number")
	if number == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "document number required"})
	}
	p, err := h.DNI.Lookup(c.Request().Context(), number)
	if err != nil {
		return writeLookupErr(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// Departments lists all departments.
func (h *LookupHandler) Departments(c echo.Context) error {
	out, err := h.Geo.Departments(c.Request().Context())
	if err != nil {
		return writeLookupErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"departments": out})
}

// Provinces lists the provinces of ?department=.
func (h *LookupHandler) Provinces(c echo.Context) error {
	dep := c.QueryParam("department")
	if dep == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "department required"})
	}
	out, err := h.Geo.Provinces(c.Request().Context(), dep)
	if err != nil {
		return writeLookupErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"provinces": out})
}

// Districts lists the districts of ?department=&province=.
func (h *LookupHandler) Districts(c echo.Context) error {
	dep := c.QueryParam("department")
	prov := c.QueryParam("province")
	if dep == "" || prov == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "department and province required"})
	}
	out, err := h.Geo.Districts(c.Request().Context(), dep, prov)
	if err != nil {
		return writeLookupErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"districts": out})
}
