package handler

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"

	"github.com/notaryops/travel-permits/internal/model"
	"github.com/notaryops/travel-permits/internal/permit"
)

// ExportHandler streams registry exports.  Both formats share the same
// flat column set as the listing endpoint.
type ExportHandler struct {
	Svc *permit.Service
}

func NewExportHandler(svc *permit.Service) *ExportHandler {
	return &ExportHandler{Svc: svc}
}

var exportHeader = []string{
	"correlative", "year", "sequence_number", "state", "version",
	"minor_name", "minor_doc", "father_name", "mother_name",
	"destination", "departure_date", "created_at",
}

func summaryRow(s *model.PermitSummary) []string {
	return []string{
		s.Correlative,
		strconv.Itoa(s.Year),
		strconv.Itoa(s.SequenceNumber),
		s.State,
		strconv.Itoa(s.Version),
		s.MinorName,
		s.MinorDoc,
		s.FatherName,
		s.MotherName,
		s.Destination,
		s.DepartureDate,
		s.CreatedAt,
	}
}

func (h *ExportHandler) list(c echo.Context) ([]model.PermitSummary, error) {
	year := 0
	if ys := c.QueryParam("year"); ys != "" {
		n, err := strconv.Atoi(ys)
		if err != nil {
			return nil, fmt.Errorf("invalid year")
		}
		year = n
	}
	return h.Svc.ListPermits(c.Request().Context(), year)
}

// CSV exports the registry as a UTF-8 CSV attachment.
func (h *ExportHandler) CSV(c echo.Context) error {
	list, err := h.list(c)
	if err != nil {
		if err.Error() == "invalid year" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid year"})
		}
		return writeDomainErr(c, err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return writeDomainErr(c, err)
	}
	for i := range list {
		if err := w.Write(summaryRow(&list[i])); err != nil {
			return writeDomainErr(c, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return writeDomainErr(c, err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="permits.csv"`)
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// XLSX exports the registry as a spreadsheet, one summary per row.
func (h *ExportHandler) XLSX(c echo.Context) error {
	list, err := h.list(c)
	if err != nil {
		if err.Error() == "invalid year" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid year"})
		}
		return writeDomainErr(c, err)
	}

	f := excelize.NewFile()
	defer f.Close()
	const sheet = "Permisos"
	f.SetSheetName("Sheet1", sheet)

	header := make([]interface{}, len(exportHeader))
	for i, col := range exportHeader {
		header[i] = col
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return writeDomainErr(c, err)
	}
	for i := range list {
		row := summaryRow(&list[i])
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return writeDomainErr(c, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return writeDomainErr(c, err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="permits.xlsx"`)
	return c.Blob(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
