package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/seat-reservation/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AdminHandler serves the dashboard figures and the spreadsheet export.
type AdminHandler struct {
	Reservations *service.ReservationService
	Reports      *service.ReportService
}

func NewAdminHandler(reservations *service.ReservationService, reports *service.ReportService) *AdminHandler {
	return &AdminHandler{Reservations: reservations, Reports: reports}
}

// Stats handles GET /v1/admin/stats.
func (h *AdminHandler) Stats(c echo.Context) error {
	sess, ok := currentSession(c)
	if !ok {
		return nil
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	st, err := h.Reservations.Stats(ctx, sess)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

// ExportReservations handles GET /v1/admin/reports/reservations.xlsx and
// accepts the same filters as the admin reservation list.
func (h *AdminHandler) ExportReservations(c echo.Context) error {
	sess, ok := currentSession(c)
	if !ok {
		return nil
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	buf, name, err := h.Reports.ExportReservations(ctx, sess, listFilterFrom(c))
	if err != nil {
		return fail(c, err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}
