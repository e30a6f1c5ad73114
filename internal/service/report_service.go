package service

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/iliyamo/seat-reservation/internal/model"
)

const (
	reservationsSheet = "Reservations"
	summarySheet      = "Summary"
)

var reservationHeaders = []string{
	"ID", "Date", "Time Slot", "Status", "Seat", "Row", "Location", "Area",
	"User", "Email", "Reserved At", "Cancelled At",
}

// ReportService renders reservation exports for admins.
type ReportService struct {
	reservations *ReservationService
	log          *zap.Logger
}

func NewReportService(reservations *ReservationService, log *zap.Logger) *ReportService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReportService{reservations: reservations, log: log.Named("reports")}
}

// ExportReservations builds an xlsx workbook with one row per reservation
// matching f and a summary sheet.  It returns the file and a suggested
// filename.  Admin only.
func (s *ReportService) ExportReservations(ctx context.Context, sess model.Session, f ListFilter) (*bytes.Buffer, string, error) {
	rows, err := s.reservations.ListAll(ctx, sess, f)
	if err != nil {
		return nil, "", err
	}
	stats, err := s.reservations.Stats(ctx, sess)
	if err != nil {
		return nil, "", err
	}

	x := excelize.NewFile()
	defer x.Close()

	if err := x.SetSheetName("Sheet1", reservationsSheet); err != nil {
		return nil, "", s.fail(err)
	}
	if _, err := x.NewSheet(summarySheet); err != nil {
		return nil, "", s.fail(err)
	}

	headerStyle, _ := x.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	for i, h := range reservationHeaders {
		_ = x.SetCellValue(reservationsSheet, cell(colName(i), 1), h)
	}
	_ = x.SetCellStyle(reservationsSheet, "A1", cell(colName(len(reservationHeaders)-1), 1), headerStyle)
	_ = x.SetColWidth(reservationsSheet, "B", "C", 14)
	_ = x.SetColWidth(reservationsSheet, "I", "J", 26)
	_ = x.SetColWidth(reservationsSheet, "K", "L", 22)

	for i, r := range rows {
		cancelled := ""
		if r.CancelledAt != nil {
			cancelled = r.CancelledAt.UTC().Format("2006-01-02 15:04")
		}
		values := []any{
			r.ID, model.FormatDate(r.Date), r.TimeSlot.Display(), string(r.Status),
			r.SeatNumber, r.SeatRow, r.SeatLocation, r.SeatArea,
			r.UserName, r.UserEmail, r.ReservedAt.UTC().Format("2006-01-02 15:04"), cancelled,
		}
		if err := x.SetSheetRow(reservationsSheet, cell("A", i+2), &values); err != nil {
			return nil, "", s.fail(err)
		}
	}

	summary := [][]any{
		{"Total Seats", stats.TotalSeats},
		{"Available Seats", stats.AvailableSeats},
		{"Occupied Seats", stats.OccupiedSeats},
		{"Total Reservations", stats.TotalReservations},
		{"Active Reservations", stats.ActiveReservations},
		{"Utilization Rate (%)", stats.UtilizationRate},
		{"Exported Rows", len(rows)},
	}
	row := 1
	for _, kv := range summary {
		_ = x.SetSheetRow(summarySheet, cell("A", row), &kv)
		row++
	}
	row = writeCounts(x, row+1, "Area", stats.ByArea)
	writeCounts(x, row+1, "Time Slot", stats.ByTimeSlot)
	_ = x.SetColWidth(summarySheet, "A", "A", 24)

	buf := new(bytes.Buffer)
	if err := x.Write(buf); err != nil {
		return nil, "", s.fail(err)
	}
	name := "reservations.xlsx"
	if f.Date != "" {
		name = fmt.Sprintf("reservations_%s.xlsx", f.Date)
	}
	return buf, name, nil
}

// writeCounts writes a titled two-column table of counts sorted by key
// starting at row and returns the row after it.
func writeCounts(x *excelize.File, row int, title string, counts map[string]int) int {
	_ = x.SetSheetRow(summarySheet, cell("A", row), &[]any{"Active by " + title, "Count"})
	row++
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		_ = x.SetSheetRow(summarySheet, cell("A", row), &[]any{k, counts[k]})
		row++
	}
	return row
}

func (s *ReportService) fail(err error) error {
	s.log.Error("build workbook failed", zap.Error(err))
	return storageErr(err)
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
