package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/iliyamo/seat-reservation/internal/model"
)

func TestExportReservations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.book(t, f.intern, f.a1, tomorrow, model.FullDayDisplay)
	f.book(t, f.other, f.b2, tomorrow, "09:00-10:00")

	reports := NewReportService(f.res, zap.NewNop())

	_, _, err := reports.ExportReservations(ctx, f.intern, ListFilter{})
	assertKind(t, KindForbidden, err)

	buf, name, err := reports.ExportReservations(ctx, f.admin, ListFilter{Date: model.FormatDate(tomorrow)})
	require.NoError(t, err)
	assert.Equal(t, "reservations_2026-03-11.xlsx", name)

	x, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer x.Close()

	assert.Equal(t, []string{"Reservations", "Summary"}, x.GetSheetList())

	rows, err := x.GetRows("Reservations")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Time Slot", rows[0][2])
	assert.Contains(t, []string{rows[1][2], rows[2][2]}, model.FullDayDisplay)

	total, err := x.GetCellValue("Summary", "B1")
	require.NoError(t, err)
	assert.Equal(t, "3", total)
}
