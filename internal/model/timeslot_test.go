package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeSlot(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeSlot
		wantErr bool
	}{
		{in: "09:00-10:00", want: "09:00-10:00"},
		{in: " 17:00-18:00 ", want: "17:00-18:00"},
		{in: "09:00-18:00", want: FullDay},
		{in: FullDayDisplay, want: FullDay},
		{in: "Full Day (9:00 AM-6:00 PM)", want: FullDay},
		{in: "full day", want: FullDay},
		{in: "08:00-09:00", wantErr: true},
		{in: "09:00-12:00", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimeSlot(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTimeSlot)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTimeSlotOverlaps(t *testing.T) {
	assert.True(t, FullDay.Overlaps("13:00-14:00"))
	assert.True(t, TimeSlot("13:00-14:00").Overlaps(FullDay))
	assert.True(t, TimeSlot("13:00-14:00").Overlaps("13:00-14:00"))
	assert.False(t, TimeSlot("13:00-14:00").Overlaps("14:00-15:00"))
}

func TestTimeSlotCovers(t *testing.T) {
	assert.Len(t, FullDay.Covers(), 9)
	assert.Equal(t, []TimeSlot{"10:00-11:00"}, TimeSlot("10:00-11:00").Covers())
}

func TestTimeSlotStartAt(t *testing.T) {
	loc := time.FixedZone("office", 3*3600)
	date := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)

	got := TimeSlot("14:00-15:00").StartAt(date, loc)
	assert.Equal(t, time.Date(2026, 3, 4, 14, 0, 0, 0, loc), got)

	got = FullDay.StartAt(date, loc)
	assert.Equal(t, time.Date(2026, 3, 4, 9, 0, 0, 0, loc), got)
}

func TestDateOfUsesLocation(t *testing.T) {
	loc := time.FixedZone("office", 5*3600)
	// 22:00 UTC on the 1st is already the 2nd in UTC+5.
	instant := time.Date(2026, 1, 1, 22, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), DateOf(instant, loc))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-05-06")
	require.NoError(t, err)
	assert.Equal(t, "2026-05-06", FormatDate(d))

	d, err = ParseDate("2026-05-06T00:00:00.000Z")
	require.NoError(t, err)
	assert.Equal(t, "2026-05-06", FormatDate(d))

	_, err = ParseDate("06/05/2026")
	assert.ErrorIs(t, err, ErrInvalidDate)
}
