package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// TimeSlot is the canonical "HH:MM-HH:MM" form of a bookable period.
type TimeSlot string

// FullDay occupies every hourly slot of a date.
const FullDay TimeSlot = "09:00-18:00"

// FullDayDisplay is the label older clients send for FullDay.
const FullDayDisplay = "Full Day (9:00 AM–6:00 PM)"

// DateLayout is the wire and storage format of calendar dates.
const DateLayout = "2006-01-02"

// HourlySlots lists the partial slots in chronological order.
var HourlySlots = []TimeSlot{
	"09:00-10:00",
	"10:00-11:00",
	"11:00-12:00",
	"12:00-13:00",
	"13:00-14:00",
	"14:00-15:00",
	"15:00-16:00",
	"16:00-17:00",
	"17:00-18:00",
}

var ErrInvalidTimeSlot = errors.New("invalid time slot")
var ErrInvalidDate = errors.New("invalid date")

// ParseTimeSlot maps user input onto a canonical slot.  The full-day
// display label, with either dash, and "full day" are accepted as FullDay.
func ParseTimeSlot(s string) (TimeSlot, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrInvalidTimeSlot
	}
	norm := strings.ReplaceAll(s, "–", "-")
	norm = strings.ReplaceAll(norm, " - ", "-")
	if strings.EqualFold(norm, string(FullDay)) ||
		strings.EqualFold(norm, strings.ReplaceAll(FullDayDisplay, "–", "-")) ||
		strings.EqualFold(norm, "full day") ||
		strings.EqualFold(norm, "full-day") {
		return FullDay, nil
	}
	for _, slot := range HourlySlots {
		if norm == string(slot) {
			return slot, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTimeSlot, s)
}

// IsFullDay reports whether t is the full-day sentinel.
func (t TimeSlot) IsFullDay() bool { return t == FullDay }

// Display returns the label shown to users.
func (t TimeSlot) Display() string {
	if t.IsFullDay() {
		return FullDayDisplay
	}
	return string(t)
}

// Covers returns the hourly slots occupied by t.
func (t TimeSlot) Covers() []TimeSlot {
	if t.IsFullDay() {
		out := make([]TimeSlot, len(HourlySlots))
		copy(out, HourlySlots)
		return out
	}
	return []TimeSlot{t}
}

// Overlaps reports whether t and o share any hourly slot.
func (t TimeSlot) Overlaps(o TimeSlot) bool {
	if t.IsFullDay() || o.IsFullDay() {
		return true
	}
	return t == o
}

// StartClock returns the hour and minute the slot begins.  A full-day
// booking starts when the office opens, 09:00.
func (t TimeSlot) StartClock() (hour, minute int) {
	start, _, _ := strings.Cut(string(t), "-")
	var h, m int
	if _, err := fmt.Sscanf(start, "%d:%d", &h, &m); err != nil {
		return 9, 0
	}
	return h, m
}

// StartAt returns the instant the slot begins on date in loc.
func (t TimeSlot) StartAt(date time.Time, loc *time.Location) time.Time {
	h, m := t.StartClock()
	return time.Date(date.Year(), date.Month(), date.Day(), h, m, 0, 0, loc)
}

// DateOf returns the calendar day of t, as observed in loc, encoded as
// midnight UTC.
func DateOf(t time.Time, loc *time.Location) time.Time {
	if loc != nil {
		t = t.In(loc)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDate compares two dates at calendar-day granularity.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Midnight returns the start of date in loc.
func Midnight(date time.Time, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
}

// ParseDate accepts "2006-01-02" or an RFC 3339 timestamp and keeps only
// the calendar date part as written.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if d, err := time.Parse(DateLayout, s); err == nil {
		return d, nil
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// FormatDate renders a calendar date in DateLayout.
func FormatDate(d time.Time) string { return d.Format(DateLayout) }
