// Package calendar maps wall-clock date-times onto half-hour slots of a
// UTC calendar day and decides whether two slot windows overlap.
package calendar

import (
	"errors"
	"fmt"
	"time"
)

const (
	// SlotsPerDay number of half-hour buckets in one day
	SlotsPerDay = 48
	// SlotDuration length of one bucket
	SlotDuration = 30 * time.Minute

	MinSlot Slot = 0
	MaxSlot Slot = SlotsPerDay - 1
)

var (
	ErrMisalignedTime = errors.New("time must fall on the hour or half hour")
	ErrInvalidRange   = errors.New("start time must be before end time")
	ErrOutOfRange     = errors.New("time slot outside of the day")
)

// Slot index of a 30-minute bucket within a day: hour*2 + minute/30.
type Slot int

// Valid reports whether s lies in [0, 47].
func (s Slot) Valid() bool { return s >= MinSlot && s <= MaxSlot }

// Offset distance of the slot from midnight.
func (s Slot) Offset() time.Duration { return time.Duration(s) * SlotDuration }

// Clock renders the slot start as HH:MM.
func (s Slot) Clock() string {
	return fmt.Sprintf("%02d:%02d", int(s)/2, (int(s)%2)*30)
}

// Window a date plus the half-open slot range [From, To).
type Window struct {
	Date time.Time
	From Slot
	To   Slot
}

// ToWindow converts a pair of aligned date-times into a Window anchored at
// the UTC midnight of from's calendar day.
func ToWindow(from, to time.Time) (Window, error) {
	from, to = from.UTC(), to.UTC()

	if !aligned(from) || !aligned(to) {
		return Window{}, ErrMisalignedTime
	}
	if !from.Before(to) {
		return Window{}, ErrInvalidRange
	}

	date := DateOf(from)
	w := Window{
		Date: date,
		From: Slot(from.Sub(date) / SlotDuration),
		To:   Slot(to.Sub(date) / SlotDuration),
	}
	if !w.From.Valid() || !w.To.Valid() {
		return Window{}, ErrOutOfRange
	}
	return w, nil
}

// DateOf strips the time of day, keeping the UTC calendar day.
func DateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Start wall-clock start of the window in UTC.
func (w Window) Start() time.Time { return w.Date.Add(w.From.Offset()) }

// End wall-clock end of the window in UTC.
func (w Window) End() time.Time { return w.Date.Add(w.To.Offset()) }

// Equal reports whether both windows cover the same date and slots.
func (w Window) Equal(o Window) bool {
	return w.Date.Equal(o.Date) && w.From == o.From && w.To == o.To
}

func (w Window) String() string {
	return fmt.Sprintf("%s %s-%s", w.Date.Format("2006-01-02"), w.From.Clock(), w.To.Clock())
}

// Overlaps reports whether a and b intersect. Windows on different dates
// never overlap; otherwise the half-open ranges [From, To) are compared.
func Overlaps(a, b Window) bool {
	if !a.Date.Equal(b.Date) {
		return false
	}
	return a.From < b.To && b.From < a.To
}

func aligned(t time.Time) bool {
	return (t.Minute() == 0 || t.Minute() == 30) && t.Second() == 0 && t.Nanosecond() == 0
}
