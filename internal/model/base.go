package model

import (
	"time"

	"campus-lms/backend/internal/calendar"
)

// BaseModel audit timestamps shared by owned tables
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// VersionedModel audit timestamps plus an optimistic-lock counter
type VersionedModel struct {
	BaseModel
	Version int `gorm:"not null;default:1" json:"version"`
}

// SlotWindow storage layout of a calendar.Window: UTC date plus two slot indexes.
type SlotWindow struct {
	Date         time.Time `gorm:"type:date;not null"     json:"date"`
	FromTimeSlot int       `gorm:"type:smallint;not null" json:"from_time_slot"`
	ToTimeSlot   int       `gorm:"type:smallint;not null" json:"to_time_slot"`
}

// NewSlotWindow flattens w into its stored columns.
func NewSlotWindow(w calendar.Window) SlotWindow {
	return SlotWindow{
		Date:         w.Date,
		FromTimeSlot: int(w.From),
		ToTimeSlot:   int(w.To),
	}
}

// Window rebuilds the calendar window. Stored rows are range-checked by the
// schema, so no validation happens here.
func (s SlotWindow) Window() calendar.Window {
	return calendar.Window{
		Date: calendar.DateOf(s.Date),
		From: calendar.Slot(s.FromTimeSlot),
		To:   calendar.Slot(s.ToTimeSlot),
	}
}
