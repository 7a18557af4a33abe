package service

import (
	"context"

	"campus-lms/backend/internal/calendar"
	"campus-lms/backend/internal/repository"
)

// ledgerQuery narrows a ledger lookup
type ledgerQuery struct {
	ids              []string // resources of interest; empty means all
	excludeLectureID string   // allocations of this lecture are ignored
	forUpdate        bool
}

// ledger answers "who is taken during w" from the allocation tables. The
// repository only scopes by date; overlap is decided by calendar.Overlaps.
type ledger struct {
	alloc repository.AllocationRepository
}

func newLedger(alloc repository.AllocationRepository) *ledger {
	return &ledger{alloc: alloc}
}

func (q ledgerQuery) filter(w calendar.Window) repository.AllocationFilter {
	return repository.AllocationFilter{
		Date:             w.Date,
		ResourceIDs:      q.ids,
		ExcludeLectureID: q.excludeLectureID,
		ForUpdate:        q.forUpdate,
	}
}

// BusyLecturers lecturer id → first booked window overlapping w
func (l *ledger) BusyLecturers(ctx context.Context, w calendar.Window, q ledgerQuery) (map[string]calendar.Window, error) {
	allocs, err := l.alloc.ListLecturerAllocations(ctx, q.filter(w))
	if err != nil {
		return nil, err
	}
	busy := make(map[string]calendar.Window)
	for _, a := range allocs {
		if _, seen := busy[a.LecturerID]; seen {
			continue
		}
		if other := a.Window(); calendar.Overlaps(w, other) {
			busy[a.LecturerID] = other
		}
	}
	return busy, nil
}

// BusyClassrooms classroom id → first booked window overlapping w
func (l *ledger) BusyClassrooms(ctx context.Context, w calendar.Window, q ledgerQuery) (map[string]calendar.Window, error) {
	allocs, err := l.alloc.ListClassroomAllocations(ctx, q.filter(w))
	if err != nil {
		return nil, err
	}
	busy := make(map[string]calendar.Window)
	for _, a := range allocs {
		if _, seen := busy[a.ClassroomID]; seen {
			continue
		}
		if other := a.Window(); calendar.Overlaps(w, other) {
			busy[a.ClassroomID] = other
		}
	}
	return busy, nil
}

// ReservedEquipment equipment id → peak reserved quantity at any slot of w.
// Bookings that overlap w but not each other never count together.
func (l *ledger) ReservedEquipment(ctx context.Context, w calendar.Window, q ledgerQuery) (map[string]int, error) {
	allocs, err := l.alloc.ListEquipmentAllocations(ctx, q.filter(w))
	if err != nil {
		return nil, err
	}

	perSlot := make(map[string][]int)
	for _, a := range allocs {
		other := a.Window()
		if !calendar.Overlaps(w, other) {
			continue
		}
		load, ok := perSlot[a.EquipmentID]
		if !ok {
			load = make([]int, w.To-w.From)
			perSlot[a.EquipmentID] = load
		}
		for s := max(w.From, other.From); s < min(w.To, other.To); s++ {
			load[s-w.From] += a.ReservedQuantity
		}
	}

	reserved := make(map[string]int, len(perSlot))
	for id, load := range perSlot {
		for _, n := range load {
			reserved[id] = max(reserved[id], n)
		}
	}
	return reserved, nil
}

// ReservedEquipmentQuantity single-item form of ReservedEquipment
func (l *ledger) ReservedEquipmentQuantity(ctx context.Context, w calendar.Window, equipmentID, excludeLectureID string) (int, error) {
	reserved, err := l.ReservedEquipment(ctx, w, ledgerQuery{
		ids:              []string{equipmentID},
		excludeLectureID: excludeLectureID,
	})
	if err != nil {
		return 0, err
	}
	return reserved[equipmentID], nil
}
