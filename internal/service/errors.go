package service

import (
	"errors"
	"fmt"

	"campus-lms/backend/internal/calendar"
)

// ── scheduling errors ──

var (
	ErrIncompleteWindow  = errors.New("scheduled_from and scheduled_to must be supplied together")
	ErrNoClassrooms      = errors.New("at least one classroom is required")
	ErrInvalidQuantity   = errors.New("equipment quantity must be positive")
	ErrDuplicateResource = errors.New("resource listed more than once")

	ErrUnknownBatch         = errors.New("batch not found")
	ErrUnknownModule        = errors.New("module not found")
	ErrUnknownLecturer      = errors.New("lecturer not found")
	ErrUnknownClassroom     = errors.New("classroom not found or inactive")
	ErrUnknownEquipment     = errors.New("equipment not found")
	ErrLecturerNotQualified = errors.New("lecturer is not qualified for the module")
	ErrLectureNotFound      = errors.New("lecture not found")

	ErrResourceConflict = errors.New("resource already allocated in the requested window")
	ErrSchedulingFailed = errors.New("could not commit the schedule after repeated concurrent conflicts, retry later")
)

// ResourceKind kind of resource named by a ConflictError
type ResourceKind string

const (
	KindLecturer  ResourceKind = "lecturer"
	KindClassroom ResourceKind = "classroom"
	KindEquipment ResourceKind = "equipment"
)

// ConflictError a chosen resource is not available in the requested window.
// errors.Is(err, ErrResourceConflict) holds for every ConflictError.
type ConflictError struct {
	Kind       ResourceKind
	ResourceID string // empty when only the storage constraint identified the clash
	Window     calendar.Window

	// equipment only
	Requested int
	Available int
}

func (e *ConflictError) Error() string {
	if e.Kind == KindEquipment {
		return fmt.Sprintf("equipment %s: requested %d, available %d in %s", e.ResourceID, e.Requested, e.Available, e.Window)
	}
	if e.ResourceID == "" {
		return fmt.Sprintf("%s already booked in %s", e.Kind, e.Window)
	}
	return fmt.Sprintf("%s %s already booked in %s", e.Kind, e.ResourceID, e.Window)
}

// Is matches ErrResourceConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrResourceConflict
}

// unknown wraps a reference sentinel with the offending id
func unknown(sentinel error, id string) error {
	return fmt.Errorf("%w: %s", sentinel, id)
}
