package dto

import "time"

// ── lecture DTOs ──

// EquipmentRequest one equipment line of a booking
type EquipmentRequest struct {
	EquipmentID string `json:"equipment_id" binding:"required,uuid"`
	Quantity    int    `json:"quantity"`
}

// CreateLectureRequest schedule a new lecture
type CreateLectureRequest struct {
	BatchID       string             `json:"batch_id"       binding:"required,uuid"`
	ModuleID      string             `json:"module_id"      binding:"required,uuid"`
	Title         string             `json:"title"          binding:"required,min=1,max=200"`
	ScheduledFrom time.Time          `json:"scheduled_from" binding:"required"`
	ScheduledTo   time.Time          `json:"scheduled_to"   binding:"required"`
	LecturerID    string             `json:"lecturer_id"    binding:"required,uuid"`
	ClassroomIDs  []string           `json:"classroom_ids"  binding:"omitempty,dive,uuid"`
	Equipment     []EquipmentRequest `json:"equipment"      binding:"omitempty,dive"`
}

// UpdateLectureRequest partial update. Absent fields keep their value; a
// present classroom_ids or equipment list replaces that allocation set.
type UpdateLectureRequest struct {
	Title         *string            `json:"title"          binding:"omitempty,min=1,max=200"`
	ScheduledFrom *time.Time         `json:"scheduled_from"`
	ScheduledTo   *time.Time         `json:"scheduled_to"`
	LecturerID    *string            `json:"lecturer_id"    binding:"omitempty,uuid"`
	ClassroomIDs  []string           `json:"classroom_ids"  binding:"omitempty,dive,uuid"`
	Equipment     []EquipmentRequest `json:"equipment"      binding:"omitempty,dive"`
}

// LectureListRequest list query parameters
type LectureListRequest struct {
	BatchID    string `form:"batch_id"    binding:"omitempty,uuid"`
	ModuleID   string `form:"module_id"   binding:"omitempty,uuid"`
	LecturerID string `form:"lecturer_id" binding:"omitempty,uuid"`
	PaginationRequest
}

// ── responses ──

// EquipmentAllocationBrief reserved equipment line
type EquipmentAllocationBrief struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	ReservedQuantity int    `json:"reserved_quantity"`
}

// LectureResponse lecture with its allocations
type LectureResponse struct {
	ID            string                     `json:"id"`
	BatchID       string                     `json:"batch_id"`
	Batch         *BatchBrief                `json:"batch,omitempty"`
	ModuleID      string                     `json:"module_id"`
	Module        *ModuleBrief               `json:"module,omitempty"`
	Title         string                     `json:"title"`
	ScheduledFrom string                     `json:"scheduled_from"`
	ScheduledTo   string                     `json:"scheduled_to"`
	Date          string                     `json:"date"`
	FromTimeSlot  int                        `json:"from_time_slot"`
	ToTimeSlot    int                        `json:"to_time_slot"`
	Lecturer      *LecturerBrief             `json:"lecturer,omitempty"`
	Classrooms    []ClassroomBrief           `json:"classrooms"`
	Equipment     []EquipmentAllocationBrief `json:"equipment"`
	Version       int                        `json:"version"`
	CreatedAt     string                     `json:"created_at"`
	UpdatedAt     string                     `json:"updated_at"`
}
