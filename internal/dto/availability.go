package dto

import "time"

// ── availability DTOs ──

// AvailabilityRequest candidate window for a batch/module pair
type AvailabilityRequest struct {
	BatchID  string    `form:"batch_id"  binding:"required,uuid"`
	ModuleID string    `form:"module_id" binding:"required,uuid"`
	From     time.Time `form:"from"      binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	To       time.Time `form:"to"        binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
}

// AvailableEquipment equipment with spare units in the window
type AvailableEquipment struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Quantity          int    `json:"quantity"`
	AvailableQuantity int    `json:"available_quantity"`
}

// AvailabilityResponse resources free for the whole window
type AvailabilityResponse struct {
	Date         string               `json:"date"`
	FromTimeSlot int                  `json:"from_time_slot"`
	ToTimeSlot   int                  `json:"to_time_slot"`
	StudentCount int                  `json:"student_count"`
	Lecturers    []LecturerBrief      `json:"lecturers"`
	Classrooms   []ClassroomBrief     `json:"classrooms"`
	Equipment    []AvailableEquipment `json:"equipment"`
}
