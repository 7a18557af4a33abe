package model

import (
	"time"

	"campus-lms/backend/internal/calendar"
)

// Lecture scheduled teaching session, table lectures
type Lecture struct {
	LectureID     string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"lecture_id"`
	BatchID       string    `gorm:"type:uuid;not null;index"                       json:"batch_id"`
	ModuleID      string    `gorm:"type:uuid;not null;index"                       json:"module_id"`
	Title         string    `gorm:"type:varchar(200);not null"                     json:"title"`
	ScheduledFrom time.Time `gorm:"not null"                                       json:"scheduled_from"`
	ScheduledTo   time.Time `gorm:"not null;index"                                 json:"scheduled_to"`
	VersionedModel

	// associations
	Batch                *Batch                `gorm:"foreignKey:BatchID;references:BatchID"   json:"batch,omitempty"`
	Module               *Module               `gorm:"foreignKey:ModuleID;references:ModuleID" json:"module,omitempty"`
	LecturerAllocation   *LecturerAllocation   `gorm:"foreignKey:LectureID"                    json:"lecturer_allocation,omitempty"`
	ClassroomAllocations []ClassroomAllocation `gorm:"foreignKey:LectureID"                    json:"classroom_allocations,omitempty"`
	EquipmentAllocations []EquipmentAllocation `gorm:"foreignKey:LectureID"                    json:"equipment_allocations,omitempty"`
}

func (Lecture) TableName() string { return "lectures" }

// Window slot window derived from the scheduled bounds. Only lectures that
// passed calendar.ToWindow are ever persisted.
func (l *Lecture) Window() calendar.Window {
	w, _ := calendar.ToWindow(l.ScheduledFrom, l.ScheduledTo)
	return w
}

// LecturerAllocation exclusive lecturer reservation, table lecturer_allocations
type LecturerAllocation struct {
	AllocationID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"allocation_id"`
	LectureID    string `gorm:"type:uuid;not null;uniqueIndex"                 json:"lecture_id"`
	LecturerID   string `gorm:"type:uuid;not null;index"                       json:"lecturer_id"`
	SlotWindow   `gorm:"embedded"`

	Lecturer *Lecturer `gorm:"foreignKey:LecturerID;references:LecturerID" json:"lecturer,omitempty"`
}

func (LecturerAllocation) TableName() string { return "lecturer_allocations" }

// ClassroomAllocation exclusive classroom reservation, table classroom_allocations
type ClassroomAllocation struct {
	AllocationID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"allocation_id"`
	LectureID    string `gorm:"type:uuid;not null;index"                       json:"lecture_id"`
	ClassroomID  string `gorm:"type:uuid;not null;index"                       json:"classroom_id"`
	SlotWindow   `gorm:"embedded"`

	Classroom *Classroom `gorm:"foreignKey:ClassroomID;references:ClassroomID" json:"classroom,omitempty"`
}

func (ClassroomAllocation) TableName() string { return "classroom_allocations" }

// EquipmentAllocation quantity reservation of a shared item, table equipment_allocations
type EquipmentAllocation struct {
	AllocationID     string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"allocation_id"`
	LectureID        string `gorm:"type:uuid;not null;index"                       json:"lecture_id"`
	EquipmentID      string `gorm:"type:uuid;not null;index"                       json:"equipment_id"`
	ReservedQuantity int    `gorm:"not null"                                       json:"reserved_quantity"`
	SlotWindow       `gorm:"embedded"`

	Equipment *Equipment `gorm:"foreignKey:EquipmentID;references:EquipmentID" json:"equipment,omitempty"`
}

func (EquipmentAllocation) TableName() string { return "equipment_allocations" }
