package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"campus-lms/backend/internal/model"
)

// AllocationFilter scopes a ledger read to one calendar day
type AllocationFilter struct {
	Date             time.Time
	ResourceIDs      []string // empty: every resource of that kind
	ExcludeLectureID string   // skip rows owned by this lecture
	ForUpdate        bool     // lock the returned rows
}

// AllocationRepository access to the three allocation tables
type AllocationRepository interface {
	ListLecturerAllocations(ctx context.Context, f AllocationFilter) ([]model.LecturerAllocation, error)
	ListClassroomAllocations(ctx context.Context, f AllocationFilter) ([]model.ClassroomAllocation, error)
	ListEquipmentAllocations(ctx context.Context, f AllocationFilter) ([]model.EquipmentAllocation, error)

	CreateLecturerAllocation(ctx context.Context, alloc *model.LecturerAllocation) error
	CreateClassroomAllocations(ctx context.Context, allocs []model.ClassroomAllocation) error
	CreateEquipmentAllocations(ctx context.Context, allocs []model.EquipmentAllocation) error

	DeleteLecturerAllocation(ctx context.Context, lectureID string) error
	DeleteClassroomAllocations(ctx context.Context, lectureID string) error
	DeleteEquipmentAllocations(ctx context.Context, lectureID string) error

	// MoveWindow rewrites date and slots of every allocation owned by lectureID
	MoveWindow(ctx context.Context, lectureID string, w model.SlotWindow) error
}

type allocationRepo struct {
	db *gorm.DB
}

func NewAllocationRepo(db *gorm.DB) AllocationRepository {
	return &allocationRepo{db: db}
}

func (r *allocationRepo) scoped(ctx context.Context, column string, f AllocationFilter) *gorm.DB {
	db := r.db.WithContext(ctx).Where("date = ?", f.Date.Format("2006-01-02"))
	if len(f.ResourceIDs) > 0 {
		db = db.Where(column+" IN ?", f.ResourceIDs)
	}
	if f.ExcludeLectureID != "" {
		db = db.Where("lecture_id <> ?", f.ExcludeLectureID)
	}
	if f.ForUpdate {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db.Order(column).Order("from_time_slot")
}

func (r *allocationRepo) ListLecturerAllocations(ctx context.Context, f AllocationFilter) ([]model.LecturerAllocation, error) {
	var allocs []model.LecturerAllocation
	err := r.scoped(ctx, "lecturer_id", f).Find(&allocs).Error
	return allocs, err
}

func (r *allocationRepo) ListClassroomAllocations(ctx context.Context, f AllocationFilter) ([]model.ClassroomAllocation, error) {
	var allocs []model.ClassroomAllocation
	err := r.scoped(ctx, "classroom_id", f).Find(&allocs).Error
	return allocs, err
}

func (r *allocationRepo) ListEquipmentAllocations(ctx context.Context, f AllocationFilter) ([]model.EquipmentAllocation, error) {
	var allocs []model.EquipmentAllocation
	err := r.scoped(ctx, "equipment_id", f).Find(&allocs).Error
	return allocs, err
}

func (r *allocationRepo) CreateLecturerAllocation(ctx context.Context, alloc *model.LecturerAllocation) error {
	return r.db.WithContext(ctx).Create(alloc).Error
}

func (r *allocationRepo) CreateClassroomAllocations(ctx context.Context, allocs []model.ClassroomAllocation) error {
	if len(allocs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&allocs).Error
}

func (r *allocationRepo) CreateEquipmentAllocations(ctx context.Context, allocs []model.EquipmentAllocation) error {
	if len(allocs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&allocs).Error
}

func (r *allocationRepo) DeleteLecturerAllocation(ctx context.Context, lectureID string) error {
	return r.db.WithContext(ctx).
		Where("lecture_id = ?", lectureID).
		Delete(&model.LecturerAllocation{}).Error
}

func (r *allocationRepo) DeleteClassroomAllocations(ctx context.Context, lectureID string) error {
	return r.db.WithContext(ctx).
		Where("lecture_id = ?", lectureID).
		Delete(&model.ClassroomAllocation{}).Error
}

func (r *allocationRepo) DeleteEquipmentAllocations(ctx context.Context, lectureID string) error {
	return r.db.WithContext(ctx).
		Where("lecture_id = ?", lectureID).
		Delete(&model.EquipmentAllocation{}).Error
}

func (r *allocationRepo) MoveWindow(ctx context.Context, lectureID string, w model.SlotWindow) error {
	updates := map[string]interface{}{
		"date":           w.Date.Format("2006-01-02"),
		"from_time_slot": w.FromTimeSlot,
		"to_time_slot":   w.ToTimeSlot,
	}
	for _, m := range []interface{}{
		&model.LecturerAllocation{},
		&model.ClassroomAllocation{},
		&model.EquipmentAllocation{},
	} {
		err := r.db.WithContext(ctx).
			Model(m).
			Where("lecture_id = ?", lectureID).
			Updates(updates).Error
		if err != nil {
			return err
		}
	}
	return nil
}
