package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"campus-lms/backend/internal/model"
	pkgerrors "campus-lms/backend/pkg/errors"
)

// LectureFilter list filters; zero values are ignored
type LectureFilter struct {
	BatchID    string
	ModuleID   string
	LecturerID string
	EndsAfter  time.Time // only lectures whose scheduled_to is later
}

// LectureRepository lecture data access
type LectureRepository interface {
	Create(ctx context.Context, lecture *model.Lecture) error
	GetByID(ctx context.Context, id string) (*model.Lecture, error)
	GetForUpdate(ctx context.Context, id string) (*model.Lecture, error)
	List(ctx context.Context, f LectureFilter, offset, limit int) ([]model.Lecture, int64, error)
	Update(ctx context.Context, lecture *model.Lecture) error
	Delete(ctx context.Context, id string) error
}

type lectureRepo struct {
	db *gorm.DB
}

func NewLectureRepo(db *gorm.DB) LectureRepository {
	return &lectureRepo{db: db}
}

func (r *lectureRepo) hydrated(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Batch").
		Preload("Module").
		Preload("LecturerAllocation.Lecturer").
		Preload("ClassroomAllocations", func(db *gorm.DB) *gorm.DB {
			return db.Order("classroom_id")
		}).
		Preload("ClassroomAllocations.Classroom").
		Preload("EquipmentAllocations", func(db *gorm.DB) *gorm.DB {
			return db.Order("equipment_id")
		}).
		Preload("EquipmentAllocations.Equipment")
}

func (r *lectureRepo) Create(ctx context.Context, lecture *model.Lecture) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(lecture).Error
}

func (r *lectureRepo) GetByID(ctx context.Context, id string) (*model.Lecture, error) {
	var lecture model.Lecture
	if err := r.hydrated(ctx).Where("lecture_id = ?", id).First(&lecture).Error; err != nil {
		return nil, err
	}
	return &lecture, nil
}

func (r *lectureRepo) GetForUpdate(ctx context.Context, id string) (*model.Lecture, error) {
	var lecture model.Lecture
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("LecturerAllocation").
		Preload("ClassroomAllocations").
		Preload("EquipmentAllocations").
		Where("lecture_id = ?", id).
		First(&lecture).Error
	if err != nil {
		return nil, err
	}
	return &lecture, nil
}

func applyLectureFilter(db *gorm.DB, f LectureFilter) *gorm.DB {
	if f.BatchID != "" {
		db = db.Where("lectures.batch_id = ?", f.BatchID)
	}
	if f.ModuleID != "" {
		db = db.Where("lectures.module_id = ?", f.ModuleID)
	}
	if f.LecturerID != "" {
		db = db.Where("EXISTS (SELECT 1 FROM lecturer_allocations la WHERE la.lecture_id = lectures.lecture_id AND la.lecturer_id = ?)", f.LecturerID)
	}
	if !f.EndsAfter.IsZero() {
		db = db.Where("lectures.scheduled_to > ?", f.EndsAfter)
	}
	return db
}

func (r *lectureRepo) List(ctx context.Context, f LectureFilter, offset, limit int) ([]model.Lecture, int64, error) {
	var lectures []model.Lecture
	var total int64

	if err := applyLectureFilter(r.db.WithContext(ctx).Model(&model.Lecture{}), f).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := applyLectureFilter(r.hydrated(ctx), f).Order("lectures.scheduled_from ASC, lectures.lecture_id ASC")
	if limit > 0 {
		page = page.Offset(offset).Limit(limit)
	}
	if err := page.Find(&lectures).Error; err != nil {
		return nil, 0, err
	}
	return lectures, total, nil
}

func (r *lectureRepo) Update(ctx context.Context, lecture *model.Lecture) error {
	oldVersion := lecture.Version
	result := r.db.WithContext(ctx).
		Model(&model.Lecture{}).
		Where("lecture_id = ? AND version = ?", lecture.LectureID, oldVersion).
		Updates(map[string]interface{}{
			"title":          lecture.Title,
			"scheduled_from": lecture.ScheduledFrom,
			"scheduled_to":   lecture.ScheduledTo,
			"updated_at":     gorm.Expr("NOW()"),
			"version":        oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	lecture.Version = oldVersion + 1
	return nil
}

func (r *lectureRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Where("lecture_id = ?", id).
		Delete(&model.Lecture{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
