package repository

import (
	"context"

	"gorm.io/gorm"

	"campus-lms/backend/internal/model"
)

// BatchRepository batch read access
type BatchRepository interface {
	GetByID(ctx context.Context, id string) (*model.Batch, error)
}

// ModuleRepository module read access; GetByID preloads qualified lecturers
type ModuleRepository interface {
	GetByID(ctx context.Context, id string) (*model.Module, error)
}

// LecturerRepository lecturer read access
type LecturerRepository interface {
	LockByIDs(ctx context.Context, ids []string) ([]model.Lecturer, error)
}

// ClassroomRepository classroom read access
type ClassroomRepository interface {
	ListActive(ctx context.Context, minCapacity int) ([]model.Classroom, error)
	LockByIDs(ctx context.Context, ids []string) ([]model.Classroom, error)
}

// EquipmentRepository equipment read access
type EquipmentRepository interface {
	List(ctx context.Context) ([]model.Equipment, error)
	LockByIDs(ctx context.Context, ids []string) ([]model.Equipment, error)
}

// ── Batch ──

type batchRepo struct {
	db *gorm.DB
}

func NewBatchRepo(db *gorm.DB) BatchRepository {
	return &batchRepo{db: db}
}

func (r *batchRepo) GetByID(ctx context.Context, id string) (*model.Batch, error) {
	var batch model.Batch
	if err := r.db.WithContext(ctx).Where("batch_id = ?", id).First(&batch).Error; err != nil {
		return nil, err
	}
	return &batch, nil
}

// ── Module ──

type moduleRepo struct {
	db *gorm.DB
}

func NewModuleRepo(db *gorm.DB) ModuleRepository {
	return &moduleRepo{db: db}
}

func (r *moduleRepo) GetByID(ctx context.Context, id string) (*model.Module, error) {
	var module model.Module
	err := r.db.WithContext(ctx).
		Preload("Lecturers", func(db *gorm.DB) *gorm.DB {
			return db.Order("lecturers.name ASC")
		}).
		Where("module_id = ?", id).
		First(&module).Error
	if err != nil {
		return nil, err
	}
	return &module, nil
}

// ── Lecturer ──

type lecturerRepo struct {
	db *gorm.DB
}

func NewLecturerRepo(db *gorm.DB) LecturerRepository {
	return &lecturerRepo{db: db}
}

func (r *lecturerRepo) LockByIDs(ctx context.Context, ids []string) ([]model.Lecturer, error) {
	return lockByIDs[model.Lecturer](ctx, r.db, "lecturer_id", ids)
}

// ── Classroom ──

type classroomRepo struct {
	db *gorm.DB
}

func NewClassroomRepo(db *gorm.DB) ClassroomRepository {
	return &classroomRepo{db: db}
}

func (r *classroomRepo) ListActive(ctx context.Context, minCapacity int) ([]model.Classroom, error) {
	var classrooms []model.Classroom
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND capacity >= ?", true, minCapacity).
		Order("capacity ASC, name ASC").
		Find(&classrooms).Error
	return classrooms, err
}

func (r *classroomRepo) LockByIDs(ctx context.Context, ids []string) ([]model.Classroom, error) {
	return lockByIDs[model.Classroom](ctx, r.db, "classroom_id", ids)
}

// ── Equipment ──

type equipmentRepo struct {
	db *gorm.DB
}

func NewEquipmentRepo(db *gorm.DB) EquipmentRepository {
	return &equipmentRepo{db: db}
}

func (r *equipmentRepo) List(ctx context.Context) ([]model.Equipment, error) {
	var items []model.Equipment
	err := r.db.WithContext(ctx).Order("name ASC").Find(&items).Error
	return items, err
}

func (r *equipmentRepo) LockByIDs(ctx context.Context, ids []string) ([]model.Equipment, error) {
	return lockByIDs[model.Equipment](ctx, r.db, "equipment_id", ids)
}
