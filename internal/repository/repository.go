package repository

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TxManager runs fn inside one serializable transaction, handing it a
// Repository whose every member is bound to that transaction. A non-nil
// return from fn rolls the transaction back.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(txRepo *Repository) error) error
}

// Repository aggregate entry point for all repositories
type Repository struct {
	db *gorm.DB

	Batch      BatchRepository
	Module     ModuleRepository
	Lecturer   LecturerRepository
	Classroom  ClassroomRepository
	Equipment  EquipmentRepository
	Lecture    LectureRepository
	Allocation AllocationRepository
}

// NewRepository builds the aggregate on top of db
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:         db,
		Batch:      NewBatchRepo(db),
		Module:     NewModuleRepo(db),
		Lecturer:   NewLecturerRepo(db),
		Classroom:  NewClassroomRepo(db),
		Equipment:  NewEquipmentRepo(db),
		Lecture:    NewLectureRepo(db),
		Allocation: NewAllocationRepo(db),
	}
}

// WithTx returns a Repository bound to tx
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

// WithinTx implements TxManager
func (r *Repository) WithinTx(ctx context.Context, fn func(txRepo *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})
}

// Ping checks the underlying connection, used by the health endpoint
func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// lockByIDs selects rows by primary key with FOR UPDATE, ordered by key so
// concurrent writers acquire locks in the same sequence.
func lockByIDs[T any](ctx context.Context, db *gorm.DB, column string, ids []string) ([]T, error) {
	var rows []T
	if len(ids) == 0 {
		return rows, nil
	}
	err := db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where(column+" IN ?", ids).
		Order(column).
		Find(&rows).Error
	return rows, err
}
