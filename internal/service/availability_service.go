package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"campus-lms/backend/internal/calendar"
	"campus-lms/backend/internal/dto"
	"campus-lms/backend/internal/repository"
)

// AvailabilityService advisory lookup of free resources. Nothing is locked;
// the answer holds only for the instant it was computed.
type AvailabilityService interface {
	ListAvailable(ctx context.Context, req *dto.AvailabilityRequest) (*dto.AvailabilityResponse, error)
}

type availabilityService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewAvailabilityService creates an AvailabilityService
func NewAvailabilityService(repo *repository.Repository, logger *zap.Logger) AvailabilityService {
	return &availabilityService{repo: repo, logger: logger}
}

func (s *availabilityService) ListAvailable(ctx context.Context, req *dto.AvailabilityRequest) (*dto.AvailabilityResponse, error) {
	w, err := calendar.ToWindow(req.From, req.To)
	if err != nil {
		return nil, err
	}

	batch, err := s.repo.Batch.GetByID(ctx, req.BatchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownBatch
		}
		s.logger.Error("get batch failed", zap.String("batch_id", req.BatchID), zap.Error(err))
		return nil, err
	}
	module, err := s.repo.Module.GetByID(ctx, req.ModuleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownModule
		}
		s.logger.Error("get module failed", zap.String("module_id", req.ModuleID), zap.Error(err))
		return nil, err
	}

	l := newLedger(s.repo.Allocation)
	resp := &dto.AvailabilityResponse{
		Date:         w.Date.Format("2006-01-02"),
		FromTimeSlot: int(w.From),
		ToTimeSlot:   int(w.To),
		StudentCount: batch.StudentCount,
		Lecturers:    []dto.LecturerBrief{},
		Classrooms:   []dto.ClassroomBrief{},
		Equipment:    []dto.AvailableEquipment{},
	}

	// ── lecturers: qualified minus busy ──
	if qualified := module.QualifiedLecturerIDs(); len(qualified) > 0 {
		busy, err := l.BusyLecturers(ctx, w, ledgerQuery{ids: qualified})
		if err != nil {
			s.logger.Error("read lecturer allocations failed", zap.Error(err))
			return nil, err
		}
		for _, lecturer := range module.Lecturers {
			if _, taken := busy[lecturer.LecturerID]; !taken {
				resp.Lecturers = append(resp.Lecturers, dto.LecturerBrief{ID: lecturer.LecturerID, Name: lecturer.Name})
			}
		}
	}

	// ── classrooms: active, large enough, not busy ──
	classrooms, err := s.repo.Classroom.ListActive(ctx, batch.StudentCount)
	if err != nil {
		s.logger.Error("list classrooms failed", zap.Error(err))
		return nil, err
	}
	if len(classrooms) > 0 {
		ids := make([]string, 0, len(classrooms))
		for _, c := range classrooms {
			ids = append(ids, c.ClassroomID)
		}
		busy, err := l.BusyClassrooms(ctx, w, ledgerQuery{ids: ids})
		if err != nil {
			s.logger.Error("read classroom allocations failed", zap.Error(err))
			return nil, err
		}
		for _, c := range classrooms {
			if _, taken := busy[c.ClassroomID]; !taken {
				resp.Classrooms = append(resp.Classrooms, dto.ClassroomBrief{ID: c.ClassroomID, Name: c.Name, Capacity: c.Capacity})
			}
		}
	}

	// ── equipment: spare units left ──
	items, err := s.repo.Equipment.List(ctx)
	if err != nil {
		s.logger.Error("list equipment failed", zap.Error(err))
		return nil, err
	}
	if len(items) > 0 {
		reserved, err := l.ReservedEquipment(ctx, w, ledgerQuery{})
		if err != nil {
			s.logger.Error("read equipment allocations failed", zap.Error(err))
			return nil, err
		}
		for _, e := range items {
			if left := e.Quantity - reserved[e.EquipmentID]; left > 0 {
				resp.Equipment = append(resp.Equipment, dto.AvailableEquipment{
					ID:                e.EquipmentID,
					Name:              e.Name,
					Quantity:          e.Quantity,
					AvailableQuantity: left,
				})
			}
		}
	}

	return resp, nil
}
