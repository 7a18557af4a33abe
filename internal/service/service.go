package service

import (
	"go.uber.org/zap"

	"campus-lms/backend/config"
	"campus-lms/backend/internal/repository"
)

// Service aggregate entry point for all services
type Service struct {
	Lecture      LectureService
	Availability AvailabilityService
	Export       ExportService
}

// NewService wires every service on top of repo
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	notifier LectureNotifier,
	logger *zap.Logger,
) *Service {
	return &Service{
		Lecture:      NewLectureService(repo, repo, notifier, cfg.Scheduler, logger),
		Availability: NewAvailabilityService(repo, logger),
		Export:       NewExportService(repo, logger),
	}
}
