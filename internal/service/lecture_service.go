package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"campus-lms/backend/config"
	"campus-lms/backend/internal/calendar"
	"campus-lms/backend/internal/dto"
	"campus-lms/backend/internal/model"
	"campus-lms/backend/internal/repository"
	pkgerrors "campus-lms/backend/pkg/errors"
)

const timeLayout = "2006-01-02T15:04:05Z"

// LectureService lecture scheduling: the authoritative commit path
type LectureService interface {
	Create(ctx context.Context, req *dto.CreateLectureRequest) (*dto.LectureResponse, error)
	GetByID(ctx context.Context, id string) (*dto.LectureResponse, error)
	List(ctx context.Context, req *dto.LectureListRequest) ([]dto.LectureResponse, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdateLectureRequest) (*dto.LectureResponse, error)
	Delete(ctx context.Context, id string) error
}

type lectureService struct {
	repo     *repository.Repository
	tx       repository.TxManager
	notifier LectureNotifier
	cfg      config.SchedulerConfig
	logger   *zap.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

// NewLectureService creates a LectureService
func NewLectureService(
	repo *repository.Repository,
	tx repository.TxManager,
	notifier LectureNotifier,
	cfg config.SchedulerConfig,
	logger *zap.Logger,
) LectureService {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &lectureService{
		repo:     repo,
		tx:       tx,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
		tracer:   otel.Tracer("campus-lms/service"),
		now:      time.Now,
	}
}

// equipmentNeed one requested equipment line
type equipmentNeed struct {
	id       string
	quantity int
}

// reservation the full resource set a lecture must hold in window
type reservation struct {
	lectureID    string // "" while creating
	moduleID     string
	window       calendar.Window
	lecturerID   string
	classroomIDs []string
	equipment    []equipmentNeed
}

// ════════════════════════════════════════════════════════════
// Create
// ════════════════════════════════════════════════════════════

func (s *lectureService) Create(ctx context.Context, req *dto.CreateLectureRequest) (*dto.LectureResponse, error) {
	ctx, span := s.tracer.Start(ctx, "LectureService.Create",
		trace.WithAttributes(
			attribute.String("batch_id", req.BatchID),
			attribute.String("module_id", req.ModuleID),
		))
	defer span.End()

	w, err := calendar.ToWindow(req.ScheduledFrom, req.ScheduledTo)
	if err != nil {
		return nil, err
	}
	if len(req.ClassroomIDs) == 0 {
		return nil, ErrNoClassrooms
	}
	if err := checkUnique(req.ClassroomIDs); err != nil {
		return nil, err
	}
	equipment, err := toEquipmentNeeds(req.Equipment)
	if err != nil {
		return nil, err
	}

	res := reservation{
		moduleID:     req.ModuleID,
		window:       w,
		lecturerID:   req.LecturerID,
		classroomIDs: req.ClassroomIDs,
		equipment:    equipment,
	}

	var lecture *model.Lecture
	err = s.runInTx(ctx, &w, func(tx *repository.Repository) error {
		if _, err := tx.Batch.GetByID(ctx, req.BatchID); err != nil {
			return notFoundAs(err, ErrUnknownBatch, req.BatchID)
		}
		if err := s.lockAndCheck(ctx, tx, res); err != nil {
			return err
		}

		lecture = &model.Lecture{
			BatchID:       req.BatchID,
			ModuleID:      req.ModuleID,
			Title:         req.Title,
			ScheduledFrom: w.Start(),
			ScheduledTo:   w.End(),
		}
		if err := tx.Lecture.Create(ctx, lecture); err != nil {
			return referenceError(err, req)
		}
		return s.insertAllocations(ctx, tx, lecture.LectureID, res, true, true, true)
	})
	if err != nil {
		s.recordError(span, "create lecture failed", err)
		return nil, err
	}

	span.SetAttributes(attribute.String("lecture_id", lecture.LectureID))
	s.notifyScheduled(ctx, lecture)

	return s.GetByID(ctx, lecture.LectureID)
}

// ════════════════════════════════════════════════════════════
// Update
// ════════════════════════════════════════════════════════════
//
// A window change moves every allocation of the lecture and re-checks all of
// them, including resources the request does not mention. A supplied
// lecturer, classroom list or equipment list replaces that set wholesale.

func (s *lectureService) Update(ctx context.Context, id string, req *dto.UpdateLectureRequest) (*dto.LectureResponse, error) {
	ctx, span := s.tracer.Start(ctx, "LectureService.Update", trace.WithAttributes(attribute.String("lecture_id", id)))
	defer span.End()

	if (req.ScheduledFrom == nil) != (req.ScheduledTo == nil) {
		return nil, ErrIncompleteWindow
	}
	var newWindow *calendar.Window
	if req.ScheduledFrom != nil {
		w, err := calendar.ToWindow(*req.ScheduledFrom, *req.ScheduledTo)
		if err != nil {
			return nil, err
		}
		newWindow = &w
	}
	if req.ClassroomIDs != nil {
		if len(req.ClassroomIDs) == 0 {
			return nil, ErrNoClassrooms
		}
		if err := checkUnique(req.ClassroomIDs); err != nil {
			return nil, err
		}
	}
	var newEquipment []equipmentNeed
	if req.Equipment != nil {
		var err error
		if newEquipment, err = toEquipmentNeeds(req.Equipment); err != nil {
			return nil, err
		}
	}

	if !validLectureID(id) {
		return nil, ErrLectureNotFound
	}

	replaceLecturer := req.LecturerID != nil
	replaceClassrooms := req.ClassroomIDs != nil
	replaceEquipment := req.Equipment != nil

	var target calendar.Window
	err := s.runInTx(ctx, &target, func(tx *repository.Repository) error {
		lecture, err := tx.Lecture.GetForUpdate(ctx, id)
		if err != nil {
			return notFoundAs(err, ErrLectureNotFound, "")
		}

		current := lecture.Window()
		target = current
		if newWindow != nil {
			target = *newWindow
		}
		moved := !target.Equal(current)

		res := currentReservation(lecture, target)
		if replaceLecturer {
			res.lecturerID = *req.LecturerID
		}
		if replaceClassrooms {
			res.classroomIDs = req.ClassroomIDs
		}
		if replaceEquipment {
			res.equipment = newEquipment
		}

		if moved || replaceLecturer || replaceClassrooms || replaceEquipment {
			if err := s.lockAndCheck(ctx, tx, res); err != nil {
				return err
			}
		}

		if req.Title != nil {
			lecture.Title = *req.Title
		}
		lecture.ScheduledFrom = target.Start()
		lecture.ScheduledTo = target.End()
		if err := tx.Lecture.Update(ctx, lecture); err != nil {
			return err
		}

		// replaced sets go first so the move never touches rows about to vanish
		if replaceLecturer {
			if err := tx.Allocation.DeleteLecturerAllocation(ctx, id); err != nil {
				return err
			}
		}
		if replaceClassrooms {
			if err := tx.Allocation.DeleteClassroomAllocations(ctx, id); err != nil {
				return err
			}
		}
		if replaceEquipment {
			if err := tx.Allocation.DeleteEquipmentAllocations(ctx, id); err != nil {
				return err
			}
		}
		if moved {
			if err := tx.Allocation.MoveWindow(ctx, id, model.NewSlotWindow(target)); err != nil {
				return err
			}
		}
		return s.insertAllocations(ctx, tx, id, res, replaceLecturer, replaceClassrooms, replaceEquipment)
	})
	if err != nil {
		s.recordError(span, "update lecture failed", err)
		return nil, err
	}

	return s.GetByID(ctx, id)
}

// ════════════════════════════════════════════════════════════
// Delete
// ════════════════════════════════════════════════════════════

func (s *lectureService) Delete(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "LectureService.Delete", trace.WithAttributes(attribute.String("lecture_id", id)))
	defer span.End()

	if !validLectureID(id) {
		return ErrLectureNotFound
	}

	err := s.runInTx(ctx, nil, func(tx *repository.Repository) error {
		if _, err := tx.Lecture.GetForUpdate(ctx, id); err != nil {
			return notFoundAs(err, ErrLectureNotFound, "")
		}
		if err := tx.Allocation.DeleteEquipmentAllocations(ctx, id); err != nil {
			return err
		}
		if err := tx.Allocation.DeleteClassroomAllocations(ctx, id); err != nil {
			return err
		}
		if err := tx.Allocation.DeleteLecturerAllocation(ctx, id); err != nil {
			return err
		}
		if err := tx.Lecture.Delete(ctx, id); err != nil {
			return notFoundAs(err, ErrLectureNotFound, "")
		}
		return nil
	})
	if err != nil {
		s.recordError(span, "delete lecture failed", err)
		return err
	}
	return nil
}

// ════════════════════════════════════════════════════════════
// Queries
// ════════════════════════════════════════════════════════════

func (s *lectureService) GetByID(ctx context.Context, id string) (*dto.LectureResponse, error) {
	if !validLectureID(id) {
		return nil, ErrLectureNotFound
	}
	lecture, err := s.repo.Lecture.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLectureNotFound
		}
		s.logger.Error("get lecture failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toLectureResponse(lecture), nil
}

func (s *lectureService) List(ctx context.Context, req *dto.LectureListRequest) ([]dto.LectureResponse, int64, error) {
	filter := repository.LectureFilter{
		BatchID:    req.BatchID,
		ModuleID:   req.ModuleID,
		LecturerID: req.LecturerID,
		EndsAfter:  s.now().UTC(),
	}
	lectures, total, err := s.repo.Lecture.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("list lectures failed", zap.Error(err))
		return nil, 0, err
	}

	list := make([]dto.LectureResponse, 0, len(lectures))
	for i := range lectures {
		list = append(list, *toLectureResponse(&lectures[i]))
	}
	return list, total, nil
}

// ════════════════════════════════════════════════════════════
// Transaction plumbing
// ════════════════════════════════════════════════════════════

// runInTx runs fn in a serializable transaction, replaying it on
// serialization failures, deadlocks and optimistic-lock misses. w points at
// the window reported when the storage exclusion constraint rejects a row.
func (s *lectureService) runInTx(ctx context.Context, w *calendar.Window, fn func(tx *repository.Repository) error) error {
	span := trace.SpanFromContext(ctx)

	for attempt := 1; ; attempt++ {
		err := s.tx.WithinTx(ctx, fn)
		if err == nil {
			span.SetAttributes(attribute.Int("tx.attempts", attempt))
			return nil
		}
		if pkgerrors.IsExclusionViolation(err) {
			var window calendar.Window
			if w != nil {
				window = *w
			}
			return conflictFromConstraint(err, window)
		}
		if !pkgerrors.IsRetryable(err) {
			return err
		}
		if attempt >= s.cfg.MaxAttempts {
			s.logger.Warn("scheduling retries exhausted",
				zap.Int("attempts", attempt),
				zap.Error(err),
			)
			return ErrSchedulingFailed
		}

		s.logger.Debug("retrying scheduling transaction", zap.Int("attempt", attempt), zap.Error(err))
		if s.cfg.RetryBackoff > 0 {
			timer := time.NewTimer(s.cfg.RetryBackoff * time.Duration(attempt))
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
}

// lockAndCheck row-locks the chosen inventory (lecturer, then classrooms,
// then equipment, each in id order), validates references and re-runs the
// ledger against the transaction.
func (s *lectureService) lockAndCheck(ctx context.Context, tx *repository.Repository, res reservation) error {
	module, err := tx.Module.GetByID(ctx, res.moduleID)
	if err != nil {
		return notFoundAs(err, ErrUnknownModule, res.moduleID)
	}

	lecturers, err := tx.Lecturer.LockByIDs(ctx, []string{res.lecturerID})
	if err != nil {
		return err
	}
	if len(lecturers) == 0 {
		return unknown(ErrUnknownLecturer, res.lecturerID)
	}
	if !module.IsQualified(res.lecturerID) {
		return ErrLecturerNotQualified
	}

	classroomIDs := sortedCopy(res.classroomIDs)
	classrooms, err := tx.Classroom.LockByIDs(ctx, classroomIDs)
	if err != nil {
		return err
	}
	active := make(map[string]bool, len(classrooms))
	for _, c := range classrooms {
		active[c.ClassroomID] = c.IsActive
	}
	for _, id := range classroomIDs {
		if !active[id] {
			return unknown(ErrUnknownClassroom, id)
		}
	}

	equipmentIDs := make([]string, 0, len(res.equipment))
	for _, e := range res.equipment {
		equipmentIDs = append(equipmentIDs, e.id)
	}
	sort.Strings(equipmentIDs)
	items, err := tx.Equipment.LockByIDs(ctx, equipmentIDs)
	if err != nil {
		return err
	}
	stock := make(map[string]int, len(items))
	for _, e := range items {
		stock[e.EquipmentID] = e.Quantity
	}
	for _, id := range equipmentIDs {
		if _, ok := stock[id]; !ok {
			return unknown(ErrUnknownEquipment, id)
		}
	}

	l := newLedger(tx.Allocation)

	busyLecturers, err := l.BusyLecturers(ctx, res.window, ledgerQuery{
		ids: []string{res.lecturerID}, excludeLectureID: res.lectureID, forUpdate: true,
	})
	if err != nil {
		return err
	}
	if _, busy := busyLecturers[res.lecturerID]; busy {
		return &ConflictError{Kind: KindLecturer, ResourceID: res.lecturerID, Window: res.window}
	}

	busyClassrooms, err := l.BusyClassrooms(ctx, res.window, ledgerQuery{
		ids: classroomIDs, excludeLectureID: res.lectureID, forUpdate: true,
	})
	if err != nil {
		return err
	}
	for _, id := range classroomIDs {
		if _, busy := busyClassrooms[id]; busy {
			return &ConflictError{Kind: KindClassroom, ResourceID: id, Window: res.window}
		}
	}

	if len(equipmentIDs) == 0 {
		return nil
	}
	reserved, err := l.ReservedEquipment(ctx, res.window, ledgerQuery{
		ids: equipmentIDs, excludeLectureID: res.lectureID, forUpdate: true,
	})
	if err != nil {
		return err
	}
	for _, need := range sortedNeeds(res.equipment) {
		available := stock[need.id] - reserved[need.id]
		if need.quantity > available {
			if available < 0 {
				available = 0
			}
			return &ConflictError{
				Kind:       KindEquipment,
				ResourceID: need.id,
				Window:     res.window,
				Requested:  need.quantity,
				Available:  available,
			}
		}
	}
	return nil
}

// insertAllocations writes the selected allocation sets of res
func (s *lectureService) insertAllocations(ctx context.Context, tx *repository.Repository, lectureID string, res reservation, lecturer, classrooms, equipment bool) error {
	sw := model.NewSlotWindow(res.window)

	if lecturer {
		if err := tx.Allocation.CreateLecturerAllocation(ctx, &model.LecturerAllocation{
			LectureID:  lectureID,
			LecturerID: res.lecturerID,
			SlotWindow: sw,
		}); err != nil {
			return err
		}
	}

	if classrooms {
		allocs := make([]model.ClassroomAllocation, 0, len(res.classroomIDs))
		for _, id := range res.classroomIDs {
			allocs = append(allocs, model.ClassroomAllocation{LectureID: lectureID, ClassroomID: id, SlotWindow: sw})
		}
		if err := tx.Allocation.CreateClassroomAllocations(ctx, allocs); err != nil {
			return err
		}
	}

	if equipment {
		allocs := make([]model.EquipmentAllocation, 0, len(res.equipment))
		for _, e := range res.equipment {
			allocs = append(allocs, model.EquipmentAllocation{
				LectureID:        lectureID,
				EquipmentID:      e.id,
				ReservedQuantity: e.quantity,
				SlotWindow:       sw,
			})
		}
		if err := tx.Allocation.CreateEquipmentAllocations(ctx, allocs); err != nil {
			return err
		}
	}
	return nil
}

func (s *lectureService) notifyScheduled(ctx context.Context, lecture *model.Lecture) {
	if s.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	evt := LectureScheduledEvent{
		LectureID:     lecture.LectureID,
		BatchID:       lecture.BatchID,
		ModuleID:      lecture.ModuleID,
		Title:         lecture.Title,
		ScheduledFrom: lecture.ScheduledFrom.UTC().Format(timeLayout),
		ScheduledTo:   lecture.ScheduledTo.UTC().Format(timeLayout),
	}
	if err := s.notifier.LectureScheduled(ctx, evt); err != nil {
		s.logger.Warn("publish lecture scheduled failed",
			zap.String("lecture_id", lecture.LectureID),
			zap.Error(err),
		)
	}
}

// recordError logs unexpected failures; domain errors are the caller's
// business and only land on the span.
func (s *lectureService) recordError(span trace.Span, msg string, err error) {
	span.RecordError(err)
	if isDomainError(err) {
		return
	}
	span.SetStatus(codes.Error, err.Error())
	s.logger.Error(msg, zap.Error(err))
}

// ── helpers ──

func currentReservation(lecture *model.Lecture, target calendar.Window) reservation {
	res := reservation{
		lectureID: lecture.LectureID,
		moduleID:  lecture.ModuleID,
		window:    target,
	}
	if lecture.LecturerAllocation != nil {
		res.lecturerID = lecture.LecturerAllocation.LecturerID
	}
	for _, a := range lecture.ClassroomAllocations {
		res.classroomIDs = append(res.classroomIDs, a.ClassroomID)
	}
	for _, a := range lecture.EquipmentAllocations {
		res.equipment = append(res.equipment, equipmentNeed{id: a.EquipmentID, quantity: a.ReservedQuantity})
	}
	return res
}

func toEquipmentNeeds(reqs []dto.EquipmentRequest) ([]equipmentNeed, error) {
	needs := make([]equipmentNeed, 0, len(reqs))
	seen := make(map[string]struct{}, len(reqs))
	for _, r := range reqs {
		if r.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		if _, dup := seen[r.EquipmentID]; dup {
			return nil, ErrDuplicateResource
		}
		seen[r.EquipmentID] = struct{}{}
		needs = append(needs, equipmentNeed{id: r.EquipmentID, quantity: r.Quantity})
	}
	return needs, nil
}

func checkUnique(ids []string) error {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return ErrDuplicateResource
		}
		seen[id] = struct{}{}
	}
	return nil
}

func sortedCopy(ids []string) []string {
	out := append([]string(nil), ids...)
	sort.Strings(out)
	return out
}

func sortedNeeds(needs []equipmentNeed) []equipmentNeed {
	out := append([]equipmentNeed(nil), needs...)
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// notFoundAs maps gorm.ErrRecordNotFound onto a domain sentinel. A key that
// is not even a valid UUID names no row either.
func notFoundAs(err, sentinel error, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) || pkgerrors.IsInvalidTextRepresentation(err) {
		if id == "" {
			return sentinel
		}
		return unknown(sentinel, id)
	}
	return err
}

// referenceError maps a foreign key violation on the lecture row, raised when
// the batch or module vanished after it was read.
func referenceError(err error, req *dto.CreateLectureRequest) error {
	if !pkgerrors.IsForeignKeyViolation(err) {
		return err
	}
	if pkgerrors.ConstraintName(err) == "lectures_module_id_fkey" {
		return unknown(ErrUnknownModule, req.ModuleID)
	}
	return unknown(ErrUnknownBatch, req.BatchID)
}

func validLectureID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// conflictFromConstraint turns an exclusion violation into a ConflictError
func conflictFromConstraint(err error, w calendar.Window) error {
	kind := KindClassroom
	if pkgerrors.ConstraintName(err) == "lecturer_allocations_no_overlap" {
		kind = KindLecturer
	}
	return &ConflictError{Kind: kind, Window: w}
}

func isDomainError(err error) bool {
	for _, target := range []error{
		calendar.ErrMisalignedTime, calendar.ErrInvalidRange, calendar.ErrOutOfRange,
		ErrIncompleteWindow, ErrNoClassrooms, ErrInvalidQuantity, ErrDuplicateResource,
		ErrUnknownBatch, ErrUnknownModule, ErrUnknownLecturer, ErrUnknownClassroom,
		ErrUnknownEquipment, ErrLecturerNotQualified, ErrLectureNotFound,
		ErrResourceConflict, ErrSchedulingFailed,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func toLectureResponse(l *model.Lecture) *dto.LectureResponse {
	w := l.Window()
	resp := &dto.LectureResponse{
		ID:            l.LectureID,
		BatchID:       l.BatchID,
		ModuleID:      l.ModuleID,
		Title:         l.Title,
		ScheduledFrom: l.ScheduledFrom.UTC().Format(timeLayout),
		ScheduledTo:   l.ScheduledTo.UTC().Format(timeLayout),
		Date:          w.Date.Format("2006-01-02"),
		FromTimeSlot:  int(w.From),
		ToTimeSlot:    int(w.To),
		Classrooms:    []dto.ClassroomBrief{},
		Equipment:     []dto.EquipmentAllocationBrief{},
		Version:       l.Version,
		CreatedAt:     l.CreatedAt.UTC().Format(timeLayout),
		UpdatedAt:     l.UpdatedAt.UTC().Format(timeLayout),
	}
	if l.Batch != nil {
		resp.Batch = &dto.BatchBrief{ID: l.Batch.BatchID, Name: l.Batch.Name, StudentCount: l.Batch.StudentCount}
	}
	if l.Module != nil {
		resp.Module = &dto.ModuleBrief{ID: l.Module.ModuleID, Name: l.Module.Name, Code: l.Module.Code}
	}
	if a := l.LecturerAllocation; a != nil {
		resp.Lecturer = &dto.LecturerBrief{ID: a.LecturerID}
		if a.Lecturer != nil {
			resp.Lecturer.Name = a.Lecturer.Name
		}
	}
	for _, a := range l.ClassroomAllocations {
		brief := dto.ClassroomBrief{ID: a.ClassroomID}
		if a.Classroom != nil {
			brief.Name = a.Classroom.Name
			brief.Capacity = a.Classroom.Capacity
		}
		resp.Classrooms = append(resp.Classrooms, brief)
	}
	for _, a := range l.EquipmentAllocations {
		brief := dto.EquipmentAllocationBrief{ID: a.EquipmentID, ReservedQuantity: a.ReservedQuantity}
		if a.Equipment != nil {
			brief.Name = a.Equipment.Name
		}
		resp.Equipment = append(resp.Equipment, brief)
	}
	return resp
}
