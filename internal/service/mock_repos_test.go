package service

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"campus-lms/backend/internal/calendar"
	"campus-lms/backend/internal/model"
	"campus-lms/backend/internal/repository"
	pkgerrors "campus-lms/backend/pkg/errors"
)

// ── in-memory store shared by every mock repository ──

type memStore struct {
	mu sync.Mutex

	batches    map[string]model.Batch
	modules    map[string]model.Module
	lecturers  map[string]model.Lecturer
	classrooms map[string]model.Classroom
	equipment  map[string]model.Equipment
	lectures   map[string]model.Lecture

	lecturerAllocs  []model.LecturerAllocation
	classroomAllocs []model.ClassroomAllocation
	equipmentAllocs []model.EquipmentAllocation

	// lectureInsertErr is returned once by the next lecture insert
	lectureInsertErr error
}

func newMemStore() *memStore {
	return &memStore{
		batches:    make(map[string]model.Batch),
		modules:    make(map[string]model.Module),
		lecturers:  make(map[string]model.Lecturer),
		classrooms: make(map[string]model.Classroom),
		equipment:  make(map[string]model.Equipment),
		lectures:   make(map[string]model.Lecture),
	}
}

// snapshot deep-copies the mutable tables; caller holds mu
func (s *memStore) snapshot() *memStore {
	c := newMemStore()
	for k, v := range s.lectures {
		c.lectures[k] = v
	}
	c.lecturerAllocs = append(c.lecturerAllocs, s.lecturerAllocs...)
	c.classroomAllocs = append(c.classroomAllocs, s.classroomAllocs...)
	c.equipmentAllocs = append(c.equipmentAllocs, s.equipmentAllocs...)
	return c
}

// restore rolls the mutable tables back; caller holds mu
func (s *memStore) restore(c *memStore) {
	s.lectures = c.lectures
	s.lecturerAllocs = c.lecturerAllocs
	s.classroomAllocs = c.classroomAllocs
	s.equipmentAllocs = c.equipmentAllocs
}

// ── Mock TxManager ──

// mockTxManager serialises transactions and rolls the store back when fn
// fails. Errors queued in failures are returned, one per call, before fn runs.
type mockTxManager struct {
	txMu     sync.Mutex
	store    *memStore
	repo     *repository.Repository
	failures []error
	calls    int
}

func (m *mockTxManager) WithinTx(_ context.Context, fn func(txRepo *repository.Repository) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.calls++
	if len(m.failures) > 0 {
		err := m.failures[0]
		m.failures = m.failures[1:]
		return err
	}

	m.store.mu.Lock()
	snap := m.store.snapshot()
	m.store.mu.Unlock()

	if err := fn(m.repo); err != nil {
		m.store.mu.Lock()
		m.store.restore(snap)
		m.store.mu.Unlock()
		return err
	}
	return nil
}

// newMockRepository builds a Repository backed by store plus its TxManager
func newMockRepository(store *memStore) (*repository.Repository, *mockTxManager) {
	repo := &repository.Repository{
		Batch:      &mockBatchRepo{store},
		Module:     &mockModuleRepo{store},
		Lecturer:   &mockLecturerRepo{store},
		Classroom:  &mockClassroomRepo{store},
		Equipment:  &mockEquipmentRepo{store},
		Lecture:    &mockLectureRepo{store},
		Allocation: &mockAllocationRepo{store},
	}
	return repo, &mockTxManager{store: store, repo: repo}
}

// ── Mock inventory repositories ──

type mockBatchRepo struct{ s *memStore }

func (m *mockBatchRepo) GetByID(_ context.Context, id string) (*model.Batch, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if b, ok := m.s.batches[id]; ok {
		return &b, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type mockModuleRepo struct{ s *memStore }

func (m *mockModuleRepo) GetByID(_ context.Context, id string) (*model.Module, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if mod, ok := m.s.modules[id]; ok {
		mod.Lecturers = append([]model.Lecturer(nil), mod.Lecturers...)
		return &mod, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type mockLecturerRepo struct{ s *memStore }

func (m *mockLecturerRepo) LockByIDs(_ context.Context, ids []string) ([]model.Lecturer, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.Lecturer
	for _, id := range ids {
		if l, ok := m.s.lecturers[id]; ok {
			out = append(out, l)
		}
	}
	return out, nil
}

type mockClassroomRepo struct{ s *memStore }

func (m *mockClassroomRepo) ListActive(_ context.Context, minCapacity int) ([]model.Classroom, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.Classroom
	for _, c := range m.s.classrooms {
		if c.IsActive && c.Capacity >= minCapacity {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClassroomID < out[j].ClassroomID })
	return out, nil
}

func (m *mockClassroomRepo) LockByIDs(_ context.Context, ids []string) ([]model.Classroom, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.Classroom
	for _, id := range ids {
		if c, ok := m.s.classrooms[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

type mockEquipmentRepo struct{ s *memStore }

func (m *mockEquipmentRepo) List(_ context.Context) ([]model.Equipment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.Equipment
	for _, e := range m.s.equipment {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EquipmentID < out[j].EquipmentID })
	return out, nil
}

func (m *mockEquipmentRepo) LockByIDs(_ context.Context, ids []string) ([]model.Equipment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.Equipment
	for _, id := range ids {
		if e, ok := m.s.equipment[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

// ── Mock AllocationRepository ──

type mockAllocationRepo struct{ s *memStore }

func matches(f repository.AllocationFilter, w calendar.Window, lectureID, resourceID string) bool {
	if !w.Date.Equal(calendar.DateOf(f.Date)) {
		return false
	}
	if f.ExcludeLectureID != "" && lectureID == f.ExcludeLectureID {
		return false
	}
	if len(f.ResourceIDs) == 0 {
		return true
	}
	for _, id := range f.ResourceIDs {
		if id == resourceID {
			return true
		}
	}
	return false
}

func (m *mockAllocationRepo) ListLecturerAllocations(_ context.Context, f repository.AllocationFilter) ([]model.LecturerAllocation, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.LecturerAllocation
	for _, a := range m.s.lecturerAllocs {
		if matches(f, a.Window(), a.LectureID, a.LecturerID) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockAllocationRepo) ListClassroomAllocations(_ context.Context, f repository.AllocationFilter) ([]model.ClassroomAllocation, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.ClassroomAllocation
	for _, a := range m.s.classroomAllocs {
		if matches(f, a.Window(), a.LectureID, a.ClassroomID) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockAllocationRepo) ListEquipmentAllocations(_ context.Context, f repository.AllocationFilter) ([]model.EquipmentAllocation, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.EquipmentAllocation
	for _, a := range m.s.equipmentAllocs {
		if matches(f, a.Window(), a.LectureID, a.EquipmentID) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockAllocationRepo) CreateLecturerAllocation(_ context.Context, alloc *model.LecturerAllocation) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	alloc.AllocationID = uuid.NewString()
	m.s.lecturerAllocs = append(m.s.lecturerAllocs, *alloc)
	return nil
}

func (m *mockAllocationRepo) CreateClassroomAllocations(_ context.Context, allocs []model.ClassroomAllocation) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, a := range allocs {
		a.AllocationID = uuid.NewString()
		m.s.classroomAllocs = append(m.s.classroomAllocs, a)
	}
	return nil
}

func (m *mockAllocationRepo) CreateEquipmentAllocations(_ context.Context, allocs []model.EquipmentAllocation) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, a := range allocs {
		a.AllocationID = uuid.NewString()
		m.s.equipmentAllocs = append(m.s.equipmentAllocs, a)
	}
	return nil
}

func (m *mockAllocationRepo) DeleteLecturerAllocation(_ context.Context, lectureID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	kept := m.s.lecturerAllocs[:0:0]
	for _, a := range m.s.lecturerAllocs {
		if a.LectureID != lectureID {
			kept = append(kept, a)
		}
	}
	m.s.lecturerAllocs = kept
	return nil
}

func (m *mockAllocationRepo) DeleteClassroomAllocations(_ context.Context, lectureID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	kept := m.s.classroomAllocs[:0:0]
	for _, a := range m.s.classroomAllocs {
		if a.LectureID != lectureID {
			kept = append(kept, a)
		}
	}
	m.s.classroomAllocs = kept
	return nil
}

func (m *mockAllocationRepo) DeleteEquipmentAllocations(_ context.Context, lectureID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	kept := m.s.equipmentAllocs[:0:0]
	for _, a := range m.s.equipmentAllocs {
		if a.LectureID != lectureID {
			kept = append(kept, a)
		}
	}
	m.s.equipmentAllocs = kept
	return nil
}

func (m *mockAllocationRepo) MoveWindow(_ context.Context, lectureID string, w model.SlotWindow) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for i := range m.s.lecturerAllocs {
		if m.s.lecturerAllocs[i].LectureID == lectureID {
			m.s.lecturerAllocs[i].SlotWindow = w
		}
	}
	for i := range m.s.classroomAllocs {
		if m.s.classroomAllocs[i].LectureID == lectureID {
			m.s.classroomAllocs[i].SlotWindow = w
		}
	}
	for i := range m.s.equipmentAllocs {
		if m.s.equipmentAllocs[i].LectureID == lectureID {
			m.s.equipmentAllocs[i].SlotWindow = w
		}
	}
	return nil
}

// ── Mock LectureRepository ──

type mockLectureRepo struct{ s *memStore }

func (m *mockLectureRepo) Create(_ context.Context, lecture *model.Lecture) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.lectureInsertErr; err != nil {
		m.s.lectureInsertErr = nil
		return err
	}
	if lecture.LectureID == "" {
		lecture.LectureID = uuid.NewString()
	}
	lecture.Version = 1
	m.s.lectures[lecture.LectureID] = *lecture
	return nil
}

// hydrate attaches allocations and inventory rows; caller holds mu
func (m *mockLectureRepo) hydrate(l model.Lecture, withRefs bool) *model.Lecture {
	out := l
	out.LecturerAllocation = nil
	out.ClassroomAllocations = nil
	out.EquipmentAllocations = nil

	if withRefs {
		if b, ok := m.s.batches[l.BatchID]; ok {
			out.Batch = &b
		}
		if mod, ok := m.s.modules[l.ModuleID]; ok {
			out.Module = &mod
		}
	}
	for _, a := range m.s.lecturerAllocs {
		if a.LectureID == l.LectureID {
			a := a
			if lec, ok := m.s.lecturers[a.LecturerID]; ok && withRefs {
				a.Lecturer = &lec
			}
			out.LecturerAllocation = &a
		}
	}
	for _, a := range m.s.classroomAllocs {
		if a.LectureID == l.LectureID {
			if c, ok := m.s.classrooms[a.ClassroomID]; ok && withRefs {
				a.Classroom = &c
			}
			out.ClassroomAllocations = append(out.ClassroomAllocations, a)
		}
	}
	for _, a := range m.s.equipmentAllocs {
		if a.LectureID == l.LectureID {
			if e, ok := m.s.equipment[a.EquipmentID]; ok && withRefs {
				a.Equipment = &e
			}
			out.EquipmentAllocations = append(out.EquipmentAllocations, a)
		}
	}
	return &out
}

func (m *mockLectureRepo) GetByID(_ context.Context, id string) (*model.Lecture, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	l, ok := m.s.lectures[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return m.hydrate(l, true), nil
}

func (m *mockLectureRepo) GetForUpdate(_ context.Context, id string) (*model.Lecture, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	l, ok := m.s.lectures[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return m.hydrate(l, false), nil
}

func (m *mockLectureRepo) List(_ context.Context, f repository.LectureFilter, offset, limit int) ([]model.Lecture, int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	var all []model.Lecture
	for _, l := range m.s.lectures {
		if f.BatchID != "" && l.BatchID != f.BatchID {
			continue
		}
		if f.ModuleID != "" && l.ModuleID != f.ModuleID {
			continue
		}
		if !f.EndsAfter.IsZero() && !l.ScheduledTo.After(f.EndsAfter) {
			continue
		}
		h := m.hydrate(l, true)
		if f.LecturerID != "" && (h.LecturerAllocation == nil || h.LecturerAllocation.LecturerID != f.LecturerID) {
			continue
		}
		all = append(all, *h)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].ScheduledFrom.Equal(all[j].ScheduledFrom) {
			return all[i].ScheduledFrom.Before(all[j].ScheduledFrom)
		}
		return all[i].LectureID < all[j].LectureID
	})

	total := int64(len(all))
	if limit <= 0 {
		return all, total, nil
	}
	if offset >= len(all) {
		return []model.Lecture{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockLectureRepo) Update(_ context.Context, lecture *model.Lecture) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	stored, ok := m.s.lectures[lecture.LectureID]
	if !ok || stored.Version != lecture.Version {
		return pkgerrors.ErrOptimisticLock
	}
	lecture.Version++
	stored.Title = lecture.Title
	stored.ScheduledFrom = lecture.ScheduledFrom
	stored.ScheduledTo = lecture.ScheduledTo
	stored.Version = lecture.Version
	m.s.lectures[lecture.LectureID] = stored
	return nil
}

func (m *mockLectureRepo) Delete(_ context.Context, id string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.lectures[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.s.lectures, id)
	return nil
}
