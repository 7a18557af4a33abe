package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"campus-lms/backend/internal/calendar"
	"campus-lms/backend/internal/model"
	"campus-lms/backend/internal/repository"
)

// ── export errors ──

var (
	ErrExportNoLectures   = errors.New("batch has no upcoming lectures")
	ErrExportGenerateFail = errors.New("failed to generate the spreadsheet")
)

// ExportService spreadsheet exports
type ExportService interface {
	// ExportBatchTimetable upcoming lectures of a batch as .xlsx
	ExportBatchTimetable(ctx context.Context, batchID string) (*bytes.Buffer, string, error)
	// ExportBatchCalendar upcoming lectures of a batch as an iCalendar feed
	ExportBatchCalendar(ctx context.Context, batchID string) ([]byte, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService creates an ExportService
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger, now: time.Now}
}

// ═══════════════════════════════════════════════════════════
// ExportBatchTimetable
// ═══════════════════════════════════════════════════════════
//
// One sheet, one row per lecture in start order:
//   | Date | From | To | Module | Title | Lecturer | Classrooms | Equipment | Clashes |
// "Clashes" lists other lectures of the same batch whose window overlaps.

var timetableHeader = []string{"Date", "From", "To", "Module", "Title", "Lecturer", "Classrooms", "Equipment", "Clashes"}

func (s *exportService) ExportBatchTimetable(ctx context.Context, batchID string) (*bytes.Buffer, string, error) {
	batch, lectures, err := s.upcoming(ctx, batchID)
	if err != nil {
		return nil, "", err
	}

	windows := make([]calendar.Window, len(lectures))
	for i := range lectures {
		windows[i] = lectures[i].Window()
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Timetable"
	idx, _ := f.NewSheet(sheet)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	widths := []float64{12, 8, 8, 22, 28, 20, 26, 26, 30}
	for i, width := range widths {
		col := colName(i)
		f.SetColWidth(sheet, col, col, width)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// title row
	f.SetCellValue(sheet, "A1", fmt.Sprintf("%s timetable", batch.Name))
	f.MergeCell(sheet, "A1", cell(colName(len(timetableHeader)-1), 1))
	f.SetCellStyle(sheet, "A1", "A1", headerStyle)

	// header row
	for i, h := range timetableHeader {
		f.SetCellValue(sheet, cell(colName(i), 2), h)
	}
	f.SetCellStyle(sheet, "A2", cell(colName(len(timetableHeader)-1), 2), headerStyle)

	row := 3
	for i := range lectures {
		lec := &lectures[i]
		w := windows[i]

		var clashes []string
		for j := range lectures {
			if j != i && calendar.Overlaps(w, windows[j]) {
				clashes = append(clashes, lectures[j].Title)
			}
		}

		values := []interface{}{
			w.Date.Format("2006-01-02"),
			w.From.Clock(),
			w.To.Clock(),
			moduleLabel(lec),
			lec.Title,
			lecturerLabel(lec),
			classroomLabel(lec),
			equipmentLabel(lec),
			strings.Join(clashes, ", "),
		}
		for col, v := range values {
			f.SetCellValue(sheet, cell(colName(col), row), v)
		}
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("write spreadsheet failed", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	return buf, fmt.Sprintf("timetable_%s.xlsx", fileSafe(batch.Name)), nil
}

// ═══════════════════════════════════════════════════════════
// ExportBatchCalendar
// ═══════════════════════════════════════════════════════════
//
// One VEVENT per lecture. The UID derives from the lecture id and stays
// stable across reschedules.

func (s *exportService) ExportBatchCalendar(ctx context.Context, batchID string) ([]byte, string, error) {
	batch, lectures, err := s.upcoming(ctx, batchID)
	if err != nil {
		return nil, "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//campus-lms//lecture timetable//EN")
	cal.SetName(fmt.Sprintf("%s timetable", batch.Name))

	stamp := s.now().UTC()
	for i := range lectures {
		lec := &lectures[i]
		evt := cal.AddEvent(lec.LectureID + "@campus-lms")
		evt.SetDtStampTime(stamp)
		evt.SetStartAt(lec.ScheduledFrom.UTC())
		evt.SetEndAt(lec.ScheduledTo.UTC())
		evt.SetSummary(fmt.Sprintf("%s: %s", moduleLabel(lec), lec.Title))
		if rooms := classroomLabel(lec); rooms != "" {
			evt.SetLocation(rooms)
		}
		desc := []string{"Lecturer: " + lecturerLabel(lec)}
		if eq := equipmentLabel(lec); eq != "" {
			desc = append(desc, "Equipment: "+eq)
		}
		evt.SetDescription(strings.Join(desc, "\n"))
	}

	return []byte(cal.Serialize()), fmt.Sprintf("timetable_%s.ics", fileSafe(batch.Name)), nil
}

// upcoming loads the batch and its lectures that have not ended yet, in start order
func (s *exportService) upcoming(ctx context.Context, batchID string) (*model.Batch, []model.Lecture, error) {
	batch, err := s.repo.Batch.GetByID(ctx, batchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrUnknownBatch
		}
		s.logger.Error("get batch failed", zap.String("batch_id", batchID), zap.Error(err))
		return nil, nil, err
	}

	lectures, _, err := s.repo.Lecture.List(ctx, repository.LectureFilter{
		BatchID:   batchID,
		EndsAfter: s.now().UTC(),
	}, 0, 0)
	if err != nil {
		s.logger.Error("list lectures failed", zap.String("batch_id", batchID), zap.Error(err))
		return nil, nil, err
	}
	if len(lectures) == 0 {
		return nil, nil, ErrExportNoLectures
	}
	return batch, lectures, nil
}

// ── helpers ──

func moduleLabel(l *model.Lecture) string {
	if l.Module == nil {
		return l.ModuleID
	}
	if l.Module.Code != "" {
		return l.Module.Code + " " + l.Module.Name
	}
	return l.Module.Name
}

func lecturerLabel(l *model.Lecture) string {
	a := l.LecturerAllocation
	if a == nil {
		return ""
	}
	if a.Lecturer != nil {
		return a.Lecturer.Name
	}
	return a.LecturerID
}

func classroomLabel(l *model.Lecture) string {
	names := make([]string, 0, len(l.ClassroomAllocations))
	for _, a := range l.ClassroomAllocations {
		if a.Classroom != nil {
			names = append(names, a.Classroom.Name)
		} else {
			names = append(names, a.ClassroomID)
		}
	}
	return strings.Join(names, ", ")
}

func equipmentLabel(l *model.Lecture) string {
	parts := make([]string, 0, len(l.EquipmentAllocations))
	for _, a := range l.EquipmentAllocations {
		name := a.EquipmentID
		if a.Equipment != nil {
			name = a.Equipment.Name
		}
		parts = append(parts, fmt.Sprintf("%s x%d", name, a.ReservedQuantity))
	}
	return strings.Join(parts, ", ")
}

func fileSafe(name string) string {
	return strings.ReplaceAll(name, " ", "_")
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
