package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"campus-lms/backend/internal/calendar"
	"campus-lms/backend/internal/dto"
	"campus-lms/backend/internal/service"
	"campus-lms/backend/pkg/response"
)

// LectureHandler lecture scheduling endpoints
type LectureHandler struct {
	lectureSvc service.LectureService
}

// NewLectureHandler creates a LectureHandler
func NewLectureHandler(lectureSvc service.LectureService) *LectureHandler {
	return &LectureHandler{lectureSvc: lectureSvc}
}

// Create schedule a lecture
// POST /api/v1/lectures
func (h *LectureHandler) Create(c *gin.Context) {
	var req dto.CreateLectureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	lecture, err := h.lectureSvc.Create(c.Request.Context(), &req)
	if err != nil {
		handleLectureError(c, err)
		return
	}

	response.Created(c, lecture)
}

// Get lecture detail
// GET /api/v1/lectures/:id
func (h *LectureHandler) Get(c *gin.Context) {
	lecture, err := h.lectureSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleLectureError(c, err)
		return
	}

	response.OK(c, lecture)
}

// List upcoming lectures
// GET /api/v1/lectures
func (h *LectureHandler) List(c *gin.Context) {
	var req dto.LectureListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	list, total, err := h.lectureSvc.List(c.Request.Context(), &req)
	if err != nil {
		handleLectureError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// Update reschedule or edit a lecture
// PUT /api/v1/lectures/:id
func (h *LectureHandler) Update(c *gin.Context) {
	var req dto.UpdateLectureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	lecture, err := h.lectureSvc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		handleLectureError(c, err)
		return
	}

	response.OK(c, lecture)
}

// Delete remove a lecture and release its resources
// DELETE /api/v1/lectures/:id
func (h *LectureHandler) Delete(c *gin.Context) {
	if err := h.lectureSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		handleLectureError(c, err)
		return
	}

	response.NoContent(c)
}

// ConflictDetails body details of a 409
type ConflictDetails struct {
	Kind         string `json:"kind"`
	ResourceID   string `json:"resource_id,omitempty"`
	Date         string `json:"date"`
	FromTimeSlot int    `json:"from_time_slot"`
	ToTimeSlot   int    `json:"to_time_slot"`
	Requested    int    `json:"requested,omitempty"`
	Available    *int   `json:"available,omitempty"`
}

// handleLectureError maps scheduling errors onto HTTP answers. Shared by the
// availability handler, which raises a subset of the same errors.
func handleLectureError(c *gin.Context, err error) {
	var conflict *service.ConflictError

	switch {
	// ── validation ──
	case errors.Is(err, calendar.ErrMisalignedTime):
		response.BadRequest(c, 20001, err.Error())
	case errors.Is(err, calendar.ErrInvalidRange):
		response.BadRequest(c, 20002, err.Error())
	case errors.Is(err, calendar.ErrOutOfRange):
		response.BadRequest(c, 20003, err.Error())
	case errors.Is(err, service.ErrIncompleteWindow):
		response.BadRequest(c, 20004, err.Error())
	case errors.Is(err, service.ErrNoClassrooms):
		response.BadRequest(c, 20005, err.Error())
	case errors.Is(err, service.ErrInvalidQuantity):
		response.BadRequest(c, 20006, err.Error())
	case errors.Is(err, service.ErrDuplicateResource):
		response.BadRequest(c, 20007, err.Error())

	// ── references ──
	case errors.Is(err, service.ErrUnknownBatch):
		response.NotFound(c, 21001, err.Error())
	case errors.Is(err, service.ErrUnknownModule):
		response.NotFound(c, 21002, err.Error())
	case errors.Is(err, service.ErrUnknownLecturer):
		response.NotFound(c, 21003, err.Error())
	case errors.Is(err, service.ErrUnknownClassroom):
		response.NotFound(c, 21004, err.Error())
	case errors.Is(err, service.ErrUnknownEquipment):
		response.NotFound(c, 21005, err.Error())
	case errors.Is(err, service.ErrLecturerNotQualified):
		response.UnprocessableEntity(c, 21006, err.Error())
	case errors.Is(err, service.ErrLectureNotFound):
		response.NotFound(c, 21007, err.Error())

	// ── concurrency ──
	case errors.As(err, &conflict):
		details := ConflictDetails{
			Kind:         string(conflict.Kind),
			ResourceID:   conflict.ResourceID,
			Date:         conflict.Window.Date.Format("2006-01-02"),
			FromTimeSlot: int(conflict.Window.From),
			ToTimeSlot:   int(conflict.Window.To),
		}
		if conflict.Kind == service.KindEquipment {
			available := conflict.Available
			details.Requested = conflict.Requested
			details.Available = &available
		}
		response.Conflict(c, 22001, conflict.Error(), details)
	case errors.Is(err, service.ErrSchedulingFailed):
		response.ServiceUnavailable(c, 22002, err.Error())

	default:
		response.InternalError(c)
	}
}
