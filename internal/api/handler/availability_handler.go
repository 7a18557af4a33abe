package handler

import (
	"github.com/gin-gonic/gin"

	"campus-lms/backend/internal/dto"
	"campus-lms/backend/internal/service"
	"campus-lms/backend/pkg/response"
)

// AvailabilityHandler free-resource lookup
type AvailabilityHandler struct {
	availabilitySvc service.AvailabilityService
}

// NewAvailabilityHandler creates an AvailabilityHandler
func NewAvailabilityHandler(availabilitySvc service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{availabilitySvc: availabilitySvc}
}

// ListAvailable lecturers, classrooms and equipment free for a window
// GET /api/v1/availability?batch_id=&module_id=&from=&to=
func (h *AvailabilityHandler) ListAvailable(c *gin.Context) {
	var req dto.AvailabilityRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.availabilitySvc.ListAvailable(c.Request.Context(), &req)
	if err != nil {
		handleLectureError(c, err)
		return
	}

	response.OK(c, result)
}
