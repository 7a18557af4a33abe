package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"campus-lms/backend/internal/service"
	"campus-lms/backend/pkg/response"
)

const (
	xlsxContentType     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	calendarContentType = "text/calendar; charset=utf-8"
)

// ExportHandler spreadsheet downloads
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler creates an ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportLectures timetable of a batch
// GET /api/v1/export/lectures?batch_id=xxx
func (h *ExportHandler) ExportLectures(c *gin.Context) {
	batchID := c.Query("batch_id")
	if batchID == "" {
		response.BadRequest(c, 10001, "batch_id is required")
		return
	}

	buf, filename, err := h.exportSvc.ExportBatchTimetable(c.Request.Context(), batchID)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	attachment(c, filename)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// ExportCalendar timetable of a batch as iCalendar
// GET /api/v1/export/lectures.ics?batch_id=xxx
func (h *ExportHandler) ExportCalendar(c *gin.Context) {
	batchID := c.Query("batch_id")
	if batchID == "" {
		response.BadRequest(c, 10001, "batch_id is required")
		return
	}

	data, filename, err := h.exportSvc.ExportBatchCalendar(c.Request.Context(), batchID)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	attachment(c, filename)
	c.Data(http.StatusOK, calendarContentType, data)
}

func attachment(c *gin.Context, filename string) {
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnknownBatch):
		response.NotFound(c, 21001, err.Error())
	case errors.Is(err, service.ErrExportNoLectures):
		response.NotFound(c, 23001, err.Error())
	default:
		response.InternalError(c)
	}
}
