package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"campus-lms/backend/internal/service"
	"campus-lms/backend/pkg/response"
)

// Handler aggregate of all HTTP handlers
type Handler struct {
	Lecture      *LectureHandler
	Availability *AvailabilityHandler
	Export       *ExportHandler
	Health       *HealthHandler
}

// NewHandler creates the Handler aggregate. cache may be nil when Redis is
// not configured.
func NewHandler(svc *service.Service, db Pinger, cache Pinger) *Handler {
	return &Handler{
		Lecture:      NewLectureHandler(svc.Lecture),
		Availability: NewAvailabilityHandler(svc.Availability),
		Export:       NewExportHandler(svc.Export),
		Health:       NewHealthHandler(db, cache),
	}
}

// Pinger dependency that can report its reachability
type Pinger interface {
	Ping(ctx context.Context) error
}

// ── binding errors ──

// FieldError one failed binding rule
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// badRequest answers a failed ShouldBind* call. Validator failures are
// listed field by field; malformed bodies get the bare message.
func badRequest(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, FieldError{Field: jsonField(fe.Namespace()), Rule: fe.Tag()})
		}
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "invalid request parameters", details)
		return
	}
	response.BadRequest(c, 10001, "invalid request parameters")
}

// jsonField drops the struct name prefix: CreateLectureRequest.Equipment[0].Quantity → Equipment[0].Quantity
func jsonField(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
