package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"campus-lms/backend/config"
	"campus-lms/backend/internal/api/handler"
	"campus-lms/backend/internal/api/middleware"
)

// Setup builds the gin engine. limiter may be nil, which disables rate
// limiting.
func Setup(cfg *config.Config, h *handler.Handler, limiter middleware.Limiter, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── global middleware ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Tracing(cfg.Tracing.ServiceName))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// ── health ──
	r.GET("/health", h.Health.Check)

	writeLimit := middleware.RateLimit(limiter, cfg.RateLimit.Requests, cfg.RateLimit.Window)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", h.Health.Check)

		// availability lookup (advisory, read only)
		v1.GET("/availability", h.Availability.ListAvailable)

		// lectures
		lectures := v1.Group("/lectures")
		{
			lectures.GET("", h.Lecture.List)
			lectures.GET("/:id", h.Lecture.Get)
			lectures.POST("", writeLimit, h.Lecture.Create)
			lectures.PUT("/:id", writeLimit, h.Lecture.Update)
			lectures.DELETE("/:id", writeLimit, h.Lecture.Delete)
		}

		// exports
		export := v1.Group("/export")
		{
			export.GET("/lectures", h.Export.ExportLectures)
			export.GET("/lectures.ics", h.Export.ExportCalendar)
		}
	}

	return r
}
