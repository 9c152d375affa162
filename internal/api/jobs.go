package api

import (
	"net/http"

	"questcycle/internal/middleware"
	"questcycle/internal/model"
	"questcycle/internal/service"
	"questcycle/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type jobRoutes struct {
	js service.JobServiceI
}

func NewJobRoutes(handler *gin.RouterGroup, js service.JobServiceI, authz *middleware.Authorization) {
	r := &jobRoutes{js: js}
	h := handler.Group("/jobs")
	h.Use(authz.CronOnly())
	{
		h.POST("/"+service.JobRecurringQuests, r.RunAll)
		h.POST("/"+service.JobGenerate, r.RunGeneration)
		h.POST("/"+service.JobExpire, r.RunExpiration)
	}
}

func (r *jobRoutes) RunAll(c *gin.Context) {
	r.respond(c, service.JobRecurringQuests, r.js.RunAll(c.Request.Context()))
}

func (r *jobRoutes) RunGeneration(c *gin.Context) {
	r.respond(c, service.JobGenerate, r.js.RunGeneration(c.Request.Context()))
}

func (r *jobRoutes) RunExpiration(c *gin.Context) {
	r.respond(c, service.JobExpire, r.js.RunExpiration(c.Request.Context()))
}

func (r *jobRoutes) respond(c *gin.Context, job string, report *model.JobReport) {
	status := reportStatus(report)
	if status != http.StatusOK {
		logger.Logger().Warn("triggered job did not succeed",
			zap.String("job", job),
			zap.Int("status", status),
			zap.Int("errors", report.ErrorCount()),
		)
	}
	c.JSON(status, report)
}

// reportStatus maps a finished run to 200, 207 when some items failed and
// 500 when a fatal step stopped the run.
func reportStatus(report *model.JobReport) int {
	switch {
	case report.Aborted():
		return http.StatusInternalServerError
	case !report.Success || report.ErrorCount() > 0:
		return http.StatusMultiStatus
	default:
		return http.StatusOK
	}
}
