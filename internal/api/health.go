package api

import (
	"context"
	"net/http"
	"time"

	"questcycle/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const pingTimeout = 2 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

type healthRoutes struct {
	db Pinger
}

func NewHealthRoutes(handler *gin.RouterGroup, db Pinger) {
	r := &healthRoutes{db: db}
	handler.GET("/healthz", r.Health)
}

func (r *healthRoutes) Health(c *gin.Context) {
	if r.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
		defer cancel()

		if err := r.db.Ping(ctx); err != nil {
			logger.Logger().Error("database ping failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
