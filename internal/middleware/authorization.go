package middleware

import (
	"net/http"

	"questcycle/pkg/auth"
	"questcycle/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Authorization struct {
	cronSecret string
}

func NewAuthorization(cronSecret string) *Authorization {
	return &Authorization{
		cronSecret: cronSecret,
	}
}

// CronOnly admits requests carrying the configured cron secret as a bearer
// token. With no secret configured every request is refused.
func (a *Authorization) CronOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.Logger()

		if a.cronSecret == "" {
			log.Warn("cron secret is not configured, rejecting job trigger")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "job triggers are disabled"})
			return
		}

		token, err := auth.BearerToken(c.GetHeader("Authorization"))
		if err != nil {
			log.Info("rejected job trigger", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		if !auth.SecretMatches(a.cronSecret, token) {
			log.Info("rejected job trigger with invalid secret", zap.String("client_ip", c.ClientIP()))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Set("cron_trigger", true)
		c.Next()
	}
}
