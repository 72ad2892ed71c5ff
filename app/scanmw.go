package app

import (
	"errors"
	"net/http"

	"Gin_postgres_redis_robe_tracker/session"

	"github.com/gin-gonic/gin"
)

const (
	ScanSessionHeader = "X-Scan-Session"
	scanSessionKey    = "scanSession"
)

// ScanSession 可选中间件：带了会话头就必须是仍然打开的会话，并放进 Context
func ScanSession(sessions session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(ScanSessionHeader)
		if id == "" {
			c.Next()
			return
		}
		ss, err := sessions.Get(c.Request.Context(), id)
		if errors.Is(err, session.ErrSessionNotFound) {
			c.AbortWithStatusJSON(http.StatusGone, H{"error": "scan session closed", "stopScan": true})
			return
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, H{"error": err.Error()})
			return
		}
		c.Set(scanSessionKey, ss)
		c.Next()
	}
}

func CurrentScanSession(c *gin.Context) (*session.ScanSession, bool) {
	v, ok := c.Get(scanSessionKey)
	if !ok {
		return nil, false
	}
	ss, ok := v.(*session.ScanSession)
	return ss, ok
}
