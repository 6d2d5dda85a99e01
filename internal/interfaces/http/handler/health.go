package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/setusher/PenthouseProtocol/internal/infrastructure/logger"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const healthPingTimeout = 2 * time.Second

// Pinger reports whether the database answers
type Pinger interface {
	Ping(ctx context.Context) error
}

// BreakerStater exposes the mirror node circuit breaker state
type BreakerStater interface {
	State() gobreaker.State
}

// HealthHandler reports process health. The database is required; an open
// mirror breaker reports the service as degraded.
type HealthHandler struct {
	db     Pinger
	mirror BreakerStater
}

// NewHealthHandler creates a new HealthHandler. mirror may be nil.
func NewHealthHandler(db Pinger, mirror BreakerStater) *HealthHandler {
	return &HealthHandler{db: db, mirror: mirror}
}

// Health godoc
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	body := gin.H{
		"status":   "healthy",
		"time":     time.Now().Format(time.RFC3339),
		"database": "ok",
	}

	if h.mirror != nil {
		state := h.mirror.State()
		body["ledger_mirror"] = state.String()
		if state == gobreaker.StateOpen {
			body["status"] = "degraded"
		}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthPingTimeout)
	defer cancel()
	if err := h.db.Ping(ctx); err != nil {
		logger.GetGinLogger(c).Warn("Health check failed", zap.Error(err))
		body["status"] = "unhealthy"
		body["database"] = "error"
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	c.JSON(http.StatusOK, body)
}
