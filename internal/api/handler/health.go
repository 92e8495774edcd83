package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/timmy/ticketpulse/internal/clock"
)

// PingFunc checks a backing dependency.
type PingFunc func(ctx context.Context) error

// HealthHandler handles health check endpoints
type HealthHandler struct {
	ping  PingFunc
	clock clock.Clock
}

// NewHealthHandler creates a new health handler. ping may be nil.
func NewHealthHandler(ping PingFunc, clk clock.Clock) *HealthHandler {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &HealthHandler{ping: ping, clock: clk}
}

// Health returns the health status of the service
func (h *HealthHandler) Health(c *gin.Context) {
	now := h.clock.Now().UTC().Format(time.RFC3339Nano)
	if h.ping != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unavailable",
				"error":     err.Error(),
				"timestamp": now,
			})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": now,
	})
}
