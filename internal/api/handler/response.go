package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/timmy/ticketpulse/internal/domain"
	"github.com/timmy/ticketpulse/internal/logger"
)

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// respondFailure maps a service error onto a status code. Unknown errors are
// logged and reported with the generic message.
func respondFailure(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, domain.ErrEventNotFound), errors.Is(err, domain.ErrNoSnapshots):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidGroupSize), errors.Is(err, domain.ErrInvalidDateRange):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrRunInProgress):
		respondError(c, http.StatusConflict, err.Error())
	default:
		logger.FromContext(c.Request.Context()).WithError(err).Error(message)
		respondError(c, http.StatusInternalServerError, message)
	}
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseDate accepts an RFC 3339 timestamp, a zone-less timestamp (UTC) or a
// plain date (UTC midnight).
func parseDate(value string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
