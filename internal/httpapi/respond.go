package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"classtrack/internal/attendance"
	"classtrack/internal/metrics"
)

// fail maps domain errors to HTTP responses.
func fail(c *gin.Context, err error) {
	var notEligible *attendance.NotEligibleError
	switch {
	case errors.As(err, &notEligible):
		reason := string(notEligible.Phase)
		if notEligible.WrongDay {
			reason = "wrong_day"
		}
		metrics.MarkRejections.WithLabelValues(reason).Inc()
		c.JSON(http.StatusConflict, gin.H{"error": notEligible.Error(), "reason": reason})
	case errors.Is(err, attendance.ErrUnauthorized):
		metrics.MarkRejections.WithLabelValues("unauthorized").Inc()
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, attendance.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, attendance.ErrInvalidEntry):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

// dateParam parses a YYYY-MM-DD query parameter, defaulting to today.
func dateParam(c *gin.Context, name string) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), true
	}
	d, err := time.Parse("2006-01-02", raw)
	if err != nil {
		badRequest(c, "invalid "+name+": want YYYY-MM-DD")
		return time.Time{}, false
	}
	return d, true
}

// requiredDateParam is dateParam without the today default.
func requiredDateParam(c *gin.Context, name string) (time.Time, bool) {
	if c.Query(name) == "" {
		badRequest(c, "missing "+name)
		return time.Time{}, false
	}
	return dateParam(c, name)
}
