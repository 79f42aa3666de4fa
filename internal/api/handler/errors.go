package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/timmy/applytrack/internal/api/middleware"
	"github.com/timmy/applytrack/internal/domain"
	"github.com/timmy/applytrack/internal/logger"
	"github.com/timmy/applytrack/internal/source"
)

// respondError maps domain errors to HTTP status codes. Storage failures are
// logged with the request logger and reported without driver detail.
func respondError(c *gin.Context, err error) {
	var verr *domain.ValidationError
	var nf *domain.NotFoundError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
			"field": verr.Field,
		})
	case errors.As(err, &nf):
		c.JSON(http.StatusNotFound, gin.H{
			"error": err.Error(),
		})
	default:
		middleware.GetLogger(c).WithError(err).Error("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":      "internal error",
			"request_id": logger.GetRequestID(c.Request.Context()),
		})
	}
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error": message,
	})
}

// paramID parses the :id path parameter, writing a 400 on failure.
func paramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid application id")
		return 0, false
	}
	return id, true
}

// queryLimit reads ?limit=, falling back to def when absent or malformed.
func queryLimit(c *gin.Context, def int) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(def)))
	if err != nil || limit <= 0 {
		return def
	}
	return limit
}

// parseDateField accepts the same date encodings as the sheet importer.
func parseDateField(v any) (*time.Time, error) {
	if v == nil {
		return nil, nil
	}
	t, ok := source.ParseDate(v)
	if !ok {
		return nil, &domain.ValidationError{Field: "date_applied", Reason: "unrecognized date"}
	}
	return &t, nil
}
