package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"bucketwise/internal/extraction"
	"bucketwise/internal/service"
	"bucketwise/internal/store"
)

// respondError maps service and extraction errors onto HTTP statuses.
// Anything unrecognized is a 500 with a generic body; the detail only goes
// to the log.
func (s *Server) respondError(c *gin.Context, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message})
		return
	}

	var cerr *service.ConflictError
	if errors.As(err, &cerr) {
		c.JSON(http.StatusConflict, gin.H{"error": cerr.Message})
		return
	}

	var xerr *extraction.Error
	if errors.As(err, &xerr) {
		status := http.StatusBadRequest
		if xerr.Code == extraction.ErrModelUnavailable {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": xerr.Message, "code": string(xerr.Code)})
		return
	}

	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	s.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
