package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"AUTOFILL/internal/catalog"
	"AUTOFILL/internal/formstate"
	"AUTOFILL/internal/services"
	"AUTOFILL/internal/storage"

	"github.com/gin-gonic/gin"
)

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrSessionNotFound),
		errors.Is(err, services.ErrDocumentMissing),
		errors.Is(err, services.ErrTemplateNotFound),
		errors.Is(err, catalog.ErrFormatNotFound),
		errors.Is(err, formstate.ErrNotFound),
		errors.Is(err, storage.ErrObjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, formstate.ErrDuplicateID):
		return http.StatusConflict
	case errors.Is(err, formstate.ErrNoForm),
		errors.Is(err, services.ErrNotReady):
		return http.StatusConflict
	case errors.Is(err, formstate.ErrInvalidIndex),
		errors.Is(err, formstate.ErrStepOutOfRange),
		errors.Is(err, services.ErrNotPNG):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrRosterReadOnly):
		return http.StatusMethodNotAllowed
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

// pagination reads page and limit query parameters. limit is capped at max.
func pagination(c *gin.Context, defaultLimit, max int) (page, limit, offset int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	if limit > max {
		limit = max
	}
	page, err = strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page <= 0 {
		page = 1
	}
	return page, limit, (page - 1) * limit
}

func totalPages(total int64, limit int) int {
	return int((total + int64(limit) - 1) / int64(limit))
}
