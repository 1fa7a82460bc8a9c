package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"facility-booking-backend/internal/booking"
	"facility-booking-backend/internal/document"
	"facility-booking-backend/internal/store"
)

// Response is the envelope every API endpoint answers with.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func respondOK(c *gin.Context, status int, data any) {
	c.JSON(status, Response{Success: true, Data: data})
}

func respondError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, Response{Success: false, Error: msg})
}

// errorStatus maps domain errors to an HTTP status. Order matters: the first match wins.
var errorStatus = []struct {
	err    error
	status int
}{
	{booking.ErrInvalidAttendees, http.StatusBadRequest},
	{booking.ErrInvalidDateTime, http.StatusBadRequest},
	{booking.ErrEndBeforeStart, http.StatusBadRequest},
	{booking.ErrStartInPast, http.StatusBadRequest},
	{booking.ErrInvalidStatus, http.StatusBadRequest},
	{booking.ErrOverCapacity, http.StatusBadRequest},
	{booking.ErrConflict, http.StatusConflict},
	{booking.ErrInvalidTransition, http.StatusConflict},
	{booking.ErrFacilityUnavailable, http.StatusConflict},
	{booking.ErrNotFound, http.StatusNotFound},
	{booking.ErrFacilityNotFound, http.StatusNotFound},
	{booking.ErrDocumentUpload, http.StatusBadGateway},
}

// documentStatus tells client-side document rejections apart from intake failures.
var documentStatus = []struct {
	err    error
	status int
}{
	{document.ErrEmpty, http.StatusBadRequest},
	{document.ErrTooLarge, http.StatusRequestEntityTooLarge},
	{document.ErrUnsupportedType, http.StatusUnsupportedMediaType},
}

// writeError answers with the status and message of a known error, or a 500.
func (h *Handler) writeError(c *gin.Context, err error) {
	if errors.Is(err, booking.ErrDocumentUpload) {
		for _, e := range documentStatus {
			if errors.Is(err, e.err) {
				respondError(c, e.status, booking.ErrDocumentUpload.Error())
				return
			}
		}
	}
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			respondError(c, e.status, e.err.Error())
			return
		}
	}
	if errors.Is(err, store.ErrNotFound) {
		respondError(c, http.StatusNotFound, "not found")
		return
	}

	h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	respondError(c, http.StatusInternalServerError, "internal error")
}

// bindError answers a request whose body could not be bound.
func bindError(c *gin.Context, err error) {
	var validateErr validator.ValidationErrors
	if errors.As(err, &validateErr) {
		respondError(c, http.StatusBadRequest, validationMessage(validateErr))
		return
	}
	respondError(c, http.StatusBadRequest, "invalid request")
}

func validationMessage(errs validator.ValidationErrors) string {
	msgs := make([]string, 0, len(errs))
	for _, err := range errs {
		field := err.Field()
		switch err.ActualTag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("field %s is required", field))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("field %s must be one of [%s]", field, err.Param()))
		case "min", "gt":
			msgs = append(msgs, fmt.Sprintf("field %s is too small", field))
		case "max":
			msgs = append(msgs, fmt.Sprintf("field %s is too long", field))
		default:
			msgs = append(msgs, fmt.Sprintf("field %s is not valid", field))
		}
	}
	return strings.Join(msgs, ", ")
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
