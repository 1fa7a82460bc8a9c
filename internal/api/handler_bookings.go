package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"facility-booking-backend/internal/booking"
	"facility-booking-backend/internal/document"
	"facility-booking-backend/internal/export"
	"facility-booking-backend/internal/model"
	"facility-booking-backend/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// looseString accepts a JSON string or number. Form values bind as plain strings.
type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = looseString(v)
		return nil
	}
	if string(b) == "null" {
		*s = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*s = looseString(n.String())
	return nil
}

// createBookingRequest is the body of POST /api/bookings, as JSON or multipart form.
// Date, times and attendees are checked by the booking validator.
type createBookingRequest struct {
	FacilityID       string      `json:"facility_id" form:"facility_id" binding:"required"`
	UserID           string      `json:"user_id" form:"user_id" binding:"required"`
	EventName        string      `json:"event_name" form:"event_name" binding:"required,max=256"`
	EventDescription string      `json:"event_description" form:"event_description"`
	Date             string      `json:"date" form:"date"`
	StartTime        string      `json:"start_time" form:"start_time"`
	EndTime          string      `json:"end_time" form:"end_time"`
	Attendees        looseString `json:"attendees" form:"attendees"`
}

func (r createBookingRequest) toRequest() booking.Request {
	return booking.Request{
		FacilityID:       strings.TrimSpace(r.FacilityID),
		UserID:           strings.TrimSpace(r.UserID),
		EventName:        strings.TrimSpace(r.EventName),
		EventDescription: r.EventDescription,
		Date:             strings.TrimSpace(r.Date),
		StartTime:        strings.TrimSpace(r.StartTime),
		EndTime:          strings.TrimSpace(r.EndTime),
		Attendees:        string(r.Attendees),
	}
}

// CreateBooking handles POST /api/bookings.
func (h *Handler) CreateBooking(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBind(&req); err != nil {
		bindError(c, err)
		return
	}

	in := service.CreateBookingInput{Request: req.toRequest()}

	if c.ContentType() == gin.MIMEMultipartPOSTForm {
		fh, err := c.FormFile("document")
		switch {
		case errors.Is(err, http.ErrMissingFile):
		case err != nil:
			respondError(c, http.StatusBadRequest, "invalid document upload")
			return
		default:
			f, err := fh.Open()
			if err != nil {
				h.writeError(c, booking.ErrDocumentUpload)
				return
			}
			defer f.Close()
			in.Document = &document.File{Name: fh.Filename, Content: f}
		}
	}

	b, err := h.bookings.CreateBooking(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, b)
}

// GetUserBookings handles GET /api/users/:user_id/bookings.
func (h *Handler) GetUserBookings(c *gin.Context) {
	bookings, err := h.bookings.GetUserBookings(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	respondOK(c, http.StatusOK, bookings)
}

// GetAllBookings handles GET /api/admin/bookings.
func (h *Handler) GetAllBookings(c *gin.Context) {
	bookings, err := h.bookings.GetAllBookings(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	respondOK(c, http.StatusOK, bookings)
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateBookingStatus handles PATCH /api/admin/bookings/:id/status.
func (h *Handler) UpdateBookingStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	b, err := h.bookings.UpdateBookingStatus(c.Request.Context(), c.Param("id"), model.BookingStatus(req.Status))
	if err != nil {
		h.writeError(c, err)
		return
	}
	respondOK(c, http.StatusOK, b)
}

// ExportBookings handles GET /api/admin/bookings/export.
func (h *Handler) ExportBookings(c *gin.Context) {
	ctx := c.Request.Context()

	bookings, err := h.bookings.GetAllBookings(ctx)
	if err != nil {
		h.writeError(c, err)
		return
	}

	names := make(map[string]string)
	if h.facilities != nil {
		facilities, err := h.facilities.ListFacilities(ctx)
		if err != nil {
			h.log.Warn().Err(err).Msg("export without facility names")
		}
		for _, f := range facilities {
			names[f.ID] = f.Name
		}
	}

	var buf bytes.Buffer
	if err := export.WriteBookings(&buf, bookings, names, h.loc); err != nil {
		h.writeError(c, fmt.Errorf("export bookings: %w", err))
		return
	}

	c.Header("Content-Disposition", `attachment; filename="bookings.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
