package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"facility-booking-backend/internal/booking"
	"facility-booking-backend/internal/store"
)

// ListFacilities handles GET /api/facilities.
func (h *Handler) ListFacilities(c *gin.Context) {
	facilities, err := h.facilities.ListFacilities(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	respondOK(c, http.StatusOK, facilities)
}

// GetFacility handles GET /api/facilities/:id.
func (h *Handler) GetFacility(c *gin.Context) {
	facility, err := h.facilities.GetFacility(c.Request.Context(), c.Param("id"))
	if err != nil {
		if isNotFound(err) {
			h.writeError(c, booking.ErrFacilityNotFound)
			return
		}
		h.writeError(c, err)
		return
	}
	respondOK(c, http.StatusOK, facility)
}

// UpdateFacility handles PUT /api/admin/facilities/:id.
func (h *Handler) UpdateFacility(c *gin.Context) {
	var patch store.FacilityPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		bindError(c, err)
		return
	}

	facility, err := h.facilities.UpdateFacility(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		if isNotFound(err) {
			h.writeError(c, booking.ErrFacilityNotFound)
			return
		}
		h.writeError(c, err)
		return
	}

	// Cached catalog responses are stale now.
	if h.responses != nil {
		h.responses.Flush()
	}
	h.log.Info().Str("facility_id", facility.ID).Msg("facility updated")
	respondOK(c, http.StatusOK, facility)
}
