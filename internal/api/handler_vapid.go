package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetVAPIDPublicKey returns the VAPID public key to the client.
func (h *Handler) GetVAPIDPublicKey(c *gin.Context) {
	if h.webpush == nil || h.webpush.VAPIDPublicKey == "" {
		respondError(c, http.StatusServiceUnavailable, "vapid keys are not configured")
		return
	}

	respondOK(c, http.StatusOK, gin.H{"public_key": h.webpush.VAPIDPublicKey})
}
