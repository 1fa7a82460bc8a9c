package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Healthz reports that the process is serving.
func (h *Handler) Healthz(c *gin.Context) {
	respondOK(c, http.StatusOK, gin.H{"status": "ok"})
}

// Readyz reports whether the database answers.
func (h *Handler) Readyz(c *gin.Context) {
	if h.db == nil {
		respondOK(c, http.StatusOK, gin.H{"status": "ok"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.db.Ping(ctx); err != nil {
		h.log.Warn().Err(err).Msg("readiness check failed")
		respondError(c, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	respondOK(c, http.StatusOK, gin.H{"status": "ok"})
}
