package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"facility-booking-backend/internal/model"
)

type putSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
	P256DH   string `json:"p256dh" binding:"required"`
	Auth     string `json:"auth" binding:"required"`
	UserID   string `json:"user_id" binding:"required"`
}

type subscriptionResponse struct {
	Endpoint string `json:"endpoint"`
	UserID   string `json:"user_id"`
}

// PutSubscription handles the creation or replacement of a subscription.
func (h *Handler) PutSubscription(c *gin.Context) {
	var req putSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	sub := model.PushSubscription{
		Endpoint: req.Endpoint,
		UserID:   req.UserID,
		P256DH:   req.P256DH,
		Auth:     req.Auth,
	}
	if err := h.subscriptions.UpsertSubscription(c.Request.Context(), &sub); err != nil {
		h.writeError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, subscriptionResponse{Endpoint: sub.Endpoint, UserID: sub.UserID})
}

type deleteSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

// DeleteSubscription handles the deletion of a subscription.
func (h *Handler) DeleteSubscription(c *gin.Context) {
	var req deleteSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	if err := h.subscriptions.DeleteSubscription(c.Request.Context(), req.Endpoint); err != nil {
		h.writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// rawQueryParam returns the query value without URL decoding. Push endpoints
// are URLs themselves and are stored as sent.
func rawQueryParam(rawQuery, key string) (string, bool) {
	for _, kv := range strings.Split(rawQuery, "&") {
		if strings.HasPrefix(kv, key+"=") {
			return kv[len(key)+1:], true
		}
	}
	return "", false
}

// GetSubscription handles the retrieval of a subscription.
func (h *Handler) GetSubscription(c *gin.Context) {
	raw, ok := rawQueryParam(c.Request.URL.RawQuery, "endpoint")
	if !ok || raw == "" {
		respondError(c, http.StatusBadRequest, "endpoint is required")
		return
	}

	sub, err := h.subscriptions.GetSubscription(c.Request.Context(), raw)
	if err != nil {
		if isNotFound(err) {
			respondError(c, http.StatusNotFound, "subscription not found")
			return
		}
		h.writeError(c, err)
		return
	}

	respondOK(c, http.StatusOK, subscriptionResponse{Endpoint: sub.Endpoint, UserID: sub.UserID})
}
