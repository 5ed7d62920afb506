package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"guardian-service/internal/models"
	"guardian-service/internal/tracking"
)

// TrackingUpdate publishes the latest position for a session code.
func (h *Handler) TrackingUpdate(c *gin.Context) {
	var req models.TrackingUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorf("Invalid tracking update: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "INVALID_INPUT"})
		return
	}

	if err := h.tracking.Publish(c.Request.Context(), req); err != nil {
		if errors.Is(err, tracking.ErrInvalidSessionID) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "INVALID_INPUT"})
			return
		}
		h.logger.Errorf("Tracking publish failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "SERVER_ERROR"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// TrackingFetch returns the latest snapshot for a session code. Absent and
// TTL-expired sessions are the same 404 to the caller.
func (h *Handler) TrackingFetch(c *gin.Context) {
	rec, err := h.tracking.Fetch(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		if errors.Is(err, tracking.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "NOT_FOUND"})
			return
		}
		h.logger.Errorf("Tracking fetch failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "SERVER_ERROR"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": rec})
}
