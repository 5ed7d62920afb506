package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"guardian-service/internal/models"
)

// DispatchAlert fans a distress message out to every listed contact across
// SMS and email. Partial channel failures are reported as data; the call
// only fails on malformed input.
func (h *Handler) DispatchAlert(c *gin.Context) {
	var req models.DispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorf("Invalid dispatch request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "INVALID_INPUT"})
		return
	}

	results, auth, err := h.dispatcher.Dispatch(c.Request.Context(), req.Message, req.Contacts)
	if err != nil {
		h.logger.Errorf("Dispatch failed: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "INVALID_INPUT"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "results": results, "authority": auth})
}
