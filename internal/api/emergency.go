package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"guardian-service/internal/auth"
	"guardian-service/internal/emergency"
	"guardian-service/internal/models"
)

// EmergencyTrigger arms a new countdown session for the caller. Only one
// session can be active at a time.
func (h *Handler) EmergencyTrigger(c *gin.Context) {
	var req struct {
		Reason       string `json:"reason" binding:"max=200"`
		TrackingCode string `json:"trackingCode" binding:"max=32"`
	}
	// A bare trigger without a body is valid; a malformed body is not.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "INVALID_INPUT"})
		return
	}

	claims := c.MustGet(claimsKey).(*auth.Claims)
	m, err := h.emergency.Trigger(c.Request.Context(), claims.UserID, claims.Username, req.Reason, req.TrackingCode)
	if err != nil {
		if errors.Is(err, emergency.ErrSessionActive) {
			c.JSON(http.StatusConflict, gin.H{"error": "SESSION_ACTIVE"})
			return
		}
		h.logger.Errorf("Emergency trigger failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "SERVER_ERROR"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "session": m.Session()})
}

// EmergencyCancel aborts the countdown. It fails once dispatch has begun.
func (h *Handler) EmergencyCancel(c *gin.Context) {
	if err := h.emergency.Cancel(); err != nil {
		if errors.Is(err, emergency.ErrNoSession) {
			c.JSON(http.StatusNotFound, gin.H{"error": "NOT_FOUND"})
			return
		}
		c.JSON(http.StatusConflict, gin.H{"error": "DISPATCH_STARTED"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// EmergencyStop ends session tracking and display; in-flight sends still
// run to completion.
func (h *Handler) EmergencyStop(c *gin.Context) {
	if err := h.emergency.Stop(); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "NOT_FOUND"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// EmergencyLocation pushes a client position fix onto the active session.
func (h *Handler) EmergencyLocation(c *gin.Context) {
	var loc models.LocationSnapshot
	if err := c.ShouldBindJSON(&loc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "INVALID_INPUT"})
		return
	}
	if err := h.emergency.ReportLocation(loc); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "NOT_FOUND"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// EmergencyStatus returns the active session snapshot for polling clients.
func (h *Handler) EmergencyStatus(c *gin.Context) {
	ev, ok := h.emergency.Status()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "NOT_FOUND"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "status": ev})
}
