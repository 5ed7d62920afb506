package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"guardian-service/internal/auth"
	"guardian-service/internal/db"
	"guardian-service/internal/models"
)

func (h *Handler) CreateContact(c *gin.Context) {
	var req models.ContactCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "INVALID_INPUT"})
		return
	}

	claims := c.MustGet(claimsKey).(*auth.Claims)
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	created, err := h.db.CreateContact(c.Request.Context(), models.Contact{
		UserID:   claims.UserID,
		Name:     req.Name,
		Phone:    req.Phone,
		Email:    req.Email,
		Category: req.Category,
		Enabled:  enabled,
		Priority: req.Priority,
	})
	if err != nil {
		h.logger.Errorf("Contact create failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "SERVER_ERROR"})
		return
	}

	h.logger.Infof("Created contact %s for user %d", created.ID, claims.UserID)
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) ListContacts(c *gin.Context) {
	claims := c.MustGet(claimsKey).(*auth.Claims)
	contacts, err := h.db.GetContactsByUserID(c.Request.Context(), claims.UserID)
	if err != nil {
		h.logger.Errorf("Contact list failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "SERVER_ERROR"})
		return
	}
	if contacts == nil {
		contacts = []models.Contact{}
	}
	c.JSON(http.StatusOK, contacts)
}

func (h *Handler) GetContact(c *gin.Context) {
	claims := c.MustGet(claimsKey).(*auth.Claims)
	contact, err := h.db.GetContact(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "NOT_FOUND"})
			return
		}
		h.logger.Errorf("Contact get failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "SERVER_ERROR"})
		return
	}
	c.JSON(http.StatusOK, contact)
}

func (h *Handler) UpdateContact(c *gin.Context) {
	var req models.ContactUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "INVALID_INPUT"})
		return
	}

	claims := c.MustGet(claimsKey).(*auth.Claims)
	contact, err := h.db.GetContact(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "NOT_FOUND"})
			return
		}
		h.logger.Errorf("Contact get failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "SERVER_ERROR"})
		return
	}

	if req.Name != "" {
		contact.Name = req.Name
	}
	if req.Phone != nil {
		contact.Phone = *req.Phone
	}
	if req.Email != nil {
		contact.Email = *req.Email
	}
	if req.Category != nil {
		contact.Category = *req.Category
	}
	if req.Enabled != nil {
		contact.Enabled = *req.Enabled
	}
	if req.Priority != nil {
		contact.Priority = *req.Priority
	}

	if err := h.db.UpdateContact(c.Request.Context(), contact); err != nil {
		h.logger.Errorf("Contact update failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "SERVER_ERROR"})
		return
	}
	c.JSON(http.StatusOK, contact)
}

func (h *Handler) DeleteContact(c *gin.Context) {
	claims := c.MustGet(claimsKey).(*auth.Claims)
	if err := h.db.DeleteContact(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "NOT_FOUND"})
			return
		}
		h.logger.Errorf("Contact delete failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "SERVER_ERROR"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
