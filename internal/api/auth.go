package api

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"guardian-service/internal/auth"
	"guardian-service/internal/db"
	"guardian-service/internal/models"
)

const codeExpiry = 5 * time.Minute

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_\-]+$`)

type registerRequest struct {
	Username string `json:"username" binding:"required,min=3,max=32"`
	Password string `json:"password" binding:"required,min=6"`
	Email    string `json:"email" binding:"required,email"`
}

type codeRequest struct {
	Username string `json:"username" binding:"required,min=3,max=32"`
	Code     string `json:"code" binding:"required,len=6"`
}

// Register creates an unverified account and emails a verification code.
// The account survives a failed email send; the user can retry later.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil || !usernameRe.MatchString(req.Username) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "INVALID_INPUT"})
		return
	}
	username := strings.ToLower(req.Username)

	if _, err := h.db.GetUserByUsername(c.Request.Context(), username); err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "USERNAME_TAKEN"})
		return
	} else if !errors.Is(err, db.ErrNotFound) {
		h.logger.Errorf("User lookup failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "SERVER_ERROR"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
	if err != nil {
		h.logger.Errorf("Password hash failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "SERVER_ERROR"})
		return
	}

	userID, err := h.db.CreateUser(c.Request.Context(), username, req.Email, string(hash), auth.GenTacticalID(), time.Now().UnixMilli())
	if err != nil {
		// A concurrent registration can win the insert after our
		// existence check passed.
		if errors.Is(err, db.ErrUsernameTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "USERNAME_TAKEN"})
			return
		}
		h.logger.Errorf("User create failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "SERVER_ERROR"})
		return
	}

	code := auth.GenCode()
	if err := h.db.CreateCode(c.Request.Context(), userID, models.CodeVerify, code, time.Now().Add(codeExpiry).UnixMilli()); err != nil {
		h.logger.Errorf("Code create failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "SERVER_ERROR"})
		return
	}

	if err := h.mailer.SendSubject(c.Request.Context(), req.Email, "Guardian Verification Code",
		fmt.Sprintf("Your Guardian verification code is: %s", code)); err != nil {
		h.logger.Errorf("Verification email failed for %s: %v", username, err)
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Verify consumes a verification code and activates the account.
func (h *Handler) Verify(c *gin.Context) {
	var req codeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "INVALID_INPUT"})
		return
	}

	u, ok := h.lookupUser(c, req.Username)
	if !ok {
		return
	}
	if !h.consumeCode(c, u.ID, models.CodeVerify, req.Code) {
		return
	}

	if err := h.db.MarkUserVerified(c.Request.Context(), u.ID); err != nil {
		h.logger.Errorf("Verify failed for %s: %v", u.Username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "SERVER_ERROR"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "tacticalId": u.TacticalID})
}

type loginRequest struct {
	Username string `json:"username" binding:"required,min=3,max=32"`
	Password string `json:"password" binding:"required"`
}

// Login checks credentials and emails an MFA code; no token is issued yet.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "INVALID_INPUT"})
		return
	}

	u, ok := h.lookupUser(c, req.Username)
	if !ok {
		return
	}
	if !u.Verified {
		c.JSON(http.StatusForbidden, gin.H{"error": "UNVERIFIED"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "BAD_PASSWORD"})
		return
	}

	code := auth.GenCode()
	if err := h.db.CreateCode(c.Request.Context(), u.ID, models.CodeMFA, code, time.Now().Add(codeExpiry).UnixMilli()); err != nil {
		h.logger.Errorf("MFA code create failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "SERVER_ERROR"})
		return
	}
	if err := h.mailer.SendSubject(c.Request.Context(), u.Email, "Guardian MFA Code",
		fmt.Sprintf("Your Guardian MFA code is: %s", code)); err != nil {
		h.logger.Errorf("MFA email failed for %s: %v", u.Username, err)
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "requiresMfa": true})
}

// MFA consumes the login code and issues the session token.
func (h *Handler) MFA(c *gin.Context) {
	var req codeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "INVALID_INPUT"})
		return
	}

	u, ok := h.lookupUser(c, req.Username)
	if !ok {
		return
	}
	if !h.consumeCode(c, u.ID, models.CodeMFA, req.Code) {
		return
	}

	token, err := h.jwt.SignSession(u.ID, u.Username, u.TacticalID)
	if err != nil {
		h.logger.Errorf("Token sign failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "SERVER_ERROR"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "token": token, "user": gin.H{
		"username":      u.Username,
		"tacticalId":    u.TacticalID,
		"email":         u.Email,
		"fullName":      u.FullName,
		"bloodType":     u.BloodType,
		"emergencyNote": u.EmergencyNote,
	}})
}

// RecoveryStart emails a password-reset code.
func (h *Handler) RecoveryStart(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required,min=3,max=32"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "INVALID_INPUT"})
		return
	}

	u, ok := h.lookupUser(c, req.Username)
	if !ok {
		return
	}

	code := auth.GenCode()
	if err := h.db.CreateCode(c.Request.Context(), u.ID, models.CodeRecovery, code, time.Now().Add(codeExpiry).UnixMilli()); err != nil {
		h.logger.Errorf("Recovery code create failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "SERVER_ERROR"})
		return
	}
	if err := h.mailer.SendSubject(c.Request.Context(), u.Email, "Guardian Recovery Code",
		fmt.Sprintf("Your Guardian password reset code is: %s", code)); err != nil {
		h.logger.Errorf("Recovery email failed for %s: %v", u.Username, err)
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// RecoveryVerify trades a recovery code for a short-lived reset token.
func (h *Handler) RecoveryVerify(c *gin.Context) {
	var req codeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "INVALID_INPUT"})
		return
	}

	u, ok := h.lookupUser(c, req.Username)
	if !ok {
		return
	}
	if !h.consumeCode(c, u.ID, models.CodeRecovery, req.Code) {
		return
	}

	token, err := h.jwt.SignReset(u.ID)
	if err != nil {
		h.logger.Errorf("Reset token sign failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "SERVER_ERROR"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "resetToken": token})
}

// RecoveryReset sets a new password against a valid reset token.
func (h *Handler) RecoveryReset(c *gin.Context) {
	var req struct {
		ResetToken  string `json:"resetToken" binding:"required"`
		NewPassword string `json:"newPassword" binding:"required,min=6"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "INVALID_INPUT"})
		return
	}

	claims, err := h.jwt.Verify(req.ResetToken)
	if err != nil || claims.Kind != "reset" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "BAD_TOKEN"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), 12)
	if err != nil {
		h.logger.Errorf("Password hash failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "SERVER_ERROR"})
		return
	}
	if err := h.db.UpdateUserPassword(c.Request.Context(), claims.UserID, string(hash)); err != nil {
		h.logger.Errorf("Password update failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "SERVER_ERROR"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// UpdateProfile updates the medical/identity fields shown to responders.
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req struct {
		FullName      string `json:"fullName" binding:"max=120"`
		BloodType     string `json:"bloodType" binding:"max=8"`
		EmergencyNote string `json:"emergencyNote" binding:"max=2000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "INVALID_INPUT"})
		return
	}

	claims := c.MustGet(claimsKey).(*auth.Claims)
	if err := h.db.UpdateUserProfile(c.Request.Context(), claims.UserID, req.FullName, req.BloodType, req.EmergencyNote); err != nil {
		h.logger.Errorf("Profile update failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "SERVER_ERROR"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) lookupUser(c *gin.Context, username string) (models.User, bool) {
	u, err := h.db.GetUserByUsername(c.Request.Context(), strings.ToLower(username))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "NOT_FOUND"})
		} else {
			h.logger.Errorf("User lookup failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "SERVER_ERROR"})
		}
		return models.User{}, false
	}
	return u, true
}

func (h *Handler) consumeCode(c *gin.Context, userID int64, kind models.CodeKind, code string) bool {
	err := h.db.ConsumeCode(c.Request.Context(), userID, kind, code)
	switch {
	case err == nil:
		return true
	case errors.Is(err, db.ErrNotFound):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "NOT_FOUND"})
	case errors.Is(err, db.ErrCodeExpired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "EXPIRED"})
	default:
		h.logger.Errorf("Code consume failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "SERVER_ERROR"})
	}
	return false
}
