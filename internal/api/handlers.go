package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"guardian-service/internal/auth"
	"guardian-service/internal/authority"
	"guardian-service/internal/db"
	"guardian-service/internal/emergency"
	"guardian-service/internal/models"
	"guardian-service/internal/providers"
)

// Dispatcher is the fan-out entry point for POST /dispatch/alert.
type Dispatcher interface {
	Dispatch(ctx context.Context, message string, contacts []models.DispatchContact) ([]models.DispatchResult, authority.Result, error)
}

// TrackingService is the live-tracking protocol surface.
type TrackingService interface {
	Publish(ctx context.Context, upd models.TrackingUpdate) error
	Fetch(ctx context.Context, sessionID string) (models.TrackingRecord, error)
}

type Handler struct {
	db         *db.DB
	logger     *logrus.Logger
	dispatcher Dispatcher
	tracking   TrackingService
	emergency  *emergency.Manager
	jwt        *auth.JWTService
	mailer     *providers.EmailSender
	hub        *Hub
}

func NewHandler(db *db.DB, logger *logrus.Logger, dispatcher Dispatcher, tracking TrackingService, mgr *emergency.Manager, jwt *auth.JWTService, mailer *providers.EmailSender, hub *Hub) *Handler {
	return &Handler{
		db:         db,
		logger:     logger,
		dispatcher: dispatcher,
		tracking:   tracking,
		emergency:  mgr,
		jwt:        jwt,
		mailer:     mailer,
		hub:        hub,
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
