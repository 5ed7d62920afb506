package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"guardian-service/internal/config"
)

func NewRouter(logger *logrus.Logger, cfg config.Config, h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLoggingMiddleware(logger))

	api := r.Group(cfg.API.BasePath)
	{
		api.GET("/health", h.Health)

		// Auth
		api.POST("/auth/register", h.Register)
		api.POST("/auth/verify", h.Verify)
		api.POST("/auth/login", h.Login)
		api.POST("/auth/mfa", h.MFA)
		api.POST("/auth/recovery/start", h.RecoveryStart)
		api.POST("/auth/recovery/verify", h.RecoveryVerify)
		api.POST("/auth/recovery/reset", h.RecoveryReset)

		// Emergency dispatch fan-out
		api.POST("/dispatch/alert", h.DispatchAlert)

		// Live tracking
		api.POST("/tracking/update", h.TrackingUpdate)
		api.GET("/tracking/:sessionId", h.TrackingFetch)

		// State machine event feed
		api.GET("/ws/alerts", h.AlertsWS)

		authed := api.Group("", h.RequireAuth())
		{
			authed.PUT("/user/profile", h.UpdateProfile)

			authed.POST("/contacts", h.CreateContact)
			authed.GET("/contacts", h.ListContacts)
			authed.GET("/contacts/:id", h.GetContact)
			authed.PUT("/contacts/:id", h.UpdateContact)
			authed.DELETE("/contacts/:id", h.DeleteContact)

			authed.POST("/emergency/trigger", h.EmergencyTrigger)
			authed.POST("/emergency/cancel", h.EmergencyCancel)
			authed.POST("/emergency/stop", h.EmergencyStop)
			authed.POST("/emergency/location", h.EmergencyLocation)
			authed.GET("/emergency/status", h.EmergencyStatus)
		}
	}
	return r
}
