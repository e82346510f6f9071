package v1

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes регистрирует все маршруты API v1
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	// Публичные маршруты: отчеты граждан, карта, оценки
	api.POST("/alerts", h.createAlert)
	api.GET("/alerts/recent", h.recentAlerts)
	api.POST("/alerts/:id/feedback", h.submitFeedback)
	api.POST("/reports/enhance", h.enhanceDescription)
	api.POST("/authority-contact", h.contactAuthority)
	api.POST("/uploads/images", h.uploadImage)
	api.GET("/air-quality", h.listAirQuality)
	api.GET("/air-quality/:sensor_id", h.getAirQuality)

	// Маршрут Health-check
	api.GET("/system/health", h.healthCheck)

	// Маршруты для операторов, требуют API-ключ
	admin := api.Group("", APIKeyAuthMiddleware(h.cfg, h.logger))
	{
		admin.GET("/alerts", h.listAlerts)
		admin.GET("/alerts/stream", h.streamAlerts)
		admin.GET("/alerts/:id", h.getAlert)
		admin.PATCH("/alerts/:id", h.updateAlertStatus)
		admin.GET("/analytics/summary", h.getAnalytics)

		admin.POST("/detections", h.submitDetection)

		admin.POST("/cameras", h.registerCamera)
		admin.GET("/cameras", h.listCameras)
		admin.GET("/cameras/:id", h.getCamera)
		admin.PATCH("/cameras/:id/status", h.setCameraStatus)
		admin.POST("/cameras/:id/heartbeat", h.cameraHeartbeat)
	}
}
