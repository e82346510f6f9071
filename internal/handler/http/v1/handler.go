package v1

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shenikar/civic_alerts/internal/config"
	"github.com/shenikar/civic_alerts/internal/enhance"
	"github.com/shenikar/civic_alerts/internal/models"
	"github.com/shenikar/civic_alerts/internal/notify"
	"github.com/shenikar/civic_alerts/internal/service"
	"github.com/sirupsen/logrus"
)

const (
	defaultPageSize    = 20
	defaultRecentLimit = 10
	maxRecentLimit     = 50
)

// AlertStream - источник live-событий о новых алертах
type AlertStream interface {
	Subscribe() *notify.Subscription
	Count() int
}

// ImageUploader сохраняет фотографию и возвращает ее публичный URL
type ImageUploader interface {
	Upload(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error)
}

// AirQualityReader отдает последние показания датчиков
type AirQualityReader interface {
	Get(sensorID string) (models.AirQualityReading, bool)
	List() []models.AirQualityReading
}

// Dependencies - зависимости хендлера. Images и AirQuality могут быть nil,
// тогда соответствующие маршруты отвечают 503.
type Dependencies struct {
	Alerts       service.AlertService
	Cameras      service.CameraService
	Detections   service.DetectionService
	Contact      service.ContactService
	Enhancer     enhance.Enhancer
	Images       ImageUploader
	AirQuality   AirQualityReader
	Stream       AlertStream
	HealthChecks map[string]func(ctx context.Context) error
}

type Handler struct {
	alerts       service.AlertService
	cameras      service.CameraService
	detections   service.DetectionService
	contact      service.ContactService
	enhancer     enhance.Enhancer
	images       ImageUploader
	airQuality   AirQualityReader
	stream       AlertStream
	healthChecks map[string]func(ctx context.Context) error
	heartbeat    time.Duration
	logger       *logrus.Logger
	validate     *validator.Validate
	cfg          *config.Config
	now          func() time.Time
}

func NewHandler(deps Dependencies, logger *logrus.Logger, cfg *config.Config) *Handler {
	heartbeat := cfg.StreamHeartbeat
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}
	enhancer := deps.Enhancer
	if enhancer == nil {
		enhancer = enhance.PassthroughEnhancer{}
	}
	return &Handler{
		alerts:       deps.Alerts,
		cameras:      deps.Cameras,
		detections:   deps.Detections,
		contact:      deps.Contact,
		enhancer:     enhancer,
		images:       deps.Images,
		airQuality:   deps.AirQuality,
		stream:       deps.Stream,
		healthChecks: deps.HealthChecks,
		heartbeat:    heartbeat,
		logger:       logger,
		validate:     validator.New(),
		cfg:          cfg,
		now:          time.Now,
	}
}

// respondError переводит ошибку сервиса в HTTP-ответ. Детали внутренних ошибок клиенту не отдаются.
func (h *Handler) respondError(c *gin.Context, log *logrus.Entry, err error, resource string) {
	switch {
	case service.IsValidation(err):
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": validationMessage(err)})
	case errors.Is(err, service.ErrNotFound):
		log.WithError(err).Warn(resource + " not found")
		c.JSON(http.StatusNotFound, gin.H{"error": resource + " not found"})
	case errors.Is(err, service.ErrInvalidTransition):
		log.WithError(err).Warn("Status transition rejected")
		c.JSON(http.StatusConflict, gin.H{"error": "status transition not allowed"})
	case errors.Is(err, service.ErrConflict):
		log.WithError(err).Warn(resource + " modified concurrently")
		c.JSON(http.StatusConflict, gin.H{"error": resource + " was modified concurrently, retry"})
	case errors.Is(err, service.ErrAlreadyExists):
		log.WithError(err).Warn(resource + " already exists")
		c.JSON(http.StatusConflict, gin.H{"error": resource + " already exists"})
	case errors.Is(err, service.ErrNotConfigured):
		log.WithError(err).Warn("Feature not configured")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service not configured"})
	default:
		log.WithError(err).Error("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func validationMessage(err error) string {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		return verr.Error()
	}
	return "invalid request"
}

// @Summary Report a civic issue
// @Description Create a new alert. The alert starts as Pending and is pushed to live stream subscribers.
// @Tags Alerts
// @Accept json
// @Produce json
// @Param alert body CreateAlertRequest true "Alert creation request"
// @Success 201 {object} AlertResponse
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Failure 409 {object} map[string]string "Alert with this id already exists"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /alerts [post]
func (h *Handler) createAlert(c *gin.Context) {
	var input CreateAlertRequest
	log := h.logger.WithField("method", "createAlert")

	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	model := CreateRequestToAlertModel(input)
	if err := h.alerts.CreateAlert(c.Request.Context(), model); err != nil {
		h.respondError(c, log, err, "alert")
		return
	}

	c.JSON(http.StatusCreated, ModelToAlertResponse(model))
}

// @Summary Get alert by ID
// @Description Get a single alert. Requires API key.
// @Tags Alerts
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Alert ID"
// @Success 200 {object} AlertResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Alert not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /alerts/{id} [get]
func (h *Handler) getAlert(c *gin.Context) {
	id := c.Param("id")
	log := h.logger.WithFields(logrus.Fields{"method": "getAlert", "alert_id": id})

	alert, err := h.alerts.GetAlert(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, log, err, "alert")
		return
	}

	c.JSON(http.StatusOK, ModelToAlertResponse(alert))
}

// @Summary List alerts
// @Description List alerts newest first with optional filters. Requires API key.
// @Tags Alerts
// @Produce json
// @Security ApiKeyAuth
// @Param status query string false "Filter by status" Enums(Pending, Resolved, Dismissed)
// @Param issue_type query string false "Filter by issue type"
// @Param source query string false "Filter by source"
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size" default(20)
// @Success 200 {array} AlertResponse
// @Failure 400 {object} map[string]string "Invalid filter"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /alerts [get]
func (h *Handler) listAlerts(c *gin.Context) {
	log := h.logger.WithField("method", "listAlerts")

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultPageSize)))

	filter := models.AlertFilter{
		Status:    models.AlertStatus(c.Query("status")),
		IssueType: models.IssueType(c.Query("issue_type")),
		Source:    models.AlertSource(c.Query("source")),
		Page:      page,
		PageSize:  pageSize,
	}

	alerts, err := h.alerts.ListAlerts(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, log, err, "alert")
		return
	}

	c.JSON(http.StatusOK, ModelsToAlertResponses(alerts))
}

// @Summary Recent alerts
// @Description Latest alerts for the public map, newest first.
// @Tags Alerts
// @Produce json
// @Param limit query int false "Number of alerts" default(10)
// @Success 200 {array} AlertResponse
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /alerts/recent [get]
func (h *Handler) recentAlerts(c *gin.Context) {
	log := h.logger.WithField("method", "recentAlerts")

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultRecentLimit)))
	if err != nil || limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	alerts, err := h.alerts.ListAlerts(c.Request.Context(), models.AlertFilter{Page: 1, PageSize: limit})
	if err != nil {
		h.respondError(c, log, err, "alert")
		return
	}

	c.JSON(http.StatusOK, ModelsToAlertResponses(alerts))
}

// @Summary Change alert status
// @Description Move an alert to Pending, Resolved or Dismissed. Requires API key.
// @Tags Alerts
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Alert ID"
// @Param status body UpdateStatusRequest true "New status"
// @Success 200 {object} AlertResponse
// @Failure 400 {object} map[string]string "Invalid status"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Alert not found"
// @Failure 409 {object} map[string]string "Transition not allowed"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /alerts/{id} [patch]
func (h *Handler) updateAlertStatus(c *gin.Context) {
	id := c.Param("id")
	log := h.logger.WithFields(logrus.Fields{"method": "updateAlertStatus", "alert_id": id})

	// пустое тело равносильно пустому статусу: для неизвестного id ответ все равно 404
	var input UpdateStatusRequest
	if err := c.ShouldBindJSON(&input); err != nil && !errors.Is(err, io.EOF) {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	alert, err := h.alerts.SetStatus(c.Request.Context(), id, models.AlertStatus(input.Status))
	if err != nil {
		h.respondError(c, log, err, "alert")
		return
	}

	c.JSON(http.StatusOK, ModelToAlertResponse(alert))
}

// @Summary Leave feedback
// @Description Rate how an alert was handled.
// @Tags Alerts
// @Accept json
// @Produce json
// @Param id path string true "Alert ID"
// @Param feedback body FeedbackRequest true "Rating from 1 to 5 and optional comment"
// @Success 200 {object} AlertResponse
// @Failure 400 {object} map[string]string "Invalid rating"
// @Failure 404 {object} map[string]string "Alert not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /alerts/{id}/feedback [post]
func (h *Handler) submitFeedback(c *gin.Context) {
	id := c.Param("id")
	log := h.logger.WithFields(logrus.Fields{"method": "submitFeedback", "alert_id": id})

	var input FeedbackRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	alert, err := h.alerts.SubmitFeedback(c.Request.Context(), id, input.Rating, input.Comment)
	if err != nil {
		h.respondError(c, log, err, "alert")
		return
	}

	c.JSON(http.StatusOK, ModelToAlertResponse(alert))
}

// @Summary Get alert analytics
// @Description Counts by status, issue type and source, plus feedback averages. Requires API key.
// @Tags Analytics
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} models.AlertStats
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /analytics/summary [get]
func (h *Handler) getAnalytics(c *gin.Context) {
	log := h.logger.WithField("method", "getAnalytics")

	stats, err := h.alerts.GetAnalytics(c.Request.Context())
	if err != nil {
		h.respondError(c, log, err, "analytics")
		return
	}

	c.JSON(http.StatusOK, stats)
}

// @Summary Health check
// @Description Check if the service and its dependencies are up.
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /system/health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	resp := HealthResponse{Status: "ok"}
	if h.stream != nil {
		resp.StreamSubscribers = h.stream.Count()
	}

	status := http.StatusOK
	if len(h.healthChecks) > 0 {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		resp.Checks = make(map[string]string, len(h.healthChecks))
		for name, check := range h.healthChecks {
			if err := check(ctx); err != nil {
				h.logger.WithFields(logrus.Fields{"method": "healthCheck", "check": name}).WithError(err).Warn("Health check failed")
				resp.Checks[name] = "unavailable"
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
	}

	c.JSON(status, resp)
}
