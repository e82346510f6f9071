package v1

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/shenikar/civic_alerts/internal/enhance"
	"github.com/shenikar/civic_alerts/internal/storage"
	"github.com/sirupsen/logrus"
)

// лишний запас на заголовки multipart поверх размера файла
const multipartOverhead = 1 << 20

// @Summary Enhance description
// @Description Rewrite a citizen description into a clear report. Returns the input unchanged when no model is configured.
// @Tags Integrations
// @Accept json
// @Produce json
// @Param request body EnhanceRequest true "Description to enhance"
// @Success 200 {object} EnhanceResponse
// @Failure 400 {object} map[string]string "Empty description"
// @Failure 502 {object} map[string]string "Enhancement provider failed"
// @Router /reports/enhance [post]
func (h *Handler) enhanceDescription(c *gin.Context) {
	var input EnhanceRequest
	log := h.logger.WithField("method", "enhanceDescription")

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

	text, err := h.enhancer.Enhance(c.Request.Context(), input.IssueType, input.Description)
	if err != nil {
		if errors.Is(err, enhance.ErrEmptyDescription) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "description is required"})
			return
		}
		log.WithError(err).Error("Enhancement failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "enhancement failed"})
		return
	}

	c.JSON(http.StatusOK, EnhanceResponse{Description: text})
}

// @Summary Contact the city authority
// @Description Email the responsible authority about an alert.
// @Tags Integrations
// @Accept json
// @Produce json
// @Param request body AuthorityContactRequest true "Contact request"
// @Success 202 {object} map[string]string
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 404 {object} map[string]string "Alert not found"
// @Failure 503 {object} map[string]string "Authority email not configured"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /authority-contact [post]
func (h *Handler) contactAuthority(c *gin.Context) {
	var input AuthorityContactRequest
	log := h.logger.WithField("method", "contactAuthority")

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

	log = log.WithField("alert_id", input.AlertID)
	if err := h.contact.ContactAuthority(c.Request.Context(), input.AlertID, input.Message, input.Email); err != nil {
		h.respondError(c, log, err, "alert")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "sent"})
}

// @Summary Upload an image
// @Description Upload a JPEG, PNG or WebP photo for a report. Returns its public URL.
// @Tags Integrations
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image"
// @Success 201 {object} UploadResponse
// @Failure 400 {object} map[string]string "File missing"
// @Failure 413 {object} map[string]string "File too large"
// @Failure 415 {object} map[string]string "Unsupported image type"
// @Failure 503 {object} map[string]string "Storage not configured"
// @Router /uploads/images [post]
func (h *Handler) uploadImage(c *gin.Context) {
	log := h.logger.WithField("method", "uploadImage")

	if h.images == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service not configured"})
		return
	}

	if h.cfg.UploadMaxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.UploadMaxBytes+multipartOverhead)
	}

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
			return
		}
		log.WithError(err).Warn("Missing file in form")
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	file, err := header.Open()
	if err != nil {
		log.WithError(err).Error("Failed to open uploaded file")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		sniff := make([]byte, 512)
		n, _ := io.ReadFull(file, sniff)
		contentType = http.DetectContentType(sniff[:n])
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			log.WithError(err).Error("Failed to rewind uploaded file")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
	}

	log = log.WithFields(logrus.Fields{"size": header.Size, "content_type": contentType})
	url, err := h.images.Upload(c.Request.Context(), filepath.Base(header.Filename), file, header.Size, contentType)
	switch {
	case errors.Is(err, storage.ErrUnsupportedType):
		log.WithError(err).Warn("Rejected upload")
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "only jpeg, png and webp images are accepted"})
		return
	case errors.Is(err, storage.ErrTooLarge):
		log.WithError(err).Warn("Rejected upload")
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	case err != nil:
		log.WithError(err).Error("Failed to store image")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	log.WithField("url", url).Info("Image uploaded")
	c.JSON(http.StatusCreated, UploadResponse{URL: url})
}

// @Summary Latest air quality readings
// @Tags Air Quality
// @Produce json
// @Success 200 {array} models.AirQualityReading
// @Failure 503 {object} map[string]string "Telemetry not configured"
// @Router /air-quality [get]
func (h *Handler) listAirQuality(c *gin.Context) {
	if h.airQuality == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service not configured"})
		return
	}
	c.JSON(http.StatusOK, h.airQuality.List())
}

// @Summary Latest reading of one sensor
// @Tags Air Quality
// @Produce json
// @Param sensor_id path string true "Sensor ID"
// @Success 200 {object} models.AirQualityReading
// @Failure 404 {object} map[string]string "Sensor not found"
// @Failure 503 {object} map[string]string "Telemetry not configured"
// @Router /air-quality/{sensor_id} [get]
func (h *Handler) getAirQuality(c *gin.Context) {
	if h.airQuality == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service not configured"})
		return
	}
	reading, ok := h.airQuality.Get(c.Param("sensor_id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "sensor not found"})
		return
	}
	c.JSON(http.StatusOK, reading)
}
