package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// @Summary Register a camera
// @Description Register a camera that sends detections. Requires API key.
// @Tags Cameras
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param camera body CreateCameraRequest true "Camera registration request"
// @Success 201 {object} CameraResponse
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 409 {object} map[string]string "Camera already registered"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /cameras [post]
func (h *Handler) registerCamera(c *gin.Context) {
	var input CreateCameraRequest
	log := h.logger.WithField("method", "registerCamera")

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

	camera := CreateRequestToCameraModel(input)
	if err := h.cameras.RegisterCamera(c.Request.Context(), camera); err != nil {
		h.respondError(c, log, err, "camera")
		return
	}

	c.JSON(http.StatusCreated, ModelToCameraResponse(camera))
}

// @Summary List cameras
// @Tags Cameras
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} CameraResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /cameras [get]
func (h *Handler) listCameras(c *gin.Context) {
	log := h.logger.WithField("method", "listCameras")

	cameras, err := h.cameras.ListCameras(c.Request.Context())
	if err != nil {
		h.respondError(c, log, err, "camera")
		return
	}

	c.JSON(http.StatusOK, ModelsToCameraResponses(cameras))
}

// @Summary Get camera by ID
// @Tags Cameras
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Camera ID"
// @Success 200 {object} CameraResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Camera not found"
// @Router /cameras/{id} [get]
func (h *Handler) getCamera(c *gin.Context) {
	id := c.Param("id")
	log := h.logger.WithFields(logrus.Fields{"method": "getCamera", "camera_id": id})

	camera, err := h.cameras.GetCamera(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, log, err, "camera")
		return
	}

	c.JSON(http.StatusOK, ModelToCameraResponse(camera))
}

// @Summary Toggle camera online flag
// @Tags Cameras
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Camera ID"
// @Param status body CameraStatusRequest true "Online flag"
// @Success 200 {object} CameraResponse
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Camera not found"
// @Router /cameras/{id}/status [patch]
func (h *Handler) setCameraStatus(c *gin.Context) {
	id := c.Param("id")
	log := h.logger.WithFields(logrus.Fields{"method": "setCameraStatus", "camera_id": id})

	var input CameraStatusRequest
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

	camera, err := h.cameras.SetOnline(c.Request.Context(), id, *input.Online)
	if err != nil {
		h.respondError(c, log, err, "camera")
		return
	}

	c.JSON(http.StatusOK, ModelToCameraResponse(camera))
}

// @Summary Camera heartbeat
// @Description Mark the camera online and update last_seen.
// @Tags Cameras
// @Security ApiKeyAuth
// @Param id path string true "Camera ID"
// @Success 204 "No Content"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Camera not found"
// @Router /cameras/{id}/heartbeat [post]
func (h *Handler) cameraHeartbeat(c *gin.Context) {
	id := c.Param("id")
	log := h.logger.WithFields(logrus.Fields{"method": "cameraHeartbeat", "camera_id": id})

	if err := h.cameras.Heartbeat(c.Request.Context(), id); err != nil {
		h.respondError(c, log, err, "camera")
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary Submit a detection
// @Description Convert a camera or voice detection into an alert. Detections below the confidence threshold are ignored. Requires API key.
// @Tags Detections
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param detection body DetectionRequest true "Detection"
// @Success 201 {object} AlertResponse
// @Success 202 {object} DetectionResponse "Detection ignored"
// @Failure 400 {object} map[string]string "Invalid detection"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Camera not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /detections [post]
func (h *Handler) submitDetection(c *gin.Context) {
	var input DetectionRequest
	log := h.logger.WithField("method", "submitDetection")

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

	alert, err := h.detections.Ingest(c.Request.Context(), DetectionRequestToModel(input, h.now()))
	if err != nil {
		h.respondError(c, log, err, "camera")
		return
	}
	if alert == nil {
		c.JSON(http.StatusAccepted, DetectionResponse{Status: "ignored"})
		return
	}

	c.JSON(http.StatusCreated, ModelToAlertResponse(alert))
}
