package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shenikar/civic_alerts/internal/config"
	"github.com/shenikar/civic_alerts/internal/metrics"
	"github.com/shenikar/civic_alerts/internal/models"
	"github.com/sirupsen/logrus"
)

//go:generate mockgen -source=detection.go -destination=mocks/mock_detection.go -package=mocks

// DetectionService превращает обнаружения камер и голосового канала в алерты
type DetectionService interface {
	Ingest(ctx context.Context, detection models.Detection) (*models.Alert, error)
}

var labelIssueTypes = map[string]models.IssueType{
	"accident":   models.IssueAccident,
	"crash":      models.IssueAccident,
	"collision":  models.IssueAccident,
	"traffic":    models.IssueTraffic,
	"congestion": models.IssueTraffic,
	"jam":        models.IssueTraffic,
	"pothole":    models.IssuePothole,
	"garbage":    models.IssueGarbage,
	"trash":      models.IssueGarbage,
	"litter":     models.IssueGarbage,
	"waste":      models.IssueGarbage,
}

// ClassifyLabel сопоставляет метку классификатора с типом инцидента
func ClassifyLabel(label string) (models.IssueType, bool) {
	t, ok := labelIssueTypes[strings.ToLower(strings.TrimSpace(label))]
	return t, ok
}

type detectionService struct {
	alerts        AlertService
	cameras       CameraService
	logger        *logrus.Logger
	minConfidence float64
}

func NewDetectionService(alerts AlertService, cameras CameraService, logger *logrus.Logger, cfg *config.Config) DetectionService {
	return &detectionService{
		alerts:        alerts,
		cameras:       cameras,
		logger:        logger,
		minConfidence: cfg.DetectionMinConfidence,
	}
}

// Ingest создает алерт из обнаружения. Обнаружение ниже порога уверенности
// игнорируется: возвращается (nil, nil).
func (s *detectionService) Ingest(ctx context.Context, d models.Detection) (*models.Alert, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":    "detection",
		"method":     "Ingest",
		"source":     d.Source,
		"camera_id":  d.CameraID,
		"label":      d.Label,
		"confidence": d.Confidence,
	})

	if d.Source != models.SourceCamera && d.Source != models.SourceVoice {
		metrics.DetectionsIngested.WithLabelValues("rejected").Inc()
		return nil, newValidationError("source", "must be camera or voice")
	}
	issueType, ok := ClassifyLabel(d.Label)
	if !ok {
		metrics.DetectionsIngested.WithLabelValues("rejected").Inc()
		return nil, newValidationError("label", "unsupported label %q", d.Label)
	}
	if d.Confidence < 0 || d.Confidence > 1 {
		metrics.DetectionsIngested.WithLabelValues("rejected").Inc()
		return nil, newValidationError("confidence", "must be between 0 and 1")
	}
	if d.Confidence < s.minConfidence {
		metrics.DetectionsIngested.WithLabelValues("ignored").Inc()
		log.Info("Detection below confidence threshold, ignoring")
		return nil, nil
	}

	location := d.Location
	if d.Source == models.SourceCamera {
		if d.CameraID == "" {
			metrics.DetectionsIngested.WithLabelValues("rejected").Inc()
			return nil, newValidationError("camera_id", "is required for camera detections")
		}
		camera, err := s.cameras.GetCamera(ctx, d.CameraID)
		if err != nil {
			metrics.DetectionsIngested.WithLabelValues("rejected").Inc()
			return nil, fmt.Errorf("service: detection from unknown camera: %w", err)
		}
		if err := s.cameras.Heartbeat(ctx, d.CameraID); err != nil {
			log.WithError(err).Warn("Failed to record camera heartbeat")
		}
		if location == "" {
			location = camera.Location
		}
	}

	description := d.Transcript
	if description == "" {
		description = fmt.Sprintf("Automatic %s detection: %s", d.Source, d.Label)
	}

	alert := &models.Alert{
		IssueType:   issueType,
		Source:      d.Source,
		Confidence:  d.Confidence,
		Location:    location,
		Timestamp:   d.DetectedAt,
		Images:      d.Images,
		Description: description,
		CameraID:    d.CameraID,
		Detections:  d.Boxes,
	}
	if err := s.alerts.CreateAlert(ctx, alert); err != nil {
		metrics.DetectionsIngested.WithLabelValues("rejected").Inc()
		return nil, err
	}

	metrics.DetectionsIngested.WithLabelValues("created").Inc()
	log.WithField("alert_id", alert.ID).Info("Detection converted to alert")
	return alert, nil
}
