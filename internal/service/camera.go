package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shenikar/civic_alerts/internal/models"
	"github.com/sirupsen/logrus"
)

//go:generate mockgen -source=camera.go -destination=mocks/mock_camera.go -package=mocks

// CameraRepository определяет контракт хранения камер
type CameraRepository interface {
	Create(ctx context.Context, camera *models.Camera) error
	GetByID(ctx context.Context, id string) (*models.Camera, error)
	List(ctx context.Context) ([]*models.Camera, error)
	SetOnline(ctx context.Context, id string, online bool) (*models.Camera, error)
	Touch(ctx context.Context, id string, seenAt time.Time) error
}

// CameraService - управление камерами: регистрация и переключатель online/offline
type CameraService interface {
	RegisterCamera(ctx context.Context, camera *models.Camera) error
	GetCamera(ctx context.Context, id string) (*models.Camera, error)
	ListCameras(ctx context.Context) ([]*models.Camera, error)
	SetOnline(ctx context.Context, id string, online bool) (*models.Camera, error)
	Heartbeat(ctx context.Context, id string) error
}

type cameraService struct {
	repo   CameraRepository
	logger *logrus.Logger
	now    func() time.Time
}

func NewCameraService(repo CameraRepository, logger *logrus.Logger) CameraService {
	return &cameraService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

func (s *cameraService) RegisterCamera(ctx context.Context, camera *models.Camera) error {
	log := s.logger.WithFields(logrus.Fields{
		"service":   "camera",
		"method":    "RegisterCamera",
		"camera_id": camera.ID,
	})
	log.Info("Registering camera")

	camera.ID = strings.TrimSpace(camera.ID)
	if camera.ID == "" {
		return newValidationError("id", "is required")
	}
	if strings.TrimSpace(camera.Name) == "" {
		return newValidationError("name", "is required")
	}

	if err := s.repo.Create(ctx, camera); err != nil {
		log.WithError(err).Error("Failed to create camera in repository")
		return fmt.Errorf("service: could not register camera: %w", err)
	}
	log.Info("Camera registered successfully")
	return nil
}

func (s *cameraService) GetCamera(ctx context.Context, id string) (*models.Camera, error) {
	camera, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"service":   "camera",
			"method":    "GetCamera",
			"camera_id": id,
		}).WithError(err).Warn("Failed to get camera from repository")
		return nil, fmt.Errorf("service: could not get camera: %w", err)
	}
	return camera, nil
}

func (s *cameraService) ListCameras(ctx context.Context) ([]*models.Camera, error) {
	cameras, err := s.repo.List(ctx)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"service": "camera",
			"method":  "ListCameras",
		}).WithError(err).Error("Failed to list cameras")
		return nil, fmt.Errorf("service: could not list cameras: %w", err)
	}
	return cameras, nil
}

// SetOnline переключает признак online. last_seen обновляется только heartbeat'ом.
func (s *cameraService) SetOnline(ctx context.Context, id string, online bool) (*models.Camera, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":   "camera",
		"method":    "SetOnline",
		"camera_id": id,
		"online":    online,
	})

	camera, err := s.repo.SetOnline(ctx, id, online)
	if err != nil {
		log.WithError(err).Warn("Failed to toggle camera status")
		return nil, fmt.Errorf("service: could not update camera: %w", err)
	}
	log.Info("Camera status updated")
	return camera, nil
}

// Heartbeat отмечает камеру как online с текущим временем last_seen
func (s *cameraService) Heartbeat(ctx context.Context, id string) error {
	if err := s.repo.Touch(ctx, id, s.now().UTC()); err != nil {
		s.logger.WithFields(logrus.Fields{
			"service":   "camera",
			"method":    "Heartbeat",
			"camera_id": id,
		}).WithError(err).Warn("Failed to record camera heartbeat")
		return fmt.Errorf("service: could not record heartbeat: %w", err)
	}
	return nil
}
