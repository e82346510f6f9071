package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/shenikar/civic_alerts/internal/config"
	"github.com/shenikar/civic_alerts/internal/metrics"
	"github.com/shenikar/civic_alerts/internal/models"
	"github.com/shenikar/civic_alerts/internal/webhook"
	"github.com/sirupsen/logrus"
)

//go:generate mockgen -source=alert.go -destination=mocks/mock_alert.go -package=mocks

const (
	maxAlertIDLength  = 64
	maxCommentLength  = 1000
	analyticsCacheKey = "analytics:summary"
	defaultPageSize   = 20
	maxPageSize       = 100
	minFeedbackRating = 1
	maxFeedbackRating = 5
)

// AlertRepository определяет контракт для работы с бд алертов
type AlertRepository interface {
	Create(ctx context.Context, alert *models.Alert) error
	GetByID(ctx context.Context, id string) (*models.Alert, error)
	// UpdateStatus пишет to только если текущий статус равен from, иначе ErrConflict
	UpdateStatus(ctx context.Context, id string, from, to models.AlertStatus) (*models.Alert, error)
	SaveFeedback(ctx context.Context, id string, feedback models.Feedback) (*models.Alert, error)
	List(ctx context.Context, filter models.AlertFilter) ([]*models.Alert, error)
	Stats(ctx context.Context) (*models.AlertStats, error)
	GetAlertFromCache(ctx context.Context, id string) (*models.Alert, error)
	SetAlertCache(ctx context.Context, alert *models.Alert) error
	InvalidateAlertCache(ctx context.Context, id string) error
}

// AlertPublisher рассылает созданные алерты подключенным дашбордам
type AlertPublisher interface {
	Publish(alert models.Alert)
}

// AlertService определяет контракт бизнес-логики алертов
type AlertService interface {
	CreateAlert(ctx context.Context, alert *models.Alert) error
	GetAlert(ctx context.Context, id string) (*models.Alert, error)
	ListAlerts(ctx context.Context, filter models.AlertFilter) ([]*models.Alert, error)
	SetStatus(ctx context.Context, id string, status models.AlertStatus) (*models.Alert, error)
	SubmitFeedback(ctx context.Context, id string, rating int, comment string) (*models.Alert, error)
	GetAnalytics(ctx context.Context) (*models.AlertStats, error)
}

// TransitionPolicy задает, можно ли выводить алерт из Resolved/Dismissed
type TransitionPolicy struct {
	AllowReopen bool
}

// Check проверяет переход from -> to. Повторное применение того же статуса разрешено всегда.
func (p TransitionPolicy) Check(from, to models.AlertStatus) error {
	if from == to || p.AllowReopen || !from.Terminal() {
		return nil
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

type alertService struct {
	repo      AlertRepository
	publisher AlertPublisher
	events    webhook.EventPublisher
	logger    *logrus.Logger
	cfg       *config.Config
	policy    TransitionPolicy
	analytics *cache.Cache
	now       func() time.Time
}

// NewAlertService собирает сервис. events может быть nil, если вебхуки не нужны.
func NewAlertService(repo AlertRepository, publisher AlertPublisher, events webhook.EventPublisher, logger *logrus.Logger, cfg *config.Config) AlertService {
	ttl := cfg.AnalyticsCacheTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &alertService{
		repo:      repo,
		publisher: publisher,
		events:    events,
		logger:    logger,
		cfg:       cfg,
		policy:    TransitionPolicy{AllowReopen: cfg.AllowReopen},
		analytics: cache.New(ttl, 2*ttl),
		now:       time.Now,
	}
}

// CreateAlert сохраняет новый алерт в статусе Pending и только после записи рассылает его
func (s *alertService) CreateAlert(ctx context.Context, alert *models.Alert) error {
	log := s.logger.WithFields(logrus.Fields{
		"service":    "alert",
		"method":     "CreateAlert",
		"issue_type": alert.IssueType,
		"source":     alert.Source,
	})
	log.Info("Attempting to create a new alert")

	if alert.Source == "" {
		alert.Source = models.SourceCitizen
	}
	if err := validateNewAlert(alert); err != nil {
		log.WithError(err).Warn("Alert validation failed")
		return err
	}

	now := s.now().UTC()
	if alert.ID == "" {
		alert.ID = fmt.Sprintf("%d-%s", now.UnixMilli(), uuid.NewString()[:8])
	}
	if alert.Timestamp.IsZero() {
		alert.Timestamp = now
	}
	if alert.Images == nil {
		alert.Images = []string{}
	}
	alert.Status = models.StatusPending
	alert.Feedback = nil

	if err := s.repo.Create(ctx, alert); err != nil {
		log.WithError(err).Error("Failed to create alert in repository")
		return fmt.Errorf("service: could not create alert: %w", err)
	}
	log = log.WithField("alert_id", alert.ID)
	log.Info("Alert created successfully")

	metrics.AlertsCreated.WithLabelValues(string(alert.Source), string(alert.IssueType)).Inc()
	s.analytics.Delete(analyticsCacheKey)

	// запись уже зафиксирована: ошибки рассылки только логируются
	s.publisher.Publish(*alert)
	if s.events != nil {
		event := webhook.AlertEvent{Type: webhook.EventAlertCreated, Alert: *alert, OccurredAt: now}
		if err := s.events.Publish(ctx, event); err != nil {
			log.WithError(err).Warn("Failed to enqueue alert webhook event")
		}
	}
	return nil
}

func validateNewAlert(alert *models.Alert) error {
	if len(alert.ID) > maxAlertIDLength {
		return newValidationError("id", "must be at most %d characters", maxAlertIDLength)
	}
	if !alert.IssueType.Valid() {
		return newValidationError("issue_type", "must be one of accident, traffic, pothole, garbage")
	}
	if !alert.Source.Valid() {
		return newValidationError("source", "must be one of citizen, camera, voice")
	}
	if alert.Confidence < 0 || alert.Confidence > 1 {
		return newValidationError("confidence", "must be between 0 and 1")
	}
	if strings.TrimSpace(alert.Location) == "" {
		return newValidationError("location", "is required")
	}
	return nil
}

// GetAlert получает алерт по ID, сначала из кеша
func (s *alertService) GetAlert(ctx context.Context, id string) (*models.Alert, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":  "alert",
		"method":   "GetAlert",
		"alert_id": id,
	})
	log.Info("Fetching alert by ID")

	cached, err := s.repo.GetAlertFromCache(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Failed to read alert cache, falling back to database")
	}
	if cached != nil {
		log.Debug("Alert served from cache")
		return cached, nil
	}

	alert, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Failed to get alert from repository")
		return nil, fmt.Errorf("service: could not get alert: %w", err)
	}

	if err := s.repo.SetAlertCache(ctx, alert); err != nil {
		log.WithError(err).Warn("Failed to cache alert")
	}
	log.Info("Alert fetched successfully")
	return alert, nil
}

// ListAlerts возвращает список алертов с фильтрацией и пагинацией
func (s *alertService) ListAlerts(ctx context.Context, filter models.AlertFilter) ([]*models.Alert, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > maxPageSize {
		filter.PageSize = defaultPageSize
	}

	log := s.logger.WithFields(logrus.Fields{
		"service":   "alert",
		"method":    "ListAlerts",
		"page":      filter.Page,
		"page_size": filter.PageSize,
		"status":    filter.Status,
		"type":      filter.IssueType,
	})
	log.Info("Listing alerts")

	if filter.Status != "" && !filter.Status.Valid() {
		return nil, newValidationError("status", "must be one of Pending, Resolved, Dismissed")
	}
	if filter.IssueType != "" && !filter.IssueType.Valid() {
		return nil, newValidationError("issue_type", "must be one of accident, traffic, pothole, garbage")
	}
	if filter.Source != "" && !filter.Source.Valid() {
		return nil, newValidationError("source", "must be one of citizen, camera, voice")
	}

	alerts, err := s.repo.List(ctx, filter)
	if err != nil {
		log.WithError(err).Error("Failed to list alerts from repository")
		return nil, fmt.Errorf("service: could not list alerts: %w", err)
	}

	log.WithField("count", len(alerts)).Info("Alerts listed successfully")
	return alerts, nil
}

// SetStatus переводит алерт в новый статус. Рассылки в стрим при смене статуса нет.
func (s *alertService) SetStatus(ctx context.Context, id string, status models.AlertStatus) (*models.Alert, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":  "alert",
		"method":   "SetStatus",
		"alert_id": id,
		"status":   status,
	})
	log.Info("Attempting to update alert status")

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn("Attempted to update status of a non-existent alert")
		} else {
			log.WithError(err).Error("Failed to load alert for status update")
		}
		return nil, fmt.Errorf("service: could not update alert status: %w", err)
	}

	if !status.Valid() {
		log.Warn("Invalid status value")
		return nil, newValidationError("status", "must be one of Pending, Resolved, Dismissed")
	}

	if err := s.policy.Check(existing.Status, status); err != nil {
		log.WithError(err).Warn("Status transition rejected")
		return nil, err
	}

	if existing.Status == status {
		log.Info("Alert already has requested status")
		return existing, nil
	}

	updated, err := s.repo.UpdateStatus(ctx, id, existing.Status, status)
	if err != nil {
		if errors.Is(err, ErrConflict) {
			log.WithError(err).Warn("Alert status changed concurrently")
			return nil, fmt.Errorf("service: could not update alert status: %w", err)
		}
		log.WithError(err).Error("Failed to update alert status in repository")
		return nil, fmt.Errorf("service: could not update alert status: %w", err)
	}

	if err := s.repo.InvalidateAlertCache(ctx, id); err != nil {
		log.WithError(err).Warn("Failed to invalidate alert cache")
	}
	s.analytics.Delete(analyticsCacheKey)
	metrics.StatusTransitions.WithLabelValues(string(status)).Inc()

	log.WithField("previous_status", existing.Status).Info("Alert status updated successfully")
	return updated, nil
}

// SubmitFeedback сохраняет оценку гражданина. Статус алерта здесь не проверяется.
func (s *alertService) SubmitFeedback(ctx context.Context, id string, rating int, comment string) (*models.Alert, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":  "alert",
		"method":   "SubmitFeedback",
		"alert_id": id,
		"rating":   rating,
	})
	log.Info("Attempting to submit feedback")

	if rating < minFeedbackRating || rating > maxFeedbackRating {
		log.Warn("Feedback rating out of range")
		return nil, newValidationError("rating", "must be between %d and %d", minFeedbackRating, maxFeedbackRating)
	}
	if len(comment) > maxCommentLength {
		return nil, newValidationError("comment", "must be at most %d characters", maxCommentLength)
	}

	feedback := models.Feedback{
		Rating:      rating,
		Comment:     strings.TrimSpace(comment),
		SubmittedAt: s.now().UTC(),
	}
	updated, err := s.repo.SaveFeedback(ctx, id, feedback)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn("Attempted to submit feedback for a non-existent alert")
		} else {
			log.WithError(err).Error("Failed to save feedback in repository")
		}
		return nil, fmt.Errorf("service: could not submit feedback: %w", err)
	}

	if err := s.repo.InvalidateAlertCache(ctx, id); err != nil {
		log.WithError(err).Warn("Failed to invalidate alert cache")
	}
	s.analytics.Delete(analyticsCacheKey)

	log.Info("Feedback submitted successfully")
	return updated, nil
}

// GetAnalytics возвращает агрегаты для дашборда, кешируя их на ANALYTICS_CACHE_TTL
func (s *alertService) GetAnalytics(ctx context.Context) (*models.AlertStats, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "alert",
		"method":  "GetAnalytics",
	})

	if cached, ok := s.analytics.Get(analyticsCacheKey); ok {
		log.Debug("Analytics served from cache")
		return cached.(*models.AlertStats), nil
	}

	stats, err := s.repo.Stats(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to compute alert stats")
		return nil, fmt.Errorf("service: could not get analytics: %w", err)
	}
	s.analytics.SetDefault(analyticsCacheKey, stats)

	log.WithField("total", stats.Total).Info("Analytics computed")
	return stats, nil
}
