package service

import (
	"context"
	"sync"
	"time"

	"github.com/shenikar/civic_alerts/internal/models"
)

// memoryAlertRepository - хранилище в памяти для сценарных тестов жизненного цикла
type memoryAlertRepository struct {
	mu      sync.Mutex
	alerts  map[string]models.Alert
	updates int
}

func newMemoryAlertRepository() *memoryAlertRepository {
	return &memoryAlertRepository{alerts: make(map[string]models.Alert)}
}

func (r *memoryAlertRepository) Create(_ context.Context, alert *models.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.alerts[alert.ID]; ok {
		return ErrAlreadyExists
	}
	now := time.Now().UTC()
	alert.CreatedAt, alert.UpdatedAt = now, now
	r.alerts[alert.ID] = *alert
	return nil
}

func (r *memoryAlertRepository) GetByID(_ context.Context, id string) (*models.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.alerts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (r *memoryAlertRepository) UpdateStatus(_ context.Context, id string, from, to models.AlertStatus) (*models.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.alerts[id]
	if !ok || a.Status != from {
		return nil, ErrConflict
	}
	a.Status = to
	a.UpdatedAt = time.Now().UTC()
	r.alerts[id] = a
	r.updates++
	return &a, nil
}

func (r *memoryAlertRepository) SaveFeedback(_ context.Context, id string, feedback models.Feedback) (*models.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.alerts[id]
	if !ok {
		return nil, ErrNotFound
	}
	a.Feedback = &feedback
	r.alerts[id] = a
	r.updates++
	return &a, nil
}

func (r *memoryAlertRepository) List(_ context.Context, _ models.AlertFilter) ([]*models.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Alert, 0, len(r.alerts))
	for _, a := range r.alerts {
		a := a
		out = append(out, &a)
	}
	return out, nil
}

func (r *memoryAlertRepository) Stats(_ context.Context) (*models.AlertStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &models.AlertStats{Total: len(r.alerts)}, nil
}

func (r *memoryAlertRepository) GetAlertFromCache(context.Context, string) (*models.Alert, error) {
	return nil, nil
}

func (r *memoryAlertRepository) SetAlertCache(context.Context, *models.Alert) error { return nil }

func (r *memoryAlertRepository) InvalidateAlertCache(context.Context, string) error { return nil }

func (r *memoryAlertRepository) updateCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updates
}

// interleavingRepository выполняет afterGet между чтением и записью сервиса
type interleavingRepository struct {
	*memoryAlertRepository
	afterGet func()
}

func (r *interleavingRepository) GetByID(ctx context.Context, id string) (*models.Alert, error) {
	a, err := r.memoryAlertRepository.GetByID(ctx, id)
	if r.afterGet != nil {
		hook := r.afterGet
		r.afterGet = nil
		hook()
	}
	return a, err
}
