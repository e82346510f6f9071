package telemetry

import (
	"sort"
	"sync"

	"github.com/shenikar/civic_alerts/internal/models"
)

// Store хранит последнее показание каждого датчика
type Store struct {
	mu       sync.RWMutex
	readings map[string]models.AirQualityReading
}

func NewStore() *Store {
	return &Store{readings: make(map[string]models.AirQualityReading)}
}

// Put сохраняет показание, если оно не старше уже известного
func (s *Store) Put(r models.AirQualityReading) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.readings[r.SensorID]; ok && r.RecordedAt.Before(prev.RecordedAt) {
		return
	}
	s.readings[r.SensorID] = r
}

func (s *Store) Get(sensorID string) (models.AirQualityReading, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.readings[sensorID]
	return r, ok
}

// List возвращает последние показания, отсортированные по sensor_id
func (s *Store) List() []models.AirQualityReading {
	s.mu.RLock()
	out := make([]models.AirQualityReading, 0, len(s.readings))
	for _, r := range s.readings {
		out = append(out, r)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].SensorID < out[j].SensorID })
	return out
}
