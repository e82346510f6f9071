package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shenikar/civic_alerts/internal/metrics"
	"github.com/shenikar/civic_alerts/internal/models"
	"github.com/sirupsen/logrus"
)

var ErrInvalidReading = errors.New("invalid air quality reading")

// Processor разбирает сообщения датчиков, считает AQI и раскладывает показания по хранилищам
type Processor struct {
	store  *Store
	sink   Sink
	logger *logrus.Logger
	now    func() time.Time
}

// NewProcessor создает обработчик. sink может быть nil, если InfluxDB не настроен.
func NewProcessor(store *Store, sink Sink, logger *logrus.Logger) *Processor {
	return &Processor{store: store, sink: sink, logger: logger, now: time.Now}
}

// Handle обрабатывает одно сообщение. Если sensor_id не указан, он берется из последнего сегмента топика.
func (p *Processor) Handle(ctx context.Context, topic string, payload []byte) (models.AirQualityReading, error) {
	log := p.logger.WithFields(logrus.Fields{
		"component": "telemetry",
		"topic":     topic,
	})

	var r models.AirQualityReading
	if err := json.Unmarshal(payload, &r); err != nil {
		metrics.AirQualityReadings.WithLabelValues("invalid").Inc()
		log.WithError(err).Warn("Failed to decode sensor payload")
		return r, fmt.Errorf("%w: %v", ErrInvalidReading, err)
	}

	if r.SensorID == "" {
		if i := strings.LastIndex(topic, "/"); i >= 0 && i < len(topic)-1 {
			r.SensorID = topic[i+1:]
		}
	}
	if r.SensorID == "" || r.SensorID == "#" || r.SensorID == "+" {
		metrics.AirQualityReadings.WithLabelValues("invalid").Inc()
		return r, fmt.Errorf("%w: sensor_id is required", ErrInvalidReading)
	}
	if r.PM25 < 0 || r.PM10 < 0 {
		metrics.AirQualityReadings.WithLabelValues("invalid").Inc()
		return r, fmt.Errorf("%w: negative concentration", ErrInvalidReading)
	}

	if r.AQI <= 0 {
		r.AQI = PM25AQI(r.PM25)
	}
	r.Category = Category(r.AQI)
	if r.RecordedAt.IsZero() {
		r.RecordedAt = p.now().UTC()
	}

	p.store.Put(r)

	if p.sink != nil {
		if err := p.sink.Write(ctx, r); err != nil {
			// показание уже в памяти, потеря точки в истории не критична
			log.WithError(err).WithField("sensor_id", r.SensorID).Warn("Failed to write reading to InfluxDB")
		}
	}

	metrics.AirQualityReadings.WithLabelValues("accepted").Inc()
	log.WithFields(logrus.Fields{
		"sensor_id": r.SensorID,
		"aqi":       r.AQI,
	}).Debug("Air quality reading accepted")
	return r, nil
}
