package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shenikar/civic_alerts/internal/models"
	"github.com/shenikar/civic_alerts/internal/service"
	"github.com/sirupsen/logrus"
)

// messageReader - часть kafka.Reader, которую использует консьюмер
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// DetectionConsumer читает обнаружения камер из Kafka и превращает их в алерты
type DetectionConsumer struct {
	reader     messageReader
	detections service.DetectionService
	logger     *logrus.Logger
	retryDelay time.Duration
}

func NewKafkaReader(brokers []string, groupID, topic string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        groupID,
		Topic:          topic,
		StartOffset:    kafka.LastOffset,
		CommitInterval: 0,
		MinBytes:       1,
		MaxBytes:       10e6,
	})
}

func NewDetectionConsumer(reader messageReader, detections service.DetectionService, logger *logrus.Logger) *DetectionConsumer {
	return &DetectionConsumer{
		reader:     reader,
		detections: detections,
		logger:     logger,
		retryDelay: 500 * time.Millisecond,
	}
}

// Run обрабатывает сообщения до отмены ctx
func (c *DetectionConsumer) Run(ctx context.Context) {
	log := c.logger.WithField("component", "kafka_consumer")
	log.Info("Detection consumer started")
	defer log.Info("Detection consumer stopped")

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return
			}
			log.WithError(err).Error("Failed to fetch message")
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.retryDelay):
			}
			continue
		}

		if !c.handle(ctx, msg) {
			// без коммита: сообщение будет перечитано после ребаланса или рестарта
			continue
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			log.WithError(err).WithField("offset", msg.Offset).Error("Failed to commit message")
		}
	}
}

// handle возвращает true, если сообщение можно коммитить
func (c *DetectionConsumer) handle(ctx context.Context, msg kafka.Message) bool {
	log := c.logger.WithFields(logrus.Fields{
		"component": "kafka_consumer",
		"partition": msg.Partition,
		"offset":    msg.Offset,
	})

	var d models.Detection
	if err := json.Unmarshal(msg.Value, &d); err != nil {
		log.WithError(err).Warn("Skipping undecodable detection message")
		return true
	}
	if d.Source == "" {
		d.Source = models.SourceCamera
	}
	if d.CameraID == "" && len(msg.Key) > 0 {
		d.CameraID = string(msg.Key)
	}

	alert, err := c.detections.Ingest(ctx, d)
	switch {
	case err == nil:
		if alert != nil {
			log.WithField("alert_id", alert.ID).Info("Detection message converted to alert")
		}
		return true
	case service.IsValidation(err), errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrAlreadyExists):
		log.WithError(err).Warn("Skipping invalid detection message")
		return true
	default:
		log.WithError(err).Error("Failed to ingest detection message")
		return false
	}
}

func (c *DetectionConsumer) Close() error {
	return c.reader.Close()
}
