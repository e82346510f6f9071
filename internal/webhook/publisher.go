package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shenikar/civic_alerts/internal/models"
)

const (
	webhookQueueKey = "alert_webhook_events"

	EventAlertCreated = "alert.created"
)

// AlertEvent - событие для внешних интеграций (городские службы и т.п.)
type AlertEvent struct {
	Type       string       `json:"type"`
	Alert      models.Alert `json:"alert"`
	OccurredAt time.Time    `json:"occurred_at"`
}

//go:generate mockgen -source=publisher.go -destination=mocks/mock_publisher.go -package=mocks

// EventPublisher - интерфейс для постановки вебхуков в очередь
type EventPublisher interface {
	Publish(ctx context.Context, event AlertEvent) error
}

// RedisEventPublisher - реализация EventPublisher, использующая список Redis как очередь
type RedisEventPublisher struct {
	redisClient *redis.Client
}

// NewRedisEventPublisher создает новый RedisEventPublisher
func NewRedisEventPublisher(client *redis.Client) *RedisEventPublisher {
	return &RedisEventPublisher{
		redisClient: client,
	}
}

// Publish публикует событие вебхука в очередь Redis
func (p *RedisEventPublisher) Publish(ctx context.Context, event AlertEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook event: %w", err)
	}

	// LPUSH + BRPOP в воркере дают FIFO
	if err := p.redisClient.LPush(ctx, webhookQueueKey, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish webhook event to Redis: %w", err)
	}
	return nil
}
