package notify

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shenikar/civic_alerts/internal/metrics"
	"github.com/shenikar/civic_alerts/internal/models"
	"github.com/sirupsen/logrus"
)

// OverflowPolicy определяет, что делать, если буфер подписчика заполнен
type OverflowPolicy int

const (
	// DropEvent отбрасывает событие только для этого подписчика, подписка остается активной
	DropEvent OverflowPolicy = iota
	// CloseSubscriber закрывает медленного подписчика
	CloseSubscriber
)

func (p OverflowPolicy) String() string {
	if p == CloseSubscriber {
		return "close"
	}
	return "drop"
}

// ParseOverflowPolicy разбирает значение STREAM_OVERFLOW
func ParseOverflowPolicy(s string) (OverflowPolicy, error) {
	switch s {
	case "", "drop":
		return DropEvent, nil
	case "close":
		return CloseSubscriber, nil
	}
	return DropEvent, fmt.Errorf("unknown overflow policy %q", s)
}

const defaultBufferSize = 64

// Options - параметры брокера
type Options struct {
	BufferSize int
	Overflow   OverflowPolicy
}

// Broker рассылает созданные алерты всем подключенным подпискам.
// Событие получают только подписчики, подключенные на момент Publish: истории нет.
type Broker struct {
	mu          sync.RWMutex
	subscribers map[string]*Subscription
	closed      bool

	// publishMu сериализует Publish, чтобы все подписчики видели одинаковый порядок
	publishMu sync.Mutex

	opts   Options
	logger *logrus.Logger
}

// NewBroker создает брокер. Создается один раз при старте и передается писателям и стриму.
func NewBroker(opts Options, logger *logrus.Logger) *Broker {
	if opts.BufferSize <= 0 {
		opts.BufferSize = defaultBufferSize
	}
	return &Broker{
		subscribers: make(map[string]*Subscription),
		opts:        opts,
		logger:      logger,
	}
}

// Subscribe регистрирует нового подписчика в состоянии Connecting.
// Если брокер уже закрыт, возвращается закрытая подписка.
func (b *Broker) Subscribe() *Subscription {
	sub := &Subscription{
		id:     uuid.NewString(),
		events: make(chan models.Alert, b.opts.BufferSize),
		done:   make(chan struct{}),
		broker: b,
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		sub.close()
		return sub
	}
	b.subscribers[sub.id] = sub
	total := len(b.subscribers)
	b.mu.Unlock()

	metrics.StreamSubscribers.Inc()
	b.logger.WithFields(logrus.Fields{
		"component":     "broker",
		"subscriber_id": sub.id,
		"total":         total,
	}).Info("Stream subscriber registered")

	return sub
}

// Unsubscribe удаляет подписчика. Повторный вызов ничего не делает.
func (b *Broker) Unsubscribe(id string) {
	b.mu.Lock()
	sub, ok := b.subscribers[id]
	if ok {
		delete(b.subscribers, id)
	}
	total := len(b.subscribers)
	b.mu.Unlock()

	if !ok {
		return
	}
	sub.close()
	metrics.StreamSubscribers.Dec()
	b.logger.WithFields(logrus.Fields{
		"component":     "broker",
		"subscriber_id": id,
		"dropped":       sub.Dropped(),
		"total":         total,
	}).Info("Stream subscriber removed")
}

// Publish рассылает алерт всем текущим подписчикам. Никогда не блокируется и не возвращает ошибку.
func (b *Broker) Publish(alert models.Alert) {
	b.publishMu.Lock()
	defer b.publishMu.Unlock()

	b.mu.RLock()
	if b.closed || len(b.subscribers) == 0 {
		b.mu.RUnlock()
		return
	}
	snapshot := make([]*Subscription, 0, len(b.subscribers))
	for _, sub := range b.subscribers {
		snapshot = append(snapshot, sub)
	}
	b.mu.RUnlock()

	for _, sub := range snapshot {
		b.deliver(sub, alert)
	}

	b.logger.WithFields(logrus.Fields{
		"component":   "broker",
		"alert_id":    alert.ID,
		"subscribers": len(snapshot),
	}).Debug("Alert published to stream subscribers")
}

func (b *Broker) deliver(sub *Subscription, alert models.Alert) {
	select {
	case <-sub.done:
		return
	default:
	}

	select {
	case sub.events <- alert:
		return
	default:
	}

	log := b.logger.WithFields(logrus.Fields{
		"component":     "broker",
		"subscriber_id": sub.id,
		"alert_id":      alert.ID,
	})
	switch b.opts.Overflow {
	case CloseSubscriber:
		log.Warn("Stream subscriber buffer full, closing subscriber")
		b.Unsubscribe(sub.id)
	default:
		sub.dropped.Add(1)
		metrics.StreamDropped.Inc()
		log.Warn("Stream subscriber buffer full, dropping event")
	}
}

// Count возвращает число зарегистрированных подписчиков
func (b *Broker) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close закрывает все подписки. Последующие Subscribe возвращают закрытую подписку.
func (b *Broker) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	subs := b.subscribers
	b.subscribers = make(map[string]*Subscription)
	b.mu.Unlock()

	for _, sub := range subs {
		sub.close()
		metrics.StreamSubscribers.Dec()
	}
	b.logger.WithField("component", "broker").Info("Alert broker closed")
}
