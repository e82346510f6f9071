package notify

import (
	"sync"
	"sync/atomic"

	"github.com/shenikar/civic_alerts/internal/models"
)

// State - состояние одной подписки: Connecting -> Streaming -> Closed
type State int32

const (
	StateConnecting State = iota
	StateStreaming
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	default:
		return "closed"
	}
}

// Subscription - канал событий одного подключения дашборда
type Subscription struct {
	id      string
	events  chan models.Alert
	done    chan struct{}
	once    sync.Once
	state   atomic.Int32
	dropped atomic.Uint64
	broker  *Broker
}

func (s *Subscription) ID() string { return s.id }

// Events возвращает события в порядке публикации
func (s *Subscription) Events() <-chan models.Alert { return s.events }

// Done закрывается, когда подписка переходит в Closed
func (s *Subscription) Done() <-chan struct{} { return s.done }

func (s *Subscription) State() State { return State(s.state.Load()) }

// Dropped - число событий, отброшенных из-за переполнения буфера
func (s *Subscription) Dropped() uint64 { return s.dropped.Load() }

// MarkStreaming переводит Connecting -> Streaming после отправки заголовков клиенту
func (s *Subscription) MarkStreaming() bool {
	return s.state.CompareAndSwap(int32(StateConnecting), int32(StateStreaming))
}

// Close отписывается от брокера. Безопасно вызывать несколько раз.
func (s *Subscription) Close() {
	if s.broker != nil {
		s.broker.Unsubscribe(s.id)
	}
	s.close()
}

func (s *Subscription) close() {
	s.once.Do(func() {
		s.state.Store(int32(StateClosed))
		close(s.done)
	})
}
