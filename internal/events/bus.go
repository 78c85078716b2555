package events

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Publisher is the write side used by the collaborator and installer.
type Publisher interface {
	PublishStatus(Status)
	PublishLog(line string)
}

// Bus fans events out to ordered per-subscriber queues.
type Bus struct {
	mu     sync.RWMutex
	status map[string]*queue[Status]
	logs   map[string]*queue[string]
	logger *zap.Logger
}

// NewBus creates an empty bus.
func NewBus(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		status: make(map[string]*queue[Status]),
		logs:   make(map[string]*queue[string]),
		logger: logger,
	}
}

// PublishStatus enqueues a status event for every status subscriber.
func (b *Bus) PublishStatus(s Status) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, q := range b.status {
		q.push(s)
	}
}

// PublishLog enqueues a log line for every log subscriber.
func (b *Bus) PublishLog(line string) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, q := range b.logs {
		q.push(line)
	}
}

// SubscribeStatus registers a status handler and returns its unsubscribe
// function.
func (b *Bus) SubscribeStatus(handler func(Status)) func() {
	id := uuid.NewString()
	q := newQueue(handler)

	b.mu.Lock()
	b.status[id] = q
	b.mu.Unlock()
	b.logger.Debug("status listener registered", zap.String("subscription", id))

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.status, id)
			b.mu.Unlock()
			q.close()
			b.logger.Debug("status listener removed", zap.String("subscription", id))
		})
	}
}

// SubscribeLog registers a log line handler and returns its unsubscribe
// function.
func (b *Bus) SubscribeLog(handler func(string)) func() {
	id := uuid.NewString()
	q := newQueue(handler)

	b.mu.Lock()
	b.logs[id] = q
	b.mu.Unlock()
	b.logger.Debug("log listener registered", zap.String("subscription", id))

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.logs, id)
			b.mu.Unlock()
			q.close()
			b.logger.Debug("log listener removed", zap.String("subscription", id))
		})
	}
}

// Subscribers reports the number of live listeners per topic.
func (b *Bus) Subscribers() (status, logs int) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.status), len(b.logs)
}
