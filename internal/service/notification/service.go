package notification

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/notification"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/sse"
)

// Config holds broadcaster configuration
type Config struct {
	WorkerCount int // default: 2
	QueueSize   int // default: 1000
}

// Message is the data pushed to stream subscribers.
type Message struct {
	ID         string                 `json:"id"`
	Event      string                 `json:"event"`
	OccurredAt time.Time              `json:"occurredAt"`
	Payload    map[string]interface{} `json:"payload"`
}

type queued struct {
	event   string
	payload map[string]interface{}
	at      time.Time
}

// Broadcaster fans domain notifications out to the SSE hub from background workers,
// so callers on the ingestion path never wait on subscribers.
type Broadcaster struct {
	hub    *sse.Hub
	config Config

	queue    chan queued
	wg       sync.WaitGroup
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewBroadcaster creates a broadcaster and starts its workers. Call Close on shutdown.
func NewBroadcaster(hub *sse.Hub, cfg Config) *Broadcaster {
	if cfg.WorkerCount == 0 {
		cfg.WorkerCount = 2
	}
	if cfg.QueueSize == 0 {
		cfg.QueueSize = 1000
	}

	b := &Broadcaster{
		hub:    hub,
		config: cfg,
		queue:  make(chan queued, cfg.QueueSize),
		stopCh: make(chan struct{}),
	}

	for i := 0; i < cfg.WorkerCount; i++ {
		b.wg.Add(1)
		go b.worker()
	}

	slog.Info("Broadcaster started", "workers", cfg.WorkerCount, "queue_size", cfg.QueueSize)
	return b
}

// Notify implements notification.Broadcaster.
func (b *Broadcaster) Notify(eventName string, payload map[string]interface{}) {
	q := queued{event: eventName, payload: payload, at: time.Now().UTC()}

	select {
	case <-b.stopCh:
		return
	default:
	}

	select {
	case b.queue <- q:
	default:
		// Queue full, publish inline
		b.publish(q)
	}
}

func (b *Broadcaster) worker() {
	defer b.wg.Done()

	for {
		select {
		case q := <-b.queue:
			b.publish(q)
		case <-b.stopCh:
			// drain what is already queued
			for {
				select {
				case q := <-b.queue:
					b.publish(q)
				default:
					return
				}
			}
		}
	}
}

func (b *Broadcaster) publish(q queued) {
	msg := Message{
		ID:         uuid.NewString(),
		Event:      q.event,
		OccurredAt: q.at,
		Payload:    q.payload,
	}
	event := sse.Event{Event: q.event, Data: msg}

	topics := []string{sse.AdminTopic}
	if employeeID, ok := q.payload[notification.PayloadEmployeeKey].(string); ok && employeeID != "" {
		topics = append(topics, EmployeeTopic(employeeID))
	}
	b.hub.PublishToMany(topics, event)
}

// Close stops the workers after flushing the queue.
func (b *Broadcaster) Close() {
	b.stopOnce.Do(func() {
		close(b.stopCh)
		b.wg.Wait()
		slog.Info("Broadcaster stopped")
	})
}

// EmployeeTopic is the hub topic carrying one employee's own events.
func EmployeeTopic(employeeID string) string {
	return "employee:" + employeeID
}

var _ notification.Broadcaster = (*Broadcaster)(nil)
