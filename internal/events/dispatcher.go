package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher interface allows event publication/subscription.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
}

// queueDispatcher buffers published events and delivers them from a worker
// goroutine with bounded retries. Publish never blocks the caller beyond the
// queue capacity and never reports handler errors back: delivery is a
// best-effort follow-up to the primary write that triggered it.
type queueDispatcher struct {
	mu        sync.RWMutex
	listeners map[EventType][]EventHandler

	queue       chan Event
	logger      *zap.Logger
	maxAttempts int
	retryDelay  time.Duration

	stopOnce sync.Once
	stopped  chan struct{}
	done     chan struct{}
}

// ErrQueueFull is returned when the event queue cannot take more work.
var ErrQueueFull = errors.New("event queue full")

// NewQueueDispatcher creates a dispatcher draining into a single worker.
func NewQueueDispatcher(logger *zap.Logger, queueSize, maxAttempts int, retryDelay time.Duration) Dispatcher {
	if queueSize <= 0 {
		queueSize = 256
	}
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	d := &queueDispatcher{
		listeners:   make(map[EventType][]EventHandler),
		queue:       make(chan Event, queueSize),
		logger:      logger,
		maxAttempts: maxAttempts,
		retryDelay:  retryDelay,
		stopped:     make(chan struct{}),
		done:        make(chan struct{}),
	}
	go d.run()
	return d
}

// Publish enqueues the event for asynchronous delivery.
func (d *queueDispatcher) Publish(_ context.Context, event Event) error {
	select {
	case d.queue <- event:
		return nil
	default:
		d.logger.Warn("dropping event, queue full", zap.String("event_type", string(event.Type)))
		return ErrQueueFull
	}
}

// Subscribe registers a handler for the given event type.
func (d *queueDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[eventType] = append(d.listeners[eventType], handler)
}

// Close stops the worker after draining queued events.
func (d *queueDispatcher) Close() {
	d.stopOnce.Do(func() {
		close(d.stopped)
	})
	<-d.done
}

func (d *queueDispatcher) run() {
	defer close(d.done)
	for {
		select {
		case event := <-d.queue:
			d.deliver(event)
		case <-d.stopped:
			for {
				select {
				case event := <-d.queue:
					d.deliver(event)
				default:
					return
				}
			}
		}
	}
}

func (d *queueDispatcher) deliver(event Event) {
	d.mu.RLock()
	handlers := append([]EventHandler{}, d.listeners[event.Type]...)
	d.mu.RUnlock()

	for _, handler := range handlers {
		var err error
		for attempt := 1; attempt <= d.maxAttempts; attempt++ {
			if err = handler(context.Background(), event); err == nil {
				break
			}
			if attempt < d.maxAttempts {
				time.Sleep(d.retryDelay)
			}
		}
		if err != nil {
			// delivery failure never reverts the primary operation
			d.logger.Error("event handler failed after retries",
				zap.String("event_type", string(event.Type)),
				zap.String("event_id", event.ID),
				zap.Int("attempts", d.maxAttempts),
				zap.Error(err))
		}
	}
}
