package events

import (
	"log/slog"
	"sync"

	"github.com/solodhcpd/solodhcpd/internal/metrics"
)

// Bus fans out events to subscribers. Publishing never blocks the packet
// loop — if the buffer is full the event is dropped with a warning.
type Bus struct {
	ch          chan Event
	subscribers []chan Event
	mu          sync.RWMutex
	logger      *slog.Logger
	done        chan struct{}
}

// NewBus creates an event bus with the given buffer size.
func NewBus(bufferSize int, logger *slog.Logger) *Bus {
	if bufferSize <= 0 {
		bufferSize = 1000
	}
	return &Bus{
		ch:     make(chan Event, bufferSize),
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Start dispatches events to subscribers. Call in a goroutine.
func (b *Bus) Start() {
	for {
		select {
		case evt, ok := <-b.ch:
			if !ok {
				return
			}
			b.mu.RLock()
			for _, sub := range b.subscribers {
				select {
				case sub <- evt:
				default:
					b.logger.Warn("subscriber event buffer full, dropping event",
						"event_type", string(evt.Type))
				}
			}
			b.mu.RUnlock()
		case <-b.done:
			return
		}
	}
}

// Stop shuts down the bus.
func (b *Bus) Stop() {
	close(b.done)
	close(b.ch)
}

// Publish sends an event to the bus. Non-blocking.
func (b *Bus) Publish(evt Event) {
	select {
	case b.ch <- evt:
	default:
		metrics.EventBufferDrops.Inc()
		b.logger.Warn("event bus buffer full, dropping event",
			"event_type", string(evt.Type))
	}
}

// Subscribe returns a channel receiving all events from the bus. The
// caller must keep reading or accept drops.
func (b *Bus) Subscribe(bufferSize int) chan Event {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	ch := make(chan Event, bufferSize)
	b.mu.Lock()
	b.subscribers = append(b.subscribers, ch)
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes a subscriber channel.
func (b *Bus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, sub := range b.subscribers {
		if sub == ch {
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			close(ch)
			return
		}
	}
}
