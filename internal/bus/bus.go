package bus

import (
	"log/slog"
	"sync"
	"time"

	"jotbot/internal/domain"
)

const publishTimeout = 10 * time.Second

// InMemoryBus is a Go-channel based message bus for in-process routing.
// It is FIFO: with a single consumer, messages are delivered in publish order.
type InMemoryBus struct {
	inbound  chan domain.Message
	handlers map[string]func(domain.Ack)
	mu       sync.RWMutex
	closed   bool
	logger   *slog.Logger
}

// New creates a new InMemoryBus with the given buffer size.
func New(bufferSize int, logger *slog.Logger) *InMemoryBus {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	return &InMemoryBus{
		inbound:  make(chan domain.Message, bufferSize),
		handlers: make(map[string]func(domain.Ack)),
		logger:   logger,
	}
}

// Publish enqueues an inbound message. Blocks up to 10 seconds if the bus
// is full instead of dropping.
func (b *InMemoryBus) Publish(msg domain.Message) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		b.logger.Warn("attempted to publish to closed bus")
		return
	}

	select {
	case b.inbound <- msg:
	default:
		b.logger.Warn("inbound bus full, waiting...", "channel", msg.Channel, "sender", msg.SenderID)
		timer := time.NewTimer(publishTimeout)
		defer timer.Stop()
		select {
		case b.inbound <- msg:
			b.logger.Info("message delivered after wait", "channel", msg.Channel)
		case <-timer.C:
			b.logger.Error("message dropped: bus full for 10s",
				"channel", msg.Channel,
				"sender", msg.SenderID,
			)
		}
	}
}

func (b *InMemoryBus) Subscribe() <-chan domain.Message {
	return b.inbound
}

// Ack delivers a receipt to the handler registered for its channel.
func (b *InMemoryBus) Ack(a domain.Ack) {
	b.mu.RLock()
	handler, ok := b.handlers[a.Channel]
	b.mu.RUnlock()

	if !ok {
		b.logger.Warn("no ack handler registered for channel", "channel", a.Channel)
		return
	}

	handler(a)
}

func (b *InMemoryBus) OnAck(channelName string, handler func(domain.Ack)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[channelName] = handler
}

func (b *InMemoryBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.closed {
		b.closed = true
		close(b.inbound)
	}
}
