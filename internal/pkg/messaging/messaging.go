package messaging

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"
)

// ErrUnsupported is returned when the selected broker cannot perform the
// requested feature, e.g. delayed delivery.
var ErrUnsupported = errors.New("messaging: unsupported operation")

// Messaging is a broker-agnostic client that can publish messages.
type Messaging interface {
	io.Closer

	Publisher
}

// Publisher publishes messages to a destination (topic, subject or queue).
type Publisher interface {
	Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error)
}

// OutgoingMessage is a broker-agnostic message to be published.
type OutgoingMessage struct {
	// Body is the message payload.
	Body []byte

	// Key is commonly used by Kafka for partitioning.
	Key []byte

	// Headers support arbitrary binary values and duplicate keys.
	Headers []Header

	// Attributes is a convenience for brokers that model string attributes
	// (e.g. Pub/Sub).
	Attributes map[string]string

	// OrderingKey is commonly used by Google Pub/Sub.
	OrderingKey string

	// Delay requests deferred delivery where the broker supports it.
	Delay time.Duration
}

// Header is a key/value pair used for message headers.
type Header struct {
	Key   string
	Value []byte
}

// PublishResult carries optional broker-specific publish metadata.
type PublishResult struct {
	// MessageID is the broker-assigned message ID.
	MessageID string

	// Topic is the topic used for publishing.
	Topic string

	// Timestamp is when the broker accepted the message.
	Timestamp time.Time
}

// closeGuard makes Close idempotent across the driver implementations.
type closeGuard struct {
	mu     sync.Mutex
	closed bool
}

// markClosed flips the guard and reports whether this call did the closing.
func (g *closeGuard) markClosed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return false
	}
	g.closed = true
	return true
}

func (g *closeGuard) isClosed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.closed
}
