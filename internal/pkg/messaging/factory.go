package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Driver names accepted in configuration.
const (
	DriverNATS         = "nats"
	DriverNSQ          = "nsq"
	DriverKafka        = "kafka"
	DriverGooglePubSub = "google-pubsub"
)

// ErrUnknownDriver indicates a driver name outside the supported set.
var ErrUnknownDriver = errors.New("messaging: unknown driver")

// FactoryOptions carries per-backend configuration; only the section for the
// selected driver is read.
type FactoryOptions struct {
	// NATS provides configuration for the NATS driver.
	NATS NATSConfig
	// NSQ provides configuration for the NSQ driver.
	NSQ NSQConfig
	// Kafka provides configuration for the Kafka driver.
	Kafka KafkaConfig
	// PubSub provides configuration for the Google Pub/Sub driver.
	PubSub PubSubConfig
}

// NewFromDriver builds the Messaging backend named by driver.
func NewFromDriver(ctx context.Context, driver string, opts FactoryOptions) (Messaging, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverNATS:
		return NewNATS(opts.NATS)
	case DriverNSQ:
		return NewNSQ(opts.NSQ)
	case DriverKafka:
		return NewKafka(opts.Kafka)
	case DriverGooglePubSub:
		return NewPubSub(ctx, opts.PubSub)
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownDriver, driver)
	}
}
