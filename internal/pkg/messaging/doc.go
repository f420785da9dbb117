// Package messaging provides a broker-agnostic API for publishing messages.
//
// The service emits token lifecycle events (issued, consumed, expired) for
// downstream delivery and audit systems; actual code delivery is owned by
// those systems. Business code depends on the Publisher interface, so the
// underlying broker (Kafka, NATS, NSQ, Google Pub/Sub) can be swapped via
// configuration without touching use-case code.
package messaging
