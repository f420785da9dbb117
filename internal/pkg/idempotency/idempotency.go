// Package idempotency provides a redis-backed guard for operations that must
// run at most once per key within a window.
//
// The token factory uses it to short-circuit concurrent issuance for the same
// (user, reason, kind) before the request ever reaches the database. The
// database partial unique index remains the source of correctness; this guard
// only narrows the race and cheapens the common duplicate case.
package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrInvalidState indicates the guard key holds a value this package never writes.
var ErrInvalidState = errors.New("idempotency: invalid guard state")

type State string

const (
	StateNone       State = "none"        // slot acquired, operation can proceed
	StateInProgress State = "in_progress" // another holder owns the slot
	StateError      State = "error"       // the guard itself failed
)

func (s State) String() string {
	return string(s)
}

// Idempotency is the guard surface issuance needs: take a slot, give it back.
type Idempotency interface {
	Acquire(ctx context.Context, key string, lockDuration time.Duration) (State, error)
	Release(ctx context.Context, key string) error
}

type StateTracker struct {
	client *redis.Client
	prefix string
}

func New(client *redis.Client) *StateTracker {
	return &StateTracker{
		client: client,
		prefix: "idempotency:",
	}
}

// Acquire tries to start an operation. StateNone means the caller holds the
// slot and may proceed; the slot self-expires after lockDuration.
func (s *StateTracker) Acquire(ctx context.Context, key string, lockDuration time.Duration) (State, error) {
	fk := s.prefix + key

	acquired, err := s.client.SetNX(ctx, fk, StateInProgress.String(), lockDuration).Result()
	if err != nil {
		return StateError, err
	}
	if acquired {
		return StateNone, nil
	}

	result, err := s.client.Get(ctx, fk).Result()
	if errors.Is(err, redis.Nil) {
		// Key expired between SetNX and Get; try once more.
		acquired, err = s.client.SetNX(ctx, fk, StateInProgress.String(), lockDuration).Result()
		if err != nil {
			return StateError, err
		}
		if acquired {
			return StateNone, nil
		}
		return StateError, ErrInvalidState
	}
	if err != nil {
		return StateError, err
	}

	if result == StateInProgress.String() {
		return StateInProgress, nil
	}

	return StateError, ErrInvalidState
}

// Release drops the key so a later attempt can proceed immediately.
func (s *StateTracker) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}
