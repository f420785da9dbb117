package clock

import "time"

// Clocker is the time source used across the service. Code takes a Clocker
// instead of calling time.Now directly so tests can pin or advance time.
type Clocker interface {
	Now() time.Time
}

// SystemClock reads the real wall clock.
type SystemClock struct{}

// New returns the production wall-clock source.
func New() *SystemClock {
	return &SystemClock{}
}

// Now reports the current wall-clock time.
func (*SystemClock) Now() time.Time {
	return time.Now()
}
