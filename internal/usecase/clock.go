package usecase

import "time"

// SystemClock is the production Clock, backed by the wall clock in UTC.
type SystemClock struct{}

// NewSystemClock creates a new SystemClock.
func NewSystemClock() SystemClock {
	return SystemClock{}
}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
