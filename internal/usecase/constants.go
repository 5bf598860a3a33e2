package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running reprocess walks from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// BalanceCacheTTL bounds staleness of the current-balance cache; every
	// committed mutation also invalidates the affected wallets explicitly.
	BalanceCacheTTL = 30 * time.Second

	// cancelCheckInterval is how many titles a reprocess walk rewrites between
	// context cancellation checks.
	cancelCheckInterval = 64
)
