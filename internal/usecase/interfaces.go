package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
)

// WalletRepository defines data access for wallets.
type WalletRepository interface {
	Create(ctx context.Context, tx Transaction, wallet *domain.Wallet) error
	GetByID(ctx context.Context, id string) (*domain.Wallet, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Wallet, error)
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []string) ([]*domain.Wallet, error)
	List(ctx context.Context, tenantID string, limit, offset int) ([]*domain.Wallet, error)
}

// TitleRepository defines data access for titles.
type TitleRepository interface {
	Create(ctx context.Context, tx Transaction, title *domain.Title) error
	GetByID(ctx context.Context, id string) (*domain.Title, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Title, error)
	Update(ctx context.Context, tx Transaction, title *domain.Title) error
	Delete(ctx context.Context, tx Transaction, id string) error
	ListByWallet(ctx context.Context, walletID string, limit, offset int) ([]*domain.Title, error)

	// GetChain loads every title of a wallet ordered by (date, id) ascending.
	GetChain(ctx context.Context, tx Transaction, walletID string) ([]*domain.Title, error)
	// GetSuffix loads titles of a wallet with date strictly after fromDate,
	// excluding excludingID (empty string excludes nothing), ordered by (date, id).
	GetSuffix(ctx context.Context, tx Transaction, walletID string, fromDate time.Time, excludingID string) ([]*domain.Title, error)
	// UpdatePreviousBalance rewrites the stored previous balance of one title.
	UpdatePreviousBalance(ctx context.Context, tx Transaction, id string, previousBalance decimal.Decimal) error
	// SumEffective returns the signed sum of effective values of titles with
	// date <= until. The initial balance is not included.
	SumEffective(ctx context.Context, walletID string, until time.Time) (decimal.Decimal, error)
	SumEffectiveTx(ctx context.Context, tx Transaction, walletID string, until time.Time) (decimal.Decimal, error)
	// ExistsAtMinute reports whether the wallet already has a title in the
	// same calendar minute, excluding excludingID.
	ExistsAtMinute(ctx context.Context, tx Transaction, walletID string, minute time.Time, excludingID string) (bool, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// AuditRepository defines data access for audit logs.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
	CreateTx(ctx context.Context, tx Transaction, log *domain.AuditLog) error
	List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Clock abstracts "now" so balance queries are testable.
type Clock interface {
	Now() time.Time
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

// Retrier retries transactions that failed with retryable store errors.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}
