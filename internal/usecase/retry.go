package usecase

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
)

// RetryingTitleUseCase decorates TitleUseCase with transaction retry. Each
// mutation opens its own transaction, so the whole call can be replayed after
// a deadlock or serialization failure.
type RetryingTitleUseCase struct {
	inner   *TitleUseCase
	retrier Retrier
}

// NewRetryingTitleUseCase wraps a TitleUseCase with a retrier.
func NewRetryingTitleUseCase(inner *TitleUseCase, retrier Retrier) *RetryingTitleUseCase {
	return &RetryingTitleUseCase{inner: inner, retrier: retrier}
}

// CreateTitle retries the underlying create on retryable store errors.
func (uc *RetryingTitleUseCase) CreateTitle(ctx context.Context, input TitleInput) (*domain.Title, error) {
	var title *domain.Title

	err := uc.retrier.Retry(ctx, func() error {
		var err error
		title, err = uc.inner.CreateTitle(ctx, input)
		return err
	})

	return title, err
}

// GetTitle retrieves a title by ID.
func (uc *RetryingTitleUseCase) GetTitle(ctx context.Context, id string) (*domain.Title, error) {
	return uc.inner.GetTitle(ctx, id)
}

// ListTitlesByWallet lists titles for a wallet, newest first.
func (uc *RetryingTitleUseCase) ListTitlesByWallet(ctx context.Context, input ListTitlesByWalletInput) ([]*domain.Title, error) {
	return uc.inner.ListTitlesByWallet(ctx, input)
}

// UpdateTitle retries the underlying update on retryable store errors.
func (uc *RetryingTitleUseCase) UpdateTitle(ctx context.Context, id string, input TitleInput) (*domain.Title, error) {
	var title *domain.Title

	err := uc.retrier.Retry(ctx, func() error {
		var err error
		title, err = uc.inner.UpdateTitle(ctx, id, input)
		return err
	})

	return title, err
}

// DeleteTitle retries the underlying delete on retryable store errors.
func (uc *RetryingTitleUseCase) DeleteTitle(ctx context.Context, id string) error {
	return uc.retrier.Retry(ctx, func() error {
		return uc.inner.DeleteTitle(ctx, id)
	})
}

// RetryingReprocessUseCase decorates ReprocessUseCase with transaction retry
// for the operations that open their own transaction.
type RetryingReprocessUseCase struct {
	inner   *ReprocessUseCase
	retrier Retrier
}

// NewRetryingReprocessUseCase wraps a ReprocessUseCase with a retrier.
func NewRetryingReprocessUseCase(inner *ReprocessUseCase, retrier Retrier) *RetryingReprocessUseCase {
	return &RetryingReprocessUseCase{inner: inner, retrier: retrier}
}

// ReprocessWallet retries the full-chain rewrite on retryable store errors.
func (uc *RetryingReprocessUseCase) ReprocessWallet(ctx context.Context, walletID string, startingBalance decimal.Decimal) error {
	return uc.retrier.Retry(ctx, func() error {
		return uc.inner.ReprocessWallet(ctx, walletID, startingBalance)
	})
}

// ReprocessFrom retries the suffix repair on retryable store errors.
func (uc *RetryingReprocessUseCase) ReprocessFrom(ctx context.Context, titleID string) error {
	return uc.retrier.Retry(ctx, func() error {
		return uc.inner.ReprocessFrom(ctx, titleID)
	})
}

// VerifyChain is read-only and runs once.
func (uc *RetryingReprocessUseCase) VerifyChain(ctx context.Context, walletID string) error {
	return uc.inner.VerifyChain(ctx, walletID)
}
