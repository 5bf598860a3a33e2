package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/infrastructure/metrics"
)

// BalanceUseCase answers point-in-time balance queries. It is read-only: the
// wallet's current balance is always derived from the title chain, never
// stored on the wallet row.
type BalanceUseCase struct {
	walletRepo WalletRepository
	titleRepo  TitleRepository
	clock      Clock
	cache      Cache // optional; only fronts GetBalanceNow
	metrics    *metrics.Metrics
}

// NewBalanceUseCase creates a new BalanceUseCase. cache and metrics may be
// nil.
func NewBalanceUseCase(walletRepo WalletRepository, titleRepo TitleRepository, clock Clock, cache Cache, metrics *metrics.Metrics) *BalanceUseCase {
	return &BalanceUseCase{
		walletRepo: walletRepo,
		titleRepo:  titleRepo,
		clock:      clock,
		cache:      cache,
		metrics:    metrics,
	}
}

// GetBalanceAt returns the wallet balance immediately after all titles with
// date <= at. Instants before the wallet's creation answer zero.
func (uc *BalanceUseCase) GetBalanceAt(ctx context.Context, walletID string, at time.Time) (decimal.Decimal, error) {
	wallet, err := uc.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return decimal.Zero, err
	}

	if !wallet.ExistedAt(at) {
		return decimal.Zero, nil
	}

	sum, err := uc.titleRepo.SumEffective(ctx, walletID, at)
	if err != nil {
		return decimal.Zero, err
	}

	return wallet.InitialBalance.Add(sum), nil
}

// GetBalanceNow returns the wallet balance as of the clock's current instant,
// fronted by a short-TTL cache that mutations invalidate per wallet.
func (uc *BalanceUseCase) GetBalanceNow(ctx context.Context, walletID string) (decimal.Decimal, error) {
	if uc.cache != nil {
		if cached, err := uc.cache.Get(ctx, balanceCacheKey(walletID)); err == nil {
			if balance, perr := decimal.NewFromString(cached); perr == nil {
				if uc.metrics != nil {
					uc.metrics.BalanceCacheHits.Inc()
				}
				return balance, nil
			}
		}
		if uc.metrics != nil {
			uc.metrics.BalanceCacheMisses.Inc()
		}
	}

	balance, err := uc.GetBalanceAt(ctx, walletID, uc.clock.Now())
	if err != nil {
		return decimal.Zero, err
	}

	if uc.cache != nil {
		_ = uc.cache.Set(ctx, balanceCacheKey(walletID), balance.String(), BalanceCacheTTL)
	}

	return balance, nil
}

// InvalidateBalance drops the cached current balance for a wallet. Callers
// invoke it after every committed mutation that touched the wallet's chain.
func (uc *BalanceUseCase) InvalidateBalance(ctx context.Context, walletID string) error {
	if uc.cache == nil {
		return nil
	}

	err := uc.cache.Delete(ctx, balanceCacheKey(walletID))
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}

func balanceCacheKey(walletID string) string {
	return "wallet:" + walletID + ":balance"
}
