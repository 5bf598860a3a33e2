package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/infrastructure/metrics"
)

// ReprocessUseCase is the chain-repair engine. Given a starting balance and an
// ordered run of titles it rewrites each title's previous balance so that the
// chain invariant holds: title[0].PreviousBalance equals the starting balance
// and every later title starts where its predecessor ended.
type ReprocessUseCase struct {
	txManager  TransactionManager
	walletRepo WalletRepository
	titleRepo  TitleRepository
	outboxRepo OutboxRepository
	idGen      IDGenerator
	clock      Clock
	metrics    *metrics.Metrics
}

// NewReprocessUseCase creates a new ReprocessUseCase. outboxRepo and metrics
// may be nil.
func NewReprocessUseCase(
	txManager TransactionManager,
	walletRepo WalletRepository,
	titleRepo TitleRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	clock Clock,
	metrics *metrics.Metrics,
) *ReprocessUseCase {
	return &ReprocessUseCase{
		txManager:  txManager,
		walletRepo: walletRepo,
		titleRepo:  titleRepo,
		outboxRepo: outboxRepo,
		idGen:      idGen,
		clock:      clock,
		metrics:    metrics,
	}
}

func (uc *ReprocessUseCase) observeRun(kind string, start time.Time, rewritten int) {
	if uc.metrics == nil {
		return
	}
	uc.metrics.ReprocessRuns.WithLabelValues(kind).Inc()
	uc.metrics.ReprocessDuration.Observe(time.Since(start).Seconds())
	uc.metrics.ReprocessRewritten.Observe(float64(rewritten))
}

// ReprocessWallet rewrites the whole chain of a wallet from startingBalance
// (normally the wallet's initial balance) in its own transaction. The wallet
// row is locked for the duration of the walk; either every rewritten title is
// committed together or none is.
func (uc *ReprocessUseCase) ReprocessWallet(ctx context.Context, walletID string, startingBalance decimal.Decimal) error {
	start := time.Now()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	wallet, err := uc.walletRepo.GetByIDForUpdate(ctx, tx, walletID)
	if err != nil {
		return err
	}

	titles, err := uc.titleRepo.GetChain(ctx, tx, wallet.ID)
	if err != nil {
		return err
	}

	final, rewritten, err := uc.walk(ctx, tx, titles, startingBalance)
	if err != nil {
		return err
	}

	if uc.outboxRepo != nil {
		event := &domain.OutboxEvent{
			ID:            uc.idGen.Generate(),
			AggregateID:   wallet.ID,
			AggregateType: domain.AggregateTypeWallet,
			EventType:     domain.EventTypeWalletReprocessed,
			Payload: domain.MarshalState(domain.WalletReprocessedEvent{
				WalletID:        wallet.ID,
				TitlesRewritten: rewritten,
				StartingBalance: startingBalance.String(),
				FinalBalance:    final.String(),
			}),
			CreatedAt: uc.clock.Now(),
		}

		if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	uc.observeRun("full", start, rewritten)

	return nil
}

// ReprocessTitles walks an already-loaded, already-ordered run of titles
// inside the caller's transaction. Callers hand over the suffix they have
// just fetched, so the engine does not load it a second time.
func (uc *ReprocessUseCase) ReprocessTitles(ctx context.Context, tx Transaction, titles []*domain.Title, startingBalance decimal.Decimal) error {
	_, _, err := uc.walk(ctx, tx, titles, startingBalance)
	return err
}

// ReprocessFrom patches only the suffix that follows one title: every title in
// the same wallet with a later date is rewritten starting from the anchor
// title's resulting balance. This is the common path; most edits land near the
// end of history, so the suffix is small.
func (uc *ReprocessUseCase) ReprocessFrom(ctx context.Context, titleID string) error {
	start := time.Now()

	peek, err := uc.titleRepo.GetByID(ctx, titleID)
	if err != nil {
		return err
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// Lock the wallet first; the title is re-read under the lock so the
	// anchor balance cannot be stale.
	if _, err := uc.walletRepo.GetByIDForUpdate(ctx, tx, peek.WalletID); err != nil {
		return err
	}

	title, err := uc.titleRepo.GetByIDForUpdate(ctx, tx, titleID)
	if err != nil {
		return err
	}

	// The title row lock blocks until a concurrent move commits. Walking the
	// suffix then would rewrite the new wallet's chain while holding only the
	// old wallet's lock.
	if title.WalletID != peek.WalletID {
		return fmt.Errorf("title %s changed wallets concurrently", titleID)
	}

	suffix, err := uc.titleRepo.GetSuffix(ctx, tx, title.WalletID, title.Date, title.ID)
	if err != nil {
		return err
	}

	_, rewritten, err := uc.walk(ctx, tx, suffix, title.ResultingBalance())
	if err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	uc.observeRun("suffix", start, rewritten)

	return nil
}

// VerifyChain checks the chain invariant over a wallet's full chain and
// returns ErrChainInconsistent at the first broken link.
func (uc *ReprocessUseCase) VerifyChain(ctx context.Context, walletID string) error {
	wallet, err := uc.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return err
	}

	titles, err := uc.titleRepo.GetChain(ctx, nil, walletID)
	if err != nil {
		return err
	}

	expected := wallet.InitialBalance
	for _, title := range titles {
		if !title.PreviousBalance.Equal(expected) {
			if uc.metrics != nil {
				uc.metrics.ChainVerifications.WithLabelValues("inconsistent").Inc()
			}
			return fmt.Errorf("%w: title %s expected previous balance %s, found %s",
				domain.ErrChainInconsistent, title.ID, expected, title.PreviousBalance)
		}

		expected = title.ResultingBalance()
	}

	if uc.metrics != nil {
		uc.metrics.ChainVerifications.WithLabelValues("consistent").Inc()
	}

	return nil
}

// walk is the single forward pass shared by every reprocess path. It persists
// each rewritten title through the transaction and checks the balance range
// at every step. Cancellation is cooperative and coarse: an aborted walk rolls
// back with the enclosing transaction, never commits a partial chain.
func (uc *ReprocessUseCase) walk(ctx context.Context, tx Transaction, titles []*domain.Title, startingBalance decimal.Decimal) (decimal.Decimal, int, error) {
	running := startingBalance
	if err := domain.ValidateBalance(running); err != nil {
		return decimal.Zero, 0, err
	}

	rewritten := 0
	for i, title := range titles {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return decimal.Zero, 0, err
			}
		}

		if !title.PreviousBalance.Equal(running) {
			title.PreviousBalance = running
			if err := uc.titleRepo.UpdatePreviousBalance(ctx, tx, title.ID, running); err != nil {
				return decimal.Zero, 0, err
			}

			rewritten++
		}

		running = running.Add(title.EffectiveValue())
		if err := domain.ValidateBalance(running); err != nil {
			return decimal.Zero, 0, err
		}
	}

	return running, rewritten, nil
}
