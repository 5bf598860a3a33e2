package usecase

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/infrastructure/metrics"
)

// WalletUseCase handles wallet business logic.
type WalletUseCase struct {
	txManager  TransactionManager
	walletRepo WalletRepository
	outboxRepo OutboxRepository
	idGen      IDGenerator
	clock      Clock
	metrics    *metrics.Metrics
}

// NewWalletUseCase creates a new WalletUseCase. outboxRepo and metrics may be
// nil.
func NewWalletUseCase(
	txManager TransactionManager,
	walletRepo WalletRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	clock Clock,
	metrics *metrics.Metrics,
) *WalletUseCase {
	return &WalletUseCase{
		txManager:  txManager,
		walletRepo: walletRepo,
		outboxRepo: outboxRepo,
		idGen:      idGen,
		clock:      clock,
		metrics:    metrics,
	}
}

// CreateWalletInput represents input for creating a wallet.
type CreateWalletInput struct {
	TenantID       string
	Name           string
	InitialBalance decimal.Decimal
}

// CreateWallet creates a new wallet. The initial balance anchors the title
// chain and is immutable from then on.
func (uc *WalletUseCase) CreateWallet(ctx context.Context, input CreateWalletInput) (*domain.Wallet, error) {
	if err := domain.ValidateWalletName(input.Name); err != nil {
		return nil, err
	}

	if err := domain.ValidateBalance(input.InitialBalance); err != nil {
		return nil, err
	}

	wallet := &domain.Wallet{
		ID:             uc.idGen.Generate(),
		TenantID:       input.TenantID,
		Name:           input.Name,
		InitialBalance: input.InitialBalance,
		CreatedAt:      uc.clock.Now(),
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := uc.walletRepo.Create(ctx, tx, wallet); err != nil {
		return nil, err
	}

	if uc.outboxRepo != nil {
		event := &domain.OutboxEvent{
			ID:            uc.idGen.Generate(),
			AggregateID:   wallet.ID,
			AggregateType: domain.AggregateTypeWallet,
			EventType:     domain.EventTypeWalletCreated,
			Payload: domain.MarshalState(domain.WalletCreatedEvent{
				WalletID:       wallet.ID,
				TenantID:       wallet.TenantID,
				InitialBalance: wallet.InitialBalance.String(),
			}),
			CreatedAt: uc.clock.Now(),
		}

		if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.WalletsCreated.Inc()
	}

	return wallet, nil
}

// GetWallet retrieves a wallet by ID.
func (uc *WalletUseCase) GetWallet(ctx context.Context, id string) (*domain.Wallet, error) {
	return uc.walletRepo.GetByID(ctx, id)
}

// ListWalletsInput represents input for listing wallets.
type ListWalletsInput struct {
	TenantID string
	Limit    int
	Offset   int
}

// ListWallets lists wallets of a tenant with pagination.
func (uc *WalletUseCase) ListWallets(ctx context.Context, input ListWalletsInput) ([]*domain.Wallet, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)
	return uc.walletRepo.List(ctx, input.TenantID, limit, offset)
}
