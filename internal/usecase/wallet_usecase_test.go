package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
	"github.com/iho/walletledger/internal/usecase/mocks"
)

func newWalletFixture() (*usecase.WalletUseCase, *mocks.MockWalletRepository, *mocks.MockOutboxRepository) {
	walletRepo := mocks.NewMockWalletRepository()
	outboxRepo := mocks.NewMockOutboxRepository()
	txManager := mocks.NewMockTransactionManager()
	idGen := mocks.NewMockIDGenerator()
	clock := mocks.NewMockClock(day(0))

	return usecase.NewWalletUseCase(txManager, walletRepo, outboxRepo, idGen, clock, nil), walletRepo, outboxRepo
}

func TestWalletUseCase_CreateWallet(t *testing.T) {
	t.Run("creates a wallet and emits an event", func(t *testing.T) {
		uc, walletRepo, outboxRepo := newWalletFixture()

		wallet, err := uc.CreateWallet(context.Background(), usecase.CreateWalletInput{
			TenantID:       "tenant-1",
			Name:           "checking",
			InitialBalance: decimal.NewFromInt(1000),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if wallet.ID == "" {
			t.Error("expected a generated ID")
		}
		if !wallet.InitialBalance.Equal(decimal.NewFromInt(1000)) {
			t.Errorf("initial balance: expected 1000, got %s", wallet.InitialBalance)
		}
		if wallet.CreatedAt.IsZero() {
			t.Error("expected CreatedAt to be set")
		}

		stored, err := walletRepo.GetByID(context.Background(), wallet.ID)
		if err != nil {
			t.Fatalf("wallet not persisted: %v", err)
		}
		if stored.TenantID != "tenant-1" {
			t.Errorf("tenant: expected tenant-1, got %s", stored.TenantID)
		}

		if len(outboxRepo.Events) != 1 || outboxRepo.Events[0].EventType != domain.EventTypeWalletCreated {
			t.Errorf("expected one wallet.created event, got %+v", outboxRepo.Events)
		}
	})

	t.Run("outbox failure rolls back the creation", func(t *testing.T) {
		walletRepo := mocks.NewMockWalletRepository()
		outboxRepo := mocks.NewMockOutboxRepository()
		txManager := mocks.NewMockTransactionManager()
		outboxRepo.CreateFunc = func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
			return errors.New("outbox insert failed")
		}

		uc := usecase.NewWalletUseCase(txManager, walletRepo, outboxRepo,
			mocks.NewMockIDGenerator(), mocks.NewMockClock(day(0)), nil)

		_, err := uc.CreateWallet(context.Background(), usecase.CreateWalletInput{
			TenantID:       "tenant-1",
			Name:           "checking",
			InitialBalance: decimal.NewFromInt(1000),
		})
		if err == nil {
			t.Fatal("expected the outbox failure to surface")
		}

		if len(txManager.Transactions) != 1 {
			t.Fatalf("expected one transaction, got %d", len(txManager.Transactions))
		}
		tx := txManager.Transactions[0]
		if tx.Committed || !tx.RolledBack {
			t.Error("wallet insert and outbox write must commit or roll back together")
		}
	})

	t.Run("validation", func(t *testing.T) {
		uc, _, _ := newWalletFixture()

		tests := []struct {
			name  string
			input usecase.CreateWalletInput
			want  error
		}{
			{
				name:  "empty name",
				input: usecase.CreateWalletInput{TenantID: "tenant-1"},
				want:  domain.ErrInvalidWalletName,
			},
			{
				name: "name too long",
				input: usecase.CreateWalletInput{
					TenantID: "tenant-1",
					Name:     strings.Repeat("x", domain.MaxWalletNameLength+1),
				},
				want: domain.ErrInvalidWalletName,
			},
			{
				name: "initial balance out of range",
				input: usecase.CreateWalletInput{
					TenantID:       "tenant-1",
					Name:           "savings",
					InitialBalance: domain.MaxBalance().Add(decimal.NewFromInt(1)),
				},
				want: domain.ErrBalanceOutOfRange,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := uc.CreateWallet(context.Background(), tt.input)
				if !errors.Is(err, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, err)
				}
			})
		}
	})
}

func TestWalletUseCase_GetWallet(t *testing.T) {
	uc, walletRepo, _ := newWalletFixture()
	walletRepo.Add(&domain.Wallet{ID: "wal-1", TenantID: "tenant-1", Name: "checking"})

	wallet, err := uc.GetWallet(context.Background(), "wal-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if wallet.Name != "checking" {
		t.Errorf("expected checking, got %s", wallet.Name)
	}

	_, err = uc.GetWallet(context.Background(), "missing")
	if !errors.Is(err, domain.ErrWalletNotFound) {
		t.Fatalf("expected ErrWalletNotFound, got %v", err)
	}
}

func TestWalletUseCase_ListWallets(t *testing.T) {
	uc, walletRepo, _ := newWalletFixture()
	walletRepo.Add(&domain.Wallet{ID: "wal-1", TenantID: "tenant-1"})
	walletRepo.Add(&domain.Wallet{ID: "wal-2", TenantID: "tenant-1"})
	walletRepo.Add(&domain.Wallet{ID: "wal-3", TenantID: "tenant-2"})

	wallets, err := uc.ListWallets(context.Background(), usecase.ListWalletsInput{TenantID: "tenant-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(wallets) != 2 {
		t.Fatalf("expected 2 wallets, got %d", len(wallets))
	}
}
