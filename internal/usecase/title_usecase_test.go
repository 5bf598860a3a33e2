package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
	"github.com/iho/walletledger/internal/usecase/mocks"
)

type orchestratorFixture struct {
	*engineFixture
	outboxRepo *mocks.MockOutboxRepository
	auditRepo  *mocks.MockAuditRepository
	cache      *mocks.MockCache
	balance    *usecase.BalanceUseCase
	titles     *usecase.TitleUseCase
}

func newOrchestratorFixture() *orchestratorFixture {
	engine := newEngineFixture()
	outboxRepo := mocks.NewMockOutboxRepository()
	auditRepo := mocks.NewMockAuditRepository()
	cache := mocks.NewMockCache()

	balance := usecase.NewBalanceUseCase(engine.walletRepo, engine.titleRepo, engine.clock, cache, nil)
	titles := usecase.NewTitleUseCase(
		engine.txManager,
		engine.walletRepo,
		engine.titleRepo,
		engine.reprocess,
		outboxRepo,
		auditRepo,
		engine.idGen,
		engine.clock,
		balance,
		nil,
	)

	return &orchestratorFixture{
		engineFixture: engine,
		outboxRepo:    outboxRepo,
		auditRepo:     auditRepo,
		cache:         cache,
		balance:       balance,
		titles:        titles,
	}
}

func titleInput(walletID string, direction domain.Direction, value int64, date time.Time) usecase.TitleInput {
	return usecase.TitleInput{
		WalletID:  walletID,
		Direction: direction,
		Value:     decimal.NewFromInt(value),
		Date:      date,
	}
}

func TestTitleUseCase_CreateTitle(t *testing.T) {
	t.Run("insert then delete repairs the suffix", func(t *testing.T) {
		// The canonical sequence: initial 1000, +500 on day 1, -200 on
		// day 2, then delete the income and watch the expense re-anchor.
		f := newOrchestratorFixture()
		seedWallet(f.engineFixture, "wal-1", 1000)

		ctx := context.Background()

		entry1, err := f.titles.CreateTitle(ctx, titleInput("wal-1", domain.DirectionIncome, 500, day(1)))
		if err != nil {
			t.Fatalf("create entry1: %v", err)
		}
		if !entry1.PreviousBalance.Equal(decimal.NewFromInt(1000)) {
			t.Errorf("entry1 previous balance: expected 1000, got %s", entry1.PreviousBalance)
		}
		if !entry1.ResultingBalance().Equal(decimal.NewFromInt(1500)) {
			t.Errorf("entry1 resulting balance: expected 1500, got %s", entry1.ResultingBalance())
		}

		entry2, err := f.titles.CreateTitle(ctx, titleInput("wal-1", domain.DirectionExpense, 200, day(2)))
		if err != nil {
			t.Fatalf("create entry2: %v", err)
		}
		if !entry2.PreviousBalance.Equal(decimal.NewFromInt(1500)) {
			t.Errorf("entry2 previous balance: expected 1500, got %s", entry2.PreviousBalance)
		}
		if !entry2.ResultingBalance().Equal(decimal.NewFromInt(1300)) {
			t.Errorf("entry2 resulting balance: expected 1300, got %s", entry2.ResultingBalance())
		}

		if err := f.titles.DeleteTitle(ctx, entry1.ID); err != nil {
			t.Fatalf("delete entry1: %v", err)
		}

		repaired, _ := f.titleRepo.GetByID(ctx, entry2.ID)
		if !repaired.PreviousBalance.Equal(decimal.NewFromInt(1000)) {
			t.Errorf("entry2 after delete: expected previous balance 1000, got %s", repaired.PreviousBalance)
		}
		if !repaired.ResultingBalance().Equal(decimal.NewFromInt(800)) {
			t.Errorf("entry2 after delete: expected resulting balance 800, got %s", repaired.ResultingBalance())
		}

		assertChain(t, f.engineFixture, "wal-1")
	})

	t.Run("backdated insert repairs everything after it", func(t *testing.T) {
		f := newOrchestratorFixture()
		seedWallet(f.engineFixture, "wal-1", 0)

		ctx := context.Background()
		if _, err := f.titles.CreateTitle(ctx, titleInput("wal-1", domain.DirectionIncome, 100, day(5))); err != nil {
			t.Fatalf("create: %v", err)
		}

		early, err := f.titles.CreateTitle(ctx, titleInput("wal-1", domain.DirectionExpense, 40, day(2)))
		if err != nil {
			t.Fatalf("backdated create: %v", err)
		}

		if !early.PreviousBalance.Equal(decimal.Zero) {
			t.Errorf("backdated title previous balance: expected 0, got %s", early.PreviousBalance)
		}

		assertChain(t, f.engineFixture, "wal-1")

		now, err := f.balance.GetBalanceAt(ctx, "wal-1", day(6))
		if err != nil {
			t.Fatalf("balance: %v", err)
		}
		if !now.Equal(decimal.NewFromInt(60)) {
			t.Errorf("expected balance 60, got %s", now)
		}
	})

	t.Run("validation failures", func(t *testing.T) {
		f := newOrchestratorFixture()
		seedWallet(f.engineFixture, "wal-1", 0)

		tests := []struct {
			name  string
			input usecase.TitleInput
			want  error
		}{
			{
				name:  "zero value",
				input: titleInput("wal-1", domain.DirectionIncome, 0, day(1)),
				want:  domain.ErrInvalidAmount,
			},
			{
				name: "unknown direction",
				input: usecase.TitleInput{
					WalletID:  "wal-1",
					Direction: "TRANSFER",
					Value:     decimal.NewFromInt(10),
					Date:      day(1),
				},
				want: domain.ErrInvalidDirection,
			},
			{
				name: "missing date",
				input: usecase.TitleInput{
					WalletID:  "wal-1",
					Direction: domain.DirectionIncome,
					Value:     decimal.NewFromInt(10),
				},
				want: domain.ErrInvalidDate,
			},
			{
				name:  "unknown wallet",
				input: titleInput("missing", domain.DirectionIncome, 10, day(1)),
				want:  domain.ErrWalletNotFound,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := f.titles.CreateTitle(context.Background(), tt.input)
				if !errors.Is(err, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, err)
				}
			})
		}
	})

	t.Run("same minute duplicate rejected", func(t *testing.T) {
		f := newOrchestratorFixture()
		seedWallet(f.engineFixture, "wal-1", 0)

		ctx := context.Background()
		at := day(1)

		if _, err := f.titles.CreateTitle(ctx, titleInput("wal-1", domain.DirectionIncome, 10, at)); err != nil {
			t.Fatalf("create: %v", err)
		}

		_, err := f.titles.CreateTitle(ctx, titleInput("wal-1", domain.DirectionExpense, 5, at.Add(30*time.Second)))
		if !errors.Is(err, domain.ErrDuplicateDate) {
			t.Fatalf("expected ErrDuplicateDate, got %v", err)
		}
	})

	t.Run("inactive wallet rejected", func(t *testing.T) {
		f := newOrchestratorFixture()
		wallet := seedWallet(f.engineFixture, "wal-1", 0)
		wallet.Inactive = true

		_, err := f.titles.CreateTitle(context.Background(), titleInput("wal-1", domain.DirectionIncome, 10, day(1)))
		if !errors.Is(err, domain.ErrWalletInactive) {
			t.Fatalf("expected ErrWalletInactive, got %v", err)
		}
	})

	t.Run("emits outbox event and audit log", func(t *testing.T) {
		f := newOrchestratorFixture()
		seedWallet(f.engineFixture, "wal-1", 0)

		if _, err := f.titles.CreateTitle(context.Background(), titleInput("wal-1", domain.DirectionIncome, 10, day(1))); err != nil {
			t.Fatalf("create: %v", err)
		}

		if len(f.outboxRepo.Events) != 1 || f.outboxRepo.Events[0].EventType != domain.EventTypeTitleCreated {
			t.Errorf("expected one title.created event, got %+v", f.outboxRepo.Events)
		}
		if len(f.auditRepo.Logs) != 1 || f.auditRepo.Logs[0].Action != string(domain.AuditActionTitleCreate) {
			t.Errorf("expected one title.create audit log, got %+v", f.auditRepo.Logs)
		}
	})
}

func TestTitleUseCase_MustReprocess(t *testing.T) {
	existing := &domain.Title{
		WalletID:  "wal-1",
		Value:     decimal.NewFromInt(100),
		Direction: domain.DirectionIncome,
		Date:      day(1),
	}

	base := usecase.TitleInput{
		WalletID:  "wal-1",
		Value:     decimal.NewFromInt(100),
		Direction: domain.DirectionIncome,
		Date:      day(1),
	}

	uc := usecase.NewTitleUseCase(nil, nil, nil, nil, nil, nil, nil, nil, nil, nil)

	tests := []struct {
		name   string
		mutate func(*usecase.TitleInput)
		want   bool
	}{
		{name: "no chain field changed", mutate: func(in *usecase.TitleInput) {
			in.Description = "groceries"
			in.CategoryIDs = []string{"cat-1"}
			in.PeopleIDs = []string{"per-1"}
		}, want: false},
		{name: "date changed", mutate: func(in *usecase.TitleInput) { in.Date = day(2) }, want: true},
		{name: "value changed", mutate: func(in *usecase.TitleInput) { in.Value = decimal.NewFromInt(101) }, want: true},
		{name: "direction changed", mutate: func(in *usecase.TitleInput) { in.Direction = domain.DirectionExpense }, want: true},
		{name: "wallet changed", mutate: func(in *usecase.TitleInput) { in.WalletID = "wal-2" }, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := base
			tt.mutate(&input)

			if got := uc.MustReprocess(existing, input); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestTitleUseCase_UpdateTitle(t *testing.T) {
	t.Run("metadata-only edit never touches the chain", func(t *testing.T) {
		f := newOrchestratorFixture()
		seedWallet(f.engineFixture, "wal-1", 1000)
		seedTitle(f.engineFixture, "t1", "wal-1", domain.DirectionIncome, 500, day(1), 1000)
		seedTitle(f.engineFixture, "t2", "wal-1", domain.DirectionExpense, 200, day(2), 1500)

		recorder := mocks.NewMockReprocessor()
		sumQueries := 0
		f.titleRepo.SumEffectiveFunc = func(ctx context.Context, walletID string, until time.Time) (decimal.Decimal, error) {
			sumQueries++
			return decimal.Zero, nil
		}

		titles := usecase.NewTitleUseCase(
			f.txManager, f.walletRepo, f.titleRepo, recorder,
			f.outboxRepo, f.auditRepo, f.idGen, f.clock, nil, nil,
		)

		input := usecase.TitleInput{
			WalletID:    "wal-1",
			Description: "rent, split with flatmates",
			Value:       decimal.NewFromInt(500),
			Direction:   domain.DirectionIncome,
			Date:        day(1),
			CategoryIDs: []string{"cat-home"},
		}

		updated, err := titles.UpdateTitle(context.Background(), "t1", input)
		if err != nil {
			t.Fatalf("update: %v", err)
		}

		if recorder.Calls != 0 {
			t.Errorf("expected no reprocess calls, got %d", recorder.Calls)
		}
		if sumQueries != 0 {
			t.Errorf("expected no balance queries, got %d", sumQueries)
		}
		if !updated.PreviousBalance.Equal(decimal.NewFromInt(1000)) {
			t.Errorf("previous balance must be untouched, got %s", updated.PreviousBalance)
		}
		if updated.Description != input.Description {
			t.Errorf("description not applied: %q", updated.Description)
		}

		t2, _ := f.titleRepo.GetByID(context.Background(), "t2")
		if !t2.PreviousBalance.Equal(decimal.NewFromInt(1500)) {
			t.Errorf("downstream balance must be untouched, got %s", t2.PreviousBalance)
		}
	})

	t.Run("value change repairs the suffix", func(t *testing.T) {
		f := newOrchestratorFixture()
		seedWallet(f.engineFixture, "wal-1", 0)
		seedTitle(f.engineFixture, "t1", "wal-1", domain.DirectionIncome, 100, day(1), 0)
		seedTitle(f.engineFixture, "t2", "wal-1", domain.DirectionExpense, 30, day(2), 100)
		seedTitle(f.engineFixture, "t3", "wal-1", domain.DirectionIncome, 10, day(3), 70)

		input := titleInput("wal-1", domain.DirectionIncome, 250, day(1))
		updated, err := f.titles.UpdateTitle(context.Background(), "t1", input)
		if err != nil {
			t.Fatalf("update: %v", err)
		}

		if !updated.PreviousBalance.Equal(decimal.Zero) {
			t.Errorf("t1 previous balance: expected 0, got %s", updated.PreviousBalance)
		}

		assertChain(t, f.engineFixture, "wal-1")

		t3, _ := f.titleRepo.GetByID(context.Background(), "t3")
		if !t3.PreviousBalance.Equal(decimal.NewFromInt(220)) {
			t.Errorf("t3 previous balance: expected 220, got %s", t3.PreviousBalance)
		}
	})

	t.Run("date moved later re-anchors at the old position", func(t *testing.T) {
		f := newOrchestratorFixture()
		seedWallet(f.engineFixture, "wal-1", 0)
		seedTitle(f.engineFixture, "t1", "wal-1", domain.DirectionIncome, 100, day(1), 0)
		seedTitle(f.engineFixture, "t2", "wal-1", domain.DirectionExpense, 30, day(2), 100)
		seedTitle(f.engineFixture, "t3", "wal-1", domain.DirectionIncome, 10, day(3), 70)

		input := titleInput("wal-1", domain.DirectionIncome, 100, day(4))
		updated, err := f.titles.UpdateTitle(context.Background(), "t1", input)
		if err != nil {
			t.Fatalf("update: %v", err)
		}

		// Without the income, day 2 and day 3 run negative; the moved
		// title re-joins the chain at its new date.
		if !updated.PreviousBalance.Equal(decimal.NewFromInt(-20)) {
			t.Errorf("t1 previous balance: expected -20, got %s", updated.PreviousBalance)
		}

		assertChain(t, f.engineFixture, "wal-1")

		t2, _ := f.titleRepo.GetByID(context.Background(), "t2")
		if !t2.PreviousBalance.Equal(decimal.Zero) {
			t.Errorf("t2 previous balance: expected 0, got %s", t2.PreviousBalance)
		}
	})

	t.Run("date moved earlier re-anchors at the new position", func(t *testing.T) {
		f := newOrchestratorFixture()
		seedWallet(f.engineFixture, "wal-1", 0)
		seedTitle(f.engineFixture, "t1", "wal-1", domain.DirectionIncome, 100, day(1), 0)
		seedTitle(f.engineFixture, "t2", "wal-1", domain.DirectionExpense, 30, day(2), 100)
		seedTitle(f.engineFixture, "t3", "wal-1", domain.DirectionIncome, 10, day(3), 70)

		input := titleInput("wal-1", domain.DirectionIncome, 10, day(0))
		updated, err := f.titles.UpdateTitle(context.Background(), "t3", input)
		if err != nil {
			t.Fatalf("update: %v", err)
		}

		if !updated.PreviousBalance.Equal(decimal.Zero) {
			t.Errorf("t3 previous balance: expected 0, got %s", updated.PreviousBalance)
		}

		assertChain(t, f.engineFixture, "wal-1")

		t1, _ := f.titleRepo.GetByID(context.Background(), "t1")
		if !t1.PreviousBalance.Equal(decimal.NewFromInt(10)) {
			t.Errorf("t1 previous balance: expected 10, got %s", t1.PreviousBalance)
		}
	})

	t.Run("move between wallets repairs both chains", func(t *testing.T) {
		f := newOrchestratorFixture()
		seedWallet(f.engineFixture, "wal-a", 100)
		seedWallet(f.engineFixture, "wal-b", 50)
		seedTitle(f.engineFixture, "a1", "wal-a", domain.DirectionIncome, 10, day(1), 100)
		seedTitle(f.engineFixture, "a2", "wal-a", domain.DirectionExpense, 5, day(2), 110)
		seedTitle(f.engineFixture, "a3", "wal-a", domain.DirectionIncome, 20, day(3), 105)
		seedTitle(f.engineFixture, "b1", "wal-b", domain.DirectionIncome, 40, day(4), 50)

		input := titleInput("wal-b", domain.DirectionExpense, 5, day(2))
		moved, err := f.titles.UpdateTitle(context.Background(), "a2", input)
		if err != nil {
			t.Fatalf("move: %v", err)
		}

		if moved.WalletID != "wal-b" {
			t.Fatalf("expected wallet wal-b, got %s", moved.WalletID)
		}
		if !moved.PreviousBalance.Equal(decimal.NewFromInt(50)) {
			t.Errorf("moved title previous balance: expected 50, got %s", moved.PreviousBalance)
		}

		// Both chains must individually satisfy the invariant.
		assertChain(t, f.engineFixture, "wal-a", "wal-b")

		a3, _ := f.titleRepo.GetByID(context.Background(), "a3")
		if !a3.PreviousBalance.Equal(decimal.NewFromInt(110)) {
			t.Errorf("origin suffix: expected a3 previous balance 110, got %s", a3.PreviousBalance)
		}

		b1, _ := f.titleRepo.GetByID(context.Background(), "b1")
		if !b1.PreviousBalance.Equal(decimal.NewFromInt(45)) {
			t.Errorf("destination suffix: expected b1 previous balance 45, got %s", b1.PreviousBalance)
		}

		ctx := context.Background()
		balanceA, _ := f.balance.GetBalanceAt(ctx, "wal-a", day(30))
		balanceB, _ := f.balance.GetBalanceAt(ctx, "wal-b", day(30))

		if !balanceA.Equal(decimal.NewFromInt(130)) {
			t.Errorf("wallet A final balance: expected 130, got %s", balanceA)
		}
		if !balanceB.Equal(decimal.NewFromInt(85)) {
			t.Errorf("wallet B final balance: expected 85, got %s", balanceB)
		}
	})

	t.Run("move to inactive wallet rejected", func(t *testing.T) {
		f := newOrchestratorFixture()
		seedWallet(f.engineFixture, "wal-a", 0)
		frozen := seedWallet(f.engineFixture, "wal-b", 0)
		frozen.Inactive = true
		seedTitle(f.engineFixture, "a1", "wal-a", domain.DirectionIncome, 10, day(1), 0)

		_, err := f.titles.UpdateTitle(context.Background(), "a1", titleInput("wal-b", domain.DirectionIncome, 10, day(1)))
		if !errors.Is(err, domain.ErrWalletInactive) {
			t.Fatalf("expected ErrWalletInactive, got %v", err)
		}
	})

	t.Run("title not found", func(t *testing.T) {
		f := newOrchestratorFixture()
		seedWallet(f.engineFixture, "wal-1", 0)

		_, err := f.titles.UpdateTitle(context.Background(), "missing", titleInput("wal-1", domain.DirectionIncome, 10, day(1)))
		if !errors.Is(err, domain.ErrTitleNotFound) {
			t.Fatalf("expected ErrTitleNotFound, got %v", err)
		}
	})
}

func TestTitleUseCase_PrepareUpdateContext(t *testing.T) {
	f := newOrchestratorFixture()
	seedWallet(f.engineFixture, "wal-1", 0)
	existing := seedTitle(f.engineFixture, "t1", "wal-1", domain.DirectionIncome, 100, day(1), 0)
	existing.CategoryIDs = []string{"cat-1", "cat-2"}
	existing.PeopleIDs = []string{"per-1"}

	input := usecase.TitleInput{
		WalletID:    "wal-1",
		Value:       decimal.NewFromInt(100),
		Direction:   domain.DirectionIncome,
		Date:        day(1),
		CategoryIDs: []string{"cat-2", "cat-3"},
	}

	uctx, err := f.titles.PrepareUpdateContext(context.Background(), nil, existing, input, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if uctx.PreviousWalletID != "wal-1" || !uctx.PreviousDate.Equal(day(1)) {
		t.Errorf("old position not snapshotted: %+v", uctx)
	}
	if len(uctx.CategoriesToRemove) != 1 || uctx.CategoriesToRemove[0] != "cat-1" {
		t.Errorf("expected cat-1 to be removed, got %v", uctx.CategoriesToRemove)
	}
	if len(uctx.PeopleToRemove) != 1 || uctx.PeopleToRemove[0] != "per-1" {
		t.Errorf("expected per-1 to be removed, got %v", uctx.PeopleToRemove)
	}
}
