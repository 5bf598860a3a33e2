package dto

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

func TestCreateWalletRequest_ToUseCaseInput(t *testing.T) {
	req := &CreateWalletRequest{
		TenantID:       "tenant-1",
		Name:           "checking",
		InitialBalance: decimal.NewFromInt(1000),
	}

	got := req.ToUseCaseInput()
	want := usecase.CreateWalletInput{
		TenantID:       "tenant-1",
		Name:           "checking",
		InitialBalance: decimal.NewFromInt(1000),
	}

	if got.TenantID != want.TenantID || got.Name != want.Name || !got.InitialBalance.Equal(want.InitialBalance) {
		t.Fatalf("ToUseCaseInput() = %+v, want %+v", got, want)
	}
}

func TestTitleRequest_ToUseCaseInput(t *testing.T) {
	date := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)

	req := &TitleRequest{
		WalletID:    "wal-1",
		Description: "rent",
		Value:       decimal.RequireFromString("1250.50"),
		Direction:   "EXPENSE",
		Date:        date,
		CategoryIDs: []string{"cat-1"},
		PeopleIDs:   []string{"per-1", "per-2"},
	}

	got := req.ToUseCaseInput()

	if got.WalletID != "wal-1" || got.Description != "rent" {
		t.Fatalf("unexpected input: %+v", got)
	}
	if got.Direction != domain.DirectionExpense {
		t.Fatalf("expected direction EXPENSE, got %s", got.Direction)
	}
	if !got.Value.Equal(decimal.RequireFromString("1250.50")) {
		t.Fatalf("expected value 1250.50, got %s", got.Value)
	}
	if !got.Date.Equal(date) {
		t.Fatalf("expected date %s, got %s", date, got.Date)
	}
	if len(got.CategoryIDs) != 1 || len(got.PeopleIDs) != 2 {
		t.Fatalf("expected tag IDs to carry over, got %+v", got)
	}
}

func TestTitleRequest_ToUseCaseInput_UnknownDirection(t *testing.T) {
	req := &TitleRequest{WalletID: "wal-1", Direction: "SIDEWAYS"}

	// The conversion is mechanical; direction validity is the use case's
	// concern.
	got := req.ToUseCaseInput()
	if got.Direction.Valid() {
		t.Fatalf("expected invalid direction, got %s", got.Direction)
	}
}
