package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidateWalletName(t *testing.T) {
	t.Parallel()

	t.Run("valid name", func(t *testing.T) {
		if err := ValidateWalletName("Household expenses"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("empty name rejected", func(t *testing.T) {
		err := ValidateWalletName("   ")
		if !errors.Is(err, ErrInvalidWalletName) {
			t.Fatalf("expected ErrInvalidWalletName, got %v", err)
		}
	})

	t.Run("name too long", func(t *testing.T) {
		tooLong := strings.Repeat("a", MaxWalletNameLength+1)
		err := ValidateWalletName(tooLong)
		if !errors.Is(err, ErrInvalidWalletName) {
			t.Fatalf("expected ErrInvalidWalletName, got %v", err)
		}
	})
}

func TestValidateTitleValue(t *testing.T) {
	t.Parallel()

	t.Run("positive value accepted", func(t *testing.T) {
		if err := ValidateTitleValue(decimal.RequireFromString("19.90")); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("zero rejected", func(t *testing.T) {
		err := ValidateTitleValue(decimal.Zero)
		if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("expected ErrInvalidAmount, got %v", err)
		}
	})

	t.Run("negative rejected", func(t *testing.T) {
		err := ValidateTitleValue(decimal.NewFromInt(-1))
		if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("expected ErrInvalidAmount, got %v", err)
		}
	})

	t.Run("above maximum rejected", func(t *testing.T) {
		huge, _ := decimal.NewFromString(MaxTitleValue)
		err := ValidateTitleValue(huge.Add(decimal.NewFromInt(1)))
		if !errors.Is(err, ErrAmountTooLarge) {
			t.Fatalf("expected ErrAmountTooLarge, got %v", err)
		}
	})
}

func TestValidateBalance(t *testing.T) {
	t.Parallel()

	if err := ValidateBalance(decimal.NewFromInt(-5000)); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	over := MaxBalance().Add(decimal.NewFromInt(1))
	if err := ValidateBalance(over); !errors.Is(err, ErrBalanceOutOfRange) {
		t.Fatalf("expected ErrBalanceOutOfRange, got %v", err)
	}

	if err := ValidateBalance(over.Neg()); !errors.Is(err, ErrBalanceOutOfRange) {
		t.Fatalf("expected ErrBalanceOutOfRange for negative overflow, got %v", err)
	}
}

func TestValidatePagination(t *testing.T) {
	t.Parallel()

	limit, offset := ValidatePagination(0, -3)
	if limit != 50 || offset != 0 {
		t.Fatalf("expected defaults (50, 0), got (%d, %d)", limit, offset)
	}

	limit, _ = ValidatePagination(5000, 0)
	if limit != 1000 {
		t.Fatalf("expected limit capped at 1000, got %d", limit)
	}
}
