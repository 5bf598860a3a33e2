package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidWalletName = errors.New("invalid wallet name")
	ErrAmountTooLarge    = errors.New("amount exceeds maximum allowed")
)

// Validation constants
const (
	MaxWalletNameLength = 255
	MinWalletNameLength = 1

	// MaxBalanceValue bounds every balance in a chain. shopspring/decimal is
	// arbitrary precision, so this is the fixed-point range the store and the
	// chain arithmetic are allowed to reach; crossing it is fatal.
	MaxBalanceValue = "1000000000000" // 1 trillion
	MaxTitleValue   = "1000000000"    // 1 billion per movement
)

// MaxBalance returns the balance magnitude bound as a decimal.
func MaxBalance() decimal.Decimal {
	d, _ := decimal.NewFromString(MaxBalanceValue)
	return d
}

// ValidateWalletName validates a wallet name.
func ValidateWalletName(name string) error {
	name = strings.TrimSpace(name)

	if len(name) < MinWalletNameLength {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidWalletName)
	}

	if len(name) > MaxWalletNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidWalletName, MaxWalletNameLength)
	}

	return nil
}

// ValidateTitleValue validates a title's monetary magnitude.
func ValidateTitleValue(value decimal.Decimal) error {
	if value.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	maxValue, _ := decimal.NewFromString(MaxTitleValue)
	if value.GreaterThan(maxValue) {
		return fmt.Errorf("%w: maximum value is %s", ErrAmountTooLarge, MaxTitleValue)
	}

	return nil
}

// ValidateBalance checks a running balance against the fixed-point range.
func ValidateBalance(balance decimal.Decimal) error {
	if balance.Abs().GreaterThan(MaxBalance()) {
		return fmt.Errorf("%w: |%s| > %s", ErrBalanceOutOfRange, balance, MaxBalanceValue)
	}

	return nil
}

// ValidatePagination validates and limits pagination parameters.
func ValidatePagination(limit, offset int) (int, int) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
