package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction indicates whether a title adds to or subtracts from a wallet.
type Direction string

const (
	DirectionIncome  Direction = "INCOME"
	DirectionExpense Direction = "EXPENSE"
)

// Valid reports whether the direction is one of the two known variants.
func (d Direction) Valid() bool {
	return d == DirectionIncome || d == DirectionExpense
}

// Title represents a single dated monetary movement against a wallet.
// PreviousBalance is the wallet balance immediately before this title, as of
// the last reprocess; the resulting balance is always derived from it.
type Title struct {
	ID              string
	TenantID        string
	WalletID        string
	Description     string
	Value           decimal.Decimal // non-negative magnitude
	Direction       Direction
	Date            time.Time // minute granularity, chronological sort key
	PreviousBalance decimal.Decimal
	CategoryIDs     []string
	PeopleIDs       []string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// EffectiveValue returns the signed contribution of the title to the balance.
func (t *Title) EffectiveValue() decimal.Decimal {
	if t.Direction == DirectionExpense {
		return t.Value.Neg()
	}
	return t.Value
}

// ResultingBalance returns the wallet balance immediately after this title.
func (t *Title) ResultingBalance() decimal.Decimal {
	return t.PreviousBalance.Add(t.EffectiveValue())
}

// SameMinute reports whether two instants fall in the same calendar minute.
// Titles of one wallet are unique per minute; id breaks any remaining tie.
func SameMinute(a, b time.Time) bool {
	return a.UTC().Truncate(time.Minute).Equal(b.UTC().Truncate(time.Minute))
}

// CompareChainOrder orders titles by (date, id) ascending, the total order the
// balance chain is defined over.
func CompareChainOrder(a, b *Title) int {
	if a.Date.Before(b.Date) {
		return -1
	}
	if a.Date.After(b.Date) {
		return 1
	}
	switch {
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	default:
		return 0
	}
}
