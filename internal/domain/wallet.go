package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet represents a ledger wallet owned by a tenant.
// InitialBalance anchors the balance chain and never changes after creation;
// the current balance is always derived from the titles, never stored.
type Wallet struct {
	ID             string
	TenantID       string
	Name           string
	InitialBalance decimal.Decimal
	Inactive       bool
	CreatedAt      time.Time
}

// ExistedAt reports whether the wallet existed at the given instant.
// Queries before creation answer zero, not InitialBalance.
func (w *Wallet) ExistedAt(at time.Time) bool {
	return !at.Before(w.CreatedAt)
}
