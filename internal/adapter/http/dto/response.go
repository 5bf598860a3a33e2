package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
)

// WalletResponse represents a wallet in API responses.
type WalletResponse struct {
	ID             string          `json:"id"`
	TenantID       string          `json:"tenant_id"`
	Name           string          `json:"name"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
	Inactive       bool            `json:"inactive"`
	CreatedAt      time.Time       `json:"created_at"`
}

// WalletFromDomain converts a domain wallet to a response.
func WalletFromDomain(w *domain.Wallet) *WalletResponse {
	return &WalletResponse{
		ID:             w.ID,
		TenantID:       w.TenantID,
		Name:           w.Name,
		InitialBalance: w.InitialBalance,
		Inactive:       w.Inactive,
		CreatedAt:      w.CreatedAt,
	}
}

// WalletsFromDomain converts domain wallets to responses.
func WalletsFromDomain(wallets []*domain.Wallet) []*WalletResponse {
	result := make([]*WalletResponse, len(wallets))
	for i, w := range wallets {
		result[i] = WalletFromDomain(w)
	}
	return result
}

// ListWalletsResponse wraps a wallet listing.
type ListWalletsResponse struct {
	Wallets []*WalletResponse `json:"wallets"`
	Total   int64             `json:"total"`
}

// TitleResponse represents a title in API responses. ResultingBalance is
// derived, never stored.
type TitleResponse struct {
	ID               string          `json:"id"`
	WalletID         string          `json:"wallet_id"`
	Description      string          `json:"description"`
	Value            decimal.Decimal `json:"value"`
	Direction        string          `json:"direction"`
	Date             time.Time       `json:"date"`
	PreviousBalance  decimal.Decimal `json:"previous_balance"`
	ResultingBalance decimal.Decimal `json:"resulting_balance"`
	CategoryIDs      []string        `json:"category_ids,omitempty"`
	PeopleIDs        []string        `json:"people_ids,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// TitleFromDomain converts a domain title to a response.
func TitleFromDomain(t *domain.Title) *TitleResponse {
	return &TitleResponse{
		ID:               t.ID,
		WalletID:         t.WalletID,
		Description:      t.Description,
		Value:            t.Value,
		Direction:        string(t.Direction),
		Date:             t.Date,
		PreviousBalance:  t.PreviousBalance,
		ResultingBalance: t.ResultingBalance(),
		CategoryIDs:      t.CategoryIDs,
		PeopleIDs:        t.PeopleIDs,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}

// TitlesFromDomain converts domain titles to responses.
func TitlesFromDomain(titles []*domain.Title) []*TitleResponse {
	result := make([]*TitleResponse, len(titles))
	for i, t := range titles {
		result[i] = TitleFromDomain(t)
	}
	return result
}

// ListTitlesResponse wraps a title listing.
type ListTitlesResponse struct {
	Titles []*TitleResponse `json:"titles"`
	Total  int64            `json:"total"`
}

// BalanceResponse represents a point-in-time balance.
type BalanceResponse struct {
	WalletID string          `json:"wallet_id"`
	At       time.Time       `json:"at"`
	Balance  decimal.Decimal `json:"balance"`
}

// ChainResponse reports the result of a chain verification.
type ChainResponse struct {
	WalletID   string `json:"wallet_id"`
	Consistent bool   `json:"consistent"`
	Detail     string `json:"detail,omitempty"`
}

// ReprocessResponse acknowledges a completed reprocess run.
type ReprocessResponse struct {
	WalletID string `json:"wallet_id"`
	Status   string `json:"status"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
