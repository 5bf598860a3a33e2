package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// CreateWalletRequest represents a request to create a wallet.
type CreateWalletRequest struct {
	TenantID       string          `json:"tenant_id"`
	Name           string          `json:"name"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateWalletRequest) ToUseCaseInput() usecase.CreateWalletInput {
	return usecase.CreateWalletInput{
		TenantID:       r.TenantID,
		Name:           r.Name,
		InitialBalance: r.InitialBalance,
	}
}

// TitleRequest represents a request to create or update a title.
type TitleRequest struct {
	WalletID    string          `json:"wallet_id"`
	Description string          `json:"description"`
	Value       decimal.Decimal `json:"value"`
	Direction   string          `json:"direction"`
	Date        time.Time       `json:"date"`
	CategoryIDs []string        `json:"category_ids,omitempty"`
	PeopleIDs   []string        `json:"people_ids,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *TitleRequest) ToUseCaseInput() usecase.TitleInput {
	return usecase.TitleInput{
		WalletID:    r.WalletID,
		Description: r.Description,
		Value:       r.Value,
		Direction:   domain.Direction(r.Direction),
		Date:        r.Date,
		CategoryIDs: r.CategoryIDs,
		PeopleIDs:   r.PeopleIDs,
	}
}

// PaginationRequest represents pagination parameters.
type PaginationRequest struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}
