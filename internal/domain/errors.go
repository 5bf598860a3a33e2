package domain

import "errors"

var (
	// Wallet errors
	ErrWalletNotFound = errors.New("wallet not found")
	ErrWalletInactive = errors.New("wallet is inactive")

	// Title errors
	ErrTitleNotFound    = errors.New("title not found")
	ErrInvalidDirection = errors.New("direction must be INCOME or EXPENSE")
	ErrInvalidAmount    = errors.New("amount must be positive")
	ErrInvalidDate      = errors.New("title date is required")
	ErrDuplicateDate    = errors.New("wallet already has a title at this minute")

	// Chain errors. Both are programming-defect signals: they abort the
	// enclosing transaction and are never recovered mid-walk.
	ErrChainInconsistent = errors.New("balance chain is inconsistent")
	ErrBalanceOutOfRange = errors.New("balance exceeds the supported range")
)
