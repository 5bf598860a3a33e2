package domain

import "time"

// Event types
const (
	EventTypeTitleCreated      = "title.created"
	EventTypeTitleUpdated      = "title.updated"
	EventTypeTitleDeleted      = "title.deleted"
	EventTypeWalletCreated     = "wallet.created"
	EventTypeWalletReprocessed = "wallet.reprocessed"
)

// Aggregate types
const (
	AggregateTypeTitle  = "title"
	AggregateTypeWallet = "wallet"
)

// OutboxEvent represents an event to be published to downstream consumers
// (notifiers live behind this; the ledger never pushes balances itself).
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// TitleChangedEvent payload for title.created / title.updated / title.deleted.
type TitleChangedEvent struct {
	TitleID          string `json:"title_id"`
	WalletID         string `json:"wallet_id"`
	PreviousWalletID string `json:"previous_wallet_id,omitempty"`
	Direction        string `json:"direction"`
	Value            string `json:"value"`
	Date             string `json:"date"`
}

// WalletCreatedEvent payload
type WalletCreatedEvent struct {
	WalletID       string `json:"wallet_id"`
	TenantID       string `json:"tenant_id"`
	InitialBalance string `json:"initial_balance"`
}

// WalletReprocessedEvent payload
type WalletReprocessedEvent struct {
	WalletID        string `json:"wallet_id"`
	TitlesRewritten int    `json:"titles_rewritten"`
	StartingBalance string `json:"starting_balance"`
	FinalBalance    string `json:"final_balance"`
}
