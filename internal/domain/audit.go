package domain

import (
	"encoding/json"
	"time"
)

// AuditLog represents an audit trail entry for mutations on the ledger.
type AuditLog struct {
	ID           string
	TenantID     string
	Action       string // What action (title.create, wallet.create, etc.)
	ResourceType string // Type of resource (title, wallet)
	ResourceID   string
	RequestID    string // Request ID for tracing
	BeforeState  JSON
	AfterState   JSON
	Status       string
	ErrorMessage string
	CreatedAt    time.Time
}

// JSON is a type alias for JSON data
type JSON map[string]any

// AuditAction represents different types of auditable actions
type AuditAction string

const (
	AuditActionWalletCreate    AuditAction = "wallet.create"
	AuditActionWalletReprocess AuditAction = "wallet.reprocess"

	AuditActionTitleCreate AuditAction = "title.create"
	AuditActionTitleUpdate AuditAction = "title.update"
	AuditActionTitleDelete AuditAction = "title.delete"
)

// AuditStatus represents the status of an audited action
type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailure AuditStatus = "failure"
)

// MarshalState converts a domain object to JSON for audit logging
func MarshalState(v any) JSON {
	if v == nil {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return JSON{"error": "failed to marshal state"}
	}

	var result JSON
	if err := json.Unmarshal(data, &result); err != nil {
		return JSON{"error": "failed to unmarshal state"}
	}

	return result
}

// AuditFilter defines filters for querying audit logs
type AuditFilter struct {
	TenantID     string
	Action       string
	ResourceType string
	ResourceID   string
	StartDate    *time.Time
	EndDate      *time.Time
	Limit        int
	Offset       int
}
