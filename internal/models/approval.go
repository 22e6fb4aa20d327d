package models

import "time"

// ApprovalStatus is the lifecycle state of a funds-pull pre-approval.
// Transitions: pending → {valid, rejected}; valid → {revoked, expired}.
// Expired is never sent by the backend — it is derived from the wall clock
// against the scope expiration.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalValid    ApprovalStatus = "valid"
	ApprovalRejected ApprovalStatus = "rejected"
	ApprovalRevoked  ApprovalStatus = "revoked"
	ApprovalExpired  ApprovalStatus = "expired"
)

// CurrencyAmount is a bounded amount inside an approval scope.
type CurrencyAmount struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// ScopedCumulativeAmount caps the total the biller may pull per unit window.
type ScopedCumulativeAmount struct {
	Unit      string         `json:"unit"`
	Value     int64          `json:"value"`
	MaxAmount CurrencyAmount `json:"max_amount"`
}

// ApprovalScope bounds what a funds-pull pre-approval authorizes.
type ApprovalScope struct {
	Type                 string                  `json:"type"`
	ExpirationTimestamp  int64                   `json:"expiration_timestamp"`
	MaxCumulativeAmount  *ScopedCumulativeAmount `json:"max_cumulative_amount,omitempty"`
	MaxTransactionAmount *CurrencyAmount         `json:"max_transaction_amount,omitempty"`
}

// Expired reports whether the scope's expiration lies at or before now.
func (s ApprovalScope) Expired(now time.Time) bool {
	return s.ExpirationTimestamp <= now.Unix()
}

// Approval is a biller's standing request to debit the wallet under a scope.
type Approval struct {
	ID            string         `json:"funds_pull_pre_approval_id"`
	Address       string         `json:"address"`
	BillerAddress string         `json:"biller_address"`
	BillerName    string         `json:"biller_name,omitempty"`
	Description   string         `json:"description,omitempty"`
	Status        ApprovalStatus `json:"status"`
	Scope         ApprovalScope  `json:"scope"`
	CreatedAt     string         `json:"created_timestamp,omitempty"`
	UpdatedAt     string         `json:"updated_at,omitempty"`
}

// Active reports whether the approval is valid and its scope has not expired.
func (a Approval) Active(now time.Time) bool {
	return a.Status == ApprovalValid && !a.Scope.Expired(now)
}
