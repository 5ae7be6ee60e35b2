package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemStatus is the terminal outcome of one executed item.
type ItemStatus string

const (
	ItemSuccess ItemStatus = "SUCCESS"
	ItemFailed  ItemStatus = "FAILED"
)

// FailureReason explains why an item did not execute. Per-item failures are
// isolated outcomes, never workflow-level errors.
type FailureReason string

const (
	FailureRejected           FailureReason = "REJECTED_BY_REVIEWER"
	FailureInvalidDestination FailureReason = "INVALID_DESTINATION"
	FailureInsufficientFunds  FailureReason = "INSUFFICIENT_FUNDS"
)

// ItemResult is the simulated outcome for a single payment or investment.
type ItemResult struct {
	ID               string          `json:"id"`
	Status           ItemStatus      `json:"status"`
	Amount           decimal.Decimal `json:"amount"`
	Fee              decimal.Decimal `json:"fee"`
	FailureReason    FailureReason   `json:"failure_reason,omitempty"`
	ConfirmationCode string          `json:"confirmation_code,omitempty"`
}

// ExecutionResult is produced exactly once per checkpoint that reaches
// APPROVED or PARTIAL (or synthesized for REJECTED) and is immutable
// afterward. remainingBalance = initialBalance - totalProcessed - totalFees,
// clamped at zero.
type ExecutionResult struct {
	ID               string          `json:"id"`
	CheckpointID     string          `json:"checkpoint_id"`
	ExecutedAt       time.Time       `json:"executed_at"`
	Items            []ItemResult    `json:"per_item_results"`
	Succeeded        int             `json:"succeeded"`
	Failed           int             `json:"failed"`
	TotalProcessed   decimal.Decimal `json:"total_processed"`
	TotalFees        decimal.Decimal `json:"total_fees"`
	NetAmount        decimal.Decimal `json:"net_amount"`
	InitialBalance   decimal.Decimal `json:"initial_balance"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
}
