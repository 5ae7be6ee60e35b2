package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Priority orders payments and batches for review and processing.
type Priority string

const (
	PriorityHigh           Priority = "HIGH"
	PriorityReviewRequired Priority = "REVIEW_REQUIRED"
	PriorityNormal         Priority = "NORMAL"
)

// Rank returns the processing order of a priority; lower processes first.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityReviewRequired:
		return 1
	case PriorityNormal:
		return 2
	default:
		return 3
	}
}

// Payment is one proposed outbound transfer derived from a record.
type Payment struct {
	ID          string          `json:"id"`
	RecordID    string          `json:"record_id"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Recipient   string          `json:"recipient"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Priority    Priority        `json:"priority"`
	Flagged     bool            `json:"flagged"`
	Issues      []string        `json:"issues,omitempty"`
}

// PaymentBatch groups payments sharing a (currency, priority) key.
type PaymentBatch struct {
	ID             string          `json:"id"`
	Currency       string          `json:"currency"`
	Priority       Priority        `json:"priority"`
	PaymentIDs     []string        `json:"payment_ids"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	RequiresReview bool            `json:"requires_review"`
	ProcessingTime string          `json:"estimated_processing_time"`
}

// ApprovalRequirements capture the human-gate parameters computed from risk
// level, totals and constraint breaches.
type ApprovalRequirements struct {
	RequiresManualReview bool       `json:"requires_manual_review"`
	RequiredApprovers    int        `json:"required_approvers"`
	Deadline             *time.Time `json:"deadline,omitempty"`
	EscalationRequired   bool       `json:"escalation_required"`
}

// CurrencyTotal is one currency's slice of the proposal.
type CurrencyTotal struct {
	Amount decimal.Decimal `json:"amount"`
	Count  int             `json:"count"`
}

// ProposalSummary is the reviewer-facing rollup of a proposal.
type ProposalSummary struct {
	TotalPayments        int                      `json:"total_payments"`
	TotalAmount          decimal.Decimal          `json:"total_amount"`
	CurrencyBreakdown    map[string]CurrencyTotal `json:"currency_breakdown"`
	PriorityBreakdown    map[Priority]int         `json:"priority_breakdown"`
	FlaggedPayments      int                      `json:"flagged_payments"`
	TotalBatches         int                      `json:"total_batches"`
	BatchesNeedingReview int                      `json:"batches_requiring_review"`
	RiskLevel            RiskLevel                `json:"risk_level"`
	ComplianceStatus     ComplianceStatus         `json:"compliance_status"`
}

// ProposalStatus tracks the proposal's position in the approval lifecycle.
type ProposalStatus string

const (
	ProposalPendingApproval ProposalStatus = "PENDING_APPROVAL"
	ProposalNoPayments      ProposalStatus = "NO_PAYMENTS_REQUIRED"
)

// PaymentProposal is the itemized, batched payment set awaiting approval.
// One is created per workflow after risk assessment.
type PaymentProposal struct {
	ID           string               `json:"id"`
	Status       ProposalStatus       `json:"status"`
	CreatedAt    time.Time            `json:"created_at"`
	Payments     []Payment            `json:"payments"`
	Batches      []PaymentBatch       `json:"batches"`
	Requirements ApprovalRequirements `json:"approval_requirements"`
	Summary      ProposalSummary      `json:"summary"`
}

// PaymentByID looks up a proposed payment.
func (p *PaymentProposal) PaymentByID(id string) *Payment {
	for i := range p.Payments {
		if p.Payments[i].ID == id {
			return &p.Payments[i]
		}
	}
	return nil
}
