package model

import "github.com/shopspring/decimal"

// Constraints are the caller-supplied limits a workflow run is scored and
// gated against. Absent numeric limits mean "no limit"; zero-valued
// thresholds are filled from engine configuration at ingest time so scoring
// degrades gracefully instead of rejecting the batch.
type Constraints struct {
	// AvailableBalance is the simulated custody balance payments draw from.
	AvailableBalance decimal.Decimal `json:"available_balance"`

	MinimumBalance decimal.Decimal `json:"minimum_balance"`

	// Nil means unlimited.
	TransactionLimit *decimal.Decimal `json:"transaction_limit,omitempty"`
	DailyLimit       *decimal.Decimal `json:"daily_limit,omitempty"`

	HighValueThreshold  decimal.Decimal `json:"high_value_threshold"`
	AutoApprovalLimit   decimal.Decimal `json:"auto_approval_limit"`
	EscalationThreshold decimal.Decimal `json:"escalation_threshold"`
}

// InvestmentPreferences shape the allocation of the post-payment surplus.
type InvestmentPreferences struct {
	RiskTolerance RiskTolerance `json:"risk_tolerance"`

	// EmergencyReservePct overrides the default 10% reserve when set.
	EmergencyReservePct *decimal.Decimal `json:"emergency_reserve_pct,omitempty"`
	// MinimumReserve overrides the default 1000 floor when set.
	MinimumReserve *decimal.Decimal `json:"minimum_reserve,omitempty"`

	// CustomAllocations override the risk-tolerance weight table per
	// category; weights are renormalized to sum to 1.0.
	CustomAllocations map[InvestmentCategory]decimal.Decimal `json:"custom_allocations,omitempty"`
}

// RiskTolerance selects a row of the category weight table.
type RiskTolerance string

const (
	ToleranceConservative RiskTolerance = "conservative"
	ToleranceModerate     RiskTolerance = "moderate"
	ToleranceAggressive   RiskTolerance = "aggressive"
)

// Normalize maps unknown tolerances to moderate, mirroring the defaulting
// applied to malformed constraint input elsewhere.
func (t RiskTolerance) Normalize() RiskTolerance {
	switch t {
	case ToleranceConservative, ToleranceModerate, ToleranceAggressive:
		return t
	default:
		return ToleranceModerate
	}
}
