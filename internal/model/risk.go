package model

import "github.com/shopspring/decimal"

// RiskLevel buckets the summed (pre-clamp) risk score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// RequiresManualReview reports whether this level alone forces a human gate.
func (l RiskLevel) RequiresManualReview() bool {
	return l == RiskHigh || l == RiskCritical
}

// ComplianceStatus summarizes constraint adherence for the whole batch.
type ComplianceStatus string

const (
	Compliant    ComplianceStatus = "COMPLIANT"
	NonCompliant ComplianceStatus = "NON_COMPLIANT"
)

// RiskFactorType identifies which rule produced a risk factor.
type RiskFactorType string

const (
	FactorHighValueTransactions RiskFactorType = "HIGH_VALUE_TRANSACTIONS"
	FactorAggregateAmount       RiskFactorType = "AGGREGATE_AMOUNT_RISK"
	FactorDuplicateRecipients   RiskFactorType = "DUPLICATE_RECIPIENTS"
	FactorRoundNumberPattern    RiskFactorType = "ROUND_NUMBER_PATTERN"
	FactorMissingRequiredInfo   RiskFactorType = "MISSING_REQUIRED_INFO"
	FactorMultiCurrency         RiskFactorType = "MULTI_CURRENCY"
)

// Severity labels a risk factor for reviewers.
type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

// RiskFactor is one fired scoring rule with its additive contribution.
type RiskFactor struct {
	Type        RiskFactorType  `json:"type"`
	Severity    Severity        `json:"severity"`
	Description string          `json:"description"`
	Score       decimal.Decimal `json:"score"`
	Count       int             `json:"count,omitempty"`
}

// ViolationType identifies which caller constraint a record broke.
type ViolationType string

const (
	ViolationBelowMinimumBalance   ViolationType = "BELOW_MINIMUM_BALANCE"
	ViolationExceedsTransactionCap ViolationType = "EXCEEDS_TRANSACTION_LIMIT"
	ViolationExceedsDailyLimit     ViolationType = "EXCEEDS_DAILY_LIMIT"
)

// Violation records one individually-scored constraint breach.
type Violation struct {
	Type        ViolationType   `json:"type"`
	RecordID    string          `json:"record_id,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Limit       decimal.Decimal `json:"limit"`
	Description string          `json:"description"`
}

// RiskAnalysis carries the aggregate figures reviewers see alongside the
// score: totals, recipient frequency, and data completeness.
type RiskAnalysis struct {
	TotalAmount            decimal.Decimal `json:"total_amount"`
	MaxTransaction         decimal.Decimal `json:"max_transaction"`
	AverageTransaction     decimal.Decimal `json:"average_transaction"`
	TransactionCount       int             `json:"transaction_count"`
	UniqueRecipients       int             `json:"unique_recipients"`
	HighFrequencyRecipient int             `json:"high_frequency_recipients"`
	RoundNumberPct         decimal.Decimal `json:"round_number_pct"`
	MissingInfoCount       int             `json:"missing_info_count"`
	Currencies             []string        `json:"currencies"`
	DataCompletenessPct    decimal.Decimal `json:"data_completeness_pct"`
}

// RiskReport is created once per workflow from the full record set and the
// constraint set, and never mutated afterward.
type RiskReport struct {
	OverallScore         decimal.Decimal     `json:"overall_score"`
	Level                RiskLevel           `json:"level"`
	ComplianceStatus     ComplianceStatus    `json:"compliance_status"`
	RiskFactors          []RiskFactor        `json:"risk_factors"`
	ConstraintViolations []Violation         `json:"constraint_violations"`
	FlaggedRecordIDs     map[string]struct{} `json:"-"`
	Flagged              []string            `json:"flagged_record_ids"`
	Recommendations      []string            `json:"recommendations"`
	Analysis             RiskAnalysis        `json:"analysis"`
}

// IsFlagged reports whether a record was flagged for review.
func (r *RiskReport) IsFlagged(recordID string) bool {
	_, ok := r.FlaggedRecordIDs[recordID]
	return ok
}

// RebuildFlagSet restores the flagged-id lookup set after deserialization.
func (r *RiskReport) RebuildFlagSet() {
	r.FlaggedRecordIDs = make(map[string]struct{}, len(r.Flagged))
	for _, id := range r.Flagged {
		r.FlaggedRecordIDs[id] = struct{}{}
	}
}
