package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvestmentCategory is a top-level allocation bucket.
type InvestmentCategory string

const (
	CategoryFiatSavings InvestmentCategory = "fiat_savings"
	CategoryCryptoDefi  InvestmentCategory = "crypto_defi"
	CategoryLiquidity   InvestmentCategory = "liquidity_products"
)

// AllCategories lists the allocation buckets in stable order.
func AllCategories() []InvestmentCategory {
	return []InvestmentCategory{CategoryFiatSavings, CategoryCryptoDefi, CategoryLiquidity}
}

// Liquidity labels how quickly a product converts back to cash.
type Liquidity string

const (
	LiquidityHigh   Liquidity = "HIGH"
	LiquidityMedium Liquidity = "MEDIUM"
	LiquidityLow    Liquidity = "LOW"
)

// CategoryAllocation is one bucket's share of investable funds.
type CategoryAllocation struct {
	Amount     decimal.Decimal `json:"amount"`
	Percentage decimal.Decimal `json:"percentage"`
}

// Recommendation is a concrete product line item inside a category.
type Recommendation struct {
	ID                string             `json:"id"`
	Category          InvestmentCategory `json:"category"`
	Product           string             `json:"product"`
	Allocation        decimal.Decimal    `json:"allocation"`
	ExpectedReturn    string             `json:"expected_return"`
	RiskLevel         string             `json:"risk_level"`
	Liquidity         Liquidity          `json:"liquidity"`
	MinimumInvestment decimal.Decimal    `json:"minimum_investment"`
	Description       string             `json:"description"`
	ExecutionPriority int                `json:"execution_priority"`
}

// ApprovalLevel tiers the investment approval requirement by amount and risk.
type ApprovalLevel string

const (
	ApprovalStandard ApprovalLevel = "STANDARD"
	ApprovalMedium   ApprovalLevel = "MEDIUM"
	ApprovalHigh     ApprovalLevel = "HIGH"
)

// PlanStatus tracks whether a plan is actionable.
type PlanStatus string

const (
	PlanPendingApproval PlanStatus = "PENDING_APPROVAL"
	PlanNoFunds         PlanStatus = "NO_FUNDS_AVAILABLE"
)

// LiquidityAnalysis summarizes how accessible the allocated funds remain.
type LiquidityAnalysis struct {
	ImmediateAccess decimal.Decimal `json:"immediate_access"`
	LockedFunds     decimal.Decimal `json:"locked_funds"`
}

// InvestmentPlan is derived from the payment stage's remaining balance and
// a risk preference; it is the second approval envelope of the workflow.
type InvestmentPlan struct {
	ID               string                                    `json:"id"`
	Status           PlanStatus                                `json:"status"`
	CreatedAt        time.Time                                 `json:"created_at"`
	AvailableFunds   decimal.Decimal                           `json:"available_funds"`
	EmergencyReserve decimal.Decimal                           `json:"emergency_reserve"`
	InvestableFunds  decimal.Decimal                           `json:"investable_funds"`
	Tolerance        RiskTolerance                             `json:"risk_tolerance"`
	Allocations      map[InvestmentCategory]CategoryAllocation `json:"category_allocations"`
	Recommendations  []Recommendation                          `json:"recommendations"`
	// DiversificationScore is distinct categories used over the three
	// available; LiquidityRatio is high-liquidity items over total items.
	DiversificationScore decimal.Decimal      `json:"diversification_score"`
	LiquidityRatio       decimal.Decimal      `json:"liquidity_ratio"`
	Liquidity            LiquidityAnalysis    `json:"liquidity_analysis"`
	ApprovalLevel        ApprovalLevel        `json:"approval_level"`
	Requirements         ApprovalRequirements `json:"approval_requirements"`
	Notes                []string             `json:"notes,omitempty"`
}

// RecommendationByID looks up a plan line item.
func (p *InvestmentPlan) RecommendationByID(id string) *Recommendation {
	for i := range p.Recommendations {
		if p.Recommendations[i].ID == id {
			return &p.Recommendations[i]
		}
	}
	return nil
}
