// Package investment derives the post-payment allocation plan: emergency
// reserve carve-out, category weighting by risk tolerance, and concrete
// product recommendations with fixed deterministic sub-splits.
package investment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fluxwell/treasury-flow/internal/config"
	"github.com/fluxwell/treasury-flow/internal/model"
)

// Category weight rows per risk tolerance (fiat, crypto, liquidity).
var weightTable = map[model.RiskTolerance]map[model.InvestmentCategory]decimal.Decimal{
	model.ToleranceConservative: {
		model.CategoryFiatSavings: decimal.NewFromFloat(0.70),
		model.CategoryCryptoDefi:  decimal.NewFromFloat(0.10),
		model.CategoryLiquidity:   decimal.NewFromFloat(0.20),
	},
	model.ToleranceModerate: {
		model.CategoryFiatSavings: decimal.NewFromFloat(0.50),
		model.CategoryCryptoDefi:  decimal.NewFromFloat(0.30),
		model.CategoryLiquidity:   decimal.NewFromFloat(0.20),
	},
	model.ToleranceAggressive: {
		model.CategoryFiatSavings: decimal.NewFromFloat(0.30),
		model.CategoryCryptoDefi:  decimal.NewFromFloat(0.50),
		model.CategoryLiquidity:   decimal.NewFromFloat(0.20),
	},
}

var (
	fiatSplitFloor     = decimal.NewFromInt(1000)
	cryptoSplitFloor   = decimal.NewFromInt(500)
	approvalHighFloor  = decimal.NewFromInt(100000)
	approvalMedFloor   = decimal.NewFromInt(50000)
	pct60              = decimal.NewFromFloat(0.6)
	pct50              = decimal.NewFromFloat(0.5)
	pct40              = decimal.NewFromFloat(0.4)
	pct30              = decimal.NewFromFloat(0.3)
	totalCategoryCount = decimal.NewFromInt(3)
)

// Plan allocates the remaining balance of the payment stage. A non-positive
// balance short-circuits to NO_FUNDS_AVAILABLE with no recommendations.
func Plan(availableFunds decimal.Decimal, prefs model.InvestmentPreferences, cfg config.Config, now time.Time) *model.InvestmentPlan {
	plan := &model.InvestmentPlan{
		ID:             uuid.NewString(),
		Status:         model.PlanPendingApproval,
		CreatedAt:      now,
		AvailableFunds: availableFunds.Round(2),
		Tolerance:      prefs.RiskTolerance.Normalize(),
		Allocations:    make(map[model.InvestmentCategory]model.CategoryAllocation),
	}

	if !availableFunds.IsPositive() {
		plan.Status = model.PlanNoFunds
		plan.AvailableFunds = decimal.Zero
		return plan
	}

	plan.EmergencyReserve = emergencyReserve(availableFunds, prefs, cfg)
	plan.InvestableFunds = availableFunds.Sub(plan.EmergencyReserve).Round(2)

	weights := normalizedWeights(plan.Tolerance, prefs.CustomAllocations)
	allocate(plan, weights)
	recommend(plan)
	score(plan)
	gate(plan, cfg, now)
	advise(plan)
	return plan
}

func emergencyReserve(funds decimal.Decimal, prefs model.InvestmentPreferences, cfg config.Config) decimal.Decimal {
	pct := cfg.EmergencyReservePct
	if prefs.EmergencyReservePct != nil {
		pct = *prefs.EmergencyReservePct
	}
	floor := cfg.MinimumReserve
	if prefs.MinimumReserve != nil {
		floor = *prefs.MinimumReserve
	}
	reserve := decimal.Max(funds.Mul(pct), floor)
	return decimal.Min(reserve, funds.Mul(cfg.ReserveCapPct)).Round(2)
}

// normalizedWeights applies custom overrides to the tolerance row, then
// renormalizes so percentages sum to exactly 1.0. The final category takes
// the remainder to absorb division rounding.
func normalizedWeights(tol model.RiskTolerance, custom map[model.InvestmentCategory]decimal.Decimal) map[model.InvestmentCategory]decimal.Decimal {
	base := weightTable[tol]
	raw := make(map[model.InvestmentCategory]decimal.Decimal, len(base))
	sum := decimal.Zero
	for _, cat := range model.AllCategories() {
		w := base[cat]
		if override, ok := custom[cat]; ok && !override.IsNegative() {
			w = override
		}
		raw[cat] = w
		sum = sum.Add(w)
	}
	if sum.IsZero() {
		return weightTable[model.ToleranceModerate]
	}

	cats := model.AllCategories()
	out := make(map[model.InvestmentCategory]decimal.Decimal, len(cats))
	allocated := decimal.Zero
	for i, cat := range cats {
		if i == len(cats)-1 {
			out[cat] = decimal.NewFromInt(1).Sub(allocated)
			break
		}
		w := raw[cat].Div(sum).Round(4)
		out[cat] = w
		allocated = allocated.Add(w)
	}
	return out
}

func allocate(plan *model.InvestmentPlan, weights map[model.InvestmentCategory]decimal.Decimal) {
	cats := model.AllCategories()
	spent := decimal.Zero
	for i, cat := range cats {
		var amount decimal.Decimal
		if i == len(cats)-1 {
			amount = plan.InvestableFunds.Sub(spent)
		} else {
			amount = plan.InvestableFunds.Mul(weights[cat]).Round(2)
			spent = spent.Add(amount)
		}
		plan.Allocations[cat] = model.CategoryAllocation{
			Amount:     amount,
			Percentage: weights[cat],
		}
	}
}

func recommend(plan *model.InvestmentPlan) {
	for _, cat := range model.AllCategories() {
		amount := plan.Allocations[cat].Amount
		if !amount.IsPositive() {
			continue
		}
		switch cat {
		case model.CategoryFiatSavings:
			plan.Recommendations = append(plan.Recommendations, fiatProducts(amount)...)
		case model.CategoryCryptoDefi:
			plan.Recommendations = append(plan.Recommendations, cryptoProducts(amount)...)
		case model.CategoryLiquidity:
			plan.Recommendations = append(plan.Recommendations, liquidityProducts(amount)...)
		}
	}
}

func fiatProducts(amount decimal.Decimal) []model.Recommendation {
	if amount.GreaterThanOrEqual(fiatSplitFloor) {
		primary := amount.Mul(pct60).Round(2)
		return []model.Recommendation{
			{
				ID:                uuid.NewString(),
				Category:          model.CategoryFiatSavings,
				Product:           "High-Yield Savings Account",
				Allocation:        primary,
				ExpectedReturn:    "4.5-5.5% APY",
				RiskLevel:         "LOW",
				Liquidity:         model.LiquidityHigh,
				MinimumInvestment: decimal.NewFromInt(1000),
				Description:       "FDIC-insured high-yield savings account for capital preservation",
				ExecutionPriority: 1,
			},
			{
				ID:                uuid.NewString(),
				Category:          model.CategoryFiatSavings,
				Product:           "Treasury Bills (T-Bills)",
				Allocation:        amount.Sub(primary),
				ExpectedReturn:    "5.0-5.5% APY",
				RiskLevel:         "VERY_LOW",
				Liquidity:         model.LiquidityMedium,
				MinimumInvestment: decimal.NewFromInt(100),
				Description:       "Short-term government securities with guaranteed returns",
				ExecutionPriority: 2,
			},
		}
	}
	return []model.Recommendation{{
		ID:                uuid.NewString(),
		Category:          model.CategoryFiatSavings,
		Product:           "Money Market Account",
		Allocation:        amount,
		ExpectedReturn:    "4.0-5.0% APY",
		RiskLevel:         "LOW",
		Liquidity:         model.LiquidityHigh,
		MinimumInvestment: decimal.NewFromInt(100),
		Description:       "Liquid savings with competitive interest rates",
		ExecutionPriority: 1,
	}}
}

func cryptoProducts(amount decimal.Decimal) []model.Recommendation {
	if amount.GreaterThanOrEqual(cryptoSplitFloor) {
		btc := amount.Mul(pct40).Round(2)
		eth := amount.Mul(pct30).Round(2)
		return []model.Recommendation{
			{
				ID:                uuid.NewString(),
				Category:          model.CategoryCryptoDefi,
				Product:           "Bitcoin (BTC)",
				Allocation:        btc,
				ExpectedReturn:    "Variable (High volatility)",
				RiskLevel:         "HIGH",
				Liquidity:         model.LiquidityHigh,
				MinimumInvestment: decimal.NewFromInt(10),
				Description:       "Leading cryptocurrency for portfolio diversification",
				ExecutionPriority: 1,
			},
			{
				ID:                uuid.NewString(),
				Category:          model.CategoryCryptoDefi,
				Product:           "Ethereum (ETH)",
				Allocation:        eth,
				ExpectedReturn:    "Variable (High volatility)",
				RiskLevel:         "HIGH",
				Liquidity:         model.LiquidityHigh,
				MinimumInvestment: decimal.NewFromInt(10),
				Description:       "Smart contract platform with DeFi ecosystem exposure",
				ExecutionPriority: 2,
			},
			{
				ID:                uuid.NewString(),
				Category:          model.CategoryCryptoDefi,
				Product:           "Stablecoin Yield Farming",
				Allocation:        amount.Sub(btc).Sub(eth),
				ExpectedReturn:    "6-12% APY",
				RiskLevel:         "MEDIUM",
				Liquidity:         model.LiquidityMedium,
				MinimumInvestment: decimal.NewFromInt(100),
				Description:       "USDC/DAI liquidity provision for yield generation",
				ExecutionPriority: 3,
			},
		}
	}
	return []model.Recommendation{{
		ID:                uuid.NewString(),
		Category:          model.CategoryCryptoDefi,
		Product:           "Diversified Crypto Index",
		Allocation:        amount,
		ExpectedReturn:    "Variable (Moderate volatility)",
		RiskLevel:         "MEDIUM_HIGH",
		Liquidity:         model.LiquidityHigh,
		MinimumInvestment: decimal.NewFromInt(25),
		Description:       "Diversified exposure to major cryptocurrencies",
		ExecutionPriority: 1,
	}}
}

func liquidityProducts(amount decimal.Decimal) []model.Recommendation {
	cds := amount.Mul(pct50).Round(2)
	return []model.Recommendation{
		{
			ID:                uuid.NewString(),
			Category:          model.CategoryLiquidity,
			Product:           "Short-term CDs",
			Allocation:        cds,
			ExpectedReturn:    "5.0-6.0% APY",
			RiskLevel:         "LOW",
			Liquidity:         model.LiquidityLow,
			MinimumInvestment: decimal.NewFromInt(500),
			Description:       "6-month certificates of deposit with guaranteed returns",
			ExecutionPriority: 1,
		},
		{
			ID:                uuid.NewString(),
			Category:          model.CategoryLiquidity,
			Product:           "Money Market Funds",
			Allocation:        amount.Sub(cds),
			ExpectedReturn:    "4.5-5.5% APY",
			RiskLevel:         "LOW",
			Liquidity:         model.LiquidityHigh,
			MinimumInvestment: decimal.NewFromInt(100),
			Description:       "Professional money market fund management",
			ExecutionPriority: 2,
		},
	}
}

func score(plan *model.InvestmentPlan) {
	if len(plan.Recommendations) == 0 {
		return
	}
	used := make(map[model.InvestmentCategory]struct{})
	high := 0
	immediate := decimal.Zero
	locked := decimal.Zero
	for _, rec := range plan.Recommendations {
		used[rec.Category] = struct{}{}
		switch rec.Liquidity {
		case model.LiquidityHigh:
			high++
			immediate = immediate.Add(rec.Allocation)
		case model.LiquidityLow:
			locked = locked.Add(rec.Allocation)
		}
	}
	plan.DiversificationScore = decimal.NewFromInt(int64(len(used))).Div(totalCategoryCount).Round(2)
	plan.LiquidityRatio = decimal.NewFromInt(int64(high)).
		Div(decimal.NewFromInt(int64(len(plan.Recommendations)))).Round(2)
	plan.Liquidity = model.LiquidityAnalysis{
		ImmediateAccess: immediate,
		LockedFunds:     locked,
	}
}

func gate(plan *model.InvestmentPlan, cfg config.Config, now time.Time) {
	total := plan.InvestableFunds
	switch {
	case total.GreaterThan(approvalHighFloor) || plan.Tolerance == model.ToleranceAggressive:
		plan.ApprovalLevel = model.ApprovalHigh
	case total.GreaterThan(approvalMedFloor):
		plan.ApprovalLevel = model.ApprovalMedium
	default:
		plan.ApprovalLevel = model.ApprovalStandard
	}

	approvers := 1
	if plan.ApprovalLevel == model.ApprovalHigh {
		approvers = 2
	}
	deadline := now.Add(cfg.InvestmentReviewWindow)
	plan.Requirements = model.ApprovalRequirements{
		RequiresManualReview: true,
		RequiredApprovers:    approvers,
		Deadline:             &deadline,
	}
}

func advise(plan *model.InvestmentPlan) {
	used := make(map[model.InvestmentCategory]struct{})
	for _, rec := range plan.Recommendations {
		used[rec.Category] = struct{}{}
	}
	if len(used) < 2 {
		plan.Notes = append(plan.Notes, "Consider diversifying across more investment types to reduce concentration risk")
	}
}
