// Package risk scores a record batch against caller constraints and emits
// the immutable risk report the rest of the pipeline keys off.
package risk

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/fluxwell/treasury-flow/internal/model"
)

// Additive score contributions. The summed score is clamped to [0,10] for
// the report, but the risk level is bucketed on the pre-clamp sum.
var (
	scorePerHighValue     = decimal.NewFromFloat(0.5)
	scoreHighValueCap     = decimal.NewFromFloat(3.0)
	scoreOverDailyLimit   = decimal.NewFromFloat(4.0)
	scoreDuplicateRecips  = decimal.NewFromFloat(1.0)
	scoreRoundNumbers     = decimal.NewFromFloat(1.5)
	scoreMissingInfo      = decimal.NewFromFloat(2.0)
	scoreMissingInfoHigh  = decimal.NewFromFloat(3.5)
	scoreMultiCurrency    = decimal.NewFromFloat(2.0)
	scorePerViolation     = decimal.NewFromFloat(2.0)
	scoreCeiling          = decimal.NewFromInt(10)
	levelMediumFloor      = decimal.NewFromInt(2)
	levelHighFloor        = decimal.NewFromInt(4)
	levelCriticalFloor    = decimal.NewFromInt(7)
	roundNumberUnit       = decimal.NewFromInt(100)
	roundNumberFloor      = decimal.NewFromInt(1000)
	duplicateRecipientMin = 3
	missingInfoHighShare  = decimal.NewFromFloat(0.3)
	roundNumberShare      = decimal.NewFromFloat(0.5)
	hundred               = decimal.NewFromInt(100)
)

// Assess builds the risk report for one workflow run. Constraints are
// expected to carry their defaults already; nil limits mean unlimited.
func Assess(records []model.FinancialRecord, c model.Constraints) *model.RiskReport {
	report := &model.RiskReport{
		Level:            model.RiskLow,
		ComplianceStatus: model.Compliant,
		FlaggedRecordIDs: make(map[string]struct{}),
	}

	if len(records) == 0 {
		report.OverallScore = decimal.Zero
		report.Recommendations = []string{"No financial transactions to assess"}
		return report
	}

	analyzeAmounts(records, c, report)
	analyzePatterns(records, report)
	analyzeCompliance(records, report)
	analyzeConstraints(records, c, report)

	total := decimal.Zero
	for _, f := range report.RiskFactors {
		total = total.Add(f.Score)
	}
	total = total.Add(scorePerViolation.Mul(decimal.NewFromInt(int64(len(report.ConstraintViolations)))))

	report.OverallScore = decimal.Min(scoreCeiling, total)
	report.Level = levelFor(total)
	if len(report.ConstraintViolations) > 0 {
		report.ComplianceStatus = model.NonCompliant
	}

	report.Recommendations = recommendations(report)
	return report
}

func levelFor(total decimal.Decimal) model.RiskLevel {
	switch {
	case total.GreaterThanOrEqual(levelCriticalFloor):
		return model.RiskCritical
	case total.GreaterThanOrEqual(levelHighFloor):
		return model.RiskHigh
	case total.GreaterThanOrEqual(levelMediumFloor):
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}

func analyzeAmounts(records []model.FinancialRecord, c model.Constraints, report *model.RiskReport) {
	total := decimal.Zero
	maxAmount := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Amount)
		maxAmount = decimal.Max(maxAmount, r.Amount)
	}
	count := decimal.NewFromInt(int64(len(records)))

	report.Analysis.TotalAmount = total.Round(2)
	report.Analysis.MaxTransaction = maxAmount.Round(2)
	report.Analysis.AverageTransaction = total.Div(count).Round(2)
	report.Analysis.TransactionCount = len(records)

	highValue := 0
	for _, r := range records {
		if r.Amount.GreaterThan(c.HighValueThreshold) {
			highValue++
			report.FlaggedRecordIDs[r.ID] = struct{}{}
			report.Flagged = append(report.Flagged, r.ID)
		}
	}
	if highValue > 0 {
		score := decimal.Min(scoreHighValueCap, scorePerHighValue.Mul(decimal.NewFromInt(int64(highValue))))
		report.RiskFactors = append(report.RiskFactors, model.RiskFactor{
			Type:     model.FactorHighValueTransactions,
			Severity: model.SeverityMedium,
			Description: fmt.Sprintf("%d transactions exceed high-value threshold of %s",
				highValue, c.HighValueThreshold.Round(2)),
			Score: score,
			Count: highValue,
		})
	}

	if c.DailyLimit != nil && total.GreaterThan(*c.DailyLimit) {
		report.RiskFactors = append(report.RiskFactors, model.RiskFactor{
			Type:     model.FactorAggregateAmount,
			Severity: model.SeverityHigh,
			Description: fmt.Sprintf("Total transaction amount %s exceeds daily limit %s",
				total.Round(2), c.DailyLimit.Round(2)),
			Score: scoreOverDailyLimit,
		})
	}
}

func analyzePatterns(records []model.FinancialRecord, report *model.RiskReport) {
	recipients := make(map[string]int)
	for _, r := range records {
		if key := r.RecipientKey(); key != "" {
			recipients[key]++
		}
	}
	highFrequency := 0
	for _, n := range recipients {
		if n > duplicateRecipientMin {
			highFrequency++
		}
	}
	if highFrequency > 0 {
		report.RiskFactors = append(report.RiskFactors, model.RiskFactor{
			Type:        model.FactorDuplicateRecipients,
			Severity:    model.SeverityLow,
			Description: fmt.Sprintf("Multiple transactions to the same recipients: %d recipients", highFrequency),
			Score:       scoreDuplicateRecips,
			Count:       highFrequency,
		})
	}

	roundCount := 0
	for _, r := range records {
		if r.Amount.Mod(roundNumberUnit).IsZero() && r.Amount.GreaterThan(roundNumberFloor) {
			roundCount++
		}
	}
	total := decimal.NewFromInt(int64(len(records)))
	roundPct := decimal.NewFromInt(int64(roundCount)).Div(total)
	if roundPct.GreaterThan(roundNumberShare) {
		report.RiskFactors = append(report.RiskFactors, model.RiskFactor{
			Type:        model.FactorRoundNumberPattern,
			Severity:    model.SeverityLow,
			Description: fmt.Sprintf("High percentage of round-number transactions: %d/%d", roundCount, len(records)),
			Score:       scoreRoundNumbers,
			Count:       roundCount,
		})
	}

	report.Analysis.UniqueRecipients = len(recipients)
	report.Analysis.HighFrequencyRecipient = highFrequency
	report.Analysis.RoundNumberPct = roundPct.Mul(hundred).Round(1)
}

func analyzeCompliance(records []model.FinancialRecord, report *model.RiskReport) {
	missing := 0
	currencies := make(map[string]struct{})
	for _, r := range records {
		if !r.HasRecipient() || !r.HasDescription() || r.Date == nil {
			missing++
		}
		currencies[r.Currency] = struct{}{}
	}

	count := decimal.NewFromInt(int64(len(records)))
	if missing > 0 {
		severity := model.SeverityMedium
		score := scoreMissingInfo
		if decimal.NewFromInt(int64(missing)).Div(count).GreaterThan(missingInfoHighShare) {
			severity = model.SeverityHigh
			score = scoreMissingInfoHigh
		}
		report.RiskFactors = append(report.RiskFactors, model.RiskFactor{
			Type:        model.FactorMissingRequiredInfo,
			Severity:    severity,
			Description: fmt.Sprintf("%d transactions missing required information", missing),
			Score:       score,
			Count:       missing,
		})
	}

	if len(currencies) > 1 {
		report.RiskFactors = append(report.RiskFactors, model.RiskFactor{
			Type:        model.FactorMultiCurrency,
			Severity:    model.SeverityMedium,
			Description: fmt.Sprintf("Multiple currencies detected: %d", len(currencies)),
			Score:       scoreMultiCurrency,
			Count:       len(currencies),
		})
	}

	names := make([]string, 0, len(currencies))
	for cur := range currencies {
		names = append(names, cur)
	}
	sort.Strings(names)
	report.Analysis.Currencies = names
	report.Analysis.MissingInfoCount = missing
	report.Analysis.DataCompletenessPct = count.Sub(decimal.NewFromInt(int64(missing))).
		Div(count).Mul(hundred).Round(1)
}

func analyzeConstraints(records []model.FinancialRecord, c model.Constraints, report *model.RiskReport) {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Amount)

		if r.Amount.LessThan(c.MinimumBalance) {
			report.ConstraintViolations = append(report.ConstraintViolations, model.Violation{
				Type:        model.ViolationBelowMinimumBalance,
				RecordID:    r.ID,
				Amount:      r.Amount,
				Limit:       c.MinimumBalance,
				Description: fmt.Sprintf("Transaction %s below minimum balance requirement %s", r.Amount.Round(2), c.MinimumBalance.Round(2)),
			})
		}
		if c.TransactionLimit != nil && r.Amount.GreaterThan(*c.TransactionLimit) {
			report.ConstraintViolations = append(report.ConstraintViolations, model.Violation{
				Type:        model.ViolationExceedsTransactionCap,
				RecordID:    r.ID,
				Amount:      r.Amount,
				Limit:       *c.TransactionLimit,
				Description: fmt.Sprintf("Transaction %s exceeds individual transaction limit %s", r.Amount.Round(2), c.TransactionLimit.Round(2)),
			})
		}
	}

	if c.DailyLimit != nil && total.GreaterThan(*c.DailyLimit) {
		report.ConstraintViolations = append(report.ConstraintViolations, model.Violation{
			Type:        model.ViolationExceedsDailyLimit,
			Amount:      total,
			Limit:       *c.DailyLimit,
			Description: fmt.Sprintf("Total amount %s exceeds daily limit of %s", total.Round(2), c.DailyLimit.Round(2)),
		})
	}
}

func recommendations(report *model.RiskReport) []string {
	var recs []string

	if report.Level.RequiresManualReview() {
		recs = append(recs,
			"Manual review required before processing any payments",
			"Consider implementing additional approval workflows")
	}
	if n := len(report.Flagged); n > 0 {
		recs = append(recs, fmt.Sprintf("Review %d flagged transactions before proceeding", n))
	}
	if len(report.ConstraintViolations) > 0 {
		recs = append(recs, "Address constraint violations before payment execution")
	}
	for _, f := range report.RiskFactors {
		switch f.Type {
		case model.FactorMissingRequiredInfo:
			recs = append(recs, "Ensure all transactions have complete recipient and description information")
		case model.FactorHighValueTransactions:
			recs = append(recs, "Implement enhanced due diligence for high-value transactions")
		case model.FactorMultiCurrency:
			recs = append(recs, "Verify foreign exchange compliance and rates for multi-currency transactions")
		}
	}
	if len(recs) == 0 {
		recs = append(recs,
			"Risk assessment completed - no significant risks identified",
			"Proceed with standard payment processing workflow")
	}
	return recs
}
