package risk

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxwell/treasury-flow/internal/model"
)

func defaultConstraints() model.Constraints {
	return model.Constraints{
		AvailableBalance:    decimal.NewFromInt(1000000),
		HighValueThreshold:  decimal.NewFromInt(100000),
		AutoApprovalLimit:   decimal.NewFromInt(100000),
		EscalationThreshold: decimal.NewFromInt(500000),
	}
}

func record(t *testing.T, id string, amount int64) model.FinancialRecord {
	t.Helper()
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	rec, err := model.NewFinancialRecord(id, decimal.NewFromInt(amount), "USD", "Acme Corp", "Invoice payment", "vendor", &date)
	require.NoError(t, err)
	return rec
}

func TestAssessEmptyBatch(t *testing.T) {
	report := Assess(nil, defaultConstraints())

	assert.Equal(t, model.RiskLow, report.Level)
	assert.True(t, report.OverallScore.IsZero())
	assert.Equal(t, model.Compliant, report.ComplianceStatus)
	assert.Equal(t, []string{"No financial transactions to assess"}, report.Recommendations)
}

func TestAssessCleanBatchIsLow(t *testing.T) {
	records := []model.FinancialRecord{
		record(t, "r1", 1250),
		record(t, "r2", 830),
	}
	report := Assess(records, defaultConstraints())

	assert.Equal(t, model.RiskLow, report.Level)
	assert.Empty(t, report.RiskFactors)
	assert.Empty(t, report.ConstraintViolations)
	assert.Empty(t, report.Flagged)
	assert.Contains(t, report.Recommendations, "Risk assessment completed - no significant risks identified")
}

func TestAssessHighValueWithMissingInfo(t *testing.T) {
	// A single large record with no description or date: 0.5 high-value
	// plus 3.5 missing-info puts the batch at HIGH.
	rec, err := model.NewFinancialRecord("r1", decimal.NewFromInt(150000), "USD", "X", "", "", nil)
	require.NoError(t, err)

	daily := decimal.NewFromInt(1000000)
	c := defaultConstraints()
	c.DailyLimit = &daily

	report := Assess([]model.FinancialRecord{rec}, c)

	assert.Equal(t, model.RiskHigh, report.Level)
	assert.Equal(t, []string{"r1"}, report.Flagged)
	assert.True(t, report.IsFlagged("r1"))
	assert.True(t, report.OverallScore.Equal(decimal.NewFromFloat(4.0)), "got %s", report.OverallScore)
	assert.Equal(t, model.Compliant, report.ComplianceStatus)
}

func TestAssessHighValueScoreCap(t *testing.T) {
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	records := make([]model.FinancialRecord, 0, 10)
	for i := 0; i < 10; i++ {
		id := string(rune('a' + i))
		rec, err := model.NewFinancialRecord(id, decimal.NewFromInt(200001), "USD", "Vendor "+id, "Invoice", "vendor", &date)
		require.NoError(t, err)
		records = append(records, rec)
	}
	report := Assess(records, defaultConstraints())

	require.Len(t, report.RiskFactors, 1)
	f := report.RiskFactors[0]
	assert.Equal(t, model.FactorHighValueTransactions, f.Type)
	assert.Equal(t, 10, f.Count)
	assert.True(t, f.Score.Equal(decimal.NewFromFloat(3.0)), "high-value score caps at 3.0, got %s", f.Score)
}

func TestAssessDailyLimitViolation(t *testing.T) {
	daily := decimal.NewFromInt(5000)
	c := defaultConstraints()
	c.DailyLimit = &daily

	records := []model.FinancialRecord{
		record(t, "r1", 4000),
		record(t, "r2", 3000),
	}
	report := Assess(records, c)

	// 4.0 aggregate factor plus one 2.0 violation.
	assert.True(t, report.OverallScore.Equal(decimal.NewFromFloat(6.0)), "got %s", report.OverallScore)
	assert.Equal(t, model.RiskHigh, report.Level)
	assert.Equal(t, model.NonCompliant, report.ComplianceStatus)
	require.Len(t, report.ConstraintViolations, 1)
	assert.Equal(t, model.ViolationExceedsDailyLimit, report.ConstraintViolations[0].Type)
	assert.Contains(t, report.Recommendations, "Address constraint violations before payment execution")
}

func TestAssessTransactionLimitViolations(t *testing.T) {
	limit := decimal.NewFromInt(1000)
	c := defaultConstraints()
	c.TransactionLimit = &limit

	records := []model.FinancialRecord{
		record(t, "r1", 1500),
		record(t, "r2", 900),
		record(t, "r3", 2500),
	}
	report := Assess(records, c)

	require.Len(t, report.ConstraintViolations, 2)
	for _, v := range report.ConstraintViolations {
		assert.Equal(t, model.ViolationExceedsTransactionCap, v.Type)
	}
	assert.Equal(t, model.NonCompliant, report.ComplianceStatus)
}

func TestAssessMultiCurrency(t *testing.T) {
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	eur, err := model.NewFinancialRecord("r2", decimal.NewFromInt(500), "EUR", "Acme GmbH", "Invoice", "vendor", &date)
	require.NoError(t, err)

	records := []model.FinancialRecord{record(t, "r1", 500), eur}
	report := Assess(records, defaultConstraints())

	require.Len(t, report.RiskFactors, 1)
	assert.Equal(t, model.FactorMultiCurrency, report.RiskFactors[0].Type)
	assert.Equal(t, model.RiskMedium, report.Level)
	assert.Equal(t, []string{"EUR", "USD"}, report.Analysis.Currencies)
	assert.Contains(t, report.Recommendations, "Verify foreign exchange compliance and rates for multi-currency transactions")
}

func TestAssessRoundNumberPattern(t *testing.T) {
	// Round amounts over 1000 in more than half the batch.
	records := []model.FinancialRecord{
		record(t, "r1", 5000),
		record(t, "r2", 2000),
		record(t, "r3", 777),
	}
	report := Assess(records, defaultConstraints())

	require.Len(t, report.RiskFactors, 1)
	f := report.RiskFactors[0]
	assert.Equal(t, model.FactorRoundNumberPattern, f.Type)
	assert.Equal(t, 2, f.Count)
	assert.True(t, f.Score.Equal(decimal.NewFromFloat(1.5)))
}

func TestAssessDuplicateRecipients(t *testing.T) {
	records := []model.FinancialRecord{
		record(t, "r1", 101),
		record(t, "r2", 102),
		record(t, "r3", 103),
		record(t, "r4", 104),
	}
	report := Assess(records, defaultConstraints())

	require.Len(t, report.RiskFactors, 1)
	f := report.RiskFactors[0]
	assert.Equal(t, model.FactorDuplicateRecipients, f.Type)
	assert.Equal(t, 1, f.Count)
	assert.Equal(t, 1, report.Analysis.UniqueRecipients)
}

func TestAssessScoreClampedAtTen(t *testing.T) {
	daily := decimal.NewFromInt(100)
	limit := decimal.NewFromInt(100)
	c := defaultConstraints()
	c.DailyLimit = &daily
	c.TransactionLimit = &limit
	c.HighValueThreshold = decimal.NewFromInt(100)

	records := make([]model.FinancialRecord, 0, 8)
	for i := 0; i < 8; i++ {
		rec, err := model.NewFinancialRecord(string(rune('a'+i)), decimal.NewFromInt(200000), "USD", "", "", "", nil)
		require.NoError(t, err)
		records = append(records, rec)
	}
	report := Assess(records, c)

	assert.True(t, report.OverallScore.Equal(decimal.NewFromInt(10)), "score clamps at 10, got %s", report.OverallScore)
	assert.Equal(t, model.RiskCritical, report.Level)
}

func TestAssessMonotonicity(t *testing.T) {
	// Adding a risk signal to the same batch never lowers the score.
	base := []model.FinancialRecord{record(t, "r1", 500)}
	baseline := Assess(base, defaultConstraints())

	noInfo, err := model.NewFinancialRecord("r2", decimal.NewFromInt(500), "USD", "", "", "", nil)
	require.NoError(t, err)
	worse := Assess(append(base, noInfo), defaultConstraints())

	assert.True(t, worse.OverallScore.GreaterThanOrEqual(baseline.OverallScore))
}

func TestAssessAnalysisAggregates(t *testing.T) {
	records := []model.FinancialRecord{
		record(t, "r1", 100),
		record(t, "r2", 300),
	}
	report := Assess(records, defaultConstraints())

	a := report.Analysis
	assert.True(t, a.TotalAmount.Equal(decimal.NewFromInt(400)))
	assert.True(t, a.MaxTransaction.Equal(decimal.NewFromInt(300)))
	assert.True(t, a.AverageTransaction.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, 2, a.TransactionCount)
	assert.True(t, a.DataCompletenessPct.Equal(decimal.NewFromInt(100)))
}
