package proposal

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxwell/treasury-flow/internal/config"
	"github.com/fluxwell/treasury-flow/internal/model"
	"github.com/fluxwell/treasury-flow/internal/risk"
)

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func constraints() model.Constraints {
	return model.Constraints{
		AvailableBalance:    decimal.NewFromInt(1000000),
		HighValueThreshold:  decimal.NewFromInt(100000),
		AutoApprovalLimit:   decimal.NewFromInt(100000),
		EscalationThreshold: decimal.NewFromInt(500000),
	}
}

func record(t *testing.T, id string, amount float64, currency string) model.FinancialRecord {
	t.Helper()
	date := testNow.AddDate(0, 0, -1)
	rec, err := model.NewFinancialRecord(id, decimal.NewFromFloat(amount), currency, "Acme Corp", "Invoice payment", "vendor", &date)
	require.NoError(t, err)
	return rec
}

func buildFor(t *testing.T, records []model.FinancialRecord, c model.Constraints) *model.PaymentProposal {
	t.Helper()
	report := risk.Assess(records, c)
	return Build(records, report, c, config.Default(), testNow)
}

func TestBuildEmptyRecords(t *testing.T) {
	p := Build(nil, risk.Assess(nil, constraints()), constraints(), config.Default(), testNow)
	assert.Equal(t, model.ProposalNoPayments, p.Status)
	assert.Empty(t, p.Payments)
	assert.Empty(t, p.Batches)
}

func TestBuildConservesTotals(t *testing.T) {
	records := []model.FinancialRecord{
		record(t, "r1", 1200.555, "USD"),
		record(t, "r2", 842.114, "USD"),
		record(t, "r3", 99.999, "EUR"),
		record(t, "r4", 60000, "USD"),
	}
	p := buildFor(t, records, constraints())

	paymentSum := decimal.Zero
	for _, pay := range p.Payments {
		paymentSum = paymentSum.Add(pay.Amount)
	}
	batchSum := decimal.Zero
	for _, b := range p.Batches {
		batchSum = batchSum.Add(b.TotalAmount)
	}

	assert.True(t, paymentSum.Equal(batchSum), "payments %s != batches %s", paymentSum, batchSum)
	assert.True(t, p.Summary.TotalAmount.Equal(paymentSum))

	// Per-payment rounding happens once, at formatting time.
	byRecord := make(map[string]decimal.Decimal)
	for _, pay := range p.Payments {
		byRecord[pay.RecordID] = pay.Amount
	}
	assert.True(t, byRecord["r1"].Equal(decimal.NewFromFloat(1200.56)))
	assert.True(t, byRecord["r3"].Equal(decimal.NewFromFloat(100.00)))
}

func TestBuildPriorities(t *testing.T) {
	c := constraints()
	c.HighValueThreshold = decimal.NewFromInt(10000)
	records := []model.FinancialRecord{
		record(t, "r1", 60000, "USD"),  // over 50000 floor
		record(t, "r2", 20000, "USD"),  // flagged high-value only
		record(t, "r3", 100, "USD"),
	}
	p := buildFor(t, records, c)

	priorities := make(map[string]model.Priority)
	for _, pay := range p.Payments {
		priorities[pay.RecordID] = pay.Priority
	}
	assert.Equal(t, model.PriorityHigh, priorities["r1"])
	assert.Equal(t, model.PriorityReviewRequired, priorities["r2"])
	assert.Equal(t, model.PriorityNormal, priorities["r3"])
}

func TestBuildBatchGroupingAndOrder(t *testing.T) {
	c := constraints()
	records := []model.FinancialRecord{
		record(t, "r1", 150, "USD"),
		record(t, "r2", 250, "USD"),
		record(t, "r3", 60000, "USD"),
		record(t, "r4", 300, "EUR"),
	}
	p := buildFor(t, records, c)

	require.Len(t, p.Batches, 3)
	assert.Equal(t, model.PriorityHigh, p.Batches[0].Priority)
	// Same-priority batches order by descending total.
	assert.Equal(t, model.PriorityNormal, p.Batches[1].Priority)
	assert.True(t, p.Batches[1].TotalAmount.GreaterThan(p.Batches[2].TotalAmount))

	for _, b := range p.Batches {
		for _, id := range b.PaymentIDs {
			pay := p.PaymentByID(id)
			require.NotNil(t, pay)
			assert.Equal(t, b.Currency, pay.Currency)
			assert.Equal(t, b.Priority, pay.Priority)
		}
	}
}

func TestBuildApprovalRequirements(t *testing.T) {
	tests := []struct {
		name          string
		records       []float64
		wantApprovers int
		wantManual    bool
		wantEscalate  bool
	}{
		{
			name:          "small clean batch auto-eligible",
			records:       []float64{500, 800},
			wantApprovers: 1,
		},
		{
			name:          "total over auto-approval limit",
			records:       []float64{60000, 50000},
			wantApprovers: 1,
			wantManual:    true,
		},
		{
			name:          "total over escalation threshold",
			records:       []float64{300000, 300000},
			wantApprovers: 3,
			wantManual:    true,
			wantEscalate:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := make([]model.FinancialRecord, 0, len(tt.records))
			for i, amount := range tt.records {
				records = append(records, record(t, string(rune('a'+i)), amount, "USD"))
			}
			c := constraints()
			c.HighValueThreshold = decimal.NewFromInt(1000000)
			p := buildFor(t, records, c)

			req := p.Requirements
			assert.Equal(t, tt.wantApprovers, req.RequiredApprovers)
			assert.Equal(t, tt.wantManual, req.RequiresManualReview)
			assert.Equal(t, tt.wantEscalate, req.EscalationRequired)
			if tt.wantManual {
				require.NotNil(t, req.Deadline)
				assert.Equal(t, testNow.Add(24*time.Hour), *req.Deadline)
			} else {
				assert.Nil(t, req.Deadline)
			}
		})
	}
}

func TestBuildHighRiskRequiresTwoApprovers(t *testing.T) {
	rec, err := model.NewFinancialRecord("r1", decimal.NewFromInt(150000), "USD", "X", "", "", nil)
	require.NoError(t, err)
	p := buildFor(t, []model.FinancialRecord{rec}, constraints())

	assert.True(t, p.Requirements.RequiresManualReview)
	assert.Equal(t, 2, p.Requirements.RequiredApprovers)
	assert.Equal(t, model.RiskHigh, p.Summary.RiskLevel)
	assert.Equal(t, 1, p.Summary.FlaggedPayments)
}

func TestBuildSummaryBreakdowns(t *testing.T) {
	records := []model.FinancialRecord{
		record(t, "r1", 100, "USD"),
		record(t, "r2", 200, "USD"),
		record(t, "r3", 300, "EUR"),
	}
	p := buildFor(t, records, constraints())

	s := p.Summary
	assert.Equal(t, 3, s.TotalPayments)
	assert.Equal(t, 2, s.CurrencyBreakdown["USD"].Count)
	assert.True(t, s.CurrencyBreakdown["USD"].Amount.Equal(decimal.NewFromInt(300)))
	assert.Equal(t, 1, s.CurrencyBreakdown["EUR"].Count)
	assert.Equal(t, 3, s.PriorityBreakdown[model.PriorityNormal])
	assert.Equal(t, len(p.Batches), s.TotalBatches)
}

func TestBuildFlaggedBatchProcessingTime(t *testing.T) {
	c := constraints()
	c.HighValueThreshold = decimal.NewFromInt(1000)
	records := []model.FinancialRecord{
		record(t, "r1", 5000, "USD"),
		record(t, "r2", 100, "USD"),
	}
	p := buildFor(t, records, c)

	var reviewed, standard int
	for _, b := range p.Batches {
		if b.RequiresReview {
			reviewed++
			assert.Equal(t, "3-5 business days", b.ProcessingTime)
		} else {
			standard++
			assert.Equal(t, "1-2 business days", b.ProcessingTime)
		}
	}
	assert.Equal(t, 1, reviewed)
	assert.Equal(t, 1, standard)
	assert.Equal(t, 1, p.Summary.BatchesNeedingReview)
}
