// Package proposal turns records and a risk report into the itemized,
// batched payment proposal presented at the payment checkpoint.
package proposal

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fluxwell/treasury-flow/internal/config"
	"github.com/fluxwell/treasury-flow/internal/model"
)

// highPriorityFloor promotes a payment to HIGH regardless of flags.
var highPriorityFloor = decimal.NewFromInt(50000)

const (
	standardProcessingTime = "1-2 business days"
	reviewProcessingTime   = "3-5 business days"
)

// Build derives the proposal deterministically from the admitted records and
// the workflow's risk report. Amounts are rounded half-up to 2 decimal
// places per payment, so batch totals and the proposal total stay exactly
// conserved.
func Build(records []model.FinancialRecord, report *model.RiskReport, c model.Constraints, cfg config.Config, now time.Time) *model.PaymentProposal {
	p := &model.PaymentProposal{
		ID:        uuid.NewString(),
		Status:    model.ProposalPendingApproval,
		CreatedAt: now,
	}
	if len(records) == 0 {
		p.Status = model.ProposalNoPayments
		return p
	}

	p.Payments = buildPayments(records, report)
	p.Batches = buildBatches(p.Payments)
	p.Requirements = approvalRequirements(p.Payments, report, c, cfg, now)
	p.Summary = summarize(p, report)
	return p
}

func buildPayments(records []model.FinancialRecord, report *model.RiskReport) []model.Payment {
	payments := make([]model.Payment, 0, len(records))
	for _, r := range records {
		priority := model.PriorityNormal
		flagged := report.IsFlagged(r.ID)
		switch {
		case r.Amount.GreaterThan(highPriorityFloor):
			priority = model.PriorityHigh
		case flagged:
			priority = model.PriorityReviewRequired
		}
		payments = append(payments, model.Payment{
			ID:          uuid.NewString(),
			RecordID:    r.ID,
			Amount:      r.Amount.Round(2),
			Currency:    r.Currency,
			Recipient:   r.Recipient,
			Description: r.Description,
			Category:    r.Category,
			Priority:    priority,
			Flagged:     flagged,
			Issues:      r.ValidationErrors,
		})
	}
	return payments
}

func buildBatches(payments []model.Payment) []model.PaymentBatch {
	type key struct {
		currency string
		priority model.Priority
	}
	groups := make(map[key]*model.PaymentBatch)
	order := make([]key, 0)

	for _, pay := range payments {
		k := key{pay.Currency, pay.Priority}
		batch, ok := groups[k]
		if !ok {
			batch = &model.PaymentBatch{
				ID:             uuid.NewString(),
				Currency:       pay.Currency,
				Priority:       pay.Priority,
				TotalAmount:    decimal.Zero,
				ProcessingTime: standardProcessingTime,
			}
			groups[k] = batch
			order = append(order, k)
		}
		batch.PaymentIDs = append(batch.PaymentIDs, pay.ID)
		batch.TotalAmount = batch.TotalAmount.Add(pay.Amount)
		if pay.Flagged || pay.Priority == model.PriorityReviewRequired {
			batch.RequiresReview = true
			batch.ProcessingTime = reviewProcessingTime
		}
	}

	batches := make([]model.PaymentBatch, 0, len(groups))
	for _, k := range order {
		batches = append(batches, *groups[k])
	}
	sort.SliceStable(batches, func(i, j int) bool {
		ri, rj := batches[i].Priority.Rank(), batches[j].Priority.Rank()
		if ri != rj {
			return ri < rj
		}
		if !batches[i].TotalAmount.Equal(batches[j].TotalAmount) {
			return batches[i].TotalAmount.GreaterThan(batches[j].TotalAmount)
		}
		return batches[i].Currency < batches[j].Currency
	})
	return batches
}

func approvalRequirements(payments []model.Payment, report *model.RiskReport, c model.Constraints, cfg config.Config, now time.Time) model.ApprovalRequirements {
	total := decimal.Zero
	for _, pay := range payments {
		total = total.Add(pay.Amount)
	}

	reqs := model.ApprovalRequirements{RequiredApprovers: 1}

	if report.Level.RequiresManualReview() {
		reqs.RequiresManualReview = true
		reqs.RequiredApprovers = 2
	}
	if total.GreaterThan(c.AutoApprovalLimit) {
		reqs.RequiresManualReview = true
	}
	if len(report.Flagged) > 0 || len(report.ConstraintViolations) > 0 {
		reqs.RequiresManualReview = true
	}

	if report.Level == model.RiskCritical || total.GreaterThan(c.EscalationThreshold) {
		reqs.EscalationRequired = true
		reqs.RequiredApprovers = 3
	}

	// No deadline implies auto-eligible.
	if reqs.RequiresManualReview {
		deadline := now.Add(cfg.PaymentReviewWindow)
		reqs.Deadline = &deadline
	}
	return reqs
}

func summarize(p *model.PaymentProposal, report *model.RiskReport) model.ProposalSummary {
	s := model.ProposalSummary{
		TotalPayments:     len(p.Payments),
		TotalAmount:       decimal.Zero,
		CurrencyBreakdown: make(map[string]model.CurrencyTotal),
		PriorityBreakdown: make(map[model.Priority]int),
		RiskLevel:         report.Level,
		ComplianceStatus:  report.ComplianceStatus,
	}
	for _, pay := range p.Payments {
		s.TotalAmount = s.TotalAmount.Add(pay.Amount)
		ct := s.CurrencyBreakdown[pay.Currency]
		ct.Amount = ct.Amount.Add(pay.Amount)
		ct.Count++
		s.CurrencyBreakdown[pay.Currency] = ct
		s.PriorityBreakdown[pay.Priority]++
		if pay.Flagged {
			s.FlaggedPayments++
		}
	}
	s.TotalBatches = len(p.Batches)
	for _, b := range p.Batches {
		if b.RequiresReview {
			s.BatchesNeedingReview++
		}
	}
	return s
}
