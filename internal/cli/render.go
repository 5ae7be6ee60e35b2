package cli

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fluxwell/treasury-flow/internal/model"
)

var hundred = decimal.NewFromInt(100)

// RenderProposal formats a payment proposal for reviewer inspection.
func RenderProposal(p *model.PaymentProposal) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Payment Proposal " + p.ID))
	b.WriteString("\n")

	if p.Status == model.ProposalNoPayments {
		b.WriteString(SubtleStyle.Render("No payments required."))
		b.WriteString("\n")
		return b.String()
	}

	s := p.Summary
	fmt.Fprintf(&b, "%s %d payments, total %s, %d flagged\n",
		BoldStyle.Render("Summary:"), s.TotalPayments, s.TotalAmount.StringFixed(2), s.FlaggedPayments)
	fmt.Fprintf(&b, "Risk: %s  Compliance: %s\n",
		LevelStyle(string(s.RiskLevel)).Render(string(s.RiskLevel)), string(s.ComplianceStatus))

	for _, batch := range p.Batches {
		review := ""
		if batch.RequiresReview {
			review = WarningStyle.Render(" [review]")
		}
		fmt.Fprintf(&b, "\n%s %s / %s  total %s  (%d payments, %s)%s\n",
			BoldStyle.Render("Batch"), batch.Currency,
			LevelStyle(string(batch.Priority)).Render(string(batch.Priority)),
			batch.TotalAmount.StringFixed(2), len(batch.PaymentIDs), batch.ProcessingTime, review)
		for _, id := range batch.PaymentIDs {
			pay := p.PaymentByID(id)
			if pay == nil {
				continue
			}
			line := fmt.Sprintf("  %s  %s %s  -> %s  %s",
				pay.ID, pay.Amount.StringFixed(2), pay.Currency, recipientOrUnknown(pay.Recipient), pay.Description)
			if pay.Flagged {
				line = WarningStyle.Render(line + "  ⚑ " + strings.Join(pay.Issues, "; "))
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	req := p.Requirements
	fmt.Fprintf(&b, "\n%s approvers=%d manual_review=%v escalation=%v",
		BoldStyle.Render("Approval:"), req.RequiredApprovers, req.RequiresManualReview, req.EscalationRequired)
	if req.Deadline != nil {
		fmt.Fprintf(&b, " deadline=%s", req.Deadline.Format("2006-01-02 15:04 MST"))
	}
	b.WriteString("\n")
	return b.String()
}

// RenderPlan formats an investment plan for reviewer inspection.
func RenderPlan(p *model.InvestmentPlan) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Investment Plan " + p.ID))
	b.WriteString("\n")

	if p.Status == model.PlanNoFunds {
		b.WriteString(SubtleStyle.Render("No funds available to invest."))
		b.WriteString("\n")
		return b.String()
	}

	fmt.Fprintf(&b, "Available %s  Reserve %s  Investable %s  Tolerance %s\n",
		p.AvailableFunds.StringFixed(2), p.EmergencyReserve.StringFixed(2),
		p.InvestableFunds.StringFixed(2), string(p.Tolerance))
	fmt.Fprintf(&b, "Approval level: %s  Diversification %s  Liquidity ratio %s\n",
		LevelStyle(string(p.ApprovalLevel)).Render(string(p.ApprovalLevel)),
		p.DiversificationScore.String(), p.LiquidityRatio.String())

	for _, cat := range model.AllCategories() {
		alloc, ok := p.Allocations[cat]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "\n%s %s  %s (%s%%)\n",
			BoldStyle.Render("Category"), string(cat),
			alloc.Amount.StringFixed(2), alloc.Percentage.Mul(hundred).StringFixed(1))
		for _, rec := range p.Recommendations {
			if rec.Category != cat {
				continue
			}
			fmt.Fprintf(&b, "  %s  %s  %s  %s  liquidity=%s\n",
				rec.ID, rec.Product, rec.Allocation.StringFixed(2),
				rec.ExpectedReturn, string(rec.Liquidity))
		}
	}

	for _, note := range p.Notes {
		b.WriteString(WarningStyle.Render("Note: " + note))
		b.WriteString("\n")
	}
	return b.String()
}

// RenderExecution formats a simulated execution result.
func RenderExecution(r *model.ExecutionResult) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Execution " + r.ID))
	b.WriteString("\n")
	for _, item := range r.Items {
		if item.Status == model.ItemSuccess {
			fmt.Fprintf(&b, "  %s\n", SuccessStyle.Render(fmt.Sprintf(
				"%s  %s  fee %s  %s", item.ID, item.Amount.StringFixed(2),
				item.Fee.StringFixed(2), item.ConfirmationCode)))
		} else {
			fmt.Fprintf(&b, "  %s\n", ErrorStyle.Render(fmt.Sprintf(
				"%s  %s  FAILED: %s", item.ID, item.Amount.StringFixed(2), string(item.FailureReason))))
		}
	}
	fmt.Fprintf(&b, "%s %d succeeded, %d failed, processed %s, fees %s, remaining %s\n",
		BoldStyle.Render("Totals:"), r.Succeeded, r.Failed,
		r.TotalProcessed.StringFixed(2), r.TotalFees.StringFixed(2), r.RemainingBalance.StringFixed(2))
	return b.String()
}

// RenderCheckpoint formats a checkpoint's approval progress and audit trail.
func RenderCheckpoint(c *model.ApprovalCheckpoint) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s (%s)  status=%s  approvals %d/%d  deadline %s\n",
		BoldStyle.Render("Checkpoint"), c.ID, string(c.Kind),
		LevelStyle(checkpointLevel(c.Status)).Render(string(c.Status)),
		c.ReceivedApprovals, c.RequiredApprovals, c.Deadline.Format("2006-01-02 15:04 MST"))
	for _, ev := range c.AuditTrail {
		fmt.Fprintf(&b, "  %s  %-20s %s -> %s  by %s\n",
			SubtleStyle.Render(ev.Timestamp.Format("2006-01-02 15:04:05")),
			ev.Action, string(ev.From), string(ev.To), ev.Actor)
	}
	return b.String()
}

func checkpointLevel(s model.CheckpointStatus) string {
	switch s {
	case model.CheckpointApproved:
		return "LOW"
	case model.CheckpointPartial, model.CheckpointPending:
		return "MEDIUM"
	}
	return "HIGH"
}

func recipientOrUnknown(r string) string {
	if strings.TrimSpace(r) == "" {
		return "(unknown)"
	}
	return r
}
