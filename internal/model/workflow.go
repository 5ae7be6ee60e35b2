package model

import (
	"fmt"
	"time"
)

// Stage is the workflow's position in the pipeline. Stages only advance,
// never regress, except to the terminal ERROR stage.
type Stage string

const (
	StageParsed                     Stage = "PARSED"
	StageRiskAssessed               Stage = "RISK_ASSESSED"
	StagePaymentProposed            Stage = "PAYMENT_PROPOSED"
	StageAwaitingPaymentApproval    Stage = "AWAITING_PAYMENT_APPROVAL"
	StagePaymentExecuted            Stage = "PAYMENT_EXECUTED"
	StageInvestmentPlanned          Stage = "INVESTMENT_PLANNED"
	StageAwaitingInvestmentApproval Stage = "AWAITING_INVESTMENT_APPROVAL"
	StageInvestmentExecuted         Stage = "INVESTMENT_EXECUTED"
	StageCompleted                  Stage = "COMPLETED"
	StageError                      Stage = "ERROR"
)

var stageRank = map[Stage]int{
	StageParsed:                     0,
	StageRiskAssessed:               1,
	StagePaymentProposed:            2,
	StageAwaitingPaymentApproval:    3,
	StagePaymentExecuted:            4,
	StageInvestmentPlanned:          5,
	StageAwaitingInvestmentApproval: 6,
	StageInvestmentExecuted:         7,
	StageCompleted:                  8,
}

// Rank returns the stage ordinal; ERROR has no rank.
func (s Stage) Rank() (int, bool) {
	r, ok := stageRank[s]
	return r, ok
}

// WorkflowState is the aggregate root. Every other entity in a workflow is
// reachable only through it; the orchestrator is its sole owner.
type WorkflowState struct {
	ID          string                `json:"id"`
	Stage       Stage                 `json:"stage"`
	Records     []FinancialRecord     `json:"records"`
	Constraints Constraints           `json:"constraints"`
	Preferences InvestmentPreferences `json:"preferences"`

	RiskReport           *RiskReport         `json:"risk_report,omitempty"`
	PaymentProposal      *PaymentProposal    `json:"payment_proposal,omitempty"`
	PaymentCheckpoint    *ApprovalCheckpoint `json:"payment_checkpoint,omitempty"`
	PaymentExecution     *ExecutionResult    `json:"payment_execution,omitempty"`
	InvestmentPlan       *InvestmentPlan     `json:"investment_plan,omitempty"`
	InvestmentCheckpoint *ApprovalCheckpoint `json:"investment_checkpoint,omitempty"`
	InvestmentExecution  *ExecutionResult    `json:"investment_execution,omitempty"`

	// LastError preserves the originating failure when Stage is ERROR.
	LastError string `json:"last_error,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// AdvanceTo moves the workflow forward. Backward transitions are rejected;
// only Fail may leave the ordered progression.
func (w *WorkflowState) AdvanceTo(next Stage) error {
	if w.Stage == StageError {
		return fmt.Errorf("workflow %s is in ERROR and cannot advance", w.ID)
	}
	from, okFrom := w.Stage.Rank()
	to, okTo := next.Rank()
	if !okFrom || !okTo || to < from {
		return fmt.Errorf("workflow %s: illegal transition %s -> %s", w.ID, w.Stage, next)
	}
	w.Stage = next
	return nil
}

// Fail moves the workflow to the terminal ERROR stage, preserving the
// originating error for audit.
func (w *WorkflowState) Fail(err error) {
	w.Stage = StageError
	if err != nil {
		w.LastError = err.Error()
	}
}

// Complete marks the workflow finished.
func (w *WorkflowState) Complete(now time.Time) {
	w.Stage = StageCompleted
	w.CompletedAt = &now
}

// StepsCompleted lists the stages the workflow has passed through, in order.
func (w *WorkflowState) StepsCompleted() []Stage {
	rank, ok := w.Stage.Rank()
	if !ok {
		rank = -1
	}
	steps := make([]Stage, 0, rank+1)
	for _, s := range []Stage{
		StageParsed, StageRiskAssessed, StagePaymentProposed,
		StageAwaitingPaymentApproval, StagePaymentExecuted,
		StageInvestmentPlanned, StageAwaitingInvestmentApproval,
		StageInvestmentExecuted, StageCompleted,
	} {
		r, _ := s.Rank()
		if r <= rank {
			steps = append(steps, s)
		}
	}
	return steps
}

// PendingCheckpoint returns the checkpoint currently blocking the workflow,
// if any.
func (w *WorkflowState) PendingCheckpoint() *ApprovalCheckpoint {
	switch w.Stage {
	case StageAwaitingPaymentApproval:
		return w.PaymentCheckpoint
	case StageAwaitingInvestmentApproval:
		return w.InvestmentCheckpoint
	}
	return nil
}
