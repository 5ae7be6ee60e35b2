// Package engine implements the treasury workflow orchestrator: risk
// assessment, payment proposal, the two human approval gates, simulated
// execution, and investment planning, driven as a forward-only stage
// machine over a persisted aggregate.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fluxwell/treasury-flow/internal/approval"
	"github.com/fluxwell/treasury-flow/internal/common"
	"github.com/fluxwell/treasury-flow/internal/config"
	"github.com/fluxwell/treasury-flow/internal/execution"
	"github.com/fluxwell/treasury-flow/internal/investment"
	"github.com/fluxwell/treasury-flow/internal/model"
	"github.com/fluxwell/treasury-flow/internal/proposal"
	"github.com/fluxwell/treasury-flow/internal/risk"
	"github.com/fluxwell/treasury-flow/internal/service"
)

// Engine orchestrates treasury workflows over a WorkflowStore. All mutating
// operations take the per-workflow lock, so each aggregate has a single
// writer at a time; reads of other workflows are never blocked.
type Engine struct {
	store service.WorkflowStore
	cfg   config.Config
	clock func() time.Time
}

// New creates an engine with the given store and configuration.
func New(store service.WorkflowStore, cfg config.Config) *Engine {
	return &Engine{
		store: store,
		cfg:   cfg,
		clock: time.Now,
	}
}

// DecisionOutcome reports what a reviewer decision did to the workflow.
// Execution and Plan stay nil until the checkpoint collects its required
// approvals; a rejection still produces an execution result with every
// item failed.
type DecisionOutcome struct {
	Workflow   *model.WorkflowState
	Checkpoint *model.ApprovalCheckpoint
	Execution  *model.ExecutionResult
	Plan       *model.InvestmentPlan
}

// Status is the reviewer-facing view of a workflow's position.
type Status struct {
	ID             string                    `json:"id"`
	Stage          model.Stage               `json:"stage"`
	StepsCompleted []model.Stage             `json:"steps_completed"`
	Pending        *model.ApprovalCheckpoint `json:"pending_checkpoint,omitempty"`
	LastError      string                    `json:"last_error,omitempty"`
	CreatedAt      time.Time                 `json:"created_at"`
	CompletedAt    *time.Time                `json:"completed_at,omitempty"`
}

// Ingest starts a workflow from normalized records: it scores risk, builds
// the payment proposal, and opens the payment checkpoint, returning with the
// workflow suspended at AWAITING_PAYMENT_APPROVAL. When the proposal needs
// no payments the engine skips straight through to investment planning.
func (e *Engine) Ingest(ctx context.Context, records []model.FinancialRecord, constraints model.Constraints, prefs model.InvestmentPreferences) (*model.WorkflowState, error) {
	now := e.clock()
	state := &model.WorkflowState{
		ID:          uuid.NewString(),
		Stage:       model.StageParsed,
		Records:     records,
		Constraints: e.normalizeConstraints(constraints),
		Preferences: prefs,
		CreatedAt:   now,
	}

	slog.Info("Starting treasury workflow",
		"workflow_id", state.ID,
		"records", len(records))

	state.RiskReport = risk.Assess(state.Records, state.Constraints)
	if err := state.AdvanceTo(model.StageRiskAssessed); err != nil {
		return nil, common.Internal("ingest", err)
	}
	slog.Info("Risk assessment complete",
		"workflow_id", state.ID,
		"level", state.RiskReport.Level,
		"score", state.RiskReport.OverallScore)

	state.PaymentProposal = proposal.Build(state.Records, state.RiskReport, state.Constraints, e.cfg, now)
	if err := state.AdvanceTo(model.StagePaymentProposed); err != nil {
		return nil, common.Internal("ingest", err)
	}

	if state.PaymentProposal.Status == model.ProposalNoPayments {
		// Nothing to approve or execute; the whole balance flows to
		// investment planning.
		state.PaymentExecution = emptyExecution(state.Constraints.AvailableBalance, now)
		if err := state.AdvanceTo(model.StagePaymentExecuted); err != nil {
			return nil, common.Internal("ingest", err)
		}
		if err := e.planInvestment(state, now); err != nil {
			return nil, err
		}
	} else {
		state.PaymentCheckpoint = approval.Open(
			model.CheckpointPayment,
			state.PaymentProposal.Requirements,
			e.cfg.PaymentReviewWindow,
			now,
		)
		if err := state.AdvanceTo(model.StageAwaitingPaymentApproval); err != nil {
			return nil, common.Internal("ingest", err)
		}
		slog.Info("Payment checkpoint opened",
			"workflow_id", state.ID,
			"checkpoint_id", state.PaymentCheckpoint.ID,
			"required_approvals", state.PaymentCheckpoint.RequiredApprovals,
			"deadline", state.PaymentCheckpoint.Deadline)
	}

	if err := e.store.Put(ctx, state); err != nil {
		return nil, common.Internal("ingest: persist workflow", err)
	}
	return state, nil
}

// GetProposal returns the workflow's payment proposal. Reading is
// side-effect free apart from lazy checkpoint expiry.
func (e *Engine) GetProposal(ctx context.Context, workflowID string) (*model.PaymentProposal, error) {
	unlock := e.store.Lock(workflowID)
	defer unlock()

	state, err := e.load(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	if err := e.expireDueCheckpoints(ctx, state); err != nil {
		return nil, err
	}
	if state.PaymentProposal == nil {
		return nil, fmt.Errorf("workflow %s has no payment proposal: %w", workflowID, common.ErrInvalidState)
	}
	return state.PaymentProposal, nil
}

// SubmitPaymentDecision records one reviewer's verdict on the payment
// checkpoint. Once the checkpoint collects its required approvals (or is
// rejected) the engine executes the approved set, plans the investment of
// the remaining balance, and opens the investment checkpoint.
func (e *Engine) SubmitPaymentDecision(ctx context.Context, workflowID, actor string, decision model.Decision, approvedIDs []string) (*DecisionOutcome, error) {
	unlock := e.store.Lock(workflowID)
	defer unlock()

	state, err := e.load(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	if state.PaymentExecution != nil {
		return nil, fmt.Errorf("workflow %s payments already executed: %w", workflowID, common.ErrAlreadyExecuted)
	}
	if state.Stage != model.StageAwaitingPaymentApproval {
		return nil, fmt.Errorf("workflow %s is at %s, not awaiting payment approval: %w", workflowID, state.Stage, common.ErrInvalidState)
	}

	now := e.clock()
	allIDs := paymentIDs(state.PaymentProposal)
	res, err := approval.Submit(state.PaymentCheckpoint, actor, decision, approvedIDs, allIDs, now)
	if err != nil {
		return nil, e.handleDecisionError(ctx, state, err)
	}

	slog.Info("Payment decision recorded",
		"workflow_id", state.ID,
		"actor", actor,
		"decision", decision,
		"status", state.PaymentCheckpoint.Status)

	outcome := &DecisionOutcome{Workflow: state, Checkpoint: state.PaymentCheckpoint}
	if !res.Terminal {
		if err := e.store.Put(ctx, state); err != nil {
			return nil, common.Internal("submit payment decision: persist workflow", err)
		}
		return outcome, nil
	}

	result, err := execution.Run(
		state.PaymentCheckpoint,
		paymentItems(state.PaymentProposal),
		state.Constraints.AvailableBalance,
		e.cfg.FeeRate,
		now,
	)
	if err != nil {
		return nil, common.Internal("execute payments", err)
	}
	state.PaymentExecution = result
	if err := state.AdvanceTo(model.StagePaymentExecuted); err != nil {
		return nil, common.Internal("submit payment decision", err)
	}
	slog.Info("Payment execution complete",
		"workflow_id", state.ID,
		"succeeded", result.Succeeded,
		"failed", result.Failed,
		"remaining_balance", result.RemainingBalance)

	if err := e.planInvestment(state, now); err != nil {
		return nil, err
	}
	if err := e.store.Put(ctx, state); err != nil {
		return nil, common.Internal("submit payment decision: persist workflow", err)
	}
	outcome.Execution = result
	outcome.Plan = state.InvestmentPlan
	return outcome, nil
}

// GetInvestmentPlan returns the workflow's investment plan.
func (e *Engine) GetInvestmentPlan(ctx context.Context, workflowID string) (*model.InvestmentPlan, error) {
	unlock := e.store.Lock(workflowID)
	defer unlock()

	state, err := e.load(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	if err := e.expireDueCheckpoints(ctx, state); err != nil {
		return nil, err
	}
	if state.InvestmentPlan == nil {
		return nil, fmt.Errorf("workflow %s has no investment plan: %w", workflowID, common.ErrInvalidState)
	}
	return state.InvestmentPlan, nil
}

// SubmitInvestmentDecision records one reviewer's verdict on the investment
// checkpoint. On the terminal decision the approved recommendations are
// executed and the workflow completes.
func (e *Engine) SubmitInvestmentDecision(ctx context.Context, workflowID, actor string, decision model.Decision, approvedIDs []string) (*DecisionOutcome, error) {
	unlock := e.store.Lock(workflowID)
	defer unlock()

	state, err := e.load(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	if state.InvestmentExecution != nil {
		return nil, fmt.Errorf("workflow %s investments already executed: %w", workflowID, common.ErrAlreadyExecuted)
	}
	if state.Stage != model.StageAwaitingInvestmentApproval {
		return nil, fmt.Errorf("workflow %s is at %s, not awaiting investment approval: %w", workflowID, state.Stage, common.ErrInvalidState)
	}

	now := e.clock()
	allIDs := recommendationIDs(state.InvestmentPlan)
	res, err := approval.Submit(state.InvestmentCheckpoint, actor, decision, approvedIDs, allIDs, now)
	if err != nil {
		return nil, e.handleDecisionError(ctx, state, err)
	}

	slog.Info("Investment decision recorded",
		"workflow_id", state.ID,
		"actor", actor,
		"decision", decision,
		"status", state.InvestmentCheckpoint.Status)

	outcome := &DecisionOutcome{Workflow: state, Checkpoint: state.InvestmentCheckpoint}
	if !res.Terminal {
		if err := e.store.Put(ctx, state); err != nil {
			return nil, common.Internal("submit investment decision: persist workflow", err)
		}
		return outcome, nil
	}

	// Fees draw against the full available balance so the reserve absorbs
	// them rather than failing the last recommendation.
	result, err := execution.Run(
		state.InvestmentCheckpoint,
		recommendationItems(state.InvestmentPlan),
		state.InvestmentPlan.AvailableFunds,
		e.cfg.ExecutionFeeRate,
		now,
	)
	if err != nil {
		return nil, common.Internal("execute investments", err)
	}
	state.InvestmentExecution = result
	if err := state.AdvanceTo(model.StageInvestmentExecuted); err != nil {
		return nil, common.Internal("submit investment decision", err)
	}
	state.Complete(now)
	slog.Info("Workflow complete",
		"workflow_id", state.ID,
		"succeeded", result.Succeeded,
		"failed", result.Failed)

	if err := e.store.Put(ctx, state); err != nil {
		return nil, common.Internal("submit investment decision: persist workflow", err)
	}
	outcome.Execution = result
	return outcome, nil
}

// GetWorkflowStatus reports the workflow's stage and pending checkpoint.
func (e *Engine) GetWorkflowStatus(ctx context.Context, workflowID string) (*Status, error) {
	unlock := e.store.Lock(workflowID)
	defer unlock()

	state, err := e.load(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	if err := e.expireDueCheckpoints(ctx, state); err != nil {
		return nil, err
	}
	return &Status{
		ID:             state.ID,
		Stage:          state.Stage,
		StepsCompleted: state.StepsCompleted(),
		Pending:        state.PendingCheckpoint(),
		LastError:      state.LastError,
		CreatedAt:      state.CreatedAt,
		CompletedAt:    state.CompletedAt,
	}, nil
}

// GetWorkflow returns the full aggregate, for rendering and inspection.
func (e *Engine) GetWorkflow(ctx context.Context, workflowID string) (*model.WorkflowState, error) {
	unlock := e.store.Lock(workflowID)
	defer unlock()
	return e.load(ctx, workflowID)
}

func (e *Engine) load(ctx context.Context, workflowID string) (*model.WorkflowState, error) {
	state, err := e.store.Get(ctx, workflowID)
	if err != nil {
		return nil, fmt.Errorf("workflow %s: %w", workflowID, err)
	}
	if state.RiskReport != nil {
		state.RiskReport.RebuildFlagSet()
	}
	return state, nil
}

// planInvestment derives the plan from the payment stage's remaining balance
// and either opens the investment checkpoint or, with no investable funds,
// completes the workflow.
func (e *Engine) planInvestment(state *model.WorkflowState, now time.Time) error {
	plan := investment.Plan(state.PaymentExecution.RemainingBalance, state.Preferences, e.cfg, now)
	state.InvestmentPlan = plan
	if err := state.AdvanceTo(model.StageInvestmentPlanned); err != nil {
		return common.Internal("plan investment", err)
	}

	if plan.Status == model.PlanNoFunds {
		state.Complete(now)
		slog.Info("No funds available to invest, workflow complete",
			"workflow_id", state.ID)
		return nil
	}

	state.InvestmentCheckpoint = approval.Open(
		model.CheckpointInvestment,
		plan.Requirements,
		e.cfg.InvestmentReviewWindow,
		now,
	)
	if err := state.AdvanceTo(model.StageAwaitingInvestmentApproval); err != nil {
		return common.Internal("plan investment", err)
	}
	slog.Info("Investment checkpoint opened",
		"workflow_id", state.ID,
		"checkpoint_id", state.InvestmentCheckpoint.ID,
		"approval_level", plan.ApprovalLevel,
		"investable_funds", plan.InvestableFunds)
	return nil
}

// handleDecisionError persists checkpoint mutations that accompany a failed
// submission. Expiry fails the workflow; validation and state errors leave
// it untouched.
func (e *Engine) handleDecisionError(ctx context.Context, state *model.WorkflowState, submitErr error) error {
	if errors.Is(submitErr, common.ErrCheckpointExpired) {
		state.Fail(submitErr)
		slog.Warn("Checkpoint expired, workflow failed",
			"workflow_id", state.ID,
			"error", submitErr)
		if err := e.store.Put(ctx, state); err != nil {
			return common.Internal("persist expired workflow", err)
		}
	}
	return submitErr
}

// expireDueCheckpoints applies lazy expiry on reads: a pending checkpoint
// past its deadline turns EXPIRED and fails the workflow.
func (e *Engine) expireDueCheckpoints(ctx context.Context, state *model.WorkflowState) error {
	cp := state.PendingCheckpoint()
	if cp == nil || !cp.ExpireIfDue(e.clock()) {
		return nil
	}
	state.Fail(fmt.Errorf("%s checkpoint %s: %w", cp.Kind, cp.ID, common.ErrCheckpointExpired))
	slog.Warn("Checkpoint expired on read",
		"workflow_id", state.ID,
		"checkpoint_id", cp.ID)
	if err := e.store.Put(ctx, state); err != nil {
		return common.Internal("persist expired workflow", err)
	}
	return nil
}

// normalizeConstraints fills zero-valued thresholds from configuration so
// scoring and gating always have working limits.
func (e *Engine) normalizeConstraints(c model.Constraints) model.Constraints {
	if c.HighValueThreshold.IsZero() {
		c.HighValueThreshold = e.cfg.HighValueThreshold
	}
	if c.AutoApprovalLimit.IsZero() {
		c.AutoApprovalLimit = e.cfg.AutoApprovalLimit
	}
	if c.EscalationThreshold.IsZero() {
		c.EscalationThreshold = e.cfg.EscalationThreshold
	}
	return c
}

func paymentIDs(p *model.PaymentProposal) []string {
	ids := make([]string, len(p.Payments))
	for i := range p.Payments {
		ids[i] = p.Payments[i].ID
	}
	return ids
}

func paymentItems(p *model.PaymentProposal) []execution.Item {
	items := make([]execution.Item, len(p.Payments))
	for i, pay := range p.Payments {
		items[i] = execution.Item{
			ID:          pay.ID,
			Amount:      pay.Amount,
			Destination: pay.Recipient,
		}
	}
	return items
}

func recommendationIDs(plan *model.InvestmentPlan) []string {
	ids := make([]string, len(plan.Recommendations))
	for i := range plan.Recommendations {
		ids[i] = plan.Recommendations[i].ID
	}
	return ids
}

func recommendationItems(plan *model.InvestmentPlan) []execution.Item {
	items := make([]execution.Item, len(plan.Recommendations))
	for i, rec := range plan.Recommendations {
		items[i] = execution.Item{
			ID:          rec.ID,
			Amount:      rec.Allocation,
			Destination: rec.Product,
		}
	}
	return items
}

func emptyExecution(balance decimal.Decimal, now time.Time) *model.ExecutionResult {
	return &model.ExecutionResult{
		ID:               "EXEC-NONE",
		ExecutedAt:       now,
		InitialBalance:   balance,
		RemainingBalance: balance,
		TotalProcessed:   decimal.Zero,
		TotalFees:        decimal.Zero,
		NetAmount:        decimal.Zero,
	}
}
