package model

import (
	"time"

	"github.com/google/uuid"
)

// CheckpointKind distinguishes the two human gates in the pipeline.
type CheckpointKind string

const (
	CheckpointPayment    CheckpointKind = "PAYMENT"
	CheckpointInvestment CheckpointKind = "INVESTMENT"
)

// CheckpointStatus is the state of an approval checkpoint. A checkpoint is
// terminal once it leaves PENDING_REVIEW and never transitions again.
type CheckpointStatus string

const (
	CheckpointPending  CheckpointStatus = "PENDING_REVIEW"
	CheckpointApproved CheckpointStatus = "APPROVED"
	CheckpointPartial  CheckpointStatus = "PARTIAL"
	CheckpointRejected CheckpointStatus = "REJECTED"
	CheckpointExpired  CheckpointStatus = "EXPIRED"
)

// Terminal reports whether the status permits no further transitions.
func (s CheckpointStatus) Terminal() bool {
	return s != CheckpointPending
}

// Decision is a reviewer's verdict on a pending checkpoint.
type Decision string

const (
	DecisionApproveAll Decision = "approve_all"
	DecisionRejectAll  Decision = "reject_all"
	DecisionPartial    Decision = "partial"
)

// Valid reports whether the decision is one the state machine accepts.
func (d Decision) Valid() bool {
	switch d {
	case DecisionApproveAll, DecisionRejectAll, DecisionPartial:
		return true
	}
	return false
}

// AuditEvent is one immutable entry in a checkpoint's audit trail.
type AuditEvent struct {
	Timestamp time.Time        `json:"timestamp"`
	Actor     string           `json:"actor"`
	Action    string           `json:"action"`
	From      CheckpointStatus `json:"from"`
	To        CheckpointStatus `json:"to"`
}

// ApprovalCheckpoint is a human-in-the-loop gate: the workflow suspends here
// until enough distinct approvals arrive, a rejection lands, or the deadline
// passes.
type ApprovalCheckpoint struct {
	ID                string           `json:"id"`
	Kind              CheckpointKind   `json:"kind"`
	Status            CheckpointStatus `json:"status"`
	RequiredApprovals int              `json:"required_approvals"`
	ReceivedApprovals int              `json:"received_approvals"`
	// ApprovedItemIDs accumulates across partial approvals; nil means all
	// items are approved once the checkpoint turns terminal via approve_all.
	ApprovedItemIDs []string     `json:"approved_item_ids,omitempty"`
	Approvers       []string     `json:"approvers,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	Deadline        time.Time    `json:"deadline"`
	AuditTrail      []AuditEvent `json:"audit_trail"`
}

// NewApprovalCheckpoint opens a pending checkpoint with its creation event.
func NewApprovalCheckpoint(kind CheckpointKind, requiredApprovals int, deadline time.Time, now time.Time) *ApprovalCheckpoint {
	if requiredApprovals < 1 {
		requiredApprovals = 1
	}
	return &ApprovalCheckpoint{
		ID:                uuid.NewString(),
		Kind:              kind,
		Status:            CheckpointPending,
		RequiredApprovals: requiredApprovals,
		CreatedAt:         now,
		Deadline:          deadline,
		AuditTrail: []AuditEvent{{
			Timestamp: now,
			Actor:     "system",
			Action:    "CHECKPOINT_CREATED",
			From:      CheckpointPending,
			To:        CheckpointPending,
		}},
	}
}

// Record appends an audit entry and applies the status transition.
func (c *ApprovalCheckpoint) Record(now time.Time, actor, action string, to CheckpointStatus) {
	c.AuditTrail = append(c.AuditTrail, AuditEvent{
		Timestamp: now,
		Actor:     actor,
		Action:    action,
		From:      c.Status,
		To:        to,
	})
	c.Status = to
}

// ExpireIfDue applies the lazy time-driven EXPIRED transition. Any
// state-reading operation after the deadline observes EXPIRED if the
// checkpoint is still pending.
func (c *ApprovalCheckpoint) ExpireIfDue(now time.Time) bool {
	if c.Status != CheckpointPending || !now.After(c.Deadline) {
		return false
	}
	c.Record(now, "system", "DEADLINE_EXPIRED", CheckpointExpired)
	return true
}
