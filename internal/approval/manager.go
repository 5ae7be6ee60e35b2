// Package approval implements the human-in-the-loop checkpoint state
// machine: PENDING_REVIEW -> {APPROVED, PARTIAL, REJECTED}, with a lazy
// time-driven EXPIRED transition.
package approval

import (
	"fmt"
	"sort"
	"time"

	"github.com/fluxwell/treasury-flow/internal/common"
	"github.com/fluxwell/treasury-flow/internal/model"
)

// Open creates a pending checkpoint for a proposal. When the proposal set no
// deadline the default review window still applies, so expiry stays
// well-defined for every checkpoint.
func Open(kind model.CheckpointKind, reqs model.ApprovalRequirements, defaultWindow time.Duration, now time.Time) *model.ApprovalCheckpoint {
	deadline := now.Add(defaultWindow)
	if reqs.Deadline != nil {
		deadline = *reqs.Deadline
	}
	return model.NewApprovalCheckpoint(kind, reqs.RequiredApprovers, deadline, now)
}

// Result reports what a decision submission did to the checkpoint.
type Result struct {
	// Terminal is true once the checkpoint left PENDING_REVIEW.
	Terminal bool
	// ApprovedIDs is the item set eligible for execution; only meaningful
	// when Terminal and the status is APPROVED or PARTIAL.
	ApprovedIDs []string
}

// Submit records one reviewer's decision.
//
// approve_all and partial count toward the required approval total; the
// terminal transition fires only once receivedApprovals reaches it, so
// multi-approver checkpoints accept sequential submissions from distinct
// actors. reject_all terminates immediately. Decisions against a
// non-pending checkpoint fail with ErrInvalidState and have no side effect.
func Submit(c *model.ApprovalCheckpoint, actor string, decision model.Decision, approvedIDs []string, allItemIDs []string, now time.Time) (Result, error) {
	if c.ExpireIfDue(now) {
		return Result{}, fmt.Errorf("checkpoint %s: %w", c.ID, common.ErrCheckpointExpired)
	}
	if c.Status.Terminal() {
		return Result{}, fmt.Errorf("checkpoint %s is %s: %w", c.ID, c.Status, common.ErrInvalidState)
	}
	if !decision.Valid() {
		return Result{}, common.NewValidationError("decision", fmt.Sprintf("unknown decision %q", decision))
	}
	if actor == "" {
		actor = "reviewer"
	}
	for _, prev := range c.Approvers {
		if prev == actor {
			return Result{}, common.NewValidationError("actor", fmt.Sprintf("approver %q already submitted a decision", actor))
		}
	}

	if decision == model.DecisionRejectAll {
		c.Record(now, actor, "DECISION_REJECT_ALL", model.CheckpointRejected)
		return Result{Terminal: true}, nil
	}

	approved := allItemIDs
	if decision == model.DecisionPartial {
		valid := make(map[string]struct{}, len(allItemIDs))
		for _, id := range allItemIDs {
			valid[id] = struct{}{}
		}
		for _, id := range approvedIDs {
			if _, ok := valid[id]; !ok {
				return Result{}, common.NewValidationError("approved_ids", fmt.Sprintf("unknown item id %q", id))
			}
		}
		approved = approvedIDs
	}

	// Each required approver must approve an item for it to execute:
	// partial sets intersect across submissions.
	if c.ReceivedApprovals == 0 {
		c.ApprovedItemIDs = dedupe(approved)
	} else {
		c.ApprovedItemIDs = intersect(c.ApprovedItemIDs, approved)
	}
	c.ReceivedApprovals++
	c.Approvers = append(c.Approvers, actor)

	if c.ReceivedApprovals < c.RequiredApprovals {
		c.Record(now, actor, "APPROVAL_RECORDED", model.CheckpointPending)
		return Result{Terminal: false}, nil
	}

	status := model.CheckpointApproved
	action := "DECISION_APPROVE_ALL"
	if len(c.ApprovedItemIDs) < len(allItemIDs) {
		status = model.CheckpointPartial
		action = "DECISION_PARTIAL"
	}
	c.Record(now, actor, action, status)
	return Result{Terminal: true, ApprovedIDs: c.ApprovedItemIDs}, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

func intersect(a, b []string) []string {
	inB := make(map[string]struct{}, len(b))
	for _, id := range b {
		inB[id] = struct{}{}
	}
	out := make([]string, 0, len(a))
	for _, id := range a {
		if _, ok := inB[id]; ok {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
