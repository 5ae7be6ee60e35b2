package approval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxwell/treasury-flow/internal/common"
	"github.com/fluxwell/treasury-flow/internal/model"
)

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

var itemIDs = []string{"p1", "p2", "p3"}

func open(t *testing.T, required int) *model.ApprovalCheckpoint {
	t.Helper()
	reqs := model.ApprovalRequirements{RequiredApprovers: required}
	c := Open(model.CheckpointPayment, reqs, 24*time.Hour, testNow)
	require.Equal(t, model.CheckpointPending, c.Status)
	return c
}

func TestOpenUsesDefaultWindow(t *testing.T) {
	c := open(t, 1)
	assert.Equal(t, testNow.Add(24*time.Hour), c.Deadline)

	deadline := testNow.Add(2 * time.Hour)
	c = Open(model.CheckpointInvestment, model.ApprovalRequirements{RequiredApprovers: 1, Deadline: &deadline}, 48*time.Hour, testNow)
	assert.Equal(t, deadline, c.Deadline)
	assert.Equal(t, model.CheckpointInvestment, c.Kind)

	require.Len(t, c.AuditTrail, 1)
	assert.Equal(t, "CHECKPOINT_CREATED", c.AuditTrail[0].Action)
}

func TestSubmitApproveAll(t *testing.T) {
	c := open(t, 1)
	res, err := Submit(c, "alice", model.DecisionApproveAll, nil, itemIDs, testNow)
	require.NoError(t, err)

	assert.True(t, res.Terminal)
	assert.ElementsMatch(t, itemIDs, res.ApprovedIDs)
	assert.Equal(t, model.CheckpointApproved, c.Status)
	assert.Equal(t, []string{"alice"}, c.Approvers)
}

func TestSubmitRejectAllIsImmediatelyTerminal(t *testing.T) {
	c := open(t, 3)
	res, err := Submit(c, "alice", model.DecisionRejectAll, nil, itemIDs, testNow)
	require.NoError(t, err)

	assert.True(t, res.Terminal)
	assert.Empty(t, res.ApprovedIDs)
	assert.Equal(t, model.CheckpointRejected, c.Status)
}

func TestSubmitPartial(t *testing.T) {
	c := open(t, 1)
	res, err := Submit(c, "alice", model.DecisionPartial, []string{"p1", "p3"}, itemIDs, testNow)
	require.NoError(t, err)

	assert.True(t, res.Terminal)
	assert.Equal(t, []string{"p1", "p3"}, res.ApprovedIDs)
	assert.Equal(t, model.CheckpointPartial, c.Status)
}

func TestSubmitPartialUnknownID(t *testing.T) {
	c := open(t, 1)
	_, err := Submit(c, "alice", model.DecisionPartial, []string{"nope"}, itemIDs, testNow)
	require.Error(t, err)
	assert.True(t, common.IsValidation(err))
	assert.Equal(t, model.CheckpointPending, c.Status)
}

func TestSubmitInvalidDecision(t *testing.T) {
	c := open(t, 1)
	_, err := Submit(c, "alice", model.Decision("maybe"), nil, itemIDs, testNow)
	require.Error(t, err)
	assert.True(t, common.IsValidation(err))
}

func TestSubmitMultiApproverSequence(t *testing.T) {
	c := open(t, 2)

	res, err := Submit(c, "alice", model.DecisionApproveAll, nil, itemIDs, testNow)
	require.NoError(t, err)
	assert.False(t, res.Terminal)
	assert.Equal(t, model.CheckpointPending, c.Status)
	assert.Equal(t, 1, c.ReceivedApprovals)

	res, err = Submit(c, "bob", model.DecisionApproveAll, nil, itemIDs, testNow.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, res.Terminal)
	assert.Equal(t, model.CheckpointApproved, c.Status)
	assert.ElementsMatch(t, itemIDs, res.ApprovedIDs)
}

func TestSubmitPartialSetsIntersect(t *testing.T) {
	// An item executes only if every required approver approved it.
	c := open(t, 2)

	_, err := Submit(c, "alice", model.DecisionPartial, []string{"p1", "p2"}, itemIDs, testNow)
	require.NoError(t, err)

	res, err := Submit(c, "bob", model.DecisionPartial, []string{"p2", "p3"}, itemIDs, testNow)
	require.NoError(t, err)

	assert.True(t, res.Terminal)
	assert.Equal(t, []string{"p2"}, res.ApprovedIDs)
	assert.Equal(t, model.CheckpointPartial, c.Status)
}

func TestSubmitDuplicateActorRejected(t *testing.T) {
	c := open(t, 2)

	_, err := Submit(c, "alice", model.DecisionApproveAll, nil, itemIDs, testNow)
	require.NoError(t, err)

	_, err = Submit(c, "alice", model.DecisionApproveAll, nil, itemIDs, testNow)
	require.Error(t, err)
	assert.True(t, common.IsValidation(err))
	assert.Equal(t, 1, c.ReceivedApprovals)
}

func TestSubmitAfterTerminalFailsWithoutSideEffect(t *testing.T) {
	c := open(t, 1)
	_, err := Submit(c, "alice", model.DecisionApproveAll, nil, itemIDs, testNow)
	require.NoError(t, err)

	trailLen := len(c.AuditTrail)
	_, err = Submit(c, "bob", model.DecisionRejectAll, nil, itemIDs, testNow)
	require.ErrorIs(t, err, common.ErrInvalidState)
	assert.Equal(t, model.CheckpointApproved, c.Status)
	assert.Len(t, c.AuditTrail, trailLen)
}

func TestSubmitExpiredCheckpoint(t *testing.T) {
	c := open(t, 1)
	late := testNow.Add(25 * time.Hour)

	_, err := Submit(c, "alice", model.DecisionApproveAll, nil, itemIDs, late)
	require.ErrorIs(t, err, common.ErrCheckpointExpired)
	assert.Equal(t, model.CheckpointExpired, c.Status)

	// And the expiry itself is terminal.
	_, err = Submit(c, "bob", model.DecisionApproveAll, nil, itemIDs, late)
	require.ErrorIs(t, err, common.ErrInvalidState)
}

func TestSubmitAuditTrailGrowth(t *testing.T) {
	c := open(t, 2)
	_, err := Submit(c, "alice", model.DecisionApproveAll, nil, itemIDs, testNow)
	require.NoError(t, err)
	_, err = Submit(c, "bob", model.DecisionApproveAll, nil, itemIDs, testNow)
	require.NoError(t, err)

	require.Len(t, c.AuditTrail, 3)
	assert.Equal(t, "CHECKPOINT_CREATED", c.AuditTrail[0].Action)
	assert.Equal(t, "APPROVAL_RECORDED", c.AuditTrail[1].Action)
	assert.Equal(t, "DECISION_APPROVE_ALL", c.AuditTrail[2].Action)
	assert.Equal(t, model.CheckpointPending, c.AuditTrail[2].From)
	assert.Equal(t, model.CheckpointApproved, c.AuditTrail[2].To)
}
