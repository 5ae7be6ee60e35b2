// Package execution applies an approval decision in simulation mode: full
// destination and balance validation with fee accounting, no fund movement.
package execution

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fluxwell/treasury-flow/internal/common"
	"github.com/fluxwell/treasury-flow/internal/model"
)

// Item is one executable unit: a proposed payment or an investment
// recommendation.
type Item struct {
	ID          string
	Amount      decimal.Decimal
	Destination string
}

// Run simulates execution of a decided checkpoint over its items.
//
// Items outside the approved set are recorded as failed-by-rejection. The
// only other failure modes are an invalid destination and insufficient
// simulated balance, both checked explicitly. The caller enforces
// at-most-once per checkpoint; Run itself only validates that the
// checkpoint carries a terminal decision.
func Run(checkpoint *model.ApprovalCheckpoint, items []Item, initialBalance, feeRate decimal.Decimal, now time.Time) (*model.ExecutionResult, error) {
	switch checkpoint.Status {
	case model.CheckpointApproved, model.CheckpointPartial, model.CheckpointRejected:
	default:
		return nil, fmt.Errorf("checkpoint %s is %s, not decided: %w", checkpoint.ID, checkpoint.Status, common.ErrInvalidState)
	}

	approved := make(map[string]struct{}, len(checkpoint.ApprovedItemIDs))
	if checkpoint.Status != model.CheckpointRejected {
		for _, id := range checkpoint.ApprovedItemIDs {
			approved[id] = struct{}{}
		}
	}

	result := &model.ExecutionResult{
		ID:             "EXEC-" + shortHex(4),
		CheckpointID:   checkpoint.ID,
		ExecutedAt:     now,
		Items:          make([]model.ItemResult, 0, len(items)),
		TotalProcessed: decimal.Zero,
		TotalFees:      decimal.Zero,
		InitialBalance: initialBalance,
	}

	running := initialBalance
	for _, item := range items {
		ir := model.ItemResult{
			ID:     item.ID,
			Status: model.ItemFailed,
			Amount: item.Amount.Round(2),
			Fee:    decimal.Zero,
		}

		if _, ok := approved[item.ID]; !ok {
			ir.FailureReason = model.FailureRejected
		} else if !validDestination(item.Destination) {
			ir.FailureReason = model.FailureInvalidDestination
		} else {
			fee := item.Amount.Mul(feeRate).Round(2)
			needed := item.Amount.Add(fee)
			if running.LessThan(needed) {
				ir.FailureReason = model.FailureInsufficientFunds
			} else {
				running = running.Sub(needed)
				ir.Status = model.ItemSuccess
				ir.Fee = fee
				ir.ConfirmationCode = "SIM-" + shortHex(4)
				result.TotalProcessed = result.TotalProcessed.Add(ir.Amount)
				result.TotalFees = result.TotalFees.Add(fee)
			}
		}

		if ir.Status == model.ItemSuccess {
			result.Succeeded++
		} else {
			result.Failed++
		}
		result.Items = append(result.Items, ir)
	}

	result.NetAmount = result.TotalProcessed.Sub(result.TotalFees)
	remaining := initialBalance.Sub(result.TotalProcessed).Sub(result.TotalFees)
	result.RemainingBalance = decimal.Max(decimal.Zero, remaining)
	return result, nil
}

func validDestination(dest string) bool {
	d := strings.ToLower(strings.TrimSpace(dest))
	return d != "" && d != "unknown"
}

func shortHex(n int) string {
	u := uuid.New()
	return hex.EncodeToString(u[:n])
}
