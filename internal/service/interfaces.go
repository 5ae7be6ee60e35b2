// Package service defines the interfaces between the engine and the
// surrounding system.
package service

import (
	"context"

	"github.com/fluxwell/treasury-flow/internal/model"
)

// WorkflowStore persists the WorkflowState aggregate. State is isolated per
// workflow id; the only cross-workflow structure is the id lookup itself.
//
// Lock provides the coarse single-writer-at-a-time guarantee per workflow id
// that the at-most-once execution and single-terminal-transition invariants
// rely on. Operations on distinct ids proceed fully in parallel.
type WorkflowStore interface {
	// Get returns the stored aggregate, or common.ErrNotFound.
	Get(ctx context.Context, id string) (*model.WorkflowState, error)
	// Put stores or replaces the aggregate.
	Put(ctx context.Context, state *model.WorkflowState) error
	// Lock acquires the per-workflow mutex and returns its release func.
	Lock(id string) (unlock func())
	// Close releases any underlying resources.
	Close() error
}
