/*
engine.go - Engine wiring

PURPOSE:
  The Engine owns the reconciliation primitives: recomputation, the
  arrears waterfall, propagation, and payment lifecycle operations. It
  holds the store and the per-student lock registry; the Sweeper (sweep.go)
  drives the same Engine on a schedule.

CONCURRENCY:
  All ledger mutations for a student are serialized through the lock
  registry. Request handlers and the sweep share the Engine - nothing in
  the design assumes a single caller.

SEE ALSO:
  - recompute.go, waterfall.go, propagate.go, payments.go, sweep.go
*/
package ledger

import (
	"time"

	"github.com/google/uuid"
)

// Engine is the fee ledger reconciliation engine.
type Engine struct {
	store Store
	locks *studentLocks
}

func NewEngine(store Store) *Engine {
	return &Engine{
		store: store,
		locks: newStudentLocks(),
	}
}

// Store exposes the underlying store for read-only collaborators
// (HTTP listing endpoints). Mutations go through Engine methods.
func (e *Engine) Store() Store { return e.store }

func newID() string { return uuid.NewString() }

func nowUTC() time.Time { return time.Now().UTC() }
