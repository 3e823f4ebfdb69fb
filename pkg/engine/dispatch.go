package engine

import (
	"context"

	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// CanonicalFlip describes the rows a single insert/set_canonical call
// touched, as the store layer sees it: the lowest event_seq whose
// canonical flag flipped from true to false, if any. The store computes
// this from its own diff of the write it just performed; the dispatcher
// does not inspect rows itself.
type CanonicalFlip struct {
	Instance        InstanceKey
	WentFalseMinSeq *uint64
}

// Dispatcher runs rollback before re-catch-up, within the same transaction
// the triggering write ran in.
type Dispatcher struct {
	Catchup  *CatchupEngine
	Rollback *RollbackEngine
	Log      *zap.Logger
}

// NewDispatcher builds a Dispatcher wiring the catch-up and rollback engines
// together; one Dispatcher serves every instance.
func NewDispatcher(catchup *CatchupEngine, rollback *RollbackEngine, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{Catchup: catchup, Rollback: rollback, Log: log}
}

// OnInsert runs catch-up for instance after new canonical rows were
// appended with no preceding canonicality flip.
func (d *Dispatcher) OnInsert(ctx context.Context, db bun.IDB, instance InstanceKey) error {
	return d.Catchup.ApplyCatchup(ctx, db, instance)
}

// OnCanonicalFlip runs rollback (if the write flipped any row from
// canonical to non-canonical) followed unconditionally by catch-up, so a
// reorg that both retires old events and supplies new canonical ones in
// the same write converges to the correct projection state.
func (d *Dispatcher) OnCanonicalFlip(ctx context.Context, db bun.IDB, flip CanonicalFlip) error {
	if flip.WentFalseMinSeq != nil {
		if err := d.Rollback.RollbackFrom(ctx, db, flip.Instance, *flip.WentFalseMinSeq); err != nil {
			return err
		}
		d.Log.Info("rollback complete, resuming catch-up", zap.Stringer("instance", flip.Instance), zap.Uint64("from_seq", *flip.WentFalseMinSeq))
	}
	return d.Catchup.ApplyCatchup(ctx, db, flip.Instance)
}
