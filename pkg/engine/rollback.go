package engine

import (
	"context"

	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/untron/intents-indexer/internal/metrics"
)

// Rollbackable is one versioned or ledger table family participating in
// rollback for a stream. RollbackFrom undoes every row with event_seq >=
// rollbackSeq that this family produced, closing over whatever
// reopen-previous-version logic that family's table shape requires.
type Rollbackable interface {
	// Name identifies the family for logging (e.g. "pool_ownership").
	Name() string

	// RollbackFrom undoes rows at or after rollbackSeq for instance.
	RollbackFrom(ctx context.Context, db bun.IDB, instance InstanceKey, rollbackSeq uint64) error
}

// RollbackEngine undoes every effect of canonical events from rollbackSeq
// onward for one instance, then rewinds its cursor.
type RollbackEngine struct {
	Cursors  CursorStore
	Events   EventReader
	Registry InstanceRegistry
	Families map[StreamType][]Rollbackable
	Log      *zap.Logger
}

// NewRollbackEngine builds a RollbackEngine over the given per-stream
// family registrations.
func NewRollbackEngine(cursors CursorStore, events EventReader, registry InstanceRegistry, families map[StreamType][]Rollbackable, log *zap.Logger) *RollbackEngine {
	if log == nil {
		log = zap.NewNop()
	}
	return &RollbackEngine{Cursors: cursors, Events: events, Registry: registry, Families: families, Log: log}
}

// RollbackFrom undoes instance's projection state back to just before
// rollbackSeq and rewinds its cursor accordingly. If rollbackSeq is past
// the cursor's current AppliedThroughSeq, the family rollback is a no-op
// (there is nothing at or after rollbackSeq to undo yet) but the cursor and
// tip are still recomputed, per rollbackSeq, defensively.
func (r *RollbackEngine) RollbackFrom(ctx context.Context, db bun.IDB, instance InstanceKey, rollbackSeq uint64) error {
	if err := AcquireInstanceLock(ctx, db, instance); err != nil {
		return err
	}

	cursor, err := r.Cursors.LockCursor(ctx, db, instance)
	if err != nil {
		return err
	}
	if cursor == nil {
		return NotConfiguredError(instance)
	}

	metrics.RollbacksTotal.WithLabelValues(string(instance.Stream)).Inc()
	if cursor.AppliedThroughSeq >= rollbackSeq {
		metrics.RolledBackEvents.WithLabelValues(string(instance.Stream)).Observe(float64(cursor.AppliedThroughSeq - rollbackSeq + 1))
	}

	for _, fam := range r.Families[instance.Stream] {
		if err := fam.RollbackFrom(ctx, db, instance, rollbackSeq); err != nil {
			return err
		}
		r.Log.Info("rolled back family", zap.String("family", fam.Name()), zap.Stringer("instance", instance), zap.Uint64("from_seq", rollbackSeq))
	}

	newApplied := uint64(0)
	if rollbackSeq > 1 {
		newApplied = rollbackSeq - 1
	}

	var newTip [32]byte
	if newApplied == 0 {
		tip, err := r.Registry.GenesisTip(ctx, db, instance)
		if err != nil {
			return err
		}
		newTip = tip
	} else {
		ev, err := r.Events.CanonicalAt(ctx, db, instance, newApplied)
		if err != nil {
			return err
		}
		if ev == nil {
			return MissingCurrentError(instance, newApplied, "canonical event at recomputed applied_through_seq")
		}
		newTip = ev.NewTip
	}

	cursor.AppliedThroughSeq = newApplied
	cursor.Tip = newTip
	return r.Cursors.SaveCursor(ctx, db, cursor)
}
