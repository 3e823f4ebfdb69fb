package engine

import (
	"context"
	"time"

	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/untron/intents-indexer/internal/metrics"
)

// CatchupEngine advances a single instance's cursor by applying every
// canonical event strictly after applied_through_seq, in order, stopping at
// the first gap.
type CatchupEngine struct {
	Events      EventReader
	Cursors     CursorStore
	Registry    InstanceRegistry
	Interpreter Interpreter
	Log         *zap.Logger
}

// NewCatchupEngine builds a CatchupEngine for a single stream interpreter.
func NewCatchupEngine(events EventReader, cursors CursorStore, registry InstanceRegistry, interp Interpreter, log *zap.Logger) *CatchupEngine {
	if log == nil {
		log = zap.NewNop()
	}
	return &CatchupEngine{Events: events, Cursors: cursors, Registry: registry, Interpreter: interp, Log: log}
}

// ApplyCatchup runs catch-up for instance within db (which must be a
// transaction, or a bun.DB the caller is content wrapping implicitly). It
// acquires the instance's advisory lock first so concurrent callers for the
// same instance serialize; cross-instance callers proceed independently.
func (c *CatchupEngine) ApplyCatchup(ctx context.Context, db bun.IDB, instance InstanceKey) error {
	start := time.Now()
	defer func() {
		metrics.CatchupDuration.WithLabelValues(string(instance.Stream)).Observe(time.Since(start).Seconds())
	}()

	if err := AcquireInstanceLock(ctx, db, instance); err != nil {
		return err
	}

	cursor, err := c.Cursors.LockCursor(ctx, db, instance)
	if err != nil {
		return err
	}
	if cursor == nil {
		return NotConfiguredError(instance)
	}

	for {
		next := cursor.AppliedThroughSeq + 1
		ev, err := c.Events.NextCanonical(ctx, db, instance, next)
		if err != nil {
			return err
		}
		if ev == nil {
			break
		}

		if ev.PrevTip != cursor.Tip {
			return TipMismatchError(instance, next, cursor.Tip, ev.PrevTip)
		}

		if ev.EventType == "" {
			c.Log.Warn("skipping event with empty event_type", zap.Stringer("instance", instance), zap.Uint64("seq", next))
		} else if err := c.Interpreter.ApplyOne(ctx, db, instance, ev); err != nil {
			if ierr, ok := err.(*Error); ok {
				metrics.InterpreterErrors.WithLabelValues(string(instance.Stream), ierr.Kind.String()).Inc()
			}
			return err
		} else {
			metrics.EventsApplied.WithLabelValues(string(instance.Stream), ev.EventType).Inc()
		}

		cursor.AppliedThroughSeq = ev.EventSeq
		cursor.Tip = ev.NewTip
	}

	metrics.CursorLag.WithLabelValues(string(instance.Stream), itoa(instance.ChainID), instance.ContractAddress.Hex()).Set(float64(cursor.AppliedThroughSeq))
	return c.Cursors.SaveCursor(ctx, db, cursor)
}
