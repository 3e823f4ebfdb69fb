package engine

import (
	"context"

	"github.com/uptrace/bun"
)

// Interpreter applies one canonical event to the versioned/ledger tables of
// a single stream (pool or forwarder). It owns the full apply_one dispatch
// table for its stream: unknown event types are ignored and warn-logged by
// the interpreter itself, not treated as an error.
type Interpreter interface {
	// Stream identifies which StreamType this interpreter handles.
	Stream() StreamType

	// ApplyOne applies ev to the projection tables for instance using db,
	// which is either the transaction catch-up is running in or a bun.DB
	// passed through unchanged. Implementations must be idempotent against
	// replays of a row they have already fully applied only where the
	// spec's event semantics call for it (e.g. IntentFunded, IntentSettled);
	// otherwise a duplicate apply is a programmer error in the caller.
	ApplyOne(ctx context.Context, db bun.IDB, instance InstanceKey, ev *Event) error
}
