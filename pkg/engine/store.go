package engine

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/uptrace/bun"
)

// EventReader reads canonical events from the event store for a given
// instance. Implementations back onto bun over Postgres in pkg/store; unit
// tests back onto an in-memory map.
type EventReader interface {
	// NextCanonical returns the canonical event at seq, or nil if no
	// canonical event exists at that seq yet.
	NextCanonical(ctx context.Context, db bun.IDB, instance InstanceKey, seq uint64) (*Event, error)

	// CanonicalAt returns the canonical event whose event_seq is the
	// highest seq <= maxSeq, or nil if none exists (the instance has not
	// applied any events yet).
	CanonicalAt(ctx context.Context, db bun.IDB, instance InstanceKey, maxSeq uint64) (*Event, error)
}

// CursorStore reads and writes a single instance's StreamCursor row.
type CursorStore interface {
	// LockCursor selects the instance's cursor FOR UPDATE within the
	// caller's transaction, returning nil if the instance has no cursor
	// (not yet configured).
	LockCursor(ctx context.Context, db bun.IDB, instance InstanceKey) (*Cursor, error)

	// SaveCursor updates the instance's existing cursor row; it does not
	// create one.
	SaveCursor(ctx context.Context, db bun.IDB, cursor *Cursor) error
}

// InstanceRegistry resolves the genesis tip for a configured instance, the
// hash-chain anchor rollback recomputes to when it undoes every event.
type InstanceRegistry interface {
	GenesisTip(ctx context.Context, db bun.IDB, instance InstanceKey) (common.Hash, error)
}
