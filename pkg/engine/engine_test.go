package engine

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/uptrace/bun"
)

// fakeEvents is an in-memory EventReader keyed by event_seq, ignoring db
// and instance since tests use a single instance.
type fakeEvents struct {
	byInstance map[InstanceKey]map[uint64]*Event
}

func newFakeEvents() *fakeEvents {
	return &fakeEvents{byInstance: map[InstanceKey]map[uint64]*Event{}}
}

func (f *fakeEvents) put(ev *Event) {
	m, ok := f.byInstance[ev.Instance]
	if !ok {
		m = map[uint64]*Event{}
		f.byInstance[ev.Instance] = m
	}
	m[ev.EventSeq] = ev
}

func (f *fakeEvents) NextCanonical(_ context.Context, _ bun.IDB, instance InstanceKey, seq uint64) (*Event, error) {
	ev, ok := f.byInstance[instance][seq]
	if !ok || !ev.Canonical {
		return nil, nil
	}
	return ev, nil
}

func (f *fakeEvents) CanonicalAt(_ context.Context, _ bun.IDB, instance InstanceKey, maxSeq uint64) (*Event, error) {
	var best *Event
	for seq, ev := range f.byInstance[instance] {
		if !ev.Canonical || seq > maxSeq {
			continue
		}
		if best == nil || seq > best.EventSeq {
			best = ev
		}
	}
	return best, nil
}

type fakeCursors struct {
	byInstance map[InstanceKey]*Cursor
}

func newFakeCursors() *fakeCursors {
	return &fakeCursors{byInstance: map[InstanceKey]*Cursor{}}
}

func (f *fakeCursors) LockCursor(_ context.Context, _ bun.IDB, instance InstanceKey) (*Cursor, error) {
	c, ok := f.byInstance[instance]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCursors) SaveCursor(_ context.Context, _ bun.IDB, cursor *Cursor) error {
	cp := *cursor
	f.byInstance[cursor.Instance] = &cp
	return nil
}

type fakeRegistry struct {
	genesis common.Hash
}

func (f *fakeRegistry) GenesisTip(_ context.Context, _ bun.IDB, _ InstanceKey) (common.Hash, error) {
	return f.genesis, nil
}

// recordingInterpreter records the event types it was asked to apply, in
// order, so tests can assert apply_one ran over the expected sequence.
type recordingInterpreter struct {
	stream StreamType
	seen   []string
	fail   map[uint64]error
}

func (r *recordingInterpreter) Stream() StreamType { return r.stream }

func (r *recordingInterpreter) ApplyOne(_ context.Context, _ bun.IDB, _ InstanceKey, ev *Event) error {
	if r.fail != nil {
		if err, ok := r.fail[ev.EventSeq]; ok {
			return err
		}
	}
	r.seen = append(r.seen, ev.EventType)
	return nil
}

func testInstance() InstanceKey {
	return InstanceKey{Stream: StreamPool, ChainID: 1, ContractAddress: common.HexToAddress("0xabc")}
}

func TestApplyCatchup_AppliesInOrderAndStopsAtGap(t *testing.T) {
	instance := testInstance()
	genesis := common.HexToHash("0x01")
	tip1 := common.HexToHash("0x02")
	tip2 := common.HexToHash("0x03")

	events := newFakeEvents()
	events.put(&Event{Instance: instance, EventSeq: 1, PrevTip: genesis, NewTip: tip1, EventType: "OwnershipTransferred", Canonical: true})
	events.put(&Event{Instance: instance, EventSeq: 2, PrevTip: tip1, NewTip: tip2, EventType: "IntentCreated", Canonical: true})
	// seq 3 deliberately absent: catch-up must stop, not error.

	cursors := newFakeCursors()
	cursors.byInstance[instance] = &Cursor{Instance: instance, AppliedThroughSeq: 0, Tip: genesis}

	interp := &recordingInterpreter{stream: StreamPool}
	ce := NewCatchupEngine(events, cursors, &fakeRegistry{genesis: genesis}, interp, nil)

	if err := ce.ApplyCatchup(context.Background(), nil, instance); err != nil {
		t.Fatalf("ApplyCatchup returned error: %v", err)
	}

	if len(interp.seen) != 2 || interp.seen[0] != "OwnershipTransferred" || interp.seen[1] != "IntentCreated" {
		t.Fatalf("unexpected apply order: %v", interp.seen)
	}

	saved := cursors.byInstance[instance]
	if saved.AppliedThroughSeq != 2 || saved.Tip != tip2 {
		t.Fatalf("unexpected cursor after catch-up: %+v", saved)
	}
}

func TestApplyCatchup_NotConfigured(t *testing.T) {
	instance := testInstance()
	events := newFakeEvents()
	cursors := newFakeCursors()
	ce := NewCatchupEngine(events, cursors, &fakeRegistry{}, &recordingInterpreter{stream: StreamPool}, nil)

	err := ce.ApplyCatchup(context.Background(), nil, instance)
	if !IsKind(err, KindNotConfigured) {
		t.Fatalf("expected KindNotConfigured, got %v", err)
	}
}

func TestApplyCatchup_TipMismatch(t *testing.T) {
	instance := testInstance()
	genesis := common.HexToHash("0x01")
	wrongPrev := common.HexToHash("0xff")

	events := newFakeEvents()
	events.put(&Event{Instance: instance, EventSeq: 1, PrevTip: wrongPrev, NewTip: common.HexToHash("0x02"), EventType: "OwnershipTransferred", Canonical: true})

	cursors := newFakeCursors()
	cursors.byInstance[instance] = &Cursor{Instance: instance, AppliedThroughSeq: 0, Tip: genesis}

	ce := NewCatchupEngine(events, cursors, &fakeRegistry{genesis: genesis}, &recordingInterpreter{stream: StreamPool}, nil)

	err := ce.ApplyCatchup(context.Background(), nil, instance)
	if !IsKind(err, KindTipMismatch) {
		t.Fatalf("expected KindTipMismatch, got %v", err)
	}
}

// fakeFamily is a Rollbackable that just records the instance/seq it was
// asked to roll back.
type fakeFamily struct {
	name   string
	called []uint64
}

func (f *fakeFamily) Name() string { return f.name }

func (f *fakeFamily) RollbackFrom(_ context.Context, _ bun.IDB, _ InstanceKey, rollbackSeq uint64) error {
	f.called = append(f.called, rollbackSeq)
	return nil
}

func TestRollbackFrom_RewindsCursorAndInvokesFamilies(t *testing.T) {
	instance := testInstance()
	genesis := common.HexToHash("0x01")
	tip1 := common.HexToHash("0x02")

	events := newFakeEvents()
	events.put(&Event{Instance: instance, EventSeq: 1, PrevTip: genesis, NewTip: tip1, EventType: "OwnershipTransferred", Canonical: true})

	cursors := newFakeCursors()
	cursors.byInstance[instance] = &Cursor{Instance: instance, AppliedThroughSeq: 2, Tip: common.HexToHash("0x03")}

	fam := &fakeFamily{name: "pool_ownership"}
	families := map[StreamType][]Rollbackable{StreamPool: {fam}}

	re := NewRollbackEngine(cursors, events, &fakeRegistry{genesis: genesis}, families, nil)

	if err := re.RollbackFrom(context.Background(), nil, instance, 2); err != nil {
		t.Fatalf("RollbackFrom returned error: %v", err)
	}

	if len(fam.called) != 1 || fam.called[0] != 2 {
		t.Fatalf("expected family rollback called with seq 2, got %v", fam.called)
	}

	saved := cursors.byInstance[instance]
	if saved.AppliedThroughSeq != 1 || saved.Tip != tip1 {
		t.Fatalf("unexpected cursor after rollback: %+v", saved)
	}
}

func TestRollbackFrom_ToGenesis(t *testing.T) {
	instance := testInstance()
	genesis := common.HexToHash("0x01")

	events := newFakeEvents()
	cursors := newFakeCursors()
	cursors.byInstance[instance] = &Cursor{Instance: instance, AppliedThroughSeq: 1, Tip: common.HexToHash("0x02")}

	re := NewRollbackEngine(cursors, events, &fakeRegistry{genesis: genesis}, map[StreamType][]Rollbackable{}, nil)

	if err := re.RollbackFrom(context.Background(), nil, instance, 1); err != nil {
		t.Fatalf("RollbackFrom returned error: %v", err)
	}

	saved := cursors.byInstance[instance]
	if saved.AppliedThroughSeq != 0 || saved.Tip != genesis {
		t.Fatalf("expected rewind to genesis, got %+v", saved)
	}
}

func TestRollbackFrom_PastAppliedThroughSeqStillRecomputesTip(t *testing.T) {
	instance := testInstance()
	genesis := common.HexToHash("0x01")
	tip1 := common.HexToHash("0x02")
	tip2 := common.HexToHash("0x03")

	events := newFakeEvents()
	events.put(&Event{Instance: instance, EventSeq: 1, PrevTip: genesis, NewTip: tip1, EventType: "OwnershipTransferred", Canonical: true})
	events.put(&Event{Instance: instance, EventSeq: 2, PrevTip: tip1, NewTip: tip2, EventType: "IntentCreated", Canonical: true})

	cursors := newFakeCursors()
	cursors.byInstance[instance] = &Cursor{Instance: instance, AppliedThroughSeq: 0, Tip: genesis}

	fam := &fakeFamily{name: "pool_ownership"}
	families := map[StreamType][]Rollbackable{StreamPool: {fam}}

	re := NewRollbackEngine(cursors, events, &fakeRegistry{genesis: genesis}, families, nil)

	// rollbackSeq (3) is past the cursor's AppliedThroughSeq (0): nothing to
	// undo, but the family must still be invoked and the cursor/tip still
	// recomputed from rollbackSeq, per the defensive contract.
	if err := re.RollbackFrom(context.Background(), nil, instance, 3); err != nil {
		t.Fatalf("RollbackFrom returned error: %v", err)
	}

	if len(fam.called) != 1 || fam.called[0] != 3 {
		t.Fatalf("expected family rollback called with seq 3, got %v", fam.called)
	}

	saved := cursors.byInstance[instance]
	if saved.AppliedThroughSeq != 2 || saved.Tip != tip2 {
		t.Fatalf("unexpected cursor after defensive rollback: %+v", saved)
	}
}

func TestDispatcher_OnCanonicalFlip_RollsBackThenCatchesUp(t *testing.T) {
	instance := testInstance()
	genesis := common.HexToHash("0x01")
	tip1 := common.HexToHash("0x02")
	tip2new := common.HexToHash("0x0a")

	events := newFakeEvents()
	events.put(&Event{Instance: instance, EventSeq: 1, PrevTip: genesis, NewTip: tip1, EventType: "OwnershipTransferred", Canonical: true})
	events.put(&Event{Instance: instance, EventSeq: 2, PrevTip: tip1, NewTip: tip2new, EventType: "IntentCreated", Canonical: true})

	cursors := newFakeCursors()
	cursors.byInstance[instance] = &Cursor{Instance: instance, AppliedThroughSeq: 2, Tip: common.HexToHash("0xdead")}

	fam := &fakeFamily{name: "pool_intents"}
	interp := &recordingInterpreter{stream: StreamPool}

	ce := NewCatchupEngine(events, cursors, &fakeRegistry{genesis: genesis}, interp, nil)
	re := NewRollbackEngine(cursors, events, &fakeRegistry{genesis: genesis}, map[StreamType][]Rollbackable{StreamPool: {fam}}, nil)
	d := NewDispatcher(ce, re, nil)

	minSeq := uint64(2)
	err := d.OnCanonicalFlip(context.Background(), nil, CanonicalFlip{Instance: instance, WentFalseMinSeq: &minSeq})
	if err != nil {
		t.Fatalf("OnCanonicalFlip returned error: %v", err)
	}

	if len(fam.called) != 1 || fam.called[0] != 2 {
		t.Fatalf("expected rollback family invoked at seq 2, got %v", fam.called)
	}
	if len(interp.seen) != 1 || interp.seen[0] != "IntentCreated" {
		t.Fatalf("expected catch-up to reapply IntentCreated, got %v", interp.seen)
	}

	saved := cursors.byInstance[instance]
	if saved.AppliedThroughSeq != 2 || saved.Tip != tip2new {
		t.Fatalf("unexpected cursor after flip: %+v", saved)
	}
}
