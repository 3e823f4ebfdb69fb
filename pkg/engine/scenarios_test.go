package engine_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"

	"github.com/untron/intents-indexer/pkg/engine"
	"github.com/untron/intents-indexer/pkg/forwarder"
	fwdao "github.com/untron/intents-indexer/pkg/forwarder/dao"
	"github.com/untron/intents-indexer/pkg/migrations/indexerdb"
	"github.com/untron/intents-indexer/pkg/pgutil"
	"github.com/untron/intents-indexer/pkg/pool"
	pooldao "github.com/untron/intents-indexer/pkg/pool/dao"
	"github.com/untron/intents-indexer/pkg/store"
)

func hashN(n int64) common.Hash { return common.BigToHash(big.NewInt(n)) }
func addrN(n int64) common.Address { return common.BigToAddress(big.NewInt(n)) }

type poolHarness struct {
	db       *store.EventStore
	registry *store.Registry
}

func newPoolHarness(t *testing.T) *poolHarness {
	t.Helper()
	db, cleanup := pgutil.SetupTestDB(t)
	t.Cleanup(cleanup)
	ctx := context.Background()

	migrator := migrate.NewMigrator(db, indexerdb.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}

	events := store.NewEventStore(db)
	cursors := store.NewCursorStore(db)
	registry := store.NewRegistry(db)
	log := zap.NewNop()

	interp := pool.NewInterpreter(log)
	catchup := engine.NewCatchupEngine(events, cursors, registry, interp, log)
	families := map[engine.StreamType][]engine.Rollbackable{
		engine.StreamPool: pool.Families(),
	}
	rollback := engine.NewRollbackEngine(cursors, events, registry, families, log)
	events.Dispatcher = engine.NewDispatcher(catchup, rollback, log)

	return &poolHarness{db: events, registry: registry}
}

func newForwarderHarness(t *testing.T) *poolHarness {
	t.Helper()
	db, cleanup := pgutil.SetupTestDB(t)
	t.Cleanup(cleanup)
	ctx := context.Background()

	migrator := migrate.NewMigrator(db, indexerdb.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}

	events := store.NewEventStore(db)
	cursors := store.NewCursorStore(db)
	registry := store.NewRegistry(db)
	log := zap.NewNop()

	interp := forwarder.NewInterpreter(log)
	catchup := engine.NewCatchupEngine(events, cursors, registry, interp, log)
	families := map[engine.StreamType][]engine.Rollbackable{
		engine.StreamForwarder: forwarder.Families(),
	}
	rollback := engine.NewRollbackEngine(cursors, events, registry, families, log)
	events.Dispatcher = engine.NewDispatcher(catchup, rollback, log)

	return &poolHarness{db: events, registry: registry}
}

// TestScenarios_PoolHappyPathAndReorg runs E1, E2, and E3 in sequence against
// one instance, since each scenario continues the projection state left by
// the last.
func TestScenarios_PoolHappyPathAndReorg(t *testing.T) {
	h := newPoolHarness(t)
	ctx := context.Background()

	instance := engine.InstanceKey{
		Stream:          engine.StreamPool,
		ChainID:         1,
		ContractAddress: addrN(0xB0),
	}
	genesisTip := hashN(1)
	if err := h.registry.ConfigureInstance(ctx, instance, genesisTip); err != nil {
		t.Fatalf("ConfigureInstance() failed: %v", err)
	}

	intentID := hashN(0x1D).Hex()
	creator := addrN(0xC).Hex()
	newOwner := addrN(0xA).Hex()

	// E1 — happy path: OwnershipTransferred then RecommendedIntentFeeSet.
	err := h.db.AppendEvents(ctx, instance, []store.AppendRow{
		{
			Instance:       instance,
			EventSeq:       1,
			PrevTip:        hashN(1),
			NewTip:         hashN(2),
			EventType:      "OwnershipTransferred",
			Args:           map[string]any{"old_owner": common.Address{}.Hex(), "new_owner": newOwner},
			BlockNumber:    100,
			BlockTimestamp: 1_700_000_000,
		},
		{
			Instance:       instance,
			EventSeq:       2,
			PrevTip:        hashN(2),
			NewTip:         hashN(3),
			EventType:      "RecommendedIntentFeeSet",
			Args:           map[string]any{"fee_ppm": "1000", "fee_flat": "5"},
			BlockNumber:    101,
			BlockTimestamp: 1_700_000_010,
		},
	})
	if err != nil {
		t.Fatalf("E1 AppendEvents() failed: %v", err)
	}

	ownership, err := store.GetCurrent[pooldao.Ownership](ctx, h.db.DB, []store.WhereCond{
		store.Eq("chain_id", instance.ChainID),
		store.Eq("contract_address", instance.ContractAddress.Bytes()),
	})
	if err != nil {
		t.Fatalf("E1 GetCurrent(Ownership) failed: %v", err)
	}
	if ownership == nil || common.BytesToAddress(ownership.NewOwner) != addrN(0xA) {
		t.Fatalf("E1: expected current ownership new_owner=0xA, got %+v", ownership)
	}

	fee, err := store.GetCurrent[pooldao.RecommendedFee](ctx, h.db.DB, []store.WhereCond{
		store.Eq("chain_id", instance.ChainID),
		store.Eq("contract_address", instance.ContractAddress.Bytes()),
	})
	if err != nil {
		t.Fatalf("E1 GetCurrent(RecommendedFee) failed: %v", err)
	}
	if fee == nil || fee.FeePPM != 1000 || fee.FeeFlat != "5" {
		t.Fatalf("E1: expected current fee (1000, 5), got %+v", fee)
	}

	// E2 — reorg undo: insert IntentCreated at seq 3, then flip it false.
	err = h.db.AppendEvents(ctx, instance, []store.AppendRow{
		{
			Instance:    instance,
			EventSeq:    3,
			PrevTip:     hashN(3),
			NewTip:      hashN(4),
			EventType:   "IntentCreated",
			Args: map[string]any{
				"id":                 intentID,
				"creator":            creator,
				"intent_type":        "0",
				"token":              addrN(0xF0).Hex(),
				"amount":             "100",
				"refund_beneficiary": creator,
				"deadline":           "1000000000",
				"intent_specs":       "0x",
			},
			BlockNumber:    102,
			BlockTimestamp: 1_700_000_020,
		},
	})
	if err != nil {
		t.Fatalf("E2 AppendEvents(seq 3) failed: %v", err)
	}

	if err := h.db.SetCanonical(ctx, instance, 3, 3, false); err != nil {
		t.Fatalf("E2 SetCanonical(false) failed: %v", err)
	}

	intentConds := []store.WhereCond{
		store.Eq("chain_id", instance.ChainID),
		store.Eq("contract_address", instance.ContractAddress.Bytes()),
		store.Eq("intent_id", intentID),
	}
	intent, err := store.GetCurrent[pooldao.Intent](ctx, h.db.DB, intentConds)
	if err != nil {
		t.Fatalf("E2 GetCurrent(Intent) failed: %v", err)
	}
	if intent != nil {
		t.Fatalf("E2: expected no current intent row after rollback, got %+v", intent)
	}

	cursors := store.NewCursorStore(h.db.DB)
	cursor, err := cursors.LockCursor(ctx, h.db.DB, instance)
	if err != nil {
		t.Fatalf("E2 LockCursor() failed: %v", err)
	}
	if cursor.AppliedThroughSeq != 2 || cursor.Tip != hashN(3) {
		t.Fatalf("E2: expected cursor (2, 0x..03), got (%d, %s)", cursor.AppliedThroughSeq, cursor.Tip)
	}

	fee, err = store.GetCurrent[pooldao.RecommendedFee](ctx, h.db.DB, []store.WhereCond{
		store.Eq("chain_id", instance.ChainID),
		store.Eq("contract_address", instance.ContractAddress.Bytes()),
	})
	if err != nil {
		t.Fatalf("E2 GetCurrent(RecommendedFee) failed: %v", err)
	}
	if fee == nil || fee.FeePPM != 1000 {
		t.Fatalf("E2: expected RecommendedFee unchanged, got %+v", fee)
	}

	// E3 — reorg with deeper redo: flip seq 3 back to canonical, then apply
	// IntentClaimed at seq 4.
	if err := h.db.SetCanonical(ctx, instance, 3, 3, true); err != nil {
		t.Fatalf("E3 SetCanonical(true) failed: %v", err)
	}

	solver := addrN(0x5)
	err = h.db.AppendEvents(ctx, instance, []store.AppendRow{
		{
			Instance:  instance,
			EventSeq:  4,
			PrevTip:   hashN(4),
			NewTip:    hashN(5),
			EventType: "IntentClaimed",
			Args: map[string]any{
				"id":             intentID,
				"solver":         solver.Hex(),
				"deposit_amount": "1000000",
			},
			BlockNumber:    103,
			BlockTimestamp: 1_700_000_030,
		},
	})
	if err != nil {
		t.Fatalf("E3 AppendEvents(seq 4) failed: %v", err)
	}

	intent, err = store.GetCurrent[pooldao.Intent](ctx, h.db.DB, intentConds)
	if err != nil {
		t.Fatalf("E3 GetCurrent(Intent) failed: %v", err)
	}
	if intent == nil {
		t.Fatal("E3: expected a current intent row")
	}
	if common.BytesToAddress(intent.Solver) != solver {
		t.Fatalf("E3: expected solver=0x5, got %x", intent.Solver)
	}
	if intent.SolverClaimedAt == nil || *intent.SolverClaimedAt != 1_700_000_030 {
		t.Fatalf("E3: expected solver_claimed_at=seq-4 block_timestamp, got %v", intent.SolverClaimedAt)
	}

	var claimedCount int
	err = h.db.DB.NewSelect().
		Model((*pooldao.IntentClaimedLedger)(nil)).
		Where("event_seq = ?", uint64(4)).
		ColumnExpr("COUNT(*)").
		Scan(ctx, &claimedCount)
	if err != nil {
		t.Fatalf("E3 counting ledger rows failed: %v", err)
	}
	if claimedCount != 1 {
		t.Fatalf("E3: expected one IntentClaimed ledger row at seq 4, got %d", claimedCount)
	}
}

// TestScenarios_TipMismatchAborts is E4: a canonical insert whose prev_tip
// does not match the cursor must abort the whole transaction.
func TestScenarios_TipMismatchAborts(t *testing.T) {
	h := newPoolHarness(t)
	ctx := context.Background()

	instance := engine.InstanceKey{
		Stream:          engine.StreamPool,
		ChainID:         1,
		ContractAddress: addrN(0xE4),
	}
	genesisTip := hashN(1)
	if err := h.registry.ConfigureInstance(ctx, instance, genesisTip); err != nil {
		t.Fatalf("ConfigureInstance() failed: %v", err)
	}

	err := h.db.AppendEvents(ctx, instance, []store.AppendRow{
		{
			Instance:       instance,
			EventSeq:       1,
			PrevTip:        hashN(99),
			NewTip:         hashN(100),
			EventType:      "OwnershipTransferred",
			Args:           map[string]any{"old_owner": common.Address{}.Hex(), "new_owner": addrN(0xA).Hex()},
			BlockNumber:    1,
			BlockTimestamp: 1,
		},
	})
	if !engine.IsKind(err, engine.KindTipMismatch) {
		t.Fatalf("expected KindTipMismatch, got %v", err)
	}

	cursors := store.NewCursorStore(h.db.DB)
	cursor, err := cursors.LockCursor(ctx, h.db.DB, instance)
	if err != nil {
		t.Fatalf("LockCursor() failed: %v", err)
	}
	if cursor.AppliedThroughSeq != 0 || cursor.Tip != genesisTip {
		t.Fatalf("expected cursor unchanged at (0, genesis), got (%d, %s)", cursor.AppliedThroughSeq, cursor.Tip)
	}

	ownership, err := store.GetCurrent[pooldao.Ownership](ctx, h.db.DB, []store.WhereCond{
		store.Eq("chain_id", instance.ChainID),
		store.Eq("contract_address", instance.ContractAddress.Bytes()),
	})
	if err != nil {
		t.Fatalf("GetCurrent(Ownership) failed: %v", err)
	}
	if ownership != nil {
		t.Fatalf("expected no ownership row after aborted insert, got %+v", ownership)
	}
}

// TestScenarios_IdempotentIntentFunded is E5: a duplicate IntentFunded
// appends to the ledger but leaves the Intent version unchanged.
func TestScenarios_IdempotentIntentFunded(t *testing.T) {
	h := newPoolHarness(t)
	ctx := context.Background()

	instance := engine.InstanceKey{
		Stream:          engine.StreamPool,
		ChainID:         1,
		ContractAddress: addrN(0xE5),
	}
	if err := h.registry.ConfigureInstance(ctx, instance, hashN(1)); err != nil {
		t.Fatalf("ConfigureInstance() failed: %v", err)
	}

	intentID := hashN(0xF1).Hex()
	creator := addrN(0xC).Hex()
	token := addrN(0xF0).Hex()

	err := h.db.AppendEvents(ctx, instance, []store.AppendRow{
		{
			Instance:  instance,
			EventSeq:  1,
			PrevTip:   hashN(1),
			NewTip:    hashN(2),
			EventType: "IntentCreated",
			Args: map[string]any{
				"id":                 intentID,
				"creator":            creator,
				"intent_type":        "0",
				"token":              token,
				"amount":             "100",
				"refund_beneficiary": creator,
				"deadline":           "1000000000",
				"intent_specs":       "0x",
			},
			BlockNumber:    1,
			BlockTimestamp: 1,
		},
	})
	if err != nil {
		t.Fatalf("AppendEvents(IntentCreated) failed: %v", err)
	}

	funder := addrN(0xFD).Hex()
	err = h.db.AppendEvents(ctx, instance, []store.AppendRow{
		{
			Instance:       instance,
			EventSeq:       2,
			PrevTip:        hashN(2),
			NewTip:         hashN(3),
			EventType:      "IntentFunded",
			Args:           map[string]any{"id": intentID, "funder": funder, "token": token, "amount": "100"},
			BlockNumber:    2,
			BlockTimestamp: 2,
		},
		{
			Instance:       instance,
			EventSeq:       3,
			PrevTip:        hashN(3),
			NewTip:         hashN(4),
			EventType:      "IntentFunded",
			Args:           map[string]any{"id": intentID, "funder": funder, "token": token, "amount": "100"},
			BlockNumber:    3,
			BlockTimestamp: 3,
		},
	})
	if err != nil {
		t.Fatalf("AppendEvents(IntentFunded x2) failed: %v", err)
	}

	intentConds := []store.WhereCond{
		store.Eq("chain_id", instance.ChainID),
		store.Eq("contract_address", instance.ContractAddress.Bytes()),
		store.Eq("intent_id", intentID),
	}
	intent, err := store.GetCurrent[pooldao.Intent](ctx, h.db.DB, intentConds)
	if err != nil {
		t.Fatalf("GetCurrent(Intent) failed: %v", err)
	}
	if intent == nil || !intent.Funded {
		t.Fatalf("expected a funded current intent, got %+v", intent)
	}
	if intent.ValidFromSeq != 2 {
		t.Fatalf("expected the intent version to have been opened at seq 2 (first IntentFunded), got valid_from_seq=%d", intent.ValidFromSeq)
	}

	var fundedCount int
	err = h.db.DB.NewSelect().
		Model((*pooldao.IntentFundedLedger)(nil)).
		Where("intent_id = ?", intentID).
		ColumnExpr("COUNT(*)").
		Scan(ctx, &fundedCount)
	if err != nil {
		t.Fatalf("counting IntentFunded ledger rows failed: %v", err)
	}
	if fundedCount != 2 {
		t.Fatalf("expected both IntentFunded events to append to the ledger, got %d rows", fundedCount)
	}
}

// TestScenarios_ForwardCompletedWithoutStarted is E6: ForwardCompleted for
// an unknown forward_id aborts with no ledger rows written.
func TestScenarios_ForwardCompletedWithoutStarted(t *testing.T) {
	h := newForwarderHarness(t)
	ctx := context.Background()

	instance := engine.InstanceKey{
		Stream:          engine.StreamForwarder,
		ChainID:         2,
		ContractAddress: addrN(0xE6),
	}
	if err := h.registry.ConfigureInstance(ctx, instance, hashN(1)); err != nil {
		t.Fatalf("ConfigureInstance() failed: %v", err)
	}

	err := h.db.AppendEvents(ctx, instance, []store.AppendRow{
		{
			Instance:  instance,
			EventSeq:  1,
			PrevTip:   hashN(1),
			NewTip:    hashN(2),
			EventType: "ForwardCompleted",
			Args: map[string]any{
				"forward_id":          hashN(0xFF).Hex(),
				"ephemeral":           false,
				"amount_pulled":       "100",
				"amount_forwarded":    "90",
				"relayer_rebate":      "5",
				"msg_value_refunded":  "0",
				"settled_locally":     true,
				"bridger":             common.Address{}.Hex(),
				"expected_bridge_out": "0",
				"bridge_data_hash":    hashN(0).Hex(),
			},
			BlockNumber:    1,
			BlockTimestamp: 1,
		},
	})
	if !engine.IsKind(err, engine.KindCompletedWithoutStarted) {
		t.Fatalf("expected KindCompletedWithoutStarted, got %v", err)
	}

	var swapCount, bridgeCount int
	if err := h.db.DB.NewSelect().Model((*fwdao.SwapExecutedLedger)(nil)).ColumnExpr("COUNT(*)").Scan(ctx, &swapCount); err != nil {
		t.Fatalf("counting swap ledger rows failed: %v", err)
	}
	if err := h.db.DB.NewSelect().Model((*fwdao.BridgeInitiatedLedger)(nil)).ColumnExpr("COUNT(*)").Scan(ctx, &bridgeCount); err != nil {
		t.Fatalf("counting bridge ledger rows failed: %v", err)
	}
	if swapCount != 0 || bridgeCount != 0 {
		t.Fatalf("expected no ledger rows written on aborted ForwardCompleted, got swap=%d bridge=%d", swapCount, bridgeCount)
	}

	cursors := store.NewCursorStore(h.db.DB)
	cursor, err := cursors.LockCursor(ctx, h.db.DB, instance)
	if err != nil {
		t.Fatalf("LockCursor() failed: %v", err)
	}
	if cursor.AppliedThroughSeq != 0 {
		t.Fatalf("expected cursor unadvanced, got applied_through_seq=%d", cursor.AppliedThroughSeq)
	}
}
