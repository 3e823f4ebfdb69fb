package pool

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/untron/intents-indexer/pkg/engine"
	"github.com/untron/intents-indexer/pkg/pool/dao"
	"github.com/untron/intents-indexer/pkg/store"
)

type versionedFamily struct {
	name string
	roll func(ctx context.Context, db bun.IDB, conds []store.WhereCond, rollbackSeq uint64) error
}

func (f versionedFamily) Name() string { return f.name }

func (f versionedFamily) RollbackFrom(ctx context.Context, db bun.IDB, instance engine.InstanceKey, rollbackSeq uint64) error {
	return f.roll(ctx, db, instanceConds(instance), rollbackSeq)
}

// Families returns every Pool versioned and ledger family in rollback
// order: ledgers first, then versioned state. Order among siblings does
// not matter since each family's rows are disjoint by table.
func Families() []engine.Rollbackable {
	return []engine.Rollbackable{
		versionedFamily{name: "pool_ledger_intent_claimed", roll: store.RollbackLedger[dao.IntentClaimedLedger]},
		versionedFamily{name: "pool_ledger_intent_unclaimed", roll: store.RollbackLedger[dao.IntentUnclaimedLedger]},
		versionedFamily{name: "pool_ledger_intent_solved", roll: store.RollbackLedger[dao.IntentSolvedLedger]},
		versionedFamily{name: "pool_ledger_intent_funded", roll: store.RollbackLedger[dao.IntentFundedLedger]},
		versionedFamily{name: "pool_ledger_intent_settled", roll: store.RollbackLedger[dao.IntentSettledLedger]},
		versionedFamily{name: "pool_ledger_intent_closed", roll: store.RollbackLedger[dao.IntentClosedLedger]},
		versionedFamily{name: "pool_ownership", roll: store.RollbackVersioned[dao.Ownership]},
		versionedFamily{name: "pool_recommended_fee", roll: store.RollbackVersioned[dao.RecommendedFee]},
		versionedFamily{name: "pool_receiver_intent_params", roll: store.RollbackVersioned[dao.ReceiverIntentParams]},
		versionedFamily{name: "pool_receiver_intent_fee_snap", roll: store.RollbackVersioned[dao.ReceiverIntentFeeSnap]},
		versionedFamily{name: "pool_intents", roll: store.RollbackVersioned[dao.Intent]},
	}
}
