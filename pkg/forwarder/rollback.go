package forwarder

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/untron/intents-indexer/pkg/engine"
	"github.com/untron/intents-indexer/pkg/forwarder/dao"
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

// Families returns every Forwarder versioned and ledger family for
// registration with engine.RollbackEngine.
func Families() []engine.Rollbackable {
	return []engine.Rollbackable{
		versionedFamily{name: "forwarder_ledger_swap_executed", roll: store.RollbackLedger[dao.SwapExecutedLedger]},
		versionedFamily{name: "forwarder_ledger_bridge_initiated", roll: store.RollbackLedger[dao.BridgeInitiatedLedger]},
		versionedFamily{name: "forwarder_ownership", roll: store.RollbackVersioned[dao.Ownership]},
		versionedFamily{name: "forwarder_bridgers", roll: store.RollbackVersioned[dao.Bridgers]},
		versionedFamily{name: "forwarder_quoter", roll: store.RollbackVersioned[dao.Quoter]},
		versionedFamily{name: "forwarder_receiver", roll: store.RollbackVersioned[dao.Receiver]},
		versionedFamily{name: "forwarder_forward", roll: store.RollbackVersioned[dao.Forward]},
	}
}
