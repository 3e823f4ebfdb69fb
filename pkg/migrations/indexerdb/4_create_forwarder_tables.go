package indexerdb

import (
	"context"
	"log"

	"github.com/uptrace/bun"

	fwddao "github.com/untron/intents-indexer/pkg/forwarder/dao"
	mghelper "github.com/untron/intents-indexer/pkg/pgutil/migrations"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating forwarder tables...")

		models := []any{
			&fwddao.Ownership{},
			&fwddao.Bridgers{},
			&fwddao.Quoter{},
			&fwddao.Receiver{},
			&fwddao.Forward{},
			&fwddao.SwapExecutedLedger{},
			&fwddao.BridgeInitiatedLedger{},
		}
		if err := mghelper.CreateSchema(ctx, db, models...); err != nil {
			return err
		}

		if err := currentUniqueIndex(ctx, db, (*fwddao.Ownership)(nil), "idx_forwarder_ownership_current", "chain_id", "contract_address"); err != nil {
			return err
		}
		if err := currentUniqueIndex(ctx, db, (*fwddao.Bridgers)(nil), "idx_forwarder_bridgers_current", "chain_id", "contract_address"); err != nil {
			return err
		}
		if err := currentUniqueIndex(ctx, db, (*fwddao.Quoter)(nil), "idx_forwarder_quoter_current", "chain_id", "contract_address", "token_in"); err != nil {
			return err
		}
		if err := currentUniqueIndex(ctx, db, (*fwddao.Receiver)(nil), "idx_forwarder_receiver_current", "chain_id", "contract_address", "receiver_salt"); err != nil {
			return err
		}
		if err := currentUniqueIndex(ctx, db, (*fwddao.Forward)(nil), "idx_forwarder_forward_current", "chain_id", "contract_address", "forward_id"); err != nil {
			return err
		}

		if err := rangeCheckConstraint(ctx, db, "forwarder_ownership", "chk_forwarder_ownership_valid_range"); err != nil {
			return err
		}
		if err := rangeCheckConstraint(ctx, db, "forwarder_bridgers", "chk_forwarder_bridgers_valid_range"); err != nil {
			return err
		}
		if err := rangeCheckConstraint(ctx, db, "forwarder_quoter", "chk_forwarder_quoter_valid_range"); err != nil {
			return err
		}
		if err := rangeCheckConstraint(ctx, db, "forwarder_receiver", "chk_forwarder_receiver_valid_range"); err != nil {
			return err
		}
		if err := rangeCheckConstraint(ctx, db, "forwarder_forward", "chk_forwarder_forward_valid_range"); err != nil {
			return err
		}

		return mghelper.CreateModelIndexes(ctx, db, &fwddao.Forward{}, "target_chain", "intent_hash")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping forwarder tables...")
		return mghelper.DropTables(ctx, db,
			&fwddao.BridgeInitiatedLedger{},
			&fwddao.SwapExecutedLedger{},
			&fwddao.Forward{},
			&fwddao.Receiver{},
			&fwddao.Quoter{},
			&fwddao.Bridgers{},
			&fwddao.Ownership{},
		)
	})
}
