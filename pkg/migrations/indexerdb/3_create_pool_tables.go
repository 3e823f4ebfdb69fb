package indexerdb

import (
	"context"
	"fmt"
	"log"

	"github.com/uptrace/bun"

	mghelper "github.com/untron/intents-indexer/pkg/pgutil/migrations"
	pooldao "github.com/untron/intents-indexer/pkg/pool/dao"
)

// currentUniqueIndex creates the partial unique index enforcing the
// single-current-row invariant: at most one row per keyCols may have
// valid_to_seq IS NULL.
func currentUniqueIndex(ctx context.Context, db *bun.DB, model any, indexName string, keyCols ...string) error {
	_, err := db.NewCreateIndex().
		Model(model).
		Index(indexName).
		Column(keyCols...).
		Unique().
		Where("valid_to_seq IS NULL").
		IfNotExists().
		Exec(ctx)
	return err
}

// rangeCheckConstraint enforces that a versioned table's validity interval is
// never empty: a closed row's valid_to_seq must be strictly after its
// valid_from_seq.
func rangeCheckConstraint(ctx context.Context, db *bun.DB, tableName, constraintName string) error {
	_, err := db.ExecContext(ctx, fmt.Sprintf(
		"ALTER TABLE %s ADD CONSTRAINT %s CHECK (valid_to_seq IS NULL OR valid_to_seq > valid_from_seq)",
		tableName, constraintName))
	return err
}

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating pool tables...")

		models := []any{
			&pooldao.Ownership{},
			&pooldao.RecommendedFee{},
			&pooldao.ReceiverIntentParams{},
			&pooldao.ReceiverIntentFeeSnap{},
			&pooldao.Intent{},
			&pooldao.IntentClaimedLedger{},
			&pooldao.IntentUnclaimedLedger{},
			&pooldao.IntentSolvedLedger{},
			&pooldao.IntentFundedLedger{},
			&pooldao.IntentSettledLedger{},
			&pooldao.IntentClosedLedger{},
		}
		if err := mghelper.CreateSchema(ctx, db, models...); err != nil {
			return err
		}

		if err := currentUniqueIndex(ctx, db, (*pooldao.Ownership)(nil), "idx_pool_ownership_current", "chain_id", "contract_address"); err != nil {
			return err
		}
		if err := currentUniqueIndex(ctx, db, (*pooldao.RecommendedFee)(nil), "idx_pool_recommended_fee_current", "chain_id", "contract_address"); err != nil {
			return err
		}
		if err := currentUniqueIndex(ctx, db, (*pooldao.ReceiverIntentParams)(nil), "idx_pool_receiver_intent_params_current", "chain_id", "contract_address", "intent_id"); err != nil {
			return err
		}
		if err := currentUniqueIndex(ctx, db, (*pooldao.ReceiverIntentFeeSnap)(nil), "idx_pool_receiver_intent_fee_snap_current", "chain_id", "contract_address", "intent_id"); err != nil {
			return err
		}
		if err := currentUniqueIndex(ctx, db, (*pooldao.Intent)(nil), "idx_pool_intents_current", "chain_id", "contract_address", "intent_id"); err != nil {
			return err
		}

		if err := rangeCheckConstraint(ctx, db, "pool_ownership", "chk_pool_ownership_valid_range"); err != nil {
			return err
		}
		if err := rangeCheckConstraint(ctx, db, "pool_recommended_fee", "chk_pool_recommended_fee_valid_range"); err != nil {
			return err
		}
		if err := rangeCheckConstraint(ctx, db, "pool_receiver_intent_params", "chk_pool_receiver_intent_params_valid_range"); err != nil {
			return err
		}
		if err := rangeCheckConstraint(ctx, db, "pool_receiver_intent_fee_snap", "chk_pool_receiver_intent_fee_snap_valid_range"); err != nil {
			return err
		}
		if err := rangeCheckConstraint(ctx, db, "pool_intents", "chk_pool_intents_valid_range"); err != nil {
			return err
		}

		return mghelper.CreateModelIndexes(ctx, db, &pooldao.Intent{}, "closed", "solved", "funded", "settled", "deadline")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping pool tables...")
		return mghelper.DropTables(ctx, db,
			&pooldao.IntentClosedLedger{},
			&pooldao.IntentSettledLedger{},
			&pooldao.IntentFundedLedger{},
			&pooldao.IntentSolvedLedger{},
			&pooldao.IntentUnclaimedLedger{},
			&pooldao.IntentClaimedLedger{},
			&pooldao.Intent{},
			&pooldao.ReceiverIntentFeeSnap{},
			&pooldao.ReceiverIntentParams{},
			&pooldao.RecommendedFee{},
			&pooldao.Ownership{},
		)
	})
}
