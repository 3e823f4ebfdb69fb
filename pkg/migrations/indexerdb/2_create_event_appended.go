package indexerdb

import (
	"context"
	"log"

	"github.com/uptrace/bun"

	mghelper "github.com/untron/intents-indexer/pkg/pgutil/migrations"
	"github.com/untron/intents-indexer/pkg/store/dao"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating event_appended table...")
		if err := mghelper.CreateSchema(ctx, db, &dao.EventAppendedDao{}); err != nil {
			return err
		}
		if err := mghelper.CreateModelIndexes(ctx, db, &dao.EventAppendedDao{}, "event_type", "canonical"); err != nil {
			return err
		}
		// At most one canonical row per (instance, event_seq): the core's
		// gap-free monotonicity invariant, enforced at the schema level.
		_, err := db.NewCreateIndex().
			Model((*dao.EventAppendedDao)(nil)).
			Index("idx_event_appended_canonical_seq").
			Column("stream", "chain_id", "contract_address", "event_seq").
			Unique().
			Where("canonical = true").
			IfNotExists().
			Exec(ctx)
		return err
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping event_appended table...")
		return mghelper.DropTables(ctx, db, &dao.EventAppendedDao{})
	})
}
