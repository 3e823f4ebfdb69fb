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
		log.Println("creating instances and stream_cursors tables...")
		if err := mghelper.CreateSchema(ctx, db, &dao.InstanceDao{}, &dao.StreamCursorDao{}); err != nil {
			return err
		}
		_, err := db.NewCreateIndex().
			Model((*dao.InstanceDao)(nil)).
			Index("idx_instances_stream_chain_contract").
			Column("stream", "chain_id", "contract_address").
			Unique().
			IfNotExists().
			Exec(ctx)
		return err
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping instances and stream_cursors tables...")
		return mghelper.DropTables(ctx, db, &dao.StreamCursorDao{}, &dao.InstanceDao{})
	})
}
