package indexerdb_test

import (
	"context"
	"testing"

	"github.com/uptrace/bun/migrate"

	"github.com/untron/intents-indexer/pkg/migrations/indexerdb"
	"github.com/untron/intents-indexer/pkg/pgutil"
)

func TestIndexerDBMigrations_Apply(t *testing.T) {
	db, cleanup := pgutil.SetupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	migrator := migrate.NewMigrator(db, indexerdb.Migrations)

	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}

	group, err := migrator.Migrate(ctx)
	if err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}
	if group.IsZero() {
		t.Fatal("expected migrations to run, but none were applied")
	}

	expectedTables := []string{
		"instances",
		"stream_cursors",
		"event_appended",
		"pool_ownership",
		"pool_recommended_fee",
		"pool_receiver_intent_params",
		"pool_receiver_intent_fee_snap",
		"pool_intents",
		"pool_ledger_intent_claimed",
		"pool_ledger_intent_unclaimed",
		"pool_ledger_intent_solved",
		"pool_ledger_intent_funded",
		"pool_ledger_intent_settled",
		"pool_ledger_intent_closed",
		"forwarder_ownership",
		"forwarder_bridgers",
		"forwarder_quoter",
		"forwarder_receiver",
		"forwarder_forward",
		"forwarder_ledger_swap_executed",
		"forwarder_ledger_bridge_initiated",
		"bun_migrations",
	}
	for _, table := range expectedTables {
		pgutil.AssertTableExists(t, db, table)
	}

	pgutil.AssertIndexExists(t, db, "idx_instances_stream_chain_contract")
	pgutil.AssertIndexExists(t, db, "idx_event_appended_canonical_seq")
	pgutil.AssertIndexExists(t, db, "idx_pool_intents_current")
	pgutil.AssertIndexExists(t, db, "idx_forwarder_forward_current")
}

func TestIndexerDBMigrations_Idempotent(t *testing.T) {
	db, cleanup := pgutil.SetupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	migrator := migrate.NewMigrator(db, indexerdb.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("first Migrate() failed: %v", err)
	}

	group, err := migrator.Migrate(ctx)
	if err != nil {
		t.Fatalf("second Migrate() failed: %v", err)
	}
	if !group.IsZero() {
		t.Error("expected no new migrations on second run")
	}
}

func TestIndexerDBMigrations_Rollback(t *testing.T) {
	db, cleanup := pgutil.SetupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	migrator := migrate.NewMigrator(db, indexerdb.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}

	pgutil.AssertTableExists(t, db, "forwarder_forward")

	group, err := migrator.Rollback(ctx)
	if err != nil {
		t.Fatalf("Rollback() failed: %v", err)
	}
	if group.IsZero() {
		t.Error("expected rollback to process a migration group")
	}

	pgutil.AssertTableNotExists(t, db, "forwarder_forward")
	pgutil.AssertTableNotExists(t, db, "pool_intents")
	pgutil.AssertTableNotExists(t, db, "event_appended")
	pgutil.AssertTableNotExists(t, db, "instances")
}
