// Command migrate applies or rolls back the indexer's database schema.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/uptrace/bun/migrate"

	"github.com/untron/intents-indexer/pkg/config"
	"github.com/untron/intents-indexer/pkg/migrations/indexerdb"
	mghelper "github.com/untron/intents-indexer/pkg/pgutil/migrations"
	"github.com/untron/intents-indexer/pkg/pgutil"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	if flag.NArg() == 0 {
		mghelper.Usage()
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	db, err := pgutil.ConnectDB(&cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connecting to database: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	migrator := migrate.NewMigrator(db, indexerdb.Migrations)

	if err := mghelper.RunMigrations(migrator, flag.Args()...); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
