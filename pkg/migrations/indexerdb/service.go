// Package indexerdb holds all schema migrations for the indexer database.
package indexerdb

import (
	"github.com/uptrace/bun/migrate"
)

// Migrations is the registry every per-table migration file in this
// package registers into via init().
var Migrations = migrate.NewMigrations()
