package store

import "database/sql"

// sqlNoRows is a local alias for sql.ErrNoRows, the sentinel bun.Scan
// returns when a query matches nothing. Named here so call sites in this
// package read as store-layer "not found", not as a raw database/sql leak.
var sqlNoRows = sql.ErrNoRows
