package engine

import (
	"context"
	"hash/fnv"

	"github.com/uptrace/bun"
)

// advisoryLockKey folds an instance key into the signed 64-bit integer
// pg_advisory_xact_lock expects. hash/fnv is used rather than a third-party
// hashing library: nothing in the retrieved examples imports one for this
// purpose, and FNV-1a over the instance's string form is all a transaction-
// scoped advisory lock key needs.
func advisoryLockKey(instance InstanceKey) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(instance.String()))
	return int64(h.Sum64())
}

// AcquireInstanceLock takes the transaction-scoped Postgres advisory lock
// serializing all catch-up/rollback activity for instance. It must be
// called inside the same transaction that performs the subsequent reads
// and writes; the lock is released automatically at commit or rollback.
func AcquireInstanceLock(ctx context.Context, db bun.IDB, instance InstanceKey) error {
	_, err := db.ExecContext(ctx, "SELECT pg_advisory_xact_lock(?)", advisoryLockKey(instance))
	return err
}
