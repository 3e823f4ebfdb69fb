package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
)

// WhereCond is one bun Where fragment, collected so the generic versioned-
// row helpers below can apply an entity's key predicates without knowing
// its column names ahead of time.
type WhereCond struct {
	Cond string
	Args []any
}

// Eq builds a simple "<column> = ?" WhereCond.
func Eq(column string, arg any) WhereCond {
	return WhereCond{Cond: column + " = ?", Args: []any{arg}}
}

func applySelect(q *bun.SelectQuery, conds []WhereCond) *bun.SelectQuery {
	for _, c := range conds {
		q = q.Where(c.Cond, c.Args...)
	}
	return q
}

func applyUpdate(q *bun.UpdateQuery, conds []WhereCond) *bun.UpdateQuery {
	for _, c := range conds {
		q = q.Where(c.Cond, c.Args...)
	}
	return q
}

func applyDelete(q *bun.DeleteQuery, conds []WhereCond) *bun.DeleteQuery {
	for _, c := range conds {
		q = q.Where(c.Cond, c.Args...)
	}
	return q
}

// GetCurrent returns the row of type T matching conds with valid_to_seq
// IS NULL, or nil if there is none. T must be a versioned-row DAO with a
// valid_to_seq column.
func GetCurrent[T any](ctx context.Context, db bun.IDB, conds []WhereCond) (*T, error) {
	row := new(T)
	q := db.NewSelect().Model(row).Where("valid_to_seq IS NULL")
	q = applySelect(q, conds)
	if err := q.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return row, nil
}

// CloseCurrent closes the currently-open row of type T matching conds by
// setting valid_to_seq to closingSeq. It is a no-op if there is no open
// row, which callers rely on for defensive-close cases (e.g. duplicate
// IntentCreated).
func CloseCurrent[T any](ctx context.Context, db bun.IDB, conds []WhereCond, closingSeq uint64) error {
	q := db.NewUpdate().Model((*T)(nil)).
		Set("valid_to_seq = ?", closingSeq).
		Where("valid_to_seq IS NULL")
	q = applyUpdate(q, conds)
	_, err := q.Exec(ctx)
	return err
}

// InsertVersion inserts a new current row (valid_to_seq left NULL by the
// caller) for a versioned family.
func InsertVersion[T any](ctx context.Context, db bun.IDB, row *T) error {
	_, err := db.NewInsert().Model(row).Exec(ctx)
	return err
}

// InsertLedger inserts one append-only ledger row.
func InsertLedger[T any](ctx context.Context, db bun.IDB, row *T) error {
	_, err := db.NewInsert().Model(row).Exec(ctx)
	return err
}

// RollbackVersioned undoes one versioned family's rows scoped by conds
// (the instance key; for keyed families, the entity key would be
// over-scoping since rollback must reopen every key's suffix, not one
// key): delete rows opened at or after rollbackSeq, then reopen rows
// closed at or after rollbackSeq.
func RollbackVersioned[T any](ctx context.Context, db bun.IDB, conds []WhereCond, rollbackSeq uint64) error {
	del := db.NewDelete().Model((*T)(nil)).Where("valid_from_seq >= ?", rollbackSeq)
	del = applyDelete(del, conds)
	if _, err := del.Exec(ctx); err != nil {
		return err
	}

	upd := db.NewUpdate().Model((*T)(nil)).
		Set("valid_to_seq = NULL").
		Where("valid_to_seq >= ?", rollbackSeq)
	upd = applyUpdate(upd, conds)
	_, err := upd.Exec(ctx)
	return err
}

// RollbackLedger undoes one ledger family's rows: delete rows at or after
// rollbackSeq.
func RollbackLedger[T any](ctx context.Context, db bun.IDB, conds []WhereCond, rollbackSeq uint64) error {
	del := db.NewDelete().Model((*T)(nil)).Where("event_seq >= ?", rollbackSeq)
	del = applyDelete(del, conds)
	_, err := del.Exec(ctx)
	return err
}
