package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/uptrace/bun"

	"github.com/untron/intents-indexer/pkg/engine"
	"github.com/untron/intents-indexer/pkg/store/dao"
)

// CursorStore is the bun-backed implementation of the per-instance stream cursor.
type CursorStore struct {
	DB *bun.DB
}

// NewCursorStore builds a CursorStore.
func NewCursorStore(db *bun.DB) *CursorStore {
	return &CursorStore{DB: db}
}

func cursorWhere(q *bun.SelectQuery, instance engine.InstanceKey) *bun.SelectQuery {
	return q.
		Where("stream = ?", string(instance.Stream)).
		Where("chain_id = ?", instance.ChainID).
		Where("contract_address = ?", instance.ContractAddress.Bytes())
}

// LockCursor implements engine.CursorStore: selects the cursor row FOR
// UPDATE within the caller's transaction.
func (c *CursorStore) LockCursor(ctx context.Context, db bun.IDB, instance engine.InstanceKey) (*engine.Cursor, error) {
	if db == nil {
		db = c.DB
	}
	row := new(dao.StreamCursorDao)
	q := db.NewSelect().Model(row)
	q = cursorWhere(q, instance)
	err := q.For("UPDATE").Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &engine.Cursor{
		Instance:          instance,
		AppliedThroughSeq: row.AppliedThroughSeq,
		Tip:               common.BytesToHash(row.Tip),
		UpdatedAt:         row.UpdatedAt,
	}, nil
}

// SaveCursor implements engine.CursorStore.
func (c *CursorStore) SaveCursor(ctx context.Context, db bun.IDB, cursor *engine.Cursor) error {
	if db == nil {
		db = c.DB
	}
	row := &dao.StreamCursorDao{
		Stream:            string(cursor.Instance.Stream),
		ChainID:           cursor.Instance.ChainID,
		ContractAddress:   cursor.Instance.ContractAddress.Bytes(),
		AppliedThroughSeq: cursor.AppliedThroughSeq,
		Tip:               cursor.Tip.Bytes(),
	}
	_, err := db.NewUpdate().
		Model(row).
		Column("applied_through_seq", "tip").
		Set("updated_at = current_timestamp").
		Where("stream = ?", row.Stream).
		Where("chain_id = ?", row.ChainID).
		Where("contract_address = ?", row.ContractAddress).
		Exec(ctx)
	return err
}
