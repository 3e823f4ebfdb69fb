package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/uptrace/bun"

	"github.com/untron/intents-indexer/pkg/engine"
	"github.com/untron/intents-indexer/pkg/store/dao"
)

// Registry is the bun-backed implementation of the instance registry.
type Registry struct {
	DB *bun.DB
}

// NewRegistry builds a Registry.
func NewRegistry(db *bun.DB) *Registry {
	return &Registry{DB: db}
}

// GenesisTip implements engine.InstanceRegistry.
func (r *Registry) GenesisTip(ctx context.Context, db bun.IDB, instance engine.InstanceKey) (common.Hash, error) {
	if db == nil {
		db = r.DB
	}
	row := new(dao.InstanceDao)
	err := db.NewSelect().
		Model(row).
		Where("stream = ?", string(instance.Stream)).
		Where("chain_id = ?", instance.ChainID).
		Where("contract_address = ?", instance.ContractAddress.Bytes()).
		Scan(ctx)
	if err != nil {
		return common.Hash{}, err
	}
	return common.BytesToHash(row.GenesisTip), nil
}

// Instance describes one configured projection instance, as read back by
// the admin listing endpoint.
type Instance struct {
	Stream          engine.StreamType
	ChainID         uint64
	ContractAddress common.Address
	GenesisTip      common.Hash
}

// ListInstances returns every configured instance, ordered by stream then
// chain_id, for the admin read API.
func (r *Registry) ListInstances(ctx context.Context) ([]Instance, error) {
	var rows []dao.InstanceDao
	err := r.DB.NewSelect().
		Model(&rows).
		OrderExpr("stream ASC, chain_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Instance, 0, len(rows))
	for _, row := range rows {
		out = append(out, Instance{
			Stream:          engine.StreamType(row.Stream),
			ChainID:         row.ChainID,
			ContractAddress: common.BytesToAddress(row.ContractAddress),
			GenesisTip:      common.BytesToHash(row.GenesisTip),
		})
	}
	return out, nil
}

// ConfigureInstance inserts the Instance row and initializes its
// StreamCursor to (0, genesis_tip).
// Idempotent on identical calls; fails with KindAlreadyConfigured when the
// instance already exists with a different genesis_tip.
func (r *Registry) ConfigureInstance(ctx context.Context, instance engine.InstanceKey, genesisTip common.Hash) error {
	return r.DB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing := new(dao.InstanceDao)
		err := tx.NewSelect().
			Model(existing).
			Where("stream = ?", string(instance.Stream)).
			Where("chain_id = ?", instance.ChainID).
			Where("contract_address = ?", instance.ContractAddress.Bytes()).
			Scan(ctx)
		switch {
		case err == nil:
			if common.BytesToHash(existing.GenesisTip) != genesisTip {
				return engine.AlreadyConfiguredError(instance)
			}
			return nil
		case errors.Is(err, sql.ErrNoRows):
			// fall through to create
		default:
			return fmt.Errorf("looking up existing instance: %w", err)
		}

		row := &dao.InstanceDao{
			Stream:          string(instance.Stream),
			ChainID:         instance.ChainID,
			ContractAddress: instance.ContractAddress.Bytes(),
			GenesisTip:      genesisTip.Bytes(),
		}
		if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
			return fmt.Errorf("inserting instance: %w", err)
		}

		cursor := &dao.StreamCursorDao{
			Stream:            row.Stream,
			ChainID:           row.ChainID,
			ContractAddress:   row.ContractAddress,
			AppliedThroughSeq: 0,
			Tip:               genesisTip.Bytes(),
		}
		if _, err := tx.NewInsert().Model(cursor).Exec(ctx); err != nil {
			return fmt.Errorf("inserting stream cursor: %w", err)
		}
		return nil
	})
}
