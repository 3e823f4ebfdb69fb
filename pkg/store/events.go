package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/uptrace/bun"

	"github.com/untron/intents-indexer/pkg/engine"
	"github.com/untron/intents-indexer/pkg/store/dao"
)

// EventStore is the bun-backed implementation of the canonical event log.
// It satisfies engine.EventReader directly and additionally exposes the
// mutating operations that drive the dispatch layer.
type EventStore struct {
	DB         *bun.DB
	Dispatcher *engine.Dispatcher
}

// NewEventStore builds an EventStore. The dispatcher is wired after engine
// construction (see pkg/indexer), since the dispatcher itself depends on
// stores built from this package; it may be nil during that bootstrap
// window as long as no writes happen before it is set.
func NewEventStore(db *bun.DB) *EventStore {
	return &EventStore{DB: db}
}

func daoToEvent(row *dao.EventAppendedDao) (*engine.Event, error) {
	args := map[string]any{}
	if len(row.Args) > 0 {
		if err := json.Unmarshal(row.Args, &args); err != nil {
			return nil, fmt.Errorf("decoding event args for seq %d: %w", row.EventSeq, err)
		}
	}
	return &engine.Event{
		ID: row.ID,
		Instance: engine.InstanceKey{
			Stream:          engine.StreamType(row.Stream),
			ChainID:         row.ChainID,
			ContractAddress: common.BytesToAddress(row.ContractAddress),
		},
		EventSeq:            row.EventSeq,
		PrevTip:             common.BytesToHash(row.PrevTip),
		NewTip:              common.BytesToHash(row.NewTip),
		EventSignature:      common.BytesToHash(row.EventSignature),
		ABIEncodedEventData: row.ABIEncodedEventData,
		EventType:           row.EventType,
		Args:                args,
		BlockNumber:         row.BlockNumber,
		BlockTimestamp:      row.BlockTimestamp,
		BlockHash:           common.BytesToHash(row.BlockHash),
		TxHash:              common.BytesToHash(row.TxHash),
		LogIndex:            row.LogIndex,
		Canonical:           row.Canonical,
	}, nil
}

// NextCanonical implements engine.EventReader.
func (s *EventStore) NextCanonical(ctx context.Context, db bun.IDB, instance engine.InstanceKey, seq uint64) (*engine.Event, error) {
	if db == nil {
		db = s.DB
	}
	row := new(dao.EventAppendedDao)
	err := db.NewSelect().
		Model(row).
		Where("stream = ?", string(instance.Stream)).
		Where("chain_id = ?", instance.ChainID).
		Where("contract_address = ?", instance.ContractAddress.Bytes()).
		Where("event_seq = ?", seq).
		Where("canonical = true").
		Scan(ctx)
	if err != nil {
		if err == sqlNoRows {
			return nil, nil
		}
		return nil, err
	}
	return daoToEvent(row)
}

// CanonicalAt implements engine.EventReader.
func (s *EventStore) CanonicalAt(ctx context.Context, db bun.IDB, instance engine.InstanceKey, maxSeq uint64) (*engine.Event, error) {
	if db == nil {
		db = s.DB
	}
	row := new(dao.EventAppendedDao)
	err := db.NewSelect().
		Model(row).
		Where("stream = ?", string(instance.Stream)).
		Where("chain_id = ?", instance.ChainID).
		Where("contract_address = ?", instance.ContractAddress.Bytes()).
		Where("event_seq <= ?", maxSeq).
		Where("canonical = true").
		OrderExpr("event_seq DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sqlNoRows {
			return nil, nil
		}
		return nil, err
	}
	return daoToEvent(row)
}

// FirstCanonicalSeqFromBlock returns the lowest event_seq of a canonical
// row at or after blockNumber, or ok=false if there is none. The ingester
// uses this to translate a reorg's divergence block into the event_seq
// range set_canonical expects.
func (s *EventStore) FirstCanonicalSeqFromBlock(ctx context.Context, instance engine.InstanceKey, blockNumber uint64) (seq uint64, ok bool, err error) {
	row := new(dao.EventAppendedDao)
	err = s.DB.NewSelect().
		Model(row).
		Where("stream = ?", string(instance.Stream)).
		Where("chain_id = ?", instance.ChainID).
		Where("contract_address = ?", instance.ContractAddress.Bytes()).
		Where("block_number >= ?", blockNumber).
		Where("canonical = true").
		OrderExpr("event_seq ASC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sqlNoRows {
			return 0, false, nil
		}
		return 0, false, err
	}
	return row.EventSeq, true, nil
}

// GetCanonicalBySeq reads back one canonical event by seq, used by the
// ingester's reorg handling rather than the catch-up loop (which uses NextCanonical
// through the engine.EventReader interface).
func (s *EventStore) GetCanonicalBySeq(ctx context.Context, instance engine.InstanceKey, seq uint64) (*engine.Event, error) {
	return s.NextCanonical(ctx, s.DB, instance, seq)
}

// AppendRow is the shape the ingester writes, pre-JSON-encoding of args.
type AppendRow struct {
	Instance            engine.InstanceKey
	EventSeq            uint64
	PrevTip             common.Hash
	NewTip              common.Hash
	EventSignature      common.Hash
	ABIEncodedEventData []byte
	EventType           string
	Args                map[string]any
	BlockNumber         uint64
	BlockTimestamp      int64
	BlockHash           common.Hash
	TxHash              common.Hash
	LogIndex            uint32
}

// AppendEvents bulk-inserts canonical rows for instance and, on success,
// runs catch-up for that instance within the same transaction.
func (s *EventStore) AppendEvents(ctx context.Context, instance engine.InstanceKey, rows []AppendRow) error {
	if len(rows) == 0 {
		return nil
	}
	return s.DB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		daos := make([]*dao.EventAppendedDao, 0, len(rows))
		for _, r := range rows {
			argsJSON, err := json.Marshal(r.Args)
			if err != nil {
				return fmt.Errorf("encoding event args for seq %d: %w", r.EventSeq, err)
			}
			daos = append(daos, &dao.EventAppendedDao{
				Stream:              string(r.Instance.Stream),
				ChainID:             r.Instance.ChainID,
				ContractAddress:     r.Instance.ContractAddress.Bytes(),
				EventSeq:            r.EventSeq,
				PrevTip:             r.PrevTip.Bytes(),
				NewTip:              r.NewTip.Bytes(),
				EventSignature:      r.EventSignature.Bytes(),
				ABIEncodedEventData: r.ABIEncodedEventData,
				EventType:           r.EventType,
				Args:                argsJSON,
				BlockNumber:         r.BlockNumber,
				BlockTimestamp:      r.BlockTimestamp,
				BlockHash:           r.BlockHash.Bytes(),
				TxHash:              r.TxHash.Bytes(),
				LogIndex:            r.LogIndex,
				Canonical:           true,
			})
		}

		if _, err := tx.NewInsert().Model(&daos).Exec(ctx); err != nil {
			return fmt.Errorf("inserting event rows: %w", err)
		}

		if s.Dispatcher != nil {
			if err := s.Dispatcher.OnInsert(ctx, tx, instance); err != nil {
				return err
			}
		}
		return nil
	})
}

// SetCanonical flips the canonical flag for a contiguous event_seq range
// and runs the appropriate rollback/catch-up composition within the same
// transaction.
func (s *EventStore) SetCanonical(ctx context.Context, instance engine.InstanceKey, fromSeq, toSeq uint64, canonical bool) error {
	return s.DB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var wentFalseMinSeq *uint64
		if !canonical {
			var minSeq uint64
			err := tx.NewSelect().
				Model((*dao.EventAppendedDao)(nil)).
				ColumnExpr("MIN(event_seq)").
				Where("stream = ?", string(instance.Stream)).
				Where("chain_id = ?", instance.ChainID).
				Where("contract_address = ?", instance.ContractAddress.Bytes()).
				Where("event_seq >= ?", fromSeq).
				Where("event_seq <= ?", toSeq).
				Where("canonical = true").
				Scan(ctx, &minSeq)
			if err == nil && minSeq > 0 {
				wentFalseMinSeq = &minSeq
			}
		}

		_, err := tx.NewUpdate().
			Model((*dao.EventAppendedDao)(nil)).
			Set("canonical = ?", canonical).
			Where("stream = ?", string(instance.Stream)).
			Where("chain_id = ?", instance.ChainID).
			Where("contract_address = ?", instance.ContractAddress.Bytes()).
			Where("event_seq >= ?", fromSeq).
			Where("event_seq <= ?", toSeq).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("flipping canonical flag: %w", err)
		}

		if s.Dispatcher != nil {
			return s.Dispatcher.OnCanonicalFlip(ctx, tx, engine.CanonicalFlip{Instance: instance, WentFalseMinSeq: wentFalseMinSeq})
		}
		return nil
	})
}
