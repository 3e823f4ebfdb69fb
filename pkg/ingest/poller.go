// Package ingest turns raw EVM logs into the canonical, hash-chained event
// rows the core engine consumes: polling, reorg detection, and argument
// decoding live here, outside the engine's own transactional boundary.
package ingest

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/untron/intents-indexer/internal/metrics"
	"github.com/untron/intents-indexer/pkg/config"
	"github.com/untron/intents-indexer/pkg/engine"
	"github.com/untron/intents-indexer/pkg/store"
)

// Poller watches one configured chain's pool and forwarder contracts and
// feeds decoded logs to the event store in hash-chained, canonical-seq
// order, flipping canonical=false when a previously scanned block's hash
// changes underneath it.
type Poller struct {
	chainID  uint64
	client   *ethclient.Client
	confLag  uint64
	interval time.Duration

	events *store.EventStore
	log    *zap.Logger

	// one tracked contract per configured instance on this chain
	instances []trackedInstance

	// recent block hashes for reorg detection, keyed by block number
	seenBlockHash map[uint64]common.Hash
	// block timestamp cache, avoids one HeaderByNumber call per log
	blockTime map[uint64]int64
}

type trackedInstance struct {
	key       engine.InstanceKey
	set       *eventSet
	seq       uint64
	tip       common.Hash
	nextBlock uint64
}

// NewPoller dials src.RPCURL and builds a Poller for its configured pool
// and forwarder addresses.
func NewPoller(ctx context.Context, src config.SourceConfig, events *store.EventStore, log *zap.Logger) (*Poller, error) {
	client, err := ethclient.DialContext(ctx, src.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", src.RPCURL, err)
	}

	p := &Poller{
		chainID:       src.ChainID,
		client:        client,
		confLag:       src.ConfirmationLag,
		interval:      src.PollingInterval,
		events:        events,
		log:           log,
		seenBlockHash: make(map[uint64]common.Hash),
		blockTime:     make(map[uint64]int64),
	}

	if src.PoolAddress != "" {
		p.instances = append(p.instances, trackedInstance{
			key: engine.InstanceKey{Stream: engine.StreamPool, ChainID: src.ChainID, ContractAddress: common.HexToAddress(src.PoolAddress)},
			set: poolEvents,
		})
	}
	for _, addr := range src.Forwarders {
		p.instances = append(p.instances, trackedInstance{
			key: engine.InstanceKey{Stream: engine.StreamForwarder, ChainID: src.ChainID, ContractAddress: common.HexToAddress(addr)},
			set: forwarderEvents,
		})
	}

	return p, nil
}

// Run polls until ctx is canceled. Each tracked instance must already be
// configured via registry.ConfigureInstance before Run is called; it seeds
// each instance's current tip/seq from the event store on startup.
func (p *Poller) Run(ctx context.Context, registry *store.Registry) error {
	for i := range p.instances {
		inst := &p.instances[i]
		latest, err := p.events.CanonicalAt(ctx, nil, inst.key, ^uint64(0))
		if err != nil {
			return fmt.Errorf("loading latest canonical event for %s: %w", inst.key, err)
		}
		if latest != nil {
			inst.seq = latest.EventSeq
			inst.tip = latest.NewTip
			inst.nextBlock = latest.BlockNumber + 1
			continue
		}
		genesisTip, err := registry.GenesisTip(ctx, nil, inst.key)
		if err != nil {
			return fmt.Errorf("loading genesis tip for %s: %w", inst.key, err)
		}
		inst.tip = genesisTip
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := p.pollOnce(ctx); err != nil {
				p.log.Warn("poll cycle failed", zap.Error(err))
			}
		}
	}
}

func (p *Poller) pollOnce(ctx context.Context) error {
	cycleID := uuid.NewString()

	header, err := p.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return fmt.Errorf("fetching latest header: %w", err)
	}
	latest := header.Number.Uint64()
	if latest < p.confLag {
		return nil
	}
	safeTip := latest - p.confLag

	for i := range p.instances {
		if err := p.pollInstance(ctx, &p.instances[i], safeTip); err != nil {
			if engine.IsTransient(err) {
				p.log.Warn("polling instance hit a transient database error, will retry next cycle",
					zap.String("poll_cycle_id", cycleID), zap.Stringer("instance", stringerKey(p.instances[i].key)), zap.Error(err))
			} else {
				p.log.Error("polling instance failed",
					zap.String("poll_cycle_id", cycleID), zap.Stringer("instance", stringerKey(p.instances[i].key)), zap.Error(err))
			}
		}
	}

	p.pruneCaches(safeTip)
	return nil
}

// pruneCaches drops cached block hashes/timestamps more than ten
// confirmation lags (100 blocks when the lag is zero) behind safeTip.
func (p *Poller) pruneCaches(safeTip uint64) {
	retain := p.confLag * 10
	if retain == 0 {
		retain = 100
	}
	if safeTip <= retain {
		return
	}
	cutoff := safeTip - retain
	for block := range p.seenBlockHash {
		if block < cutoff {
			delete(p.seenBlockHash, block)
		}
	}
	for block := range p.blockTime {
		if block < cutoff {
			delete(p.blockTime, block)
		}
	}
}

type stringerKey engine.InstanceKey

func (k stringerKey) String() string { return engine.InstanceKey(k).String() }

func (p *Poller) pollInstance(ctx context.Context, inst *trackedInstance, toBlock uint64) error {
	if toBlock < inst.nextBlock {
		return nil
	}
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(inst.nextBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: []common.Address{inst.key.ContractAddress},
	}

	logs, err := p.client.FilterLogs(ctx, query)
	if err != nil {
		return fmt.Errorf("filtering logs: %w", err)
	}

	sort.Slice(logs, func(i, j int) bool {
		if logs[i].BlockNumber != logs[j].BlockNumber {
			return logs[i].BlockNumber < logs[j].BlockNumber
		}
		return logs[i].Index < logs[j].Index
	})

	var reorgFrom *uint64
	for _, lg := range logs {
		if seen, ok := p.seenBlockHash[lg.BlockNumber]; ok && seen != lg.BlockHash {
			f := lg.BlockNumber
			if reorgFrom == nil || f < *reorgFrom {
				reorgFrom = &f
			}
		}
		p.seenBlockHash[lg.BlockNumber] = lg.BlockHash
	}
	if reorgFrom != nil {
		metrics.ReorgsDetected.WithLabelValues(string(inst.key.Stream), strconv.FormatUint(p.chainID, 10)).Inc()
		if err := p.handleReorg(ctx, inst, *reorgFrom); err != nil {
			return err
		}
		// rewind local progress to rescan from the divergence point against
		// what FilterLogs now reports as canonical.
		logs = filterFromBlock(logs, *reorgFrom)
	}

	var rows []store.AppendRow
	for _, lg := range logs {
		eventType, args, ok, err := decodeLog(inst.set, lg)
		if err != nil {
			p.log.Warn("decoding log failed", zap.String("tx_hash", lg.TxHash.Hex()), zap.Error(err))
			continue
		}
		if !ok {
			continue
		}

		blockTime, err := p.blockTimestamp(ctx, lg.BlockNumber)
		if err != nil {
			return fmt.Errorf("fetching block %d timestamp: %w", lg.BlockNumber, err)
		}

		abiData := append([]byte(nil), lg.Data...)
		prevTip := inst.tip
		newTip := crypto.Keccak256Hash(lg.Topics[0].Bytes(), abiData, prevTip.Bytes())

		rows = append(rows, store.AppendRow{
			Instance:            inst.key,
			EventSeq:            inst.seq + 1,
			PrevTip:             prevTip,
			NewTip:              newTip,
			EventSignature:      lg.Topics[0],
			ABIEncodedEventData: abiData,
			EventType:           eventType,
			Args:                args,
			BlockNumber:         lg.BlockNumber,
			BlockTimestamp:      blockTime,
			BlockHash:           lg.BlockHash,
			TxHash:              lg.TxHash,
			LogIndex:            uint32(lg.Index),
		})
		inst.seq++
		inst.tip = newTip
	}

	inst.nextBlock = toBlock + 1

	if len(rows) == 0 {
		return nil
	}
	if err := p.events.AppendEvents(ctx, inst.key, rows); err != nil {
		return err
	}
	metrics.IngestedEvents.WithLabelValues(string(inst.key.Stream), strconv.FormatUint(p.chainID, 10)).Add(float64(len(rows)))
	return nil
}

// blockTimestamp returns a block's unix timestamp, fetching it on first use
// and caching it across poll cycles until pruneCaches drops it.
func (p *Poller) blockTimestamp(ctx context.Context, blockNumber uint64) (int64, error) {
	if ts, ok := p.blockTime[blockNumber]; ok {
		return ts, nil
	}
	header, err := p.client.HeaderByNumber(ctx, new(big.Int).SetUint64(blockNumber))
	if err != nil {
		return 0, err
	}
	ts := int64(header.Time)
	p.blockTime[blockNumber] = ts
	return ts, nil
}

// handleReorg flips canonical=false for every event at or after the block
// where the chain diverged, then rewinds the poller's local seq/tip/
// nextBlock so the next FilterLogs call re-derives the replacement events
// from the last still-canonical point.
func (p *Poller) handleReorg(ctx context.Context, inst *trackedInstance, fromBlock uint64) error {
	fromSeq, ok, err := p.events.FirstCanonicalSeqFromBlock(ctx, inst.key, fromBlock)
	if err != nil {
		return fmt.Errorf("locating divergence seq: %w", err)
	}
	if !ok {
		inst.nextBlock = fromBlock
		return nil
	}
	if err := p.events.SetCanonical(ctx, inst.key, fromSeq, ^uint64(0), false); err != nil {
		return err
	}

	if fromSeq == 0 {
		inst.seq = 0
	} else {
		prev, err := p.events.GetCanonicalBySeq(ctx, inst.key, fromSeq-1)
		if err != nil {
			return fmt.Errorf("loading pre-divergence tip: %w", err)
		}
		if prev != nil {
			inst.seq = prev.EventSeq
			inst.tip = prev.NewTip
		}
	}
	inst.nextBlock = fromBlock
	return nil
}

// filterFromBlock drops logs before fromBlock, used after a reorg rewind so
// the remainder of this poll cycle doesn't re-append logs the next cycle
// will pick up anyway starting at the rewound nextBlock.
func filterFromBlock(logs []types.Log, fromBlock uint64) []types.Log {
	out := logs[:0:0]
	for _, lg := range logs {
		if lg.BlockNumber >= fromBlock {
			out = append(out, lg)
		}
	}
	return out
}
