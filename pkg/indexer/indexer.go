// Package indexer wires the engine, stores, and interpreters into a single
// running system: the dispatch loop configuration, analogous to the
// teacher's pkg/relayer.Engine.
package indexer

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/untron/intents-indexer/pkg/config"
	"github.com/untron/intents-indexer/pkg/engine"
	"github.com/untron/intents-indexer/pkg/forwarder"
	"github.com/untron/intents-indexer/pkg/ingest"
	"github.com/untron/intents-indexer/pkg/pool"
	"github.com/untron/intents-indexer/pkg/store"
)

// Indexer owns the wired store/engine/dispatcher and the pollers that feed
// it, started per configured chain source.
type Indexer struct {
	DB       *bun.DB
	Events   *store.EventStore
	Registry *store.Registry
	Log      *zap.Logger

	pollers []*ingest.Poller
}

// New builds the fully wired engine: stores, catch-up/rollback engines for
// the pool and forwarder streams, and the in-transaction dispatcher. Dispatch
// runs inside the same transaction as the triggering event write.
func New(ctx context.Context, db *bun.DB, cfg config.IngestConfig, log *zap.Logger) (*Indexer, error) {
	if log == nil {
		log = zap.NewNop()
	}

	events := store.NewEventStore(db)
	cursors := store.NewCursorStore(db)
	registry := store.NewRegistry(db)

	poolInterp := pool.NewInterpreter(log)
	forwarderInterp := forwarder.NewInterpreter(log)
	composite := newCompositeInterpreter(poolInterp, forwarderInterp)

	catchup := engine.NewCatchupEngine(events, cursors, registry, composite, log)
	families := map[engine.StreamType][]engine.Rollbackable{
		engine.StreamPool:      pool.Families(),
		engine.StreamForwarder: forwarder.Families(),
	}
	rollback := engine.NewRollbackEngine(cursors, events, registry, families, log)
	dispatcher := engine.NewDispatcher(catchup, rollback, log)
	events.Dispatcher = dispatcher

	ix := &Indexer{DB: db, Events: events, Registry: registry, Log: log}

	for _, src := range cfg.Sources {
		poller, err := ingest.NewPoller(ctx, src, events, log)
		if err != nil {
			return nil, fmt.Errorf("building poller for chain %d: %w", src.ChainID, err)
		}
		ix.pollers = append(ix.pollers, poller)
	}

	return ix, nil
}

// Run starts every configured chain's poller and blocks until ctx is
// canceled or one poller returns a non-context error.
func (ix *Indexer) Run(ctx context.Context) error {
	if len(ix.pollers) == 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	errCh := make(chan error, len(ix.pollers))
	for _, poller := range ix.pollers {
		poller := poller
		go func() {
			errCh <- poller.Run(ctx, ix.Registry)
		}()
	}

	for range ix.pollers {
		if err := <-errCh; err != nil && ctx.Err() == nil {
			return err
		}
	}
	return ctx.Err()
}
