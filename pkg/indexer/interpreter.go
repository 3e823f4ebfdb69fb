package indexer

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/untron/intents-indexer/pkg/engine"
)

// compositeInterpreter routes ApplyOne to the per-stream interpreter
// matching the event's instance, since a single CatchupEngine is shared
// across both the pool and forwarder streams.
type compositeInterpreter struct {
	byStream map[engine.StreamType]engine.Interpreter
}

func newCompositeInterpreter(interps ...engine.Interpreter) *compositeInterpreter {
	byStream := make(map[engine.StreamType]engine.Interpreter, len(interps))
	for _, interp := range interps {
		byStream[interp.Stream()] = interp
	}
	return &compositeInterpreter{byStream: byStream}
}

func (c *compositeInterpreter) Stream() engine.StreamType {
	return ""
}

func (c *compositeInterpreter) ApplyOne(ctx context.Context, db bun.IDB, instance engine.InstanceKey, ev *engine.Event) error {
	interp, ok := c.byStream[instance.Stream]
	if !ok {
		return fmt.Errorf("no interpreter registered for stream %q", instance.Stream)
	}
	return interp.ApplyOne(ctx, db, instance, ev)
}
