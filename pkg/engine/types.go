// Package engine implements the reorg-safe event-sourcing projection
// engine: catch-up, rollback, and dispatch over a canonical, hash-chained
// event log. It has no direct knowledge of Postgres schema beyond the
// bun.IDB handle it is given, so it can run inside the caller's transaction
// (bun.DB or bun.Tx) and be unit tested against in-memory fakes.
package engine

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// StreamType identifies the kind of contract a projection instance tracks.
type StreamType string

const (
	// StreamPool is the singleton Untron Intents pool contract.
	StreamPool StreamType = "pool"
	// StreamForwarder is a per-chain Forwarder instance.
	StreamForwarder StreamType = "forwarder"
)

// InstanceKey identifies one configured (stream, chain_id, contract_address)
// projection instance. It is the unit of isolation: no operation on one
// instance ever touches rows belonging to another.
type InstanceKey struct {
	Stream          StreamType
	ChainID         uint64
	ContractAddress common.Address
}

// String renders the instance key for logs and advisory-lock hashing.
func (k InstanceKey) String() string {
	return string(k.Stream) + ":" + itoa(k.ChainID) + ":" + k.ContractAddress.Hex()
}

func itoa(v uint64) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

// Event is one raw EventAppended row, canonical or not, as read from the
// event store for application by a stream interpreter.
type Event struct {
	ID                  int64
	Instance            InstanceKey
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
	Canonical           bool
}

// Cursor is a projection instance's progress: the last applied event_seq
// and the hash-chain tip as of that seq.
type Cursor struct {
	Instance          InstanceKey
	AppliedThroughSeq uint64
	Tip               common.Hash
	UpdatedAt         time.Time
}
