// Package dao holds the bun-tagged row structs backing the event store,
// stream cursor, and instance registry tables.
package dao

import "time"

// InstanceDao maps directly to the 'instances' table.
type InstanceDao struct {
	tableName       struct{}  `bun:"table:instances,alias:i"` //nolint:unused
	ID              int64     `bun:",pk,autoincrement"`
	Stream          string    `bun:",notnull,type:varchar(32)"`
	ChainID         uint64    `bun:",notnull"`
	ContractAddress []byte    `bun:",notnull,type:bytea"`
	GenesisTip      []byte    `bun:",notnull,type:bytea"`
	CreatedAt       time.Time `bun:",nullzero,default:current_timestamp"`
}

// StreamCursorDao maps directly to the 'stream_cursors' table.
type StreamCursorDao struct {
	tableName         struct{}  `bun:"table:stream_cursors,alias:sc"` //nolint:unused
	Stream            string    `bun:",pk,type:varchar(32)"`
	ChainID           uint64    `bun:",pk"`
	ContractAddress   []byte    `bun:",pk,type:bytea"`
	AppliedThroughSeq uint64    `bun:",notnull"`
	Tip               []byte    `bun:",notnull,type:bytea"`
	UpdatedAt         time.Time `bun:",nullzero,default:current_timestamp"`
}

// EventAppendedDao maps directly to the 'event_appended' table.
type EventAppendedDao struct {
	tableName           struct{} `bun:"table:event_appended,alias:ea"` //nolint:unused
	ID                   int64    `bun:",pk,autoincrement"`
	Stream               string   `bun:",notnull,type:varchar(32)"`
	ChainID              uint64   `bun:",notnull"`
	ContractAddress      []byte   `bun:",notnull,type:bytea"`
	EventSeq             uint64   `bun:",notnull"`
	PrevTip              []byte   `bun:",notnull,type:bytea"`
	NewTip               []byte   `bun:",notnull,type:bytea"`
	EventSignature       []byte   `bun:",notnull,type:bytea"`
	ABIEncodedEventData  []byte   `bun:",notnull,type:bytea"`
	EventType            string   `bun:",notnull,type:varchar(64)"`
	Args                 []byte   `bun:",notnull,type:jsonb"`
	BlockNumber          uint64   `bun:",notnull"`
	BlockTimestamp       int64    `bun:",notnull"`
	BlockHash            []byte   `bun:",notnull,type:bytea"`
	TxHash               []byte   `bun:",notnull,type:bytea"`
	LogIndex             uint32   `bun:",notnull"`
	Canonical            bool     `bun:",notnull"`
}
