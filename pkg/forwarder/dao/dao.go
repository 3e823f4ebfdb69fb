// Package dao holds the bun-tagged row structs for the Forwarder stream's
// versioned entity families and append-only ledgers.
package dao

// Ownership is the versioned singleton forwarder-owner record.
type Ownership struct {
	tableName       struct{} `bun:"table:forwarder_ownership,alias:fo"` //nolint:unused
	ChainID         uint64   `bun:",pk"`
	ContractAddress []byte   `bun:",pk,type:bytea"`
	ValidFromSeq    uint64   `bun:",pk"`
	ValidToSeq      *uint64  `bun:",nullzero"`
	OldOwner        []byte   `bun:",type:bytea"`
	NewOwner        []byte   `bun:",notnull,type:bytea"`
}

// Bridgers is the versioned singleton USDT/USDC bridger record.
type Bridgers struct {
	tableName       struct{} `bun:"table:forwarder_bridgers,alias:fb"` //nolint:unused
	ChainID         uint64   `bun:",pk"`
	ContractAddress []byte   `bun:",pk,type:bytea"`
	ValidFromSeq    uint64   `bun:",pk"`
	ValidToSeq      *uint64  `bun:",nullzero"`
	USDTBridger     []byte   `bun:",notnull,type:bytea"`
	USDCBridger     []byte   `bun:",notnull,type:bytea"`
}

// Quoter is versioned, keyed by token_in.
type Quoter struct {
	tableName       struct{} `bun:"table:forwarder_quoter,alias:fq"` //nolint:unused
	ChainID         uint64   `bun:",pk"`
	ContractAddress []byte   `bun:",pk,type:bytea"`
	TokenIn         []byte   `bun:",pk,type:bytea"`
	ValidFromSeq    uint64   `bun:",pk"`
	ValidToSeq      *uint64  `bun:",nullzero"`
	Quoter          []byte   `bun:",notnull,type:bytea"`
}

// Receiver is versioned, keyed by receiver_salt.
type Receiver struct {
	tableName       struct{} `bun:"table:forwarder_receiver,alias:fr"` //nolint:unused
	ChainID         uint64   `bun:",pk"`
	ContractAddress []byte   `bun:",pk,type:bytea"`
	ReceiverSalt    []byte   `bun:",pk,type:bytea"`
	ValidFromSeq    uint64   `bun:",pk"`
	ValidToSeq      *uint64  `bun:",nullzero"`
	Receiver        []byte   `bun:",notnull,type:bytea"`
	Implementation  []byte   `bun:",notnull,type:bytea"`
}

// Forward is versioned, keyed by forward_id. ForwardStarted fields are
// always populated; ForwardCompleted fields are nullable until completion.
type Forward struct {
	tableName             struct{} `bun:"table:forwarder_forward,alias:ffw"` //nolint:unused
	ChainID               uint64   `bun:",pk"`
	ContractAddress       []byte   `bun:",pk,type:bytea"`
	ForwardID             []byte   `bun:",pk,type:bytea"`
	ValidFromSeq          uint64   `bun:",pk"`
	ValidToSeq            *uint64  `bun:",nullzero"`
	BaseReceiverSalt      []byte   `bun:",notnull,type:bytea"`
	ForwardSalt           []byte   `bun:",notnull,type:bytea"`
	IntentHash            []byte   `bun:",notnull,type:bytea"`
	TargetChain           uint64   `bun:",notnull"`
	Beneficiary           []byte   `bun:",notnull,type:bytea"`
	BeneficiaryClaimOnly  bool     `bun:",notnull"`
	BalanceParam          string   `bun:",notnull,type:numeric(78,0)"`
	TokenIn               []byte   `bun:",notnull,type:bytea"`
	TokenOut              []byte   `bun:",notnull,type:bytea"`
	ReceiverUsed           []byte  `bun:",notnull,type:bytea"`
	EphemeralReceiver     bool     `bun:",notnull"`
	StartedAt             int64    `bun:",notnull"`
	Ephemeral             *bool    `bun:",nullzero"`
	AmountPulled          *string  `bun:",nullzero,type:numeric(78,0)"`
	AmountForwarded       *string  `bun:",nullzero,type:numeric(78,0)"`
	RelayerRebate         *string  `bun:",nullzero,type:numeric(78,0)"`
	MsgValueRefunded      *string  `bun:",nullzero,type:numeric(78,0)"`
	SettledLocally        *bool    `bun:",nullzero"`
	Bridger               []byte   `bun:",type:bytea"`
	ExpectedBridgeOut     *string  `bun:",nullzero,type:numeric(78,0)"`
	BridgeDataHash        []byte   `bun:",type:bytea"`
	CompletedAt           *int64   `bun:",nullzero"`
}

// SwapExecutedLedger is an append-only ledger row.
type SwapExecutedLedger struct {
	tableName       struct{} `bun:"table:forwarder_ledger_swap_executed,alias:lse"` //nolint:unused
	EventSeq        uint64   `bun:",pk"`
	ChainID         uint64   `bun:",notnull"`
	ContractAddress []byte   `bun:",notnull,type:bytea"`
	ForwardID       []byte   `bun:",notnull,type:bytea"`
	TokenIn         []byte   `bun:",notnull,type:bytea"`
	TokenOut        []byte   `bun:",notnull,type:bytea"`
	MinOut          string   `bun:",notnull,type:numeric(78,0)"`
	ActualOut       string   `bun:",notnull,type:numeric(78,0)"`
	BlockTimestamp  int64    `bun:",notnull"`
}

// BridgeInitiatedLedger is an append-only ledger row.
type BridgeInitiatedLedger struct {
	tableName       struct{} `bun:"table:forwarder_ledger_bridge_initiated,alias:lbi"` //nolint:unused
	EventSeq        uint64   `bun:",pk"`
	ChainID         uint64   `bun:",notnull"`
	ContractAddress []byte   `bun:",notnull,type:bytea"`
	ForwardID       []byte   `bun:",notnull,type:bytea"`
	Bridger         []byte   `bun:",notnull,type:bytea"`
	TokenOut        []byte   `bun:",notnull,type:bytea"`
	AmountIn        string   `bun:",notnull,type:numeric(78,0)"`
	TargetChain     uint64   `bun:",notnull"`
	BlockTimestamp  int64    `bun:",notnull"`
}
