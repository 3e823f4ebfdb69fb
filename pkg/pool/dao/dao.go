// Package dao holds the bun-tagged row structs for the Pool stream's
// versioned entity families and append-only ledgers.
package dao

// InstanceKey is the (chain_id, contract_address) pair that scopes every
// Pool row to one instance, even though a typical deployment configures
// exactly one Pool instance. The row structs below declare these two
// columns directly; none of them embeds this type.
type InstanceKey struct {
	ChainID         uint64 `bun:"chain_id"`
	ContractAddress []byte `bun:"contract_address,type:bytea"`
}

// Ownership is the versioned singleton pool-owner record.
type Ownership struct {
	tableName       struct{} `bun:"table:pool_ownership,alias:po"` //nolint:unused
	ChainID         uint64   `bun:",pk"`
	ContractAddress []byte   `bun:",pk,type:bytea"`
	ValidFromSeq    uint64   `bun:",pk"`
	ValidToSeq      *uint64  `bun:",nullzero"`
	OldOwner        []byte   `bun:",type:bytea"`
	NewOwner        []byte   `bun:",notnull,type:bytea"`
}

// RecommendedFee is the versioned singleton fee-schedule record.
type RecommendedFee struct {
	tableName       struct{} `bun:"table:pool_recommended_fee,alias:prf"` //nolint:unused
	ChainID         uint64   `bun:",pk"`
	ContractAddress []byte   `bun:",pk,type:bytea"`
	ValidFromSeq    uint64   `bun:",pk"`
	ValidToSeq      *uint64  `bun:",nullzero"`
	FeePPM          uint64   `bun:",notnull"`
	FeeFlat         string   `bun:",notnull,type:numeric(38,0)"`
}

// ReceiverIntentParams is versioned, keyed by intent id.
type ReceiverIntentParams struct {
	tableName       struct{} `bun:"table:pool_receiver_intent_params,alias:rip"` //nolint:unused
	ChainID         uint64   `bun:",pk"`
	ContractAddress []byte   `bun:",pk,type:bytea"`
	IntentID        string   `bun:",pk,type:varchar(66)"`
	ValidFromSeq    uint64   `bun:",pk"`
	ValidToSeq      *uint64  `bun:",nullzero"`
	Forwarder       []byte   `bun:",notnull,type:bytea"`
	ToTronEVM       []byte   `bun:",notnull,type:bytea"`
	ToTronBase58    string   `bun:",notnull,type:varchar(64)"`
	ForwardSalt     []byte   `bun:",notnull,type:bytea"`
	Token           []byte   `bun:",notnull,type:bytea"`
	AmountParam     string   `bun:",notnull,type:numeric(78,0)"`
	IntentHash      []byte   `bun:",notnull,type:bytea"`
}

// ReceiverIntentFeeSnap is versioned, keyed by intent id.
type ReceiverIntentFeeSnap struct {
	tableName         struct{} `bun:"table:pool_receiver_intent_fee_snap,alias:rifs"` //nolint:unused
	ChainID           uint64   `bun:",pk"`
	ContractAddress   []byte   `bun:",pk,type:bytea"`
	IntentID          string   `bun:",pk,type:varchar(66)"`
	ValidFromSeq      uint64   `bun:",pk"`
	ValidToSeq        *uint64  `bun:",nullzero"`
	FeePPM            uint64   `bun:",notnull"`
	FeeFlat           string   `bun:",notnull,type:numeric(38,0)"`
	TronPaymentAmount string   `bun:",notnull,type:numeric(38,0)"`
}

// Intent is the versioned per-intent state record.
type Intent struct {
	tableName          struct{} `bun:"table:pool_intents,alias:pi"` //nolint:unused
	ChainID            uint64   `bun:",pk"`
	ContractAddress    []byte   `bun:",pk,type:bytea"`
	IntentID           string   `bun:",pk,type:varchar(66)"`
	ValidFromSeq       uint64   `bun:",pk"`
	ValidToSeq         *uint64  `bun:",nullzero"`
	Creator            []byte   `bun:",notnull,type:bytea"`
	IntentType         int16    `bun:",notnull"`
	EscrowToken        []byte   `bun:",notnull,type:bytea"`
	EscrowAmount       string   `bun:",notnull,type:numeric(78,0)"`
	RefundBeneficiary  []byte   `bun:",notnull,type:bytea"`
	Deadline           int64    `bun:",notnull"`
	IntentSpecs        []byte   `bun:",type:bytea"`
	Solver             []byte   `bun:",type:bytea"`
	SolverClaimedAt    *int64   `bun:",nullzero"`
	TronTxID           *string  `bun:",nullzero,type:varchar(128)"`
	TronBlockNumber    *uint64  `bun:",nullzero"`
	Solved             bool     `bun:",notnull"`
	Funded             bool     `bun:",notnull"`
	Settled            bool     `bun:",notnull"`
	Closed             bool     `bun:",notnull"`
}

// IntentClaimedLedger is an append-only ledger row.
type IntentClaimedLedger struct {
	tableName       struct{} `bun:"table:pool_ledger_intent_claimed,alias:lic"` //nolint:unused
	EventSeq        uint64   `bun:",pk"`
	ChainID         uint64   `bun:",notnull"`
	ContractAddress []byte   `bun:",notnull,type:bytea"`
	IntentID        string   `bun:",notnull,type:varchar(66)"`
	Solver          []byte   `bun:",notnull,type:bytea"`
	DepositAmount   string   `bun:",notnull,type:numeric(78,0)"`
	BlockTimestamp  int64    `bun:",notnull"`
}

// IntentUnclaimedLedger is an append-only ledger row.
type IntentUnclaimedLedger struct {
	tableName                     struct{} `bun:"table:pool_ledger_intent_unclaimed,alias:liu"` //nolint:unused
	EventSeq                      uint64   `bun:",pk"`
	ChainID                       uint64   `bun:",notnull"`
	ContractAddress               []byte   `bun:",notnull,type:bytea"`
	IntentID                      string   `bun:",notnull,type:varchar(66)"`
	Caller                        []byte   `bun:",notnull,type:bytea"`
	PrevSolver                    []byte   `bun:",notnull,type:bytea"`
	Funded                        bool     `bun:",notnull"`
	DepositToCaller               string   `bun:",notnull,type:numeric(78,0)"`
	DepositToRefundBeneficiary    string   `bun:",notnull,type:numeric(78,0)"`
	DepositToPrevSolver           string   `bun:",notnull,type:numeric(78,0)"`
	BlockTimestamp                int64    `bun:",notnull"`
}

// IntentSolvedLedger is an append-only ledger row.
type IntentSolvedLedger struct {
	tableName       struct{} `bun:"table:pool_ledger_intent_solved,alias:lis"` //nolint:unused
	EventSeq        uint64   `bun:",pk"`
	ChainID         uint64   `bun:",notnull"`
	ContractAddress []byte   `bun:",notnull,type:bytea"`
	IntentID        string   `bun:",notnull,type:varchar(66)"`
	Solver          []byte   `bun:",notnull,type:bytea"`
	TronTxID        string   `bun:",notnull,type:varchar(128)"`
	TronBlockNumber uint64   `bun:",notnull"`
	BlockTimestamp  int64    `bun:",notnull"`
}

// IntentFundedLedger is an append-only ledger row.
type IntentFundedLedger struct {
	tableName       struct{} `bun:"table:pool_ledger_intent_funded,alias:lif"` //nolint:unused
	EventSeq        uint64   `bun:",pk"`
	ChainID         uint64   `bun:",notnull"`
	ContractAddress []byte   `bun:",notnull,type:bytea"`
	IntentID        string   `bun:",notnull,type:varchar(66)"`
	Funder          []byte   `bun:",notnull,type:bytea"`
	Token           []byte   `bun:",notnull,type:bytea"`
	Amount          string   `bun:",notnull,type:numeric(78,0)"`
	BlockTimestamp  int64    `bun:",notnull"`
}

// IntentSettledLedger is an append-only ledger row.
type IntentSettledLedger struct {
	tableName       struct{} `bun:"table:pool_ledger_intent_settled,alias:lise"` //nolint:unused
	EventSeq        uint64   `bun:",pk"`
	ChainID         uint64   `bun:",notnull"`
	ContractAddress []byte   `bun:",notnull,type:bytea"`
	IntentID        string   `bun:",notnull,type:varchar(66)"`
	Solver          []byte   `bun:",notnull,type:bytea"`
	EscrowToken     []byte   `bun:",notnull,type:bytea"`
	EscrowAmount    string   `bun:",notnull,type:numeric(78,0)"`
	DepositToken    []byte   `bun:",notnull,type:bytea"`
	DepositAmount   string   `bun:",notnull,type:numeric(78,0)"`
	BlockTimestamp  int64    `bun:",notnull"`
}

// IntentClosedLedger is an append-only ledger row.
type IntentClosedLedger struct {
	tableName                   struct{} `bun:"table:pool_ledger_intent_closed,alias:lico"` //nolint:unused
	EventSeq                    uint64   `bun:",pk"`
	ChainID                     uint64   `bun:",notnull"`
	ContractAddress             []byte   `bun:",notnull,type:bytea"`
	IntentID                    string   `bun:",notnull,type:varchar(66)"`
	Caller                      []byte   `bun:",notnull,type:bytea"`
	Solved                      bool     `bun:",notnull"`
	Funded                      bool     `bun:",notnull"`
	Settled                     bool     `bun:",notnull"`
	RefundBeneficiary           []byte   `bun:",notnull,type:bytea"`
	EscrowToken                 []byte   `bun:",notnull,type:bytea"`
	EscrowRefunded              string   `bun:",notnull,type:numeric(78,0)"`
	DepositToken                []byte   `bun:",notnull,type:bytea"`
	DepositToCaller             string   `bun:",notnull,type:numeric(78,0)"`
	DepositToRefundBeneficiary  string   `bun:",notnull,type:numeric(78,0)"`
	DepositToSolver             string   `bun:",notnull,type:numeric(78,0)"`
	BlockTimestamp               int64   `bun:",notnull"`
}
