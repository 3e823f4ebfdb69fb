// Package forwarder implements the Forwarder apply_one interpreter:
// versioned ownership/bridgers/quoter/receiver/forward state and the swap
// and bridge ledgers. One Interpreter instance serves every configured
// Forwarder instance; all mutations are scoped by the event's InstanceKey.
package forwarder

import (
	"context"

	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/untron/intents-indexer/pkg/engine"
	"github.com/untron/intents-indexer/pkg/forwarder/dao"
	"github.com/untron/intents-indexer/pkg/store"
)

// Interpreter implements engine.Interpreter for the forwarder stream.
type Interpreter struct {
	log *zap.Logger
}

// NewInterpreter builds the forwarder stream interpreter.
func NewInterpreter(log *zap.Logger) *Interpreter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Interpreter{log: log}
}

// Stream implements engine.Interpreter.
func (i *Interpreter) Stream() engine.StreamType { return engine.StreamForwarder }

func instanceConds(instance engine.InstanceKey) []store.WhereCond {
	return []store.WhereCond{
		store.Eq("chain_id", instance.ChainID),
		store.Eq("contract_address", instance.ContractAddress.Bytes()),
	}
}

func tokenInConds(instance engine.InstanceKey, tokenIn []byte) []store.WhereCond {
	return append(instanceConds(instance), store.Eq("token_in", tokenIn))
}

func receiverSaltConds(instance engine.InstanceKey, salt []byte) []store.WhereCond {
	return append(instanceConds(instance), store.Eq("receiver_salt", salt))
}

func forwardIDConds(instance engine.InstanceKey, forwardID []byte) []store.WhereCond {
	return append(instanceConds(instance), store.Eq("forward_id", forwardID))
}

// ApplyOne implements engine.Interpreter. Event types outside the known
// dispatch table are ignored for forward-compatibility.
func (i *Interpreter) ApplyOne(ctx context.Context, db bun.IDB, instance engine.InstanceKey, ev *engine.Event) error {
	a := engine.Args{Instance: instance, EventSeq: ev.EventSeq, Values: ev.Args}

	switch ev.EventType {
	case "OwnershipTransferred":
		return i.applyOwnershipTransferred(ctx, db, instance, ev, a)
	case "BridgersSet":
		return i.applyBridgersSet(ctx, db, instance, ev, a)
	case "QuoterSet":
		return i.applyQuoterSet(ctx, db, instance, ev, a)
	case "ReceiverDeployed":
		return i.applyReceiverDeployed(ctx, db, instance, ev, a)
	case "ForwardStarted":
		return i.applyForwardStarted(ctx, db, instance, ev, a)
	case "ForwardCompleted":
		return i.applyForwardCompleted(ctx, db, instance, ev, a)
	case "SwapExecuted":
		return i.applySwapExecuted(ctx, db, instance, ev, a)
	case "BridgeInitiated":
		return i.applyBridgeInitiated(ctx, db, instance, ev, a)
	default:
		i.log.Warn("ignoring unknown forwarder event type", zap.String("event_type", ev.EventType), zap.Stringer("instance", instance), zap.Uint64("event_seq", ev.EventSeq))
		return nil
	}
}

func (i *Interpreter) applyOwnershipTransferred(ctx context.Context, db bun.IDB, instance engine.InstanceKey, ev *engine.Event, a engine.Args) error {
	oldOwner, err := a.Address("old_owner")
	if err != nil {
		return err
	}
	newOwner, err := a.Address("new_owner")
	if err != nil {
		return err
	}

	conds := instanceConds(instance)
	if err := store.CloseCurrent[dao.Ownership](ctx, db, conds, ev.EventSeq); err != nil {
		return err
	}
	return store.InsertVersion(ctx, db, &dao.Ownership{
		ChainID:         instance.ChainID,
		ContractAddress: instance.ContractAddress.Bytes(),
		ValidFromSeq:    ev.EventSeq,
		OldOwner:        oldOwner.Bytes(),
		NewOwner:        newOwner.Bytes(),
	})
}

func (i *Interpreter) applyBridgersSet(ctx context.Context, db bun.IDB, instance engine.InstanceKey, ev *engine.Event, a engine.Args) error {
	usdt, err := a.Address("usdt_bridger")
	if err != nil {
		return err
	}
	usdc, err := a.Address("usdc_bridger")
	if err != nil {
		return err
	}

	conds := instanceConds(instance)
	if err := store.CloseCurrent[dao.Bridgers](ctx, db, conds, ev.EventSeq); err != nil {
		return err
	}
	return store.InsertVersion(ctx, db, &dao.Bridgers{
		ChainID:         instance.ChainID,
		ContractAddress: instance.ContractAddress.Bytes(),
		ValidFromSeq:    ev.EventSeq,
		USDTBridger:     usdt.Bytes(),
		USDCBridger:     usdc.Bytes(),
	})
}

func (i *Interpreter) applyQuoterSet(ctx context.Context, db bun.IDB, instance engine.InstanceKey, ev *engine.Event, a engine.Args) error {
	tokenIn, err := a.Address("token_in")
	if err != nil {
		return err
	}
	quoter, err := a.Address("quoter")
	if err != nil {
		return err
	}

	conds := tokenInConds(instance, tokenIn.Bytes())
	if err := store.CloseCurrent[dao.Quoter](ctx, db, conds, ev.EventSeq); err != nil {
		return err
	}
	return store.InsertVersion(ctx, db, &dao.Quoter{
		ChainID:         instance.ChainID,
		ContractAddress: instance.ContractAddress.Bytes(),
		TokenIn:         tokenIn.Bytes(),
		ValidFromSeq:    ev.EventSeq,
		Quoter:          quoter.Bytes(),
	})
}

func (i *Interpreter) applyReceiverDeployed(ctx context.Context, db bun.IDB, instance engine.InstanceKey, ev *engine.Event, a engine.Args) error {
	salt, err := a.Hash("receiver_salt")
	if err != nil {
		return err
	}
	receiver, err := a.Address("receiver")
	if err != nil {
		return err
	}
	impl, err := a.Address("implementation")
	if err != nil {
		return err
	}

	conds := receiverSaltConds(instance, salt.Bytes())
	if err := store.CloseCurrent[dao.Receiver](ctx, db, conds, ev.EventSeq); err != nil {
		return err
	}
	return store.InsertVersion(ctx, db, &dao.Receiver{
		ChainID:         instance.ChainID,
		ContractAddress: instance.ContractAddress.Bytes(),
		ReceiverSalt:    salt.Bytes(),
		ValidFromSeq:    ev.EventSeq,
		Receiver:        receiver.Bytes(),
		Implementation:  impl.Bytes(),
	})
}

func (i *Interpreter) applyForwardStarted(ctx context.Context, db bun.IDB, instance engine.InstanceKey, ev *engine.Event, a engine.Args) error {
	forwardID, err := a.Hash("forward_id")
	if err != nil {
		return err
	}
	baseReceiverSalt, err := a.Hash("base_receiver_salt")
	if err != nil {
		return err
	}
	forwardSalt, err := a.Hash("forward_salt")
	if err != nil {
		return err
	}
	intentHash, err := a.Hash("intent_hash")
	if err != nil {
		return err
	}
	targetChain, err := a.Uint64("target_chain")
	if err != nil {
		return err
	}
	beneficiary, err := a.Address("beneficiary")
	if err != nil {
		return err
	}
	beneficiaryClaimOnly, err := a.Bool("beneficiary_claim_only")
	if err != nil {
		return err
	}
	balanceParam, err := a.BigInt("balance_param")
	if err != nil {
		return err
	}
	tokenIn, err := a.Address("token_in")
	if err != nil {
		return err
	}
	tokenOut, err := a.Address("token_out")
	if err != nil {
		return err
	}
	receiverUsed, err := a.Address("receiver_used")
	if err != nil {
		return err
	}
	ephemeralReceiver, err := a.Bool("ephemeral_receiver")
	if err != nil {
		return err
	}

	conds := forwardIDConds(instance, forwardID.Bytes())
	if err := store.CloseCurrent[dao.Forward](ctx, db, conds, ev.EventSeq); err != nil {
		return err
	}
	return store.InsertVersion(ctx, db, &dao.Forward{
		ChainID:              instance.ChainID,
		ContractAddress:      instance.ContractAddress.Bytes(),
		ForwardID:            forwardID.Bytes(),
		ValidFromSeq:         ev.EventSeq,
		BaseReceiverSalt:     baseReceiverSalt.Bytes(),
		ForwardSalt:          forwardSalt.Bytes(),
		IntentHash:           intentHash.Bytes(),
		TargetChain:          targetChain,
		Beneficiary:          beneficiary.Bytes(),
		BeneficiaryClaimOnly: beneficiaryClaimOnly,
		BalanceParam:         balanceParam.String(),
		TokenIn:              tokenIn.Bytes(),
		TokenOut:             tokenOut.Bytes(),
		ReceiverUsed:         receiverUsed.Bytes(),
		EphemeralReceiver:    ephemeralReceiver,
		StartedAt:            ev.BlockTimestamp,
	})
}

func (i *Interpreter) applyForwardCompleted(ctx context.Context, db bun.IDB, instance engine.InstanceKey, ev *engine.Event, a engine.Args) error {
	forwardID, err := a.Hash("forward_id")
	if err != nil {
		return err
	}
	ephemeral, err := a.Bool("ephemeral")
	if err != nil {
		return err
	}
	amountPulled, err := a.BigInt("amount_pulled")
	if err != nil {
		return err
	}
	amountForwarded, err := a.BigInt("amount_forwarded")
	if err != nil {
		return err
	}
	relayerRebate, err := a.BigInt("relayer_rebate")
	if err != nil {
		return err
	}
	msgValueRefunded, err := a.BigInt("msg_value_refunded")
	if err != nil {
		return err
	}
	settledLocally, err := a.Bool("settled_locally")
	if err != nil {
		return err
	}
	bridger, err := a.Address("bridger")
	if err != nil {
		return err
	}
	expectedBridgeOut, err := a.BigInt("expected_bridge_out")
	if err != nil {
		return err
	}
	bridgeDataHash, err := a.Hash("bridge_data_hash")
	if err != nil {
		return err
	}

	conds := forwardIDConds(instance, forwardID.Bytes())
	cur, err := store.GetCurrent[dao.Forward](ctx, db, conds)
	if err != nil {
		return err
	}
	if cur == nil {
		return engine.CompletedWithoutStartedError(instance, ev.EventSeq, forwardID.Hex())
	}

	next := *cur
	next.ValidFromSeq = ev.EventSeq
	next.ValidToSeq = nil
	next.Ephemeral = &ephemeral
	amountPulledStr := amountPulled.String()
	next.AmountPulled = &amountPulledStr
	amountForwardedStr := amountForwarded.String()
	next.AmountForwarded = &amountForwardedStr
	relayerRebateStr := relayerRebate.String()
	next.RelayerRebate = &relayerRebateStr
	msgValueRefundedStr := msgValueRefunded.String()
	next.MsgValueRefunded = &msgValueRefundedStr
	next.SettledLocally = &settledLocally
	next.Bridger = bridger.Bytes()
	expectedBridgeOutStr := expectedBridgeOut.String()
	next.ExpectedBridgeOut = &expectedBridgeOutStr
	next.BridgeDataHash = bridgeDataHash.Bytes()
	completedAt := ev.BlockTimestamp
	next.CompletedAt = &completedAt

	if err := store.CloseCurrent[dao.Forward](ctx, db, conds, ev.EventSeq); err != nil {
		return err
	}
	return store.InsertVersion(ctx, db, &next)
}

func (i *Interpreter) applySwapExecuted(ctx context.Context, db bun.IDB, instance engine.InstanceKey, ev *engine.Event, a engine.Args) error {
	forwardID, err := a.Hash("forward_id")
	if err != nil {
		return err
	}
	tokenIn, err := a.Address("token_in")
	if err != nil {
		return err
	}
	tokenOut, err := a.Address("token_out")
	if err != nil {
		return err
	}
	minOut, err := a.BigInt("min_out")
	if err != nil {
		return err
	}
	actualOut, err := a.BigInt("actual_out")
	if err != nil {
		return err
	}

	return store.InsertLedger(ctx, db, &dao.SwapExecutedLedger{
		EventSeq:        ev.EventSeq,
		ChainID:         instance.ChainID,
		ContractAddress: instance.ContractAddress.Bytes(),
		ForwardID:       forwardID.Bytes(),
		TokenIn:         tokenIn.Bytes(),
		TokenOut:        tokenOut.Bytes(),
		MinOut:          minOut.String(),
		ActualOut:       actualOut.String(),
		BlockTimestamp:  ev.BlockTimestamp,
	})
}

func (i *Interpreter) applyBridgeInitiated(ctx context.Context, db bun.IDB, instance engine.InstanceKey, ev *engine.Event, a engine.Args) error {
	forwardID, err := a.Hash("forward_id")
	if err != nil {
		return err
	}
	bridger, err := a.Address("bridger")
	if err != nil {
		return err
	}
	tokenOut, err := a.Address("token_out")
	if err != nil {
		return err
	}
	amountIn, err := a.BigInt("amount_in")
	if err != nil {
		return err
	}
	targetChain, err := a.Uint64("target_chain")
	if err != nil {
		return err
	}

	return store.InsertLedger(ctx, db, &dao.BridgeInitiatedLedger{
		EventSeq:        ev.EventSeq,
		ChainID:         instance.ChainID,
		ContractAddress: instance.ContractAddress.Bytes(),
		ForwardID:       forwardID.Bytes(),
		Bridger:         bridger.Bytes(),
		TokenOut:        tokenOut.Bytes(),
		AmountIn:        amountIn.String(),
		TargetChain:     targetChain,
		BlockTimestamp:  ev.BlockTimestamp,
	})
}
