// Package pool implements the Pool apply_one interpreter: versioned
// ownership/fee/receiver-intent/intent state and the intent-lifecycle
// ledgers.
package pool

import (
	"context"

	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/untron/intents-indexer/pkg/engine"
	"github.com/untron/intents-indexer/pkg/pool/dao"
	"github.com/untron/intents-indexer/pkg/store"
)

var allowedIntentTypes = []int{0, 1, 2, 3}

// Interpreter implements engine.Interpreter for the pool stream.
type Interpreter struct {
	log *zap.Logger
}

// NewInterpreter builds the pool stream interpreter.
func NewInterpreter(log *zap.Logger) *Interpreter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Interpreter{log: log}
}

// Stream implements engine.Interpreter.
func (i *Interpreter) Stream() engine.StreamType { return engine.StreamPool }

func instanceConds(instance engine.InstanceKey) []store.WhereCond {
	return []store.WhereCond{
		store.Eq("chain_id", instance.ChainID),
		store.Eq("contract_address", instance.ContractAddress.Bytes()),
	}
}

func intentConds(instance engine.InstanceKey, intentID string) []store.WhereCond {
	return append(instanceConds(instance), store.Eq("intent_id", intentID))
}

// ApplyOne implements engine.Interpreter. Event types outside the known
// dispatch table are ignored for forward-compatibility.
func (i *Interpreter) ApplyOne(ctx context.Context, db bun.IDB, instance engine.InstanceKey, ev *engine.Event) error {
	a := engine.Args{Instance: instance, EventSeq: ev.EventSeq, Values: ev.Args}

	switch ev.EventType {
	case "OwnershipTransferred":
		return i.applyOwnershipTransferred(ctx, db, instance, ev, a)
	case "RecommendedIntentFeeSet":
		return i.applyRecommendedFeeSet(ctx, db, instance, ev, a)
	case "ReceiverIntentParams":
		return i.applyReceiverIntentParams(ctx, db, instance, ev, a)
	case "ReceiverIntentFeeSnap":
		return i.applyReceiverIntentFeeSnap(ctx, db, instance, ev, a)
	case "IntentCreated":
		return i.applyIntentCreated(ctx, db, instance, ev, a)
	case "IntentClaimed":
		return i.applyIntentClaimed(ctx, db, instance, ev, a)
	case "IntentUnclaimed":
		return i.applyIntentUnclaimed(ctx, db, instance, ev, a)
	case "IntentSolved":
		return i.applyIntentSolved(ctx, db, instance, ev, a)
	case "IntentFunded":
		return i.applyIntentFunded(ctx, db, instance, ev, a)
	case "IntentSettled":
		return i.applyIntentSettled(ctx, db, instance, ev, a)
	case "IntentClosed":
		return i.applyIntentClosed(ctx, db, instance, ev, a)
	default:
		i.log.Warn("ignoring unknown pool event type", zap.String("event_type", ev.EventType), zap.Stringer("instance", instance), zap.Uint64("event_seq", ev.EventSeq))
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

func (i *Interpreter) applyRecommendedFeeSet(ctx context.Context, db bun.IDB, instance engine.InstanceKey, ev *engine.Event, a engine.Args) error {
	feePPM, err := a.Uint64("fee_ppm")
	if err != nil {
		return err
	}
	feeFlat, err := a.BigInt("fee_flat")
	if err != nil {
		return err
	}

	conds := instanceConds(instance)
	if err := store.CloseCurrent[dao.RecommendedFee](ctx, db, conds, ev.EventSeq); err != nil {
		return err
	}
	return store.InsertVersion(ctx, db, &dao.RecommendedFee{
		ChainID:         instance.ChainID,
		ContractAddress: instance.ContractAddress.Bytes(),
		ValidFromSeq:    ev.EventSeq,
		FeePPM:          feePPM,
		FeeFlat:         feeFlat.String(),
	})
}

func (i *Interpreter) applyReceiverIntentParams(ctx context.Context, db bun.IDB, instance engine.InstanceKey, ev *engine.Event, a engine.Args) error {
	intentID, err := a.String("id")
	if err != nil {
		return err
	}
	forwarder, err := a.Address("forwarder")
	if err != nil {
		return err
	}
	toTron, err := a.Address("to_tron")
	if err != nil {
		return err
	}
	forwardSalt, err := a.Hash("forward_salt")
	if err != nil {
		return err
	}
	token, err := a.Address("token")
	if err != nil {
		return err
	}
	amount, err := a.BigInt("amount")
	if err != nil {
		return err
	}

	intentHash, err := computeIntentHash(forwarder, toTron)
	if err != nil {
		return err
	}

	conds := intentConds(instance, intentID)
	if err := store.CloseCurrent[dao.ReceiverIntentParams](ctx, db, conds, ev.EventSeq); err != nil {
		return err
	}
	return store.InsertVersion(ctx, db, &dao.ReceiverIntentParams{
		ChainID:         instance.ChainID,
		ContractAddress: instance.ContractAddress.Bytes(),
		IntentID:        intentID,
		ValidFromSeq:    ev.EventSeq,
		Forwarder:       forwarder.Bytes(),
		ToTronEVM:       toTron.Bytes(),
		ToTronBase58:    tronBase58(toTron),
		ForwardSalt:     forwardSalt.Bytes(),
		Token:           token.Bytes(),
		AmountParam:     amount.String(),
		IntentHash:      intentHash.Bytes(),
	})
}

func (i *Interpreter) applyReceiverIntentFeeSnap(ctx context.Context, db bun.IDB, instance engine.InstanceKey, ev *engine.Event, a engine.Args) error {
	intentID, err := a.String("id")
	if err != nil {
		return err
	}
	feePPM, err := a.Uint64("fee_ppm")
	if err != nil {
		return err
	}
	feeFlat, err := a.BigInt("fee_flat")
	if err != nil {
		return err
	}
	tronPaymentAmount, err := a.BigInt("tron_payment_amount")
	if err != nil {
		return err
	}

	conds := intentConds(instance, intentID)
	if err := store.CloseCurrent[dao.ReceiverIntentFeeSnap](ctx, db, conds, ev.EventSeq); err != nil {
		return err
	}
	return store.InsertVersion(ctx, db, &dao.ReceiverIntentFeeSnap{
		ChainID:           instance.ChainID,
		ContractAddress:   instance.ContractAddress.Bytes(),
		IntentID:          intentID,
		ValidFromSeq:      ev.EventSeq,
		FeePPM:            feePPM,
		FeeFlat:           feeFlat.String(),
		TronPaymentAmount: tronPaymentAmount.String(),
	})
}

func (i *Interpreter) applyIntentCreated(ctx context.Context, db bun.IDB, instance engine.InstanceKey, ev *engine.Event, a engine.Args) error {
	intentID, err := a.String("id")
	if err != nil {
		return err
	}
	creator, err := a.Address("creator")
	if err != nil {
		return err
	}
	intentType, err := a.IntentType("intent_type", allowedIntentTypes...)
	if err != nil {
		return err
	}
	token, err := a.Address("token")
	if err != nil {
		return err
	}
	amount, err := a.BigInt("amount")
	if err != nil {
		return err
	}
	refundBeneficiary, err := a.Address("refund_beneficiary")
	if err != nil {
		return err
	}
	deadline, err := a.Uint64("deadline")
	if err != nil {
		return err
	}
	specs, err := a.Bytes("intent_specs")
	if err != nil {
		return err
	}

	conds := intentConds(instance, intentID)
	// Defensive close: a duplicate IntentCreated for the same id should
	// not leave two open rows, even though the contract does not emit
	// this twice in practice.
	if err := store.CloseCurrent[dao.Intent](ctx, db, conds, ev.EventSeq); err != nil {
		return err
	}
	return store.InsertVersion(ctx, db, &dao.Intent{
		ChainID:           instance.ChainID,
		ContractAddress:   instance.ContractAddress.Bytes(),
		IntentID:          intentID,
		ValidFromSeq:      ev.EventSeq,
		Creator:           creator.Bytes(),
		IntentType:        int16(intentType),
		EscrowToken:       token.Bytes(),
		EscrowAmount:      amount.String(),
		RefundBeneficiary: refundBeneficiary.Bytes(),
		Deadline:          int64(deadline),
		IntentSpecs:       specs,
	})
}

func (i *Interpreter) currentIntent(ctx context.Context, db bun.IDB, instance engine.InstanceKey, intentID string) (*dao.Intent, error) {
	cur, err := store.GetCurrent[dao.Intent](ctx, db, intentConds(instance, intentID))
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, engine.MissingCurrentError(instance, 0, "pool intent "+intentID)
	}
	return cur, nil
}

func (i *Interpreter) reviseIntent(ctx context.Context, db bun.IDB, instance engine.InstanceKey, ev *engine.Event, cur *dao.Intent, mutate func(*dao.Intent)) error {
	next := *cur
	next.ValidFromSeq = ev.EventSeq
	next.ValidToSeq = nil
	mutate(&next)

	conds := intentConds(instance, cur.IntentID)
	if err := store.CloseCurrent[dao.Intent](ctx, db, conds, ev.EventSeq); err != nil {
		return err
	}
	return store.InsertVersion(ctx, db, &next)
}

func (i *Interpreter) applyIntentClaimed(ctx context.Context, db bun.IDB, instance engine.InstanceKey, ev *engine.Event, a engine.Args) error {
	intentID, err := a.String("id")
	if err != nil {
		return err
	}
	solver, err := a.Address("solver")
	if err != nil {
		return err
	}
	depositAmount, err := a.BigInt("deposit_amount")
	if err != nil {
		return err
	}

	cur, err := i.currentIntent(ctx, db, instance, intentID)
	if err != nil {
		return err
	}

	if err := store.InsertLedger(ctx, db, &dao.IntentClaimedLedger{
		EventSeq:        ev.EventSeq,
		ChainID:         instance.ChainID,
		ContractAddress: instance.ContractAddress.Bytes(),
		IntentID:        intentID,
		Solver:          solver.Bytes(),
		DepositAmount:   depositAmount.String(),
		BlockTimestamp:  ev.BlockTimestamp,
	}); err != nil {
		return err
	}

	claimedAt := ev.BlockTimestamp
	return i.reviseIntent(ctx, db, instance, ev, cur, func(next *dao.Intent) {
		next.Solver = solver.Bytes()
		next.SolverClaimedAt = &claimedAt
	})
}

func (i *Interpreter) applyIntentUnclaimed(ctx context.Context, db bun.IDB, instance engine.InstanceKey, ev *engine.Event, a engine.Args) error {
	intentID, err := a.String("id")
	if err != nil {
		return err
	}
	caller, err := a.Address("caller")
	if err != nil {
		return err
	}
	prevSolver, err := a.Address("prev_solver")
	if err != nil {
		return err
	}
	funded, err := a.Bool("funded")
	if err != nil {
		return err
	}
	depositToCaller, err := a.BigInt("deposit_to_caller")
	if err != nil {
		return err
	}
	depositToRefundBeneficiary, err := a.BigInt("deposit_to_refund_beneficiary")
	if err != nil {
		return err
	}
	depositToPrevSolver, err := a.BigInt("deposit_to_prev_solver")
	if err != nil {
		return err
	}

	cur, err := i.currentIntent(ctx, db, instance, intentID)
	if err != nil {
		return err
	}

	if err := store.InsertLedger(ctx, db, &dao.IntentUnclaimedLedger{
		EventSeq:                   ev.EventSeq,
		ChainID:                    instance.ChainID,
		ContractAddress:            instance.ContractAddress.Bytes(),
		IntentID:                   intentID,
		Caller:                     caller.Bytes(),
		PrevSolver:                 prevSolver.Bytes(),
		Funded:                     funded,
		DepositToCaller:            depositToCaller.String(),
		DepositToRefundBeneficiary: depositToRefundBeneficiary.String(),
		DepositToPrevSolver:        depositToPrevSolver.String(),
		BlockTimestamp:             ev.BlockTimestamp,
	}); err != nil {
		return err
	}

	return i.reviseIntent(ctx, db, instance, ev, cur, func(next *dao.Intent) {
		next.Solver = nil
		next.SolverClaimedAt = nil
	})
}

func (i *Interpreter) applyIntentSolved(ctx context.Context, db bun.IDB, instance engine.InstanceKey, ev *engine.Event, a engine.Args) error {
	intentID, err := a.String("id")
	if err != nil {
		return err
	}
	solver, err := a.Address("solver")
	if err != nil {
		return err
	}
	tronTxID, err := a.String("tron_tx_id")
	if err != nil {
		return err
	}
	tronBlockNumber, err := a.Uint64("tron_block_number")
	if err != nil {
		return err
	}

	cur, err := i.currentIntent(ctx, db, instance, intentID)
	if err != nil {
		return err
	}

	if err := store.InsertLedger(ctx, db, &dao.IntentSolvedLedger{
		EventSeq:        ev.EventSeq,
		ChainID:         instance.ChainID,
		ContractAddress: instance.ContractAddress.Bytes(),
		IntentID:        intentID,
		Solver:          solver.Bytes(),
		TronTxID:        tronTxID,
		TronBlockNumber: tronBlockNumber,
		BlockTimestamp:  ev.BlockTimestamp,
	}); err != nil {
		return err
	}

	claimedAt := ev.BlockTimestamp
	return i.reviseIntent(ctx, db, instance, ev, cur, func(next *dao.Intent) {
		next.Solved = true
		next.Solver = solver.Bytes()
		next.SolverClaimedAt = &claimedAt
		next.TronTxID = &tronTxID
		next.TronBlockNumber = &tronBlockNumber
	})
}

func (i *Interpreter) applyIntentFunded(ctx context.Context, db bun.IDB, instance engine.InstanceKey, ev *engine.Event, a engine.Args) error {
	intentID, err := a.String("id")
	if err != nil {
		return err
	}
	funder, err := a.Address("funder")
	if err != nil {
		return err
	}
	token, err := a.Address("token")
	if err != nil {
		return err
	}
	amount, err := a.BigInt("amount")
	if err != nil {
		return err
	}

	cur, err := i.currentIntent(ctx, db, instance, intentID)
	if err != nil {
		return err
	}

	if err := store.InsertLedger(ctx, db, &dao.IntentFundedLedger{
		EventSeq:        ev.EventSeq,
		ChainID:         instance.ChainID,
		ContractAddress: instance.ContractAddress.Bytes(),
		IntentID:        intentID,
		Funder:          funder.Bytes(),
		Token:           token.Bytes(),
		Amount:          amount.String(),
		BlockTimestamp:  ev.BlockTimestamp,
	}); err != nil {
		return err
	}

	if cur.Funded {
		// idempotent on duplicate: no version churn
		return nil
	}
	return i.reviseIntent(ctx, db, instance, ev, cur, func(next *dao.Intent) {
		next.Funded = true
	})
}

func (i *Interpreter) applyIntentSettled(ctx context.Context, db bun.IDB, instance engine.InstanceKey, ev *engine.Event, a engine.Args) error {
	intentID, err := a.String("id")
	if err != nil {
		return err
	}
	solver, err := a.Address("solver")
	if err != nil {
		return err
	}
	escrowToken, err := a.Address("escrow_token")
	if err != nil {
		return err
	}
	escrowAmount, err := a.BigInt("escrow_amount")
	if err != nil {
		return err
	}
	depositToken, err := a.Address("deposit_token")
	if err != nil {
		return err
	}
	depositAmount, err := a.BigInt("deposit_amount")
	if err != nil {
		return err
	}

	cur, err := i.currentIntent(ctx, db, instance, intentID)
	if err != nil {
		return err
	}

	if err := store.InsertLedger(ctx, db, &dao.IntentSettledLedger{
		EventSeq:        ev.EventSeq,
		ChainID:         instance.ChainID,
		ContractAddress: instance.ContractAddress.Bytes(),
		IntentID:        intentID,
		Solver:          solver.Bytes(),
		EscrowToken:     escrowToken.Bytes(),
		EscrowAmount:    escrowAmount.String(),
		DepositToken:    depositToken.Bytes(),
		DepositAmount:   depositAmount.String(),
		BlockTimestamp:  ev.BlockTimestamp,
	}); err != nil {
		return err
	}

	if cur.Settled {
		return nil
	}
	return i.reviseIntent(ctx, db, instance, ev, cur, func(next *dao.Intent) {
		next.Settled = true
	})
}

func (i *Interpreter) applyIntentClosed(ctx context.Context, db bun.IDB, instance engine.InstanceKey, ev *engine.Event, a engine.Args) error {
	intentID, err := a.String("id")
	if err != nil {
		return err
	}
	caller, err := a.Address("caller")
	if err != nil {
		return err
	}
	solved, err := a.Bool("solved")
	if err != nil {
		return err
	}
	funded, err := a.Bool("funded")
	if err != nil {
		return err
	}
	settled, err := a.Bool("settled")
	if err != nil {
		return err
	}
	refundBeneficiary, err := a.Address("refund_beneficiary")
	if err != nil {
		return err
	}
	escrowToken, err := a.Address("escrow_token")
	if err != nil {
		return err
	}
	escrowRefunded, err := a.BigInt("escrow_refunded")
	if err != nil {
		return err
	}
	depositToken, err := a.Address("deposit_token")
	if err != nil {
		return err
	}
	depositToCaller, err := a.BigInt("deposit_to_caller")
	if err != nil {
		return err
	}
	depositToRefundBeneficiary, err := a.BigInt("deposit_to_refund_beneficiary")
	if err != nil {
		return err
	}
	depositToSolver, err := a.BigInt("deposit_to_solver")
	if err != nil {
		return err
	}

	cur, err := i.currentIntent(ctx, db, instance, intentID)
	if err != nil {
		return err
	}

	if err := store.InsertLedger(ctx, db, &dao.IntentClosedLedger{
		EventSeq:                   ev.EventSeq,
		ChainID:                    instance.ChainID,
		ContractAddress:            instance.ContractAddress.Bytes(),
		IntentID:                   intentID,
		Caller:                     caller.Bytes(),
		Solved:                     solved,
		Funded:                     funded,
		Settled:                    settled,
		RefundBeneficiary:          refundBeneficiary.Bytes(),
		EscrowToken:                escrowToken.Bytes(),
		EscrowRefunded:             escrowRefunded.String(),
		DepositToken:               depositToken.Bytes(),
		DepositToCaller:            depositToCaller.String(),
		DepositToRefundBeneficiary: depositToRefundBeneficiary.String(),
		DepositToSolver:            depositToSolver.String(),
		BlockTimestamp:             ev.BlockTimestamp,
	}); err != nil {
		return err
	}

	return i.reviseIntent(ctx, db, instance, ev, cur, func(next *dao.Intent) {
		next.Solver = nil
		next.SolverClaimedAt = nil
		next.Solved = solved
		next.Funded = funded
		next.Settled = settled
		next.Closed = true
	})
}
