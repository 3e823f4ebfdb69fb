package ingest

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// poolEventsJSON and forwarderEventsJSON are hand-maintained ABI fragments
// covering only the events the pool and forwarder interpreters consume.
// This stands in for a generated contracts.PoolMetaData/ForwarderMetaData
// binding, declared directly rather than through abigen codegen.
const poolEventsJSON = `[
  {"type":"event","name":"OwnershipTransferred","inputs":[
    {"name":"old_owner","type":"address"},{"name":"new_owner","type":"address"}]},
  {"type":"event","name":"RecommendedIntentFeeSet","inputs":[
    {"name":"fee_ppm","type":"uint64"},{"name":"fee_flat","type":"uint256"}]},
  {"type":"event","name":"ReceiverIntentParams","inputs":[
    {"name":"id","type":"bytes32"},{"name":"forwarder","type":"address"},
    {"name":"to_tron","type":"address"},{"name":"forward_salt","type":"bytes32"},
    {"name":"token","type":"address"},{"name":"amount","type":"uint256"}]},
  {"type":"event","name":"ReceiverIntentFeeSnap","inputs":[
    {"name":"id","type":"bytes32"},{"name":"fee_ppm","type":"uint64"},
    {"name":"fee_flat","type":"uint256"},{"name":"tron_payment_amount","type":"uint256"}]},
  {"type":"event","name":"IntentCreated","inputs":[
    {"name":"id","type":"bytes32"},{"name":"creator","type":"address"},
    {"name":"intent_type","type":"uint8"},{"name":"token","type":"address"},
    {"name":"amount","type":"uint256"},{"name":"refund_beneficiary","type":"address"},
    {"name":"deadline","type":"uint64"},{"name":"intent_specs","type":"bytes"}]},
  {"type":"event","name":"IntentClaimed","inputs":[
    {"name":"id","type":"bytes32"},{"name":"solver","type":"address"},
    {"name":"deposit_amount","type":"uint256"}]},
  {"type":"event","name":"IntentUnclaimed","inputs":[
    {"name":"id","type":"bytes32"},{"name":"caller","type":"address"},
    {"name":"prev_solver","type":"address"},{"name":"funded","type":"bool"},
    {"name":"deposit_to_caller","type":"uint256"},
    {"name":"deposit_to_refund_beneficiary","type":"uint256"},
    {"name":"deposit_to_prev_solver","type":"uint256"}]},
  {"type":"event","name":"IntentSolved","inputs":[
    {"name":"id","type":"bytes32"},{"name":"solver","type":"address"},
    {"name":"tron_tx_id","type":"string"},{"name":"tron_block_number","type":"uint64"}]},
  {"type":"event","name":"IntentFunded","inputs":[
    {"name":"id","type":"bytes32"},{"name":"funder","type":"address"},
    {"name":"token","type":"address"},{"name":"amount","type":"uint256"}]},
  {"type":"event","name":"IntentSettled","inputs":[
    {"name":"id","type":"bytes32"},{"name":"solver","type":"address"},
    {"name":"escrow_token","type":"address"},{"name":"escrow_amount","type":"uint256"},
    {"name":"deposit_token","type":"address"},{"name":"deposit_amount","type":"uint256"}]},
  {"type":"event","name":"IntentClosed","inputs":[
    {"name":"id","type":"bytes32"},{"name":"caller","type":"address"},
    {"name":"solved","type":"bool"},{"name":"funded","type":"bool"},{"name":"settled","type":"bool"},
    {"name":"refund_beneficiary","type":"address"},{"name":"escrow_token","type":"address"},
    {"name":"escrow_refunded","type":"uint256"},{"name":"deposit_token","type":"address"},
    {"name":"deposit_to_caller","type":"uint256"},
    {"name":"deposit_to_refund_beneficiary","type":"uint256"},
    {"name":"deposit_to_solver","type":"uint256"}]}
]`

const forwarderEventsJSON = `[
  {"type":"event","name":"OwnershipTransferred","inputs":[
    {"name":"old_owner","type":"address"},{"name":"new_owner","type":"address"}]},
  {"type":"event","name":"BridgersSet","inputs":[
    {"name":"usdt_bridger","type":"address"},{"name":"usdc_bridger","type":"address"}]},
  {"type":"event","name":"QuoterSet","inputs":[
    {"name":"token_in","type":"address"},{"name":"quoter","type":"address"}]},
  {"type":"event","name":"ReceiverDeployed","inputs":[
    {"name":"receiver_salt","type":"bytes32"},{"name":"receiver","type":"address"},
    {"name":"implementation","type":"address"}]},
  {"type":"event","name":"ForwardStarted","inputs":[
    {"name":"forward_id","type":"bytes32"},{"name":"base_receiver_salt","type":"bytes32"},
    {"name":"forward_salt","type":"bytes32"},{"name":"intent_hash","type":"bytes32"},
    {"name":"target_chain","type":"uint64"},{"name":"beneficiary","type":"address"},
    {"name":"beneficiary_claim_only","type":"bool"},{"name":"balance_param","type":"uint256"},
    {"name":"token_in","type":"address"},{"name":"token_out","type":"address"},
    {"name":"receiver_used","type":"address"},{"name":"ephemeral_receiver","type":"bool"}]},
  {"type":"event","name":"ForwardCompleted","inputs":[
    {"name":"forward_id","type":"bytes32"},{"name":"ephemeral","type":"bool"},
    {"name":"amount_pulled","type":"uint256"},{"name":"amount_forwarded","type":"uint256"},
    {"name":"relayer_rebate","type":"uint256"},{"name":"msg_value_refunded","type":"uint256"},
    {"name":"settled_locally","type":"bool"},{"name":"bridger","type":"address"},
    {"name":"expected_bridge_out","type":"uint256"},{"name":"bridge_data_hash","type":"bytes32"}]},
  {"type":"event","name":"SwapExecuted","inputs":[
    {"name":"forward_id","type":"bytes32"},{"name":"token_in","type":"address"},
    {"name":"token_out","type":"address"},{"name":"min_out","type":"uint256"},
    {"name":"actual_out","type":"uint256"}]},
  {"type":"event","name":"BridgeInitiated","inputs":[
    {"name":"forward_id","type":"bytes32"},{"name":"bridger","type":"address"},
    {"name":"token_out","type":"address"},{"name":"amount_in","type":"uint256"},
    {"name":"target_chain","type":"uint64"}]}
]`

// eventSet wraps a parsed ABI so logs can be matched by topic0 and unpacked
// into a name->value map keyed the way engine.Args expects.
type eventSet struct {
	abi    abi.ABI
	byName map[string]abi.Event
}

func mustEventSet(jsonStr string) *eventSet {
	parsed, err := abi.JSON(strings.NewReader(jsonStr))
	if err != nil {
		panic(err)
	}
	byName := make(map[string]abi.Event, len(parsed.Events))
	for name, ev := range parsed.Events {
		byName[name] = ev
	}
	return &eventSet{abi: parsed, byName: byName}
}

var (
	poolEvents      = mustEventSet(poolEventsJSON)
	forwarderEvents = mustEventSet(forwarderEventsJSON)
)
