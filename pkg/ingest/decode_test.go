package ingest

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
)

func mustPack(t *testing.T, ev abi.Event, args ...any) []byte {
	t.Helper()
	data, err := ev.Inputs.Pack(args...)
	require.NoError(t, err, "packing %s args", ev.Name)
	return data
}

func TestDecodeLog_OwnershipTransferred(t *testing.T) {
	ev := poolEvents.byName["OwnershipTransferred"]
	oldOwner := common.HexToAddress("0x0000000000000000000000000000000000000001")
	newOwner := common.HexToAddress("0x0000000000000000000000000000000000000002")

	log := gethtypes.Log{
		Topics: []common.Hash{ev.ID},
		Data:   mustPack(t, ev, oldOwner, newOwner),
	}

	eventType, args, ok, err := decodeLog(poolEvents, log)
	require.NoError(t, err)
	require.True(t, ok, "expected ok=true for a known event")
	require.Equal(t, "OwnershipTransferred", eventType)
	require.Equal(t, oldOwner.Hex(), args["old_owner"])
	require.Equal(t, newOwner.Hex(), args["new_owner"])
}

func TestDecodeLog_UnknownTopic(t *testing.T) {
	log := gethtypes.Log{
		Topics: []common.Hash{common.HexToHash("0xdeadbeef")},
		Data:   nil,
	}

	_, _, ok, err := decodeLog(poolEvents, log)
	require.NoError(t, err)
	require.False(t, ok, "expected ok=false for an unrecognized topic")
}

func TestDecodeLog_NoTopics(t *testing.T) {
	_, _, ok, err := decodeLog(poolEvents, gethtypes.Log{})
	require.NoError(t, err)
	require.False(t, ok, "expected ok=false with no topics")
}

func TestDecodeLog_IntentCreated_BigIntAndBytes(t *testing.T) {
	ev := poolEvents.byName["IntentCreated"]
	id := [32]byte{1, 2, 3}
	creator := common.HexToAddress("0x0000000000000000000000000000000000000003")
	token := common.HexToAddress("0x0000000000000000000000000000000000000004")
	refundBeneficiary := common.HexToAddress("0x0000000000000000000000000000000000000005")
	amount := big.NewInt(1_000_000)
	specs := []byte{0xAA, 0xBB}

	log := gethtypes.Log{
		Topics: []common.Hash{ev.ID},
		Data:   mustPack(t, ev, id, creator, uint8(1), token, amount, refundBeneficiary, uint64(42), specs),
	}

	_, args, ok, err := decodeLog(poolEvents, log)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "1000000", args["amount"], "expected amount as decimal string")
	require.Equal(t, "1", args["intent_type"], "expected intent_type as decimal string")

	got, ok := args["intent_specs"].(string)
	require.True(t, ok, "expected intent_specs as a string")
	require.True(t, strings.HasPrefix(got, "0x"), "expected intent_specs as 0x-hex string, got %v", got)
}

func TestDecodeLog_ForwarderEvents(t *testing.T) {
	ev := forwarderEvents.byName["QuoterSet"]
	tokenIn := common.HexToAddress("0x0000000000000000000000000000000000000006")
	quoter := common.HexToAddress("0x0000000000000000000000000000000000000007")

	log := gethtypes.Log{
		Topics: []common.Hash{ev.ID},
		Data:   mustPack(t, ev, tokenIn, quoter),
	}

	eventType, args, ok, err := decodeLog(forwarderEvents, log)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "QuoterSet", eventType)
	require.Equal(t, quoter.Hex(), args["quoter"])
}
