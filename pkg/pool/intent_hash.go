package pool

import (
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var intentHashArgs = mustArguments("address", "address")

func mustArguments(types ...string) abi.Arguments {
	args := make(abi.Arguments, 0, len(types))
	for _, t := range types {
		ty, err := abi.NewType(t, "", nil)
		if err != nil {
			panic(err)
		}
		args = append(args, abi.Argument{Type: ty})
	}
	return args
}

// computeIntentHash reproduces the on-chain keccak256(abi.encode(forwarder,
// to_tron_evm)) computation so ReceiverIntentParams rows carry the same
// intent_hash the contract derives.
func computeIntentHash(forwarder, toTronEVM common.Address) (common.Hash, error) {
	packed, err := intentHashArgs.Pack(forwarder, toTronEVM)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(packed), nil
}
