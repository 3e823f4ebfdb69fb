package ingest

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
)

// decodeLog finds the event in set matching log's topic0 and unpacks its
// data into the string-keyed argument map engine.Args expects: addresses
// and hashes as 0x-hex, uint256/uint64 as decimal strings, bytes as 0x-hex,
// bool and string passed through natively.
func decodeLog(set *eventSet, log gethtypes.Log) (eventType string, args map[string]any, ok bool, err error) {
	if len(log.Topics) == 0 {
		return "", nil, false, nil
	}
	ev, err := set.abi.EventByID(log.Topics[0])
	if err != nil {
		return "", nil, false, nil
	}

	values, err := ev.Inputs.Unpack(log.Data)
	if err != nil {
		return "", nil, false, fmt.Errorf("unpacking %s: %w", ev.Name, err)
	}

	out := make(map[string]any, len(values))
	for i, input := range ev.Inputs {
		if i >= len(values) {
			break
		}
		out[input.Name] = normalizeArg(values[i])
	}
	return ev.Name, out, true, nil
}

func normalizeArg(v any) any {
	switch t := v.(type) {
	case common.Address:
		return t.Hex()
	case [32]byte:
		return common.Hash(t).Hex()
	case []byte:
		return "0x" + common.Bytes2Hex(t)
	case *big.Int:
		return t.String()
	case uint64:
		return fmt.Sprintf("%d", t)
	case uint8:
		return fmt.Sprintf("%d", t)
	case bool, string:
		return t
	default:
		return fmt.Sprintf("%v", t)
	}
}
