package engine

import (
	"encoding/hex"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Args gives typed access to an Event's decoded argument map, raising
// KindMissingArg errors with the originating instance/seq attached instead
// of forcing every interpreter to repeat that boilerplate.
type Args struct {
	Instance InstanceKey
	EventSeq uint64
	Values   map[string]any
}

func (a Args) missing(name string) error {
	return MissingArgError(a.Instance, a.EventSeq, name)
}

// String returns args[name] as a string.
func (a Args) String(name string) (string, error) {
	v, ok := a.Values[name]
	if !ok {
		return "", a.missing(name)
	}
	s, ok := v.(string)
	if !ok {
		return "", a.missing(name)
	}
	return s, nil
}

// OptionalString returns args[name] as a string, or "" if absent.
func (a Args) OptionalString(name string) string {
	v, ok := a.Values[name]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Address returns args[name] parsed as a hex-encoded common.Address.
func (a Args) Address(name string) (common.Address, error) {
	s, err := a.String(name)
	if err != nil {
		return common.Address{}, err
	}
	if !common.IsHexAddress(s) {
		return common.Address{}, a.missing(name)
	}
	return common.HexToAddress(s), nil
}

// Hash returns args[name] parsed as a hex-encoded common.Hash.
func (a Args) Hash(name string) (common.Hash, error) {
	s, err := a.String(name)
	if err != nil {
		return common.Hash{}, err
	}
	if len(s) < 2 || s[:2] != "0x" {
		return common.Hash{}, a.missing(name)
	}
	return common.HexToHash(s), nil
}

// Bytes returns args[name] parsed as hex-encoded bytes, preserving leading
// zero bytes (unlike a big.Int round-trip, which would drop them).
func (a Args) Bytes(name string) ([]byte, error) {
	s, err := a.String(name)
	if err != nil {
		return nil, err
	}
	trimmed := trimHexPrefix(s)
	if trimmed == "" {
		return []byte{}, nil
	}
	if len(trimmed)%2 != 0 {
		trimmed = "0" + trimmed
	}
	b, err := hex.DecodeString(trimmed)
	if err != nil {
		return nil, a.missing(name)
	}
	return b, nil
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

// BigInt returns args[name] parsed as a decimal-string-encoded *big.Int,
// the convention used for uint256 event arguments.
func (a Args) BigInt(name string) (*big.Int, error) {
	s, err := a.String(name)
	if err != nil {
		return nil, err
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, a.missing(name)
	}
	return n, nil
}

// Uint64 returns args[name] as a uint64, accepting either a JSON number or
// a decimal string.
func (a Args) Uint64(name string) (uint64, error) {
	v, ok := a.Values[name]
	if !ok {
		return 0, a.missing(name)
	}
	switch t := v.(type) {
	case float64:
		if t < 0 {
			return 0, a.missing(name)
		}
		return uint64(t), nil
	case string:
		n, ok := new(big.Int).SetString(t, 10)
		if !ok || !n.IsUint64() {
			return 0, a.missing(name)
		}
		return n.Uint64(), nil
	default:
		return 0, a.missing(name)
	}
}

// Bool returns args[name] as a bool.
func (a Args) Bool(name string) (bool, error) {
	v, ok := a.Values[name]
	if !ok {
		return false, a.missing(name)
	}
	b, ok := v.(bool)
	if !ok {
		return false, a.missing(name)
	}
	return b, nil
}

// IntentType returns args[name] as an int, validated against allowed, returning
// KindInvalidIntentType when it parses but is out of range. Used for
// intent_type, which has its own error Kind rather than the generic
// MissingArg.
func (a Args) IntentType(name string, allowed ...int) (int, error) {
	v, err := a.Uint64(name)
	if err != nil {
		return 0, err
	}
	n := int(v)
	for _, ok := range allowed {
		if ok == n {
			return n, nil
		}
	}
	return 0, InvalidIntentTypeError(a.Instance, a.EventSeq, n)
}
