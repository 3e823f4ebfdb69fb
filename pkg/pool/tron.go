package pool

import (
	"crypto/sha256"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

const tronAddressPrefix = 0x41

var base58Alphabet = []byte("123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz")

// tronBase58 encodes an EVM-form Tron address (the 20-byte value emitted by
// the contract as to_tron_evm) as a Tron base58check address: prefix byte
// 0x41, the 20 address bytes, then a 4-byte double-SHA256 checksum, all
// base58-encoded. No third-party Tron address library exists in the
// retrieved examples, so the alphabet and checksum are implemented here
// directly (see DESIGN.md).
func tronBase58(evmAddr common.Address) string {
	payload := make([]byte, 0, 25)
	payload = append(payload, tronAddressPrefix)
	payload = append(payload, evmAddr.Bytes()...)

	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	payload = append(payload, second[:4]...)

	return base58Encode(payload)
}

func base58Encode(input []byte) string {
	zero := base58Alphabet[0]

	x := new(big.Int).SetBytes(input)
	mod := new(big.Int)
	base := big.NewInt(int64(len(base58Alphabet)))

	var out []byte
	for x.Sign() > 0 {
		x.DivMod(x, base, mod)
		out = append(out, base58Alphabet[mod.Int64()])
	}

	// leading zero bytes in input become leading '1's in the encoding
	for _, b := range input {
		if b != 0 {
			break
		}
		out = append(out, zero)
	}

	reverse(out)
	return string(out)
}

func reverse(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}
