package pool

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestTronBase58_Deterministic(t *testing.T) {
	addr := common.HexToAddress("0x1234567890123456789012345678901234567890")

	got := tronBase58(addr)
	again := tronBase58(addr)
	require.Equal(t, got, again, "tronBase58 should be deterministic")
	require.NotEmpty(t, got)
}

func TestTronBase58_DifferentAddressesDiffer(t *testing.T) {
	a := tronBase58(common.HexToAddress("0x0000000000000000000000000000000000000001"))
	b := tronBase58(common.HexToAddress("0x0000000000000000000000000000000000000002"))
	require.NotEqual(t, a, b, "distinct addresses should encode distinctly")
}
