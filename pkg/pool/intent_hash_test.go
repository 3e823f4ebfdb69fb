package pool

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestComputeIntentHash_Deterministic(t *testing.T) {
	forwarder := common.HexToAddress("0x1111111111111111111111111111111111111111")
	toTron := common.HexToAddress("0x2222222222222222222222222222222222222222")

	h1, err := computeIntentHash(forwarder, toTron)
	require.NoError(t, err)
	h2, err := computeIntentHash(forwarder, toTron)
	require.NoError(t, err)
	require.Equal(t, h1, h2, "computeIntentHash should be deterministic")

	h3, err := computeIntentHash(toTron, forwarder)
	require.NoError(t, err)
	require.NotEqual(t, h1, h3, "argument order should affect the hash")
}
