// Command indexer-admin exposes the operator-facing configure_instance
// operation: registering a new (stream, chain_id, contract_address)
// projection instance with its genesis tip.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/untron/intents-indexer/pkg/config"
	"github.com/untron/intents-indexer/pkg/engine"
	"github.com/untron/intents-indexer/pkg/pgutil"
	"github.com/untron/intents-indexer/pkg/store"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	stream := flag.String("stream", "", "stream type: pool or forwarder")
	chainID := flag.Uint64("chain-id", 0, "chain id of the contract")
	contract := flag.String("contract", "", "contract address (0x-hex)")
	genesisTip := flag.String("genesis-tip", "", "genesis tip hash (0x-hex)")
	flag.Parse()

	if err := run(*configPath, *stream, *chainID, *contract, *genesisTip); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath, streamFlag string, chainID uint64, contractFlag, genesisTipFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("setting up logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	var stream engine.StreamType
	switch streamFlag {
	case "pool":
		stream = engine.StreamPool
	case "forwarder":
		stream = engine.StreamForwarder
	default:
		return fmt.Errorf("stream must be 'pool' or 'forwarder', got %q", streamFlag)
	}

	if chainID == 0 {
		return fmt.Errorf("chain-id is required")
	}
	if !common.IsHexAddress(contractFlag) {
		return fmt.Errorf("contract must be a 0x-hex address, got %q", contractFlag)
	}
	if len(genesisTipFlag) < 2 || genesisTipFlag[:2] != "0x" {
		return fmt.Errorf("genesis-tip must be a 0x-hex hash, got %q", genesisTipFlag)
	}

	db, err := pgutil.ConnectDB(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer func() { _ = db.Close() }()

	registry := store.NewRegistry(db)
	instance := engine.InstanceKey{
		Stream:          stream,
		ChainID:         chainID,
		ContractAddress: common.HexToAddress(contractFlag),
	}
	genesisTip := common.HexToHash(genesisTipFlag)

	if err := registry.ConfigureInstance(context.Background(), instance, genesisTip); err != nil {
		return fmt.Errorf("configuring instance: %w", err)
	}

	logger.Info("instance configured",
		zap.Stringer("instance", instance),
		zap.Stringer("genesis_tip", genesisTip),
	)
	return nil
}
