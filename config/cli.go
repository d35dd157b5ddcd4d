package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/risc0-labs/risc0-lido-accounting-oracle/types"
)

// RunConfig holds the settings a host cmd/ orchestrator needs: which
// Beacon node/fixture dir to fetch from, which slot to report on, and
// where to write the resulting encoded journal. Parsed the same
// environment-variable-with-flag-override way the teacher's own
// relayer Config does (provers/types/config.go's NewConfig), adapted
// from a light-client-update poller's config to a report builder's.
type RunConfig struct {
	RootDir   string
	FetchFrom string
	Slot      uint64
	PriorSlot uint64
	OutPath   string
	Network   string
	ProgramID types.HexBytes
}

// NewRunConfig parses args the same way the teacher's NewConfig does:
// environment variables seed the defaults, then "--flag value" pairs
// override them in order.
func NewRunConfig(args ...string) *RunConfig {
	cfg := &RunConfig{
		RootDir:   getEnv("ROOT", "."),
		FetchFrom: getEnv("FETCH_FROM", "https://lodestar-mainnet.chainsafe.io/"),
		Slot:      0,
		PriorSlot: 0,
		OutPath:   getEnv("OUT", "report.bin"),
		Network:   getEnv("NETWORK", "mainnet"),
	}

	for i := 0; i < len(args); i++ {
		if len(args) <= i+1 {
			panic(fmt.Errorf("config: missing argument for %s", args[i]))
		}
		switch args[i] {
		case "--slot":
			cfg.Slot, _ = strconv.ParseUint(args[i+1], 10, 64)
			i++
		case "--prior-slot":
			cfg.PriorSlot, _ = strconv.ParseUint(args[i+1], 10, 64)
			i++
		case "--root":
			cfg.RootDir = args[i+1]
			i++
		case "--fetch-from":
			cfg.FetchFrom = args[i+1]
			i++
		case "--out":
			cfg.OutPath = args[i+1]
			i++
		case "--network":
			cfg.Network = args[i+1]
			i++
		case "--program-id":
			bz, err := types.HexToBytes(args[i+1])
			if err != nil {
				panic(fmt.Errorf("config: parsing --program-id: %w", err))
			}
			cfg.ProgramID = bz
			i++
		}
	}

	return cfg
}

// ChainSpec resolves the configured network name to its ChainSpec.
func (c *RunConfig) ChainSpec() (ChainSpec, error) {
	switch c.Network {
	case "mainnet":
		return Mainnet, nil
	case "sepolia":
		return Sepolia, nil
	default:
		return ChainSpec{}, fmt.Errorf("config: unknown network %q", c.Network)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
