// Command oracle-report is the host-side orchestrator for OracleEngine
// (spec §4.6): outside the prover, it fetches the Beacon block/state via
// a provers.Fetcher, builds an OracleInput with input.Builder, and —
// standing in for the out-of-scope zk-VM prover itself (spec §1) — runs
// the engine on it directly so the CLI is independently useful for dry
// runs against a fixture directory. It writes the ABI-encoded journal;
// it does not encode the input for the guest.
package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/risc0-labs/risc0-lido-accounting-oracle/config"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/input"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/oracle"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/provers"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/receipt"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/report"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/wire"
)

func main() {
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg := config.NewRunConfig(os.Args[1:]...)
	chainSpec, err := cfg.ChainSpec()
	if err != nil {
		log.Fatal().Err(err).Msg("resolving chain spec")
	}

	fetcher := resolveFetcher(cfg)
	builder := &input.Builder{Fetcher: fetcher}

	cont, err := loadContinuation(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("loading prior continuation state")
	}

	var programID [32]byte
	copy(programID[:], cfg.ProgramID)
	ctx := context.Background()

	log.Info().Uint64("slot", cfg.Slot).Bool("continuation", cont != nil).Msg("building oracle input")
	in, err := builder.BuildOracleInput(ctx, programID, cfg.Slot, cont, chainSpec.WithdrawalCredentials, report.Commitment{})
	if err != nil {
		log.Fatal().Err(err).Msg("building oracle input")
	}

	e := oracle.Engine{}
	journal, err := e.GenerateOracleReport(*in, &chainSpec)
	if err != nil {
		log.Fatal().Err(err).Msg("generating oracle report")
	}
	log.Info().
		Uint64("cl_balance_gwei", journal.CLBalanceGwei).
		Uint64("total_deposited_validators", journal.TotalDepositedValidators).
		Uint64("total_exited_validators", journal.TotalExitedValidators).
		Msg("oracle report generated")

	abiBytes, err := wire.EncodeOracleJournalABI(journal)
	if err != nil {
		log.Fatal().Err(err).Msg("ABI-encoding oracle journal")
	}
	if err := os.WriteFile(cfg.OutPath, abiBytes, 0o644); err != nil {
		log.Fatal().Err(err).Str("path", cfg.OutPath).Msg("writing oracle journal")
	}
	log.Info().Str("path", cfg.OutPath).Msg("wrote oracle journal")
}

func resolveFetcher(cfg *config.RunConfig) provers.Fetcher {
	if _, err := os.Stat(cfg.FetchFrom); err == nil {
		return provers.NewFileFetcher(cfg.FetchFrom)
	}
	return provers.NewAPIFetcher(cfg.FetchFrom)
}

// loadContinuation reads a persisted wire.ContinuationState from
// RootDir/continuation.bin, if present, and reconstructs a
// report.Continuation for BuildOracleInput, classifying its
// ContinuationType by the current/prior slot distance (spec §4.5)
// rather than trusting a stale stored classification.
func loadContinuation(cfg *config.RunConfig) (*report.Continuation, error) {
	if cfg.PriorSlot == 0 {
		return nil, nil
	}
	data, err := os.ReadFile(cfg.RootDir + "/continuation.bin")
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	state, err := wire.DecodeContinuationState(data)
	if err != nil {
		return nil, err
	}
	return &report.Continuation{
		Type:                   report.ClassifyContinuation(state.PriorSlot, cfg.Slot),
		PriorStateRoot:         state.PriorStateRoot,
		PriorSlot:              state.PriorSlot,
		PriorMaxValidatorIndex: state.PriorMaxValidatorIndex,
		PriorMembership:        state.PriorMembership,
		PriorReceipt:           receipt.NewZkVM(state.PriorReceiptBytes, nil),
	}, nil
}
