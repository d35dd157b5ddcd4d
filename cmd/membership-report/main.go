// Command membership-report is the host-side orchestrator for
// MembershipEngine (spec §4.5): fetches Beacon state via a
// provers.Fetcher, builds a MembershipInput with input.Builder, and —
// standing in for the out-of-scope zk-VM prover (spec §1) — runs the
// engine on it directly so the CLI is independently useful for dry runs
// against a fixture directory. It writes the encoded journal and the
// continuation state; it does not encode the input for the guest.
package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/risc0-labs/risc0-lido-accounting-oracle/config"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/input"
	"github.com/risc0-labs/risc0-lido-accounting-oracle/membership"
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

	log.Info().Uint64("slot", cfg.Slot).Bool("continuation", cont != nil).Msg("building membership input")
	in, err := builder.BuildMembershipInput(ctx, programID, cfg.Slot, cont)
	if err != nil {
		log.Fatal().Err(err).Msg("building membership input")
	}

	e := membership.Engine{}
	journal, err := e.UpdateMembership(*in, chainSpec.WithdrawalCredentials)
	if err != nil {
		log.Fatal().Err(err).Msg("updating membership")
	}
	log.Info().
		Uint64("max_validator_index", journal.MaxValidatorIndex).
		Msg("membership report generated")

	out := journal.Encode()
	if err := os.WriteFile(cfg.OutPath, out, 0o644); err != nil {
		log.Fatal().Err(err).Str("path", cfg.OutPath).Msg("writing membership journal")
	}
	log.Info().Str("path", cfg.OutPath).Msg("wrote membership journal")

	state := &wire.ContinuationState{
		PriorStateRoot:         journal.StateRoot,
		PriorSlot:              cfg.Slot,
		PriorMaxValidatorIndex: journal.MaxValidatorIndex,
		PriorMembership:        journal.Membership,
		PriorReceiptBytes:      out,
	}
	if err := os.WriteFile(cfg.RootDir+"/continuation.bin", wire.EncodeContinuationState(state), 0o644); err != nil {
		log.Fatal().Err(err).Msg("persisting continuation state")
	}
}

func resolveFetcher(cfg *config.RunConfig) provers.Fetcher {
	if _, err := os.Stat(cfg.FetchFrom); err == nil {
		return provers.NewFileFetcher(cfg.FetchFrom)
	}
	return provers.NewAPIFetcher(cfg.FetchFrom)
}

// loadContinuation mirrors cmd/oracle-report's: read persisted state,
// reclassify by the current (prior_slot, slot) distance rather than
// trusting a stored ContinuationType.
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
