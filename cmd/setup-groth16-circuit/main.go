// Command setup-groth16-circuit compiles the Groth16 report-witness
// circuit (receipt.WitnessCircuit) and writes its constraint system,
// proving key, and verifying key to disk, plus a Solidity verifier
// contract — the same three-artifact layout the teacher's own circuit
// setup produced, retargeted from ScUpdateVerifierCircuit to the
// generic report-receipt witness this codebase's Groth16 backend uses.
package main

import (
	"bytes"
	"crypto/sha256"
	"os"
	"path/filepath"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/solidity"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/consensys/gnark/logger"

	"github.com/risc0-labs/risc0-lido-accounting-oracle/receipt"
)

const rootDir = "."

func main() {
	_, _, vk, err := SetupCircuit()
	if err != nil {
		println("error", err.Error())
		return
	}

	if err := CreateSolidity(vk); err != nil {
		println("error", err.Error())
	}
}

// SetupCircuit compiles receipt.WitnessCircuit over BN254 (matching
// the teacher's emulated-BLS12-381 curve choice) and persists the
// resulting ccs/pk/vk with gnark's own WriteTo, the same format
// receipt.LoadGroth16VerifyingKey reads back.
func SetupCircuit() (constraint.ConstraintSystem, groth16.ProvingKey, groth16.VerifyingKey, error) {
	logger.Disable()

	if err := os.MkdirAll(filepath.Join(rootDir, ".build"), 0o755); err != nil {
		return nil, nil, nil, err
	}
	ccsPath := filepath.Join(rootDir, ".build/ReportWitnessCircuit.ccs")
	pkPath := filepath.Join(rootDir, ".build/ReportWitnessCircuit.pk")
	vkPath := filepath.Join(rootDir, ".build/ReportWitnessCircuit.vk")

	println("compiling ReportWitnessCircuit circuit...")
	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, receipt.WitnessCircuit())
	if err != nil {
		return nil, nil, nil, err
	}

	fccs, err := os.Create(ccsPath)
	if err != nil {
		return nil, nil, nil, err
	}
	defer fccs.Close()
	if _, err := ccs.WriteTo(fccs); err != nil {
		return nil, nil, nil, err
	}
	println("constraints:", ccs.GetNbConstraints(), "public inputs:", ccs.GetNbPublicVariables())

	println("generating proving and verifying keys...")
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, nil, nil, err
	}

	fpk, err := os.Create(pkPath)
	if err != nil {
		return nil, nil, nil, err
	}
	defer fpk.Close()
	if _, err := pk.WriteTo(fpk); err != nil {
		return nil, nil, nil, err
	}

	fvk, err := os.Create(vkPath)
	if err != nil {
		return nil, nil, nil, err
	}
	defer fvk.Close()
	if _, err := vk.WriteTo(fvk); err != nil {
		return nil, nil, nil, err
	}
	println("setup complete")

	return ccs, pk, vk, nil
}

// CreateSolidity exports vk as a Solidity verifier contract, the same
// SHA-256 hash-to-field choice the teacher's generator used.
func CreateSolidity(vk groth16.VerifyingKey) error {
	path := "verifiers/eth2/contracts/ReportWitnessVerifier.sol"

	var buf bytes.Buffer
	if err := vk.ExportSolidity(&buf, solidity.WithHashToFieldFunction(sha256.New())); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return err
	}

	println("solidity verifier written to", path)
	return nil
}
