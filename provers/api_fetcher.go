// Package provers implements the Fetcher boundary InputBuilder depends
// on: retrieving the SSZ-chunked leaves of the Beacon block/state/
// historical-batch containers a proof is built over. The Beacon API
// client itself is an external collaborator (spec §1 "Out of scope");
// this package only shapes its response into the leaf chunks
// ssz.Builder consumes, adapted from the teacher's own APIFetcher/
// FileFetcher split (provers/api_fetcher.go, provers/file_fetcher.go),
// generalized from one hardcoded light-client-update endpoint to the
// three container kinds OracleEngine and MembershipEngine prove over.
package provers

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	fastssz "github.com/ferranbt/fastssz"
)

// Fetcher retrieves the pre-chunked 32-byte leaves of a container at a
// given slot — the same intermediate shape a fastssz-generated
// container's HashTreeRootWith assembles internally before hashing.
type Fetcher interface {
	BlockChunks(slot uint64) ([][]byte, error)
	StateChunks(slot uint64) ([][]byte, error)
	HistoricalBatchChunks(slot uint64) ([][]byte, error)

	// ValidatorCount reports BeaconState.validators.length at slot, so
	// InputBuilder knows how many withdrawal_credentials gindices to
	// queue without walking the chunked state itself.
	ValidatorCount(slot uint64) (uint64, error)
}

// RawContainer adapts a flat slice of pre-chunked leaves into
// ssz.Container, so InputBuilder never depends on one concrete
// BeaconState/BeaconBlock Go type — only on whatever chunked the
// Fetcher's backing store already produced.
type RawContainer struct {
	Chunks [][]byte
}

// GetTree satisfies ssz.Container.
func (c RawContainer) GetTree() (*fastssz.Node, error) {
	return fastssz.TreeFromChunks(c.Chunks)
}

// chunkResponse is the wire shape both backends decode: a list of
// hex-encoded 32-byte chunks, in the same order GetTree()'s caller
// expects leaves to appear.
type chunkResponse struct {
	Chunks []string `json:"chunks"`
}

func decodeChunks(body []byte) ([][]byte, error) {
	var resp chunkResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("provers: parsing chunk response: %w", err)
	}
	out := make([][]byte, len(resp.Chunks))
	for i, h := range resp.Chunks {
		b, err := hex.DecodeString(strings.TrimPrefix(h, "0x"))
		if err != nil {
			return nil, fmt.Errorf("provers: decoding chunk %d: %w", i, err)
		}
		out[i] = b
	}
	return out, nil
}

// APIFetcher implements Fetcher against a Beacon node's debug chunk
// endpoints, mirroring the teacher's APIFetcher request/decode shape
// (url.Parse + query params, http.Client.Get, io.ReadAll, status-code
// check, json.Unmarshal) against this report engine's own endpoints
// instead of /eth/v1/beacon/light_client/updates.
type APIFetcher struct {
	BaseURL string
	Client  *http.Client
}

// NewAPIFetcher creates a new APIFetcher with the given base URL.
func NewAPIFetcher(baseURL string) *APIFetcher {
	return &APIFetcher{BaseURL: baseURL, Client: &http.Client{}}
}

func (a *APIFetcher) fetch(path string) ([][]byte, error) {
	endpoint, err := url.Parse(a.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("provers: invalid base URL: %w", err)
	}
	endpoint.Path = path

	resp, err := a.Client.Get(endpoint.String())
	if err != nil {
		return nil, fmt.Errorf("provers: request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("provers: reading response from %s: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provers: %s returned status %d: %s", path, resp.StatusCode, string(body))
	}
	return decodeChunks(body)
}

// BlockChunks fetches the BeaconBlock container at slot.
func (a *APIFetcher) BlockChunks(slot uint64) ([][]byte, error) {
	return a.fetch(fmt.Sprintf("/eth/v2/debug/beacon/block_chunks/%d", slot))
}

// StateChunks fetches the BeaconState container at slot.
func (a *APIFetcher) StateChunks(slot uint64) ([][]byte, error) {
	return a.fetch(fmt.Sprintf("/eth/v2/debug/beacon/state_chunks/%d", slot))
}

// HistoricalBatchChunks fetches the HistoricalBatch container rooted at
// historical_summaries[i] for the batch covering slot.
func (a *APIFetcher) HistoricalBatchChunks(slot uint64) ([][]byte, error) {
	return a.fetch(fmt.Sprintf("/eth/v2/debug/beacon/historical_batch_chunks/%d", slot))
}

// ValidatorCount fetches BeaconState.validators.length at slot.
func (a *APIFetcher) ValidatorCount(slot uint64) (uint64, error) {
	endpoint, err := url.Parse(a.BaseURL)
	if err != nil {
		return 0, fmt.Errorf("provers: invalid base URL: %w", err)
	}
	endpoint.Path = fmt.Sprintf("/eth/v2/debug/beacon/validator_count/%d", slot)

	resp, err := a.Client.Get(endpoint.String())
	if err != nil {
		return 0, fmt.Errorf("provers: request to %s failed: %w", endpoint.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("provers: reading response from %s: %w", endpoint.Path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("provers: %s returned status %d: %s", endpoint.Path, resp.StatusCode, string(body))
	}

	var out struct {
		Count uint64 `json:"count"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return 0, fmt.Errorf("provers: parsing validator count response: %w", err)
	}
	return out.Count, nil
}
