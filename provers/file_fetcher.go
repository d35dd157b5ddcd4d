package provers

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileFetcher implements Fetcher by reading cached chunk responses from
// a local directory, one JSON file per (container kind, slot) — the
// same read-a-fixture-file shape as the teacher's own FileFetcher, used
// there to replay a single light-client update from disk.
type FileFetcher struct {
	Dir string
}

// NewFileFetcher creates a new FileFetcher rooted at dir.
func NewFileFetcher(dir string) *FileFetcher {
	return &FileFetcher{Dir: dir}
}

func (f *FileFetcher) fetch(name string) ([][]byte, error) {
	data, err := os.ReadFile(filepath.Join(f.Dir, name))
	if err != nil {
		return nil, fmt.Errorf("provers: reading %s: %w", name, err)
	}
	chunks, err := decodeChunks(data)
	if err != nil {
		return nil, fmt.Errorf("provers: parsing %s: %w", name, err)
	}
	return chunks, nil
}

// BlockChunks reads block_<slot>.json from Dir.
func (f *FileFetcher) BlockChunks(slot uint64) ([][]byte, error) {
	return f.fetch(fmt.Sprintf("block_%d.json", slot))
}

// StateChunks reads state_<slot>.json from Dir.
func (f *FileFetcher) StateChunks(slot uint64) ([][]byte, error) {
	return f.fetch(fmt.Sprintf("state_%d.json", slot))
}

// HistoricalBatchChunks reads historical_batch_<slot>.json from Dir.
func (f *FileFetcher) HistoricalBatchChunks(slot uint64) ([][]byte, error) {
	return f.fetch(fmt.Sprintf("historical_batch_%d.json", slot))
}

// ValidatorCount reads validator_count_<slot>.json from Dir.
func (f *FileFetcher) ValidatorCount(slot uint64) (uint64, error) {
	name := fmt.Sprintf("validator_count_%d.json", slot)
	data, err := os.ReadFile(filepath.Join(f.Dir, name))
	if err != nil {
		return 0, fmt.Errorf("provers: reading %s: %w", name, err)
	}
	var out struct {
		Count uint64 `json:"count"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return 0, fmt.Errorf("provers: parsing %s: %w", name, err)
	}
	return out.Count, nil
}
