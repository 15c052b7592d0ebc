package signal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hanseul-dev/stocksignal/internal/metadata"
)

// Store reads and writes dataset files under a data directory.
type Store struct {
	dir string
}

// NewStore creates a dataset store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the dataset file path for a date and market. US files
// carry a us_ prefix so both markets can share the directory.
func (s *Store) Path(date, market string) string {
	name := date + ".json"
	if market == metadata.MarketUS {
		name = "us_" + date + ".json"
	}
	return filepath.Join(s.dir, name)
}

// Load reads the dataset for (date, market). A missing file yields an
// empty dataset, not an error.
func (s *Store) Load(date, market string) (*Dataset, error) {
	data, err := os.ReadFile(s.Path(date, market))
	if os.IsNotExist(err) {
		return &Dataset{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}
	var ds Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("parsing dataset: %w", err)
	}
	return &ds, nil
}

// Write replaces the dataset file for (date, market) atomically.
func (s *Store) Write(date, market string, ds *Dataset) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding dataset: %w", err)
	}

	path := s.Path(date, market)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing dataset: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing dataset: %w", err)
	}
	return nil
}
