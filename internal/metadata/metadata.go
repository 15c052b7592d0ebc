// Package metadata holds the per-market stock universe and the
// externally maintained stock metadata (industry tags, peer lists).
// It is loaded once at process start and read-only during a run.
package metadata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Markets supported by the pipeline.
const (
	MarketKR = "KR"
	MarketUS = "US"
)

// Entry is the configured metadata for one symbol.
type Entry struct {
	Name     string   `json:"name"`
	Industry []string `json:"industry"`
	Peers    []string `json:"peers"`
}

// UniverseEntry is one symbol in a market's watchlist.
type UniverseEntry struct {
	Symbol string
	Name   string
	Market string
}

type marketData struct {
	entries map[string]Entry
	order   []string
}

// Store is the loaded metadata for all markets. The symbol order of the
// source file is preserved; mover ties and related-stock scans depend
// on it being stable.
type Store struct {
	markets map[string]*marketData
}

// NewStore creates an empty store with the known markets.
func NewStore() *Store {
	return &Store{markets: map[string]*marketData{
		MarketKR: {entries: map[string]Entry{}},
		MarketUS: {entries: map[string]Entry{}},
	}}
}

// Load reads stock metadata from a JSON file. A missing file yields an
// empty store, not an error.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewStore(), nil
		}
		return nil, fmt.Errorf("reading metadata: %w", err)
	}
	return Parse(data)
}

// Parse parses metadata JSON, preserving per-market symbol order.
func Parse(data []byte) (*Store, error) {
	s := NewStore()

	dec := json.NewDecoder(bytes.NewReader(data))
	if err := expectDelim(dec, '{'); err != nil {
		return nil, fmt.Errorf("parsing metadata: %w", err)
	}
	for dec.More() {
		market, err := readKey(dec)
		if err != nil {
			return nil, fmt.Errorf("parsing metadata: %w", err)
		}
		md, ok := s.markets[market]
		if !ok {
			md = &marketData{entries: map[string]Entry{}}
			s.markets[market] = md
		}
		if err := parseMarket(dec, md); err != nil {
			return nil, fmt.Errorf("parsing metadata market %s: %w", market, err)
		}
	}
	return s, nil
}

func parseMarket(dec *json.Decoder, md *marketData) error {
	if err := expectDelim(dec, '{'); err != nil {
		return err
	}
	for dec.More() {
		symbol, err := readKey(dec)
		if err != nil {
			return err
		}
		var e Entry
		if err := dec.Decode(&e); err != nil {
			return fmt.Errorf("symbol %s: %w", symbol, err)
		}
		if _, exists := md.entries[symbol]; !exists {
			md.order = append(md.order, symbol)
		}
		md.entries[symbol] = e
	}
	// closing brace
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected object key, got %v", tok)
	}
	return key, nil
}

// Save writes the store back to disk in its original symbol order.
func (s *Store) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating metadata directory: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("{\n")
	for mi, market := range []string{MarketKR, MarketUS} {
		md := s.markets[market]
		fmt.Fprintf(&buf, "  %q: {", market)
		for i, symbol := range md.order {
			if i > 0 {
				buf.WriteString(",")
			}
			entry, err := json.Marshal(md.entries[symbol])
			if err != nil {
				return fmt.Errorf("marshaling %s: %w", symbol, err)
			}
			fmt.Fprintf(&buf, "\n    %q: %s", symbol, entry)
		}
		if len(md.order) > 0 {
			buf.WriteString("\n  ")
		}
		buf.WriteString("}")
		if mi == 0 {
			buf.WriteString(",")
		}
		buf.WriteString("\n")
	}
	buf.WriteString("}\n")

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing metadata: %w", err)
	}
	return nil
}

// Universe returns the market's watchlist in file order.
func (s *Store) Universe(market string) []UniverseEntry {
	md, ok := s.markets[market]
	if !ok {
		return nil
	}
	out := make([]UniverseEntry, 0, len(md.order))
	for _, symbol := range md.order {
		out = append(out, UniverseEntry{
			Symbol: symbol,
			Name:   md.entries[symbol].Name,
			Market: market,
		})
	}
	return out
}

// Entry looks up the metadata for a symbol.
func (s *Store) Entry(market, symbol string) (Entry, bool) {
	md, ok := s.markets[market]
	if !ok {
		return Entry{}, false
	}
	e, ok := md.entries[symbol]
	return e, ok
}

// Set inserts or replaces a symbol's metadata, keeping its position if
// it already exists.
func (s *Store) Set(market, symbol string, e Entry) {
	md, ok := s.markets[market]
	if !ok {
		md = &marketData{entries: map[string]Entry{}}
		s.markets[market] = md
	}
	if _, exists := md.entries[symbol]; !exists {
		md.order = append(md.order, symbol)
	}
	md.entries[symbol] = e
}

// PrimaryIndustry returns the first industry tag for a symbol, or "".
func (s *Store) PrimaryIndustry(market, symbol string) string {
	e, ok := s.Entry(market, symbol)
	if !ok || len(e.Industry) == 0 {
		return ""
	}
	return e.Industry[0]
}

// Peers returns the configured peer symbols for a symbol.
func (s *Store) Peers(market, symbol string) []string {
	e, ok := s.Entry(market, symbol)
	if !ok {
		return nil
	}
	return e.Peers
}
