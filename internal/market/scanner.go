package market

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"

	"github.com/hanseul-dev/stocksignal/internal/metadata"
)

// Inclusion threshold in percent; smaller moves are noise.
const minChangePct = 0.01

// Mover is one universe symbol whose price moved beyond the threshold.
type Mover struct {
	Symbol     string
	Name       string
	ChangePct  float64
	ChangeRate string // signed percentage label, e.g. "+5.0%"
	Market     string
}

// Scanner finds the biggest movers in a market's universe.
type Scanner struct {
	meta     *metadata.Store
	resolver *ChangeResolver
}

// NewScanner creates a mover scanner.
func NewScanner(meta *metadata.Store, resolver *ChangeResolver) *Scanner {
	return &Scanner{meta: meta, resolver: resolver}
}

// TopMovers scans the market universe for date and returns up to topN
// movers ranked by absolute change, descending. Ties keep universe
// order (stable sort). Deterministic given identical price data.
func (s *Scanner) TopMovers(ctx context.Context, date, market string, topN int) []Mover {
	universe := s.meta.Universe(market)
	log.Printf("Finding top movers for %s among %d %s stocks...", date, len(universe), market)

	var movers []Mover
	for _, stock := range universe {
		change := s.resolver.Change(ctx, stock.Symbol, date)
		if math.Abs(change) <= minChangePct {
			continue
		}
		movers = append(movers, Mover{
			Symbol:     stock.Symbol,
			Name:       stock.Name,
			ChangePct:  change,
			ChangeRate: FormatChangeRate(change),
			Market:     market,
		})
	}

	sort.SliceStable(movers, func(i, j int) bool {
		return math.Abs(movers[i].ChangePct) > math.Abs(movers[j].ChangePct)
	})

	if len(movers) > topN {
		movers = movers[:topN]
	}
	return movers
}

// FormatChangeRate renders a signed percentage label like "+5.0%".
func FormatChangeRate(change float64) string {
	return fmt.Sprintf("%+.1f%%", change)
}
