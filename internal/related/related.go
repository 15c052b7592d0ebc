// Package related resolves the companion stocks shown next to a
// signal: explicit peers first, then conglomerate-group matches, then
// a shared-industry fallback.
package related

import (
	"context"
	"strings"

	"github.com/hanseul-dev/stocksignal/internal/market"
	"github.com/hanseul-dev/stocksignal/internal/metadata"
)

const maxRelated = 5

// Stock is one labelled companion entry.
type Stock struct {
	Name       string `json:"name"`
	ChangeRate string `json:"change_rate"`
}

// Resolver looks up related stocks from metadata and prices them for
// the target date.
type Resolver struct {
	meta     *metadata.Store
	resolver *market.ChangeResolver
}

// NewResolver creates a related-stock resolver.
func NewResolver(meta *metadata.Store, resolver *market.ChangeResolver) *Resolver {
	return &Resolver{meta: meta, resolver: resolver}
}

type candidate struct {
	symbol string
	name   string
}

// Resolve returns up to 5 related stocks for symbol, labelled and
// priced for date. The queried symbol itself is never included.
func (r *Resolver) Resolve(ctx context.Context, symbol, name, date, mkt string) []Stock {
	universe := r.meta.Universe(mkt)
	seen := map[string]bool{symbol: true}
	var candidates []candidate

	// Tier 1: explicit peers, kept only when present in the universe.
	if entry, ok := r.meta.Entry(mkt, symbol); ok {
		for _, peer := range entry.Peers {
			if seen[peer] {
				continue
			}
			for _, u := range universe {
				if u.Symbol == peer {
					candidates = append(candidates, candidate{peer, u.Name})
					seen[peer] = true
					break
				}
			}
		}
	}

	// Tier 2: conglomerate group by 2-character name prefix.
	if mkt == metadata.MarketKR {
		if prefix := namePrefix(name); prefix != "" {
			for _, u := range universe {
				if !seen[u.Symbol] && strings.HasPrefix(u.Name, prefix) {
					candidates = append(candidates, candidate{u.Symbol, u.Name})
					seen[u.Symbol] = true
				}
			}
		}
	}

	// Tier 3: shared primary industry, only when nothing matched yet.
	if len(candidates) == 0 {
		if main := r.meta.PrimaryIndustry(mkt, symbol); main != "" {
			for _, u := range universe {
				if seen[u.Symbol] {
					continue
				}
				entry, ok := r.meta.Entry(mkt, u.Symbol)
				if !ok {
					continue
				}
				for _, ind := range entry.Industry {
					if ind == main {
						candidates = append(candidates, candidate{u.Symbol, u.Name})
						seen[u.Symbol] = true
						break
					}
				}
				if len(candidates) >= maxRelated {
					break
				}
			}
		}
	}

	if len(candidates) > maxRelated {
		candidates = candidates[:maxRelated]
	}

	mainIndustry := r.meta.PrimaryIndustry(mkt, symbol)
	prefix := ""
	if mkt == metadata.MarketKR {
		prefix = namePrefix(name)
	}

	related := make([]Stock, 0, len(candidates))
	for _, c := range candidates {
		tag := r.labelFor(mkt, c, mainIndustry, prefix)
		change := r.resolver.Change(ctx, c.symbol, date)
		related = append(related, Stock{
			Name:       tag + " " + c.name,
			ChangeRate: market.FormatChangeRate(change),
		})
	}
	return related
}

// labelFor picks the display tag by priority: shared primary industry,
// then group prefix, then the candidate's own industry, then a generic
// competitor tag.
func (r *Resolver) labelFor(mkt string, c candidate, mainIndustry, groupPrefix string) string {
	peerIndustry := r.meta.PrimaryIndustry(mkt, c.symbol)
	switch {
	case mainIndustry != "" && peerIndustry == mainIndustry:
		return "[" + mainIndustry + "]"
	case groupPrefix != "" && strings.HasPrefix(c.name, groupPrefix):
		return "[그룹사]"
	case peerIndustry != "":
		return "[" + peerIndustry + "]"
	default:
		return "[경쟁사]"
	}
}

func namePrefix(name string) string {
	runes := []rune(name)
	if len(runes) < 2 {
		return ""
	}
	return string(runes[:2])
}
