// Package signal defines the assembled daily dataset and its
// persistence: one JSON file per (date, market), merged idempotently
// across repeated runs.
package signal

import (
	"fmt"
	"strings"

	"github.com/hanseul-dev/stocksignal/internal/metadata"
	"github.com/hanseul-dev/stocksignal/internal/news"
	"github.com/hanseul-dev/stocksignal/internal/related"
)

// MainStock identifies the mover a signal explains.
type MainStock struct {
	Name       string `json:"name"`
	Symbol     string `json:"symbol"`
	ChangeRate string `json:"change_rate"`
	NewsURL    string `json:"news_url"`
}

// Signal is the complete explanation record for one mover.
type Signal struct {
	ID            string          `json:"id"`
	Theme         string          `json:"theme"`
	SignalType    string          `json:"signal_type"`
	ShortReason   string          `json:"short_reason"`
	Summary       string          `json:"summary"`
	MainStock     MainStock       `json:"main_stock"`
	NewsArticles  []news.Article  `json:"news_articles"`
	RelatedStocks []related.Stock `json:"related_stocks"`
	Timestamp     string          `json:"timestamp"`
}

// Dataset is the full per-day, per-market output file.
type Dataset struct {
	LastUpdated string   `json:"last_updated"`
	Signals     []Signal `json:"signals"`
}

// ID builds the stable signal identifier for a mover's rank within a
// run, e.g. sig_20260115_KR_001.
func ID(date, market string, rank int) string {
	return fmt.Sprintf("sig_%s_%s_%03d", strings.ReplaceAll(date, "-", ""), market, rank)
}

// NewsURL is the mover's landing page for further reading.
func NewsURL(symbol, market string) string {
	if market == metadata.MarketUS {
		return "https://finance.yahoo.com/quote/" + symbol
	}
	return "https://finance.naver.com/item/news.naver?code=" + symbol
}

// UnionArticles appends to fresh any prev article whose URL is not
// already present, preserving fresh order first.
func UnionArticles(fresh, prev []news.Article) []news.Article {
	seen := make(map[string]bool, len(fresh))
	out := make([]news.Article, 0, len(fresh)+len(prev))
	for _, a := range fresh {
		if seen[a.URL] {
			continue
		}
		seen[a.URL] = true
		out = append(out, a)
	}
	for _, a := range prev {
		if seen[a.URL] {
			continue
		}
		seen[a.URL] = true
		out = append(out, a)
	}
	return out
}

// BySymbol indexes a dataset's signals by main-stock symbol.
func (d *Dataset) BySymbol() map[string]Signal {
	out := make(map[string]Signal, len(d.Signals))
	for _, s := range d.Signals {
		out[s.MainStock.Symbol] = s
	}
	return out
}
