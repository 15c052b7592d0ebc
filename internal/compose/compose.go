// Package compose renders a persisted dataset as a human-readable
// markdown digest. Rendering is pure: no I/O, no clock.
package compose

import (
	"fmt"
	"strings"

	"github.com/hanseul-dev/stocksignal/internal/signal"
)

// Digest renders the daily digest for one dataset.
func Digest(date, market string, ds *signal.Dataset) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# 시장 시그널 다이제스트 — %s (%s)\n\n", date, market)

	if len(ds.Signals) == 0 {
		b.WriteString("오늘은 수집된 시그널이 없습니다.\n")
		return b.String()
	}

	if ds.LastUpdated != "" {
		fmt.Fprintf(&b, "_업데이트: %s_\n\n", ds.LastUpdated)
	}

	for i, s := range ds.Signals {
		fmt.Fprintf(&b, "## %d. [%s] %s", i+1, s.MainStock.ChangeRate, s.MainStock.Name)
		if s.SignalType != "" {
			fmt.Fprintf(&b, " — %s", s.SignalType)
		}
		b.WriteString("\n\n")

		if s.Theme != "" {
			fmt.Fprintf(&b, "**테마**: %s\n\n", s.Theme)
		}
		if s.ShortReason != "" {
			fmt.Fprintf(&b, "**핵심 원인**: %s\n\n", s.ShortReason)
		}
		if s.Summary != "" {
			b.WriteString(s.Summary + "\n\n")
		}

		if len(s.NewsArticles) > 0 {
			b.WriteString("**주요 뉴스**\n\n")
			for _, a := range s.NewsArticles {
				fmt.Fprintf(&b, "- [%s](%s)", a.Title, a.URL)
				if a.Date != "" || a.Source != "" {
					fmt.Fprintf(&b, " — %s", strings.TrimSpace(a.Date+" "+a.Source))
				}
				b.WriteString("\n")
			}
			b.WriteString("\n")
		}

		if len(s.RelatedStocks) > 0 {
			parts := make([]string, 0, len(s.RelatedStocks))
			for _, r := range s.RelatedStocks {
				parts = append(parts, fmt.Sprintf("%s (%s)", r.Name, r.ChangeRate))
			}
			fmt.Fprintf(&b, "**관련 종목**: %s\n\n", strings.Join(parts, ", "))
		}
	}
	return b.String()
}
