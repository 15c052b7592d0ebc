package news

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
)

// FlowFetcher returns a per-symbol institutional/foreign net-flow
// snapshot, or "" when unavailable. Domestic market only.
type FlowFetcher interface {
	Flow(ctx context.Context, symbol string) string
}

// Rows gathered from the investor trend table.
const flowDays = 7

// NaverFlowFetcher scrapes the Naver Finance investor trend page.
type NaverFlowFetcher struct {
	BaseURL   string
	UserAgent string
	client    *http.Client
}

// NewNaverFlowFetcher creates a flow fetcher.
func NewNaverFlowFetcher(userAgent string) *NaverFlowFetcher {
	return &NaverFlowFetcher{
		BaseURL:   naverFinanceURL,
		UserAgent: userAgent,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Flow returns up to the last seven sessions of institutional and
// foreign net trading, formatted for prompt inclusion. Any fetch or
// parse failure yields "".
func (f *NaverFlowFetcher) Flow(ctx context.Context, symbol string) string {
	req, err := http.NewRequestWithContext(ctx, "GET", f.BaseURL+"/item/frgn.naver?code="+symbol, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", f.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		log.Printf("Error scraping investor data for %s: %v", symbol, err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("Investor page for %s returned %d", symbol, resp.StatusCode)
		return ""
	}

	decoded := transform.NewReader(resp.Body, korean.EUCKR.NewDecoder())
	doc, err := goquery.NewDocumentFromReader(decoded)
	if err != nil {
		log.Printf("Error parsing investor page for %s: %v", symbol, err)
		return ""
	}

	var lines []string
	doc.Find("table.type2 tr").EachWithBreak(func(_ int, tr *goquery.Selection) bool {
		dateCell := tr.Find("td.tc span.tah").First()
		if dateCell.Length() == 0 {
			return true
		}
		cols := tr.Find("td")
		if cols.Length() < 7 {
			return true
		}
		date := strings.TrimSpace(dateCell.Text())
		inst := strings.TrimSpace(cols.Eq(5).Text())
		foreign := strings.TrimSpace(cols.Eq(6).Text())
		lines = append(lines, fmt.Sprintf("[%s] 기관: %s주, 외국인: %s주", date, inst, foreign))
		return len(lines) < flowDays
	})

	return strings.Join(lines, " | ")
}
