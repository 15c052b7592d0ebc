package news

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"

	"github.com/hanseul-dev/stocksignal/internal/market"
)

const naverFinanceURL = "https://finance.naver.com"

// NaverCollector scrapes the Naver Finance per-symbol news listing.
// Domestic (KR) market only.
type NaverCollector struct {
	BaseURL     string
	UserAgent   string
	MaxPages    int
	MaxArticles int
	Lookback    int // calendar days walked back from the target date
	client      *http.Client
}

// NewNaverCollector creates a collector for the KR news listing.
func NewNaverCollector(userAgent string, maxPages, maxArticles, lookback int) *NaverCollector {
	return &NaverCollector{
		BaseURL:     naverFinanceURL,
		UserAgent:   userAgent,
		MaxPages:    maxPages,
		MaxArticles: maxArticles,
		Lookback:    lookback,
		client:      &http.Client{Timeout: 10 * time.Second},
	}
}

// Collect walks the lookback days in order and returns the first day's
// articles, hour-deduplicated, name matches first. A symbol with no
// articles on any day yields exactly one synthetic placeholder.
func (c *NaverCollector) Collect(ctx context.Context, symbol, name, targetDate string) []Article {
	log.Printf("Scraping news for %s (%s)...", name, symbol)

	target, err := time.ParseInLocation("2006-01-02", targetDate, market.KST)
	if err != nil {
		log.Printf("Bad target date %q: %v", targetDate, err)
		return []Article{c.placeholder(symbol, name, targetDate)}
	}

	seenTitles := make(map[string]struct{})
	var articles []Article

	for back := 0; back < c.Lookback; back++ {
		day := target.AddDate(0, 0, -back).Format("2006.01.02")
		articles = c.collectDay(ctx, symbol, name, day, seenTitles)
		if len(articles) > 0 {
			break
		}
	}

	if len(articles) == 0 {
		articles = []Article{c.placeholder(symbol, name, targetDate)}
	}
	return articles
}

// collectDay pages through the listing for one calendar day, bucketing
// articles by publish hour. One representative is kept per hour bucket
// to bound volume while preserving temporal spread.
func (c *NaverCollector) collectDay(ctx context.Context, symbol, name, dateClean string, seenTitles map[string]struct{}) []Article {
	hourBuckets := make(map[string][]Article)
	var noHour []Article

	for page := 1; page <= c.MaxPages; page++ {
		rows, err := c.fetchPage(ctx, symbol, page)
		if err != nil {
			// Treated as end-of-pagination, never propagated.
			log.Printf("Error scraping news page %d for %s: %v", page, symbol, err)
			break
		}
		if len(rows) == 0 {
			break
		}

		foundOlder := false
		for _, row := range rows {
			if row.title == "" {
				continue
			}
			if _, seen := seenTitles[row.title]; seen {
				continue
			}

			dateOnly, hour := splitDateHour(row.date)
			if dateOnly == dateClean {
				article := Article{
					Title:   row.title,
					URL:     c.absoluteURL(row.href),
					Date:    row.date,
					Source:  row.source,
					HasName: titleMatchesName(name, row.title),
				}
				if hour != "" {
					hourBuckets[hour] = append(hourBuckets[hour], article)
				} else {
					noHour = append(noHour, article)
				}
				seenTitles[row.title] = struct{}{}
			} else if dateOnly < dateClean && strings.Contains(dateOnly, ".") {
				foundOlder = true
				break
			}
		}
		if foundOlder {
			break
		}
	}

	// One article per hour bucket: prefer a name match, else the most
	// recent in the bucket.
	hours := make([]string, 0, len(hourBuckets))
	for h := range hourBuckets {
		hours = append(hours, h)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(hours)))

	var deduplicated []Article
	for _, h := range hours {
		bucket := hourBuckets[h]
		picked := bucket[0]
		for _, a := range bucket {
			if a.HasName {
				picked = a
				break
			}
		}
		deduplicated = append(deduplicated, picked)
	}
	deduplicated = append(deduplicated, noHour...)

	if len(deduplicated) == 0 {
		return nil
	}

	// Final ordering: name matches first, newest first within each group.
	var withName, withoutName []Article
	for _, a := range deduplicated {
		if a.HasName {
			withName = append(withName, a)
		} else {
			withoutName = append(withoutName, a)
		}
	}
	sort.SliceStable(withName, func(i, j int) bool { return withName[i].Date > withName[j].Date })
	sort.SliceStable(withoutName, func(i, j int) bool { return withoutName[i].Date > withoutName[j].Date })

	out := append(withName, withoutName...)
	if len(out) > c.MaxArticles {
		out = out[:c.MaxArticles]
	}
	return out
}

type listingRow struct {
	title  string
	href   string
	date   string
	source string
}

// fetchPage fetches and parses one EUC-KR listing page.
func (c *NaverCollector) fetchPage(ctx context.Context, symbol string, page int) ([]listingRow, error) {
	params := url.Values{
		"code":      {symbol},
		"page":      {fmt.Sprintf("%d", page)},
		"sm":        {"title_entity_id.basic"},
		"clusterId": {""},
	}
	reqURL := c.BaseURL + "/item/news_news.naver?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Referer", c.BaseURL+"/item/news.naver?code="+symbol)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listing page returned %d", resp.StatusCode)
	}

	decoded := transform.NewReader(resp.Body, korean.EUCKR.NewDecoder())
	doc, err := goquery.NewDocumentFromReader(decoded)
	if err != nil {
		return nil, fmt.Errorf("parsing page: %w", err)
	}

	var rows []listingRow
	doc.Find("table.type5 tbody tr").Each(func(_ int, tr *goquery.Selection) {
		if tr.Find("td").Length() < 2 {
			return
		}
		link := tr.Find("td.title a").First()
		if link.Length() == 0 {
			link = tr.Find("a").First()
		}
		if link.Length() == 0 {
			return
		}
		href, _ := link.Attr("href")
		rows = append(rows, listingRow{
			title:  strings.TrimSpace(link.Text()),
			href:   href,
			date:   strings.TrimSpace(tr.Find("td.date").Text()),
			source: strings.TrimSpace(tr.Find("td.info").Text()),
		})
	})
	return rows, nil
}

func (c *NaverCollector) absoluteURL(href string) string {
	if strings.HasPrefix(href, "/") {
		return c.BaseURL + href
	}
	return href
}

func (c *NaverCollector) placeholder(symbol, name, targetDate string) Article {
	return Article{
		Title:  name + ", 시장 흐름 및 관련 테마 분석",
		URL:    c.BaseURL + "/item/news.naver?code=" + symbol,
		Date:   strings.ReplaceAll(targetDate, "-", ".") + " 09:00",
		Source: "증권정보",
	}
}

// splitDateHour splits "2026.02.06 14:32" into ("2026.02.06", "14").
func splitDateHour(full string) (string, string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	hour := ""
	if len(parts) > 1 {
		hour = strings.SplitN(parts[1], ":", 2)[0]
	}
	return parts[0], hour
}
