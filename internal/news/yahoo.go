package news

import (
	"context"
	"log"
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/hanseul-dev/stocksignal/internal/market"
)

const yahooFeedURL = "https://feeds.finance.yahoo.com/rss/2.0/headline"

// YahooRSSCollector reads per-symbol headlines from the Yahoo Finance
// RSS feed. International (US) market only: a single fetch, no
// pagination or lookback, all items treated as pre-relevant.
type YahooRSSCollector struct {
	BaseURL     string
	UserAgent   string
	MaxArticles int
}

// NewYahooRSSCollector creates a collector for the US feed.
func NewYahooRSSCollector(userAgent string, maxArticles int) *YahooRSSCollector {
	return &YahooRSSCollector{
		BaseURL:     yahooFeedURL,
		UserAgent:   userAgent,
		MaxArticles: maxArticles,
	}
}

// Collect fetches the symbol's feed. Publish times are normalized to
// KST. A failed or empty feed yields one synthetic placeholder.
func (c *YahooRSSCollector) Collect(ctx context.Context, symbol, name, targetDate string) []Article {
	log.Printf("Scraping US news for %s (%s)...", name, symbol)

	params := url.Values{
		"s":      {symbol},
		"region": {"US"},
		"lang":   {"en-US"},
	}

	parser := gofeed.NewParser()
	parser.UserAgent = c.UserAgent

	var articles []Article
	feed, err := parser.ParseURLWithContext(c.BaseURL+"?"+params.Encode(), ctx)
	if err != nil {
		log.Printf("Error scraping US news for %s: %v", symbol, err)
	} else {
		seenTitles := make(map[string]struct{})
		for _, item := range feed.Items {
			if len(articles) >= c.MaxArticles {
				break
			}
			title := strings.TrimSpace(item.Title)
			if title == "" || item.Link == "" {
				continue
			}
			if _, seen := seenTitles[title]; seen {
				continue
			}
			seenTitles[title] = struct{}{}

			date := item.Published
			if item.PublishedParsed != nil {
				date = item.PublishedParsed.In(market.KST).Format("01.02 15:04")
			}
			articles = append(articles, Article{
				Title:   title,
				URL:     item.Link,
				Date:    date,
				Source:  "Yahoo Finance",
				HasName: true, // feed is already symbol-targeted
			})
		}
	}

	if len(articles) == 0 {
		articles = []Article{{
			Title:   name + " Market Analysis",
			URL:     "https://finance.yahoo.com/quote/" + symbol,
			Date:    targetDate,
			Source:  "Yahoo Finance",
			HasName: true,
		}}
	}
	return articles
}
