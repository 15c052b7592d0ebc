// Package enrich fetches and extracts the full body text of a selected
// article. Domestic sources only; failures never block the pipeline.
package enrich

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"

	"github.com/hanseul-dev/stocksignal/internal/database"
	"github.com/hanseul-dev/stocksignal/internal/news"
)

// Body text cap in runes.
const maxContentLen = 2000

// Naver article pages use different layouts; the first non-empty
// container wins.
var contentSelectors = []string{
	"#dic_area",
	"#newsct_article",
	"#articleBodyContents",
	".article_view",
}

var (
	articleIDRe = regexp.MustCompile(`article_id=(\d+)`)
	officeIDRe  = regexp.MustCompile(`office_id=(\d+)`)
)

// Enricher fetches article bodies, with a local cache so repeated
// intraday runs do not refetch.
type Enricher struct {
	UserAgent string
	cache     *database.DB // optional
	client    *http.Client
}

// NewEnricher creates a content enricher. cache may be nil.
func NewEnricher(cache *database.DB, userAgent string) *Enricher {
	return &Enricher{
		UserAgent: userAgent,
		cache:     cache,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Enrich fills article.Content with extracted body text. On any fetch
// or parse failure the content is left empty.
func (e *Enricher) Enrich(ctx context.Context, article *news.Article) {
	if article.Content != "" {
		return
	}

	if e.cache != nil {
		if cached, err := e.cache.GetContent(article.URL); err == nil && cached != "" {
			article.Content = cached
			return
		}
	}

	content, err := e.fetchContent(ctx, article.URL)
	if err != nil {
		log.Printf("Error scraping article content from %s: %v", article.URL, err)
		return
	}
	if content == "" {
		return
	}

	article.Content = content
	if e.cache != nil {
		if err := e.cache.PutContent(article.URL, content); err != nil {
			log.Printf("Error caching content for %s: %v", article.URL, err)
		}
	}
}

func (e *Enricher) fetchContent(ctx context.Context, articleURL string) (string, error) {
	articleURL = rewriteReadURL(articleURL)

	req, err := http.NewRequestWithContext(ctx, "GET", articleURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", e.UserAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching article: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("article page returned %d", resp.StatusCode)
	}

	var reader io.Reader = resp.Body
	// Naver Finance pages are EUC-KR; n.news.naver.com is UTF-8.
	if !strings.Contains(articleURL, "n.news.naver.com") {
		reader = transform.NewReader(resp.Body, korean.EUCKR.NewDecoder())
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("reading article: %w", err)
	}

	if text := extractBySelectors(body); text != "" {
		return truncate(text), nil
	}

	// Last resort: generic readability extraction.
	parsedURL, _ := url.Parse(articleURL)
	art, err := readability.FromReader(bytes.NewReader(body), parsedURL)
	if err != nil {
		return "", nil
	}
	text := strings.TrimSpace(art.TextContent)
	if len(text) <= 100 {
		return "", nil
	}
	return truncate(text), nil
}

func extractBySelectors(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	for _, selector := range contentSelectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		sel.Find("script, style, span, a").Remove()
		text := strings.TrimSpace(sel.Text())
		if text != "" {
			return text
		}
	}
	return ""
}

// rewriteReadURL maps a finance.naver.com read link to the canonical
// n.news.naver.com article page.
func rewriteReadURL(articleURL string) string {
	if !strings.Contains(articleURL, "article_id=") || !strings.Contains(articleURL, "office_id=") {
		return articleURL
	}
	am := articleIDRe.FindStringSubmatch(articleURL)
	om := officeIDRe.FindStringSubmatch(articleURL)
	if am == nil || om == nil {
		return articleURL
	}
	return fmt.Sprintf("https://n.news.naver.com/mnews/article/%s/%s", om[1], am[1])
}

func truncate(text string) string {
	runes := []rune(text)
	if len(runes) > maxContentLen {
		return string(runes[:maxContentLen])
	}
	return text
}
