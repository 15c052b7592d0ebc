package enrich

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"

	"github.com/hanseul-dev/stocksignal/internal/database"
	"github.com/hanseul-dev/stocksignal/internal/news"
)

func eucKR(t *testing.T, s string) []byte {
	t.Helper()
	out, _, err := transform.Bytes(korean.EUCKR.NewEncoder(), []byte(s))
	if err != nil {
		t.Fatalf("encoding fixture: %v", err)
	}
	return out
}

func TestEnrichSelectorPriority(t *testing.T) {
	page := `<html><body>
		<div id="newsct_article">secondary body</div>
		<div id="dic_area">primary body<script>junk()</script><a href="#">link text</a></div>
	</body></html>`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(eucKR(t, page))
	}))
	defer server.Close()

	e := NewEnricher(nil, "test-agent")
	article := &news.Article{URL: server.URL + "/read"}
	e.Enrich(context.Background(), article)

	if !strings.Contains(article.Content, "primary body") {
		t.Errorf("Content = %q, want text from #dic_area", article.Content)
	}
	if strings.Contains(article.Content, "junk") || strings.Contains(article.Content, "link text") {
		t.Errorf("Content = %q, script/anchor text should be stripped", article.Content)
	}
	if strings.Contains(article.Content, "secondary") {
		t.Errorf("Content = %q, lower-priority container should be ignored", article.Content)
	}
}

func TestEnrichKoreanBody(t *testing.T) {
	page := `<html><body><div id="dic_area">삼성전자가 신고가를 경신했다.</div></body></html>`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(eucKR(t, page))
	}))
	defer server.Close()

	e := NewEnricher(nil, "test-agent")
	article := &news.Article{URL: server.URL + "/read"}
	e.Enrich(context.Background(), article)

	if article.Content != "삼성전자가 신고가를 경신했다." {
		t.Errorf("Content = %q, want decoded Korean body", article.Content)
	}
}

func TestEnrichTruncates(t *testing.T) {
	long := strings.Repeat("a", 3000)
	page := `<html><body><div id="dic_area">` + long + `</div></body></html>`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	defer server.Close()

	e := NewEnricher(nil, "test-agent")
	article := &news.Article{URL: server.URL + "/read"}
	e.Enrich(context.Background(), article)

	if len([]rune(article.Content)) != maxContentLen {
		t.Errorf("len(Content) = %d, want %d", len([]rune(article.Content)), maxContentLen)
	}
}

func TestEnrichUsesCache(t *testing.T) {
	db, err := database.Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("opening cache: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(`<html><body><div id="dic_area">cached once</div></body></html>`))
	}))
	defer server.Close()

	e := NewEnricher(db, "test-agent")
	first := &news.Article{URL: server.URL + "/read"}
	e.Enrich(context.Background(), first)
	second := &news.Article{URL: server.URL + "/read"}
	e.Enrich(context.Background(), second)

	if hits != 1 {
		t.Errorf("server hits = %d, want 1 (second lookup served from cache)", hits)
	}
	if second.Content != first.Content {
		t.Errorf("cached Content = %q, want %q", second.Content, first.Content)
	}
}

func TestEnrichFetchFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	e := NewEnricher(nil, "test-agent")
	article := &news.Article{URL: server.URL + "/read"}
	e.Enrich(context.Background(), article)

	if article.Content != "" {
		t.Errorf("Content = %q, want empty on fetch failure", article.Content)
	}
}

func TestEnrichKeepsExistingContent(t *testing.T) {
	e := NewEnricher(nil, "test-agent")
	article := &news.Article{URL: "http://unused.invalid", Content: "already here"}
	e.Enrich(context.Background(), article)

	if article.Content != "already here" {
		t.Errorf("Content = %q, want existing content untouched", article.Content)
	}
}

func TestRewriteReadURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "finance read link",
			in:   "https://finance.naver.com/item/news_read.naver?article_id=0005432100&office_id=0018&code=005930",
			want: "https://n.news.naver.com/mnews/article/0018/0005432100",
		},
		{
			name: "already canonical",
			in:   "https://n.news.naver.com/mnews/article/0018/0005432100",
			want: "https://n.news.naver.com/mnews/article/0018/0005432100",
		},
		{
			name: "unrelated url",
			in:   "https://finance.yahoo.com/quote/AAPL",
			want: "https://finance.yahoo.com/quote/AAPL",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rewriteReadURL(tt.in); got != tt.want {
				t.Errorf("rewriteReadURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
