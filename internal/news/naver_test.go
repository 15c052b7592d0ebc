package news

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
)

func eucKR(t *testing.T, s string) []byte {
	t.Helper()
	out, _, err := transform.Bytes(korean.EUCKR.NewEncoder(), []byte(s))
	if err != nil {
		t.Fatalf("encoding fixture: %v", err)
	}
	return out
}

func listingPage(rows ...string) string {
	return `<html><body><table class="type5"><tbody>` + strings.Join(rows, "") + `</tbody></table></body></html>`
}

func listingRowHTML(title, href, source, date string) string {
	return `<tr><td class="title"><a href="` + href + `">` + title + `</a></td>` +
		`<td class="info">` + source + `</td><td class="date">` + date + `</td></tr>`
}

func newTestCollector(srvURL string) *NaverCollector {
	c := NewNaverCollector("test-agent", 3, 20, 3)
	c.BaseURL = srvURL
	return c
}

func TestNaverCollectorOrdersNameMatchesFirst(t *testing.T) {
	page := listingPage(
		listingRowHTML("코스피 장중 상승 마감", "/item/news_read.naver?id=1", "연합뉴스", "2026.02.06 16:10"),
		listingRowHTML("삼성전자, 4분기 실적 서프라이즈", "/item/news_read.naver?id=2", "한국경제", "2026.02.06 15:30"),
		listingRowHTML("반도체주 일제히 강세", "/item/news_read.naver?id=3", "매일경제", "2026.02.06 14:05"),
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "1" {
			w.Write(eucKR(t, listingPage()))
			return
		}
		w.Write(eucKR(t, page))
	}))
	defer srv.Close()

	c := newTestCollector(srv.URL)
	articles := c.Collect(context.Background(), "005930", "삼성전자", "2026-02-06")

	if len(articles) != 3 {
		t.Fatalf("expected 3 articles, got %d", len(articles))
	}
	if !articles[0].HasName || !strings.Contains(articles[0].Title, "삼성전자") {
		t.Errorf("expected name match first, got %q", articles[0].Title)
	}
	if articles[1].Date < articles[2].Date {
		t.Error("expected non-matching articles newest first")
	}
	if !strings.HasPrefix(articles[0].URL, srv.URL) {
		t.Errorf("expected absolutized URL, got %q", articles[0].URL)
	}
}

func TestNaverCollectorHourBucketDedup(t *testing.T) {
	// Three articles in the 15:00 hour: the name match wins the bucket
	// even though it is not the most recent.
	page := listingPage(
		listingRowHTML("증시 마감 시황", "/n1", "연합뉴스", "2026.02.06 15:50"),
		listingRowHTML("삼성전자 신고가 경신", "/n2", "한국경제", "2026.02.06 15:30"),
		listingRowHTML("외국인 순매수 지속", "/n3", "매일경제", "2026.02.06 15:10"),
		listingRowHTML("장 초반 혼조세", "/n4", "서울경제", "2026.02.06 09:20"),
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "1" {
			w.Write(eucKR(t, listingPage()))
			return
		}
		w.Write(eucKR(t, page))
	}))
	defer srv.Close()

	c := newTestCollector(srv.URL)
	articles := c.Collect(context.Background(), "005930", "삼성전자", "2026-02-06")

	if len(articles) != 2 {
		t.Fatalf("expected one article per hour bucket, got %d", len(articles))
	}
	if articles[0].Title != "삼성전자 신고가 경신" {
		t.Errorf("expected bucket to prefer name match, got %q", articles[0].Title)
	}
}

func TestNaverCollectorLookback(t *testing.T) {
	// Listing only has articles from the prior day: the first lookback
	// pass exits early, the second finds them.
	page := listingPage(
		listingRowHTML("삼성전자 수주 공시", "/n1", "한국경제", "2026.02.05 17:00"),
	)
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.URL.Query().Get("page") != "1" {
			w.Write(eucKR(t, listingPage()))
			return
		}
		w.Write(eucKR(t, page))
	}))
	defer srv.Close()

	c := newTestCollector(srv.URL)
	articles := c.Collect(context.Background(), "005930", "삼성전자", "2026-02-06")

	if len(articles) != 1 {
		t.Fatalf("expected 1 article from lookback day, got %d", len(articles))
	}
	if articles[0].Date != "2026.02.05 17:00" {
		t.Errorf("unexpected date %q", articles[0].Date)
	}
	if requests == 0 {
		t.Fatal("expected requests to be made")
	}
}

func TestNaverCollectorPlaceholderOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer srv.Close()

	c := newTestCollector(srv.URL)
	articles := c.Collect(context.Background(), "005930", "삼성전자", "2026-02-06")

	if len(articles) != 1 {
		t.Fatalf("expected exactly one placeholder, got %d", len(articles))
	}
	if !strings.Contains(articles[0].Title, "삼성전자") || articles[0].Source != "증권정보" {
		t.Errorf("unexpected placeholder %+v", articles[0])
	}
	if articles[0].Date != "2026.02.06 09:00" {
		t.Errorf("unexpected placeholder date %q", articles[0].Date)
	}
}

func TestNaverCollectorDeduplicatesTitles(t *testing.T) {
	page := listingPage(
		listingRowHTML("삼성전자 실적 발표", "/n1", "한국경제", "2026.02.06 15:30"),
		listingRowHTML("삼성전자 실적 발표", "/n2", "연합뉴스", "2026.02.06 14:30"),
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "1" {
			w.Write(eucKR(t, listingPage()))
			return
		}
		w.Write(eucKR(t, page))
	}))
	defer srv.Close()

	c := newTestCollector(srv.URL)
	articles := c.Collect(context.Background(), "005930", "삼성전자", "2026-02-06")
	if len(articles) != 1 {
		t.Fatalf("expected duplicate title collapsed, got %d articles", len(articles))
	}
}

func TestTitleMatchesName(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  bool
	}{
		{"삼성전자", "삼성전자, 4분기 실적 발표", true},
		{"삼성전자", "코스피 상승 마감", false},
		{"SK", "SK 그룹주 일제히 강세", true},
		{"SK", "SK하이닉스 신고가", false},
		{"SK", "[특징주] SK, 지주사 재평가", true},
		{"LG", "LG전자 실적 호조", false},
	}
	for _, tt := range tests {
		if got := titleMatchesName(tt.name, tt.title); got != tt.want {
			t.Errorf("titleMatchesName(%q, %q) = %v, want %v", tt.name, tt.title, got, tt.want)
		}
	}
}

func TestNaverFlowFetcher(t *testing.T) {
	table := `<html><body><table class="type2">
<tr><th>날짜</th></tr>
<tr><td class="tc"><span class="tah">2026.02.06</span></td><td>80,400</td><td>+800</td><td>+1.01%</td><td>15,234,123</td><td>+120,000</td><td>-45,000</td></tr>
<tr><td class="tc"><span class="tah">2026.02.05</span></td><td>79,600</td><td>-400</td><td>-0.50%</td><td>17,142,847</td><td>-30,000</td><td>+10,000</td></tr>
</table></body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(eucKR(t, table))
	}))
	defer srv.Close()

	f := NewNaverFlowFetcher("test-agent")
	f.BaseURL = srv.URL
	flow := f.Flow(context.Background(), "005930")

	if !strings.Contains(flow, "[2026.02.06] 기관: +120,000주, 외국인: -45,000주") {
		t.Errorf("unexpected flow %q", flow)
	}
	if !strings.Contains(flow, " | ") {
		t.Errorf("expected two joined rows, got %q", flow)
	}
}

func TestNaverFlowFetcherFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewNaverFlowFetcher("test-agent")
	f.BaseURL = srv.URL
	if flow := f.Flow(context.Background(), "005930"); flow != "" {
		t.Errorf("expected empty flow on failure, got %q", flow)
	}
}
