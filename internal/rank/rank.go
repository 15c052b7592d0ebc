// Package rank picks the single article most likely to explain a
// stock's price move, using an LLM when available and a keyword
// heuristic otherwise.
package rank

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/hanseul-dev/stocksignal/internal/llm"
	"github.com/hanseul-dev/stocksignal/internal/news"
)

// NoRelevantArticle is returned when no candidate plausibly explains
// the move.
const NoRelevantArticle = -1

// Keyword scoring for the heuristic fallback: company-specific events
// score up, broad market wrap-ups score down.
var (
	companyKeywords = []string{
		"신고가", "최다주주", "실적", "수주", "영업이익",
		"흑자", "배당", "인수", "합병", "공시", "특징주",
	}
	marketKeywords = []string{"코스피", "지수", "시황", "마감", "뉴욕증시"}

	firstIntRe = regexp.MustCompile(`\d+`)
)

// Selector chooses the article that best explains a price move.
type Selector struct {
	provider llm.Provider // nil disables the LLM path
	timeout  time.Duration
}

// NewSelector creates a selector. provider may be nil, in which case
// only the keyword heuristic is used.
func NewSelector(provider llm.Provider, timeout time.Duration) *Selector {
	return &Selector{provider: provider, timeout: timeout}
}

// Select returns the index into articles of the best causal candidate,
// or NoRelevantArticle. changePct determines the move direction shown
// to the model.
func (s *Selector) Select(ctx context.Context, name string, changePct float64, articles []news.Article) int {
	if len(articles) == 0 {
		return NoRelevantArticle
	}
	if len(articles) == 1 {
		return 0
	}

	if s.provider != nil && s.provider.IsConfigured() {
		if idx, ok := s.selectWithLLM(ctx, name, changePct, articles); ok {
			return idx
		}
	}
	return s.selectByKeywords(name, articles)
}

func (s *Selector) selectWithLLM(ctx context.Context, name string, changePct float64, articles []news.Article) (int, bool) {
	direction := "상승"
	if changePct < 0 {
		direction = "하락"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s 주가가 오늘 %s했습니다. 아래 뉴스 제목 중 이 %s의 원인을 가장 직접적으로 설명하는 기사 번호 하나를 고르세요.\n\n",
		name, direction, direction)
	for i, a := range articles {
		fmt.Fprintf(&b, "%d. %s\n", i+1, a.Title)
	}
	b.WriteString("\n번호만 답하세요. 원인을 설명하는 기사가 없으면 'none'이라고 답하세요.")

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.provider.Generate(ctx, b.String(), 10)
	if err != nil {
		log.Printf("Error selecting article for %s: %v", name, err)
		return 0, false
	}

	answer := strings.ToLower(strings.TrimSpace(resp))
	if strings.Contains(answer, "none") {
		return NoRelevantArticle, true
	}
	match := firstIntRe.FindString(answer)
	if match == "" {
		return 0, false
	}
	n, err := strconv.Atoi(match)
	if err != nil || n < 1 || n > len(articles) {
		return 0, false
	}
	return n - 1, true
}

// selectByKeywords scores each title and returns the highest-scoring
// index. Ties keep the earliest article.
func (s *Selector) selectByKeywords(name string, articles []news.Article) int {
	bestIdx := 0
	bestScore := scoreTitle(name, articles[0].Title)
	for i, a := range articles[1:] {
		if score := scoreTitle(name, a.Title); score > bestScore {
			bestScore = score
			bestIdx = i + 1
		}
	}
	return bestIdx
}

func scoreTitle(name, title string) int {
	score := 0
	for _, kw := range companyKeywords {
		if strings.Contains(title, kw) {
			score += 10
		}
	}
	for _, kw := range marketKeywords {
		if strings.Contains(title, kw) {
			score -= 5
		}
	}
	if strings.HasPrefix(title, name) || strings.Contains(title, "["+name+"]") {
		score += 5
	}
	return score
}
