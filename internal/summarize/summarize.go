// Package summarize produces the per-symbol explanation block: a
// category, a compressed reason, and a short narrative summary. A
// deterministic fallback is computed for every symbol before the
// batched model call, so output survives total service failure.
package summarize

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/hanseul-dev/stocksignal/internal/llm"
	"github.com/hanseul-dev/stocksignal/internal/metadata"
	"github.com/hanseul-dev/stocksignal/internal/news"
)

// Prompt caps: at most this many articles per symbol, with body text
// clipped per article.
const (
	maxPromptArticles   = 5
	maxPromptContentLen = 300
)

// Bundle is the per-symbol input, with the causal best article first.
type Bundle struct {
	Symbol       string
	Name         string
	ChangePct    float64
	Articles     []news.Article
	InvestorFlow string
}

// Result is one symbol's explanation block.
type Result struct {
	Category    string
	ShortReason string
	Summary     string
}

// Generator batches all movers of a run into a single model call.
type Generator struct {
	primary   llm.Provider // nil disables the model path
	secondary llm.Provider // tried once when primary fails
	timeout   time.Duration
	delay     time.Duration
}

// NewGenerator creates a summary generator. Either provider may be nil.
func NewGenerator(primary, secondary llm.Provider, timeout, delay time.Duration) *Generator {
	return &Generator{primary: primary, secondary: secondary, timeout: timeout, delay: delay}
}

// Summarize returns a Result for every bundle symbol. Model output
// overwrites the deterministic fallback field-by-field; symbols absent
// from the response keep their fallback.
func (g *Generator) Summarize(ctx context.Context, market string, bundles []Bundle) map[string]Result {
	results := make(map[string]Result, len(bundles))
	for _, b := range bundles {
		results[b.Symbol] = fallbackResult(market, b)
	}

	if len(bundles) == 0 || g.primary == nil || !g.primary.IsConfigured() {
		return results
	}

	prompt := g.buildPrompt(market, bundles)

	// Brief pause so the batch call does not land right on top of the
	// per-symbol selection calls.
	if g.delay > 0 {
		select {
		case <-time.After(g.delay):
		case <-ctx.Done():
			return results
		}
	}

	resp, err := g.generate(ctx, prompt)
	if err != nil {
		log.Printf("Error generating batch summaries: %v", err)
		return results
	}

	items := llm.ParseJSONArrayResponse(resp)
	if items == nil {
		return results
	}

	for _, item := range items {
		sym := llm.GetString(item, "symbol", "")
		existing, ok := results[sym]
		if !ok {
			continue
		}
		existing.Category = llm.GetString(item, "category", "이슈")
		existing.ShortReason = llm.GetString(item, "short_reason", existing.ShortReason)
		existing.Summary = llm.GetString(item, "summary", existing.Summary)
		results[sym] = existing
	}
	return results
}

func (g *Generator) generate(ctx context.Context, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.primary.Generate(callCtx, prompt, 8192)
	if err == nil {
		return resp, nil
	}
	if g.secondary == nil || !g.secondary.IsConfigured() {
		return "", err
	}
	log.Printf("Primary summary model failed: %v. Retrying with fallback model...", err)

	retryCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return g.secondary.Generate(retryCtx, prompt, 8192)
}

func (g *Generator) buildPrompt(market string, bundles []Bundle) string {
	var b strings.Builder
	b.WriteString("당신은 금융 시장을 분석하는 최상급 AI 리포터입니다.\n")
	b.WriteString("오늘 주요 주식들의 등락 원인을 분석하고자 합니다. 아래에 여러 종목의 [이름, 등락률, 주요 뉴스] 양식이 나열되어 있습니다.\n\n")
	b.WriteString("**[핵심 분석 지시사항 - 반드시 준수할 것]**\n")
	b.WriteString("1. **인과 관계 엄격 파악**: 주어진 각 종목의 등락률과 **직접적으로 연결되는 주가 변동의 진짜 원인(호재/악재)**을 뉴스 기사 속에서 찾아내세요.\n")
	b.WriteString("2. **시장 노이즈 배제**: '코스피 하락', '시황 마감' 같은 단순 거시경제/시장 전체 동향만을 다루는 가십성 기사는 철저히 무시하고, 종목 특이적(Company-Specific)인 뉴스(실적, 수주, M&A, 신제품 등)에 집중해서 요약하세요.\n")
	b.WriteString("3. **무조건 한국어 출력**: 제공된 기사가 영어(미국 주식)이더라도 **반드시 모든 응답을 자연스러운 한국어(Korean)로 번역 및 작성**하세요. summary와 short_reason은 100% 한국어여야 합니다.\n")
	b.WriteString("4. **요약(summary)**: 여러 기사의 핵심 내용을 2~3문장의 한국어로 종합하여 요약하세요 (예: ~발표했습니다. ~전망입니다).\n")
	b.WriteString("5. **원인 압축(short_reason)**: 요약된 한국어 내용을 바탕으로 핵심 원인을 **2~3개의 명사형 어절**로 완벽히 압축하세요. (예: '영업이익 서프라이즈, 배당 확대'). 마침표 금지.\n")
	b.WriteString("6. **카테고리(category)**: '실적', '수급', '이슈', '거시경제', '빅테크' 중 하나로 분류하세요.\n")
	b.WriteString("7. **응답 포맷**: 반드시 아래 JSON 배열 형식으로만 응답해야 하며, 다른 어떠한 텍스트나 마크다운(```json)도 포함하지 마세요.\n\n")
	b.WriteString("[\n")
	b.WriteString("  {\"symbol\": \"AAPL\", \"category\": \"이슈\", \"short_reason\": \"핵심 단어1, 핵심 단어2\", \"summary\": \"규칙을 준수한 자연스러운 한글 요약문입니다.\"},\n")
	b.WriteString("  ...\n")
	b.WriteString("]\n\n")
	b.WriteString("**[분석할 종목 데이터]**\n")

	for _, sd := range bundles {
		direction := "상승"
		if sd.ChangePct < 0 {
			direction = "하락"
		}
		fmt.Fprintf(&b, "--- 종목코드: %s | 종목명: %s | 등락: %.2f%% (%s) ---\n",
			sd.Symbol, sd.Name, sd.ChangePct, direction)

		articles := sd.Articles
		if len(articles) > maxPromptArticles {
			articles = articles[:maxPromptArticles]
		}
		for i, a := range articles {
			fmt.Fprintf(&b, "- 기사 %d 제목: %s\n", i+1, a.Title)
			if a.Content != "" {
				fmt.Fprintf(&b, "  주요 내용: %s\n", clip(a.Content, maxPromptContentLen))
			}
		}
		if market == metadata.MarketKR && sd.InvestorFlow != "" {
			fmt.Fprintf(&b, "- 오늘 수급 동향: %s\n", sd.InvestorFlow)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// fallbackResult builds the templated explanation used when the model
// path is unavailable or omits a symbol.
func fallbackResult(market string, b Bundle) Result {
	mainNews := ""
	if len(b.Articles) > 0 {
		mainNews = b.Articles[0].Title
	}

	topArticlesText := ""
	if mainNews != "" {
		titles := make([]string, 0, 3)
		for _, a := range b.Articles {
			titles = append(titles, "["+a.Title+"]")
			if len(titles) == 3 {
				break
			}
		}
		topArticlesText = " 주요 관련 뉴스: " + strings.Join(titles, ", ")
	}

	display := "시장 수급 변화"
	if mainNews != "" {
		if market == metadata.MarketUS {
			display = "관련 주요 외신 보도"
		} else {
			display = "'" + mainNews + "'"
		}
	}

	var summary string
	if b.ChangePct >= 0 {
		summary = fmt.Sprintf("%s은(는) %s 소식이 전해지며 매수세가 강화되었습니다.%s", b.Name, display, topArticlesText)
	} else {
		summary = fmt.Sprintf("%s은(는) %s 여파로 인해 매도 압력이 높아지며 약세를 보였습니다.%s", b.Name, display, topArticlesText)
	}

	shortReason := "수급 변화, 업황 변동"
	if mainNews != "" {
		words := significantWords(mainNews)
		if len(words) >= 2 {
			shortReason = words[0] + ", " + words[1]
		}
	}

	return Result{Category: "이슈", ShortReason: shortReason, Summary: summary}
}

func significantWords(title string) []string {
	var words []string
	for _, w := range strings.Fields(title) {
		if len([]rune(w)) > 1 {
			words = append(words, w)
		}
	}
	return words
}

func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) > n {
		return string(runes[:n])
	}
	return s
}
