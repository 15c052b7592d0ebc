// Package bootstrap populates stock metadata (industries and peer
// lists) for universe entries that lack them, using batched model
// calls. Run occasionally, not per pipeline run.
package bootstrap

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/hanseul-dev/stocksignal/internal/llm"
	"github.com/hanseul-dev/stocksignal/internal/metadata"
)

const batchSize = 20

// Bootstrapper enriches universe entries with industry and peer data.
type Bootstrapper struct {
	provider llm.Provider
	meta     *metadata.Store
	path     string
	pause    time.Duration
}

// New creates a bootstrapper that saves the store to path after each
// completed batch.
func New(provider llm.Provider, meta *metadata.Store, path string, pause time.Duration) *Bootstrapper {
	return &Bootstrapper{provider: provider, meta: meta, path: path, pause: pause}
}

// Run processes every market's universe in batches, skipping symbols
// that already carry peers. Partial progress is saved batch by batch.
func (b *Bootstrapper) Run(ctx context.Context, markets []string) error {
	if b.provider == nil || !b.provider.IsConfigured() {
		return fmt.Errorf("generative model not configured")
	}

	for _, mkt := range markets {
		var pending []metadata.UniverseEntry
		for _, u := range b.meta.Universe(mkt) {
			if len(b.meta.Peers(mkt, u.Symbol)) == 0 {
				pending = append(pending, u)
			}
		}
		log.Printf("Bootstrapping %d/%d %s symbols...", len(pending), len(b.meta.Universe(mkt)), mkt)

		for i := 0; i < len(pending); i += batchSize {
			end := i + batchSize
			if end > len(pending) {
				end = len(pending)
			}
			batch := pending[i:end]

			if err := b.processBatch(ctx, mkt, batch); err != nil {
				log.Printf("Error processing batch: %v", err)
				continue
			}
			if err := b.meta.Save(b.path); err != nil {
				return fmt.Errorf("saving metadata: %w", err)
			}

			if end < len(pending) && b.pause > 0 {
				select {
				case <-time.After(b.pause):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
	return nil
}

func (b *Bootstrapper) processBatch(ctx context.Context, mkt string, batch []metadata.UniverseEntry) error {
	resp, err := b.provider.Generate(ctx, buildPrompt(mkt, batch), 4096)
	if err != nil {
		return err
	}

	parsed := llm.ParseJSONResponse(resp)
	if parsed == nil {
		return fmt.Errorf("malformed batch response")
	}

	names := make(map[string]string, len(batch))
	for _, u := range batch {
		names[u.Symbol] = u.Name
	}

	for symbol, v := range parsed {
		obj, ok := v.(map[string]any)
		if !ok {
			continue
		}
		name, known := names[symbol]
		if !known {
			// The model sometimes invents symbols; keep only requested ones.
			continue
		}
		b.meta.Set(mkt, symbol, metadata.Entry{
			Name:     name,
			Industry: llm.GetStrings(obj, "industry"),
			Peers:    llm.GetStrings(obj, "peers"),
		})
	}
	return nil
}

func buildPrompt(mkt string, batch []metadata.UniverseEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "당신은 글로벌 주식 시장 전문가입니다. 다음 %s 시장 종목들에 대해 '주요 산업 분야(industry)'와 '관련 기업/경쟁사(peers)' 정보를 분석하세요.\n\n", mkt)
	b.WriteString("**분석 조건:**\n")
	b.WriteString("1. **industry**: 해당 기업의 핵심 사업 분야를 1~2개의 키워드로 작성하세요. (예: '반도체', '전기차', '전자상거래')\n")
	b.WriteString("2. **peers**: 해당 기업과 같은 산업군이거나 밀접한 연관이 있는 다른 기업의 **티커/종목코드** 리스트를 3~5개 작성하세요. 반드시 제공된 시장 내의 상장사 코드여야 합니다.\n\n")
	b.WriteString("**분석 대상 리스트:**\n")
	for _, u := range batch {
		fmt.Fprintf(&b, "- %s (%s)\n", u.Name, u.Symbol)
	}
	b.WriteString("\n**출력 형식**: 아래 JSON 구조로만 답변하세요. 다른 텍스트는 포함하지 마세요.\n")
	b.WriteString("{\n")
	b.WriteString("  \"종목코드\": {\"industry\": [\"산업명\"], \"peers\": [\"코드1\", \"코드2\"]}\n")
	b.WriteString("}")
	return b.String()
}
