// Package pipeline wires the full generation run: scan movers, collect
// and rank news, enrich, summarize, resolve related stocks, and
// persist the merged dataset.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hanseul-dev/stocksignal/internal/config"
	"github.com/hanseul-dev/stocksignal/internal/database"
	"github.com/hanseul-dev/stocksignal/internal/enrich"
	"github.com/hanseul-dev/stocksignal/internal/llm"
	"github.com/hanseul-dev/stocksignal/internal/market"
	"github.com/hanseul-dev/stocksignal/internal/metadata"
	"github.com/hanseul-dev/stocksignal/internal/news"
	"github.com/hanseul-dev/stocksignal/internal/rank"
	"github.com/hanseul-dev/stocksignal/internal/related"
	"github.com/hanseul-dev/stocksignal/internal/signal"
	"github.com/hanseul-dev/stocksignal/internal/summarize"
)

// MarketDeps bundles the per-market collaborators: a price source
// wrapper and a news source.
type MarketDeps struct {
	Resolver *market.ChangeResolver
	Source   news.Source
}

// Pipeline runs dataset generation. Optional collaborators (Cache,
// Flow, Enricher) may be nil; their stages are skipped.
type Pipeline struct {
	Config     *config.Config
	Meta       *metadata.Store
	Store      *signal.Store
	Cache      *database.DB
	Markets    map[string]MarketDeps
	Flow       news.FlowFetcher
	Enricher   *enrich.Enricher
	Selector   *rank.Selector
	Summarizer *summarize.Generator
	Now        func() time.Time
}

// New wires a production pipeline from configuration. The content
// cache is opened best-effort; a cache failure only disables caching.
func New(cfg *config.Config) (*Pipeline, error) {
	meta, err := metadata.Load(cfg.MetadataPath())
	if err != nil {
		return nil, fmt.Errorf("loading stock metadata: %w", err)
	}

	var db *database.DB
	if db, err = database.Open(cfg.CachePath()); err != nil {
		log.Printf("Error opening cache database: %v (continuing without cache)", err)
		db = nil
	}

	apiKey := cfg.Gemini.APIKey()
	selectProvider := llm.CreateProvider(cfg.Gemini.SelectModel, apiKey)
	batchPrimary := llm.CreateProvider(cfg.Gemini.BatchModel, apiKey)
	batchFallback := llm.CreateProvider(cfg.Gemini.BatchFallbackModel, apiKey)

	ua := cfg.News.UserAgent
	return &Pipeline{
		Config: cfg,
		Meta:   meta,
		Store:  signal.NewStore(cfg.GetDataDir()),
		Cache:  db,
		Markets: map[string]MarketDeps{
			metadata.MarketKR: {
				Resolver: market.NewChangeResolver(market.NewNaverPriceSource(ua)),
				Source:   news.NewNaverCollector(ua, cfg.News.MaxPages, cfg.News.MaxArticlesKR, cfg.News.LookbackDays),
			},
			metadata.MarketUS: {
				Resolver: market.NewChangeResolver(market.NewYahooPriceSource(ua)),
				Source:   news.NewYahooRSSCollector(ua, cfg.News.MaxArticlesUS),
			},
		},
		Flow:     news.NewNaverFlowFetcher(ua),
		Enricher: enrich.NewEnricher(db, ua),
		Selector: rank.NewSelector(selectProvider, time.Duration(cfg.Gemini.SelectTimeoutSecs)*time.Second),
		Summarizer: summarize.NewGenerator(batchPrimary, batchFallback,
			time.Duration(cfg.Gemini.BatchTimeoutSecs)*time.Second,
			time.Duration(cfg.Gemini.BatchDelaySecs)*time.Second),
	}, nil
}

// Close releases pipeline resources.
func (p *Pipeline) Close() {
	if p.Cache != nil {
		p.Cache.Close()
	}
}

// Generate runs the full pipeline for (date, mkt) and persists the
// merged dataset. An empty date resolves to the market's last trading
// day. Only persistence failures are fatal; every collection stage
// degrades to its fallback.
func (p *Pipeline) Generate(ctx context.Context, date, mkt string) error {
	deps, ok := p.Markets[mkt]
	if !ok {
		return fmt.Errorf("unknown market %q", mkt)
	}

	now := market.Now
	if p.Now != nil {
		now = p.Now
	}
	if date == "" {
		date = market.LastTradingDay(now(), mkt)
	}
	log.Printf("Generating signals for %s (%s)...", date, mkt)

	prev, err := p.Store.Load(date, mkt)
	if err != nil {
		log.Printf("Error loading existing dataset: %v (starting fresh)", err)
		prev = &signal.Dataset{}
	}
	prevSignals := prev.BySymbol()

	scanner := market.NewScanner(p.Meta, deps.Resolver)
	movers := scanner.TopMovers(ctx, date, mkt, p.Config.Movers.TopN)
	log.Printf("Found %d movers", len(movers))

	bundles := make([]summarize.Bundle, 0, len(movers))
	for _, mover := range movers {
		bundles = append(bundles, p.collect(ctx, deps, mover, date, mkt, prevSignals))
	}

	summaries := p.Summarizer.Summarize(ctx, mkt, bundles)

	relResolver := related.NewResolver(p.Meta, deps.Resolver)
	nowStamp := now().In(market.KST).Format("2006-01-02 15:04:05")

	signals := make([]signal.Signal, 0, len(bundles))
	articleTotal := 0
	for i, b := range bundles {
		theme := ""
		if ind := p.Meta.PrimaryIndustry(mkt, b.Symbol); ind != "" {
			theme = "#" + ind
		}
		summary := summaries[b.Symbol]
		articleTotal += len(b.Articles)

		signals = append(signals, signal.Signal{
			ID:            signal.ID(date, mkt, i+1),
			Theme:         theme,
			SignalType:    summary.Category,
			ShortReason:   summary.ShortReason,
			Summary:       summary.Summary,
			MainStock: signal.MainStock{
				Name:       b.Name,
				Symbol:     b.Symbol,
				ChangeRate: market.FormatChangeRate(b.ChangePct),
				NewsURL:    signal.NewsURL(b.Symbol, mkt),
			},
			NewsArticles:  b.Articles,
			RelatedStocks: relResolver.Resolve(ctx, b.Symbol, b.Name, date, mkt),
			Timestamp:     nowStamp,
		})
	}

	ds := &signal.Dataset{LastUpdated: nowStamp, Signals: signals}
	if err := p.Store.Write(date, mkt, ds); err != nil {
		return fmt.Errorf("persisting dataset: %w", err)
	}
	log.Printf("Wrote %d signals to %s", len(signals), p.Store.Path(date, mkt))

	if p.Cache != nil {
		if err := p.Cache.InsertRun(date, mkt, len(signals), articleTotal); err != nil {
			log.Printf("Error recording run report: %v", err)
		}
	}
	return nil
}

// collect gathers and ranks one mover's evidence: fresh articles,
// union with the previous run, causal selection, enrichment, and the
// domestic investor-flow snapshot.
func (p *Pipeline) collect(ctx context.Context, deps MarketDeps, mover market.Mover, date, mkt string, prevSignals map[string]signal.Signal) summarize.Bundle {
	fresh := deps.Source.Collect(ctx, mover.Symbol, mover.Name, date)

	var prevArticles []news.Article
	if prevSig, ok := prevSignals[mover.Symbol]; ok {
		prevArticles = prevSig.NewsArticles
	}
	articles := signal.UnionArticles(fresh, prevArticles)

	bestIdx := p.Selector.Select(ctx, mover.Name, mover.ChangePct, articles)
	if bestIdx > 0 && bestIdx < len(articles) {
		best := articles[bestIdx]
		articles = append(articles[:bestIdx], articles[bestIdx+1:]...)
		articles = append([]news.Article{best}, articles...)
	}
	if len(articles) > 0 && bestIdx != rank.NoRelevantArticle {
		log.Printf("Selected impactful news for %s: %s", mover.Name, articles[0].Title)
		if mkt == metadata.MarketKR && p.Enricher != nil {
			p.Enricher.Enrich(ctx, &articles[0])
		}
	} else {
		log.Printf("No sufficiently impactful news found for %s", mover.Name)
	}

	flow := ""
	if mkt == metadata.MarketKR && p.Flow != nil {
		flow = p.Flow.Flow(ctx, mover.Symbol)
	}

	return summarize.Bundle{
		Symbol:       mover.Symbol,
		Name:         mover.Name,
		ChangePct:    mover.ChangePct,
		Articles:     articles,
		InvestorFlow: flow,
	}
}
