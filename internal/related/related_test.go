package related

import (
	"context"
	"testing"
	"time"

	"github.com/hanseul-dev/stocksignal/internal/market"
	"github.com/hanseul-dev/stocksignal/internal/metadata"
)

type fixedSource struct {
	closes map[string][]float64
}

func (f *fixedSource) Closes(ctx context.Context, symbol string, start, end time.Time) ([]float64, error) {
	return f.closes[symbol], nil
}

func testStore() *metadata.Store {
	s := metadata.NewStore()
	s.Set(metadata.MarketKR, "005930", metadata.Entry{Name: "삼성전자", Industry: []string{"반도체"}, Peers: []string{"000660", "999999"}})
	s.Set(metadata.MarketKR, "000660", metadata.Entry{Name: "SK하이닉스", Industry: []string{"반도체"}})
	s.Set(metadata.MarketKR, "005380", metadata.Entry{Name: "현대차", Industry: []string{"자동차"}})
	s.Set(metadata.MarketKR, "005935", metadata.Entry{Name: "삼성전자우", Industry: nil})
	s.Set(metadata.MarketKR, "028260", metadata.Entry{Name: "삼성물산", Industry: []string{"지주"}})
	s.Set(metadata.MarketKR, "000270", metadata.Entry{Name: "기아", Industry: []string{"자동차"}})
	return s
}

func testResolver(t *testing.T) *Resolver {
	t.Helper()
	src := &fixedSource{closes: map[string][]float64{
		"000660": {100, 103},
		"005935": {100, 98},
		"028260": {100, 100.5},
		"000270": {50, 51},
	}}
	return NewResolver(testStore(), market.NewChangeResolver(src))
}

func TestResolvePeersAndGroup(t *testing.T) {
	r := testResolver(t)
	got := r.Resolve(context.Background(), "005930", "삼성전자", "2026-01-15", metadata.MarketKR)

	want := []Stock{
		{Name: "[반도체] SK하이닉스", ChangeRate: "+3.0%"},
		{Name: "[그룹사] 삼성전자우", ChangeRate: "-2.0%"},
		{Name: "[그룹사] 삼성물산", ChangeRate: "+0.5%"},
	}
	if len(got) != len(want) {
		t.Fatalf("Resolve() returned %d stocks, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Resolve()[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestResolveSkipsUnknownPeers(t *testing.T) {
	r := testResolver(t)
	got := r.Resolve(context.Background(), "005930", "삼성전자", "2026-01-15", metadata.MarketKR)

	for _, s := range got {
		if s.Name == "" {
			t.Error("unexpected empty name")
		}
	}
	// Peer 999999 is not in the universe and must not appear.
	for _, s := range got {
		if s.Name == "[경쟁사] 999999" {
			t.Errorf("Resolve() included out-of-universe peer: %+v", got)
		}
	}
}

func TestResolveIndustryFallback(t *testing.T) {
	r := testResolver(t)
	// 현대차 has no peers and no shared name prefix; tier 3 matches 기아.
	got := r.Resolve(context.Background(), "005380", "현대차", "2026-01-15", metadata.MarketKR)

	want := []Stock{{Name: "[자동차] 기아", ChangeRate: "+2.0%"}}
	if len(got) != 1 || got[0] != want[0] {
		t.Errorf("Resolve() = %+v, want %+v", got, want)
	}
}

func TestResolveExcludesSelf(t *testing.T) {
	r := testResolver(t)
	got := r.Resolve(context.Background(), "005930", "삼성전자", "2026-01-15", metadata.MarketKR)

	for _, s := range got {
		if s.Name == "[반도체] 삼성전자" || s.Name == "[그룹사] 삼성전자" {
			t.Errorf("Resolve() included the queried stock itself: %+v", got)
		}
	}
}

func TestResolveCapsAtFive(t *testing.T) {
	s := metadata.NewStore()
	s.Set(metadata.MarketKR, "000001", metadata.Entry{Name: "대한A", Industry: []string{"금융"}})
	for i := 2; i <= 8; i++ {
		sym := "00000" + string(rune('0'+i))
		s.Set(metadata.MarketKR, sym, metadata.Entry{Name: "대한" + string(rune('A'+i)), Industry: []string{"금융"}})
	}
	r := NewResolver(s, market.NewChangeResolver(&fixedSource{}))

	got := r.Resolve(context.Background(), "000001", "대한A", "2026-01-15", metadata.MarketKR)
	if len(got) > maxRelated {
		t.Errorf("Resolve() returned %d stocks, want at most %d", len(got), maxRelated)
	}
}

func TestResolveNoCandidates(t *testing.T) {
	s := metadata.NewStore()
	s.Set(metadata.MarketUS, "AAPL", metadata.Entry{Name: "Apple"})
	r := NewResolver(s, market.NewChangeResolver(&fixedSource{}))

	got := r.Resolve(context.Background(), "AAPL", "Apple", "2026-01-15", metadata.MarketUS)
	if len(got) != 0 {
		t.Errorf("Resolve() = %+v, want empty", got)
	}
}

func TestResolveUSNoGroupTier(t *testing.T) {
	s := metadata.NewStore()
	s.Set(metadata.MarketUS, "MSFT", metadata.Entry{Name: "Microsoft", Industry: []string{"빅테크"}})
	s.Set(metadata.MarketUS, "MSTR", metadata.Entry{Name: "MicroStrategy", Industry: []string{"소프트웨어"}})
	r := NewResolver(s, market.NewChangeResolver(&fixedSource{closes: map[string][]float64{"MSTR": {10, 11}}}))

	// Name-prefix grouping is domestic-only, and the industries differ,
	// so no tier produces a candidate.
	got := r.Resolve(context.Background(), "MSFT", "Microsoft", "2026-01-15", metadata.MarketUS)
	if len(got) != 0 {
		t.Errorf("Resolve() = %+v, want empty for US prefix-only match", got)
	}
}
