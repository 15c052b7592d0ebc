// Package server exposes persisted datasets over HTTP: a JSON API for
// consumers and an HTML digest view for humans.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"net/http"

	"github.com/yuin/goldmark"

	"github.com/hanseul-dev/stocksignal/internal/compose"
	"github.com/hanseul-dev/stocksignal/internal/database"
	"github.com/hanseul-dev/stocksignal/internal/market"
	"github.com/hanseul-dev/stocksignal/internal/metadata"
	"github.com/hanseul-dev/stocksignal/internal/signal"
)

var md = goldmark.New()

var digestPage = template.Must(template.New("digest").Parse(`<!DOCTYPE html>
<html lang="ko">
<head>
<meta charset="utf-8">
<title>시장 시그널 — {{.Date}} ({{.Market}})</title>
<style>
body { max-width: 48rem; margin: 2rem auto; padding: 0 1rem; font-family: sans-serif; line-height: 1.6; }
a { color: #1a56db; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>`))

// Generator triggers a pipeline run on demand.
type Generator interface {
	Generate(ctx context.Context, date, market string) error
}

// Server serves datasets from a signal store. The run generator and
// the report database are optional.
type Server struct {
	store *signal.Store
	gen   Generator
	db    *database.DB
	mux   *http.ServeMux
}

// New creates the HTTP server.
func New(store *signal.Store, gen Generator, db *database.DB) *Server {
	s := &Server{store: store, gen: gen, db: db, mux: http.NewServeMux()}
	s.routes()
	return s
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/signals", s.handleSignals)
	s.mux.HandleFunc("/api/generate", s.handleGenerate)
	s.mux.HandleFunc("/api/status", s.handleStatus)
	s.mux.HandleFunc("/digest/", s.handleDigest)
}

// resolveQuery normalizes the date and market parameters. An empty
// date falls back to the market's last trading day.
func resolveQuery(r *http.Request) (date, mkt string) {
	mkt = r.URL.Query().Get("market")
	if mkt != metadata.MarketUS {
		mkt = metadata.MarketKR
	}
	date = r.URL.Query().Get("date")
	if date == "" {
		date = market.LastTradingDay(market.Now(), mkt)
	}
	return date, mkt
}

func (s *Server) handleSignals(w http.ResponseWriter, r *http.Request) {
	date, mkt := resolveQuery(r)
	ds, err := s.store.Load(date, mkt)
	if err != nil {
		log.Printf("Error loading dataset for %s (%s): %v", date, mkt, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, ds)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.gen == nil {
		http.Error(w, "Generation not available", http.StatusServiceUnavailable)
		return
	}

	date, mkt := resolveQuery(r)
	if err := s.gen.Generate(r.Context(), date, mkt); err != nil {
		log.Printf("Error generating dataset for %s (%s): %v", date, mkt, err)
		http.Error(w, "Generation failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]string{"status": "ok", "date": date, "market": mkt})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeJSON(w, map[string]any{"runs": []database.RunReport{}})
		return
	}
	runs, err := s.db.RecentRuns(20)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"runs": runs})
}

func (s *Server) handleDigest(w http.ResponseWriter, r *http.Request) {
	date, mkt := resolveQuery(r)
	ds, err := s.store.Load(date, mkt)
	if err != nil {
		log.Printf("Error loading dataset for %s (%s): %v", date, mkt, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := md.Convert([]byte(compose.Digest(date, mkt, ds)), &buf); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	digestPage.Execute(w, map[string]any{
		"Date":   date,
		"Market": mkt,
		"Body":   template.HTML(buf.String()), //nolint: gosec
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// Serve starts the HTTP server on the given port.
func Serve(store *signal.Store, gen Generator, db *database.DB, port int) error {
	srv := New(store, gen, db)
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	log.Printf("Server listening on http://%s", addr)
	return http.ListenAndServe(addr, srv.Handler())
}
