package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseJSONResponsePlain(t *testing.T) {
	result := ParseJSONResponse(`{"key": "value", "num": 42}`)
	if result == nil {
		t.Fatal("expected non-nil result")
	}
	if result["key"] != "value" {
		t.Errorf("expected key='value', got %v", result["key"])
	}
}

func TestParseJSONResponseWithCodeFence(t *testing.T) {
	for _, text := range []string{
		"```json\n{\"key\": \"value\"}\n```",
		"```\n{\"key\": \"value\"}\n```",
	} {
		result := ParseJSONResponse(text)
		if result == nil {
			t.Fatalf("expected non-nil result for %q", text)
		}
		if result["key"] != "value" {
			t.Errorf("expected key='value', got %v", result["key"])
		}
	}
}

func TestParseJSONResponseInvalid(t *testing.T) {
	if ParseJSONResponse("not json at all") != nil {
		t.Error("expected nil for invalid JSON")
	}
	if ParseJSONResponse("") != nil {
		t.Error("expected nil for empty string")
	}
}

func TestParseJSONArrayResponse(t *testing.T) {
	text := "```json\n[{\"symbol\": \"AAA\", \"category\": \"실적\"}, {\"symbol\": \"BBB\"}]\n```"
	result := ParseJSONArrayResponse(text)
	if len(result) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(result))
	}
	if result[0]["symbol"] != "AAA" {
		t.Errorf("expected first symbol AAA, got %v", result[0]["symbol"])
	}
}

func TestParseJSONArrayResponseInvalid(t *testing.T) {
	if ParseJSONArrayResponse(`{"not": "an array"}`) != nil {
		t.Error("expected nil for non-array JSON")
	}
}

func TestGetString(t *testing.T) {
	m := map[string]any{"a": "x", "b": 3}
	if got := GetString(m, "a", "fb"); got != "x" {
		t.Errorf("expected x, got %q", got)
	}
	if got := GetString(m, "b", "fb"); got != "fb" {
		t.Errorf("expected fallback for non-string, got %q", got)
	}
	if got := GetString(m, "missing", "fb"); got != "fb" {
		t.Errorf("expected fallback for missing key, got %q", got)
	}
}

func TestGeminiProviderUnconfigured(t *testing.T) {
	p := NewGeminiProvider("gemini-2.5-flash", "")
	if p.IsConfigured() {
		t.Error("expected unconfigured provider without API key")
	}
	if _, err := p.Generate(context.Background(), "hi", 16); err == nil {
		t.Error("expected error from unconfigured provider")
	}
	if CreateProvider("gemini-2.5-flash", "") != nil {
		t.Error("expected nil provider without API key")
	}
}

func TestGeminiProviderGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "gemini-2.5-flash") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"hello"}]}}]}`))
	}))
	defer srv.Close()

	p := NewGeminiProvider("gemini-2.5-flash", "test-key")
	p.baseURL = srv.URL
	got, err := p.Generate(context.Background(), "say hello", 16)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if got != "hello" {
		t.Errorf("expected 'hello', got %q", got)
	}
}

func TestGeminiProviderHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewGeminiProvider("gemini-2.5-pro", "test-key")
	p.baseURL = srv.URL
	if _, err := p.Generate(context.Background(), "hi", 16); err == nil {
		t.Error("expected error on HTTP 429")
	}
}
