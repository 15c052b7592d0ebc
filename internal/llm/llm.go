package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// Provider is the interface for generative-model providers.
type Provider interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
	IsConfigured() bool
}

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

// GeminiProvider calls the Gemini REST API.
type GeminiProvider struct {
	Model   string
	APIKey  string
	baseURL string
	client  *http.Client
}

// NewGeminiProvider creates a Gemini provider for the given model.
// An empty API key yields an unconfigured provider; callers are expected
// to fall back to deterministic output in that case.
func NewGeminiProvider(model, apiKey string) *GeminiProvider {
	return &GeminiProvider{
		Model:   model,
		APIKey:  apiKey,
		baseURL: geminiBaseURL,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

// IsConfigured checks if the API key is set.
func (g *GeminiProvider) IsConfigured() bool {
	return g.APIKey != ""
}

// WithModel returns a provider for a different model sharing the same
// key and HTTP client. Used for the one-step model downgrade.
func (g *GeminiProvider) WithModel(model string) *GeminiProvider {
	return &GeminiProvider{Model: model, APIKey: g.APIKey, baseURL: g.baseURL, client: g.client}
}

// Generate sends a prompt to Gemini and returns the response text.
func (g *GeminiProvider) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if g.APIKey == "" {
		return "", fmt.Errorf("gemini API key not configured")
	}

	body := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": prompt}}},
		},
		"generationConfig": map[string]any{
			"maxOutputTokens": maxTokens,
			"temperature":     0.3,
		},
	}

	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", g.baseURL, g.Model, g.APIKey)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("gemini API returned %d: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no candidates in gemini response")
	}
	return result.Candidates[0].Content.Parts[0].Text, nil
}

// CreateProvider creates the Gemini provider, or nil when the API key is
// absent. A nil provider disables all LLM-assisted paths; the pipeline
// still produces deterministic output.
func CreateProvider(model, apiKey string) Provider {
	p := NewGeminiProvider(model, apiKey)
	if p.IsConfigured() {
		log.Printf("Using Gemini with model: %s", model)
		return p
	}
	log.Println("No Gemini API key set; AI-assisted paths disabled")
	return nil
}
