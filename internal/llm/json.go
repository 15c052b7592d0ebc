package llm

import (
	"encoding/json"
	"log"
	"strings"
)

// StripFences removes a surrounding markdown code fence, if any.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	endIdx := len(lines) - 1
	for i := len(lines) - 1; i > 0; i-- {
		if strings.TrimSpace(lines[i]) == "```" {
			endIdx = i
			break
		}
	}
	return strings.TrimSpace(strings.Join(lines[1:endIdx], "\n"))
}

// ParseJSONResponse parses a JSON object response from an LLM, handling
// markdown code blocks.
func ParseJSONResponse(text string) map[string]any {
	text = StripFences(text)
	if text == "" {
		return nil
	}

	var result map[string]any
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		log.Printf("Failed to parse LLM response as JSON object: %v", err)
		return nil
	}
	return result
}

// ParseJSONArrayResponse parses a JSON array response from an LLM,
// handling markdown code blocks.
func ParseJSONArrayResponse(text string) []map[string]any {
	text = StripFences(text)
	if text == "" {
		return nil
	}

	var result []map[string]any
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		log.Printf("Failed to parse LLM response as JSON array: %v", err)
		return nil
	}
	return result
}

// GetString reads a string field from a parsed response, with fallback.
func GetString(m map[string]any, key, fallback string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return fallback
}

// GetStrings reads a string-array field from a parsed response.
func GetStrings(m map[string]any, key string) []string {
	v, ok := m[key]
	if !ok {
		return nil
	}
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range arr {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
