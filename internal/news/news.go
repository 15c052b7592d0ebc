// Package news collects candidate news evidence for a symbol around a
// target trading date.
package news

import (
	"context"
	"regexp"
	"strings"
)

// Article is one collected news item. Identity is the URL.
type Article struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Date    string `json:"date"`
	Source  string `json:"source"`
	HasName bool   `json:"has_name"`
	Content string `json:"content,omitempty"`
}

// Source collects candidate articles for a symbol. Implementations are
// best-effort: they log and degrade on fetch or parse failures, and
// always return at least one article (a synthetic placeholder when
// nothing was found).
type Source interface {
	Collect(ctx context.Context, symbol, name, targetDate string) []Article
}

// titleMatchesName reports whether an article title mentions the stock.
// Names of two characters or fewer use boundary-aware matching so e.g.
// "SK" does not match subsidiary names like "SK하이닉스".
func titleMatchesName(name, title string) bool {
	if len([]rune(name)) <= 2 {
		pattern := `(?:^|[^가-힣a-zA-Z0-9])` + regexp.QuoteMeta(name) + `(?:$|[^가-힣a-zA-Z0-9])`
		matched, err := regexp.MatchString(pattern, title)
		return err == nil && matched
	}
	return strings.Contains(title, name)
}
